package repository

import (
	"context"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
)

// LLMProvider is one generative text backend.
type LLMProvider interface {
	Name() string
	GenerateContent(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error)
}
