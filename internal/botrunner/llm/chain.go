package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/pkg/logger"
)

var ErrNoProviders = errors.New("no llm providers configured")

// AllProvidersFailedError is returned when every provider in the chain failed.
type AllProvidersFailedError struct {
	Attempts int
	Last     error
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all %d llm providers failed, last error: %v", e.Attempts, e.Last)
}

func (e *AllProvidersFailedError) Unwrap() error {
	return e.Last
}

// Chain tries its providers in order and returns the first success.
type Chain struct {
	providers []repository.LLMProvider
	logger    *logger.Logger
}

func NewChain(providers []repository.LLMProvider, log *logger.Logger) *Chain {
	return &Chain{providers: providers, logger: log}
}

// Names lists the providers in attempt order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// WithPreference returns a chain with the named provider moved to the front.
// An empty or unknown name returns the chain unchanged.
func (c *Chain) WithPreference(name string) *Chain {
	if name == "" {
		return c
	}
	idx := -1
	for i, p := range c.providers {
		if p.Name() == name {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return c
	}

	ordered := make([]repository.LLMProvider, 0, len(c.providers))
	ordered = append(ordered, c.providers[idx])
	ordered = append(ordered, c.providers[:idx]...)
	ordered = append(ordered, c.providers[idx+1:]...)
	return &Chain{providers: ordered, logger: c.logger}
}

func (c *Chain) GenerateContent(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for _, p := range c.providers {
		resp, err := p.GenerateContent(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		c.logger.Warn("LLM provider failed, trying next",
			logger.StringField("provider", p.Name()),
			logger.ErrorField(err),
		)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, &AllProvidersFailedError{Attempts: len(c.providers), Last: lastErr}
}
