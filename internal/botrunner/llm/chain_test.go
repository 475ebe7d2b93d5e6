package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) GenerateContent(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*dto.GenerateResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &mockProvider{name: "gemini"}
	second := &mockProvider{name: "openai"}
	first.On("GenerateContent", mock.Anything, mock.Anything).Return(&dto.GenerateResponse{Text: "ok", Provider: "gemini"}, nil)

	chain := NewChain([]repository.LLMProvider{first, second}, logger.NewNop())
	resp, err := chain.GenerateContent(context.Background(), dto.GenerateRequest{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	second.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything)
}

func TestChain_FallsBack(t *testing.T) {
	first := &mockProvider{name: "gemini"}
	second := &mockProvider{name: "openrouter"}
	first.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))
	second.On("GenerateContent", mock.Anything, mock.Anything).Return(&dto.GenerateResponse{Text: "fallback", Provider: "openrouter"}, nil)

	chain := NewChain([]repository.LLMProvider{first, second}, logger.NewNop())
	resp, err := chain.GenerateContent(context.Background(), dto.GenerateRequest{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, "openrouter", resp.Provider)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestChain_AllFailCarriesLastError(t *testing.T) {
	lastErr := errors.New("openai down")
	first := &mockProvider{name: "gemini"}
	second := &mockProvider{name: "openai"}
	first.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("gemini down"))
	second.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, lastErr)

	chain := NewChain([]repository.LLMProvider{first, second}, logger.NewNop())
	resp, err := chain.GenerateContent(context.Background(), dto.GenerateRequest{Prompt: "p"})

	assert.Nil(t, resp)
	var allErr *AllProvidersFailedError
	require.ErrorAs(t, err, &allErr)
	assert.Equal(t, 2, allErr.Attempts)
	assert.ErrorIs(t, err, lastErr)
	assert.Contains(t, err.Error(), "openai down")
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain(nil, logger.NewNop()).GenerateContent(context.Background(), dto.GenerateRequest{})
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestChain_WithPreference(t *testing.T) {
	a := &mockProvider{name: "gemini"}
	b := &mockProvider{name: "openrouter"}
	c := &mockProvider{name: "openai"}
	chain := NewChain([]repository.LLMProvider{a, b, c}, logger.NewNop())

	assert.Equal(t, []string{"openai", "gemini", "openrouter"}, chain.WithPreference("openai").Names())
	assert.Equal(t, []string{"gemini", "openrouter", "openai"}, chain.WithPreference("gemini").Names())
	assert.Equal(t, []string{"gemini", "openrouter", "openai"}, chain.WithPreference("claude").Names())
	assert.Equal(t, []string{"gemini", "openrouter", "openai"}, chain.Names())
}
