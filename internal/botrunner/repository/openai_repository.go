package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/pkg/logger"

	"golang.org/x/time/rate"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// openaiCompatibleRepository talks to any OpenAI style chat completions endpoint.
// OpenAI and OpenRouter both use it with different base URLs.
type openaiCompatibleRepository struct {
	name           string
	client         *http.Client
	cfg            config.OpenAICompatible
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

// NewOpenAICompatibleRepository creates a provider called name using the given endpoint settings.
func NewOpenAICompatibleRepository(name string, cfg config.OpenAICompatible, timeout time.Duration, log *logger.Logger) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api key is required", name)
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s base url is required", name)
	}
	if cfg.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("%s max_request_per_minute must be positive, got %d", name, cfg.MaxRequestPerMinute)
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)

	return &openaiCompatibleRepository{
		name: name,
		client: &http.Client{
			Timeout: timeout,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}, nil
}

func (r *openaiCompatibleRepository) Name() string {
	return r.name
}

func (r *openaiCompatibleRepository) GenerateContent(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Temperature: req.Temperature,
	}
	if req.Schema != nil {
		schemaJSON, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema: %w", err)
		}
		payload.Messages = append(payload.Messages, dto.ChatMessage{
			Role:    "system",
			Content: "Respond with a single JSON object matching this JSON schema:\n" + string(schemaJSON),
		})
		payload.ResponseFormat = &dto.ResponseFormat{Type: "json_object"}
	}
	payload.Messages = append(payload.Messages, dto.ChatMessage{Role: "user", Content: req.Prompt})

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.APIKey))

	r.logger.Debug("Sending chat completion request",
		logger.StringField("provider", r.name),
		logger.StringField("model", r.cfg.Model),
	)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", r.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", r.name, resp.StatusCode, truncateBody(body))
	}

	var completion dto.ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", r.name, err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("%s error: %s", r.name, completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no choices found in chat completion response")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return nil, errors.New("empty content in chat completion response")
	}

	return &dto.GenerateResponse{Text: text, Provider: r.name}, nil
}

func truncateBody(body []byte) string {
	const max = 300
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
