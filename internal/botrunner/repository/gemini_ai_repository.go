package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/pkg/logger"
	"github.com/komapc/daatan-sub000/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

// geminiAIRepository is an LLMProvider backed by the Google Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (LLMProvider, error) {
	if genAiClient == nil {
		return nil, errors.New("gemini client is required")
	}
	if cfg.Gemini.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("gemini max_request_per_minute must be positive, got %d", cfg.Gemini.MaxRequestPerMinute)
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute),
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) Name() string {
	return ProviderGemini
}

// GenerateContent sends one prompt to Gemini, honouring the request and token budgets.
func (r *geminiAIRepository) GenerateContent(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if r.cfg.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.LLM.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	tokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(tokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.Schema != nil {
		genCfg.ResponseMIMEType = "application/json"
		genCfg.ResponseSchema = toGenaiSchema(req.Schema)
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, genCfg)
	if err != nil {
		r.logger.Error("Failed to generate content with Gemini", logger.ErrorField(err), logger.StringField("model", r.cfg.Gemini.Model))
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, errors.New("no content found in Gemini response")
	}

	return &dto.GenerateResponse{Text: text, Provider: ProviderGemini}, nil
}

func toGenaiSchema(s *dto.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Enum:        s.Enum,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func toGenaiType(t dto.SchemaType) genai.Type {
	switch t {
	case dto.SchemaObject:
		return genai.TypeObject
	case dto.SchemaBoolean:
		return genai.TypeBoolean
	case dto.SchemaInteger:
		return genai.TypeInteger
	case dto.SchemaNumber:
		return genai.TypeNumber
	case dto.SchemaArray:
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
