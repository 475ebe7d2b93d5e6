package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/news"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/llmjson"
	"github.com/komapc/daatan-sub000/pkg/logger"
	"github.com/komapc/daatan-sub000/pkg/utils"

	"github.com/lib/pq"
)

const (
	ClaimPrefix        = "🤖 "
	minClaimLength     = 10
	maxTags            = 5
	maxPromptSources   = 3
	dedupClaimLimit    = 50
	defaultDeadlineAge = 90 * 24 * time.Hour
)

var (
	dedupTemperature    = float32(0)
	forecastTemperature = float32(0.7)
)

// contentGenerator is the part of the provider chain the pipelines use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, req dto.GenerateRequest) (*dto.GenerateResponse, error)
}

type topicOutcome int

const (
	topicFailed topicOutcome = iota
	topicCreated
	topicSkipped
)

// topicError carries the raw model output alongside a per-topic failure.
type topicError struct {
	err error
	raw string
}

func (e *topicError) Error() string { return e.err.Error() }
func (e *topicError) Unwrap() error { return e.err }

type forecastPipeline struct {
	forecastRepo   repository.ForecastRepository
	commitmentRepo repository.CommitmentRepository
	fetcher        news.Fetcher
	detector       news.TopicDetector
	articles       news.ArticleExtractor
	quota          QuotaTracker
	refiller       CURefiller
	audit          *auditLogger
	logger         *logger.Logger
	now            func() time.Time
	stakeAmount    func(min, max int) int
}

// Run creates forecasts from hot topics until the daily quota is used up.
// Per-topic failures are recorded and skipped; a returned error aborts the bot.
func (p *forecastPipeline) Run(ctx context.Context, bot *entity.BotConfig, gen contentGenerator, dryRun bool, summary *dto.RunSummary) error {
	if !bot.CanCreateForecasts || len(bot.NewsSources) == 0 {
		return nil
	}

	remaining, err := p.remaining(ctx, bot, dryRun, summary)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		p.logger.Debug("Forecast quota exhausted", logger.StringField("bot_id", bot.ID))
		return nil
	}

	items, err := p.fetcher.FetchSources(ctx, bot.NewsSources)
	if err != nil {
		return fmt.Errorf("failed to fetch news sources: %w", err)
	}

	topics := p.detector.DetectHotTopics(items, bot.HotnessMinSources, bot.HotnessWindowHours)
	if len(topics) == 0 {
		summary.Skipped++
		return p.audit.record(ctx, bot, dryRun, auditEntry{action: entity.BotActionSkipped, trigger: "no hot topics"})
	}

	for i := range topics {
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining, err := p.remaining(ctx, bot, dryRun, summary)
		if err != nil {
			return err
		}
		if remaining <= 0 {
			break
		}

		topic := &topics[i]
		outcome, err := p.processTopic(ctx, bot, gen, topic, dryRun)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var writeErr *auditWriteError
			if errors.As(err, &writeErr) {
				// The action happened but is missing from the run log, so the
				// quota cannot see it; stop this bot rather than overshoot.
				countOutcome(outcome, summary)
				return err
			}
			summary.Errors++
			entry := auditEntry{action: entity.BotActionError, topic: topic, err: err}
			var te *topicError
			if errors.As(err, &te) {
				entry.generatedText = te.raw
			}
			if auditErr := p.audit.record(ctx, bot, dryRun, entry); auditErr != nil {
				return auditErr
			}
			continue
		}

		countOutcome(outcome, summary)
	}

	return nil
}

func countOutcome(outcome topicOutcome, summary *dto.RunSummary) {
	switch outcome {
	case topicCreated:
		summary.ForecastsCreated++
	case topicSkipped:
		summary.Skipped++
	}
}

// remaining also subtracts this run's dry-run creations, which the run log does not count.
func (p *forecastPipeline) remaining(ctx context.Context, bot *entity.BotConfig, dryRun bool, summary *dto.RunSummary) (int, error) {
	remaining, err := p.quota.Remaining(ctx, bot.ID, entity.BotActionCreatedForecast, bot.MaxForecastsPerDay)
	if err != nil {
		return 0, err
	}
	if dryRun {
		remaining -= summary.ForecastsCreated
	}
	return remaining, nil
}

func (p *forecastPipeline) processTopic(ctx context.Context, bot *entity.BotConfig, gen contentGenerator, topic *dto.HotTopic, dryRun bool) (topicOutcome, error) {
	duplicate, answer, err := p.isDuplicate(ctx, gen, topic)
	if err != nil {
		return topicFailed, err
	}
	if duplicate {
		return topicSkipped, p.audit.record(ctx, bot, dryRun, auditEntry{
			action:        entity.BotActionSkipped,
			topic:         topic,
			generatedText: answer,
		})
	}

	urls := topic.URLs(maxPromptSources)
	excerpt := p.excerpt(ctx, urls)

	resp, err := gen.GenerateContent(ctx, dto.GenerateRequest{
		Prompt:      repository.BuildForecastPrompt(bot, *topic, urls, excerpt, p.now()),
		Schema:      repository.ForecastSchema(),
		Temperature: &forecastTemperature,
	})
	if err != nil {
		return topicFailed, fmt.Errorf("failed to generate forecast: %w", err)
	}
	raw := resp.Text

	if len(bot.TagFilter) > 0 && strings.Contains(raw, repository.SkipTopicSignal) {
		return topicSkipped, p.audit.record(ctx, bot, dryRun, auditEntry{
			action:        entity.BotActionSkipped,
			topic:         topic,
			generatedText: raw,
		})
	}

	var generated dto.GeneratedForecast
	if err := llmjson.Unmarshal(raw, &generated); err != nil {
		return topicFailed, &topicError{err: fmt.Errorf("failed to parse generated forecast: %w", err), raw: raw}
	}
	if generated.Skip {
		return topicSkipped, p.audit.record(ctx, bot, dryRun, auditEntry{
			action:        entity.BotActionSkipped,
			topic:         topic,
			generatedText: raw,
		})
	}

	forecast, err := buildForecast(bot, generated, p.now())
	if err != nil {
		return topicFailed, &topicError{err: err, raw: raw}
	}

	if dryRun {
		return topicCreated, p.audit.record(ctx, bot, true, auditEntry{
			action:        entity.BotActionCreatedForecast,
			topic:         topic,
			generatedText: raw,
		})
	}

	if err := p.persist(ctx, forecast); err != nil {
		return topicFailed, &topicError{err: err, raw: raw}
	}

	p.selfStake(ctx, bot, forecast)

	return topicCreated, p.audit.record(ctx, bot, false, auditEntry{
		action:        entity.BotActionCreatedForecast,
		topic:         topic,
		forecastID:    &forecast.ID,
		generatedText: raw,
	})
}

// isDuplicate asks whether an open forecast already covers the topic. A failed
// check is returned as an error so the topic is not generated.
func (p *forecastPipeline) isDuplicate(ctx context.Context, gen contentGenerator, topic *dto.HotTopic) (bool, string, error) {
	claims, err := p.forecastRepo.FindRecentClaims(ctx, dedupClaimLimit)
	if err != nil {
		return false, "", fmt.Errorf("failed to load recent claims: %w", err)
	}

	resp, err := gen.GenerateContent(ctx, dto.GenerateRequest{
		Prompt:      repository.BuildDedupPrompt(topic.Title, claims),
		Temperature: &dedupTemperature,
	})
	if err != nil {
		return false, "", fmt.Errorf("dedup check failed: %w", err)
	}

	return isAffirmative(resp.Text), resp.Text, nil
}

func isAffirmative(answer string) bool {
	a := strings.TrimSpace(answer)
	a = strings.TrimLeft(a, "\"'`*")
	return strings.HasPrefix(strings.ToLower(a), "yes")
}

func (p *forecastPipeline) excerpt(ctx context.Context, urls []string) string {
	if p.articles == nil || len(urls) == 0 {
		return ""
	}
	text, err := p.articles.Excerpt(ctx, urls[0])
	if err != nil {
		p.logger.Debug("Failed to extract article excerpt", logger.StringField("url", urls[0]), logger.ErrorField(err))
		return ""
	}
	return text
}

func (p *forecastPipeline) persist(ctx context.Context, forecast *entity.Forecast) error {
	base := utils.Slugify(forecast.ClaimText)
	taken, err := p.forecastRepo.FindSlugsWithPrefix(ctx, base)
	if err != nil {
		return fmt.Errorf("failed to load existing slugs: %w", err)
	}
	forecast.Slug = utils.UniqueSlug(base, taken)

	if err := p.forecastRepo.CreateDraft(ctx, forecast); err != nil {
		return fmt.Errorf("failed to create forecast: %w", err)
	}
	if err := p.forecastRepo.Publish(ctx, forecast.ID); err != nil {
		return fmt.Errorf("failed to publish forecast %s: %w", forecast.ID, err)
	}
	return nil
}

// selfStake commits the bot to its own claim. Failures are logged only; the
// forecast already exists and still counts as created.
func (p *forecastPipeline) selfStake(ctx context.Context, bot *entity.BotConfig, forecast *entity.Forecast) {
	if _, err := p.refiller.EnsureBalance(ctx, bot, false); err != nil {
		p.logger.Warn("CU refill before self-stake failed", logger.StringField("bot_id", bot.ID), logger.ErrorField(err))
	}

	req := dto.CommitmentRequest{Amount: p.stakeAmount(bot.StakeMin, bot.StakeMax)}
	if forecast.OutcomeType == entity.OutcomeMultipleChoice {
		req.OptionIndex = utils.ToPointer(0)
	} else {
		req.BinaryChoice = utils.ToPointer(true)
	}

	result, err := p.commitmentRepo.CreateCommitment(ctx, bot.UserID, forecast.ID, req)
	switch {
	case err != nil:
		p.logger.Warn("Self-stake failed", logger.StringField("bot_id", bot.ID), logger.StringField("forecast_id", forecast.ID), logger.ErrorField(err))
	case !result.OK:
		p.logger.Warn("Self-stake rejected", logger.StringField("bot_id", bot.ID), logger.StringField("forecast_id", forecast.ID), logger.StringField("reason", result.Error))
	}
}

// buildForecast validates and normalises model output into a draft forecast.
func buildForecast(bot *entity.BotConfig, g dto.GeneratedForecast, now time.Time) (*entity.Forecast, error) {
	claim := strings.TrimSpace(g.ClaimText)
	if len([]rune(strings.TrimSpace(strings.TrimPrefix(claim, ClaimPrefix)))) < minClaimLength {
		return nil, fmt.Errorf("%w: claim text must be at least %d characters", ErrInvalidForecast, minClaimLength)
	}
	if !strings.HasPrefix(claim, ClaimPrefix) {
		claim = ClaimPrefix + claim
	}

	deadline, ok := utils.ParseDeadline(strings.TrimSpace(g.ResolveByDatetime))
	if !ok || !deadline.After(now) {
		deadline = now.UTC().Add(defaultDeadlineAge)
	}

	outcome := entity.OutcomeBinary
	var options []string
	if strings.EqualFold(strings.TrimSpace(g.OutcomeType), string(entity.OutcomeMultipleChoice)) {
		for _, o := range g.Options {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}
		if len(options) >= 2 {
			outcome = entity.OutcomeMultipleChoice
		} else {
			options = nil
		}
	}

	return &entity.Forecast{
		ClaimText:         claim,
		DetailsText:       strings.TrimSpace(g.DetailsText),
		OutcomeType:       outcome,
		Options:           pq.StringArray(options),
		ResolveByDatetime: deadline,
		ResolutionRules:   strings.TrimSpace(g.ResolutionRules),
		Tags:              pq.StringArray(normalizeTags(g.Tags)),
		AuthorID:          bot.UserID,
		Source:            entity.ForecastSourceBot,
	}, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, maxTags)
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}
