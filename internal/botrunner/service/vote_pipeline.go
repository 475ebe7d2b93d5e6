package service

import (
	"context"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/llmjson"
	"github.com/komapc/daatan-sub000/pkg/logger"
)

const voteCandidateLimit = 20

var voteTemperature = float32(0.4)

type votePipeline struct {
	forecastRepo   repository.ForecastRepository
	commitmentRepo repository.CommitmentRepository
	quota          QuotaTracker
	refiller       CURefiller
	audit          *auditLogger
	logger         *logger.Logger
	stakeAmount    func(min, max int) int
}

// Run stakes on other users' open forecasts while vote quota remains.
func (p *votePipeline) Run(ctx context.Context, bot *entity.BotConfig, gen contentGenerator, dryRun bool, summary *dto.RunSummary) error {
	if !bot.CanVote {
		return nil
	}

	budget, err := p.quota.Remaining(ctx, bot.ID, entity.BotActionVoted, bot.MaxVotesPerDay)
	if err != nil {
		return err
	}
	if budget <= 0 {
		p.logger.Debug("Vote quota exhausted", logger.StringField("bot_id", bot.ID))
		return nil
	}

	candidates, err := p.forecastRepo.FindVoteCandidates(ctx, bot.UserID, bot.TagFilter, voteCandidateLimit)
	if err != nil {
		return fmt.Errorf("failed to load vote candidates: %w", err)
	}

	limit := budget
	if len(candidates) < limit {
		limit = len(candidates)
	}

	for i := 0; i < limit && summary.Votes < budget; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		remaining, err := p.quota.Remaining(ctx, bot.ID, entity.BotActionVoted, bot.MaxVotesPerDay)
		if err != nil {
			return err
		}
		if dryRun {
			remaining -= summary.Votes
		}
		if remaining <= 0 {
			break
		}

		if err := p.processCandidate(ctx, bot, gen, &candidates[i], dryRun, summary); err != nil {
			return err
		}
	}

	return nil
}

// processCandidate only returns errors that should abort the bot. A backend
// failure is recorded as an ERROR entry for the candidate; parse failures and
// passes are dropped without an audit entry.
func (p *votePipeline) processCandidate(ctx context.Context, bot *entity.BotConfig, gen contentGenerator, forecast *entity.Forecast, dryRun bool, summary *dto.RunSummary) error {
	log := p.logger.With(logger.StringField("bot_id", bot.ID), logger.StringField("forecast_id", forecast.ID))

	resp, err := gen.GenerateContent(ctx, dto.GenerateRequest{
		Prompt:      repository.BuildVotePrompt(bot, forecast),
		Schema:      repository.VoteSchema(),
		Temperature: &voteTemperature,
	})
	if err != nil {
		summary.Errors++
		return p.audit.record(ctx, bot, dryRun, auditEntry{
			action:      entity.BotActionError,
			forecastRef: forecast.ID,
			err:         err,
		})
	}

	var decision dto.VoteDecision
	if err := llmjson.Unmarshal(resp.Text, &decision); err != nil {
		log.Debug("Failed to parse vote decision", logger.ErrorField(err))
		return nil
	}
	if !decision.ShouldVote {
		log.Debug("Bot passed on forecast", logger.StringField("reasoning", decision.Reasoning))
		return nil
	}

	req, ok := commitmentFor(forecast, decision)
	if !ok {
		log.Debug("Vote decision has no valid side")
		return nil
	}

	if dryRun {
		summary.Votes++
		return p.audit.record(ctx, bot, true, auditEntry{
			action:        entity.BotActionVoted,
			forecastRef:   forecast.ID,
			generatedText: resp.Text,
		})
	}

	if _, err := p.refiller.EnsureBalance(ctx, bot, false); err != nil {
		return err
	}
	req.Amount = p.stakeAmount(bot.StakeMin, bot.StakeMax)

	result, err := p.commitmentRepo.CreateCommitment(ctx, bot.UserID, forecast.ID, req)
	if err != nil {
		return fmt.Errorf("failed to create commitment: %w", err)
	}
	if !result.OK {
		log.Warn("Vote commitment rejected", logger.StringField("reason", result.Error))
		return nil
	}

	summary.Votes++
	return p.audit.record(ctx, bot, false, auditEntry{
		action:        entity.BotActionVoted,
		forecastRef:   forecast.ID,
		forecastID:    &forecast.ID,
		generatedText: resp.Text,
	})
}

// commitmentFor maps a decision onto the forecast's outcome type. Binary
// forecasts default to the "yes" side when the model omitted it.
func commitmentFor(forecast *entity.Forecast, decision dto.VoteDecision) (dto.CommitmentRequest, bool) {
	if forecast.OutcomeType == entity.OutcomeMultipleChoice {
		if decision.OptionIndex == nil || *decision.OptionIndex < 0 || *decision.OptionIndex >= len(forecast.Options) {
			return dto.CommitmentRequest{}, false
		}
		idx := *decision.OptionIndex
		return dto.CommitmentRequest{OptionIndex: &idx}, true
	}

	choice := true
	if decision.BinaryChoice != nil {
		choice = *decision.BinaryChoice
	}
	return dto.CommitmentRequest{BinaryChoice: &choice}, true
}
