package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func votingBot() entity.BotConfig {
	bot := newBot("v1")
	bot.CanCreateForecasts = false
	bot.CanVote = true
	return bot
}

func binaryCandidates(ids ...string) []entity.Forecast {
	out := make([]entity.Forecast, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Forecast{ID: id, ClaimText: "🤖 Claim " + id, OutcomeType: entity.OutcomeBinary})
	}
	return out
}

func TestVotePipeline_PassAndParseFailureLeaveNoTrace(t *testing.T) {
	h := newHarness()
	h.bots.bots = []entity.BotConfig{votingBot()}
	h.forecasts.candidates = binaryCandidates("f1", "f2", "f3")
	h.provider.vote = func(call int) (string, error) {
		switch call {
		case 0:
			return `{"should_vote": false, "reasoning": "unsure"}`, nil
		case 1:
			return "no idea", nil
		default:
			return `{"should_vote": true, "binary_choice": false}`, nil
		}
	}

	summaries, err := h.service(t).RunDueBots(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summaries[0].Votes)
	assert.Equal(t, 0, summaries[0].Errors)
	voted := h.runLogs.byAction(entity.BotActionVoted)
	require.Len(t, voted, 1)
	assert.Equal(t, "f3", *voted[0].ForecastID)
	assert.Len(t, h.runLogs.logs, 1)

	require.Len(t, h.commitments.requests, 1)
	assert.False(t, *h.commitments.requests[0].BinaryChoice)
	assert.Equal(t, 10, h.commitments.requests[0].Amount)
}

func TestVotePipeline_BackendFailureRecordsErrorAndContinues(t *testing.T) {
	h := newHarness()
	h.bots.bots = []entity.BotConfig{votingBot()}
	h.forecasts.candidates = binaryCandidates("f1", "f2")
	h.provider.vote = func(call int) (string, error) {
		if call == 0 {
			return "", errors.New("timeout")
		}
		return `{"should_vote": true}`, nil
	}

	summaries, err := h.service(t).RunDueBots(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summaries[0].Votes)
	assert.Equal(t, 1, summaries[0].Errors)

	errs := h.runLogs.byAction(entity.BotActionError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error, "timeout")
	assert.Nil(t, errs[0].ForecastID)
	assert.Contains(t, string(errs[0].TriggerNews), "f1")

	require.Len(t, h.commitments.requests, 1)
	assert.True(t, *h.commitments.requests[0].BinaryChoice)
}

func TestVotePipeline_AllBackendsDownRecordsOneErrorPerCandidate(t *testing.T) {
	h := newHarness()
	h.bots.bots = []entity.BotConfig{votingBot()}
	h.forecasts.candidates = binaryCandidates("f1")
	h.provider.vote = func(int) (string, error) {
		return "", errors.New("all backends down")
	}

	summaries, err := h.service(t).RunDueBots(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, summaries[0].Votes)
	assert.Equal(t, 1, summaries[0].Errors)

	errs := h.runLogs.byAction(entity.BotActionError)
	require.Len(t, errs, 1)
	assert.True(t, errs[0].IsDryRun)
	assert.Len(t, h.runLogs.logs, 1)
	assert.Empty(t, h.commitments.requests)
}

func TestVotePipeline_StopsAtRemainingQuota(t *testing.T) {
	h := newHarness()
	bot := votingBot()
	bot.MaxVotesPerDay = 3
	h.bots.bots = []entity.BotConfig{bot}
	h.runLogs.seed("v1", entity.BotActionVoted, 2, h.now.Add(-time.Hour))
	h.forecasts.candidates = binaryCandidates("f1", "f2", "f3")
	h.provider.vote = always(`{"should_vote": true}`)

	summaries, err := h.service(t).RunDueBots(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summaries[0].Votes)
	assert.Equal(t, 1, h.provider.counts["vote"])
	assert.Len(t, h.runLogs.byAction(entity.BotActionVoted), 3)
}

func TestVotePipeline_RejectionIsNotCounted(t *testing.T) {
	h := newHarness()
	h.bots.bots = []entity.BotConfig{votingBot()}
	h.forecasts.candidates = binaryCandidates("f1")
	h.commitments.reject = "insufficient CU"
	h.provider.vote = always(`{"should_vote": true}`)

	summaries, err := h.service(t).RunDueBots(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, summaries[0].Votes)
	assert.Equal(t, 0, summaries[0].Errors)
	assert.Empty(t, h.runLogs.logs)
}

func TestVotePipeline_PromptCarriesBiasHint(t *testing.T) {
	h := newHarness()
	bot := votingBot()
	bot.VoteBias = 85
	h.bots.bots = []entity.BotConfig{bot}
	h.forecasts.candidates = binaryCandidates("f1")
	h.provider.vote = always(`{"should_vote": false}`)

	_, err := h.service(t).RunDueBots(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, h.provider.calls, 1)
	assert.Contains(t, h.provider.calls[0].Prompt, "optimistic")
}

func TestCommitmentFor(t *testing.T) {
	mc := &entity.Forecast{OutcomeType: entity.OutcomeMultipleChoice, Options: []string{"A", "B"}}

	req, ok := commitmentFor(mc, dto.VoteDecision{ShouldVote: true, OptionIndex: utils.ToPointer(1)})
	require.True(t, ok)
	assert.Equal(t, 1, *req.OptionIndex)

	_, ok = commitmentFor(mc, dto.VoteDecision{ShouldVote: true, OptionIndex: utils.ToPointer(2)})
	assert.False(t, ok)
	_, ok = commitmentFor(mc, dto.VoteDecision{ShouldVote: true})
	assert.False(t, ok)

	req, ok = commitmentFor(&entity.Forecast{OutcomeType: entity.OutcomeBinary}, dto.VoteDecision{ShouldVote: true})
	require.True(t, ok)
	assert.True(t, *req.BinaryChoice)
}
