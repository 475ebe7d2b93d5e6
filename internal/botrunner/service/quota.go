package service

import (
	"context"
	"fmt"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/utils"
)

// QuotaTracker counts today's real actions of a bot from the run log.
type QuotaTracker interface {
	CountTodayActions(ctx context.Context, botID string, action entity.BotAction) (int, error)
	Remaining(ctx context.Context, botID string, action entity.BotAction, limit int) (int, error)
}

func NewQuotaTracker(runLogRepo repository.BotRunLogRepository) QuotaTracker {
	return &quotaTracker{runLogRepo: runLogRepo, now: time.Now}
}

type quotaTracker struct {
	runLogRepo repository.BotRunLogRepository
	now        func() time.Time
}

// CountTodayActions counts non-dry-run entries since the start of the current UTC day.
func (q *quotaTracker) CountTodayActions(ctx context.Context, botID string, action entity.BotAction) (int, error) {
	count, err := q.runLogRepo.CountSince(ctx, botID, action, utils.StartOfUTCDay(q.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s actions: %w", action, err)
	}
	return count, nil
}

// Remaining returns how many more actions fit under limit today, never below zero.
func (q *quotaTracker) Remaining(ctx context.Context, botID string, action entity.BotAction, limit int) (int, error) {
	used, err := q.CountTodayActions(ctx, botID, action)
	if err != nil {
		return 0, err
	}
	if used >= limit {
		return 0, nil
	}
	return limit - used, nil
}
