package service

import (
	"context"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/logger"
)

// CURefiller tops up a bot's spendable balance before it stakes.
type CURefiller interface {
	EnsureBalance(ctx context.Context, bot *entity.BotConfig, dryRun bool) (bool, error)
}

func NewCURefiller(userRepo repository.UserRepository, log *logger.Logger) CURefiller {
	return &cuRefiller{userRepo: userRepo, logger: log}
}

type cuRefiller struct {
	userRepo repository.UserRepository
	logger   *logger.Logger
}

// EnsureBalance is a no-op when refills are disabled or in dry runs.
func (r *cuRefiller) EnsureBalance(ctx context.Context, bot *entity.BotConfig, dryRun bool) (bool, error) {
	if bot.CUThreshold <= 0 || dryRun {
		return false, nil
	}

	refilled, err := r.userRepo.RefillIfAtOrBelow(ctx, bot.UserID, bot.CUThreshold, bot.CURefillAmount)
	if err != nil {
		return false, fmt.Errorf("failed to refill CU for bot %s: %w", bot.ID, err)
	}
	if refilled {
		r.logger.Info("Refilled bot CU balance",
			logger.StringField("bot_id", bot.ID),
			logger.IntField("amount", bot.CURefillAmount),
			logger.IntField("threshold", bot.CUThreshold),
		)
	}
	return refilled, nil
}
