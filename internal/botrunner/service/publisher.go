package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/pkg/common"
	"github.com/komapc/daatan-sub000/pkg/telegram"

	"github.com/redis/go-redis/v9"
)

// SummaryPublisher announces the result of one invocation.
type SummaryPublisher interface {
	Publish(ctx context.Context, summaries []dto.RunSummary) error
}

// NewRedisSummaryPublisher appends each summary to the bot run stream.
func NewRedisSummaryPublisher(client redis.UniversalClient, maxLen int64) SummaryPublisher {
	return &redisSummaryPublisher{client: client, maxLen: maxLen}
}

type redisSummaryPublisher struct {
	client redis.UniversalClient
	maxLen int64
}

func (p *redisSummaryPublisher) Publish(ctx context.Context, summaries []dto.RunSummary) error {
	for _, s := range summaries {
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal run summary: %w", err)
		}
		if err := p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: common.RedisStreamBotRunSummary,
			MaxLen: p.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"bot_id":  s.BotID,
				"payload": payload,
			},
		}).Err(); err != nil {
			return fmt.Errorf("failed to publish run summary for bot %s: %w", s.BotID, err)
		}
	}
	return nil
}

// NewTelegramSummaryPublisher posts a digest of each invocation.
func NewTelegramSummaryPublisher(notifier telegram.Notifier) SummaryPublisher {
	return &telegramSummaryPublisher{notifier: notifier}
}

type telegramSummaryPublisher struct {
	notifier telegram.Notifier
}

func (p *telegramSummaryPublisher) Publish(_ context.Context, summaries []dto.RunSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	if err := telegram.SendAll(p.notifier, telegram.FormatRunSummariesForTelegram(summaries)); err != nil {
		return fmt.Errorf("failed to send telegram digest: %w", err)
	}
	return nil
}
