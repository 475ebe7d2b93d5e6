package service

import (
	"context"
	"testing"
	"time"

	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCURefiller_EnsureBalance(t *testing.T) {
	users := &fakeUserRepo{balance: map[string]int{"u1": 20}}
	refiller := NewCURefiller(users, logger.NewNop())
	bot := &entity.BotConfig{ID: "b1", UserID: "u1", CUThreshold: 50, CURefillAmount: 100}

	refilled, err := refiller.EnsureBalance(context.Background(), bot, false)
	require.NoError(t, err)
	assert.True(t, refilled)

	refilled, err = refiller.EnsureBalance(context.Background(), bot, false)
	require.NoError(t, err)
	assert.False(t, refilled)

	assert.Equal(t, 1, users.transactions)
	assert.Equal(t, 120, users.balance["u1"])
}

func TestCURefiller_AtThresholdRefills(t *testing.T) {
	users := &fakeUserRepo{balance: map[string]int{"u1": 50}}
	refilled, err := NewCURefiller(users, logger.NewNop()).EnsureBalance(context.Background(), &entity.BotConfig{UserID: "u1", CUThreshold: 50, CURefillAmount: 10}, false)
	require.NoError(t, err)
	assert.True(t, refilled)
}

func TestCURefiller_NoOps(t *testing.T) {
	users := &fakeUserRepo{balance: map[string]int{"u1": 0}}
	refiller := NewCURefiller(users, logger.NewNop())

	refilled, err := refiller.EnsureBalance(context.Background(), &entity.BotConfig{UserID: "u1", CUThreshold: 0, CURefillAmount: 100}, false)
	require.NoError(t, err)
	assert.False(t, refilled)

	refilled, err = refiller.EnsureBalance(context.Background(), &entity.BotConfig{UserID: "u1", CUThreshold: 50, CURefillAmount: 100}, true)
	require.NoError(t, err)
	assert.False(t, refilled)

	assert.Equal(t, 0, users.calls)
}

func TestQuotaTracker_Remaining(t *testing.T) {
	now := time.Date(2026, 4, 10, 0, 30, 0, 0, time.UTC)
	logs := &fakeRunLogRepo{now: func() time.Time { return now }}
	logs.seed("b1", entity.BotActionCreatedForecast, 2, now.Add(-10*time.Minute))
	logs.seed("b1", entity.BotActionCreatedForecast, 5, now.Add(-time.Hour))
	logs.seed("b2", entity.BotActionCreatedForecast, 5, now)
	logs.logs = append(logs.logs, entity.BotRunLog{BotID: "b1", Action: entity.BotActionCreatedForecast, IsDryRun: true, RunAt: now})

	q := &quotaTracker{runLogRepo: logs, now: func() time.Time { return now }}

	count, err := q.CountTodayActions(context.Background(), "b1", entity.BotActionCreatedForecast)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	remaining, err := q.Remaining(context.Background(), "b1", entity.BotActionCreatedForecast, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	remaining, err = q.Remaining(context.Background(), "b2", entity.BotActionCreatedForecast, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}
