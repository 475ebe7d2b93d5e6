package repository

import (
	"context"
	"time"

	"github.com/komapc/daatan-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BotRunLogRepository stores the append-only bot audit trail.
type BotRunLogRepository interface {
	Create(ctx context.Context, log *entity.BotRunLog) error
	CountSince(ctx context.Context, botID string, action entity.BotAction, since time.Time) (int, error)
	FindLatestByBot(ctx context.Context, botID string, limit int) ([]entity.BotRunLog, error)
}

// NewBotRunLogRepository creates a new GORM-based run log repository.
func NewBotRunLogRepository(db *gorm.DB) BotRunLogRepository {
	return &botRunLogRepository{db: db}
}

type botRunLogRepository struct {
	db *gorm.DB
}

// Create inserts a new entry.
func (r *botRunLogRepository) Create(ctx context.Context, log *entity.BotRunLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.RunAt.IsZero() {
		log.RunAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// CountSince counts non-dry-run entries of one action for a bot at or after since.
func (r *botRunLogRepository) CountSince(ctx context.Context, botID string, action entity.BotAction, since time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.BotRunLog{}).
		Where("bot_id = ? AND action = ? AND is_dry_run = ? AND run_at >= ?", botID, action, false, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindLatestByBot returns the most recent entries of a bot, newest first.
func (r *botRunLogRepository) FindLatestByBot(ctx context.Context, botID string, limit int) ([]entity.BotRunLog, error) {
	var logs []entity.BotRunLog
	if err := r.db.WithContext(ctx).
		Where("bot_id = ?", botID).
		Order("run_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
