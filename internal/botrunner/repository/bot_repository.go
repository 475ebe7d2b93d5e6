package repository

import (
	"context"
	"time"

	"github.com/komapc/daatan-sub000/internal/entity"

	"gorm.io/gorm"
)

// BotRepository defines the data operations on bot configurations.
type BotRepository interface {
	FindActive(ctx context.Context) ([]entity.BotConfig, error)
	FindByID(ctx context.Context, id string) (*entity.BotConfig, error)
	UpdateLastRunAt(ctx context.Context, id string, at time.Time) error
}

// NewBotRepository creates a new GORM-based bot repository.
func NewBotRepository(db *gorm.DB) BotRepository {
	return &botRepository{db: db}
}

type botRepository struct {
	db *gorm.DB
}

// FindActive returns every active bot, oldest first.
func (r *botRepository) FindActive(ctx context.Context) ([]entity.BotConfig, error) {
	var bots []entity.BotConfig
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&bots).Error; err != nil {
		return nil, err
	}
	return bots, nil
}

// FindByID retrieves a bot by its ID. Returns gorm.ErrRecordNotFound when absent.
func (r *botRepository) FindByID(ctx context.Context, id string) (*entity.BotConfig, error) {
	var bot entity.BotConfig
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bot).Error; err != nil {
		return nil, err
	}
	return &bot, nil
}

// UpdateLastRunAt touches only the last_run_at column of one bot.
func (r *botRepository) UpdateLastRunAt(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.BotConfig{}).
		Where("id = ?", id).
		Update("last_run_at", at).Error
}
