package repository

import (
	"context"
	"time"

	"github.com/komapc/daatan-sub000/internal/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ForecastRepository defines the forecast data operations used by bots.
type ForecastRepository interface {
	FindRecentClaims(ctx context.Context, limit int) ([]string, error)
	FindSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	CreateDraft(ctx context.Context, forecast *entity.Forecast) error
	Publish(ctx context.Context, id string) error
	FindVoteCandidates(ctx context.Context, userID string, tagFilter []string, limit int) ([]entity.Forecast, error)
}

// NewForecastRepository creates a new GORM-based forecast repository.
func NewForecastRepository(db *gorm.DB) ForecastRepository {
	return &forecastRepository{db: db}
}

type forecastRepository struct {
	db *gorm.DB
}

// FindRecentClaims returns the claim text of the newest active or pending forecasts.
func (r *forecastRepository) FindRecentClaims(ctx context.Context, limit int) ([]string, error) {
	var claims []string
	err := r.db.WithContext(ctx).
		Model(&entity.Forecast{}).
		Where("status IN ?", []entity.ForecastStatus{entity.ForecastStatusActive, entity.ForecastStatusPending}).
		Order("created_at DESC").
		Limit(limit).
		Pluck("claim_text", &claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// FindSlugsWithPrefix lists existing slugs starting with prefix.
func (r *forecastRepository) FindSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).
		Model(&entity.Forecast{}).
		Where("slug LIKE ?", prefix+"%").
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	return slugs, nil
}

// CreateDraft inserts the forecast in DRAFT status.
func (r *forecastRepository) CreateDraft(ctx context.Context, forecast *entity.Forecast) error {
	if forecast.ID == "" {
		forecast.ID = uuid.NewString()
	}
	forecast.Status = entity.ForecastStatusDraft
	return r.db.WithContext(ctx).Create(forecast).Error
}

// Publish moves a draft to ACTIVE and stamps published_at.
func (r *forecastRepository) Publish(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Forecast{}).
		Where("id = ? AND status = ?", id, entity.ForecastStatusDraft).
		Updates(map[string]interface{}{
			"status":       entity.ForecastStatusActive,
			"published_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindVoteCandidates returns active forecasts by other authors the user has not
// committed to, newest first, optionally restricted to overlapping tags.
func (r *forecastRepository) FindVoteCandidates(ctx context.Context, userID string, tagFilter []string, limit int) ([]entity.Forecast, error) {
	var forecasts []entity.Forecast

	q := r.db.WithContext(ctx).
		Where("status = ?", entity.ForecastStatusActive).
		Where("author_id <> ?", userID).
		Where("NOT EXISTS (SELECT 1 FROM commitments c WHERE c.forecast_id = forecasts.id AND c.user_id = ?)", userID)

	if len(tagFilter) > 0 {
		q = q.Where("tags && ?", pq.StringArray(tagFilter))
	}

	if err := q.Order("created_at DESC").Limit(limit).Find(&forecasts).Error; err != nil {
		return nil, err
	}
	return forecasts, nil
}
