package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommitmentRepository places stakes. Business rejections are reported in the
// result; only infrastructure failures are returned as errors.
type CommitmentRepository interface {
	CreateCommitment(ctx context.Context, userID, forecastID string, req dto.CommitmentRequest) (*dto.CommitmentResult, error)
}

// NewCommitmentRepository creates a new GORM-based commitment repository.
func NewCommitmentRepository(db *gorm.DB) CommitmentRepository {
	return &commitmentRepository{db: db}
}

type commitmentRepository struct {
	db *gorm.DB
}

type rejection struct {
	reason string
}

func (r *rejection) Error() string { return r.reason }

func (r *commitmentRepository) CreateCommitment(ctx context.Context, userID, forecastID string, req dto.CommitmentRequest) (*dto.CommitmentResult, error) {
	if req.Amount <= 0 {
		return &dto.CommitmentResult{Error: "amount must be positive"}, nil
	}
	if req.BinaryChoice == nil && req.OptionIndex == nil {
		return &dto.CommitmentResult{Error: "a side must be chosen"}, nil
	}

	commitment := entity.Commitment{
		ID:           uuid.NewString(),
		UserID:       userID,
		ForecastID:   forecastID,
		CUCommitted:  req.Amount,
		BinaryChoice: req.BinaryChoice,
		OptionIndex:  req.OptionIndex,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var forecast entity.Forecast
		if err := tx.Select("id", "status", "outcome_type", "options").
			Where("id = ?", forecastID).
			First(&forecast).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &rejection{reason: "forecast not found"}
			}
			return err
		}
		if forecast.Status != entity.ForecastStatusActive {
			return &rejection{reason: fmt.Sprintf("forecast is %s", forecast.Status)}
		}
		if forecast.OutcomeType == entity.OutcomeMultipleChoice {
			if req.OptionIndex == nil || *req.OptionIndex < 0 || *req.OptionIndex >= len(forecast.Options) {
				return &rejection{reason: "invalid option"}
			}
		} else if req.BinaryChoice == nil {
			return &rejection{reason: "binary forecast requires a yes/no choice"}
		}

		var user entity.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&user).Error; err != nil {
			return err
		}
		if user.CUAvailable < req.Amount {
			return &rejection{reason: fmt.Sprintf("insufficient CU: available %d, requested %d", user.CUAvailable, req.Amount)}
		}

		var existing int64
		if err := tx.Model(&entity.Commitment{}).
			Where("user_id = ? AND forecast_id = ?", userID, forecastID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &rejection{reason: "already committed to this forecast"}
		}

		if err := tx.Create(&commitment).Error; err != nil {
			return err
		}

		if err := tx.Model(&entity.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"cu_available": gorm.Expr("cu_available - ?", req.Amount),
				"cu_locked":    gorm.Expr("cu_locked + ?", req.Amount),
			}).Error; err != nil {
			return err
		}

		ref := commitment.ID
		return tx.Create(&entity.CUTransaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			Type:         entity.CUTransactionCommitmentLock,
			Amount:       -req.Amount,
			BalanceAfter: user.CUAvailable - req.Amount,
			ReferenceID:  &ref,
			Note:         "Commitment on forecast " + forecastID,
		}).Error
	})

	var rej *rejection
	if errors.As(err, &rej) {
		return &dto.CommitmentResult{Error: rej.reason}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create commitment: %w", err)
	}
	return &dto.CommitmentResult{OK: true, CommitmentID: commitment.ID}, nil
}
