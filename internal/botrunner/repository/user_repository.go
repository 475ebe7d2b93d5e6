package repository

import (
	"context"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository manages the CU balance of bot accounts.
type UserRepository interface {
	RefillIfAtOrBelow(ctx context.Context, userID string, threshold, amount int) (bool, error)
}

// NewUserRepository creates a new GORM-based user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

type userRepository struct {
	db *gorm.DB
}

// RefillIfAtOrBelow grants amount CU when the available balance is at or below
// threshold. The balance read, ledger insert and increment share one
// transaction holding the user row lock, so repeated calls refill at most once.
func (r *userRepository) RefillIfAtOrBelow(ctx context.Context, userID string, threshold, amount int) (bool, error) {
	refilled := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entity.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&user).Error; err != nil {
			return fmt.Errorf("failed to load user %s: %w", userID, err)
		}

		if user.CUAvailable > threshold {
			return nil
		}

		balanceAfter := user.CUAvailable + amount
		txn := entity.CUTransaction{
			ID:           uuid.NewString(),
			UserID:       userID,
			Type:         entity.CUTransactionBotRefill,
			Amount:       amount,
			BalanceAfter: balanceAfter,
			Note:         fmt.Sprintf("Bot auto-refill (balance %d <= threshold %d)", user.CUAvailable, threshold),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("failed to record refill transaction: %w", err)
		}

		if err := tx.Model(&entity.User{}).
			Where("id = ?", userID).
			Update("cu_available", gorm.Expr("cu_available + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to increment balance: %w", err)
		}

		refilled = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return refilled, nil
}
