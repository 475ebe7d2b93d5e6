package entity

import "time"

// User is the account a bot acts through. Only the CU balance is used here.
type User struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `json:"name"`
	IsBot       bool      `gorm:"not null;default:false" json:"is_bot"`
	CUAvailable int       `gorm:"column:cu_available;not null;default:0" json:"cu_available"`
	CULocked    int       `gorm:"column:cu_locked;not null;default:0" json:"cu_locked"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type CUTransactionType string

const (
	CUTransactionBotRefill      CUTransactionType = "BOT_REFILL"
	CUTransactionCommitmentLock CUTransactionType = "COMMITMENT_LOCK"
)

// CUTransaction is one ledger line of a user's CU balance.
type CUTransaction struct {
	ID           string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Type         CUTransactionType `gorm:"not null" json:"type"`
	Amount       int               `gorm:"not null" json:"amount"`
	BalanceAfter int               `gorm:"not null" json:"balance_after"`
	ReferenceID  *string           `gorm:"type:uuid" json:"reference_id,omitempty"`
	Note         string            `json:"note"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (CUTransaction) TableName() string {
	return "cu_transactions"
}
