package entity

import "time"

// Commitment is CU staked by an account on one side of a forecast.
type Commitment struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_commitment_user_forecast" json:"user_id"`
	ForecastID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_commitment_user_forecast" json:"forecast_id"`
	CUCommitted  int       `gorm:"column:cu_committed;not null" json:"cu_committed"`
	BinaryChoice *bool     `json:"binary_choice,omitempty"`
	OptionIndex  *int      `json:"option_index,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Commitment) TableName() string {
	return "commitments"
}
