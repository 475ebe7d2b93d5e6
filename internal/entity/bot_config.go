package entity

import (
	"time"

	"github.com/lib/pq"
)

// BotConfig holds the operating parameters of one autonomous bot account.
type BotConfig struct {
	ID                 string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID             string         `gorm:"type:uuid;not null" json:"user_id"`
	User               *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name               string         `gorm:"not null" json:"name"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	IntervalMinutes    int            `gorm:"not null;default:360" json:"interval_minutes"`
	MaxForecastsPerDay int            `gorm:"not null;default:3" json:"max_forecasts_per_day"`
	MaxVotesPerDay     int            `gorm:"not null;default:10" json:"max_votes_per_day"`
	StakeMin           int            `gorm:"not null;default:10" json:"stake_min"`
	StakeMax           int            `gorm:"not null;default:50" json:"stake_max"`
	ModelPreference    string         `json:"model_preference"`
	HotnessMinSources  int            `gorm:"not null;default:2" json:"hotness_min_sources"`
	HotnessWindowHours int            `gorm:"not null;default:6" json:"hotness_window_hours"`
	PersonaPrompt      string         `gorm:"type:text" json:"persona_prompt"`
	ForecastPrompt     string         `gorm:"type:text" json:"forecast_prompt"`
	VotePrompt         string         `gorm:"type:text" json:"vote_prompt"`
	NewsSources        pq.StringArray `gorm:"type:text[]" json:"news_sources"`
	ActiveHoursStart   *int           `json:"active_hours_start,omitempty"`
	ActiveHoursEnd     *int           `json:"active_hours_end,omitempty"`
	TagFilter          pq.StringArray `gorm:"type:text[]" json:"tag_filter"`
	VoteBias           int            `gorm:"not null;default:50" json:"vote_bias"`
	CUThreshold        int            `gorm:"column:cu_refill_at;not null;default:0" json:"cu_refill_at"`
	CURefillAmount     int            `gorm:"column:cu_refill_amount;not null;default:0" json:"cu_refill_amount"`
	CanCreateForecasts bool           `gorm:"not null;default:true" json:"can_create_forecasts"`
	CanVote            bool           `gorm:"not null;default:true" json:"can_vote"`
	AutoApprove        bool           `gorm:"not null;default:true" json:"auto_approve"`
	LastRunAt          *time.Time     `json:"last_run_at,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BotConfig) TableName() string {
	return "bot_configs"
}

// NextRunAt returns when the bot becomes due again, or nil if it never ran.
func (b *BotConfig) NextRunAt() *time.Time {
	if b.LastRunAt == nil {
		return nil
	}
	next := b.LastRunAt.Add(time.Duration(b.IntervalMinutes) * time.Minute)
	return &next
}

// IsDue reports whether the bot should run at now. Reaching the interval
// exactly counts as due.
func (b *BotConfig) IsDue(now time.Time) bool {
	next := b.NextRunAt()
	if next == nil {
		return true
	}
	return !now.Before(*next)
}
