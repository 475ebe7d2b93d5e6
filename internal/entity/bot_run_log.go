package entity

import (
	"time"

	"gorm.io/datatypes"
)

type BotAction string

const (
	BotActionCreatedForecast BotAction = "CREATED_FORECAST"
	BotActionVoted           BotAction = "VOTED"
	BotActionSkipped         BotAction = "SKIPPED"
	BotActionError           BotAction = "ERROR"
)

// BotRunLog is the append-only audit record of one attempted bot action.
// Daily quotas are counted from these rows.
type BotRunLog struct {
	ID            string         `gorm:"primaryKey;type:uuid" json:"id"`
	BotID         string         `gorm:"type:uuid;not null;index:idx_bot_run_logs_quota,priority:1" json:"bot_id"`
	Action        BotAction      `gorm:"not null;index:idx_bot_run_logs_quota,priority:2" json:"action"`
	IsDryRun      bool           `gorm:"not null;default:false" json:"is_dry_run"`
	TriggerNews   datatypes.JSON `gorm:"type:jsonb" json:"trigger_news,omitempty"`
	ForecastID    *string        `gorm:"type:uuid" json:"forecast_id,omitempty"`
	GeneratedText string         `gorm:"type:text" json:"generated_text,omitempty"`
	Error         string         `gorm:"type:text" json:"error,omitempty"`
	RunAt         time.Time      `gorm:"not null;index:idx_bot_run_logs_quota,priority:3" json:"run_at"`
}

func (BotRunLog) TableName() string {
	return "bot_run_logs"
}

// TriggerNews is the JSON stored with a log entry.
type TriggerNews struct {
	Title       string   `json:"title,omitempty"`
	URLs        []string `json:"urls,omitempty"`
	SourceCount int      `json:"source_count,omitempty"`
	ForecastRef string   `json:"forecast_ref,omitempty"`
}
