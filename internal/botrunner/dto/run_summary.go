package dto

import (
	"time"

	"github.com/komapc/daatan-sub000/internal/entity"
)

// RunState tells the scheduler what to do with the bot's last-run timestamp.
type RunState string

const (
	// RunStateCompleted means the bot ran (possibly doing nothing) and its
	// last-run timestamp must be advanced.
	RunStateCompleted RunState = "completed"
	// RunStateGatedOut means the active-hours window excluded the bot; the
	// timestamp must not move.
	RunStateGatedOut RunState = "gated_out"
)

// RunSummary is the per-bot result of one invocation.
type RunSummary struct {
	BotID            string   `json:"bot_id"`
	BotName          string   `json:"bot_name"`
	ForecastsCreated int      `json:"forecasts_created"`
	Votes            int      `json:"votes"`
	Skipped          int      `json:"skipped"`
	Errors           int      `json:"errors"`
	DryRun           bool     `json:"dry_run"`
	State            RunState `json:"state"`
	DurationMs       int64    `json:"duration_ms"`
}

// ShouldUpdateLastRun reports whether the scheduler persists a new last-run time.
func (s RunSummary) ShouldUpdateLastRun() bool {
	return !s.DryRun && s.State != RunStateGatedOut
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunLogResponse is one audit entry as exposed to operators.
type RunLogResponse struct {
	ID            string              `json:"id"`
	Action        string              `json:"action"`
	IsDryRun      bool                `json:"is_dry_run"`
	ForecastID    *string             `json:"forecast_id,omitempty"`
	TriggerNews   *entity.TriggerNews `json:"trigger_news,omitempty"`
	GeneratedText string              `json:"generated_text,omitempty"`
	Error         string              `json:"error,omitempty"`
	RunAt         time.Time           `json:"run_at"`
}
