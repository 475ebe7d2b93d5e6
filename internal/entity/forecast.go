package entity

import (
	"time"

	"github.com/lib/pq"
)

type ForecastStatus string

const (
	ForecastStatusDraft    ForecastStatus = "DRAFT"
	ForecastStatusPending  ForecastStatus = "PENDING"
	ForecastStatusActive   ForecastStatus = "ACTIVE"
	ForecastStatusResolved ForecastStatus = "RESOLVED"
	ForecastStatusVoid     ForecastStatus = "VOID"
)

type OutcomeType string

const (
	OutcomeBinary         OutcomeType = "BINARY"
	OutcomeMultipleChoice OutcomeType = "MULTIPLE_CHOICE"
)

const ForecastSourceBot = "BOT"

// Forecast is a testable claim users commit CU to.
type Forecast struct {
	ID                string         `gorm:"primaryKey;type:uuid" json:"id"`
	Slug              string         `gorm:"uniqueIndex;not null" json:"slug"`
	ClaimText         string         `gorm:"type:text;not null" json:"claim_text"`
	DetailsText       string         `gorm:"type:text" json:"details_text"`
	OutcomeType       OutcomeType    `gorm:"not null" json:"outcome_type"`
	Options           pq.StringArray `gorm:"type:text[]" json:"options"`
	ResolveByDatetime time.Time      `gorm:"not null" json:"resolve_by_datetime"`
	ResolutionRules   string         `gorm:"type:text" json:"resolution_rules"`
	Tags              pq.StringArray `gorm:"type:text[]" json:"tags"`
	Status            ForecastStatus `gorm:"not null;index" json:"status"`
	AuthorID          string         `gorm:"type:uuid;not null;index" json:"author_id"`
	Source            string         `json:"source"`
	PublishedAt       *time.Time     `json:"published_at,omitempty"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Forecast) TableName() string {
	return "forecasts"
}
