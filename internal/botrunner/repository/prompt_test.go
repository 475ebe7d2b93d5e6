package repository

import (
	"testing"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestBuildDedupPrompt(t *testing.T) {
	p := BuildDedupPrompt("Central bank raises rates", []string{"Rates rise by June", "Election held in May"})

	assert.Contains(t, p, `"Central bank raises rates"`)
	assert.Contains(t, p, "1. Rates rise by June")
	assert.Contains(t, p, "2. Election held in May")
	assert.Contains(t, p, `"yes" or "no"`)

	assert.Contains(t, BuildDedupPrompt("x", nil), "(none)")
}

func TestBuildForecastPrompt(t *testing.T) {
	bot := &entity.BotConfig{PersonaPrompt: "You are a sober analyst.", ForecastPrompt: "Focus on economics."}
	topic := dto.HotTopic{Title: "Oil prices spike", SourceCount: 3}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p := BuildForecastPrompt(bot, topic, []string{"https://a.example/1", "https://b.example/2"}, "Crude rose 8%.", now)

	assert.Contains(t, p, "You are a sober analyst.")
	assert.Contains(t, p, "Focus on economics.")
	assert.Contains(t, p, "Oil prices spike (reported by 3 sources)")
	assert.Contains(t, p, "- https://b.example/2")
	assert.Contains(t, p, "Crude rose 8%.")
	assert.Contains(t, p, "2026-03-01")
	assert.NotContains(t, p, SkipTopicSignal)
}

func TestBuildForecastPrompt_TagFilter(t *testing.T) {
	bot := &entity.BotConfig{TagFilter: []string{"sports", "tech"}}
	p := BuildForecastPrompt(bot, dto.HotTopic{Title: "t"}, nil, "", time.Now())

	assert.Contains(t, p, "Allowed tags: sports, tech")
	assert.Contains(t, p, SkipTopicSignal)
	assert.NotContains(t, p, "Sources:")
}

func TestBuildVotePrompt_BiasHint(t *testing.T) {
	forecast := &entity.Forecast{
		ClaimText:         "🤖 Team A wins the final",
		DetailsText:       "Final is on Sunday",
		OutcomeType:       entity.OutcomeMultipleChoice,
		Options:           []string{"Team A", "Team B"},
		ResolveByDatetime: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		bias     int
		contains string
	}{
		{name: "neutral", bias: 50, contains: ""},
		{name: "optimistic", bias: 80, contains: "optimistic"},
		{name: "skeptical", bias: 10, contains: "skeptical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildVotePrompt(&entity.BotConfig{VotePrompt: "Vote carefully.", VoteBias: tt.bias}, forecast)
			assert.Contains(t, p, "Vote carefully.")
			assert.Contains(t, p, "Team A wins the final")
			assert.Contains(t, p, "1. Team B")
			if tt.contains == "" {
				assert.NotContains(t, p, "Disposition")
			} else {
				assert.Contains(t, p, tt.contains)
			}
		})
	}
}

func TestVoteSchema(t *testing.T) {
	s := VoteSchema()
	assert.Equal(t, dto.SchemaObject, s.Type)
	assert.Equal(t, []string{"should_vote"}, s.Required)
	assert.Equal(t, dto.SchemaInteger, s.Properties["option_index"].Type)
}
