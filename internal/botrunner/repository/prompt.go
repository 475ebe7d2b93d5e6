package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/entity"
)

// SkipTopicSignal is the literal a model replies with when a topic fits none of the bot's tags.
const SkipTopicSignal = "SKIP_TOPIC"

const neutralVoteBias = 50

func BuildDedupPrompt(topicTitle string, existingClaims []string) string {
	var claims strings.Builder
	if len(existingClaims) == 0 {
		claims.WriteString("(none)\n")
	}
	for i, claim := range existingClaims {
		claims.WriteString(fmt.Sprintf("%d. %s\n", i+1, claim))
	}

	return fmt.Sprintf(`You are checking a prediction market for duplicate questions.

New topic: "%s"

Existing open forecasts:
%s
Does any existing forecast already cover this topic closely enough that a new forecast would be a duplicate?
Answer with exactly one word: "yes" or "no".`, topicTitle, claims.String())
}

func BuildForecastPrompt(bot *entity.BotConfig, topic dto.HotTopic, sourceURLs []string, excerpt string, now time.Time) string {
	var b strings.Builder

	if bot.PersonaPrompt != "" {
		b.WriteString(bot.PersonaPrompt)
		b.WriteString("\n\n")
	}
	if bot.ForecastPrompt != "" {
		b.WriteString(bot.ForecastPrompt)
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf("Current date (UTC): %s\n", now.UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Hot topic: %s (reported by %d sources)\n", topic.Title, topic.SourceCount))
	if len(sourceURLs) > 0 {
		b.WriteString("Sources:\n")
		for _, u := range sourceURLs {
			b.WriteString("- ")
			b.WriteString(u)
			b.WriteString("\n")
		}
	}
	if excerpt != "" {
		b.WriteString("\nArticle excerpt:\n")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}

	if len(bot.TagFilter) > 0 {
		b.WriteString(fmt.Sprintf(`
Allowed tags: %s
If this topic does not fit any allowed tag, reply with exactly %s and nothing else, or set "skip" to true.
`, strings.Join(bot.TagFilter, ", "), SkipTopicSignal))
	}

	b.WriteString(`
Write one new, testable forecast about this topic. Respond with a JSON object:
{
  "claim_text": "<a single clear statement that will be verifiably true or false>",
  "details_text": "<context and why it matters>",
  "outcome_type": "BINARY | MULTIPLE_CHOICE",
  "options": ["<only for MULTIPLE_CHOICE, at least 2>"],
  "resolve_by_datetime": "<ISO 8601 date in the future>",
  "resolution_rules": "<how the outcome will be judged>",
  "tags": ["<up to 5 short lowercase tags>"]
}`)

	return b.String()
}

func BuildVotePrompt(bot *entity.BotConfig, forecast *entity.Forecast) string {
	var b strings.Builder

	if bot.PersonaPrompt != "" {
		b.WriteString(bot.PersonaPrompt)
		b.WriteString("\n\n")
	}
	if bot.VotePrompt != "" {
		b.WriteString(bot.VotePrompt)
		b.WriteString("\n\n")
	}

	b.WriteString(fmt.Sprintf("Forecast: %s\n", forecast.ClaimText))
	if forecast.DetailsText != "" {
		b.WriteString(fmt.Sprintf("Details: %s\n", forecast.DetailsText))
	}
	b.WriteString(fmt.Sprintf("Resolves by: %s\n", forecast.ResolveByDatetime.UTC().Format("2006-01-02")))
	if forecast.OutcomeType == entity.OutcomeMultipleChoice && len(forecast.Options) > 0 {
		b.WriteString("Options:\n")
		for i, opt := range forecast.Options {
			b.WriteString(fmt.Sprintf("%d. %s\n", i, opt))
		}
	}

	if hint := voteBiasHint(bot.VoteBias); hint != "" {
		b.WriteString("\n")
		b.WriteString(hint)
		b.WriteString("\n")
	}

	b.WriteString(`
Decide whether to stake on this forecast. Respond with a JSON object:
{
  "should_vote": true | false,
  "binary_choice": true | false,
  "option_index": <index of the chosen option, multiple choice only>,
  "reasoning": "<one or two sentences>"
}`)

	return b.String()
}

func voteBiasHint(bias int) string {
	switch {
	case bias == neutralVoteBias:
		return ""
	case bias > neutralVoteBias:
		return fmt.Sprintf("Disposition: you lean optimistic and tend to expect things to happen (bias %d/100).", bias)
	default:
		return fmt.Sprintf("Disposition: you lean skeptical and tend to expect things not to happen (bias %d/100).", bias)
	}
}

// ForecastSchema describes the structured forecast object.
func ForecastSchema() *dto.Schema {
	return &dto.Schema{
		Type: dto.SchemaObject,
		Properties: map[string]*dto.Schema{
			"skip":                {Type: dto.SchemaBoolean, Description: "true when the topic fits none of the allowed tags"},
			"claim_text":          {Type: dto.SchemaString},
			"details_text":        {Type: dto.SchemaString},
			"outcome_type":        {Type: dto.SchemaString, Enum: []string{string(entity.OutcomeBinary), string(entity.OutcomeMultipleChoice)}},
			"options":             {Type: dto.SchemaArray, Items: &dto.Schema{Type: dto.SchemaString}},
			"resolve_by_datetime": {Type: dto.SchemaString, Description: "ISO 8601 date"},
			"resolution_rules":    {Type: dto.SchemaString},
			"tags":                {Type: dto.SchemaArray, Items: &dto.Schema{Type: dto.SchemaString}},
		},
		Required: []string{"claim_text", "outcome_type", "resolve_by_datetime", "resolution_rules", "tags"},
	}
}

// VoteSchema describes the structured vote decision.
func VoteSchema() *dto.Schema {
	return &dto.Schema{
		Type: dto.SchemaObject,
		Properties: map[string]*dto.Schema{
			"should_vote":   {Type: dto.SchemaBoolean},
			"binary_choice": {Type: dto.SchemaBoolean},
			"option_index":  {Type: dto.SchemaInteger},
			"reasoning":     {Type: dto.SchemaString},
		},
		Required: []string{"should_vote"},
	}
}
