package telegram

import (
	"fmt"
	"strings"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
)

const maxMessageLen = 4090

// FormatRunSummariesForTelegram renders one invocation as Markdown messages,
// splitting into several parts so none exceeds Telegram's length limit.
func FormatRunSummariesForTelegram(summaries []dto.RunSummary) []string {
	if len(summaries) == 0 {
		return []string{"🤖 *Bot run:* no bots were due."}
	}

	dryRun := summaries[0].DryRun
	var created, votes, skipped, errs int
	for _, s := range summaries {
		created += s.ForecastsCreated
		votes += s.Votes
		skipped += s.Skipped
		errs += s.Errors
	}

	var messages []string
	var current strings.Builder
	part := 1

	startNewPart := func() {
		current.Reset()
		if part == 1 {
			title := "🤖 *Bot run*"
			if dryRun {
				title += " _(dry run)_"
			}
			current.WriteString(fmt.Sprintf("%s\n📝 %d created · 🗳 %d votes · ⏭ %d skipped · ⚠️ %d errors\n\n", title, created, votes, skipped, errs))
		} else {
			current.WriteString(fmt.Sprintf("---*Bot run part %d*---\n\n", part))
		}
	}

	startNewPart()

	for _, s := range summaries {
		entry := formatSummaryLine(s)
		if current.Len()+len(entry) > maxMessageLen {
			messages = append(messages, current.String())
			part++
			startNewPart()
		}
		current.WriteString(entry)
	}

	messages = append(messages, current.String())
	return messages
}

func formatSummaryLine(s dto.RunSummary) string {
	if s.State == dto.RunStateGatedOut {
		return fmt.Sprintf("💤 *%s* outside active hours\n", escapeMarkdown(s.BotName))
	}

	icon := "✅"
	if s.Errors > 0 {
		icon = "⚠️"
	}
	return fmt.Sprintf("%s *%s* created %d, voted %d, skipped %d, errors %d (%dms)\n",
		icon, escapeMarkdown(s.BotName), s.ForecastsCreated, s.Votes, s.Skipped, s.Errors, s.DurationMs)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
