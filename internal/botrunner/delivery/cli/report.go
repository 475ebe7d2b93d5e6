package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"

	"github.com/olekukonko/tablewriter"
)

// RenderSummaries prints one row per bot followed by a totals row.
func RenderSummaries(w io.Writer, summaries []dto.RunSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No bots were due.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Bot", "State", "Created", "Votes", "Skipped", "Errors", "Dry run", "Duration")

	var created, votes, skipped, failed int
	for _, s := range summaries {
		name := s.BotName
		if name == "" {
			name = s.BotID
		}
		if err := table.Append(
			name,
			string(s.State),
			fmt.Sprintf("%d", s.ForecastsCreated),
			fmt.Sprintf("%d", s.Votes),
			fmt.Sprintf("%d", s.Skipped),
			fmt.Sprintf("%d", s.Errors),
			fmt.Sprintf("%t", s.DryRun),
			(time.Duration(s.DurationMs) * time.Millisecond).String(),
		); err != nil {
			return fmt.Errorf("failed to append summary row: %w", err)
		}
		created += s.ForecastsCreated
		votes += s.Votes
		skipped += s.Skipped
		failed += s.Errors
	}

	if err := table.Append(
		"TOTAL", "",
		fmt.Sprintf("%d", created),
		fmt.Sprintf("%d", votes),
		fmt.Sprintf("%d", skipped),
		fmt.Sprintf("%d", failed),
		"", "",
	); err != nil {
		return fmt.Errorf("failed to append totals row: %w", err)
	}

	return table.Render()
}
