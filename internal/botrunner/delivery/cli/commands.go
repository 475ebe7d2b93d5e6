package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/service"
)

// RunDue runs every due bot and prints whatever summaries came back. The run
// error is returned so the process exits non-zero.
func RunDue(ctx context.Context, runner service.BotRunnerService, dryRun bool, w io.Writer) error {
	summaries, runErr := runner.RunDueBots(ctx, dryRun)
	if len(summaries) > 0 || runErr == nil {
		if err := RenderSummaries(w, summaries); err != nil {
			return fmt.Errorf("failed to render summaries: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("bot run failed: %w", runErr)
	}
	return nil
}

// RunBot runs one bot by ID and prints its summary.
func RunBot(ctx context.Context, runner service.BotRunnerService, id string, dryRun bool, w io.Writer) error {
	summary, err := runner.RunBotByID(ctx, id, dryRun)
	if err != nil {
		return fmt.Errorf("bot %s run failed: %w", id, err)
	}
	if err := RenderSummaries(w, []dto.RunSummary{*summary}); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return nil
}
