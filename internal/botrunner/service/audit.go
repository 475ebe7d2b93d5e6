package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/logger"
)

// auditLogger writes run log entries and mirrors each one to the service log.
type auditLogger struct {
	runLogRepo repository.BotRunLogRepository
	logger     *logger.Logger
}

// auditWriteError reports a run log insert that failed after the action it
// describes had already taken effect.
type auditWriteError struct {
	err error
}

func (e *auditWriteError) Error() string { return "failed to write run log: " + e.err.Error() }

func (e *auditWriteError) Unwrap() error { return e.err }

type auditEntry struct {
	action        entity.BotAction
	topic         *dto.HotTopic
	trigger       string
	forecastRef   string
	forecastID    *string
	generatedText string
	err           error
}

func (a *auditLogger) record(ctx context.Context, bot *entity.BotConfig, dryRun bool, e auditEntry) error {
	entry := &entity.BotRunLog{
		BotID:         bot.ID,
		Action:        e.action,
		IsDryRun:      dryRun,
		ForecastID:    e.forecastID,
		GeneratedText: e.generatedText,
	}
	if e.err != nil {
		entry.Error = e.err.Error()
	}

	if trigger := triggerOf(e); trigger != nil {
		raw, err := json.Marshal(trigger)
		if err != nil {
			return fmt.Errorf("failed to marshal trigger: %w", err)
		}
		entry.TriggerNews = raw
	}

	log := a.logger.With(
		logger.StringField("bot_id", bot.ID),
		logger.StringField("bot_name", bot.Name),
		logger.StringField("action", string(e.action)),
		logger.BoolField("dry_run", dryRun),
	)
	if e.topic != nil {
		log = log.With(logger.StringField("topic", e.topic.Title))
	}
	if e.forecastRef != "" {
		log = log.With(logger.StringField("forecast_ref", e.forecastRef))
	}
	if e.forecastID != nil {
		log = log.With(logger.StringField("forecast_id", *e.forecastID))
	}
	if e.err != nil {
		log.Warn("Bot action failed", logger.ErrorField(e.err))
	} else {
		log.Info("Bot action recorded")
	}

	if err := a.runLogRepo.Create(ctx, entry); err != nil {
		log.Error("Failed to write bot run log", logger.ErrorField(err))
		return &auditWriteError{err: err}
	}
	return nil
}

func triggerOf(e auditEntry) *entity.TriggerNews {
	switch {
	case e.topic != nil:
		return &entity.TriggerNews{
			Title:       e.topic.Title,
			URLs:        e.topic.URLs(maxPromptSources),
			SourceCount: e.topic.SourceCount,
		}
	case e.forecastRef != "":
		return &entity.TriggerNews{ForecastRef: e.forecastRef}
	case e.trigger != "":
		return &entity.TriggerNews{Title: e.trigger}
	default:
		return nil
	}
}
