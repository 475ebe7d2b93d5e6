package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/internal/botrunner/service"
	"github.com/komapc/daatan-sub000/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers RunDueBots on a cron cadence.
type Scheduler interface {
	// Start blocks until ctx is cancelled and all in-flight ticks return.
	Start(ctx context.Context) error
	Tick(ctx context.Context)
}

// NewScheduler creates a new cron driven Scheduler.
func NewScheduler(runner service.BotRunnerService, cfg config.Scheduler, log *logger.Logger) Scheduler {
	return &cronScheduler{
		runner:     runner,
		cfg:        cfg,
		logger:     log,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

type cronScheduler struct {
	runner     service.BotRunnerService
	cfg        config.Scheduler
	logger     *logger.Logger
	cronParser cron.Parser
}

// Start registers the tick and runs the cron loop.
func (s *cronScheduler) Start(ctx context.Context) error {
	cronLog := &cronLogger{log: s.logger}
	c := cron.New(
		cron.WithParser(s.cronParser),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(s.cfg.Cron, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("failed to parse scheduler cron %q: %w", s.cfg.Cron, err)
	}

	s.logger.Info("Bot scheduler started", logger.StringField("cron", s.cfg.Cron), logger.BoolField("dry_run", s.cfg.DryRun))
	c.Start()

	<-ctx.Done()
	s.logger.Info("Bot scheduler stopping")
	<-c.Stop().Done()
	return nil
}

// Tick runs every due bot once, bounded by the configured run timeout.
func (s *cronScheduler) Tick(ctx context.Context) {
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	summaries, err := s.runner.RunDueBots(ctx, s.cfg.DryRun)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			s.logger.Info("Skipping tick, another bot run is in progress")
			return
		}
		s.logger.Error("Scheduled bot run failed", logger.ErrorField(err))
		return
	}

	created, votes, failed := 0, 0, 0
	for _, summary := range summaries {
		created += summary.ForecastsCreated
		votes += summary.Votes
		failed += summary.Errors
	}
	s.logger.Info("Scheduled bot run finished",
		logger.IntField("bots", len(summaries)),
		logger.IntField("forecasts_created", created),
		logger.IntField("votes", votes),
		logger.IntField("errors", failed),
	)
}

// cronLogger routes cron's internal logging into zap.
type cronLogger struct {
	log *logger.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
