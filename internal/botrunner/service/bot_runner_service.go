package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/internal/botrunner/dto"
	"github.com/komapc/daatan-sub000/internal/botrunner/llm"
	"github.com/komapc/daatan-sub000/internal/botrunner/news"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/entity"
	"github.com/komapc/daatan-sub000/pkg/common"
	"github.com/komapc/daatan-sub000/pkg/lock"
	"github.com/komapc/daatan-sub000/pkg/logger"
	"github.com/komapc/daatan-sub000/pkg/utils"

	"gorm.io/gorm"
)

const defaultLockTTL = 15 * time.Minute

// BotRunnerService is the entry point for scheduled and on-demand bot runs.
type BotRunnerService interface {
	RunDueBots(ctx context.Context, dryRun bool) ([]dto.RunSummary, error)
	RunBotByID(ctx context.Context, id string, dryRun bool) (*dto.RunSummary, error)
	RecentLogs(ctx context.Context, botID string, limit int) ([]entity.BotRunLog, error)
}

// Dependencies groups the collaborators of the bot runner.
type Dependencies struct {
	BotRepo        repository.BotRepository
	RunLogRepo     repository.BotRunLogRepository
	ForecastRepo   repository.ForecastRepository
	UserRepo       repository.UserRepository
	CommitmentRepo repository.CommitmentRepository
	LLM            *llm.Chain
	Fetcher        news.Fetcher
	Detector       news.TopicDetector
	// Articles is optional; nil disables article excerpts.
	Articles   news.ArticleExtractor
	Locker     lock.Locker
	Publishers []SummaryPublisher
}

// NewBotRunnerService creates a new BotRunnerService.
func NewBotRunnerService(cfg *config.Config, deps Dependencies, log *logger.Logger) BotRunnerService {
	lockTTL := cfg.Scheduler.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NopLocker{}
	}

	s := &botRunnerService{
		botRepo:    deps.BotRepo,
		runLogRepo: deps.RunLogRepo,
		llm:        deps.LLM,
		locker:     locker,
		lockTTL:    lockTTL,
		publishers: deps.Publishers,
		logger:     log,
		now:        time.Now,
	}

	quota := &quotaTracker{runLogRepo: deps.RunLogRepo, now: s.clock}
	refiller := NewCURefiller(deps.UserRepo, log)
	audit := &auditLogger{runLogRepo: deps.RunLogRepo, logger: log}

	s.forecasts = &forecastPipeline{
		forecastRepo:   deps.ForecastRepo,
		commitmentRepo: deps.CommitmentRepo,
		fetcher:        deps.Fetcher,
		detector:       deps.Detector,
		articles:       deps.Articles,
		quota:          quota,
		refiller:       refiller,
		audit:          audit,
		logger:         log,
		now:            s.clock,
		stakeAmount:    randomStake,
	}
	s.votes = &votePipeline{
		forecastRepo:   deps.ForecastRepo,
		commitmentRepo: deps.CommitmentRepo,
		quota:          quota,
		refiller:       refiller,
		audit:          audit,
		logger:         log,
		stakeAmount:    randomStake,
	}
	s.audit = audit

	return s
}

type botRunnerService struct {
	botRepo    repository.BotRepository
	runLogRepo repository.BotRunLogRepository
	llm        *llm.Chain
	forecasts  *forecastPipeline
	votes      *votePipeline
	audit      *auditLogger
	locker     lock.Locker
	lockTTL    time.Duration
	publishers []SummaryPublisher
	logger     *logger.Logger
	now        func() time.Time
}

func (s *botRunnerService) clock() time.Time {
	return s.now()
}

// RunDueBots runs every active bot whose interval has elapsed, one at a time.
func (s *botRunnerService) RunDueBots(ctx context.Context, dryRun bool) ([]dto.RunSummary, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	bots, err := s.botRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active bots: %w", err)
	}

	summaries := make([]dto.RunSummary, 0, len(bots))
	var runErr error
	for i := range bots {
		bot := &bots[i]
		if !bot.IsDue(s.now()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		summaries = append(summaries, s.runAndStamp(ctx, bot, dryRun))
	}

	s.logger.Info("Due bots processed",
		logger.IntField("active", len(bots)),
		logger.IntField("ran", len(summaries)),
		logger.BoolField("dry_run", dryRun),
	)
	s.publish(ctx, summaries)

	return summaries, runErr
}

// RunBotByID runs one bot regardless of its interval.
func (s *botRunnerService) RunBotByID(ctx context.Context, id string, dryRun bool) (*dto.RunSummary, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	bot, err := s.botRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBotNotFound, id)
		}
		return nil, fmt.Errorf("failed to load bot %s: %w", id, err)
	}

	summary := s.runAndStamp(ctx, bot, dryRun)
	s.publish(ctx, []dto.RunSummary{summary})

	return &summary, nil
}

func (s *botRunnerService) RecentLogs(ctx context.Context, botID string, limit int) ([]entity.BotRunLog, error) {
	if _, err := s.botRepo.FindByID(ctx, botID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBotNotFound, botID)
		}
		return nil, fmt.Errorf("failed to load bot %s: %w", botID, err)
	}
	logs, err := s.runLogRepo.FindLatestByBot(ctx, botID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load run logs: %w", err)
	}
	return logs, nil
}

func (s *botRunnerService) acquire(ctx context.Context) (func(), error) {
	lease, err := s.locker.Acquire(ctx, common.RedisLockBotRunner, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrRunInProgress
		}
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release run lock", logger.ErrorField(err))
		}
	}, nil
}

// runAndStamp runs one bot and advances its last-run time when the summary allows it.
func (s *botRunnerService) runAndStamp(ctx context.Context, bot *entity.BotConfig, dryRun bool) dto.RunSummary {
	summary := s.runBot(ctx, bot, dryRun)

	if summary.ShouldUpdateLastRun() {
		if err := s.botRepo.UpdateLastRunAt(ctx, bot.ID, s.now().UTC()); err != nil {
			s.logger.Error("Failed to update bot last run", logger.StringField("bot_id", bot.ID), logger.ErrorField(err))
		}
	}
	return summary
}

func (s *botRunnerService) runBot(ctx context.Context, bot *entity.BotConfig, dryRun bool) dto.RunSummary {
	start := s.now()
	summary := dto.RunSummary{
		BotID:   bot.ID,
		BotName: bot.Name,
		DryRun:  dryRun,
		State:   dto.RunStateCompleted,
	}

	if !IsWithinActiveHours(start.UTC().Hour(), bot.ActiveHoursStart, bot.ActiveHoursEnd) {
		s.logger.Info("Bot outside active hours", logger.StringField("bot_id", bot.ID), logger.IntField("hour", start.UTC().Hour()))
		summary.State = dto.RunStateGatedOut
		return summary
	}

	if err := s.runPipelines(ctx, bot, dryRun, &summary); err != nil {
		summary.Errors++
		// The failure is already in the service log; a failed write here has nowhere else to go.
		_ = s.audit.record(context.WithoutCancel(ctx), bot, dryRun, auditEntry{action: entity.BotActionError, err: err})
	}

	summary.DurationMs = s.now().Sub(start).Milliseconds()
	s.logger.Info("Bot run finished",
		logger.StringField("bot_id", bot.ID),
		logger.IntField("forecasts_created", summary.ForecastsCreated),
		logger.IntField("votes", summary.Votes),
		logger.IntField("skipped", summary.Skipped),
		logger.IntField("errors", summary.Errors),
		logger.BoolField("dry_run", dryRun),
	)
	return summary
}

// runPipelines turns panics into errors so one bot cannot stop the loop.
func (s *botRunnerService) runPipelines(ctx context.Context, bot *entity.BotConfig, dryRun bool, summary *dto.RunSummary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = utils.RecoverError(r)
		}
	}()

	gen := s.llm.WithPreference(bot.ModelPreference)

	if err := s.forecasts.Run(ctx, bot, gen, dryRun, summary); err != nil {
		return fmt.Errorf("forecast pipeline: %w", err)
	}
	if err := s.votes.Run(ctx, bot, gen, dryRun, summary); err != nil {
		return fmt.Errorf("vote pipeline: %w", err)
	}
	return nil
}

func (s *botRunnerService) publish(ctx context.Context, summaries []dto.RunSummary) {
	for _, p := range s.publishers {
		if err := p.Publish(context.WithoutCancel(ctx), summaries); err != nil {
			s.logger.Warn("Failed to publish run summary", logger.ErrorField(err))
		}
	}
}

func randomStake(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}
