package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/komapc/daatan-sub000/internal/botrunner/config"
	"github.com/komapc/daatan-sub000/internal/botrunner/delivery/cli"
	delivery "github.com/komapc/daatan-sub000/internal/botrunner/delivery/http"
	_ "github.com/komapc/daatan-sub000/internal/botrunner/docs"
	"github.com/komapc/daatan-sub000/internal/botrunner/llm"
	"github.com/komapc/daatan-sub000/internal/botrunner/news"
	"github.com/komapc/daatan-sub000/internal/botrunner/repository"
	"github.com/komapc/daatan-sub000/internal/botrunner/scheduler"
	"github.com/komapc/daatan-sub000/internal/botrunner/service"
	"github.com/komapc/daatan-sub000/pkg/common"
	"github.com/komapc/daatan-sub000/pkg/lock"
	"github.com/komapc/daatan-sub000/pkg/logger"
	"github.com/komapc/daatan-sub000/pkg/postgres"
	"github.com/komapc/daatan-sub000/pkg/redis"
	"github.com/komapc/daatan-sub000/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"google.golang.org/genai"
)

var (
	configPath string
	dryRun     bool
	botID      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the bot scheduler and the operator API",
	Run:   runServe,
}

var runDueCmd = &cobra.Command{
	Use:          "run-due",
	Short:        "Runs every due bot once and prints the summaries",
	SilenceUsage: true,
	RunE:         runDue,
}

var runBotCmd = &cobra.Command{
	Use:          "run-bot",
	Short:        "Runs a single bot immediately, ignoring its interval",
	SilenceUsage: true,
	RunE:         runBot,
}

// app holds the wired bot runner and everything that must be closed on exit.
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	runner  service.BotRunnerService
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func bootstrap(ctx context.Context) *app {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	a := &app{cfg: cfg, logger: appLogger}

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	a.closers = append(a.closers, func() { _ = redisClient.Close() })

	// Initialize LLM providers in fallback order
	providers := buildProviders(ctx, cfg, appLogger)
	if len(providers) == 0 {
		appLogger.Warn("No LLM providers configured, every generation will fail")
	}

	// Initialize publishers
	publishers := []service.SummaryPublisher{
		service.NewRedisSummaryPublisher(redisClient.Client, cfg.Redis.StreamMaxLen),
	}
	if cfg.Telegram.BotToken != "" {
		notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
		publishers = append(publishers, service.NewTelegramSummaryPublisher(notifier))
	}

	var articles news.ArticleExtractor
	if cfg.News.FetchArticleExcerpt {
		articles = news.NewReadabilityExtractor(cfg.News, appLogger)
	}

	a.runner = service.NewBotRunnerService(cfg, service.Dependencies{
		BotRepo:        repository.NewBotRepository(db.DB),
		RunLogRepo:     repository.NewBotRunLogRepository(db.DB),
		ForecastRepo:   repository.NewForecastRepository(db.DB),
		UserRepo:       repository.NewUserRepository(db.DB),
		CommitmentRepo: repository.NewCommitmentRepository(db.DB),
		LLM:            llm.NewChain(providers, appLogger),
		Fetcher:        news.NewRSSFetcher(cfg.News, appLogger),
		Detector:       news.NewTopicDetector(),
		Articles:       articles,
		Locker:         lock.NewRedisLocker(redisClient.Client, common.RedisLockPrefix),
		Publishers:     publishers,
	}, appLogger)

	return a
}

func buildProviders(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) []repository.LLMProvider {
	var providers []repository.LLMProvider
	for _, name := range cfg.LLM.Providers {
		var (
			provider repository.LLMProvider
			err      error
		)
		switch name {
		case repository.ProviderGemini:
			if cfg.Gemini.APIKey == "" {
				appLogger.Warn("Skipping LLM provider without API key", logger.StringField("provider", name))
				continue
			}
			var genAiClient *genai.Client
			genAiClient, err = genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  cfg.Gemini.APIKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err == nil {
				provider, err = repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
			}
		case repository.ProviderOpenAI:
			if cfg.OpenAI.APIKey == "" {
				appLogger.Warn("Skipping LLM provider without API key", logger.StringField("provider", name))
				continue
			}
			provider, err = repository.NewOpenAICompatibleRepository(name, cfg.OpenAI, cfg.LLM.Timeout, appLogger)
		case repository.ProviderOpenRouter:
			if cfg.OpenRouter.APIKey == "" {
				appLogger.Warn("Skipping LLM provider without API key", logger.StringField("provider", name))
				continue
			}
			provider, err = repository.NewOpenAICompatibleRepository(name, cfg.OpenRouter, cfg.LLM.Timeout, appLogger)
		default:
			appLogger.Fatal("Invalid LLM provider specified in config", logger.StringField("provider", name))
		}
		if err != nil {
			appLogger.Fatal("Failed to initialize LLM provider", logger.StringField("provider", name), logger.ErrorField(err))
		}
		providers = append(providers, provider)
	}
	return providers
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap(ctx)
	defer a.Close()

	a.logger.Info("Starting Bot Runner", logger.Field("name", a.cfg.App.Name))

	// Start scheduler
	botScheduler := scheduler.NewScheduler(a.runner, a.cfg.Scheduler, a.logger)
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := botScheduler.Start(ctx); err != nil {
			a.logger.Error("Bot scheduler failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	botHandler := delivery.NewBotHandler(a.runner, a.logger)
	apiV1 := e.Group("/api/v1")
	botHandler.RegisterRoutes(apiV1.Group("/bots"))

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
		a.logger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	<-schedulerDone

	a.logger.Info("Server exiting")
}

func runDue(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap(ctx)
	defer a.Close()

	if a.cfg.Scheduler.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Scheduler.RunTimeout)
		defer cancel()
	}

	return cli.RunDue(ctx, a.runner, dryRun, cmd.OutOrStdout())
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap(ctx)
	defer a.Close()

	return cli.RunBot(ctx, a.runner, botID, dryRun, cmd.OutOrStdout())
}

// @title Bot Runner API
// @version 1.0
// @description On-demand triggers and run log inspection for autonomous forecast bots.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "bot-runner"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-bot-runner.yaml", "Path to the configuration file")

	runDueCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Record actions without persisting forecasts or stakes")
	runBotCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Record actions without persisting forecasts or stakes")
	runBotCmd.Flags().StringVar(&botID, "id", "", "ID of the bot to run")
	_ = runBotCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(serveCmd, runDueCmd, runBotCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing bot-runner CLI: %s\n", err)
		os.Exit(1)
	}
}
