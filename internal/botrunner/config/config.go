package config

import (
	"time"

	"github.com/komapc/daatan-sub000/pkg/config"
)

// Scheduler holds the bot scheduling configuration.
type Scheduler struct {
	Cron       string        `mapstructure:"cron"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	DryRun     bool          `mapstructure:"dry_run"`
}

// LLM holds the provider fallback order shared by every bot.
type LLM struct {
	Providers []string      `mapstructure:"providers"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// OpenAICompatible holds the configuration for an OpenAI style chat completions API.
type OpenAICompatible struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// News holds source ingestion configuration.
type News struct {
	FeedCacheTTL        time.Duration `mapstructure:"feed_cache_ttl"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	FetchArticleExcerpt bool          `mapstructure:"fetch_article_excerpt"`
	UserAgent           string        `mapstructure:"user_agent"`
}

// Telegram holds configuration for the run digest notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the bot runner service.
type Config struct {
	App        config.App       `mapstructure:"app"`
	Logger     config.Logger    `mapstructure:"logger"`
	Database   config.Database  `mapstructure:"database"`
	Redis      config.Redis     `mapstructure:"redis"`
	API        config.API       `mapstructure:"api"`
	Scheduler  Scheduler        `mapstructure:"scheduler"`
	LLM        LLM              `mapstructure:"llm"`
	Gemini     Gemini           `mapstructure:"gemini"`
	OpenAI     OpenAICompatible `mapstructure:"openai"`
	OpenRouter OpenAICompatible `mapstructure:"openrouter"`
	News       News             `mapstructure:"news"`
	Telegram   Telegram         `mapstructure:"telegram"`
}

var defaults = map[string]interface{}{
	"app.name":                          "bot-runner",
	"logger.level":                      "info",
	"logger.encoding":                   "json",
	"api.port":                          8080,
	"redis.stream_max_len":              1000,
	"scheduler.cron":                    "*/5 * * * *",
	"scheduler.lock_ttl":                "15m",
	"scheduler.run_timeout":             "14m",
	"llm.providers":                     []string{"gemini", "openrouter", "openai"},
	"llm.timeout":                       "90s",
	"gemini.model":                      "gemini-2.0-flash",
	"gemini.max_request_per_minute":     15,
	"gemini.max_token_per_minute":       1000000,
	"openai.base_url":                   "https://api.openai.com/v1/chat/completions",
	"openai.model":                      "gpt-4o-mini",
	"openai.max_request_per_minute":     60,
	"openrouter.base_url":               "https://openrouter.ai/api/v1/chat/completions",
	"openrouter.model":                  "google/gemini-2.0-flash-001",
	"openrouter.max_request_per_minute": 20,
	"news.feed_cache_ttl":               "10m",
	"news.fetch_timeout":                "20s",
	"news.user_agent":                   "Mozilla/5.0 (compatible; ForecastBot/1.0)",
}

// Load loads the bot runner configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults); err != nil {
		return nil, err
	}
	return &cfg, nil
}
