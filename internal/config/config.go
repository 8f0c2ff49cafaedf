package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SP500Returns/internal/model"
	"SP500Returns/internal/tickers"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		TickersURL  string `yaml:"tickers_url"`
		StartDate   string `yaml:"start_date"`
		IndexSymbol string `yaml:"index_symbol"`
	} `yaml:"source"`
	Provider struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"provider"`
	Storage struct {
		TickersFile string `yaml:"tickers_file"`
		CacheDir    string `yaml:"cache_dir"`
		JoinedFile  string `yaml:"joined_file"`
	} `yaml:"storage"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron          string `yaml:"cron"`
		ReloadTickers bool   `yaml:"reload_tickers"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TICKERS_URL"); v != "" {
		cfg.Source.TickersURL = v
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Storage.CacheDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Source.TickersURL == "" {
		cfg.Source.TickersURL = tickers.DefaultSourceURL
	}
	if cfg.Source.StartDate == "" {
		cfg.Source.StartDate = model.HistoryStart.Format(model.DateLayout)
	}
	if cfg.Source.IndexSymbol == "" {
		cfg.Source.IndexSymbol = "SPY"
	}
	if cfg.Storage.TickersFile == "" {
		cfg.Storage.TickersFile = "sp500tickers.json"
	}
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = "stock_dfs"
	}
	if cfg.Storage.JoinedFile == "" {
		cfg.Storage.JoinedFile = "sp500_joined_returns.csv"
	}
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if _, err := time.Parse(model.DateLayout, c.Source.StartDate); err != nil {
		return fmt.Errorf("source.start_date: %w", err)
	}
	if strings.TrimSpace(c.Source.IndexSymbol) == "" {
		return fmt.Errorf("source.index_symbol is required")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}

// Range returns the download window from the configured start date through today.
func (c *Config) Range(now time.Time) model.DateRange {
	rng := model.DefaultRange(now)
	if t, err := time.Parse(model.DateLayout, c.Source.StartDate); err == nil {
		rng.Start = t
	}
	return rng
}

// TelegramEnabled reports whether run summaries should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
