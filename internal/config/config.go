package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY,required,notEmpty"`
	Model        string `env:"LQ_MODEL" envDefault:"gemini-2.5-flash"`

	Store      string `env:"LQ_STORE" envDefault:"yaml"`
	SaveDir    string `env:"LQ_SAVE_DIR" envDefault:".saves"`
	DBPath     string `env:"LQ_DB_PATH" envDefault:"data/langquest.db"`
	ContentDir string `env:"LQ_CONTENT_DIR"`
	Language   string `env:"LQ_LANGUAGE" envDefault:"spanish"`

	OracleTimeout    time.Duration `env:"LQ_ORACLE_TIMEOUT" envDefault:"30s"`
	HistoryWindow    int           `env:"LQ_HISTORY_WINDOW" envDefault:"6"`
	DueLimit         int           `env:"LQ_DUE_LIMIT" envDefault:"20"`
	ReminderInterval time.Duration `env:"LQ_REMINDER_INTERVAL" envDefault:"10m"`

	LogLevel string `env:"LQ_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LQ_LOG_FILE" envDefault:"langquest.log"`
}

// StorePath returns the location used by the configured store engine.
func (c *Config) StorePath() string {
	if c.Store == "sqlite" {
		return c.DBPath
	}
	return c.SaveDir
}

// LoadConfig loads the configuration from environment variables, reading a
// .env file first when one exists. Variables already set take precedence.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HistoryWindow < 1 {
		return nil, fmt.Errorf("LQ_HISTORY_WINDOW must be at least 1, got %d", cfg.HistoryWindow)
	}
	if cfg.OracleTimeout <= 0 {
		return nil, fmt.Errorf("LQ_ORACLE_TIMEOUT must be positive, got %s", cfg.OracleTimeout)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LQ_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger returns a text logger writing to the configured log file, since
// the terminal belongs to the game. The returned closer closes that file.
func NewLogger(cfg *Config) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" || cfg.LogFile == "-" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nopCloser{}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
