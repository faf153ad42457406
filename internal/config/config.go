// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/arsal072-sys/protonsms072/internal/watermark"
)

// Config holds the application configuration.
type Config struct {
	BotToken          string
	ChatID            int64
	PanelURL          string
	SessionID         string
	DatabasePath      string
	LogLevel          string
	FeedName          string
	PollInterval      time.Duration
	AuthRetryInterval time.Duration
	WindowSize        int
	Strategy          watermark.Strategy
	Capacity          int
	SupportURL        string
	NumbersURL        string
}

// Load reads configuration from environment variables. Missing
// mandatory credentials fail here, before the poll loop ever starts.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		PanelURL:          os.Getenv("PANEL_URL"),
		SessionID:         os.Getenv("PHPSESSID"),
		DatabasePath:      envOrDefault("DATABASE_PATH", "./data/otpbot.db"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		FeedName:          envOrDefault("FEED_NAME", "default"),
		PollInterval:      10 * time.Second,
		AuthRetryInterval: 60 * time.Second,
		WindowSize:        25,
		Strategy:          watermark.StrategyRecency,
		Capacity:          watermark.DefaultCapacity,
		SupportURL:        os.Getenv("SUPPORT_URL"),
		NumbersURL:        os.Getenv("NUMBERS_URL"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.PanelURL == "" {
		return nil, fmt.Errorf("PANEL_URL is required")
	}
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("PHPSESSID is required")
	}

	rawChat := os.Getenv("CHAT_ID")
	if rawChat == "" {
		return nil, fmt.Errorf("CHAT_ID is required")
	}
	chatID, err := strconv.ParseInt(rawChat, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_ID %q: %w", rawChat, err)
	}
	cfg.ChatID = chatID

	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		d, err := parseSeconds(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", raw, err)
		}
		cfg.PollInterval = d
	}
	if raw := os.Getenv("AUTH_RETRY_INTERVAL"); raw != "" {
		d, err := parseSeconds(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_RETRY_INTERVAL %q: %w", raw, err)
		}
		cfg.AuthRetryInterval = d
	}

	if raw := os.Getenv("WINDOW_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return nil, fmt.Errorf("WINDOW_SIZE must be between 1 and 100")
		}
		cfg.WindowSize = n
	}

	if raw := os.Getenv("WATERMARK_STRATEGY"); raw != "" {
		s, err := watermark.ParseStrategy(raw)
		if err != nil {
			return nil, err
		}
		cfg.Strategy = s
	}
	if raw := os.Getenv("WATERMARK_CAPACITY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("WATERMARK_CAPACITY must be a positive integer")
		}
		cfg.Capacity = n
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("must be a positive number of seconds")
	}
	return time.Duration(n) * time.Second, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
