// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DataPath         string
	TemplateDir      string
	TemplateStyle    string
	RenderServiceURL string
	BiliCookie       string
	LogLevel         string
	PollInterval     time.Duration
	MaxAttempts      int
	RetryDelay       time.Duration
	FallbackImage    bool
	AllowedUsers     []int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	cfg := &Config{
		TelegramBotToken: token,
		DataPath:         os.Getenv("DATA_PATH"),
		TemplateDir:      envOr("TEMPLATE_DIR", "./assets"),
		TemplateStyle:    envOr("TEMPLATE_STYLE", "default"),
		RenderServiceURL: envOr("RENDER_SERVICE_URL", "http://127.0.0.1:8765/render"),
		BiliCookie:       os.Getenv("BILI_COOKIE"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
	}

	pollMinutes, err := envInt("POLL_INTERVAL_MINUTES", 5, 1, 1440)
	if err != nil {
		return nil, err
	}
	cfg.PollInterval = time.Duration(pollMinutes) * time.Minute

	cfg.MaxAttempts, err = envInt("MAX_ATTEMPTS", 3, 1, 10)
	if err != nil {
		return nil, err
	}

	retrySeconds, err := envInt("RETRY_DELAY_SECONDS", 2, 0, 300)
	if err != nil {
		return nil, err
	}
	cfg.RetryDelay = time.Duration(retrySeconds) * time.Second

	if raw := os.Getenv("FALLBACK_IMAGE"); raw != "" {
		cfg.FallbackImage, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid FALLBACK_IMAGE %q: %w", raw, err)
		}
	}

	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			cfg.AllowedUsers = append(cfg.AllowedUsers, uid)
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback, min, max int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, min, max)
	}
	return v, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
