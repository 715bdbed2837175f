package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wakeup-planner/internal/planner"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	EvaluationTime string
	Location       *time.Location
	Env            string
	LogLevel       string
	HTTPAddr       string
	APIToken       string
	Policy         planner.Policy
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:  env("TELEGRAM_TOKEN", ""),
		DatabaseURL:    env("DATABASE_URL", "wakeup_planner.db"),
		EvaluationTime: env("EVALUATION_TIME", "21:00"),
		Env:            env("APP_ENV", "development"),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ""),
		APIToken:       env("API_TOKEN", ""),
		Location:       time.Local,
	}

	if _, err := planner.TimeToMinutes(cfg.EvaluationTime); err != nil {
		return cfg, fmt.Errorf("EVALUATION_TIME: %w", err)
	}

	if tz := env("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	policy := planner.DefaultPolicy()
	ints := []struct {
		key string
		dst *int
	}{
		{"BLOCK_DAYS", &policy.BlockDays},
		{"MISSED_THRESHOLD", &policy.MissedThreshold},
		{"OFF_TARGET_MINUTES", &policy.OffTargetMinutes},
	}
	for _, item := range ints {
		if err := parsePositive(item.key, item.dst); err != nil {
			return cfg, err
		}
	}
	window := int(policy.VerificationWindow / time.Minute)
	if err := parsePositive("VERIFICATION_WINDOW_MINUTES", &window); err != nil {
		return cfg, err
	}
	policy.VerificationWindow = time.Duration(window) * time.Minute
	cfg.Policy = policy

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parsePositive overwrites dst when key holds a positive integer.
func parsePositive(key string, dst *int) error {
	raw := env(key, "")
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	*dst = v
	return nil
}
