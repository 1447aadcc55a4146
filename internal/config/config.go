package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the bot and the CLI.
type Config struct {
	TelegramToken      string
	DatabaseURL        string
	ReportTime         string // HH:MM, local to Location
	ReminderLead       time.Duration
	BreakCheckInterval time.Duration
	Location           *time.Location
	LogLevel           string
}

// Load reads .env (if present) and the environment with sane defaults.
// The Telegram token is checked separately by RequireToken because only the
// bot needs it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("database_url", "daily_planner.db")
	v.SetDefault("report_time", "08:00")
	v.SetDefault("reminder_lead_minutes", 10)
	v.SetDefault("break_check_minutes", 30)
	v.SetDefault("timezone", "")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()
	for _, key := range []string{"telegram_token", "database_url", "report_time", "reminder_lead_minutes", "break_check_minutes", "timezone", "log_level"} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := Config{
		TelegramToken:      strings.TrimSpace(v.GetString("telegram_token")),
		DatabaseURL:        strings.TrimSpace(v.GetString("database_url")),
		ReportTime:         strings.TrimSpace(v.GetString("report_time")),
		ReminderLead:       positiveMinutes(v.GetInt("reminder_lead_minutes"), 10),
		BreakCheckInterval: positiveMinutes(v.GetInt("break_check_minutes"), 30),
		LogLevel:           strings.TrimSpace(v.GetString("log_level")),
		Location:           time.Local,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "daily_planner.db"
	}

	if tz := strings.TrimSpace(v.GetString("timezone")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// RequireToken fails when no Telegram token is configured.
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func positiveMinutes(raw, def int) time.Duration {
	if raw <= 0 {
		raw = def
	}
	return time.Duration(raw) * time.Minute
}
