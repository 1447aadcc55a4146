package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"TELEGRAM_TOKEN", "DATABASE_URL", "REPORT_TIME", "REMINDER_LEAD_MINUTES", "BREAK_CHECK_MINUTES", "TIMEZONE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "daily_planner.db" {
		t.Fatalf("DatabaseURL=%q", cfg.DatabaseURL)
	}
	if cfg.ReminderLead != 10*time.Minute || cfg.BreakCheckInterval != 30*time.Minute {
		t.Fatalf("lead=%v check=%v", cfg.ReminderLead, cfg.BreakCheckInterval)
	}
	if cfg.Location != time.Local {
		t.Fatalf("Location=%v, want Local", cfg.Location)
	}
	if err := cfg.RequireToken(); err == nil {
		t.Fatalf("expected missing token error")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_TOKEN", " abc ")
	t.Setenv("DATABASE_URL", "data/planner.db")
	t.Setenv("REPORT_TIME", "07:30")
	t.Setenv("REMINDER_LEAD_MINUTES", "5")
	t.Setenv("BREAK_CHECK_MINUTES", "-3")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "abc" || cfg.DatabaseURL != "data/planner.db" || cfg.ReportTime != "07:30" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.ReminderLead != 5*time.Minute {
		t.Fatalf("ReminderLead=%v", cfg.ReminderLead)
	}
	if cfg.BreakCheckInterval != 30*time.Minute {
		t.Fatalf("BreakCheckInterval=%v, want default for negative input", cfg.BreakCheckInterval)
	}
	if cfg.Location.String() != "UTC" || cfg.LogLevel != "debug" {
		t.Fatalf("loc=%v level=%q", cfg.Location, cfg.LogLevel)
	}
	if err := cfg.RequireToken(); err != nil {
		t.Fatalf("RequireToken: %v", err)
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatalf("expected timezone error")
	}
}

// chdir changes the working directory for the duration of the test,
// matching testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
