package root

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"focus-planner/internal/logging"
	"focus-planner/internal/repository"
)

const sampleYAML = `tasks:
  - title: Standup
    icon: "🗣"
    start: 2024-01-15 09:00
    duration: 15
    category: work
    repeat: daily
  - title: Dentist
    start: 2024-01-17 14:00
    duration: 60
    category: health
`

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	dbPath := filepath.Join(dir, "planner.db")
	t.Setenv("DATABASE_URL", dbPath)
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")

	db, err := repository.NewDB(dbPath, logging.Discard())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if _, err := repository.NewUserRepository(db).UpsertFromTelegram(context.Background(), 42, "Ann", "", "ann"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportThenToday(t *testing.T) {
	dir := setupCLI(t)
	file := filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(file, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	out, err := runCLI(t, "import", file)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Standup") || !strings.Contains(out, "Dentist") {
		t.Fatalf("import output missing titles:\n%s", out)
	}

	out, err = runCLI(t, "today", "--date", "2024-01-17")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !strings.Contains(out, "09:00") || !strings.Contains(out, "Standup") {
		t.Fatalf("virtual standup missing:\n%s", out)
	}
	if !strings.Contains(out, "Dentist") {
		t.Fatalf("dentist missing:\n%s", out)
	}

	out, err = runCLI(t, "today", "--user", "42", "--date", "2024-01-16")
	if err != nil {
		t.Fatalf("today --user: %v", err)
	}
	if strings.Contains(out, "Dentist") {
		t.Fatalf("dentist leaked into another day:\n%s", out)
	}
}

func TestImportDryRunSavesNothing(t *testing.T) {
	dir := setupCLI(t)
	file := filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(file, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	if _, err := runCLI(t, "import", "--dry-run", file); err != nil {
		t.Fatalf("import --dry-run: %v", err)
	}
	out, err := runCLI(t, "today", "--date", "2024-01-17")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if strings.Contains(out, "Standup") {
		t.Fatalf("dry run persisted tasks:\n%s", out)
	}
}

func TestTodayRejectsBadInput(t *testing.T) {
	setupCLI(t)

	if _, err := runCLI(t, "today", "--date", "17.01.2024"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
	if _, err := runCLI(t, "today", "--user", "7"); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

func TestBotRequiresToken(t *testing.T) {
	setupCLI(t)
	t.Setenv("TELEGRAM_TOKEN", "")

	if _, err := runCLI(t, "bot"); err == nil {
		t.Fatalf("expected missing token error")
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
