package bot

import (
	"testing"
	"time"

	"focus-planner/internal/model"
)

func TestParseCallback(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	data := callbackData(cbSkipPrefix, "3f1c2d7e-0000-5000-8000-000000000001", "20240116")

	id, day, err := parseCallback(data, cbSkipPrefix, loc)
	if err != nil {
		t.Fatalf("parseCallback: %v", err)
	}
	if id != "3f1c2d7e-0000-5000-8000-000000000001" {
		t.Fatalf("id = %q", id)
	}
	want := time.Date(2024, 1, 16, 0, 0, 0, 0, loc)
	if !day.Equal(want) {
		t.Fatalf("day = %v, want %v", day, want)
	}

	for _, bad := range []string{"skip:", "skip:abc", "skip:abc:2024-01-16", "skip::20240116"} {
		if _, _, err := parseCallback(bad, cbSkipPrefix, loc); err == nil {
			t.Errorf("parseCallback(%q) accepted", bad)
		}
	}
}

func TestParseStart(t *testing.T) {
	now := time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC)

	got, err := parseStart("09:30", now)
	if err != nil {
		t.Fatalf("parseStart clock: %v", err)
	}
	if want := time.Date(2024, 1, 16, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("clock start = %v, want %v", got, want)
	}

	got, err = parseStart("2024-02-01 18:05", now)
	if err != nil {
		t.Fatalf("parseStart full: %v", err)
	}
	if want := time.Date(2024, 2, 1, 18, 5, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("full start = %v, want %v", got, want)
	}

	if _, err := parseStart("завтра", now); err == nil {
		t.Fatalf("expected error for free text")
	}
}

func TestParseRepeatButton(t *testing.T) {
	tests := []struct {
		in   string
		want model.Recurrence
		ok   bool
	}{
		{btnRepeatNone, model.RecurrenceNone, true},
		{btnRepeatDaily, model.RecurrenceDaily, true},
		{"  каждую неделю ", model.RecurrenceWeekly, true},
		{"monthly", model.RecurrenceMonthly, true},
		{"иногда", model.RecurrenceNone, false},
	}
	for _, tt := range tests {
		got, ok := parseRepeatButton(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseRepeatButton(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCategoryButton(t *testing.T) {
	tests := map[string]model.TaskCategory{
		"💼 Работа": model.CategoryWork,
		"🍽 Еда":    model.CategoryMeal,
		"exercise": model.CategoryExercise,
		"что-то":   "",
		"":         "",
	}
	for in, want := range tests {
		if got := parseCategoryButton(in); got != want {
			t.Errorf("parseCategoryButton(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShortTitle(t *testing.T) {
	if got := shortTitle("стендап", 20); got != "Стендап" {
		t.Fatalf("short = %q", got)
	}
	if got := shortTitle("очень длинное название задачи", 10); got != "Очень дли…" {
		t.Fatalf("truncated = %q", got)
	}
}
