package model

import (
	"testing"
	"time"
)

func TestParseRecurrenceIsTotal(t *testing.T) {
	cases := map[string]Recurrence{
		"daily":     RecurrenceDaily,
		" Weekly ":  RecurrenceWeekly,
		"MONTHLY":   RecurrenceMonthly,
		"once":      RecurrenceOnce,
		"none":      RecurrenceNone,
		"":          RecurrenceNone,
		"fortnight": RecurrenceNone,
	}
	for raw, want := range cases {
		if got := ParseRecurrence(raw); got != want {
			t.Fatalf("ParseRecurrence(%q)=%q, want %q", raw, got, want)
		}
	}
}

func TestRepeats(t *testing.T) {
	for _, r := range []Recurrence{RecurrenceNone, RecurrenceOnce} {
		if r.Repeats() {
			t.Fatalf("%q should not repeat", r)
		}
	}
	for _, r := range []Recurrence{RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly} {
		if !r.Repeats() {
			t.Fatalf("%q should repeat", r)
		}
	}
}

func TestParseStatusDefaultsToScheduled(t *testing.T) {
	if got := ParseStatus("archived"); got != StatusScheduled {
		t.Fatalf("ParseStatus(archived)=%q, want scheduled", got)
	}
	if got := ParseStatus("in_progress"); got != StatusInProgress {
		t.Fatalf("ParseStatus(in_progress)=%q, want in-progress", got)
	}
	if got := ParseStatus("cancelled"); got != StatusCancelled {
		t.Fatalf("ParseStatus(cancelled)=%q, want cancelled", got)
	}
}

func TestParseCategory(t *testing.T) {
	if got := ParseCategory("Meal"); got != CategoryMeal {
		t.Fatalf("ParseCategory(Meal)=%q", got)
	}
	if got := ParseCategory("Работа"); got != CategoryWork {
		t.Fatalf("ParseCategory(Работа)=%q", got)
	}
	if got := ParseCategory("gardening"); got != "" {
		t.Fatalf("ParseCategory(gardening)=%q, want empty", got)
	}
}

func TestTaskDerivedFields(t *testing.T) {
	parent := "p1"
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	task := Task{StartTime: start, Duration: 45, Recurrence: "bogus", Status: "cancelled", ParentTaskID: &parent}

	if !task.EndTime().Equal(start.Add(45 * time.Minute)) {
		t.Fatalf("EndTime=%v", task.EndTime())
	}
	if task.Rule() != RecurrenceNone {
		t.Fatalf("Rule=%q, want none", task.Rule())
	}
	if !task.IsTombstone() {
		t.Fatalf("expected tombstone")
	}
	if task.Done() {
		t.Fatalf("cancelled task is not done")
	}
	task.Status = StatusCompleted
	if !task.Done() {
		t.Fatalf("completed status should be done")
	}
}
