package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Task is a stored template, a surfaced occurrence or a cancellation tombstone.
// Generated rows always point at their template through ParentTaskID.
type Task struct {
	ID                    string  `gorm:"primaryKey;size:36"`
	UserID                uint    `gorm:"index"`
	ParentTaskID          *string `gorm:"index;size:36"`
	Title                 string
	Icon                  string
	Color                 string
	StartTime             time.Time `gorm:"index"`
	Duration              int       // minutes
	IsCompleted           bool      `gorm:"default:false"`
	Category              TaskCategory
	Status                TaskStatus
	Recurrence            Recurrence
	IsGeneratedFromRepeat bool `gorm:"default:false"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// Virtual marks an occurrence synthesized by the expander and never stored.
	Virtual bool `gorm:"-"`
}

// EndTime is the start time plus the planned duration.
func (t Task) EndTime() time.Time {
	return t.StartTime.Add(time.Duration(t.Duration) * time.Minute)
}

// Rule decodes the stored recurrence rule.
func (t Task) Rule() Recurrence {
	return ParseRecurrence(string(t.Recurrence))
}

// State decodes the stored status.
func (t Task) State() TaskStatus {
	return ParseStatus(string(t.Status))
}

// Kind decodes the stored category.
func (t Task) Kind() TaskCategory {
	return ParseCategory(string(t.Category))
}

// Done reports whether the task no longer needs attention.
func (t Task) Done() bool {
	return t.IsCompleted || t.State() == StatusCompleted
}

// IsTombstone reports whether the row suppresses a generated occurrence.
func (t Task) IsTombstone() bool {
	return t.ParentTaskID != nil && t.State() == StatusCancelled
}

// Recurrence is the repeat rule of a template.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceOnce    Recurrence = "once"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// ParseRecurrence maps any stored value to a rule; unknown values become none.
func ParseRecurrence(raw string) Recurrence {
	switch r := Recurrence(strings.ToLower(strings.TrimSpace(raw))); r {
	case RecurrenceOnce, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return r
	default:
		return RecurrenceNone
	}
}

// Repeats reports whether the rule produces virtual occurrences.
func (r Recurrence) Repeats() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusScheduled  TaskStatus = "scheduled"
	StatusInProgress TaskStatus = "in-progress"
	StatusPaused     TaskStatus = "paused"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

// ParseStatus maps any stored value to a status; unknown values become scheduled.
func ParseStatus(raw string) TaskStatus {
	switch s := TaskStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusInProgress, StatusPaused, StatusCompleted, StatusCancelled:
		return s
	case "inprogress", "in_progress":
		return StatusInProgress
	default:
		return StatusScheduled
	}
}

// BeforeSave keeps stored timestamps in UTC so SQLite compares them as text
// correctly, and stores enums in their canonical spelling so queries can
// filter on them.
func (t *Task) BeforeSave(*gorm.DB) error {
	t.StartTime = t.StartTime.UTC()
	t.Recurrence = t.Rule()
	t.Status = t.State()
	t.Category = t.Kind()
	return nil
}
