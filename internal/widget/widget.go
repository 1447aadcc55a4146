// Package widget projects a resolved day into the flat read model shown by
// compact surfaces such as the daily report header.
package widget

import (
	"time"

	"focus-planner/internal/model"
)

// Entry is the public, display-ready view of one occurrence.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	Category  string    `json:"category,omitempty"`
	Status    string    `json:"status"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Completed bool      `json:"completed"`
	Repeating bool      `json:"repeating"`
	Active    bool      `json:"active"`
}

// Snapshot summarizes a day for a widget.
type Snapshot struct {
	Date      time.Time `json:"date"`
	Entries   []Entry   `json:"entries"`
	Current   *Entry    `json:"current,omitempty"`
	Next      *Entry    `json:"next,omitempty"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Progress  int       `json:"progress"` // percent
}

// Project maps one occurrence to its read model.
func Project(t model.Task, now time.Time) Entry {
	start := t.StartTime.In(now.Location())
	end := t.EndTime().In(now.Location())
	return Entry{
		ID:        t.ID,
		Title:     t.Title,
		Icon:      t.Icon,
		Color:     t.Color,
		Category:  string(t.Kind()),
		Status:    string(t.State()),
		Start:     start,
		End:       end,
		Completed: t.Done(),
		Repeating: t.Rule().Repeats() || t.IsGeneratedFromRepeat,
		Active:    !t.Done() && !now.Before(start) && now.Before(end),
	}
}

// Build projects a resolved, start-ordered day. Cancelled rows are skipped.
func Build(day []model.Task, now time.Time) Snapshot {
	y, m, d := now.Date()
	snap := Snapshot{Date: time.Date(y, m, d, 0, 0, 0, 0, now.Location())}
	for _, t := range day {
		if t.State() == model.StatusCancelled {
			continue
		}
		e := Project(t, now)
		snap.Entries = append(snap.Entries, e)
		snap.Total++
		if e.Completed {
			snap.Completed++
		}
	}
	for i := range snap.Entries {
		e := &snap.Entries[i]
		if e.Active && snap.Current == nil {
			snap.Current = e
		}
		if !e.Completed && e.Start.After(now) && snap.Next == nil {
			snap.Next = e
		}
	}
	if snap.Total > 0 {
		snap.Progress = snap.Completed * 100 / snap.Total
	}
	return snap
}
