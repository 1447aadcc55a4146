// Package recurrence expands repeating task templates into the occurrences
// of a single calendar day.
package recurrence

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"focus-planner/internal/model"
)

// occurrenceNamespace scopes the name-based ids of virtual occurrences.
var occurrenceNamespace = uuid.MustParse("6f1c8a52-3d7e-4b0a-9c55-0e4b7a1d2f90")

// OccurrenceID derives the id of the virtual occurrence of templateID on day.
// The same template and calendar day always give the same id.
func OccurrenceID(templateID string, day time.Time) string {
	return uuid.NewSHA1(occurrenceNamespace, []byte(templateID+"/"+day.Format("2006-01-02"))).String()
}

// Resolve returns the occurrences of target's calendar day, ordered by start time.
// Day boundaries follow target's location.
func Resolve(templates []model.Task, target time.Time) []model.Task {
	loc := target.Location()

	var actual, sources, children []model.Task
	for _, t := range templates {
		if t.IsGeneratedFromRepeat {
			if t.ParentTaskID != nil && SameDay(t.StartTime.In(loc), target) {
				children = append(children, t)
			}
			continue
		}
		if SameDay(t.StartTime.In(loc), target) {
			actual = append(actual, t)
		}
		if t.Rule().Repeats() {
			sources = append(sources, t)
		}
	}

	// Stored children are shown on their day whatever their template's rule
	// says now; sources only decide which virtual occurrences to add.
	result := make([]model.Task, 0, len(actual)+len(children)+len(sources))
	result = append(result, actual...)
	for _, c := range children {
		if !c.IsTombstone() {
			result = append(result, c)
		}
	}

	var virtual []model.Task
	for _, src := range sources {
		if !ShouldInclude(src, target) {
			continue
		}
		start := composeOnDay(src.StartTime.In(loc), target)
		if hasActualAt(actual, src.Title, start) || hasChild(children, src.ID) {
			continue
		}
		virtual = append(virtual, synthesize(src, start))
	}
	result = append(result, virtual...)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}

// ShouldInclude reports whether the repeating template occurs on target's day.
// The template's own start day is served by the template itself.
func ShouldInclude(template model.Task, target time.Time) bool {
	loc := target.Location()
	start := template.StartTime.In(loc)
	startDay := StartOfDay(start)
	day := StartOfDay(target)

	if !day.After(startDay) {
		return false
	}

	switch template.Rule() {
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekly:
		return day.Weekday() == start.Weekday()
	case model.RecurrenceMonthly:
		return day.Day() == start.Day()
	default:
		return false
	}
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func composeOnDay(clock, day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location())
}

func hasActualAt(actual []model.Task, title string, start time.Time) bool {
	for _, a := range actual {
		at := a.StartTime.In(start.Location())
		if a.Title == title && at.Hour() == start.Hour() && at.Minute() == start.Minute() {
			return true
		}
	}
	return false
}

// hasChild reports whether parentID already has a stored row (tombstone or
// materialized occurrence) on the day.
func hasChild(children []model.Task, parentID string) bool {
	for _, c := range children {
		if *c.ParentTaskID == parentID {
			return true
		}
	}
	return false
}

func synthesize(src model.Task, start time.Time) model.Task {
	parent := src.ID
	return model.Task{
		ID:                    OccurrenceID(src.ID, start),
		UserID:                src.UserID,
		ParentTaskID:          &parent,
		Title:                 src.Title,
		Icon:                  src.Icon,
		Color:                 src.Color,
		StartTime:             start,
		Duration:              src.Duration,
		Category:              src.Category,
		Status:                model.StatusScheduled,
		Recurrence:            model.RecurrenceNone,
		IsGeneratedFromRepeat: true,
		CreatedAt:             src.CreatedAt,
		UpdatedAt:             src.UpdatedAt,
		Virtual:               true,
	}
}
