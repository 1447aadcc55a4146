package breaks

import (
	"time"

	"focus-planner/internal/model"
)

// Surfaceable reports whether a suggestion is worth showing right now:
// it starts in the future but within MaxLookahead, does not collide with
// any task and carries at least MinImpactScore.
func Surfaceable(s Suggestion, tasks []model.Task, now time.Time) bool {
	if !s.StartTime.After(now) {
		return false
	}
	if s.StartTime.Sub(now) > MaxLookahead {
		return false
	}
	if s.ImpactScore < MinImpactScore {
		return false
	}
	return !overlapsAny(s, tasks)
}

// Gate keeps the surfaceable suggestions, preserving order.
func Gate(suggestions []Suggestion, tasks []model.Task, now time.Time) []Suggestion {
	var out []Suggestion
	for _, s := range suggestions {
		if Surfaceable(s, tasks, now) {
			out = append(out, s)
		}
	}
	return out
}
