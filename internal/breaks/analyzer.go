package breaks

import (
	"sort"
	"strings"
	"time"

	"focus-planner/internal/model"
)

const (
	longTaskMinutes     = 90
	midTaskBreakMinutes = 5

	snackMinutes    = 15
	movementMinutes = 20
	restMinutes     = 30
	hydrationLead   = 2 * time.Hour
	hydrationLength = 5
	lunchMinutes    = 45
	lunchHour       = 12
	lunchMinute     = 30

	// MaxLookahead bounds how far ahead a surfaced suggestion may start.
	MaxLookahead = 4 * time.Hour
	// MinImpactScore is the lowest score a surfaced suggestion may carry.
	MinImpactScore = 40.0
)

// Analyze proposes breaks for the given day. now's location defines local time.
// It never fails; odd input only yields fewer suggestions.
func Analyze(tasks []model.Task, now time.Time) []Suggestion {
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var out []Suggestion
	for i, task := range sorted {
		if task.Done() {
			continue
		}

		if task.Duration > longTaskMinutes {
			s := newSuggestion(TypeMovement,
				task.StartTime.Add(time.Duration(task.Duration/2)*time.Minute),
				midTaskBreakMinutes,
				"Долгая задача: разомнись на середине, чтобы не терять концентрацию",
				now)
			s.AnchorTaskID = anchor(task.ID)
			s.ImpactScore = 75
			s.Priority = PriorityHigh
			out = append(out, s)
		}

		if i+1 < len(sorted) {
			if s, ok := gapSuggestion(task, sorted[i+1], now); ok {
				out = append(out, s)
			}
		}
	}

	if s, ok := hydration(sorted, now); ok {
		out = append(out, s)
	}
	if s, ok := lunch(sorted, now); ok {
		out = append(out, s)
	}

	filtered := out[:0]
	for _, s := range out {
		if s.StartTime.After(now) {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].StartTime.Before(filtered[j].StartTime)
	})
	return filtered
}

func gapSuggestion(current, next model.Task, now time.Time) (Suggestion, bool) {
	end := current.EndTime()
	gap := int(next.StartTime.Sub(end) / time.Minute)

	var s Suggestion
	switch {
	case gap >= 15 && gap <= 30:
		s = newSuggestion(TypeSnack, end, snackMinutes,
			"Между задачами есть окно: время для перекуса", now)
	case gap >= 31 && gap <= 60:
		s = newSuggestion(TypeMovement, end.Add(5*time.Minute), movementMinutes,
			"Свободные полчаса: прогулка или разминка", now)
		s.ImpactScore = 60
	case gap >= 61 && gap <= 120:
		s = newSuggestion(TypeRest, end.Add(10*time.Minute), restMinutes,
			"Большой перерыв: отдохни и восстанови силы", now)
		s.ImpactScore = 55
	default:
		return Suggestion{}, false
	}
	s.AnchorTaskID = anchor(current.ID)
	return s, true
}

func hydration(tasks []model.Task, now time.Time) (Suggestion, bool) {
	s := newSuggestion(TypeHydration, now.Add(hydrationLead), hydrationLength,
		"Не забывай пить воду", now)
	s.ImpactScore = 45
	s.Priority = PriorityLow
	if overlapsAny(s, tasks) {
		return Suggestion{}, false
	}
	return s, true
}

func lunch(tasks []model.Task, now time.Time) (Suggestion, bool) {
	for _, t := range tasks {
		if isMeal(t) {
			return Suggestion{}, false
		}
	}
	y, m, d := now.Date()
	start := time.Date(y, m, d, lunchHour, lunchMinute, 0, 0, now.Location())
	if !start.After(now) {
		return Suggestion{}, false
	}
	s := newSuggestion(TypeSnack, start, lunchMinutes,
		"Обед не запланирован: оставь время поесть", now)
	s.ImpactScore = 85
	s.Priority = PriorityHigh
	return s, true
}

func isMeal(t model.Task) bool {
	if t.Kind() == model.CategoryMeal {
		return true
	}
	title := strings.ToLower(t.Title)
	return strings.Contains(title, "lunch") || strings.Contains(title, "обед")
}

// Overlaps reports whether the suggestion intersects the task's time span.
func Overlaps(s Suggestion, t model.Task) bool {
	return s.StartTime.Before(t.EndTime()) && t.StartTime.Before(s.EndTime())
}

func overlapsAny(s Suggestion, tasks []model.Task) bool {
	for _, t := range tasks {
		if Overlaps(s, t) {
			return true
		}
	}
	return false
}

func anchor(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
