// Package breaks proposes rest, snack and movement breaks for a planned day.
package breaks

import "time"

// Type is the kind of break being proposed.
type Type string

const (
	TypeSnack     Type = "snack"
	TypeHydration Type = "hydration"
	TypeMovement  Type = "movement"
	TypeRest      Type = "rest"
	TypeFreshAir  Type = "fresh-air"
	TypeEyeRest   Type = "eye-rest"
	TypeSocial    Type = "social"
)

// Priority is the display tier of a suggestion.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

const (
	DefaultImpactScore = 50.0
	highImpactScore    = 80.0
)

// Suggestion is an ephemeral break recommendation. It is never persisted.
type Suggestion struct {
	Type             Type
	Duration         int // minutes
	StartTime        time.Time
	Reason           string
	AnchorTaskID     *string
	TimeUntilOptimal time.Duration
	ImpactScore      float64
	Priority         Priority
}

// EndTime is the start time plus the suggested duration.
func (s Suggestion) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.Duration) * time.Minute)
}

// IsHighPriority combines the priority tier and the impact score.
// The generator sets the two independently, so either one can trigger it.
func (s Suggestion) IsHighPriority() bool {
	return s.Priority == PriorityHigh || s.ImpactScore >= highImpactScore
}

// Key identifies a suggestion for dismissal bookkeeping. Hydration floats
// with the clock, so it is keyed by its calendar day instead of its start.
func (s Suggestion) Key() string {
	if s.Type == TypeHydration {
		return string(s.Type) + "@" + s.StartTime.Format("2006-01-02")
	}
	return string(s.Type) + "@" + s.StartTime.UTC().Format(time.RFC3339)
}

// Expiry is when a dismissal of the suggestion may be forgotten.
func (s Suggestion) Expiry() time.Time {
	if s.Type == TypeHydration {
		y, m, d := s.StartTime.Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, s.StartTime.Location())
	}
	return s.StartTime
}

func newSuggestion(kind Type, start time.Time, duration int, reason string, now time.Time) Suggestion {
	return Suggestion{
		Type:             kind,
		Duration:         duration,
		StartTime:        start,
		Reason:           reason,
		TimeUntilOptimal: start.Sub(now),
		ImpactScore:      DefaultImpactScore,
		Priority:         PriorityMedium,
	}
}

// Title is the short human label of the break type.
func (t Type) Title() string {
	switch t {
	case TypeSnack:
		return "Перекус"
	case TypeHydration:
		return "Стакан воды"
	case TypeMovement:
		return "Разминка"
	case TypeRest:
		return "Отдых"
	case TypeFreshAir:
		return "Свежий воздух"
	case TypeEyeRest:
		return "Отдых для глаз"
	case TypeSocial:
		return "Общение"
	default:
		return "Перерыв"
	}
}

// Icon is the emoji shown next to the break type.
func (t Type) Icon() string {
	switch t {
	case TypeSnack:
		return "🍎"
	case TypeHydration:
		return "💧"
	case TypeMovement:
		return "🤸"
	case TypeRest:
		return "🛋"
	case TypeFreshAir:
		return "🌳"
	case TypeEyeRest:
		return "👀"
	case TypeSocial:
		return "💬"
	default:
		return "☕"
	}
}
