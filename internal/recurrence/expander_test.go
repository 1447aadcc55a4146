package recurrence

import (
	"testing"
	"time"

	"focus-planner/internal/model"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func template(id, title string, start time.Time, rule model.Recurrence) model.Task {
	return model.Task{
		ID:         id,
		Title:      title,
		Icon:       "☕",
		Color:      "blue",
		StartTime:  start,
		Duration:   15,
		Category:   model.CategoryWork,
		Status:     model.StatusScheduled,
		Recurrence: rule,
	}
}

func TestResolveDailyStandup(t *testing.T) {
	standup := template("standup", "Standup", at(2024, 1, 15, 9, 0), model.RecurrenceDaily)

	got := Resolve([]model.Task{standup}, at(2024, 1, 16, 0, 0))
	if len(got) != 1 {
		t.Fatalf("len=%d, want 1", len(got))
	}
	occ := got[0]
	if occ.Title != "Standup" || !occ.StartTime.Equal(at(2024, 1, 16, 9, 0)) {
		t.Fatalf("occurrence=%+v", occ)
	}
	if !occ.IsGeneratedFromRepeat || !occ.Virtual {
		t.Fatalf("expected generated virtual occurrence")
	}
	if occ.ParentTaskID == nil || *occ.ParentTaskID != "standup" {
		t.Fatalf("parent=%v, want standup", occ.ParentTaskID)
	}
	if occ.Rule() != model.RecurrenceNone || occ.State() != model.StatusScheduled {
		t.Fatalf("rule=%q status=%q", occ.Rule(), occ.State())
	}
	if occ.ID == standup.ID {
		t.Fatalf("virtual occurrence reused template id")
	}
	if occ.Icon != standup.Icon || occ.Color != standup.Color || occ.Duration != 15 || occ.Category != model.CategoryWork {
		t.Fatalf("attributes not copied: %+v", occ)
	}
}

func TestResolveStartDayReturnsTemplateOnly(t *testing.T) {
	standup := template("standup", "Standup", at(2024, 1, 15, 9, 0), model.RecurrenceDaily)
	got := Resolve([]model.Task{standup}, at(2024, 1, 15, 12, 0))
	if len(got) != 1 || got[0].ID != "standup" || got[0].Virtual {
		t.Fatalf("got %+v, want the template itself", got)
	}
}

func TestShouldInclude(t *testing.T) {
	monday := at(2024, 1, 15, 9, 0)
	cases := []struct {
		name   string
		rule   model.Recurrence
		target time.Time
		want   bool
	}{
		{"daily before start", model.RecurrenceDaily, at(2024, 1, 14, 9, 0), false},
		{"daily on start day", model.RecurrenceDaily, at(2024, 1, 15, 23, 0), false},
		{"daily after start", model.RecurrenceDaily, at(2024, 3, 1, 0, 0), true},
		{"weekly same weekday", model.RecurrenceWeekly, at(2024, 1, 22, 0, 0), true},
		{"weekly other weekday", model.RecurrenceWeekly, at(2024, 1, 23, 0, 0), false},
		{"monthly same day", model.RecurrenceMonthly, at(2024, 2, 15, 0, 0), true},
		{"monthly other day", model.RecurrenceMonthly, at(2024, 2, 16, 0, 0), false},
		{"none", model.RecurrenceNone, at(2024, 1, 16, 0, 0), false},
		{"once", model.RecurrenceOnce, at(2024, 1, 16, 0, 0), false},
		{"unknown rule", model.Recurrence("hourly"), at(2024, 1, 16, 0, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := template("t", "T", monday, tc.rule)
			if got := ShouldInclude(tpl, tc.target); got != tc.want {
				t.Fatalf("ShouldInclude=%t, want %t", got, tc.want)
			}
		})
	}
}

func TestMonthlySkipsShortMonths(t *testing.T) {
	tpl := template("rent", "Rent", at(2024, 1, 31, 10, 0), model.RecurrenceMonthly)
	for d := 1; d <= 29; d++ {
		if ShouldInclude(tpl, at(2024, 2, d, 0, 0)) {
			t.Fatalf("monthly on the 31st included on Feb %d", d)
		}
	}
	if !ShouldInclude(tpl, at(2024, 3, 31, 0, 0)) {
		t.Fatalf("expected March 31st")
	}
}

func TestActualOccurrenceTakesPrecedence(t *testing.T) {
	standup := template("standup", "Standup", at(2024, 1, 15, 9, 0), model.RecurrenceDaily)
	moved := template("manual", "Standup", at(2024, 1, 16, 9, 0), model.RecurrenceNone)

	got := Resolve([]model.Task{standup, moved}, at(2024, 1, 16, 0, 0))
	if len(got) != 1 || got[0].ID != "manual" {
		t.Fatalf("got %+v, want only the real occurrence", got)
	}
}

func TestTombstoneSuppressesOccurrence(t *testing.T) {
	standup := template("standup", "Standup", at(2024, 1, 15, 9, 0), model.RecurrenceDaily)
	parent := "standup"
	tomb := model.Task{
		ID:                    "tomb",
		ParentTaskID:          &parent,
		Title:                 "Standup",
		StartTime:             at(2024, 1, 16, 9, 0),
		Status:                model.StatusCancelled,
		Recurrence:            model.RecurrenceNone,
		IsGeneratedFromRepeat: true,
	}

	if got := Resolve([]model.Task{standup, tomb}, at(2024, 1, 16, 0, 0)); len(got) != 0 {
		t.Fatalf("got %+v, want nothing on cancelled day", got)
	}
	if got := Resolve([]model.Task{standup, tomb}, at(2024, 1, 17, 0, 0)); len(got) != 1 {
		t.Fatalf("tombstone leaked into another day: %+v", got)
	}
}

func TestMaterializedChildReplacesVirtual(t *testing.T) {
	standup := template("standup", "Standup", at(2024, 1, 15, 9, 0), model.RecurrenceDaily)
	parent := "standup"
	done := model.Task{
		ID:                    OccurrenceID("standup", at(2024, 1, 16, 0, 0)),
		ParentTaskID:          &parent,
		Title:                 "Standup",
		StartTime:             at(2024, 1, 16, 9, 0),
		Duration:              15,
		IsCompleted:           true,
		Status:                model.StatusCompleted,
		IsGeneratedFromRepeat: true,
	}

	got := Resolve([]model.Task{standup, done}, at(2024, 1, 16, 0, 0))
	if len(got) != 1 || !got[0].IsCompleted || got[0].Virtual {
		t.Fatalf("got %+v, want the completed child", got)
	}
}

func TestResolveSortsActualBeforeVirtualOnTies(t *testing.T) {
	gym := template("gym", "Gym", at(2024, 1, 10, 7, 0), model.RecurrenceWeekly)
	review := template("review", "Review", at(2024, 1, 17, 7, 0), model.RecurrenceNone)
	lunch := template("lunch", "Lunch", at(2024, 1, 17, 6, 30), model.RecurrenceNone)

	got := Resolve([]model.Task{gym, review, lunch}, at(2024, 1, 17, 0, 0))
	if len(got) != 3 {
		t.Fatalf("len=%d, want 3", len(got))
	}
	if got[0].ID != "lunch" || got[1].ID != "review" || !got[2].Virtual {
		t.Fatalf("order=%s,%s,%s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestResolveHonorsTargetLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on the 15th is 01:30 on the 16th in UTC+3.
	tpl := template("late", "Late", time.Date(2024, 1, 15, 22, 30, 0, 0, time.UTC), model.RecurrenceDaily)

	got := Resolve([]model.Task{tpl}, time.Date(2024, 1, 16, 12, 0, 0, 0, loc))
	if len(got) != 1 || got[0].Virtual {
		t.Fatalf("got %+v, want the template on its local start day", got)
	}
	got = Resolve([]model.Task{tpl}, time.Date(2024, 1, 17, 12, 0, 0, 0, loc))
	if len(got) != 1 || got[0].StartTime.Hour() != 1 || got[0].StartTime.Minute() != 30 {
		t.Fatalf("got %+v, want virtual at 01:30 local", got)
	}
}

func TestOccurrenceIDIsStablePerDay(t *testing.T) {
	a := OccurrenceID("tpl", at(2024, 1, 16, 9, 0))
	b := OccurrenceID("tpl", at(2024, 1, 16, 18, 0))
	c := OccurrenceID("tpl", at(2024, 1, 17, 9, 0))
	if a != b {
		t.Fatalf("ids differ within one day: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("ids collide across days")
	}
}

func TestStoredChildSurvivesRuleChange(t *testing.T) {
	parent := "standup"
	done := model.Task{
		ID:                    OccurrenceID(parent, at(2024, 1, 16, 0, 0)),
		ParentTaskID:          &parent,
		Title:                 "Standup",
		StartTime:             at(2024, 1, 16, 9, 0),
		Duration:              15,
		IsCompleted:           true,
		Status:                model.StatusCompleted,
		IsGeneratedFromRepeat: true,
	}

	for _, rule := range []model.Recurrence{model.RecurrenceNone, model.RecurrenceWeekly} {
		// Jan 15 is a Monday, the child sits on Tuesday.
		standup := template(parent, "Standup", at(2024, 1, 15, 9, 0), rule)
		got := Resolve([]model.Task{standup, done}, at(2024, 1, 16, 0, 0))
		if len(got) != 1 || got[0].ID != done.ID || !got[0].Done() {
			t.Fatalf("rule %s: got %+v, want the completed child", rule, got)
		}
	}
}
