package recurrence

import (
	"reflect"
	"testing"
	"time"

	"focus-planner/internal/model"
	"pgregory.net/rapid"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func genRule(t *rapid.T) model.Recurrence {
	rules := []model.Recurrence{
		model.RecurrenceNone, model.RecurrenceOnce, model.RecurrenceDaily,
		model.RecurrenceWeekly, model.RecurrenceMonthly,
	}
	return rules[rapid.IntRange(0, len(rules)-1).Draw(t, "ruleIdx")]
}

func genTemplate(t *rapid.T, i int) model.Task {
	day := rapid.IntRange(0, 60).Draw(t, "startDay")
	minute := rapid.IntRange(0, 24*60-1).Draw(t, "startMinute")
	return model.Task{
		ID:         "tpl-" + string(rune('a'+i)),
		Title:      rapid.SampledFrom([]string{"Standup", "Gym", "Read", "Review"}).Draw(t, "title"),
		StartTime:  base.AddDate(0, 0, day).Add(time.Duration(minute) * time.Minute),
		Duration:   rapid.IntRange(5, 180).Draw(t, "duration"),
		Status:     model.StatusScheduled,
		Recurrence: genRule(t),
	}
}

func genTemplates(t *rapid.T) []model.Task {
	n := rapid.IntRange(0, 8).Draw(t, "n")
	out := make([]model.Task, n)
	for i := range out {
		out[i] = genTemplate(t, i)
	}
	return out
}

// Property: Resolve is deterministic, including virtual occurrence ids.
func TestProperty_ResolveIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		templates := genTemplates(t)
		target := base.AddDate(0, 0, rapid.IntRange(0, 90).Draw(t, "targetDay"))

		first := Resolve(templates, target)
		second := Resolve(templates, target)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("resolve not idempotent:\n%+v\n%+v", first, second)
		}
	})
}

// Property: non-repeating templates never produce virtual occurrences.
func TestProperty_NonRepeatingNeverVirtual(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		templates := genTemplates(t)
		target := base.AddDate(0, 0, rapid.IntRange(0, 90).Draw(t, "targetDay"))

		rules := make(map[string]model.Recurrence)
		for _, tpl := range templates {
			rules[tpl.ID] = tpl.Rule()
		}
		for _, occ := range Resolve(templates, target) {
			if !occ.Virtual {
				if !SameDay(occ.StartTime, target) {
					t.Fatalf("actual occurrence %s outside target day", occ.ID)
				}
				continue
			}
			if !rules[*occ.ParentTaskID].Repeats() {
				t.Fatalf("virtual occurrence from non-repeating template %s", *occ.ParentTaskID)
			}
			if occ.Rule() != model.RecurrenceNone {
				t.Fatalf("virtual occurrence repeats: %q", occ.Recurrence)
			}
		}
	})
}

// Property: a daily template yields a virtual occurrence on every later day.
func TestProperty_DailyCoversEveryLaterDay(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tpl := genTemplate(t, 0)
		tpl.Recurrence = model.RecurrenceDaily
		offset := rapid.IntRange(1, 400).Draw(t, "offset")
		target := StartOfDay(tpl.StartTime).AddDate(0, 0, offset)

		got := Resolve([]model.Task{tpl}, target)
		if len(got) != 1 || !got[0].Virtual {
			t.Fatalf("day +%d: got %+v", offset, got)
		}
	})
}

// Property: weekly inclusion holds iff weekday matches and target is after start.
func TestProperty_WeeklyMatchesWeekday(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tpl := genTemplate(t, 0)
		tpl.Recurrence = model.RecurrenceWeekly
		target := base.AddDate(0, 0, rapid.IntRange(0, 120).Draw(t, "targetDay"))

		want := target.Weekday() == tpl.StartTime.Weekday() && StartOfDay(target).After(StartOfDay(tpl.StartTime))
		if got := ShouldInclude(tpl, target); got != want {
			t.Fatalf("ShouldInclude=%t, want %t (start=%v target=%v)", got, want, tpl.StartTime, target)
		}
	})
}

// Property: a tombstone for a day removes exactly that day's virtual occurrence.
func TestProperty_TombstoneSuppresses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tpl := genTemplate(t, 0)
		tpl.Recurrence = model.RecurrenceDaily
		target := StartOfDay(tpl.StartTime).AddDate(0, 0, rapid.IntRange(1, 30).Draw(t, "offset"))

		occ := Resolve([]model.Task{tpl}, target)
		if len(occ) != 1 {
			t.Fatalf("expected one occurrence, got %d", len(occ))
		}
		tomb := occ[0]
		tomb.ID = "tomb"
		tomb.Status = model.StatusCancelled
		tomb.Virtual = false

		if got := Resolve([]model.Task{tpl, tomb}, target); len(got) != 0 {
			t.Fatalf("tombstone did not suppress: %+v", got)
		}
	})
}
