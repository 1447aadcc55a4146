package importer

import (
	"strings"
	"testing"
	"time"

	"focus-planner/internal/model"
)

func TestDecode(t *testing.T) {
	src := `
tasks:
  - title: Standup
    icon: "🗣"
    start: 2024-01-15 09:00
    duration: 15
    category: work
    repeat: daily
  - title: Rent
    start: 2024-01-31T10:00
    duration: 5
    repeat: fortnightly
`
	loc := time.FixedZone("UTC+3", 3*60*60)
	got, err := Decode(strings.NewReader(src), loc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].Recurrence != model.RecurrenceDaily || got[0].Category != model.CategoryWork || got[0].Icon != "🗣" {
		t.Fatalf("first=%+v", got[0])
	}
	if !got[0].Start.Equal(time.Date(2024, 1, 15, 9, 0, 0, 0, loc)) {
		t.Fatalf("start=%v", got[0].Start)
	}
	if got[1].Recurrence != model.RecurrenceNone || got[1].Category != "" {
		t.Fatalf("second=%+v", got[1])
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"missing title": "tasks:\n  - start: 2024-01-15 09:00\n    duration: 10\n",
		"bad start":     "tasks:\n  - title: X\n    start: tomorrow\n    duration: 10\n",
		"bad duration":  "tasks:\n  - title: X\n    start: 2024-01-15 09:00\n",
		"unknown field": "tasks:\n  - title: X\n    start: 2024-01-15 09:00\n    duration: 5\n    owner: me\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(src), time.UTC); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode(strings.NewReader(""), time.UTC)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}
