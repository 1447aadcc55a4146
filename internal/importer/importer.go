// Package importer reads task templates from YAML files.
//
// A file holds a list under the "tasks" key:
//
//	tasks:
//	  - title: Standup
//	    icon: "🗣"
//	    start: 2024-01-15 09:00
//	    duration: 15
//	    category: work
//	    repeat: daily
package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"focus-planner/internal/model"
	"focus-planner/internal/service"
)

// Entry is one template as written in the file.
type Entry struct {
	Title    string `yaml:"title"`
	Icon     string `yaml:"icon"`
	Color    string `yaml:"color"`
	Start    string `yaml:"start"`
	Duration int    `yaml:"duration"`
	Category string `yaml:"category"`
	Repeat   string `yaml:"repeat"`
}

type document struct {
	Tasks []Entry `yaml:"tasks"`
}

var startLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// Decode parses the YAML document into task inputs. Start times without a
// zone are read in loc. Unknown repeat rules and categories decode to their
// defaults; missing titles, bad times and bad durations are errors.
func Decode(r io.Reader, loc *time.Location) ([]service.TaskInput, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	inputs := make([]service.TaskInput, 0, len(doc.Tasks))
	for i, e := range doc.Tasks {
		if strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("task %d: title is required", i+1)
		}
		start, err := parseStart(e.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i+1, e.Title, err)
		}
		if e.Duration <= 0 {
			return nil, fmt.Errorf("task %d (%s): duration must be positive", i+1, e.Title)
		}
		inputs = append(inputs, service.TaskInput{
			Title:      e.Title,
			Icon:       e.Icon,
			Color:      e.Color,
			Start:      start,
			Duration:   e.Duration,
			Category:   model.ParseCategory(e.Category),
			Recurrence: model.ParseRecurrence(e.Repeat),
		})
	}
	return inputs, nil
}

func parseStart(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start %q, expected YYYY-MM-DD HH:MM", raw)
}
