package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"focus-planner/internal/breaks"
	"focus-planner/internal/model"
)

// BreakService surfaces break suggestions for the current day and keeps the
// advisory list of suggestions the user has already dismissed.
type BreakService struct {
	timeline *TimelineService
	tasks    *TaskService
	log      logrus.FieldLogger

	mu        sync.Mutex
	dismissed map[uint]map[string]time.Time // user -> suggestion key -> expiry
}

func NewBreakService(timeline *TimelineService, tasks *TaskService, log logrus.FieldLogger) *BreakService {
	return &BreakService{
		timeline:  timeline,
		tasks:     tasks,
		log:       log,
		dismissed: make(map[uint]map[string]time.Time),
	}
}

// Suggestions returns the gated, not yet dismissed suggestions for now's day.
func (s *BreakService) Suggestions(ctx context.Context, user *model.User, now time.Time) []breaks.Suggestion {
	if user == nil {
		return nil
	}
	now = now.In(s.timeline.Location(user))
	day := s.timeline.Day(ctx, user, now)
	all := breaks.Analyze(day, now)
	gated := breaks.Gate(all, day, now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(user.ID, now)
	seen := s.dismissed[user.ID]

	out := gated[:0]
	for _, sg := range gated {
		if _, ok := seen[sg.Key()]; ok {
			continue
		}
		out = append(out, sg)
	}
	s.log.WithFields(logrus.Fields{"user": user.ID, "generated": len(all), "shown": len(out)}).Debug("break suggestions")
	return out
}

// Find returns the currently surfaced suggestion with the given key.
func (s *BreakService) Find(ctx context.Context, user *model.User, key string, now time.Time) (breaks.Suggestion, bool) {
	for _, sg := range s.Suggestions(ctx, user, now) {
		if sg.Key() == key {
			return sg, true
		}
	}
	return breaks.Suggestion{}, false
}

// Dismiss hides the suggestion for the rest of its lifetime.
func (s *BreakService) Dismiss(user *model.User, sg breaks.Suggestion) {
	if user == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen, ok := s.dismissed[user.ID]
	if !ok {
		seen = make(map[string]time.Time)
		s.dismissed[user.ID] = seen
	}
	seen[sg.Key()] = sg.Expiry()
}

// Accept books the suggested break as a real task.
func (s *BreakService) Accept(ctx context.Context, user *model.User, sg breaks.Suggestion) (*model.Task, error) {
	task, err := s.tasks.CreateTask(ctx, user, TaskInput{
		Title:      sg.Type.Title(),
		Icon:       sg.Type.Icon(),
		Start:      sg.StartTime,
		Duration:   sg.Duration,
		Category:   model.CategoryBreak,
		Recurrence: model.RecurrenceNone,
	})
	if err != nil {
		return nil, err
	}
	s.Dismiss(user, sg)
	return task, nil
}

func (s *BreakService) pruneLocked(userID uint, now time.Time) {
	for key, until := range s.dismissed[userID] {
		if until.Before(now) {
			delete(s.dismissed[userID], key)
		}
	}
}
