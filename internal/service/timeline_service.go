package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"focus-planner/internal/model"
	"focus-planner/internal/recurrence"
	"focus-planner/internal/repository"
)

// TimelineService resolves a user's calendar day. It never fails: storage
// problems are logged and produce an empty day.
type TimelineService struct {
	taskRepo *repository.TaskRepository
	loc      *time.Location
	log      logrus.FieldLogger
}

func NewTimelineService(taskRepo *repository.TaskRepository, loc *time.Location, log logrus.FieldLogger) *TimelineService {
	return &TimelineService{taskRepo: taskRepo, loc: loc, log: log}
}

// Location is the calendar the user's days are computed in.
func (s *TimelineService) Location(user *model.User) *time.Location {
	if user == nil {
		if s.loc == nil {
			return time.Local
		}
		return s.loc
	}
	return user.Location(s.loc)
}

// Day returns the ordered occurrences of date's calendar day for the user.
func (s *TimelineService) Day(ctx context.Context, user *model.User, date time.Time) []model.Task {
	if s == nil || s.taskRepo == nil || user == nil {
		s.logger().Warn("timeline requested without storage")
		return nil
	}

	day := date.In(s.Location(user))
	from := recurrence.StartOfDay(day)
	to := from.AddDate(0, 0, 1)

	templates, err := s.taskRepo.ListWindow(ctx, user.ID, from, to)
	if err != nil {
		s.logger().WithFields(logrus.Fields{"user": user.ID, "date": from.Format("2006-01-02")}).
			WithError(err).Error("load day")
		return nil
	}
	return recurrence.Resolve(templates, day)
}

// FindOccurrence looks an occurrence up by id within date's day.
func (s *TimelineService) FindOccurrence(ctx context.Context, user *model.User, date time.Time, id string) (model.Task, bool) {
	for _, occ := range s.Day(ctx, user, date) {
		if occ.ID == id {
			return occ, true
		}
	}
	return model.Task{}, false
}

func (s *TimelineService) logger() logrus.FieldLogger {
	if s == nil || s.log == nil {
		return logrus.StandardLogger()
	}
	return s.log
}
