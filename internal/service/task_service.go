package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"focus-planner/internal/model"
	"focus-planner/internal/repository"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidDuration = errors.New("duration must be between 1 and 1440 minutes")
)

// TaskInput represents data required to create or edit a task template.
type TaskInput struct {
	Title      string
	Icon       string
	Color      string
	Start      time.Time
	Duration   int // minutes
	Category   model.TaskCategory
	Recurrence model.Recurrence
}

func (in TaskInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if in.Duration <= 0 || in.Duration > 24*60 {
		return ErrInvalidDuration
	}
	return nil
}

// TaskService wraps task-related business logic: templates, completions,
// cancellations of single occurrences and series deletion.
type TaskService struct {
	taskRepo *repository.TaskRepository
	notifier Notifier
	log      logrus.FieldLogger
}

func NewTaskService(taskRepo *repository.TaskRepository, notifier Notifier, log logrus.FieldLogger) *TaskService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TaskService{taskRepo: taskRepo, notifier: notifier, log: log}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	task := model.Task{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Title:      strings.TrimSpace(input.Title),
		Icon:       input.Icon,
		Color:      input.Color,
		StartTime:  input.Start,
		Duration:   input.Duration,
		Category:   model.ParseCategory(string(input.Category)),
		Status:     model.StatusScheduled,
		Recurrence: model.ParseRecurrence(string(input.Recurrence)),
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user": user.ID, "task": task.ID, "repeat": task.Recurrence}).Info("task created")
	s.notifier.TaskScheduled(ctx, *user, task)
	return &task, nil
}

// UpdateTask edits a stored template in place.
func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, taskID string, input TaskInput) (*model.Task, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = strings.TrimSpace(input.Title)
	task.Icon = input.Icon
	task.Color = input.Color
	task.StartTime = input.Start
	task.Duration = input.Duration
	task.Category = model.ParseCategory(string(input.Category))
	if !task.IsGeneratedFromRepeat {
		task.Recurrence = model.ParseRecurrence(string(input.Recurrence))
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.notifier.TaskRemoved(ctx, *user, task.ID)
	s.notifier.TaskScheduled(ctx, *user, *task)
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// CompleteOccurrence marks an occurrence done. A virtual occurrence is stored
// as a completed child under its own id, which keeps it from regenerating.
func (s *TaskService) CompleteOccurrence(ctx context.Context, user *model.User, occ model.Task) (*model.Task, error) {
	if occ.Virtual {
		done := occ
		done.Virtual = false
		done.UserID = user.ID
		done.IsCompleted = true
		done.Status = model.StatusCompleted
		done.Recurrence = model.RecurrenceNone
		done.CreatedAt, done.UpdatedAt = time.Time{}, time.Time{}
		if err := s.taskRepo.Create(ctx, &done); err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"user": user.ID, "task": done.ID, "parent": *done.ParentTaskID}).Info("occurrence completed")
		s.notifier.TaskRemoved(ctx, *user, done.ID)
		return &done, nil
	}

	task, err := s.taskRepo.FindByID(ctx, user.ID, occ.ID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.MarkCompleted(ctx, task); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user": user.ID, "task": task.ID}).Info("task completed")
	s.notifier.TaskRemoved(ctx, *user, task.ID)
	return task, nil
}

// DuplicateOccurrence stores an independent, non-repeating copy of occ.
func (s *TaskService) DuplicateOccurrence(ctx context.Context, user *model.User, occ model.Task) (*model.Task, error) {
	return s.CreateTask(ctx, user, TaskInput{
		Title:      occ.Title,
		Icon:       occ.Icon,
		Color:      occ.Color,
		Start:      occ.StartTime,
		Duration:   occ.Duration,
		Category:   occ.Kind(),
		Recurrence: model.RecurrenceNone,
	})
}

// DeleteOccurrence removes one occurrence from the calendar. Generated
// occurrences leave a cancellation tombstone so that the series does not
// bring them back; anything else is deleted together with its children.
func (s *TaskService) DeleteOccurrence(ctx context.Context, user *model.User, occ model.Task) error {
	if !occ.IsGeneratedFromRepeat || occ.ParentTaskID == nil {
		return s.DeleteTask(ctx, user, occ.ID)
	}

	if !occ.Virtual {
		if err := s.taskRepo.Delete(ctx, user.ID, occ.ID); err != nil {
			return err
		}
	}

	tomb := model.Task{
		ID:                    uuid.New().String(),
		UserID:                user.ID,
		ParentTaskID:          occ.ParentTaskID,
		Title:                 occ.Title,
		Icon:                  occ.Icon,
		Color:                 occ.Color,
		StartTime:             occ.StartTime,
		Duration:              occ.Duration,
		Category:              occ.Category,
		Status:                model.StatusCancelled,
		Recurrence:            model.RecurrenceNone,
		IsGeneratedFromRepeat: true,
	}
	if err := s.taskRepo.Create(ctx, &tomb); err != nil {
		return fmt.Errorf("cancel occurrence: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user": user.ID, "task": occ.ID, "parent": *occ.ParentTaskID}).Info("occurrence cancelled")
	s.notifier.TaskRemoved(ctx, *user, occ.ID)
	return nil
}

// DeleteTask removes a task and every occurrence derived from it.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID string) error {
	removed, err := s.taskRepo.DeleteTree(ctx, user.ID, taskID)
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user": user.ID, "task": taskID, "removed": len(removed)}).Info("task deleted")
	for _, id := range removed {
		s.notifier.TaskRemoved(ctx, *user, id)
	}
	return nil
}

// DeleteFutureInstances drops stored children of the template that start at
// or after from. Earlier children and the template itself are kept.
func (s *TaskService) DeleteFutureInstances(ctx context.Context, user *model.User, templateID string, from time.Time) (int, error) {
	removed, err := s.taskRepo.DeleteChildrenFrom(ctx, user.ID, templateID, from)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"user": user.ID, "task": templateID, "removed": len(removed)}).Info("future instances deleted")
	for _, id := range removed {
		s.notifier.TaskRemoved(ctx, *user, id)
	}
	return len(removed), nil
}
