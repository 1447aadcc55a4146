package service

import (
	"context"

	"focus-planner/internal/model"
)

// Notifier is told about schedule changes so it can (re)arm or drop reminders.
type Notifier interface {
	TaskScheduled(ctx context.Context, user model.User, task model.Task)
	TaskRemoved(ctx context.Context, user model.User, taskID string)
}

// NopNotifier ignores every event.
type NopNotifier struct{}

func (NopNotifier) TaskScheduled(context.Context, model.User, model.Task) {}
func (NopNotifier) TaskRemoved(context.Context, model.User, string)       {}
