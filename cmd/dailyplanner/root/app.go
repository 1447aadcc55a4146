package root

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"focus-planner/internal/config"
	"focus-planner/internal/logging"
	"focus-planner/internal/model"
	"focus-planner/internal/repository"
	"focus-planner/internal/service"
)

// app holds the wired storage and services shared by the commands.
type app struct {
	users      *repository.UserRepository
	tasks      *service.TaskService
	timeline   *service.TimelineService
	breaks     *service.BreakService
	reminder   *service.ReminderService
	categories *service.CategoryService
}

func newLogger(cfg config.Config) *logrus.Logger {
	return logging.New(cfg.LogLevel, os.Stderr)
}

func openApp(cfg config.Config, log *logrus.Logger, notifier service.Notifier) (*app, func(), error) {
	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	taskRepo := repository.NewTaskRepository(db)
	a := &app{
		users:      repository.NewUserRepository(db),
		tasks:      service.NewTaskService(taskRepo, notifier, log),
		timeline:   service.NewTimelineService(taskRepo, cfg.Location, log),
		categories: service.NewCategoryService(repository.NewCategoryRepository(db)),
	}
	a.breaks = service.NewBreakService(a.timeline, a.tasks, log)
	a.reminder = service.NewReminderService(a.timeline, a.breaks)
	return a, cleanup, nil
}

// resolveUser finds the user by Telegram id. With id 0 the only known user is
// picked, so single-user installs need no flag.
func (a *app) resolveUser(ctx context.Context, telegramID int64) (*model.User, error) {
	if telegramID != 0 {
		user, err := a.users.FindByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, fmt.Errorf("telegram user %d: %w", telegramID, err)
		}
		return user, nil
	}
	users, err := a.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, errors.New("no users yet: start the bot and send /start first")
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("%d users found: pass --user <telegram id>", len(users))
	}
}

// parseDay reads YYYY-MM-DD in loc; empty means today.
func parseDay(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.In(loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must look like 2024-01-16: %w", err)
	}
	return day, nil
}
