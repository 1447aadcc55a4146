package root

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focus-planner/internal/bot"
	"focus-planner/internal/config"
	"focus-planner/internal/service"
)

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot with daily reports, reminders and break nudges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireToken(); err != nil {
				return err
			}

			log := newLogger(cfg)
			reminders := bot.NewReminders(log)
			a, cleanup, err := openApp(cfg, log, reminders)
			if err != nil {
				return err
			}
			defer cleanup()

			telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
				Users:      a.users,
				Categories: a.categories,
				Tasks:      a.tasks,
				Timeline:   a.timeline,
				Breaks:     a.breaks,
				Reminder:   a.reminder,
				Reminders:  reminders,
			}, &cfg, log)
			if err != nil {
				return err
			}

			job := func(name string, run func(context.Context) error) func() {
				return func() {
					jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
					defer cancel()
					if err := run(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
						log.WithField("job", name).WithError(err).Warn("scheduled job failed")
					}
				}
			}

			scheduler := service.NewSchedulerService(cfg.Location, log)
			if _, err := scheduler.ScheduleDaily(cfg.ReportTime, job("daily report", telegramBot.SendDailyReports)); err != nil {
				return fmt.Errorf("schedule reports: %w", err)
			}
			if _, err := scheduler.ScheduleInterval(time.Minute, job("reminders", telegramBot.SendReminders)); err != nil {
				return fmt.Errorf("schedule reminders: %w", err)
			}
			if _, err := scheduler.ScheduleInterval(cfg.BreakCheckInterval, job("break nudges", telegramBot.SendBreakNudges)); err != nil {
				return fmt.Errorf("schedule break nudges: %w", err)
			}
			scheduler.Start()
			defer scheduler.Stop()

			log.Info("daily planner bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot stopped: %w", err)
			}
			log.Info("shutdown complete")
			return nil
		},
	}
}
