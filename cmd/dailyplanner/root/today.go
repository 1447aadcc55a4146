package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"focus-planner/internal/config"
	"focus-planner/internal/service"
	"focus-planner/internal/ui"
	"focus-planner/internal/widget"
)

func newTodayCmd() *cobra.Command {
	var userID int64
	var date string

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the resolved schedule of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, cleanup, err := openApp(cfg, newLogger(cfg), service.NopNotifier{})
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := a.resolveUser(ctx, userID)
			if err != nil {
				return err
			}
			loc := a.timeline.Location(user)
			now := time.Now().In(loc)
			day, err := parseDay(date, loc, now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			snap := widget.Build(a.timeline.Day(ctx, user, day), now)
			fmt.Fprintln(out, ui.Heading(ui.IconDay, "Schedule for "+day.Format("Mon 02 Jan 2006")))
			if snap.Total == 0 {
				fmt.Fprintln(out, ui.Muted.Render("nothing planned"))
				return nil
			}
			for _, e := range snap.Entries {
				fmt.Fprintln(out, ui.EntryLine(e))
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.LabelValue("Done", fmt.Sprintf("%d/%d (%d%%)", snap.Completed, snap.Total, snap.Progress)))
			if snap.Current != nil {
				fmt.Fprintln(out, ui.LabelValue("Now", snap.Current.Title))
			}
			if snap.Next != nil {
				fmt.Fprintln(out, ui.LabelValue("Next", snap.Next.Start.Format("15:04")+" "+snap.Next.Title))
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "Telegram user id (optional with a single user)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Day to show (YYYY-MM-DD, default today)")
	return cmd
}
