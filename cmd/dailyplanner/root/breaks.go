package root

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"focus-planner/internal/config"
	"focus-planner/internal/service"
	"focus-planner/internal/ui"
)

func newBreaksCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "breaks",
		Short: "Suggest breaks for the next few hours",
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

			out := cmd.OutOrStdout()
			now := time.Now().In(a.timeline.Location(user))
			suggestions := a.breaks.Suggestions(ctx, user, now)
			fmt.Fprintln(out, ui.Heading(ui.IconBreak, "Break suggestions"))
			if len(suggestions) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("no breaks worth taking right now"))
				return nil
			}
			for _, sg := range suggestions {
				fmt.Fprintln(out, ui.SuggestionLine(sg))
				if sg.Reason != "" {
					fmt.Fprintln(out, "   "+ui.Muted.Render(sg.Reason))
				}
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "Telegram user id (optional with a single user)")
	return cmd
}
