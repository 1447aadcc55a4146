package root

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"focus-planner/internal/config"
	"focus-planner/internal/importer"
	"focus-planner/internal/service"
	"focus-planner/internal/ui"
)

func newImportCmd() *cobra.Command {
	var userID int64
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import task templates from a YAML file",
		Args:  cobra.ExactArgs(1),
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

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			inputs, err := importer.Decode(f, a.timeline.Location(user))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			for _, in := range inputs {
				if dryRun {
					fmt.Fprintf(out, "%s %s %s\n", ui.Muted.Render("would add"), in.Start.Format("2006-01-02 15:04"), in.Title)
					continue
				}
				task, err := a.tasks.CreateTask(ctx, user, in)
				if err != nil {
					return fmt.Errorf("create %q: %w", in.Title, err)
				}
				fmt.Fprintf(out, "%s %s %s\n", ui.Good.Render("added"), task.StartTime.In(a.timeline.Location(user)).Format("2006-01-02 15:04"), task.Title)
			}
			fmt.Fprintln(out, ui.LabelValue("Tasks", len(inputs)))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "Telegram user id (optional with a single user)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse the file without saving")
	return cmd
}
