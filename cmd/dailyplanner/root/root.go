package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"focus-planner/internal/ui"
)

const Version = "0.2.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dailyplanner",
		Short:         "Daily planner: recurring tasks and break suggestions",
		Long:          "Daily planner runs the Telegram bot and offers a few local commands to inspect and import schedules.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.AddCommand(
		newBotCmd(),
		newTodayCmd(),
		newBreaksCmd(),
		newImportCmd(),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
