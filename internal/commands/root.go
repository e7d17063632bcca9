package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/buildinfo"
	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/logger"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	dir     string
	verbose bool
	clock   calendar.Clock
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(calendar.SystemClock{})
}

func newRootCommand(clock calendar.Clock) *cobra.Command {
	g := &globals{clock: clock}

	rootCmd := &cobra.Command{
		Use:     "projectie",
		Short:   "Project account balances from recurring transactions",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logger.ParseLevel(os.Getenv("PROJECTIE_LOG_LEVEL"))
			if g.verbose {
				level = zerolog.DebugLevel
			}
			log := logger.NewConsole(cmd.ErrOrStderr(), level)
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		newInitCommand(g),
		newAccountCommand(g),
		newTxCommand(g),
		newResetCommand(g),
		newGoalCommand(g),
		newBalanceCommand(g),
		newChartCommand(g),
		newPeriodsCommand(g),
		newArchiveCommand(g),
		newImportCommand(g),
	)

	return rootCmd
}
