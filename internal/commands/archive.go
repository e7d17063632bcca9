package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newArchiveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Split past occurrences off recurring transactions",
		Long: "Moves every occurrence dated before today out of its recurring transaction\n" +
			"into a standalone archived transaction. Balances are unchanged. Runs\n" +
			"automatically in the background unless archive.on_start is false.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, g, false)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.sweeper().Run(ctx)
			if err != nil {
				return fmt.Errorf("archiving: %w", err)
			}
			if res.Archived > 0 || res.Deleted > 0 {
				a.commit(ctx, fmt.Sprintf("archive: %d occurrences", res.Archived))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d occurrences from %d recurring transactions (%d finished, %d skipped, %d failed)\n",
				res.Archived, res.Scanned, res.Deleted, res.Skipped, res.Failed)
			return nil
		},
	}
}
