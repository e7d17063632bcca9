package commands

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/id"
	"github.com/projectie-app/projectie/internal/model"
)

func newResetCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Record known balances on the selected account",
	}
	cmd.AddCommand(newResetAddCommand(g), newResetListCommand(g))
	return cmd
}

func newResetAddCommand(g *globals) *cobra.Command {
	var balance, date string

	cmd := &cobra.Command{
		Use:     "add --balance <balance>",
		Short:   "Set the balance as of a date; earlier history no longer counts",
		Example: "  projectie reset add --balance -20 --date 2025-01-16",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bal, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", balance, err)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, g, true)
			if err != nil {
				return err
			}
			defer a.close()

			at, err := a.dateOr(date)
			if err != nil {
				return err
			}

			r, err := a.svc.AddReset(ctx, at, bal)
			if err != nil {
				return err
			}
			a.commit(ctx, "reset add: "+a.formatDate(r.Date))
			fmt.Fprintf(cmd.OutOrStdout(), "Balance set to %s on %s (%s)\n", r.Balance.StringFixed(2), a.formatDate(r.Date), id.Short(r.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&balance, "balance", "", "known balance; negative for an overdraft")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD), default today")
	_ = cmd.MarkFlagRequired("balance")
	return cmd
}

func newResetListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List balance resets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.close()

			resets := a.svc.Resets(cmd.Context())
			slices.SortFunc(resets, func(x, y model.BalanceReset) int { return x.Date.Compare(y.Date) })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tBALANCE\t")
			for _, r := range resets {
				initial := ""
				if r.IsInitial {
					initial = "initial"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id.Short(r.ID), a.formatDate(r.Date), r.Balance.StringFixed(2), initial)
			}
			return w.Flush()
		},
	}
}
