package commands

import (
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/id"
	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/tracker"
)

func newTxCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions on the selected account",
	}
	cmd.AddCommand(newTxAddCommand(g), newTxListCommand(g), newTxDeleteCommand(g))
	return cmd
}

func newTxAddCommand(g *globals) *cobra.Command {
	var (
		amount   string
		date     string
		category string
		note     string
		every    string
		interval int
		until    string
		count    int
	)

	cmd := &cobra.Command{
		Use:     "add <title> --amount <amount>",
		Short:   "Add a transaction; negative amounts are debits",
		Example: "  projectie tx add Coffee --amount -3.50\n  projectie tx add Salary --amount 2500 --every monthly --count 12",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if every == "" {
				for _, name := range []string{"interval", "until", "count"} {
					if cmd.Flags().Changed(name) {
						return fmt.Errorf("--%s needs --every", name)
					}
				}
			}
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, g, true)
			if err != nil {
				return err
			}
			defer a.close()

			start, err := a.dateOr(date)
			if err != nil {
				return err
			}
			params := tracker.TransactionParams{
				Title:    args[0],
				Amount:   value,
				Date:     start,
				Note:     note,
				Category: category,
			}
			if every != "" {
				params.IsRecurring = true
				params.Frequency = model.Frequency(every)
				params.Interval = interval
				params.MaxCount = count
				if until != "" {
					end, err := a.parseDate(until)
					if err != nil {
						return err
					}
					params.EndDate = end
				}
			}

			txn, err := a.svc.AddTransaction(ctx, params)
			if err != nil {
				return err
			}
			a.commit(ctx, "tx add: "+txn.Title)

			out := cmd.OutOrStdout()
			if txn.IsRecurring {
				dates := txn.RecurrenceDates
				fmt.Fprintf(out, "Added %s (%s): %d occurrences %s..%s\n", txn.Title, id.Short(txn.ID),
					len(dates), a.formatDate(dates[0]), a.formatDate(dates[len(dates)-1]))
				return nil
			}
			fmt.Fprintf(out, "Added %s (%s) on %s\n", txn.Title, id.Short(txn.ID), a.formatDate(txn.Date))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "signed amount; negative for a debit")
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&category, "category", "", "category key, default other")
	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	cmd.Flags().StringVar(&every, "every", "", "recur daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&interval, "interval", 1, "recur every N periods")
	cmd.Flags().StringVar(&until, "until", "", "last possible occurrence date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&count, "count", 0, "maximum number of occurrences")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newTxListCommand(g *globals) *cobra.Command {
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions on the selected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, true)
			if err != nil {
				return err
			}
			defer a.close()
			a.settle()

			txns := slices.DeleteFunc(a.svc.Transactions(cmd.Context()), func(t model.Transaction) bool {
				return t.Archived && !archived
			})
			slices.SortFunc(txns, func(x, y model.Transaction) int { return x.Date.Compare(y.Date) })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tTITLE\tAMOUNT\tCATEGORY\tSCHEDULE")
			for _, t := range txns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					id.Short(t.ID), a.formatDate(t.Date), t.Title, t.Amount.StringFixed(2), t.Category, a.schedule(t))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "include archived occurrences")
	return cmd
}

func newTxDeleteCommand(g *globals) *cobra.Command {
	var occurrence, from string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction, one occurrence, or an occurrence and all after it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if occurrence != "" && from != "" {
				return errors.New("--occurrence and --from are mutually exclusive")
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, g, true)
			if err != nil {
				return err
			}
			defer a.close()
			a.settle()

			txn, err := matchTransaction(args[0], a.svc.Transactions(ctx))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case occurrence != "":
				d, err := a.parseDate(occurrence)
				if err != nil {
					return err
				}
				if err := a.svc.DeleteOccurrence(ctx, txn.ID, d); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s on %s\n", txn.Title, a.formatDate(d))
			case from != "":
				d, err := a.parseDate(from)
				if err != nil {
					return err
				}
				if err := a.svc.DeleteFuture(ctx, txn.ID, d); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s from %s on\n", txn.Title, a.formatDate(d))
			default:
				if err := a.svc.DeleteTransaction(ctx, txn.ID); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s\n", txn.Title)
			}
			a.commit(ctx, "tx delete: "+txn.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&occurrence, "occurrence", "", "delete only the occurrence on this date")
	cmd.Flags().StringVar(&from, "from", "", "delete the occurrence on this date and all later ones")
	return cmd
}

func (a *app) formatDate(t time.Time) string {
	return t.In(a.loc).Format(time.DateOnly)
}

// schedule describes how a transaction repeats.
func (a *app) schedule(t model.Transaction) string {
	switch {
	case t.Archived:
		return "archived"
	case !t.IsRecurring:
		return "once"
	case len(t.RecurrenceDates) == 0:
		return string(t.Frequency)
	}
	every := string(t.Frequency)
	if t.Interval > 1 {
		every = fmt.Sprintf("every %d %s", t.Interval, t.Frequency)
	}
	last := t.RecurrenceDates[len(t.RecurrenceDates)-1]
	return fmt.Sprintf("%s, %d left until %s", every, len(t.RecurrenceDates), a.formatDate(last))
}
