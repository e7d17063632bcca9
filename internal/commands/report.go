package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/event"
	"github.com/projectie-app/projectie/internal/period"
	"github.com/projectie-app/projectie/internal/tracker"
)

// windowFlags select a period kind and, for custom, its bounds.
type windowFlags struct {
	kind string
	from string
	to   string
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "period", string(period.Month), "week, fortnight, month, year or custom")
	cmd.Flags().StringVar(&f.from, "from", "", "custom window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "custom window end, inclusive (YYYY-MM-DD)")
}

func (f *windowFlags) resolve(a *app) (period.Kind, *period.Window, error) {
	kind, err := period.ParseKind(f.kind)
	if err != nil {
		return "", nil, err
	}
	if kind != period.Custom {
		return kind, nil, nil
	}
	if f.from == "" || f.to == "" {
		return "", nil, period.ErrMissingCustom
	}
	start, err := a.parseDate(f.from)
	if err != nil {
		return "", nil, err
	}
	end, err := a.parseDate(f.to)
	if err != nil {
		return "", nil, err
	}
	return kind, &period.Window{Start: start, End: end}, nil
}

func newBalanceCommand(g *globals) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the projected balance of the selected account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, true)
			if err != nil {
				return err
			}
			defer a.close()

			when := a.clock.Now()
			if at != "" {
				day, err := a.parseDate(at)
				if err != nil {
					return err
				}
				// End of the given day, so its own events count.
				next, err := a.cal.Add(day, calendar.Day, 1)
				if err != nil {
					return err
				}
				when = next.Add(-time.Nanosecond)
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.svc.Balance(cmd.Context(), when).StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "date (YYYY-MM-DD), default now")
	return cmd
}

func newChartCommand(g *globals) *cobra.Command {
	var (
		wf     windowFlags
		offset int
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the end-of-day balance for each day of a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, true)
			if err != nil {
				return err
			}
			defer a.close()

			kind, custom, err := wf.resolve(a)
			if err != nil {
				return err
			}
			chart, err := a.svc.Chart(cmd.Context(), kind, offset, custom)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", kind, chart.Window)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			for _, p := range chart.Points {
				fmt.Fprintf(w, "%s\t%s\t\n", a.formatDate(p.Date), p.Balance.StringFixed(2))
			}
			return w.Flush()
		},
	}

	wf.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "periods before (negative) or after the current one")
	return cmd
}

func newPeriodsCommand(g *globals) *cobra.Command {
	var wf windowFlags

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List occurrences by day for the two periods either side of the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, true)
			if err != nil {
				return err
			}
			defer a.close()

			kind, custom, err := wf.resolve(a)
			if err != nil {
				return err
			}
			slices, err := a.svc.PeriodSlices(cmd.Context(), kind, custom)
			if err != nil {
				return err
			}
			for _, s := range slices {
				a.printSlice(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	wf.register(cmd)
	return cmd
}

func (a *app) printSlice(out io.Writer, s tracker.Slice) {
	fmt.Fprintf(out, "== %s (%+d)  in %s  out %s  closing %s\n",
		s.Window, s.Offset, s.Credits.StringFixed(2), s.Debits.StringFixed(2), s.Closing.StringFixed(2))
	for _, day := range s.Days {
		fmt.Fprintf(out, "%s\n", a.formatDate(day.Date))
		for _, o := range day.Occurrences {
			fmt.Fprintf(out, "  %s\n", describe(o))
		}
	}
}

func describe(o event.Occurrence) string {
	if bal, ok := o.Balance(); ok {
		return fmt.Sprintf("balance set to %s", bal.StringFixed(2))
	}
	amt, _ := o.Amount()
	return fmt.Sprintf("%-24s %12s", o.Title(), amt.StringFixed(2))
}
