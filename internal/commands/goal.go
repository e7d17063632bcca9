package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/id"
	"github.com/projectie-app/projectie/internal/model"
)

func newGoalCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals on the selected account",
	}
	cmd.AddCommand(newGoalAddCommand(g), newGoalListCommand(g), newGoalDeleteCommand(g))
	return cmd
}

func newGoalAddCommand(g *globals) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "add <title> --target <balance>",
		Short: "Add a goal balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(target)
			if err != nil {
				return fmt.Errorf("invalid target %q: %w", target, err)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, g, true)
			if err != nil {
				return err
			}
			defer a.close()

			goal, err := a.svc.AddGoal(ctx, args[0], value)
			if err != nil {
				return err
			}
			a.commit(ctx, "goal add: "+goal.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s (%s)\n", goal.Title, id.Short(goal.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "balance to reach")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGoalListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with progress and the projected date each is reached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, true)
			if err != nil {
				return err
			}
			defer a.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTARGET\tPROGRESS\tREACHED")
			for _, gs := range a.svc.Goals(cmd.Context()) {
				reached := "never"
				if gs.Reachable {
					reached = a.formatDate(gs.Date)
				}
				pct := gs.Progress.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id.Short(gs.Goal.ID), gs.Goal.Title, gs.Goal.Target.StringFixed(2), pct, reached)
			}
			return w.Flush()
		},
	}
}

func newGoalDeleteCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id-or-title>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, g, false)
			if err != nil {
				return err
			}
			defer a.close()

			goals := make([]model.Goal, 0)
			for _, gs := range a.svc.Goals(ctx) {
				goals = append(goals, gs.Goal)
			}
			goal, err := matchGoal(args[0], goals)
			if err != nil {
				return err
			}
			if err := a.svc.DeleteGoal(ctx, goal.ID); err != nil {
				return err
			}
			a.commit(ctx, "goal delete: "+goal.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted goal %s\n", goal.Title)
			return nil
		},
	}
}
