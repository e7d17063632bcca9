package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/id"
	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/tracker"
)

func newAccountCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountAddCommand(g), newAccountListCommand(g), newAccountUseCommand(g))
	return cmd
}

func newAccountAddCommand(g *globals) *cobra.Command {
	var (
		acctType     string
		number       string
		initial      string
		interestRate string
		interestFreq string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account; the first account is selected automatically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, g, false)
			if err != nil {
				return err
			}
			defer a.close()

			params := tracker.AccountParams{
				Name:              args[0],
				Type:              model.AccountType(acctType),
				Number:            number,
				InterestFrequency: model.Frequency(interestFreq),
			}
			if interestRate != "" {
				rate, err := decimal.NewFromString(interestRate)
				if err != nil {
					return fmt.Errorf("invalid interest rate %q: %w", interestRate, err)
				}
				params.HasInterest = true
				params.InterestRate = rate
			}
			if initial != "" {
				bal, err := decimal.NewFromString(initial)
				if err != nil {
					return fmt.Errorf("invalid initial balance %q: %w", initial, err)
				}
				params.InitialBalance = &bal
			}

			acct, err := a.svc.CreateAccount(ctx, params)
			if err != nil {
				return err
			}
			if a.svc.Selected() == "" {
				if err := a.svc.Select(ctx, acct.ID); err != nil {
					return err
				}
				if err := a.saveSelection(acct.ID); err != nil {
					return err
				}
			}

			a.commit(ctx, "account add: "+acct.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (%s)\n", acct.Name, id.Short(acct.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&acctType, "type", string(model.AccountTypeSpending), "account type: saving or spending")
	cmd.Flags().StringVar(&number, "number", "", "bank account number")
	cmd.Flags().StringVar(&initial, "initial", "", "balance at the start of today")
	cmd.Flags().StringVar(&interestRate, "interest-rate", "", "annual interest rate, e.g. 0.045")
	cmd.Flags().StringVar(&interestFreq, "interest-frequency", "", "interest payment frequency")

	return cmd
}

func newAccountListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts; the selected one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), g, false)
			if err != nil {
				return err
			}
			defer a.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tNAME\tTYPE\tNUMBER")
			for _, acct := range a.svc.Accounts(cmd.Context()) {
				mark := ""
				if acct.ID == a.svc.Selected() {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, id.Short(acct.ID), acct.Name, acct.Type, acct.Number)
			}
			return w.Flush()
		},
	}
}

func newAccountUseCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id-or-name>",
		Short: "Select the account other commands act on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, g, false)
			if err != nil {
				return err
			}
			defer a.close()

			acct, err := matchAccount(args[0], a.svc.Accounts(ctx))
			if err != nil {
				return err
			}
			if err := a.svc.Select(ctx, acct.ID); err != nil {
				return err
			}
			if err := a.saveSelection(acct.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected %s (%s)\n", acct.Name, id.Short(acct.ID))
			return nil
		},
	}
}
