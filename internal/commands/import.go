package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/importer"
)

func newImportCommand(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank CSV export into the selected account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, g, true)
			if err != nil {
				return err
			}
			defer a.close()

			registry := importer.DefaultRegistry(a.loc)
			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (known: %s)", format, strings.Join(registry.Formats(), ", "))
			}
			txns, err := importer.ParseFile(parser, args[0])
			if err != nil {
				return err
			}
			n, err := a.svc.ImportTransactions(ctx, txns)
			if err != nil {
				return err
			}
			a.commit(ctx, fmt.Sprintf("import: %s (%d transactions)", filepath.Base(args[0]), n))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d transactions from %s\n", n, len(txns), filepath.Base(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "chase", "bank export format")
	return cmd
}
