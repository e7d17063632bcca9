package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/projectie-app/projectie/internal/config"
	"github.com/projectie-app/projectie/internal/gitops"
)

type initOptions struct {
	store    string
	timezone string
	opening  string
	git      bool
}

func newInitCommand(g *globals) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new Projectie project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := g.dir
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.store, "store", config.StoreCSV, "storage backend: csv or bolt")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "Local", "IANA time zone for dates")
	cmd.Flags().StringVar(&opts.opening, "opening", "0", "balance assumed before the first reset")
	cmd.Flags().BoolVar(&opts.git, "git", false, "version the data directory with git")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	cfg.Store = opts.store
	cfg.Timezone = opts.timezone
	cfg.OpeningBalance = opts.opening
	cfg.Git.AutoCommit = opts.git
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, d := range []string{cfg.DataPath(dir), filepath.Join(dir, logDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if !opts.git {
		fmt.Fprintf(out, "Initialized Projectie project at %s\n", dir)
		return nil
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".env\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	repo := gitops.Open(dir, gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
	if err := repo.Init(ctx); err != nil {
		return err
	}
	hash, err := repo.Commit(ctx, "init: projectie project")
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized Projectie project at %s (%s)\n", dir, hash)
	return nil
}
