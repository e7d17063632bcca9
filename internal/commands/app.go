package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/projectie-app/projectie/internal/activitylog"
	"github.com/projectie-app/projectie/internal/archive"
	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/config"
	"github.com/projectie-app/projectie/internal/gitops"
	"github.com/projectie-app/projectie/internal/logger"
	"github.com/projectie-app/projectie/internal/store"
	"github.com/projectie-app/projectie/internal/store/boltstore"
	"github.com/projectie-app/projectie/internal/store/csvstore"
	"github.com/projectie-app/projectie/internal/tracker"
)

// logDir holds the activity log, relative to the project root.
const logDir = "logs"

// app is everything a command needs once the project is loaded.
type app struct {
	root  string
	cfg   *config.Config
	log   zerolog.Logger
	loc   *time.Location
	cal   calendar.Calendar
	clock calendar.Clock
	store store.Store
	svc   *tracker.Service
	sweep <-chan archive.Result
}

// openApp loads the project at root and wires the store and services.
func openApp(ctx context.Context, g *globals, withSweep bool) (*app, error) {
	root, err := filepath.Abs(g.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no %s in %s; run \"projectie init\" first", config.FileName, root)
	}
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	if !g.verbose {
		log = log.Level(logger.ParseLevel(cfg.LogLevel))
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	opening, err := cfg.Opening()
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg, root)
	if err != nil {
		return nil, err
	}

	cal := calendar.New(loc)
	a := &app{
		root:  root,
		cfg:   cfg,
		log:   log,
		loc:   loc,
		cal:   cal,
		clock: g.clock,
		store: st,
		svc: tracker.NewService(st, cal, g.clock, log, tracker.Options{
			Opening:        opening,
			MaxOccurrences: cfg.Recurrence.MaxOccurrences,
		}),
	}

	if cfg.SelectedAccount != "" {
		if err := a.svc.Select(ctx, cfg.SelectedAccount); err != nil {
			log.Warn().Err(err).Str("account", cfg.SelectedAccount).Msg("selected account not found")
		}
	}

	if withSweep && cfg.Archive.OnStart {
		a.sweep = a.sweeper().Start(ctx)
	}
	return a, nil
}

func openStore(cfg *config.Config, root string) (store.Store, error) {
	dir := cfg.DataPath(root)
	switch cfg.Store {
	case config.StoreBolt:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		st, err := boltstore.Open(filepath.Join(dir, boltstore.FileName))
		if err != nil {
			return nil, fmt.Errorf("opening bolt store: %w", err)
		}
		return st, nil
	default:
		st, err := csvstore.Open(dir)
		if err != nil {
			return nil, fmt.Errorf("opening csv store: %w", err)
		}
		return st, nil
	}
}

func (a *app) sweeper() *archive.Sweeper {
	return archive.NewSweeper(a.store, a.cal, a.clock, a.log, activitylog.New(filepath.Join(a.root, logDir)))
}

// settle waits for the background sweep, if one is running.
func (a *app) settle() {
	if a.sweep == nil {
		return
	}
	if res := <-a.sweep; res.Err != nil {
		a.log.Warn().Err(res.Err).Msg("background archive sweep")
	}
	a.sweep = nil
}

// close waits for a background sweep and closes the store.
func (a *app) close() {
	a.settle()
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing store")
	}
}

// commit records data changes in git when auto_commit is on. Failures are
// logged; the change itself is already stored.
func (a *app) commit(ctx context.Context, message string) {
	if !a.cfg.Git.AutoCommit {
		return
	}
	if !gitops.Available() || !gitops.IsRepo(a.root) {
		a.log.Warn().Msg("auto_commit is on but the project is not a git repository")
		return
	}
	// Wait for the background sweep so its writes land in this commit.
	a.settle()
	repo := gitops.Open(a.root, gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail})
	hash, err := repo.Commit(ctx, message, a.trackedPaths()...)
	if err != nil {
		a.log.Warn().Err(err).Msg("committing data")
		return
	}
	if hash != "" {
		a.log.Debug().Str("commit", hash).Msg("committed data")
	}
}

// trackedPaths are the project paths auto_commit stages. Paths outside the
// project or not yet created are left out, since git add rejects them.
func (a *app) trackedPaths() []string {
	var paths []string
	for _, p := range []string{a.cfg.DataDir, logDir, config.FileName} {
		if filepath.IsAbs(p) {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.root, p)); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

// saveSelection persists the selected account in the config file.
func (a *app) saveSelection(accountID string) error {
	return config.Update(filepath.Join(a.root, config.FileName), func(c *config.Config) {
		c.SelectedAccount = accountID
	})
}

// parseDate reads a YYYY-MM-DD date as midnight in the project's zone.
func (a *app) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// today returns the start of the current day.
func (a *app) today() time.Time {
	return a.cal.StartOfDay(a.clock.Now())
}

// dateOr parses s, or returns today when s is empty.
func (a *app) dateOr(s string) (time.Time, error) {
	if s == "" {
		return a.today(), nil
	}
	return a.parseDate(s)
}
