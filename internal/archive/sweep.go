// Package archive moves past occurrences of recurring transactions out of
// their parent and into standalone archived transactions.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/projectie-app/projectie/internal/activitylog"
	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/id"
	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/store"
)

// Result summarizes one sweep.
type Result struct {
	Accounts int
	Scanned  int
	Archived int
	Skipped  int
	Deleted  int
	Failed   int
	// Err is set on results delivered by Start when the sweep stopped early.
	Err error
}

// Sweeper archives occurrences dated before the start of today.
type Sweeper struct {
	store    store.Store
	cal      calendar.Calendar
	clock    calendar.Clock
	log      zerolog.Logger
	activity *activitylog.Log
}

// NewSweeper creates a Sweeper. activity may be nil.
func NewSweeper(st store.Store, cal calendar.Calendar, clock calendar.Clock, log zerolog.Logger, activity *activitylog.Log) *Sweeper {
	return &Sweeper{
		store:    st,
		cal:      cal,
		clock:    clock,
		log:      log.With().Str("component", "archive").Logger(),
		activity: activity,
	}
}

// Start runs the sweep in a goroutine. The channel receives one Result and
// is then closed.
func (s *Sweeper) Start(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		res, err := s.Run(ctx)
		res.Err = err
		out <- res
	}()
	return out
}

// Run sweeps every account once. Failures on individual transactions are
// logged and counted; only listing accounts or cancellation stop the sweep.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var res Result
	cutoff := s.cal.StartOfDay(s.clock.Now())

	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return res, fmt.Errorf("listing accounts: %w", err)
	}

	for _, a := range accounts {
		res.Accounts++
		txns, err := s.store.Transactions(ctx, a.ID)
		if err != nil {
			s.log.Error().Err(err).Str("account", a.ID).Msg("listing transactions")
			res.Failed++
			continue
		}
		for _, t := range txns {
			if !t.IsRecurring || t.Archived {
				continue
			}
			res.Scanned++
			due := Due(t.RecurrenceDates, cutoff)
			if len(due) == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return res, err
			}
			s.sweepOne(ctx, t.ID, due, &res)
		}
	}

	s.log.Info().
		Int("accounts", res.Accounts).
		Int("archived", res.Archived).
		Int("skipped", res.Skipped).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Msg("archive sweep finished")
	return res, nil
}

// Due returns the dates strictly before cutoff.
func Due(dates []time.Time, cutoff time.Time) []time.Time {
	var due []time.Time
	for _, d := range dates {
		if d.Before(cutoff) {
			due = append(due, d)
		}
	}
	return due
}

// Occurrence builds the standalone archived record for parent on date.
func Occurrence(parent model.Transaction, date time.Time) model.Transaction {
	return model.Transaction{
		ID:        id.Occurrence(parent.ID, date),
		AccountID: parent.AccountID,
		Title:     parent.Title,
		Amount:    parent.Amount,
		Date:      date,
		Note:      parent.Note,
		Category:  parent.Category,
		Archived:  true,
		ParentID:  parent.ID,
	}
}

func (s *Sweeper) sweepOne(ctx context.Context, txnID string, due []time.Time, res *Result) {
	var (
		archived, skipped int
		deleted           bool
		entries           []activitylog.Entry
	)
	now := s.clock.Now()

	err := s.store.UpdateTransaction(ctx, txnID, func(t *model.Transaction) (store.Update, error) {
		archived, skipped, deleted, entries = 0, 0, false, nil
		var upd store.Update
		for _, d := range due {
			if !t.RemoveDate(d) {
				s.log.Warn().Str("transaction", txnID).Time("date", d).Msg("occurrence date no longer on record, skipped")
				skipped++
				entries = append(entries, activitylog.Entry{
					Timestamp: now, Action: activitylog.ActionSkipMissing, TransactionID: txnID, Occurrence: d,
				})
				continue
			}
			occ := Occurrence(*t, d)
			upd.Insert = append(upd.Insert, occ)
			archived++
			entries = append(entries, activitylog.Entry{
				Timestamp: now, Action: activitylog.ActionArchive, TransactionID: txnID, Occurrence: d, ArchivedID: occ.ID,
			})
		}
		if t.Exhausted() {
			upd.Delete = true
			deleted = true
			entries = append(entries, activitylog.Entry{
				Timestamp: now, Action: activitylog.ActionDeleteParent, TransactionID: txnID,
			})
		}
		return upd, nil
	})
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn().Str("transaction", txnID).Msg("transaction removed before archiving")
		res.Skipped += len(due)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("transaction", txnID).Msg("archiving occurrences")
		res.Failed++
		return
	}

	res.Archived += archived
	res.Skipped += skipped
	if deleted {
		res.Deleted++
	}
	s.log.Debug().Str("transaction", txnID).Int("archived", archived).Bool("parent_deleted", deleted).Msg("archived occurrences")

	if s.activity != nil {
		if err := s.activity.Append(entries...); err != nil {
			s.log.Warn().Err(err).Msg("writing activity log")
		}
	}
}
