package tracker

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/event"
	"github.com/projectie-app/projectie/internal/id"
	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/period"
	"github.com/projectie-app/projectie/internal/projection"
)

// Timeline loads the selected account's records into a projection
// timeline. With no selection, or when the store cannot be read, the
// timeline is empty and starts at the opening balance.
func (s *Service) Timeline(ctx context.Context) *projection.Timeline {
	acct, ok := s.selectedForQuery("timeline")
	if !ok {
		return projection.NewTimeline(nil, s.opts.Opening)
	}
	txns, err := s.store.Transactions(ctx, acct)
	if err != nil {
		s.log.Error().Err(err).Msg("loading transactions")
		return projection.NewTimeline(nil, s.opts.Opening)
	}
	resets, err := s.store.Resets(ctx, acct)
	if err != nil {
		s.log.Error().Err(err).Msg("loading resets")
		return projection.NewTimeline(nil, s.opts.Opening)
	}
	return projection.NewTimeline(event.Materialize(txns, resets), s.opts.Opening)
}

// Balance returns the selected account's balance at at.
func (s *Service) Balance(ctx context.Context, at time.Time) decimal.Decimal {
	return s.Timeline(ctx).BalanceAt(at)
}

// CurrentBalance returns the balance now.
func (s *Service) CurrentBalance(ctx context.Context) decimal.Decimal {
	return s.Balance(ctx, s.clock.Now())
}

// Chart is a sampled balance series over one window.
type Chart struct {
	Window period.Window
	Points []projection.Point
}

// Chart samples the end-of-day balance for each day of the window of kind
// shifted by offset.
func (s *Service) Chart(ctx context.Context, kind period.Kind, offset int, custom *period.Window) (Chart, error) {
	w, err := s.periods.WindowFor(kind, offset, custom)
	if err != nil {
		return Chart{}, fmt.Errorf("computing window: %w", err)
	}
	points, err := s.Timeline(ctx).Sample(s.cal, w.Start, w.End)
	if err != nil {
		return Chart{}, fmt.Errorf("sampling balance: %w", err)
	}
	return Chart{Window: w, Points: points}, nil
}

// Day groups the occurrences falling on one day.
type Day struct {
	Date        time.Time
	Occurrences []event.Occurrence
}

// Slice is one window of a period list with its occurrences grouped by day.
type Slice struct {
	Offset  int
	Window  period.Window
	Days    []Day
	Credits decimal.Decimal
	Debits  decimal.Decimal
	Closing decimal.Decimal
}

// PeriodSlices returns the windows for offsets -2..+2 around today, each
// with its occurrences grouped by day in chronological order.
func (s *Service) PeriodSlices(ctx context.Context, kind period.Kind, custom *period.Window) ([]Slice, error) {
	windows, err := s.periods.Slices(kind, custom)
	if err != nil {
		return nil, fmt.Errorf("computing windows: %w", err)
	}
	tl := s.Timeline(ctx)
	sorted := tl.Occurrences()

	out := make([]Slice, len(windows))
	for i, w := range windows {
		credits, debits := tl.Totals(w.Start, w.Until())
		out[i] = Slice{
			Offset:  period.SliceOffsets[i],
			Window:  w,
			Days:    s.groupByDay(event.InRange(sorted, w.Start, w.Until())),
			Credits: credits,
			Debits:  debits,
			Closing: tl.BalanceAt(w.Until().Add(-time.Nanosecond)),
		}
	}
	return out, nil
}

func (s *Service) groupByDay(occ []event.Occurrence) []Day {
	var days []Day
	for _, o := range occ {
		d := s.cal.StartOfDay(o.Date())
		if n := len(days); n > 0 && days[n-1].Date.Equal(d) {
			days[n-1].Occurrences = append(days[n-1].Occurrences, o)
			continue
		}
		days = append(days, Day{Date: d, Occurrences: []event.Occurrence{o}})
	}
	return days
}

// GoalStatus is a goal with its progress and forecast.
type GoalStatus struct {
	Goal     model.Goal
	Progress decimal.Decimal
	// Reachable is false when the projected balance never meets the target.
	Reachable bool
	// Date is the first instant the projected balance meets the target.
	Date time.Time
}

// AddGoal adds a savings goal to the selected account.
func (s *Service) AddGoal(ctx context.Context, title string, target decimal.Decimal) (model.Goal, error) {
	acct, err := s.requireSelected()
	if err != nil {
		return model.Goal{}, err
	}
	g := model.Goal{ID: id.New(), AccountID: acct, Title: title, Target: target, CreatedAt: s.clock.Now()}
	if err := s.check(g); err != nil {
		return model.Goal{}, err
	}
	if err := s.store.SaveGoal(ctx, g); err != nil {
		s.log.Error().Err(err).Str("goal", g.ID).Msg("saving goal")
		return model.Goal{}, fmt.Errorf("saving goal: %w", err)
	}
	return g, nil
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, goalID string) error {
	acct, err := s.requireSelected()
	if err != nil {
		return err
	}
	goals, err := s.store.Goals(ctx, acct)
	if err != nil {
		s.log.Error().Err(err).Str("goal", goalID).Msg("listing goals")
		return fmt.Errorf("listing goals: %w", err)
	}
	if !slices.ContainsFunc(goals, func(g model.Goal) bool { return g.ID == goalID }) {
		return fmt.Errorf("deleting goal: %w", notOnAccount(goalID))
	}
	if err := s.store.DeleteGoal(ctx, goalID); err != nil {
		s.log.Error().Err(err).Str("goal", goalID).Msg("deleting goal")
		return fmt.Errorf("deleting goal: %w", err)
	}
	return nil
}

// Goals returns the selected account's goals with progress measured
// against the current balance and the projected date each is reached.
func (s *Service) Goals(ctx context.Context) []GoalStatus {
	acct, ok := s.selectedForQuery("goals")
	if !ok {
		return nil
	}
	goals, err := s.store.Goals(ctx, acct)
	if err != nil {
		s.log.Error().Err(err).Msg("listing goals")
		return nil
	}

	now := s.clock.Now()
	tl := s.Timeline(ctx)
	current := tl.BalanceAt(now)
	out := make([]GoalStatus, len(goals))
	for i, g := range goals {
		at, reachable := tl.GoalDate(now, g.Target)
		out[i] = GoalStatus{
			Goal:      g,
			Progress:  projection.GoalProgress(current, g.Target),
			Reachable: reachable,
			Date:      at,
		}
	}
	return out
}
