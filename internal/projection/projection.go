// Package projection computes running account balances from an event
// stream by anchoring to the latest balance reset and folding in every
// transaction occurrence after it.
//
// One rule applies everywhere: a reset at instant T sets the balance, and
// only transaction occurrences strictly after T (and at or before the query
// instant) are added to it. A transaction dated exactly on a reset is
// absorbed by the reset.
package projection

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/event"
)

// ErrInvertedWindow is returned when a sample window ends before it starts.
var ErrInvertedWindow = errors.New("window end is before window start")

// Point is one sample of a balance series.
type Point struct {
	Date    time.Time
	Balance decimal.Decimal
}

// fold is the running state of anchor-and-fold. Occurrences must be applied
// in event.Sort order.
type fold struct {
	balance  decimal.Decimal
	anchor   time.Time
	anchored bool
}

func (f *fold) apply(o event.Occurrence) {
	if bal, ok := o.Balance(); ok {
		f.balance = bal
		f.anchor = o.Date()
		f.anchored = true
		return
	}
	if f.anchored && !o.Date().After(f.anchor) {
		return
	}
	amt, _ := o.Amount()
	f.balance = f.balance.Add(amt)
}

// Timeline is a sorted event stream plus the balance assumed before the
// first reset. It is immutable and safe for concurrent use.
type Timeline struct {
	occ     []event.Occurrence
	opening decimal.Decimal
}

// NewTimeline sorts a copy of occ.
func NewTimeline(occ []event.Occurrence, opening decimal.Decimal) *Timeline {
	return &Timeline{occ: event.Sorted(occ), opening: opening}
}

// Occurrences returns the sorted stream.
func (tl *Timeline) Occurrences() []event.Occurrence { return tl.occ }

// Opening returns the balance used when no reset precedes a query.
func (tl *Timeline) Opening() decimal.Decimal { return tl.opening }

// BalanceAt returns the balance at instant at.
func (tl *Timeline) BalanceAt(at time.Time) decimal.Decimal {
	f := fold{balance: tl.opening}
	for _, o := range tl.occ {
		if o.Date().After(at) {
			break
		}
		f.apply(o)
	}
	return f.balance
}

// Sample returns one point per calendar day from start's day to end's day
// inclusive. Each point holds the balance after every event of that day.
func (tl *Timeline) Sample(cal calendar.Calendar, start, end time.Time) ([]Point, error) {
	first := cal.StartOfDay(start)
	last := cal.StartOfDay(end)
	if last.Before(first) {
		return nil, ErrInvertedWindow
	}

	points := make([]Point, 0, calendar.DaysBetween(cal, first, last)+1)
	f := fold{balance: tl.opening}
	i := 0
	for day := first; !day.After(last); {
		next, err := cal.Add(day, calendar.Day, 1)
		if err != nil {
			return nil, err
		}
		for ; i < len(tl.occ) && tl.occ[i].Date().Before(next); i++ {
			f.apply(tl.occ[i])
		}
		points = append(points, Point{Date: day, Balance: f.balance})
		day = next
	}
	return points, nil
}

// GoalDate returns the first instant at or after now at which the balance
// reaches target. If the balance at now already meets it, now is returned.
// ok is false when the known future events never reach target.
func (tl *Timeline) GoalDate(now time.Time, target decimal.Decimal) (at time.Time, ok bool) {
	f := fold{balance: tl.opening}
	i := 0
	for ; i < len(tl.occ) && !tl.occ[i].Date().After(now); i++ {
		f.apply(tl.occ[i])
	}
	if f.balance.GreaterThanOrEqual(target) {
		return now, true
	}

	for i < len(tl.occ) {
		instant := tl.occ[i].Date()
		for ; i < len(tl.occ) && tl.occ[i].Date().Equal(instant); i++ {
			f.apply(tl.occ[i])
		}
		if f.balance.GreaterThanOrEqual(target) {
			return instant, true
		}
	}
	return time.Time{}, false
}

// Totals sums credits and debits of transaction occurrences in [from, to).
// Debits are returned as a non-positive number. A transaction sharing its
// instant with a reset is absorbed by the reset, as in BalanceAt, and is
// not counted.
func (tl *Timeline) Totals(from, to time.Time) (credits, debits decimal.Decimal) {
	var anchor time.Time
	anchored := false
	for _, o := range tl.occ {
		if !o.Date().Before(to) {
			break
		}
		if o.IsReset() {
			anchor, anchored = o.Date(), true
			continue
		}
		if o.Date().Before(from) || anchored && !o.Date().After(anchor) {
			continue
		}
		amt, _ := o.Amount()
		if amt.IsNegative() {
			debits = debits.Add(amt)
		} else {
			credits = credits.Add(amt)
		}
	}
	return credits, debits
}

// BalanceAt is a one-shot form of Timeline.BalanceAt.
func BalanceAt(at time.Time, occ []event.Occurrence, opening decimal.Decimal) decimal.Decimal {
	return NewTimeline(occ, opening).BalanceAt(at)
}

// Sample is a one-shot form of Timeline.Sample.
func Sample(cal calendar.Calendar, start, end time.Time, occ []event.Occurrence, opening decimal.Decimal) ([]Point, error) {
	return NewTimeline(occ, opening).Sample(cal, start, end)
}

// GoalDate is a one-shot form of Timeline.GoalDate.
func GoalDate(now time.Time, target decimal.Decimal, occ []event.Occurrence, opening decimal.Decimal) (time.Time, bool) {
	return NewTimeline(occ, opening).GoalDate(now, target)
}

// GoalProgress returns how far current is toward target, clamped to [0, 1].
func GoalProgress(current, target decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if !target.IsPositive() {
		return one
	}
	p := current.Div(target)
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(one) {
		return one
	}
	return p
}
