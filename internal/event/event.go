// Package event merges transactions and balance resets into one stream of
// dated occurrences.
package event

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/model"
)

// Kind discriminates an Occurrence.
type Kind int

const (
	KindTransaction Kind = iota
	KindReset
)

// Occurrence is one dated entry in the event stream: either a single
// occurrence of a transaction or a balance reset. Exactly one of
// Transaction and Reset is set, matching Kind.
type Occurrence struct {
	kind        Kind
	date        time.Time
	Transaction *model.Transaction
	Reset       *model.BalanceReset
}

// FromTransaction wraps the occurrence of t on date.
func FromTransaction(t *model.Transaction, date time.Time) Occurrence {
	return Occurrence{kind: KindTransaction, date: date, Transaction: t}
}

// FromReset wraps r.
func FromReset(r *model.BalanceReset) Occurrence {
	return Occurrence{kind: KindReset, date: r.Date, Reset: r}
}

// Kind returns the occurrence kind.
func (o Occurrence) Kind() Kind { return o.kind }

// IsReset reports whether o is a balance reset.
func (o Occurrence) IsReset() bool { return o.kind == KindReset }

// Date is the effective date: the specific recurrence date for a
// transaction, or the reset's date.
func (o Occurrence) Date() time.Time { return o.date }

// Amount returns the signed delta of a transaction occurrence. Resets carry
// an absolute balance, not a delta, so ok is false for them.
func (o Occurrence) Amount() (amount decimal.Decimal, ok bool) {
	switch o.kind {
	case KindTransaction:
		return o.Transaction.Amount, true
	default:
		return decimal.Zero, false
	}
}

// Balance returns the absolute balance of a reset. ok is false for
// transaction occurrences.
func (o Occurrence) Balance() (balance decimal.Decimal, ok bool) {
	switch o.kind {
	case KindReset:
		return o.Reset.Balance, true
	default:
		return decimal.Zero, false
	}
}

// ID returns the id of the underlying record.
func (o Occurrence) ID() string {
	switch o.kind {
	case KindReset:
		return o.Reset.ID
	default:
		return o.Transaction.ID
	}
}

// Title returns a display label.
func (o Occurrence) Title() string {
	switch o.kind {
	case KindReset:
		return "Balance reset"
	default:
		return o.Transaction.Title
	}
}

// Materialize expands stored records into occurrences. Recurring
// transactions contribute one occurrence per remaining recurrence date; the
// dates are not re-expanded here. The result is unordered; see Sort.
func Materialize(transactions []model.Transaction, resets []model.BalanceReset) []Occurrence {
	n := len(resets)
	for i := range transactions {
		n += len(transactions[i].OccurrenceDates())
	}

	out := make([]Occurrence, 0, n)
	for i := range transactions {
		t := &transactions[i]
		for _, d := range t.OccurrenceDates() {
			out = append(out, FromTransaction(t, d))
		}
	}
	for i := range resets {
		out = append(out, FromReset(&resets[i]))
	}
	return out
}

// Sort orders occurrences chronologically. At the same instant resets come
// before transactions; remaining ties are broken by record id so the order
// is deterministic.
func Sort(occ []Occurrence) {
	slices.SortStableFunc(occ, Compare)
}

// Compare is the ordering used by Sort.
func Compare(a, b Occurrence) int {
	if c := a.date.Compare(b.date); c != 0 {
		return c
	}
	if a.kind != b.kind {
		if a.kind == KindReset {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.ID(), b.ID())
}

// Sorted returns a sorted copy of occ.
func Sorted(occ []Occurrence) []Occurrence {
	out := slices.Clone(occ)
	Sort(out)
	return out
}

// InRange returns the occurrences whose date falls in [from, to).
func InRange(occ []Occurrence, from, to time.Time) []Occurrence {
	var out []Occurrence
	for _, o := range occ {
		if !o.date.Before(from) && o.date.Before(to) {
			out = append(out, o)
		}
	}
	return out
}
