package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/calendar"
)

// Frequency is the step of a recurring transaction.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Unit maps the frequency to a calendar step. ok is false for unknown values.
func (f Frequency) Unit() (unit calendar.Unit, ok bool) {
	switch f {
	case FrequencyDaily:
		return calendar.Day, true
	case FrequencyWeekly:
		return calendar.Week, true
	case FrequencyMonthly:
		return calendar.Month, true
	case FrequencyYearly:
		return calendar.Year, true
	default:
		return 0, false
	}
}

// Transaction is a one-off or recurring cash movement on an account.
// Amount is signed: credits are positive, debits negative.
type Transaction struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id" validate:"required"`
	Title           string          `json:"title" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Date            time.Time       `json:"date" validate:"required"`
	Note            string          `json:"note,omitempty"`
	Category        string          `json:"category" validate:"category"`
	IsRecurring     bool            `json:"is_recurring,omitempty"`
	Frequency       Frequency       `json:"frequency,omitempty" validate:"omitempty,frequency"`
	Interval        int             `json:"interval,omitempty" validate:"omitempty,min=1"`
	RecurrenceDates []time.Time     `json:"recurrence_dates,omitempty"`
	Archived        bool            `json:"archived,omitempty"`
	ParentID        string          `json:"parent_id,omitempty"`
	// Reference identifies an imported bank row, e.g. chase_20250103_NETFLIXCOM.
	Reference       string          `json:"reference,omitempty"`
}

// IsCredit reports whether the transaction adds money to the account.
func (t Transaction) IsCredit() bool {
	return !t.Amount.IsNegative()
}

// OccurrenceDates returns the dates on which the transaction takes effect.
func (t Transaction) OccurrenceDates() []time.Time {
	if t.IsRecurring {
		return t.RecurrenceDates
	}
	return []time.Time{t.Date}
}

// RemoveDate deletes the first recurrence date equal to d and reports
// whether one was found.
func (t *Transaction) RemoveDate(d time.Time) bool {
	i := slices.IndexFunc(t.RecurrenceDates, func(x time.Time) bool { return x.Equal(d) })
	if i < 0 {
		return false
	}
	t.RecurrenceDates = slices.Delete(t.RecurrenceDates, i, i+1)
	return true
}

// RemoveFrom deletes every recurrence date at or after d and returns how
// many were removed.
func (t *Transaction) RemoveFrom(d time.Time) int {
	before := len(t.RecurrenceDates)
	t.RecurrenceDates = slices.DeleteFunc(t.RecurrenceDates, func(x time.Time) bool { return !x.Before(d) })
	return before - len(t.RecurrenceDates)
}

// Exhausted reports whether a recurring transaction has no remaining dates.
func (t Transaction) Exhausted() bool {
	return t.IsRecurring && len(t.RecurrenceDates) == 0
}
