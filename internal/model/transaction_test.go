package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/projectie-app/projectie/internal/calendar"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestIsCredit(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"100.00", true},
		{"0", true},
		{"-4.99", false},
	}
	for _, tt := range tests {
		txn := Transaction{Amount: decimal.RequireFromString(tt.amount)}
		assert.Equal(t, tt.want, txn.IsCredit(), "IsCredit(%s)", tt.amount)
	}
}

func TestFrequencyUnit(t *testing.T) {
	tests := []struct {
		f    Frequency
		want calendar.Unit
		ok   bool
	}{
		{FrequencyDaily, calendar.Day, true},
		{FrequencyWeekly, calendar.Week, true},
		{FrequencyMonthly, calendar.Month, true},
		{FrequencyYearly, calendar.Year, true},
		{"fortnightly", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.f.Unit()
		assert.Equal(t, tt.ok, ok, "Unit(%q)", tt.f)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestOccurrenceDates(t *testing.T) {
	oneOff := Transaction{Date: date(2025, 1, 5)}
	assert.Equal(t, []time.Time{date(2025, 1, 5)}, oneOff.OccurrenceDates())

	recurring := Transaction{
		Date:            date(2025, 1, 1),
		IsRecurring:     true,
		RecurrenceDates: []time.Time{date(2025, 2, 1), date(2025, 3, 1)},
	}
	assert.Equal(t, recurring.RecurrenceDates, recurring.OccurrenceDates())
}

func TestRemoveDate(t *testing.T) {
	txn := Transaction{
		IsRecurring:     true,
		RecurrenceDates: []time.Time{date(2025, 1, 1), date(2025, 1, 8), date(2025, 1, 15)},
	}
	assert.True(t, txn.RemoveDate(date(2025, 1, 8)))
	assert.Equal(t, []time.Time{date(2025, 1, 1), date(2025, 1, 15)}, txn.RecurrenceDates)
	assert.False(t, txn.RemoveDate(date(2025, 1, 8)))
	assert.False(t, txn.Exhausted())
}

func TestRemoveFrom(t *testing.T) {
	txn := Transaction{
		IsRecurring:     true,
		RecurrenceDates: []time.Time{date(2025, 1, 1), date(2025, 1, 8), date(2025, 1, 15)},
	}
	assert.Equal(t, 2, txn.RemoveFrom(date(2025, 1, 8)))
	assert.Equal(t, []time.Time{date(2025, 1, 1)}, txn.RecurrenceDates)
	assert.Equal(t, 1, txn.RemoveFrom(date(2024, 1, 1)))
	assert.True(t, txn.Exhausted())
}

func TestLookupCategory(t *testing.T) {
	assert.Equal(t, "Groceries", LookupCategory("groceries").Name)
	assert.Equal(t, CategoryOther, LookupCategory("nope").Key)
	assert.True(t, IsCategory("salary"))
	assert.False(t, IsCategory("nope"))
	assert.Len(t, Categories(), 15)
}
