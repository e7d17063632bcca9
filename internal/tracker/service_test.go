package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/logger"
	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/store"
	"github.com/projectie-app/projectie/internal/store/csvstore"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// testService returns a service whose clock reads 2025-01-01 10:00 UTC.
func testService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st, err := csvstore.Open(t.TempDir())
	require.NoError(t, err)
	now := date(2025, 1, 1).Add(10 * time.Hour)
	svc := NewService(st, calendar.New(time.UTC), calendar.FixedClock(now), logger.Nop(), Options{})
	return svc, st
}

// selectedService creates and selects a spending account opened with 1000.
func selectedService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	svc, st := testService(t)
	ctx := context.Background()
	opening := dec("1000")
	a, err := svc.CreateAccount(ctx, AccountParams{Name: "Everyday", Type: model.AccountTypeSpending, InitialBalance: &opening})
	require.NoError(t, err)
	require.NoError(t, svc.Select(ctx, a.ID))
	return svc, st
}

func TestSelect(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	err := svc.Select(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, svc.Selected())

	a, err := svc.CreateAccount(ctx, AccountParams{Name: "Savings", Type: model.AccountTypeSaving})
	require.NoError(t, err)
	require.NoError(t, svc.Select(ctx, a.ID))
	assert.Equal(t, a.ID, svc.Selected())
}

func TestNoSelection(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, TransactionParams{Title: "Coffee", Amount: dec("-3"), Date: date(2025, 1, 2)})
	assert.ErrorIs(t, err, ErrNoAccount)
	_, err = svc.AddReset(ctx, date(2025, 1, 2), dec("10"))
	assert.ErrorIs(t, err, ErrNoAccount)
	_, err = svc.AddGoal(ctx, "Bike", dec("500"))
	assert.ErrorIs(t, err, ErrNoAccount)

	assert.Empty(t, svc.Transactions(ctx))
	assert.Empty(t, svc.Goals(ctx))
	assert.True(t, svc.CurrentBalance(ctx).IsZero())
}

func TestCreateAccount(t *testing.T) {
	t.Run("initial balance writes reset", func(t *testing.T) {
		svc, _ := selectedService(t)
		resets := svc.Resets(context.Background())
		require.Len(t, resets, 1)
		assert.True(t, resets[0].IsInitial)
		assert.Equal(t, date(2025, 1, 1), resets[0].Date)
		assertDec(t, "1000", svc.CurrentBalance(context.Background()))
	})

	t.Run("invalid type", func(t *testing.T) {
		svc, _ := testService(t)
		_, err := svc.CreateAccount(context.Background(), AccountParams{Name: "X", Type: "credit_card"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing name", func(t *testing.T) {
		svc, _ := testService(t)
		_, err := svc.CreateAccount(context.Background(), AccountParams{Type: model.AccountTypeSaving})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Empty(t, svc.Accounts(context.Background()))
	})
}

func TestAddTransaction(t *testing.T) {
	t.Run("one-off defaults category", func(t *testing.T) {
		svc, _ := selectedService(t)
		txn, err := svc.AddTransaction(context.Background(), TransactionParams{Title: "Coffee", Amount: dec("-3.50"), Date: date(2025, 1, 2)})
		require.NoError(t, err)
		assert.Equal(t, model.CategoryOther, txn.Category)
		assert.Empty(t, txn.RecurrenceDates)
		assertDec(t, "996.50", svc.Balance(context.Background(), date(2025, 1, 3)))
	})

	t.Run("recurring expands with month-end clamping", func(t *testing.T) {
		svc, st := selectedService(t)
		txn, err := svc.AddTransaction(context.Background(), TransactionParams{
			Title: "Rent", Amount: dec("-900"), Date: date(2025, 1, 31), Category: "rent",
			IsRecurring: true, Frequency: model.FrequencyMonthly, EndDate: date(2025, 4, 30),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, txn.Interval)
		assert.Equal(t, []time.Time{date(2025, 1, 31), date(2025, 2, 28), date(2025, 3, 31), date(2025, 4, 30)}, txn.RecurrenceDates)

		stored, err := st.Transaction(context.Background(), txn.ID)
		require.NoError(t, err)
		assert.Len(t, stored.RecurrenceDates, 4)
	})

	t.Run("max count caps expansion", func(t *testing.T) {
		svc, _ := selectedService(t)
		txn, err := svc.AddTransaction(context.Background(), TransactionParams{
			Title: "Gym", Amount: dec("-20"), Date: date(2025, 1, 6),
			IsRecurring: true, Frequency: model.FrequencyWeekly, Interval: 2, MaxCount: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, []time.Time{date(2025, 1, 6), date(2025, 1, 20), date(2025, 2, 3)}, txn.RecurrenceDates)
	})

	tests := []struct {
		name   string
		params TransactionParams
	}{
		{"missing title", TransactionParams{Amount: dec("1"), Date: date(2025, 1, 2)}},
		{"missing date", TransactionParams{Title: "X", Amount: dec("1")}},
		{"unknown category", TransactionParams{Title: "X", Amount: dec("1"), Date: date(2025, 1, 2), Category: "yachts"}},
		{"recurring without frequency", TransactionParams{Title: "X", Amount: dec("1"), Date: date(2025, 1, 2), IsRecurring: true}},
		{"bad frequency", TransactionParams{Title: "X", Amount: dec("1"), Date: date(2025, 1, 2), IsRecurring: true, Frequency: "hourly"}},
		{"negative interval", TransactionParams{Title: "X", Amount: dec("1"), Date: date(2025, 1, 2), IsRecurring: true, Frequency: model.FrequencyDaily, Interval: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := selectedService(t)
			_, err := svc.AddTransaction(context.Background(), tt.params)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, svc.Transactions(context.Background()))
		})
	}
}

func TestDeleteOccurrences(t *testing.T) {
	ctx := context.Background()
	addWeekly := func(t *testing.T, svc *Service) model.Transaction {
		t.Helper()
		txn, err := svc.AddTransaction(ctx, TransactionParams{
			Title: "Groceries", Amount: dec("-50"), Date: date(2025, 1, 1), Category: "groceries",
			IsRecurring: true, Frequency: model.FrequencyWeekly, MaxCount: 4,
		})
		require.NoError(t, err)
		return txn
	}

	t.Run("single occurrence", func(t *testing.T) {
		svc, st := selectedService(t)
		txn := addWeekly(t, svc)
		require.NoError(t, svc.DeleteOccurrence(ctx, txn.ID, date(2025, 1, 8)))

		got, err := st.Transaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{date(2025, 1, 1), date(2025, 1, 15), date(2025, 1, 22)}, got.RecurrenceDates)
		assertDec(t, "900", svc.Balance(ctx, date(2025, 1, 22)))
	})

	t.Run("unknown date", func(t *testing.T) {
		svc, _ := selectedService(t)
		txn := addWeekly(t, svc)
		err := svc.DeleteOccurrence(ctx, txn.ID, date(2025, 1, 9))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("this and future", func(t *testing.T) {
		svc, st := selectedService(t)
		txn := addWeekly(t, svc)
		require.NoError(t, svc.DeleteFuture(ctx, txn.ID, date(2025, 1, 15)))

		got, err := st.Transaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Len(t, got.RecurrenceDates, 2)
	})

	t.Run("removing every date deletes the transaction", func(t *testing.T) {
		svc, st := selectedService(t)
		txn := addWeekly(t, svc)
		require.NoError(t, svc.DeleteFuture(ctx, txn.ID, date(2025, 1, 1)))

		_, err := st.Transaction(ctx, txn.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("one-off is rejected", func(t *testing.T) {
		svc, _ := selectedService(t)
		txn, err := svc.AddTransaction(ctx, TransactionParams{Title: "Coffee", Amount: dec("-3"), Date: date(2025, 1, 2)})
		require.NoError(t, err)
		assert.ErrorIs(t, svc.DeleteOccurrence(ctx, txn.ID, date(2025, 1, 2)), ErrInvalidInput)
	})

	t.Run("delete whole transaction", func(t *testing.T) {
		svc, _ := selectedService(t)
		txn := addWeekly(t, svc)
		require.NoError(t, svc.DeleteTransaction(ctx, txn.ID))
		assert.Empty(t, svc.Transactions(ctx))
		assert.ErrorIs(t, svc.DeleteTransaction(ctx, txn.ID), store.ErrNotFound)
	})
}

func TestImportTransactions(t *testing.T) {
	svc, _ := selectedService(t)
	ctx := context.Background()

	n, err := svc.ImportTransactions(ctx, []model.Transaction{
		{Title: "AMAZON", Amount: dec("-42.10"), Date: date(2025, 1, 3), Category: "shopping"},
		{Title: "", Amount: dec("-1"), Date: date(2025, 1, 3)},
		{Title: "PAYROLL", Amount: dec("2500"), Date: date(2025, 1, 5)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	txns := svc.Transactions(ctx)
	require.Len(t, txns, 2)
	for _, txn := range txns {
		assert.Equal(t, svc.Selected(), txn.AccountID)
		assert.NotEmpty(t, txn.ID)
	}
}

func TestImportTransactions_SkipsKnownReferences(t *testing.T) {
	svc, _ := selectedService(t)
	ctx := context.Background()

	batch := []model.Transaction{
		{Title: "WHOLE FOODS", Amount: dec("-86.20"), Date: date(2025, 1, 6), Category: "groceries", Reference: "chase_20250106_WHOLEFOODS"},
		{Title: "CASH", Amount: dec("-20"), Date: date(2025, 1, 7)},
	}
	n, err := svc.ImportTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.ImportTransactions(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the row without a reference is stored again")
	assertDec(t, "873.80", svc.Balance(ctx, date(2025, 1, 31)))

	txns := svc.Transactions(ctx)
	require.Len(t, txns, 3)

	dup := batch[0]
	dup.Amount = dec("-1")
	n, err = svc.ImportTransactions(ctx, []model.Transaction{dup, dup})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteChecksSelectedAccount(t *testing.T) {
	svc, st := selectedService(t)
	ctx := context.Background()

	rent, err := svc.AddTransaction(ctx, TransactionParams{
		Title: "Rent", Amount: dec("-900"), Date: date(2025, 1, 1),
		IsRecurring: true, Frequency: model.FrequencyMonthly, MaxCount: 3,
	})
	require.NoError(t, err)
	goal, err := svc.AddGoal(ctx, "Bike", dec("2000"))
	require.NoError(t, err)

	other, err := svc.CreateAccount(ctx, AccountParams{Name: "Rainy day", Type: model.AccountTypeSaving})
	require.NoError(t, err)
	require.NoError(t, svc.Select(ctx, other.ID))

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, rent.ID), store.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteOccurrence(ctx, rent.ID, date(2025, 2, 1)), store.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteFuture(ctx, rent.ID, date(2025, 2, 1)), store.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteGoal(ctx, goal.ID), store.ErrNotFound)

	got, err := st.Transaction(ctx, rent.ID)
	require.NoError(t, err)
	assert.Len(t, got.RecurrenceDates, 3)
	goals, err := st.Goals(ctx, rent.AccountID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}
