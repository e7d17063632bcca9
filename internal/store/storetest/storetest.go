// Package storetest is a conformance suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/store"
)

// Factory opens a fresh, empty store.
type Factory func(t *testing.T) store.Store

// Run runs the suite. reopen, if non-nil, reopens the store created by the
// previous Factory call to check persistence.
func Run(t *testing.T, open Factory, reopen Factory) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, open) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, open) })
	t.Run("update", func(t *testing.T) { testUpdate(t, open) })
	t.Run("update_abort", func(t *testing.T) { testUpdateAbort(t, open) })
	t.Run("update_concurrent", func(t *testing.T) { testUpdateConcurrent(t, open) })
	t.Run("resets_and_goals", func(t *testing.T) { testResetsGoals(t, open) })
	if reopen != nil {
		t.Run("persistence", func(t *testing.T) { testPersistence(t, open, reopen) })
	}
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleRecurring() model.Transaction {
	return model.Transaction{
		ID: "t-rent", AccountID: "a-1", Title: "Rent", Amount: dec("-900.00"),
		Date: date(2025, 1, 1), Category: "rent", Note: "flat, 2nd floor",
		IsRecurring: true, Frequency: model.FrequencyMonthly, Interval: 1,
		RecurrenceDates: []time.Time{date(2025, 1, 1), date(2025, 2, 1), date(2025, 3, 1)},
	}
}

func testAccounts(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	_, err := s.Account(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	acct := model.Account{
		ID: "a-1", Name: "Everyday", Type: model.AccountTypeSpending, Number: "NL00BANK0123",
		HasInterest: true, InterestRate: dec("1.25"), InterestFrequency: model.FrequencyMonthly,
		CreatedAt: date(2025, 1, 1),
	}
	require.NoError(t, s.SaveAccount(ctx, acct))
	require.NoError(t, s.SaveAccount(ctx, model.Account{ID: "a-2", Name: "Rainy day", Type: model.AccountTypeSaving, CreatedAt: date(2025, 1, 2)}))

	got, err := s.Account(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, acct.Name, got.Name)
	assert.Equal(t, acct.Type, got.Type)
	assert.Equal(t, acct.Number, got.Number)
	assert.True(t, got.HasInterest)
	assert.True(t, acct.InterestRate.Equal(got.InterestRate))
	assert.Equal(t, acct.InterestFrequency, got.InterestFrequency)
	assert.True(t, acct.CreatedAt.Equal(got.CreatedAt))

	all, err := s.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	acct.Name = "Everyday spending"
	require.NoError(t, s.SaveAccount(ctx, acct))
	got, err = s.Account(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Everyday spending", got.Name)
	all, err = s.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "save with an existing id replaces")
}

func testTransactions(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	rent := sampleRecurring()
	coffee := model.Transaction{ID: "t-coffee", AccountID: "a-1", Title: "Coffee", Amount: dec("-3.5"), Date: date(2025, 1, 4), Category: "dining"}
	other := model.Transaction{ID: "t-other", AccountID: "a-2", Title: "Interest", Amount: dec("1.02"), Date: date(2025, 1, 31), Category: "interest"}
	for _, txn := range []model.Transaction{rent, coffee, other} {
		require.NoError(t, s.SaveTransaction(ctx, txn))
	}

	txns, err := s.Transactions(ctx, "a-1")
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	got, err := s.Transaction(ctx, "t-rent")
	require.NoError(t, err)
	assert.Equal(t, rent.Title, got.Title)
	assert.True(t, rent.Amount.Equal(got.Amount))
	assert.Equal(t, rent.Note, got.Note)
	assert.Equal(t, rent.Category, got.Category)
	assert.True(t, got.IsRecurring)
	assert.Equal(t, model.FrequencyMonthly, got.Frequency)
	assert.Equal(t, 1, got.Interval)
	require.Len(t, got.RecurrenceDates, 3)
	for i := range rent.RecurrenceDates {
		assert.True(t, rent.RecurrenceDates[i].Equal(got.RecurrenceDates[i]))
	}

	require.NoError(t, s.DeleteTransaction(ctx, "t-coffee"))
	_, err = s.Transaction(ctx, "t-coffee")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "t-coffee"), store.ErrNotFound)
}

func testUpdate(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)
	require.NoError(t, s.SaveTransaction(ctx, sampleRecurring()))

	err := s.UpdateTransaction(ctx, "t-rent", func(txn *model.Transaction) (store.Update, error) {
		require.True(t, txn.RemoveDate(date(2025, 1, 1)))
		return store.Update{Insert: []model.Transaction{{
			ID: "t-rent-jan", AccountID: "a-1", Title: "Rent", Amount: dec("-900"),
			Date: date(2025, 1, 1), Category: "rent", Archived: true, ParentID: "t-rent",
		}}}, nil
	})
	require.NoError(t, err)

	got, err := s.Transaction(ctx, "t-rent")
	require.NoError(t, err)
	assert.Len(t, got.RecurrenceDates, 2)

	archived, err := s.Transaction(ctx, "t-rent-jan")
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	assert.Equal(t, "t-rent", archived.ParentID)

	err = s.UpdateTransaction(ctx, "t-rent", func(txn *model.Transaction) (store.Update, error) {
		return store.Update{Delete: true}, nil
	})
	require.NoError(t, err)
	_, err = s.Transaction(ctx, "t-rent")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.UpdateTransaction(ctx, "t-rent", func(txn *model.Transaction) (store.Update, error) {
		t.Fatal("fn must not run for a missing record")
		return store.Update{}, nil
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateAbort(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)
	require.NoError(t, s.SaveTransaction(ctx, sampleRecurring()))

	boom := errors.New("boom")
	err := s.UpdateTransaction(ctx, "t-rent", func(txn *model.Transaction) (store.Update, error) {
		txn.RecurrenceDates = nil
		return store.Update{Insert: []model.Transaction{{ID: "t-x", AccountID: "a-1", Date: date(2025, 1, 1)}}}, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Transaction(ctx, "t-rent")
	require.NoError(t, err)
	assert.Len(t, got.RecurrenceDates, 3, "aborted update leaves the record untouched")
	_, err = s.Transaction(ctx, "t-x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateConcurrent(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)
	txn := sampleRecurring()
	txn.RecurrenceDates = nil
	for i := 0; i < 20; i++ {
		txn.RecurrenceDates = append(txn.RecurrenceDates, date(2025, 1, 1).AddDate(0, 0, i))
	}
	require.NoError(t, s.SaveTransaction(ctx, txn))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.UpdateTransaction(ctx, "t-rent", func(txn *model.Transaction) (store.Update, error) {
				if len(txn.RecurrenceDates) > 0 {
					txn.RecurrenceDates = txn.RecurrenceDates[1:]
				}
				return store.Update{}, nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Transaction(ctx, "t-rent")
	require.NoError(t, err)
	assert.Empty(t, got.RecurrenceDates, "every update saw the previous one's result")
}

func testResetsGoals(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	require.NoError(t, s.SaveReset(ctx, model.BalanceReset{ID: "r-1", AccountID: "a-1", Date: date(2025, 1, 1), Balance: dec("1000"), IsInitial: true}))
	require.NoError(t, s.SaveReset(ctx, model.BalanceReset{ID: "r-2", AccountID: "a-1", Date: date(2025, 2, 1), Balance: dec("812.40")}))
	require.NoError(t, s.SaveReset(ctx, model.BalanceReset{ID: "r-3", AccountID: "a-2", Date: date(2025, 2, 1), Balance: dec("5")}))

	resets, err := s.Resets(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, resets, 2)
	var initial int
	for _, r := range resets {
		if r.IsInitial {
			initial++
			assert.True(t, r.Balance.Equal(dec("1000")))
		}
	}
	assert.Equal(t, 1, initial)

	require.NoError(t, s.SaveGoal(ctx, model.Goal{ID: "g-1", AccountID: "a-1", Title: "Holiday", Target: dec("2500"), CreatedAt: date(2025, 1, 3)}))
	goals, err := s.Goals(ctx, "a-1")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Holiday", goals[0].Title)
	assert.True(t, goals[0].Target.Equal(dec("2500")))

	require.NoError(t, s.DeleteGoal(ctx, "g-1"))
	goals, err = s.Goals(ctx, "a-1")
	require.NoError(t, err)
	assert.Empty(t, goals)
	assert.ErrorIs(t, s.DeleteGoal(ctx, "g-1"), store.ErrNotFound)
}

func testPersistence(t *testing.T, open, reopen Factory) {
	ctx := context.Background()
	s := open(t)
	require.NoError(t, s.SaveAccount(ctx, model.Account{ID: "a-1", Name: "Everyday", Type: model.AccountTypeSpending, CreatedAt: date(2025, 1, 1)}))
	require.NoError(t, s.SaveTransaction(ctx, sampleRecurring()))
	require.NoError(t, s.Close())

	s2 := reopen(t)
	got, err := s2.Transaction(ctx, "t-rent")
	require.NoError(t, err)
	assert.Len(t, got.RecurrenceDates, 3)
	_, err = s2.Account(ctx, "a-1")
	require.NoError(t, err)
}
