// Package store defines the record store used by the tracker. Records are
// filtered by account; mutations of a single transaction go through
// UpdateTransaction, which serializes read-modify-write per store.
package store

import (
	"context"
	"errors"

	"github.com/projectie-app/projectie/internal/model"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Update describes side effects of an UpdateFunc beyond the in-place edit.
type Update struct {
	// Insert holds new transactions written in the same update.
	Insert []model.Transaction
	// Delete removes the updated transaction instead of saving it.
	Delete bool
}

// UpdateFunc edits t in place. Returning an error aborts the update and
// nothing is written.
type UpdateFunc func(t *model.Transaction) (Update, error)

// Store persists accounts, transactions, balance resets and goals.
type Store interface {
	Accounts(ctx context.Context) ([]model.Account, error)
	Account(ctx context.Context, id string) (model.Account, error)
	SaveAccount(ctx context.Context, a model.Account) error

	Transactions(ctx context.Context, accountID string) ([]model.Transaction, error)
	Transaction(ctx context.Context, id string) (model.Transaction, error)
	SaveTransaction(ctx context.Context, t model.Transaction) error
	UpdateTransaction(ctx context.Context, id string, fn UpdateFunc) error
	DeleteTransaction(ctx context.Context, id string) error

	Resets(ctx context.Context, accountID string) ([]model.BalanceReset, error)
	SaveReset(ctx context.Context, r model.BalanceReset) error

	Goals(ctx context.Context, accountID string) ([]model.Goal, error)
	SaveGoal(ctx context.Context, g model.Goal) error
	DeleteGoal(ctx context.Context, id string) error

	Close() error
}
