// Package csvstore keeps records as CSV files in a data directory, one file
// per record type. Every write rewrites the file through a temp file and a
// rename; a store-wide lock serializes read-modify-write cycles.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/store"
)

// File names inside the data directory.
const (
	AccountsFile     = "accounts.csv"
	TransactionsFile = "transactions.csv"
	ResetsFile       = "resets.csv"
	GoalsFile        = "goals.csv"
)

// Store is a store.Store backed by CSV files.
type Store struct {
	dir string
	mu  sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// Open creates the data directory if needed and returns a Store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error { return nil }

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// table describes one CSV file.
type table[T any] struct {
	file      string
	header    []string
	marshal   func(T) []string
	unmarshal func([]string) (T, error)
	id        func(T) string
}

var (
	accounts = table[model.Account]{
		file: AccountsFile, header: AccountHeader,
		marshal: MarshalAccount, unmarshal: UnmarshalAccount,
		id: func(a model.Account) string { return a.ID },
	}
	transactions = table[model.Transaction]{
		file: TransactionsFile, header: TransactionHeader,
		marshal: MarshalTransaction, unmarshal: UnmarshalTransaction,
		id: func(t model.Transaction) string { return t.ID },
	}
	resets = table[model.BalanceReset]{
		file: ResetsFile, header: ResetHeader,
		marshal: MarshalReset, unmarshal: UnmarshalReset,
		id: func(r model.BalanceReset) string { return r.ID },
	}
	goals = table[model.Goal]{
		file: GoalsFile, header: GoalHeader,
		marshal: MarshalGoal, unmarshal: UnmarshalGoal,
		id: func(g model.Goal) string { return g.ID },
	}
)

// ReadRows reads all records from a CSV reader, skipping the header row.
func ReadRows[T any](r io.Reader, numFields int, unmarshal func([]string) (T, error)) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	out := make([]T, 0, len(records)-1)
	for i, rec := range records[1:] {
		v, err := unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteRows writes a header and all records to w.
func WriteRows[T any](w io.Writer, header []string, rows []T, marshal func(T) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, v := range rows {
		if err := cw.Write(marshal(v)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func load[T any](dir string, tb table[T]) ([]T, error) {
	path := filepath.Join(dir, tb.file)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", tb.file, err)
	}
	defer f.Close()

	rows, err := ReadRows(f, len(tb.header), tb.unmarshal)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", tb.file, err)
	}
	return rows, nil
}

func save[T any](dir string, tb table[T], rows []T) error {
	path := filepath.Join(dir, tb.file)
	tmp, err := os.CreateTemp(dir, tb.file+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", tb.file, err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteRows(tmp, tb.header, rows, tb.marshal); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tb.file, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tb.file, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", tb.file, err)
	}
	return nil
}

func upsert[T any](tb table[T], rows []T, v T) []T {
	i := slices.IndexFunc(rows, func(x T) bool { return tb.id(x) == tb.id(v) })
	if i < 0 {
		return append(rows, v)
	}
	rows[i] = v
	return rows
}

func find[T any](tb table[T], rows []T, id string) (T, int) {
	i := slices.IndexFunc(rows, func(x T) bool { return tb.id(x) == id })
	if i < 0 {
		var zero T
		return zero, -1
	}
	return rows[i], i
}

func (s *Store) saveOne(tbName string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return fmt.Errorf("saving %s: %w", tbName, err)
	}
	return nil
}

// Accounts returns all accounts.
func (s *Store) Accounts(ctx context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return load(s.dir, accounts)
}

// Account returns the account with id.
func (s *Store) Account(ctx context.Context, id string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := load(s.dir, accounts)
	if err != nil {
		return model.Account{}, err
	}
	a, i := find(accounts, rows, id)
	if i < 0 {
		return model.Account{}, fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	return a, nil
}

// SaveAccount inserts or replaces an account.
func (s *Store) SaveAccount(ctx context.Context, a model.Account) error {
	return s.saveOne("account", func() error {
		rows, err := load(s.dir, accounts)
		if err != nil {
			return err
		}
		return save(s.dir, accounts, upsert(accounts, rows, a))
	})
}

// Transactions returns all transactions of an account.
func (s *Store) Transactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := load(s.dir, transactions)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rows, func(t model.Transaction) bool { return t.AccountID != accountID }), nil
}

// Transaction returns the transaction with id.
func (s *Store) Transaction(ctx context.Context, id string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := load(s.dir, transactions)
	if err != nil {
		return model.Transaction{}, err
	}
	t, i := find(transactions, rows, id)
	if i < 0 {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return t, nil
}

// SaveTransaction inserts or replaces a transaction.
func (s *Store) SaveTransaction(ctx context.Context, t model.Transaction) error {
	return s.saveOne("transaction", func() error {
		rows, err := load(s.dir, transactions)
		if err != nil {
			return err
		}
		return save(s.dir, transactions, upsert(transactions, rows, t))
	})
}

// UpdateTransaction runs fn on the stored transaction under the write lock
// and writes the result, plus any inserted records, in one file replace.
func (s *Store) UpdateTransaction(ctx context.Context, id string, fn store.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := load(s.dir, transactions)
	if err != nil {
		return err
	}
	t, i := find(transactions, rows, id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	t.RecurrenceDates = slices.Clone(t.RecurrenceDates)

	upd, err := fn(&t)
	if err != nil {
		return err
	}
	if upd.Delete {
		rows = slices.Delete(rows, i, i+1)
	} else {
		rows[i] = t
	}
	for _, ins := range upd.Insert {
		rows = upsert(transactions, rows, ins)
	}
	if err := save(s.dir, transactions, rows); err != nil {
		return fmt.Errorf("updating transaction %s: %w", id, err)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := load(s.dir, transactions)
	if err != nil {
		return err
	}
	_, i := find(transactions, rows, id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return save(s.dir, transactions, slices.Delete(rows, i, i+1))
}

// Resets returns all balance resets of an account.
func (s *Store) Resets(ctx context.Context, accountID string) ([]model.BalanceReset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := load(s.dir, resets)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rows, func(r model.BalanceReset) bool { return r.AccountID != accountID }), nil
}

// SaveReset inserts or replaces a balance reset.
func (s *Store) SaveReset(ctx context.Context, r model.BalanceReset) error {
	return s.saveOne("reset", func() error {
		rows, err := load(s.dir, resets)
		if err != nil {
			return err
		}
		return save(s.dir, resets, upsert(resets, rows, r))
	})
}

// Goals returns all goals of an account.
func (s *Store) Goals(ctx context.Context, accountID string) ([]model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := load(s.dir, goals)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rows, func(g model.Goal) bool { return g.AccountID != accountID }), nil
}

// SaveGoal inserts or replaces a goal.
func (s *Store) SaveGoal(ctx context.Context, g model.Goal) error {
	return s.saveOne("goal", func() error {
		rows, err := load(s.dir, goals)
		if err != nil {
			return err
		}
		return save(s.dir, goals, upsert(goals, rows, g))
	})
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := load(s.dir, goals)
	if err != nil {
		return err
	}
	_, i := find(goals, rows, id)
	if i < 0 {
		return fmt.Errorf("goal %s: %w", id, store.ErrNotFound)
	}
	return save(s.dir, goals, slices.Delete(rows, i, i+1))
}
