// Package boltstore is a store.Store backed by a single bbolt file. Records
// are JSON values keyed by id, one bucket per record type.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/store"
)

// FileName is the database file created inside the data directory.
const FileName = "projectie.db"

// Bucket names.
const (
	BucketAccounts     = "accounts"
	BucketTransactions = "transactions"
	BucketResets       = "resets"
	BucketGoals        = "goals"
)

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path and initializes buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{BucketAccounts, BucketTransactions, BucketResets, BucketGoals} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func bucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("bucket %s not found", name)
	}
	return b, nil
}

func put(tx *bolt.Tx, name, key string, value any) error {
	b, err := bucket(tx, name)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s %s: %w", name, key, err)
	}
	return b.Put([]byte(key), data)
}

func get(tx *bolt.Tx, name, key string, value any) error {
	b, err := bucket(tx, name)
	if err != nil {
		return err
	}
	data := b.Get([]byte(key))
	if data == nil {
		return fmt.Errorf("%s %s: %w", name, key, store.ErrNotFound)
	}
	return json.Unmarshal(data, value)
}

func del(tx *bolt.Tx, name, key string) error {
	b, err := bucket(tx, name)
	if err != nil {
		return err
	}
	if b.Get([]byte(key)) == nil {
		return fmt.Errorf("%s %s: %w", name, key, store.ErrNotFound)
	}
	return b.Delete([]byte(key))
}

// list decodes every value in a bucket and keeps those accepted by keep.
func list[T any](db *bolt.DB, name string, keep func(T) bool) ([]T, error) {
	var out []T
	err := db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx, name)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var rec T
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding %s %s: %w", name, k, err)
			}
			if keep == nil || keep(rec) {
				out = append(out, rec)
			}
			return nil
		})
	})
	return out, err
}

// Accounts returns all accounts.
func (s *Store) Accounts(ctx context.Context) ([]model.Account, error) {
	return list[model.Account](s.db, BucketAccounts, nil)
}

// Account returns the account with id.
func (s *Store) Account(ctx context.Context, id string) (model.Account, error) {
	var a model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, BucketAccounts, id, &a)
	})
	return a, err
}

// SaveAccount inserts or replaces an account.
func (s *Store) SaveAccount(ctx context.Context, a model.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, BucketAccounts, a.ID, a)
	})
}

// Transactions returns all transactions of an account.
func (s *Store) Transactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	return list(s.db, BucketTransactions, func(t model.Transaction) bool { return t.AccountID == accountID })
}

// Transaction returns the transaction with id.
func (s *Store) Transaction(ctx context.Context, id string) (model.Transaction, error) {
	var t model.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx, BucketTransactions, id, &t)
	})
	return t, err
}

// SaveTransaction inserts or replaces a transaction.
func (s *Store) SaveTransaction(ctx context.Context, t model.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, BucketTransactions, t.ID, t)
	})
}

// UpdateTransaction runs fn inside a single read-write bbolt transaction.
func (s *Store) UpdateTransaction(ctx context.Context, id string, fn store.UpdateFunc) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var t model.Transaction
		if err := get(tx, BucketTransactions, id, &t); err != nil {
			return err
		}
		upd, err := fn(&t)
		if err != nil {
			return err
		}
		for _, ins := range upd.Insert {
			if err := put(tx, BucketTransactions, ins.ID, ins); err != nil {
				return err
			}
		}
		if upd.Delete {
			return del(tx, BucketTransactions, id)
		}
		return put(tx, BucketTransactions, id, t)
	})
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return del(tx, BucketTransactions, id)
	})
}

// Resets returns all balance resets of an account.
func (s *Store) Resets(ctx context.Context, accountID string) ([]model.BalanceReset, error) {
	return list(s.db, BucketResets, func(r model.BalanceReset) bool { return r.AccountID == accountID })
}

// SaveReset inserts or replaces a balance reset.
func (s *Store) SaveReset(ctx context.Context, r model.BalanceReset) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, BucketResets, r.ID, r)
	})
}

// Goals returns all goals of an account.
func (s *Store) Goals(ctx context.Context, accountID string) ([]model.Goal, error) {
	return list(s.db, BucketGoals, func(g model.Goal) bool { return g.AccountID == accountID })
}

// SaveGoal inserts or replaces a goal.
func (s *Store) SaveGoal(ctx context.Context, g model.Goal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx, BucketGoals, g.ID, g)
	})
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return del(tx, BucketGoals, id)
	})
}
