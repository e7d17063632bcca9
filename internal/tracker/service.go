// Package tracker is the application layer: it validates input, keeps the
// selected account and turns stored records into balances, charts and goal
// forecasts.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/calendar"
	"github.com/projectie-app/projectie/internal/id"
	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/period"
	"github.com/projectie-app/projectie/internal/recurrence"
	"github.com/projectie-app/projectie/internal/store"
)

// ErrNoAccount is returned by mutations when no account is selected.
var ErrNoAccount = errors.New("no account selected")

// Options tunes a Service.
type Options struct {
	// Opening is the balance before any reset or transaction.
	Opening decimal.Decimal
	// MaxOccurrences caps recurrence expansion; zero uses the default.
	MaxOccurrences int
}

// Service provides business logic over a store for one selected account.
type Service struct {
	store    store.Store
	cal      calendar.Calendar
	clock    calendar.Clock
	periods  *period.Calculator
	log      zerolog.Logger
	validate *validator.Validate
	opts     Options

	mu       sync.RWMutex
	selected string
}

// NewService creates a tracker Service.
func NewService(st store.Store, cal calendar.Calendar, clock calendar.Clock, log zerolog.Logger, opts Options) *Service {
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = recurrence.DefaultMaxCount
	}
	return &Service{
		store:    st,
		cal:      cal,
		clock:    clock,
		periods:  period.NewCalculator(cal, clock),
		log:      log.With().Str("component", "tracker").Logger(),
		validate: NewValidator(),
		opts:     opts,
	}
}

// Periods returns the window calculator bound to the service's clock.
func (s *Service) Periods() *period.Calculator { return s.periods }

// Select makes accountID the account all queries and mutations act on.
func (s *Service) Select(ctx context.Context, accountID string) error {
	if _, err := s.store.Account(ctx, accountID); err != nil {
		return fmt.Errorf("selecting account: %w", err)
	}
	s.mu.Lock()
	s.selected = accountID
	s.mu.Unlock()
	return nil
}

// Selected returns the selected account id, or "" if none.
func (s *Service) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// requireSelected returns the selected account id or ErrNoAccount.
func (s *Service) requireSelected() (string, error) {
	acct := s.Selected()
	if acct == "" {
		return "", ErrNoAccount
	}
	return acct, nil
}

// selectedForQuery returns the selected account id, logging when there is none.
func (s *Service) selectedForQuery(op string) (string, bool) {
	acct := s.Selected()
	if acct == "" {
		s.log.Warn().Str("op", op).Msg("no account selected")
		return "", false
	}
	return acct, true
}

// AccountParams holds parameters for creating an account.
type AccountParams struct {
	Name              string
	Type              model.AccountType
	Number            string
	HasInterest       bool
	InterestRate      decimal.Decimal
	InterestFrequency model.Frequency
	// InitialBalance, when set, is written as an initial balance reset at
	// the start of today.
	InitialBalance *decimal.Decimal
}

// CreateAccount validates and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, p AccountParams) (model.Account, error) {
	now := s.clock.Now()
	a := model.Account{
		ID:                id.New(),
		Name:              p.Name,
		Type:              p.Type,
		Number:            p.Number,
		HasInterest:       p.HasInterest,
		InterestRate:      p.InterestRate,
		InterestFrequency: p.InterestFrequency,
		CreatedAt:         now,
	}
	if err := s.check(a); err != nil {
		return model.Account{}, err
	}
	if err := s.store.SaveAccount(ctx, a); err != nil {
		s.log.Error().Err(err).Str("account", a.ID).Msg("saving account")
		return model.Account{}, fmt.Errorf("saving account: %w", err)
	}

	if p.InitialBalance != nil {
		r := model.BalanceReset{
			ID:        id.New(),
			AccountID: a.ID,
			Date:      s.cal.StartOfDay(now),
			Balance:   *p.InitialBalance,
			IsInitial: true,
		}
		if err := s.store.SaveReset(ctx, r); err != nil {
			s.log.Error().Err(err).Str("account", a.ID).Msg("saving initial balance")
			return a, fmt.Errorf("saving initial balance: %w", err)
		}
	}
	s.log.Debug().Str("account", a.ID).Str("name", a.Name).Msg("account created")
	return a, nil
}

// Accounts returns every account. Read failures are logged and yield none.
func (s *Service) Accounts(ctx context.Context) []model.Account {
	accts, err := s.store.Accounts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing accounts")
		return nil
	}
	return accts
}

// TransactionParams holds parameters for creating a transaction.
type TransactionParams struct {
	Title       string
	Amount      decimal.Decimal
	Date        time.Time
	Note        string
	Category    string
	IsRecurring bool
	Frequency   model.Frequency
	Interval    int
	// EndDate and MaxCount bound the recurrence; zero values mean unbounded.
	EndDate  time.Time
	MaxCount int
}

// AddTransaction validates the input, expands the recurrence once and
// stores the transaction on the selected account.
func (s *Service) AddTransaction(ctx context.Context, p TransactionParams) (model.Transaction, error) {
	acct, err := s.requireSelected()
	if err != nil {
		return model.Transaction{}, err
	}

	t := model.Transaction{
		ID:          id.New(),
		AccountID:   acct,
		Title:       p.Title,
		Amount:      p.Amount,
		Date:        p.Date,
		Note:        p.Note,
		Category:    p.Category,
		IsRecurring: p.IsRecurring,
	}
	if t.Category == "" {
		t.Category = model.CategoryOther
	}
	if p.IsRecurring {
		t.Frequency = p.Frequency
		t.Interval = p.Interval
		if t.Interval == 0 {
			t.Interval = 1
		}
	}
	if err := s.check(t); err != nil {
		return model.Transaction{}, err
	}
	if err := checkRecurrence(t); err != nil {
		return model.Transaction{}, err
	}

	if t.IsRecurring {
		unit, _ := t.Frequency.Unit()
		maxCount := p.MaxCount
		if maxCount <= 0 || maxCount > s.opts.MaxOccurrences {
			maxCount = s.opts.MaxOccurrences
		}
		t.RecurrenceDates = recurrence.Expand(s.cal, t.Date, unit, t.Interval, recurrence.Stop{
			MaxCount: maxCount,
			EndDate:  p.EndDate,
		})
		if len(t.RecurrenceDates) == 0 {
			return model.Transaction{}, fmt.Errorf("%w: recurrence produced no dates", ErrInvalidInput)
		}
	}

	if err := s.store.SaveTransaction(ctx, t); err != nil {
		s.log.Error().Err(err).Str("transaction", t.ID).Msg("saving transaction")
		return model.Transaction{}, fmt.Errorf("saving transaction: %w", err)
	}
	s.log.Debug().Str("transaction", t.ID).Int("occurrences", len(t.OccurrenceDates())).Msg("transaction added")
	return t, nil
}

// ImportTransactions stores one-off transactions on the selected account.
// Records that fail validation are logged and skipped, as are records whose
// Reference is already present on the account. It returns the number stored.
func (s *Service) ImportTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	acct, err := s.requireSelected()
	if err != nil {
		return 0, err
	}
	existing, err := s.store.Transactions(ctx, acct)
	if err != nil {
		s.log.Error().Err(err).Msg("listing transactions for import")
		return 0, fmt.Errorf("listing transactions: %w", err)
	}
	refs := make(map[string]bool)
	for _, t := range existing {
		if t.Reference != "" {
			refs[t.Reference] = true
		}
	}

	n := 0
	for _, t := range txns {
		if t.Reference != "" && refs[t.Reference] {
			s.log.Debug().Str("reference", t.Reference).Msg("skipping already imported transaction")
			continue
		}
		t.ID = id.New()
		t.AccountID = acct
		t.IsRecurring = false
		t.Frequency = ""
		t.Interval = 0
		t.RecurrenceDates = nil
		if t.Category == "" {
			t.Category = model.CategoryOther
		}
		if err := s.check(t); err != nil {
			s.log.Warn().Err(err).Str("title", t.Title).Msg("skipping imported transaction")
			continue
		}
		if err := s.store.SaveTransaction(ctx, t); err != nil {
			s.log.Error().Err(err).Str("transaction", t.ID).Msg("saving imported transaction")
			return n, fmt.Errorf("saving imported transaction: %w", err)
		}
		if t.Reference != "" {
			refs[t.Reference] = true
		}
		n++
	}
	return n, nil
}

// Transactions returns the selected account's transactions.
func (s *Service) Transactions(ctx context.Context) []model.Transaction {
	acct, ok := s.selectedForQuery("transactions")
	if !ok {
		return nil
	}
	txns, err := s.store.Transactions(ctx, acct)
	if err != nil {
		s.log.Error().Err(err).Msg("listing transactions")
		return nil
	}
	return txns
}

// DeleteTransaction removes a transaction with all its occurrences.
// Transactions of other accounts are reported as not found.
func (s *Service) DeleteTransaction(ctx context.Context, txnID string) error {
	acct, err := s.requireSelected()
	if err != nil {
		return err
	}
	err = s.store.UpdateTransaction(ctx, txnID, func(t *model.Transaction) (store.Update, error) {
		if t.AccountID != acct {
			return store.Update{}, notOnAccount(txnID)
		}
		return store.Update{Delete: true}, nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("transaction", txnID).Msg("deleting transaction")
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return nil
}

// DeleteOccurrence removes a single date from a recurring transaction.
// Removing the last date deletes the transaction.
func (s *Service) DeleteOccurrence(ctx context.Context, txnID string, date time.Time) error {
	return s.trimRecurrence(ctx, txnID, "deleting occurrence", func(t *model.Transaction) bool {
		return t.RemoveDate(date)
	})
}

// DeleteFuture removes every date at or after from. Removing the last date
// deletes the transaction.
func (s *Service) DeleteFuture(ctx context.Context, txnID string, from time.Time) error {
	return s.trimRecurrence(ctx, txnID, "deleting future occurrences", func(t *model.Transaction) bool {
		return t.RemoveFrom(from) > 0
	})
}

func (s *Service) trimRecurrence(ctx context.Context, txnID, op string, trim func(*model.Transaction) bool) error {
	acct, err := s.requireSelected()
	if err != nil {
		return err
	}
	err = s.store.UpdateTransaction(ctx, txnID, func(t *model.Transaction) (store.Update, error) {
		if t.AccountID != acct {
			return store.Update{}, notOnAccount(txnID)
		}
		if !t.IsRecurring {
			return store.Update{}, fmt.Errorf("%w: transaction %s is not recurring", ErrInvalidInput, txnID)
		}
		if !trim(t) {
			return store.Update{}, fmt.Errorf("%w: no matching occurrence", ErrInvalidInput)
		}
		return store.Update{Delete: t.Exhausted()}, nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("transaction", txnID).Msg(op)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func notOnAccount(recordID string) error {
	return fmt.Errorf("%s is not on the selected account: %w", recordID, store.ErrNotFound)
}

// AddReset records that the selected account held balance at date.
func (s *Service) AddReset(ctx context.Context, date time.Time, balance decimal.Decimal) (model.BalanceReset, error) {
	acct, err := s.requireSelected()
	if err != nil {
		return model.BalanceReset{}, err
	}
	r := model.BalanceReset{ID: id.New(), AccountID: acct, Date: date, Balance: balance}
	if err := s.check(r); err != nil {
		return model.BalanceReset{}, err
	}
	if err := s.store.SaveReset(ctx, r); err != nil {
		s.log.Error().Err(err).Str("reset", r.ID).Msg("saving reset")
		return model.BalanceReset{}, fmt.Errorf("saving reset: %w", err)
	}
	return r, nil
}

// Resets returns the selected account's balance resets.
func (s *Service) Resets(ctx context.Context) []model.BalanceReset {
	acct, ok := s.selectedForQuery("resets")
	if !ok {
		return nil
	}
	resets, err := s.store.Resets(ctx, acct)
	if err != nil {
		s.log.Error().Err(err).Msg("listing resets")
		return nil
	}
	return resets
}
