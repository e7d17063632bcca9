package csvstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectie-app/projectie/internal/model"
)

const (
	timeFormat = time.RFC3339
	listSep    = ";"
)

// Headers for each CSV file.
var (
	AccountHeader     = []string{"id", "name", "type", "number", "has_interest", "interest_rate", "interest_frequency", "created_at"}
	TransactionHeader = []string{"id", "account_id", "title", "amount", "date", "note", "category", "is_recurring", "frequency", "interval", "recurrence_dates", "archived", "parent_id", "reference"}
	ResetHeader       = []string{"id", "account_id", "date", "balance", "is_initial"}
	GoalHeader        = []string{"id", "account_id", "title", "target", "created_at"}
)

const (
	acctColID = iota
	acctColName
	acctColType
	acctColNumber
	acctColHasInterest
	acctColRate
	acctColRateFreq
	acctColCreated
)

const (
	txnColID = iota
	txnColAccount
	txnColTitle
	txnColAmount
	txnColDate
	txnColNote
	txnColCategory
	txnColRecurring
	txnColFrequency
	txnColInterval
	txnColDates
	txnColArchived
	txnColParent
	txnColReference
)

const (
	resetColID = iota
	resetColAccount
	resetColDate
	resetColBalance
	resetColInitial
)

const (
	goalColID = iota
	goalColAccount
	goalColTitle
	goalColTarget
	goalColCreated
)

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(a model.Account) []string {
	row := make([]string, len(AccountHeader))
	row[acctColID] = a.ID
	row[acctColName] = a.Name
	row[acctColType] = string(a.Type)
	row[acctColNumber] = a.Number
	row[acctColHasInterest] = formatBool(a.HasInterest)
	if !a.InterestRate.IsZero() {
		row[acctColRate] = a.InterestRate.String()
	}
	row[acctColRateFreq] = string(a.InterestFrequency)
	row[acctColCreated] = formatTime(a.CreatedAt)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != len(AccountHeader) {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", len(AccountHeader), len(record))
	}
	hasInterest, err := parseBool(record[acctColHasInterest])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing has_interest: %w", err)
	}
	rate, err := parseDecimal(record[acctColRate])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing interest_rate: %w", err)
	}
	created, err := parseTime(record[acctColCreated])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return model.Account{
		ID:                record[acctColID],
		Name:              record[acctColName],
		Type:              model.AccountType(record[acctColType]),
		Number:            record[acctColNumber],
		HasInterest:       hasInterest,
		InterestRate:      rate,
		InterestFrequency: model.Frequency(record[acctColRateFreq]),
		CreatedAt:         created,
	}, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, len(TransactionHeader))
	row[txnColID] = t.ID
	row[txnColAccount] = t.AccountID
	row[txnColTitle] = t.Title
	row[txnColAmount] = t.Amount.String()
	row[txnColDate] = formatTime(t.Date)
	row[txnColNote] = t.Note
	row[txnColCategory] = t.Category
	row[txnColRecurring] = formatBool(t.IsRecurring)
	row[txnColFrequency] = string(t.Frequency)
	if t.Interval != 0 {
		row[txnColInterval] = strconv.Itoa(t.Interval)
	}
	dates := make([]string, len(t.RecurrenceDates))
	for i, d := range t.RecurrenceDates {
		dates[i] = formatTime(d)
	}
	row[txnColDates] = strings.Join(dates, listSep)
	row[txnColArchived] = formatBool(t.Archived)
	row[txnColParent] = t.ParentID
	row[txnColReference] = t.Reference
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != len(TransactionHeader) {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", len(TransactionHeader), len(record))
	}
	amount, err := parseDecimal(record[txnColAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount: %w", err)
	}
	date, err := parseTime(record[txnColDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date: %w", err)
	}
	recurring, err := parseBool(record[txnColRecurring])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing is_recurring: %w", err)
	}
	var interval int
	if record[txnColInterval] != "" {
		interval, err = strconv.Atoi(record[txnColInterval])
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing interval %q: %w", record[txnColInterval], err)
		}
	}
	var dates []time.Time
	if record[txnColDates] != "" {
		for _, s := range strings.Split(record[txnColDates], listSep) {
			d, err := parseTime(s)
			if err != nil {
				return model.Transaction{}, fmt.Errorf("parsing recurrence_dates: %w", err)
			}
			dates = append(dates, d)
		}
	}
	archived, err := parseBool(record[txnColArchived])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing archived: %w", err)
	}
	return model.Transaction{
		ID:              record[txnColID],
		AccountID:       record[txnColAccount],
		Title:           record[txnColTitle],
		Amount:          amount,
		Date:            date,
		Note:            record[txnColNote],
		Category:        record[txnColCategory],
		IsRecurring:     recurring,
		Frequency:       model.Frequency(record[txnColFrequency]),
		Interval:        interval,
		RecurrenceDates: dates,
		Archived:        archived,
		ParentID:        record[txnColParent],
		Reference:       record[txnColReference],
	}, nil
}

// MarshalReset converts a BalanceReset to a CSV row.
func MarshalReset(r model.BalanceReset) []string {
	row := make([]string, len(ResetHeader))
	row[resetColID] = r.ID
	row[resetColAccount] = r.AccountID
	row[resetColDate] = formatTime(r.Date)
	row[resetColBalance] = r.Balance.String()
	row[resetColInitial] = formatBool(r.IsInitial)
	return row
}

// UnmarshalReset converts a CSV row to a BalanceReset.
func UnmarshalReset(record []string) (model.BalanceReset, error) {
	if len(record) != len(ResetHeader) {
		return model.BalanceReset{}, fmt.Errorf("expected %d fields, got %d", len(ResetHeader), len(record))
	}
	date, err := parseTime(record[resetColDate])
	if err != nil {
		return model.BalanceReset{}, fmt.Errorf("parsing date: %w", err)
	}
	balance, err := parseDecimal(record[resetColBalance])
	if err != nil {
		return model.BalanceReset{}, fmt.Errorf("parsing balance: %w", err)
	}
	initial, err := parseBool(record[resetColInitial])
	if err != nil {
		return model.BalanceReset{}, fmt.Errorf("parsing is_initial: %w", err)
	}
	return model.BalanceReset{
		ID:        record[resetColID],
		AccountID: record[resetColAccount],
		Date:      date,
		Balance:   balance,
		IsInitial: initial,
	}, nil
}

// MarshalGoal converts a Goal to a CSV row.
func MarshalGoal(g model.Goal) []string {
	row := make([]string, len(GoalHeader))
	row[goalColID] = g.ID
	row[goalColAccount] = g.AccountID
	row[goalColTitle] = g.Title
	row[goalColTarget] = g.Target.String()
	row[goalColCreated] = formatTime(g.CreatedAt)
	return row
}

// UnmarshalGoal converts a CSV row to a Goal.
func UnmarshalGoal(record []string) (model.Goal, error) {
	if len(record) != len(GoalHeader) {
		return model.Goal{}, fmt.Errorf("expected %d fields, got %d", len(GoalHeader), len(record))
	}
	target, err := parseDecimal(record[goalColTarget])
	if err != nil {
		return model.Goal{}, fmt.Errorf("parsing target: %w", err)
	}
	created, err := parseTime(record[goalColCreated])
	if err != nil {
		return model.Goal{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return model.Goal{
		ID:        record[goalColID],
		AccountID: record[goalColAccount],
		Title:     record[goalColTitle],
		Target:    target,
		CreatedAt: created,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return ""
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing decimal %q: %w", s, err)
	}
	return d, nil
}
