package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeSaving   AccountType = "saving"
	AccountTypeSpending AccountType = "spending"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountTypeSaving || t == AccountTypeSpending
}

// Account is the root record; transactions, resets and goals refer to it by ID.
type Account struct {
	ID                string          `json:"id"`
	Name              string          `json:"name" validate:"required"`
	Type              AccountType     `json:"type" validate:"account_type"`
	Number            string          `json:"number,omitempty"`
	HasInterest       bool            `json:"has_interest,omitempty"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	InterestFrequency Frequency       `json:"interest_frequency,omitempty" validate:"omitempty,frequency"`
	CreatedAt         time.Time       `json:"created_at"`
}
