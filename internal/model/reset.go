package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceReset records the absolute balance of an account at a point in time.
// Projections anchor to the latest reset instead of summing from inception.
type BalanceReset struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id" validate:"required"`
	Date      time.Time       `json:"date" validate:"required"`
	Balance   decimal.Decimal `json:"balance"`
	IsInitial bool            `json:"is_initial,omitempty"`
}

// Goal is a target balance for an account.
type Goal struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id" validate:"required"`
	Title     string          `json:"title" validate:"required"`
	Target    decimal.Decimal `json:"target"`
	CreatedAt time.Time       `json:"created_at"`
}
