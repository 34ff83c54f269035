package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/currency"
)

// CardType distinguishes debit and credit cards.
type CardType string

const (
	TypeDebit  CardType = "D"
	TypeCredit CardType = "C"
)

// Valid reports whether the card type is known.
func (t CardType) Valid() bool {
	return t == TypeDebit || t == TypeCredit
}

// Card represents a bank card and its monetary state. Balance fields are
// mutated only through ledger operations inside a transaction.
type Card struct {
	ID                   int64           `json:"id"`
	UserID               int64           `json:"user_id"`
	CardName             string          `json:"card_name"`
	AccountNo            string          `json:"account_no"`
	Balance              decimal.Decimal `json:"balance"`
	DailyBalance         decimal.Decimal `json:"daily_balance"`
	FixatedSum           decimal.Decimal `json:"fixated_sum"`
	PendingDepositAmount decimal.Decimal `json:"pending_deposit_amount"`
	IsDepositAllowed     bool            `json:"is_deposit_allowed"`
	DepositPending       bool            `json:"deposit_pending"`
	DepositRequestedAt   *time.Time      `json:"deposit_requested_at,omitempty"`
	UsingSystem          bool            `json:"using_system"`
	CVVHash              string          `json:"-"` // Not serialized
	CardType             CardType        `json:"card_type"`
	Currency             currency.Code   `json:"currency"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
