package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/currency"
)

// Payment is an immutable audit record of a single balance mutation.
// Amount is signed: negative for debits, positive for credits. Both legs of
// a transfer share one Reference.
type Payment struct {
	ID             int64           `json:"id"`
	CardID         int64           `json:"card_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       currency.Code   `json:"currency"`
	CardType       CardType        `json:"card_type"`
	Reference      uuid.UUID       `json:"reference"`
	DepositPending bool            `json:"deposit_pending"`
	Timestamp      time.Time       `json:"timestamp"`
}
