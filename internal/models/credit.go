package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credit application statuses.
const (
	ApplicationPending  = "PENDING"
	ApplicationApproved = "APPROVED"
	ApplicationRejected = "REJECTED"
)

// Credit statuses.
const (
	CreditApproved = "APPROVED"
	CreditPaid     = "PAID"
)

// CreditApplication is a user's request for a credit, awaiting an operator
// decision.
type CreditApplication struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Purpose   string          `json:"purpose"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Credit represents an approved credit amortized by fixed monthly payments
// debited from its companion card. Terminal state is PAID once
// RemainingAmount reaches zero.
type Credit struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	CardID          int64           `json:"card_id"`
	Amount          decimal.Decimal `json:"amount"`
	InterestRate    decimal.Decimal `json:"interest_rate"` // annual, percent
	TermMonths      int             `json:"term_months"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
