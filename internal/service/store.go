package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkazlouski/budget-bank/internal/models"
)

// Store is the persistence surface the service depends on. The repository
// package implements it over database/sql; tests implement it in memory.
//
// InTx runs fn against a store whose operations share one transaction.
// Returning an error from fn rolls everything back.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)

	CreateCard(ctx context.Context, card *models.Card) error
	CardByID(ctx context.Context, id int64) (*models.Card, error)
	CardByAccountNo(ctx context.Context, accountNo string) (*models.Card, error)
	CardsByUser(ctx context.Context, userID int64) ([]*models.Card, error)
	UpdateCardBalances(ctx context.Context, card *models.Card) error
	CardsWithBudget(ctx context.Context) ([]*models.Card, error)
	CardsWithStaleDeposits(ctx context.Context, before time.Time) ([]*models.Card, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	PaymentsByCard(ctx context.Context, cardID int64) ([]*models.Payment, error)

	CreatePolicy(ctx context.Context, policy *models.BudgetSystem) error
	UpdatePolicy(ctx context.Context, policy *models.BudgetSystem) error
	DeletePolicy(ctx context.Context, cardID int64) error
	PolicyByCard(ctx context.Context, cardID int64) (*models.BudgetSystem, error)

	CreateApplication(ctx context.Context, app *models.CreditApplication) error
	ApplicationByID(ctx context.Context, id int64) (*models.CreditApplication, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status string) error
	CreateCredit(ctx context.Context, credit *models.Credit) error
	ActiveCredits(ctx context.Context) ([]*models.Credit, error)
	UpdateCredit(ctx context.Context, credit *models.Credit) error

	// ClaimJobRun atomically records an idempotency key, reporting whether
	// this caller claimed it. A false return means the keyed work was already
	// applied.
	ClaimJobRun(ctx context.Context, key string) (bool, error)
}

// RateSource provides the current USD rate in local currency.
type RateSource interface {
	USDRate(ctx context.Context) (decimal.Decimal, error)
}

// Notifier sends user-facing notices. A nil Notifier disables notifications.
type Notifier interface {
	SendDepositDecision(to, username string, approved bool, amount decimal.Decimal) error
	SendPaymentReminder(to, username string, amount decimal.Decimal, shortfall bool) error
}
