package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mkazlouski/budget-bank/internal/models"
	"github.com/mkazlouski/budget-bank/internal/service"
)

const cardColumns = `id, user_id, card_name, account_no, balance, daily_balance,
	fixated_sum, pending_deposit_amount, is_deposit_allowed, deposit_pending,
	deposit_requested_at, using_system, cvv_hash, card_type, currency,
	created_at, updated_at`

// CreateCard creates a new card in the database
func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO bank.cards (user_id, card_name, account_no, balance, daily_balance,
			fixated_sum, pending_deposit_amount, is_deposit_allowed, deposit_pending,
			using_system, cvv_hash, card_type, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query,
		card.UserID, card.CardName, card.AccountNo, card.Balance, card.DailyBalance,
		card.FixatedSum, card.PendingDepositAmount, card.IsDepositAllowed, card.DepositPending,
		card.UsingSystem, card.CVVHash, card.CardType, card.Currency).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// CardByID retrieves a card by id
func (r *Repository) CardByID(ctx context.Context, id int64) (*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM bank.cards WHERE id = $1`, cardColumns)
	return r.scanCard(r.q.QueryRowContext(ctx, query, id))
}

// CardByAccountNo retrieves a card by its account number
func (r *Repository) CardByAccountNo(ctx context.Context, accountNo string) (*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM bank.cards WHERE account_no = $1`, cardColumns)
	return r.scanCard(r.q.QueryRowContext(ctx, query, accountNo))
}

// CardsByUser lists a user's cards
func (r *Repository) CardsByUser(ctx context.Context, userID int64) ([]*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM bank.cards WHERE user_id = $1 ORDER BY id`, cardColumns)
	return r.queryCards(ctx, query, userID)
}

// UpdateCardBalances persists a card's monetary and deposit state
func (r *Repository) UpdateCardBalances(ctx context.Context, card *models.Card) error {
	query := `
		UPDATE bank.cards
		SET balance = $2, daily_balance = $3, fixated_sum = $4,
			pending_deposit_amount = $5, is_deposit_allowed = $6,
			deposit_pending = $7, deposit_requested_at = $8, using_system = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query, card.ID,
		card.Balance, card.DailyBalance, card.FixatedSum,
		card.PendingDepositAmount, card.IsDepositAllowed,
		card.DepositPending, card.DepositRequestedAt, card.UsingSystem)
	if err != nil {
		return fmt.Errorf("failed to update card %d: %w", card.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return service.ErrCardNotFound
	}
	return nil
}

// CardsWithBudget lists all cards with budgeting enabled
func (r *Repository) CardsWithBudget(ctx context.Context) ([]*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM bank.cards WHERE using_system = TRUE ORDER BY id`, cardColumns)
	return r.queryCards(ctx, query)
}

// CardsWithStaleDeposits lists cards whose deposit request predates before
func (r *Repository) CardsWithStaleDeposits(ctx context.Context, before time.Time) ([]*models.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bank.cards
		WHERE deposit_pending = TRUE
		  AND pending_deposit_amount > 0
		  AND deposit_requested_at <= $1
		ORDER BY id`, cardColumns)
	return r.queryCards(ctx, query, before)
}

func (r *Repository) queryCards(ctx context.Context, query string, args ...any) ([]*models.Card, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := r.scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return cards, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	err := row.Scan(&card.ID, &card.UserID, &card.CardName, &card.AccountNo,
		&card.Balance, &card.DailyBalance, &card.FixatedSum, &card.PendingDepositAmount,
		&card.IsDepositAllowed, &card.DepositPending, &card.DepositRequestedAt,
		&card.UsingSystem, &card.CVVHash, &card.CardType, &card.Currency,
		&card.CreatedAt, &card.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, service.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}
	return card, nil
}
