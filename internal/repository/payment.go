package repository

import (
	"context"
	"fmt"

	"github.com/mkazlouski/budget-bank/internal/models"
)

// CreatePayment inserts an immutable audit record
func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO bank.payments (card_id, amount, currency, card_type, reference, deposit_pending, ts)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, ts`
	err := r.q.QueryRowContext(ctx, query,
		payment.CardID, payment.Amount, payment.Currency, payment.CardType,
		payment.Reference, payment.DepositPending).
		Scan(&payment.ID, &payment.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// PaymentsByCard lists a card's payments, newest first
func (r *Repository) PaymentsByCard(ctx context.Context, cardID int64) ([]*models.Payment, error) {
	query := `
		SELECT id, card_id, amount, currency, card_type, reference, deposit_pending, ts
		FROM bank.payments
		WHERE card_id = $1
		ORDER BY ts DESC, id DESC`
	rows, err := r.q.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.CardID, &p.Amount, &p.Currency, &p.CardType,
			&p.Reference, &p.DepositPending, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
