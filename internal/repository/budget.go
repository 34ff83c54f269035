package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mkazlouski/budget-bank/internal/models"
	"github.com/mkazlouski/budget-bank/internal/service"
)

// CreatePolicy inserts a card's budgeting policy. The unique constraint on
// card_id backs the single-policy-per-card invariant.
func (r *Repository) CreatePolicy(ctx context.Context, policy *models.BudgetSystem) error {
	query := `
		INSERT INTO bank.budget_systems (user_id, name, description, card_id, savings_card_id,
			daily_control, daily_percent, daily_redirect, savings_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, query,
		policy.UserID, policy.Name, policy.Description, policy.CardID, policy.SavingsCardID,
		policy.DailyControl, policy.DailyPercent, policy.DailyRedirect, policy.SavingsPercent).
		Scan(&policy.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return service.ErrPolicyExists
		}
		return fmt.Errorf("failed to create budget policy: %w", err)
	}
	return nil
}

// UpdatePolicy replaces a card's policy settings
func (r *Repository) UpdatePolicy(ctx context.Context, policy *models.BudgetSystem) error {
	query := `
		UPDATE bank.budget_systems
		SET name = $2, description = $3, savings_card_id = $4, daily_control = $5,
			daily_percent = $6, daily_redirect = $7, savings_percent = $8
		WHERE card_id = $1`
	res, err := r.q.ExecContext(ctx, query, policy.CardID,
		policy.Name, policy.Description, policy.SavingsCardID, policy.DailyControl,
		policy.DailyPercent, policy.DailyRedirect, policy.SavingsPercent)
	if err != nil {
		return fmt.Errorf("failed to update budget policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return service.ErrPolicyNotFound
	}
	return nil
}

// DeletePolicy removes a card's policy
func (r *Repository) DeletePolicy(ctx context.Context, cardID int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM bank.budget_systems WHERE card_id = $1`, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete budget policy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return service.ErrPolicyNotFound
	}
	return nil
}

// PolicyByCard retrieves the policy attached to a card
func (r *Repository) PolicyByCard(ctx context.Context, cardID int64) (*models.BudgetSystem, error) {
	policy := &models.BudgetSystem{}
	query := `
		SELECT id, user_id, name, description, card_id, savings_card_id,
			daily_control, daily_percent, daily_redirect, savings_percent
		FROM bank.budget_systems
		WHERE card_id = $1`
	err := r.q.QueryRowContext(ctx, query, cardID).
		Scan(&policy.ID, &policy.UserID, &policy.Name, &policy.Description, &policy.CardID,
			&policy.SavingsCardID, &policy.DailyControl, &policy.DailyPercent,
			&policy.DailyRedirect, &policy.SavingsPercent)
	if err == sql.ErrNoRows {
		return nil, service.ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find budget policy: %w", err)
	}
	return policy, nil
}
