package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkazlouski/budget-bank/internal/models"
	"github.com/mkazlouski/budget-bank/internal/service"
)

// CreateApplication inserts a pending credit application
func (r *Repository) CreateApplication(ctx context.Context, app *models.CreditApplication) error {
	query := `
		INSERT INTO bank.credit_applications (user_id, amount, purpose, status, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query, app.UserID, app.Amount, app.Purpose, app.Status).
		Scan(&app.ID, &app.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create credit application: %w", err)
	}
	return nil
}

// ApplicationByID retrieves a credit application
func (r *Repository) ApplicationByID(ctx context.Context, id int64) (*models.CreditApplication, error) {
	app := &models.CreditApplication{}
	query := `
		SELECT id, user_id, amount, purpose, status, created_at
		FROM bank.credit_applications
		WHERE id = $1`
	err := r.q.QueryRowContext(ctx, query, id).
		Scan(&app.ID, &app.UserID, &app.Amount, &app.Purpose, &app.Status, &app.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, service.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find credit application: %w", err)
	}
	return app, nil
}

// UpdateApplicationStatus flips an application's status
func (r *Repository) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE bank.credit_applications SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update credit application %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return service.ErrApplicationNotFound
	}
	return nil
}

// CreateCredit inserts an approved credit
func (r *Repository) CreateCredit(ctx context.Context, credit *models.Credit) error {
	query := `
		INSERT INTO bank.credits (user_id, card_id, amount, interest_rate, term_months,
			monthly_payment, remaining_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query,
		credit.UserID, credit.CardID, credit.Amount, credit.InterestRate, credit.TermMonths,
		credit.MonthlyPayment, credit.RemainingAmount, credit.Status).
		Scan(&credit.ID, &credit.CreatedAt, &credit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create credit: %w", err)
	}
	return nil
}

// ActiveCredits lists credits still being amortized
func (r *Repository) ActiveCredits(ctx context.Context) ([]*models.Credit, error) {
	query := `
		SELECT id, user_id, card_id, amount, interest_rate, term_months,
			monthly_payment, remaining_amount, status, created_at, updated_at
		FROM bank.credits
		WHERE status = $1
		ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, models.CreditApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to query active credits: %w", err)
	}
	defer rows.Close()

	var credits []*models.Credit
	for rows.Next() {
		c := &models.Credit{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.CardID, &c.Amount, &c.InterestRate,
			&c.TermMonths, &c.MonthlyPayment, &c.RemainingAmount, &c.Status,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		credits = append(credits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credits: %w", err)
	}
	return credits, nil
}

// UpdateCredit persists amortization progress
func (r *Repository) UpdateCredit(ctx context.Context, credit *models.Credit) error {
	query := `
		UPDATE bank.credits
		SET term_months = $2, remaining_amount = $3, status = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.q.ExecContext(ctx, query,
		credit.ID, credit.TermMonths, credit.RemainingAmount, credit.Status)
	if err != nil {
		return fmt.Errorf("failed to update credit %d: %w", credit.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credit %d not found", credit.ID)
	}
	return nil
}
