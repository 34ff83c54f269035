package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkazlouski/budget-bank/internal/service"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations. It implements service.Store both
// directly over the pool and, inside InTx, over a single transaction.
type Repository struct {
	db *sql.DB
	q  querier
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// InTx runs fn against a repository bound to one transaction, committing on
// success and rolling back on error. Nested calls reuse the open transaction.
func (r *Repository) InTx(ctx context.Context, fn func(service.Store) error) error {
	if _, ok := r.q.(*sql.Tx); ok {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepo := &Repository{db: r.db, q: tx}
	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClaimJobRun records an idempotency key, reporting whether this caller
// claimed it. A duplicate key leaves the table untouched and returns false.
func (r *Repository) ClaimJobRun(ctx context.Context, key string) (bool, error) {
	query := `
		INSERT INTO bank.job_runs (key, applied_at)
		VALUES ($1, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO NOTHING`
	res, err := r.q.ExecContext(ctx, query, key)
	if err != nil {
		return false, fmt.Errorf("failed to claim job run %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n > 0, nil
}
