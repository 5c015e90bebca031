package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digitaltumana/storefront/internal/domain/checkout"
)

var _ checkout.AttemptRecorder = (*AttemptRepository)(nil)

const insertAttempt = `
INSERT INTO checkout_attempts (
    id, subject, seller_count, product_total, shipping_total, grand_total,
    outcome, order_id, error, created_at
) VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const selectAttempts = `
SELECT id::text, subject, seller_count, product_total, shipping_total, grand_total,
       outcome, order_id, error, created_at
FROM checkout_attempts
WHERE subject = $1
ORDER BY created_at DESC, id
LIMIT $2`

// AttemptRepository persists checkout attempts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository returns an AttemptRepository using pool.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Record inserts a.
func (r *AttemptRepository) Record(ctx context.Context, a *checkout.Attempt) error {
	_, err := r.pool.Exec(ctx, insertAttempt,
		a.ID, a.Subject, a.SellerCount,
		a.ProductTotal, a.ShippingTotal, a.GrandTotal,
		string(a.Outcome), a.OrderID, a.Error, a.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert attempt %s", a.ID)
	}
	return nil
}

// Recent returns up to limit attempts of subject, newest first.
func (r *AttemptRepository) Recent(ctx context.Context, subject string, limit int) ([]checkout.Attempt, error) {
	rows, err := r.pool.Query(ctx, selectAttempts, subject, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query attempts")
	}
	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (checkout.Attempt, error) {
		var (
			a       checkout.Attempt
			outcome string
		)
		err := row.Scan(&a.ID, &a.Subject, &a.SellerCount,
			&a.ProductTotal, &a.ShippingTotal, &a.GrandTotal,
			&outcome, &a.OrderID, &a.Error, &a.CreatedAt)
		a.Outcome = checkout.Outcome(outcome)
		return a, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan attempts")
	}
	return attempts, nil
}
