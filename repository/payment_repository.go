package repository

import (
	"context"
	"fmt"
	"time"

	"payouts/database"
	"payouts/infrastructure/observability"
	"payouts/models"
)

// PaymentRepository reads article sales. The payments table belongs to the
// sales subsystem; this repository never writes to it.
type PaymentRepository struct {
	q queryable
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

// newPaymentRepositoryWithTx creates a new payment repository with a transaction
func newPaymentRepositoryWithTx(tx queryable) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// ListSuccessful returns the seller's successful payments with paid_at in [from, to)
func (r *PaymentRepository) ListSuccessful(ctx context.Context, userID int64, from, to time.Time) ([]*models.Payment, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayment, "ListSuccessful")()

	query := `
		SELECT id, article_id, user_id, amount, status, paid_at, created_at
		FROM payments
		WHERE user_id = $1
			AND status = 'success'
			AND paid_at IS NOT NULL
			AND paid_at >= $2
			AND paid_at < $3
		ORDER BY paid_at, id
	`

	rows, err := r.q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for user %d: %w", userID, err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.ArticleID, &p.UserID, &p.Amount, &p.Status, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// ListSellers returns the distinct sellers with a successful payment in [from, to)
func (r *PaymentRepository) ListSellers(ctx context.Context, from, to time.Time) ([]int64, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayment, "ListSellers")()

	query := `
		SELECT DISTINCT user_id
		FROM payments
		WHERE status = 'success'
			AND paid_at IS NOT NULL
			AND paid_at >= $1
			AND paid_at < $2
		ORDER BY user_id
	`

	return queryIDs(ctx, r.q, query, from, to)
}

// queryIDs collects a single BIGINT column
func queryIDs(ctx context.Context, q queryable, query string, args ...any) ([]int64, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}

	return ids, nil
}
