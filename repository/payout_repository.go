package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"payouts/database"
	"payouts/infrastructure/observability"
	"payouts/models"

	"github.com/jackc/pgx/v5"
)

// PayoutRepository implements the PayoutRepository interface
type PayoutRepository struct {
	q queryable
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *database.DB) *PayoutRepository {
	return &PayoutRepository{q: db.Pool}
}

// newPayoutRepositoryWithTx creates a new payout repository with a transaction
func newPayoutRepositoryWithTx(tx queryable) *PayoutRepository {
	return &PayoutRepository{q: tx}
}

// authorLockNamespace keeps payout advisory locks apart from other users of
// the bigint advisory key space
const authorLockNamespace int64 = 0x5041590000000000

func authorLockKey(userID int64) int64 {
	return authorLockNamespace ^ userID
}

const payoutColumns = `
	id, user_id, period, gross_amount, payment_count, commission_rate,
	commission_amount, net_amount, carried_in, amount, carry_over,
	status, paid_at, note, created_at, updated_at
`

// GetByID returns a payout or nil if it does not exist
func (r *PayoutRepository) GetByID(ctx context.Context, id int64) (*models.Payout, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "GetByID")()

	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout %d: %w", id, err)
	}
	return payout, nil
}

// GetForUpdate takes the author's transaction-scoped advisory lock, then
// returns the author's row for period locked for update. Processing of one
// author's periods is serialized until the holding transaction ends.
func (r *PayoutRepository) GetForUpdate(ctx context.Context, userID int64, period models.Period) (*models.Payout, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "GetForUpdate")()

	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, authorLockKey(userID)); err != nil {
		return nil, fmt.Errorf("failed to lock payouts of user %d: %w", userID, err)
	}

	query := `SELECT ` + payoutColumns + `
		FROM payouts
		WHERE user_id = $1 AND period = $2
		FOR UPDATE
	`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, userID, period.String()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout for user %d period %s: %w", userID, period, err)
	}
	return payout, nil
}

// GetLatestBefore returns the author's most recent row strictly before period
func (r *PayoutRepository) GetLatestBefore(ctx context.Context, userID int64, before models.Period) (*models.Payout, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "GetLatestBefore")()

	query := `SELECT ` + payoutColumns + `
		FROM payouts
		WHERE user_id = $1 AND period < $2
		ORDER BY period DESC
		LIMIT 1
	`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, userID, before.String()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout before %s for user %d: %w", before, userID, err)
	}
	return payout, nil
}

// ExistsAfter reports whether the author has a row for any period after the given one
func (r *PayoutRepository) ExistsAfter(ctx context.Context, userID int64, after models.Period) (bool, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "ExistsAfter")()

	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payouts WHERE user_id = $1 AND period > $2)`,
		userID, after.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check payouts after %s for user %d: %w", after, userID, err)
	}
	return exists, nil
}

// ListAuthorsWithCarryOver returns authors whose latest row before the
// period still carries a balance
func (r *PayoutRepository) ListAuthorsWithCarryOver(ctx context.Context, before models.Period) ([]int64, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "ListAuthorsWithCarryOver")()

	query := `
		SELECT user_id
		FROM (
			SELECT DISTINCT ON (user_id) user_id, carry_over
			FROM payouts
			WHERE period < $1
			ORDER BY user_id, period DESC
		) latest
		WHERE carry_over > 0
		ORDER BY user_id
	`

	ids, err := queryIDs(ctx, r.q, query, before.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list authors with carry-over before %s: %w", before, err)
	}
	return ids, nil
}

// ListAuthorsForPeriod returns authors holding an unconfirmed row for period
func (r *PayoutRepository) ListAuthorsForPeriod(ctx context.Context, period models.Period) ([]int64, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "ListAuthorsForPeriod")()

	query := `
		SELECT user_id
		FROM payouts
		WHERE period = $1 AND status IN ('unpaid', 'carried_over')
		ORDER BY user_id
	`

	ids, err := queryIDs(ctx, r.q, query, period.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list authors for %s: %w", period, err)
	}
	return ids, nil
}

// Upsert inserts or overwrites the (user_id, period) row. Rows already paid
// or failed are left untouched and applied is false.
func (r *PayoutRepository) Upsert(ctx context.Context, payout *models.Payout) (bool, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "Upsert")()

	query := `
		INSERT INTO payouts (
			user_id, period, gross_amount, payment_count, commission_rate,
			commission_amount, net_amount, carried_in, amount, carry_over,
			status, paid_at, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT ON CONSTRAINT payouts_user_period_key DO UPDATE
		SET gross_amount = EXCLUDED.gross_amount,
			payment_count = EXCLUDED.payment_count,
			commission_rate = EXCLUDED.commission_rate,
			commission_amount = EXCLUDED.commission_amount,
			net_amount = EXCLUDED.net_amount,
			carried_in = EXCLUDED.carried_in,
			amount = EXCLUDED.amount,
			carry_over = EXCLUDED.carry_over,
			status = EXCLUDED.status,
			paid_at = EXCLUDED.paid_at,
			note = EXCLUDED.note,
			updated_at = NOW()
		WHERE payouts.status IN ('unpaid', 'carried_over')
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		payout.UserID,
		payout.Period.String(),
		payout.GrossAmount,
		payout.PaymentCount,
		payout.CommissionRate,
		payout.CommissionAmount,
		payout.NetAmount,
		payout.CarriedIn,
		payout.Amount,
		payout.CarryOver,
		string(payout.Status),
		payout.PaidAt,
		payout.Note,
	).Scan(&payout.ID, &payout.CreatedAt, &payout.UpdatedAt)

	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert payout for user %d period %s: %w", payout.UserID, payout.Period, err)
	}
	return true, nil
}

// TransitionStatus moves a row from one status to another in a single
// conditional update. It returns nil when the row is missing or not in from.
func (r *PayoutRepository) TransitionStatus(ctx context.Context, id int64, from, to models.PayoutStatus, at time.Time, note string) (*models.Payout, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "TransitionStatus")()

	query := `
		UPDATE payouts
		SET status = $3::varchar,
			paid_at = CASE WHEN $3::varchar = 'paid' THEN $4::timestamptz ELSE paid_at END,
			note = CASE WHEN $5::text <> '' THEN $5::text ELSE note END,
			updated_at = $4::timestamptz
		WHERE id = $1 AND status = $2
		RETURNING ` + payoutColumns

	payout, err := scanPayout(r.q.QueryRow(ctx, query, id, string(from), string(to), at, note))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition payout %d to %s: %w", id, to, err)
	}
	return payout, nil
}

// DeleteIfStatus deletes the row only while it is in one of statuses
func (r *PayoutRepository) DeleteIfStatus(ctx context.Context, id int64, statuses ...models.PayoutStatus) (bool, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "DeleteIfStatus")()

	allowed := make([]string, len(statuses))
	for i, s := range statuses {
		allowed[i] = string(s)
	}

	tag, err := r.q.Exec(ctx, `DELETE FROM payouts WHERE id = $1 AND status = ANY($2)`, id, allowed)
	if err != nil {
		return false, fmt.Errorf("failed to delete payout %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns rows matching filter, newest period first
func (r *PayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayout, "List")()

	var conditions []string
	var args []any

	if filter.Period != nil {
		args = append(args, filter.Period.String())
		conditions = append(conditions, fmt.Sprintf("period = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}

	query := `SELECT ` + payoutColumns + ` FROM payouts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY period DESC, user_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*models.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payouts: %w", err)
	}

	return payouts, nil
}

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var payout models.Payout
	var period, status string

	err := row.Scan(
		&payout.ID,
		&payout.UserID,
		&period,
		&payout.GrossAmount,
		&payout.PaymentCount,
		&payout.CommissionRate,
		&payout.CommissionAmount,
		&payout.NetAmount,
		&payout.CarriedIn,
		&payout.Amount,
		&payout.CarryOver,
		&status,
		&payout.PaidAt,
		&payout.Note,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	payout.Period, err = models.ParsePeriod(strings.TrimSpace(period))
	if err != nil {
		return nil, err
	}
	payout.Status = models.PayoutStatus(status)
	return &payout, nil
}
