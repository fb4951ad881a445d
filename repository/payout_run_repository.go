package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"payouts/database"
	"payouts/infrastructure/observability"
	"payouts/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PayoutRunRepository implements the PayoutRunRepository interface
type PayoutRunRepository struct {
	q queryable
}

// NewPayoutRunRepository creates a new payout run repository
func NewPayoutRunRepository(db *database.DB) *PayoutRunRepository {
	return &PayoutRunRepository{q: db.Pool}
}

// newPayoutRunRepositoryWithTx creates a new payout run repository with a transaction
func newPayoutRunRepositoryWithTx(tx queryable) *PayoutRunRepository {
	return &PayoutRunRepository{q: tx}
}

const payoutRunColumns = `
	id, period, commission_rate, authors_processed, authors_failed,
	total_payable, total_carry_over, execution_summary, created_at, updated_at
`

// GetByPeriod returns the run stored for a period, or nil
func (r *PayoutRunRepository) GetByPeriod(ctx context.Context, period models.Period) (*models.PayoutRun, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayoutRun, "GetByPeriod")()

	query := `SELECT ` + payoutRunColumns + ` FROM payout_runs WHERE period = $1`

	run, err := scanPayoutRun(r.q.QueryRow(ctx, query, period.String()))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout run for %s: %w", period, err)
	}
	return run, nil
}

// GetLatest returns the run for the most recent period
func (r *PayoutRunRepository) GetLatest(ctx context.Context) (*models.PayoutRun, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayoutRun, "GetLatest")()

	query := `SELECT ` + payoutRunColumns + `
		FROM payout_runs
		ORDER BY period DESC
		LIMIT 1
	`

	run, err := scanPayoutRun(r.q.QueryRow(ctx, query))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest payout run: %w", err)
	}
	return run, nil
}

// Save stores the run for its period, replacing an earlier run of the same period
func (r *PayoutRunRepository) Save(ctx context.Context, run *models.PayoutRun) error {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryPayoutRun, "Save")()

	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	var rate decimal.NullDecimal
	if run.CommissionRate != nil {
		rate = decimal.NewNullDecimal(*run.CommissionRate)
	}

	query := `
		INSERT INTO payout_runs
		(period, commission_rate, authors_processed, authors_failed,
		 total_payable, total_carry_over, execution_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (period) DO UPDATE
		SET commission_rate = EXCLUDED.commission_rate,
			authors_processed = EXCLUDED.authors_processed,
			authors_failed = EXCLUDED.authors_failed,
			total_payable = EXCLUDED.total_payable,
			total_carry_over = EXCLUDED.total_carry_over,
			execution_summary = EXCLUDED.execution_summary,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		run.Period.String(),
		rate,
		run.AuthorsProcessed,
		run.AuthorsFailed,
		run.TotalPayable,
		run.TotalCarryOver,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save payout run for %s: %w", run.Period, err)
	}

	return nil
}

func scanPayoutRun(row pgx.Row) (*models.PayoutRun, error) {
	var run models.PayoutRun
	var period string
	var rate decimal.NullDecimal
	var summaryJSON []byte

	err := row.Scan(
		&run.ID,
		&period,
		&rate,
		&run.AuthorsProcessed,
		&run.AuthorsFailed,
		&run.TotalPayable,
		&run.TotalCarryOver,
		&summaryJSON,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Period, err = models.ParsePeriod(strings.TrimSpace(period))
	if err != nil {
		return nil, err
	}
	if rate.Valid {
		run.CommissionRate = &rate.Decimal
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}

	return &run, nil
}
