package repository

import (
	"context"
	"fmt"

	"payouts/database"
	"payouts/infrastructure/observability"
	"payouts/models"

	"github.com/jackc/pgx/v5"
)

// CommissionSettingRepository implements the CommissionSettingRepository interface
type CommissionSettingRepository struct {
	q queryable
}

// NewCommissionSettingRepository creates a new commission setting repository
func NewCommissionSettingRepository(db *database.DB) *CommissionSettingRepository {
	return &CommissionSettingRepository{q: db.Pool}
}

// newCommissionSettingRepositoryWithTx creates a new commission setting repository with a transaction
func newCommissionSettingRepositoryWithTx(tx queryable) *CommissionSettingRepository {
	return &CommissionSettingRepository{q: tx}
}

const commissionSettingColumns = `
	id, rate, applicable_from, applicable_to, is_active, description, created_at, updated_at
`

// ListActive returns every active setting, newest start first
func (r *CommissionSettingRepository) ListActive(ctx context.Context) ([]*models.CommissionSetting, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryCommissionSetting, "ListActive")()

	query := `SELECT ` + commissionSettingColumns + `
		FROM commission_settings
		WHERE is_active
		ORDER BY applicable_from DESC, id DESC
	`
	return r.list(ctx, query)
}

// List returns every setting, active or not, oldest start first
func (r *CommissionSettingRepository) List(ctx context.Context) ([]*models.CommissionSetting, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryCommissionSetting, "List")()

	query := `SELECT ` + commissionSettingColumns + `
		FROM commission_settings
		ORDER BY applicable_from, id
	`
	return r.list(ctx, query)
}

func (r *CommissionSettingRepository) list(ctx context.Context, query string) ([]*models.CommissionSetting, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission settings: %w", err)
	}
	defer rows.Close()

	var settings []*models.CommissionSetting
	for rows.Next() {
		setting, err := scanCommissionSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commission settings: %w", err)
	}

	return settings, nil
}

// GetByID returns a setting or nil if it does not exist
func (r *CommissionSettingRepository) GetByID(ctx context.Context, id int64) (*models.CommissionSetting, error) {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryCommissionSetting, "GetByID")()

	query := `SELECT ` + commissionSettingColumns + `
		FROM commission_settings
		WHERE id = $1
	`

	setting, err := scanCommissionSetting(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commission setting %d: %w", id, err)
	}
	return setting, nil
}

// Create inserts a setting and fills in its generated fields
func (r *CommissionSettingRepository) Create(ctx context.Context, setting *models.CommissionSetting) error {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryCommissionSetting, "Create")()

	query := `
		INSERT INTO commission_settings (rate, applicable_from, applicable_to, is_active, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		setting.Rate,
		setting.ApplicableFrom,
		setting.ApplicableTo,
		setting.IsActive,
		setting.Description,
	).Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create commission setting: %w", err)
	}

	return nil
}

// Update overwrites a setting's editable fields
func (r *CommissionSettingRepository) Update(ctx context.Context, setting *models.CommissionSetting) error {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryCommissionSetting, "Update")()

	query := `
		UPDATE commission_settings
		SET rate = $2,
			applicable_from = $3,
			applicable_to = $4,
			is_active = $5,
			description = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		setting.ID,
		setting.Rate,
		setting.ApplicableFrom,
		setting.ApplicableTo,
		setting.IsActive,
		setting.Description,
	).Scan(&setting.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("commission setting %d not found", setting.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update commission setting %d: %w", setting.ID, err)
	}

	return nil
}

// Delete removes a setting
func (r *CommissionSettingRepository) Delete(ctx context.Context, id int64) error {
	defer observability.GetMetrics().MeasureDatabaseQuery(observability.RepositoryCommissionSetting, "Delete")()

	if _, err := r.q.Exec(ctx, `DELETE FROM commission_settings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete commission setting %d: %w", id, err)
	}
	return nil
}

func scanCommissionSetting(row pgx.Row) (*models.CommissionSetting, error) {
	var setting models.CommissionSetting
	err := row.Scan(
		&setting.ID,
		&setting.Rate,
		&setting.ApplicableFrom,
		&setting.ApplicableTo,
		&setting.IsActive,
		&setting.Description,
		&setting.CreatedAt,
		&setting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &setting, nil
}
