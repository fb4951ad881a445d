package service

import (
	"context"
	"time"

	"payouts/events"
	"payouts/models"
)

// CommissionSettingRepository defines data access for commission rate records
type CommissionSettingRepository interface {
	// ListActive returns every active setting; the resolver filters by date
	ListActive(ctx context.Context) ([]*models.CommissionSetting, error)

	// List returns all settings ordered by applicable_from
	List(ctx context.Context) ([]*models.CommissionSetting, error)

	GetByID(ctx context.Context, id int64) (*models.CommissionSetting, error)
	Create(ctx context.Context, setting *models.CommissionSetting) error
	Update(ctx context.Context, setting *models.CommissionSetting) error
	Delete(ctx context.Context, id int64) error
}

// PaymentRepository defines read-only access to article sale payments
type PaymentRepository interface {
	// ListSuccessful returns successful payments of a seller with paid_at in [from, to)
	ListSuccessful(ctx context.Context, userID int64, from, to time.Time) ([]*models.Payment, error)

	// ListSellers returns the distinct sellers with successful payments in [from, to)
	ListSellers(ctx context.Context, from, to time.Time) ([]int64, error)
}

// PayoutRepository defines data access for payout records
type PayoutRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Payout, error)

	// GetForUpdate serializes work on the author and returns the row for the
	// period, locking it
	GetForUpdate(ctx context.Context, userID int64, period models.Period) (*models.Payout, error)

	// GetLatestBefore returns the author's most recent row with period < before
	GetLatestBefore(ctx context.Context, userID int64, before models.Period) (*models.Payout, error)

	// ExistsAfter reports whether the author has a row with period > after
	ExistsAfter(ctx context.Context, userID int64, after models.Period) (bool, error)

	// ListAuthorsWithCarryOver returns authors whose latest row before the
	// period still holds a positive carry-over
	ListAuthorsWithCarryOver(ctx context.Context, before models.Period) ([]int64, error)

	// ListAuthorsForPeriod returns authors holding a non-terminal row for the period
	ListAuthorsForPeriod(ctx context.Context, period models.Period) ([]int64, error)

	// Upsert inserts or overwrites the (user_id, period) row. Rows in a
	// terminal state are never overwritten; applied reports whether the write happened.
	Upsert(ctx context.Context, payout *models.Payout) (applied bool, err error)

	// TransitionStatus moves a row from one status to another only if it is
	// still in the expected status. It returns the updated row or nil.
	TransitionStatus(ctx context.Context, id int64, from, to models.PayoutStatus, at time.Time, note string) (*models.Payout, error)

	// DeleteIfStatus removes a row only while it is in one of the given statuses
	DeleteIfStatus(ctx context.Context, id int64, statuses ...models.PayoutStatus) (bool, error)

	List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error)
}

// PayoutRunRepository stores monthly processing history
type PayoutRunRepository interface {
	GetByPeriod(ctx context.Context, period models.Period) (*models.PayoutRun, error)
	GetLatest(ctx context.Context) (*models.PayoutRun, error)

	// Save creates the run or replaces the existing run for the same period
	Save(ctx context.Context, run *models.PayoutRun) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	CommissionSettingRepository() CommissionSettingRepository
	PaymentRepository() PaymentRepository
	PayoutRepository() PayoutRepository
	PayoutRunRepository() PayoutRunRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// PayoutMetrics receives counters from payout processing
type PayoutMetrics interface {
	RecordPayoutOutcome(outcome string)
	RecordPayoutAmount(status string, amount int64)
	RecordConfirmation(result string)
	RecordMonthProcessed(period string, duration time.Duration)
}

// PayoutService defines the payout record manager
type PayoutService interface {
	// ProcessMonth computes and upserts payouts for every eligible author
	ProcessMonth(ctx context.Context, period models.Period) (*ProcessMonthReport, error)

	// Confirm marks a single unpaid payout as paid
	Confirm(ctx context.Context, id int64) (*models.Payout, error)

	// BulkConfirm confirms each id independently and reports per-item outcomes
	BulkConfirm(ctx context.Context, ids []int64) (*BulkConfirmReport, error)

	// MarkFailed records a failed transfer for an unpaid payout
	MarkFailed(ctx context.Context, id int64, reason string) (*models.Payout, error)

	// Delete removes a payout that has not been confirmed
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error)
	ListByAuthor(ctx context.Context, userID int64) ([]*models.Payout, error)

	// CarryOverBalance returns the balance an author carries into period
	CarryOverBalance(ctx context.Context, userID int64, period models.Period) (*CarryOverView, error)

	LatestRun(ctx context.Context) (*models.PayoutRun, error)
	RunForPeriod(ctx context.Context, period models.Period) (*models.PayoutRun, error)
}

// CommissionSettingService defines commission rate administration
type CommissionSettingService interface {
	List(ctx context.Context) ([]*models.CommissionSetting, error)
	Create(ctx context.Context, input CommissionSettingInput) (*models.CommissionSetting, error)
	Update(ctx context.Context, id int64, input CommissionSettingInput) (*models.CommissionSetting, error)
	Delete(ctx context.Context, id int64) error

	// ResolveForPeriod returns the rate applied to period
	ResolveForPeriod(ctx context.Context, period models.Period) (*CommissionResolution, error)
}
