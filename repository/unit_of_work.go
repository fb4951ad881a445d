package repository

import (
	"context"
	"fmt"

	"payouts/database"
	"payouts/events"
	"payouts/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                    *database.DB
	tx                    pgx.Tx
	ctx                   context.Context
	transactionalBus      *events.TransactionalBus
	commissionSettingRepo service.CommissionSettingRepository
	paymentRepo           service.PaymentRepository
	payoutRepo            service.PayoutRepository
	payoutRunRepo         service.PayoutRunRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.commissionSettingRepo = newCommissionSettingRepositoryWithTx(tx)
	u.paymentRepo = newPaymentRepositoryWithTx(tx)
	u.payoutRepo = newPayoutRepositoryWithTx(tx)
	u.payoutRunRepo = newPayoutRunRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction. It is a no-op after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// CommissionSettingRepository returns the commission setting repository for this unit of work
func (u *unitOfWork) CommissionSettingRepository() service.CommissionSettingRepository {
	if u.commissionSettingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.commissionSettingRepo
}

// PaymentRepository returns the payment repository for this unit of work
func (u *unitOfWork) PaymentRepository() service.PaymentRepository {
	if u.paymentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.paymentRepo
}

// PayoutRepository returns the payout repository for this unit of work
func (u *unitOfWork) PayoutRepository() service.PayoutRepository {
	if u.payoutRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.payoutRepo
}

// PayoutRunRepository returns the payout run repository for this unit of work
func (u *unitOfWork) PayoutRunRepository() service.PayoutRunRepository {
	if u.payoutRunRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.payoutRunRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
