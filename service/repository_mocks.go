package service

import (
	"context"
	"time"

	"payouts/events"
	"payouts/models"

	"github.com/stretchr/testify/mock"
)

// MockCommissionSettingRepository is a mock implementation of CommissionSettingRepository
type MockCommissionSettingRepository struct {
	mock.Mock
}

func (m *MockCommissionSettingRepository) ListActive(ctx context.Context) ([]*models.CommissionSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommissionSetting), args.Error(1)
}

func (m *MockCommissionSettingRepository) List(ctx context.Context) ([]*models.CommissionSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommissionSetting), args.Error(1)
}

func (m *MockCommissionSettingRepository) GetByID(ctx context.Context, id int64) (*models.CommissionSetting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionSetting), args.Error(1)
}

func (m *MockCommissionSettingRepository) Create(ctx context.Context, setting *models.CommissionSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *MockCommissionSettingRepository) Update(ctx context.Context, setting *models.CommissionSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

func (m *MockCommissionSettingRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) ListSuccessful(ctx context.Context, userID int64, from, to time.Time) ([]*models.Payment, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListSellers(ctx context.Context, from, to time.Time) ([]int64, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockPayoutRepository is a mock implementation of PayoutRepository
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) GetByID(ctx context.Context, id int64) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) GetForUpdate(ctx context.Context, userID int64, period models.Period) (*models.Payout, error) {
	args := m.Called(ctx, userID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) GetLatestBefore(ctx context.Context, userID int64, before models.Period) (*models.Payout, error) {
	args := m.Called(ctx, userID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) ExistsAfter(ctx context.Context, userID int64, after models.Period) (bool, error) {
	args := m.Called(ctx, userID, after)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepository) ListAuthorsWithCarryOver(ctx context.Context, before models.Period) ([]int64, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockPayoutRepository) ListAuthorsForPeriod(ctx context.Context, period models.Period) ([]int64, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockPayoutRepository) Upsert(ctx context.Context, payout *models.Payout) (bool, error) {
	args := m.Called(ctx, payout)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepository) TransitionStatus(ctx context.Context, id int64, from, to models.PayoutStatus, at time.Time, note string) (*models.Payout, error) {
	args := m.Called(ctx, id, from, to, at, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutRepository) DeleteIfStatus(ctx context.Context, id int64, statuses ...models.PayoutStatus) (bool, error) {
	args := m.Called(ctx, id, statuses)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payout), args.Error(1)
}

// MockPayoutRunRepository is a mock implementation of PayoutRunRepository
type MockPayoutRunRepository struct {
	mock.Mock
}

func (m *MockPayoutRunRepository) GetByPeriod(ctx context.Context, period models.Period) (*models.PayoutRun, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutRun), args.Error(1)
}

func (m *MockPayoutRunRepository) GetLatest(ctx context.Context) (*models.PayoutRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutRun), args.Error(1)
}

func (m *MockPayoutRunRepository) Save(ctx context.Context, run *models.PayoutRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock

	commissionSettingRepo CommissionSettingRepository
	paymentRepo           PaymentRepository
	payoutRepo            PayoutRepository
	payoutRunRepo         PayoutRunRepository
	eventBus              EventPublisher
}

// SetRepositories installs the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(commissionSettings CommissionSettingRepository, payments PaymentRepository, payouts PayoutRepository, runs PayoutRunRepository) {
	m.commissionSettingRepo = commissionSettings
	m.paymentRepo = payments
	m.payoutRepo = payouts
	m.payoutRunRepo = runs
}

// SetEventBus installs the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) CommissionSettingRepository() CommissionSettingRepository {
	return m.commissionSettingRepo
}

func (m *MockUnitOfWork) PaymentRepository() PaymentRepository {
	return m.paymentRepo
}

func (m *MockUnitOfWork) PayoutRepository() PayoutRepository {
	return m.payoutRepo
}

func (m *MockUnitOfWork) PayoutRunRepository() PayoutRunRepository {
	return m.payoutRunRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
