package service

import (
	"context"

	"payouts/models"

	"github.com/stretchr/testify/mock"
)

// MockPayoutService is a mock implementation of PayoutService
type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) ProcessMonth(ctx context.Context, period models.Period) (*ProcessMonthReport, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProcessMonthReport), args.Error(1)
}

func (m *MockPayoutService) Confirm(ctx context.Context, id int64) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutService) BulkConfirm(ctx context.Context, ids []int64) (*BulkConfirmReport, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BulkConfirmReport), args.Error(1)
}

func (m *MockPayoutService) MarkFailed(ctx context.Context, id int64, reason string) (*models.Payout, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPayoutService) List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payout), args.Error(1)
}

func (m *MockPayoutService) ListByAuthor(ctx context.Context, userID int64) ([]*models.Payout, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payout), args.Error(1)
}

func (m *MockPayoutService) CarryOverBalance(ctx context.Context, userID int64, period models.Period) (*CarryOverView, error) {
	args := m.Called(ctx, userID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CarryOverView), args.Error(1)
}

func (m *MockPayoutService) LatestRun(ctx context.Context) (*models.PayoutRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutRun), args.Error(1)
}

func (m *MockPayoutService) RunForPeriod(ctx context.Context, period models.Period) (*models.PayoutRun, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutRun), args.Error(1)
}

// MockCommissionSettingService is a mock implementation of CommissionSettingService
type MockCommissionSettingService struct {
	mock.Mock
}

func (m *MockCommissionSettingService) List(ctx context.Context) ([]*models.CommissionSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommissionSetting), args.Error(1)
}

func (m *MockCommissionSettingService) Create(ctx context.Context, input CommissionSettingInput) (*models.CommissionSetting, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionSetting), args.Error(1)
}

func (m *MockCommissionSettingService) Update(ctx context.Context, id int64, input CommissionSettingInput) (*models.CommissionSetting, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionSetting), args.Error(1)
}

func (m *MockCommissionSettingService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommissionSettingService) ResolveForPeriod(ctx context.Context, period models.Period) (*CommissionResolution, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CommissionResolution), args.Error(1)
}
