package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"payouts/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func jst(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, models.JST)
}

func newTestScheduleWorker(payouts PayoutService, now time.Time) *PayoutScheduleWorker {
	w := NewPayoutScheduleWorker(payouts, 1, 3)
	w.now = func() time.Time { return now }
	return w
}

func TestPayoutScheduleWorker_NextRun(t *testing.T) {
	t.Parallel()
	w := NewPayoutScheduleWorker(nil, 1, 3)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before this month's run", jst(2024, 6, 1, 2, 59), jst(2024, 6, 1, 3, 0)},
		{"exactly at run time", jst(2024, 6, 1, 3, 0), jst(2024, 7, 1, 3, 0)},
		{"mid month", jst(2024, 6, 15, 12, 0), jst(2024, 7, 1, 3, 0)},
		{"december rolls the year", jst(2024, 12, 20, 0, 0), jst(2025, 1, 1, 3, 0)},
		// 17:30 UTC on May 31 is already June 1 in JST
		{"utc input", time.Date(2024, 5, 31, 17, 30, 0, 0, time.UTC), jst(2024, 6, 1, 3, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(w.NextRun(tt.now)), "got %v", w.NextRun(tt.now))
		})
	}
}

func TestPayoutScheduleWorker_RunDue(t *testing.T) {
	ctx := context.Background()
	may := models.MustParsePeriod("2024-05")

	t.Run("not yet due", func(t *testing.T) {
		payouts := new(MockPayoutService)
		w := newTestScheduleWorker(payouts, jst(2024, 6, 1, 1, 0))

		report, err := w.RunDue(ctx)
		require.NoError(t, err)
		assert.Nil(t, report)
		payouts.AssertNotCalled(t, "RunForPeriod", mock.Anything, mock.Anything)
	})

	t.Run("processes previous month", func(t *testing.T) {
		payouts := new(MockPayoutService)
		payouts.On("RunForPeriod", ctx, may).Return(nil, nil)
		payouts.On("ProcessMonth", ctx, may).Return(&ProcessMonthReport{Period: may, Payable: 3}, nil)

		w := newTestScheduleWorker(payouts, jst(2024, 6, 1, 3, 5))
		report, err := w.RunDue(ctx)
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, 3, report.Payable)
		payouts.AssertExpectations(t)
	})

	t.Run("already recorded", func(t *testing.T) {
		payouts := new(MockPayoutService)
		payouts.On("RunForPeriod", ctx, may).Return(&models.PayoutRun{ID: 9, Period: may}, nil)

		w := newTestScheduleWorker(payouts, jst(2024, 6, 20, 0, 0))
		report, err := w.RunDue(ctx)
		require.NoError(t, err)
		assert.Nil(t, report)
		payouts.AssertNotCalled(t, "ProcessMonth", mock.Anything, mock.Anything)
	})

	t.Run("unconfigured rate keeps the report", func(t *testing.T) {
		payouts := new(MockPayoutService)
		payouts.On("RunForPeriod", ctx, may).Return(nil, nil)
		payouts.On("ProcessMonth", ctx, may).Return(&ProcessMonthReport{Period: may, Failed: 2}, ErrCommissionUnconfigured)

		w := newTestScheduleWorker(payouts, jst(2024, 6, 2, 0, 0))
		report, err := w.RunDue(ctx)
		assert.ErrorIs(t, err, ErrCommissionUnconfigured)
		require.NotNil(t, report)
		assert.Equal(t, 2, report.Failed)
	})

	t.Run("lookup error", func(t *testing.T) {
		payouts := new(MockPayoutService)
		payouts.On("RunForPeriod", ctx, may).Return(nil, errors.New("connection refused"))

		w := newTestScheduleWorker(payouts, jst(2024, 6, 2, 0, 0))
		_, err := w.RunDue(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestPayoutScheduleWorker_StartStops(t *testing.T) {
	payouts := new(MockPayoutService)
	w := newTestScheduleWorker(payouts, jst(2024, 6, 1, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := w.Start(ctx)
	stop()
	payouts.AssertNotCalled(t, "ProcessMonth", mock.Anything, mock.Anything)
}
