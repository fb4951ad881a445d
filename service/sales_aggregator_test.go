package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"payouts/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paidPayment(id, userID, amount int64, paidAt time.Time) *models.Payment {
	return &models.Payment{
		ID:     id,
		UserID: userID,
		Amount: amount,
		Status: models.PaymentStatusSuccess,
		PaidAt: &paidAt,
	}
}

func TestSalesAggregator_Sum(t *testing.T) {
	t.Parallel()

	period := models.MustParsePeriod("2024-05")
	inMay := time.Date(2024, 5, 10, 12, 0, 0, 0, models.JST)

	pending := paidPayment(4, 1, 999, inMay)
	pending.Status = models.PaymentStatusPending
	unpaid := &models.Payment{ID: 5, UserID: 1, Amount: 999, Status: models.PaymentStatusSuccess}

	payments := []*models.Payment{
		paidPayment(1, 1, 500, inMay),
		paidPayment(2, 1, 300, time.Date(2024, 5, 31, 23, 59, 59, 0, models.JST)),
		// 2024-04-30 15:00 UTC is 2024-05-01 00:00 JST
		paidPayment(3, 1, 200, time.Date(2024, 4, 30, 15, 0, 0, 0, time.UTC)),
		pending,
		unpaid,
		// June 1st 00:00 JST belongs to the next period
		paidPayment(6, 1, 999, time.Date(2024, 6, 1, 0, 0, 0, 0, models.JST)),
		paidPayment(7, 2, 999, inMay),
	}

	total, err := SalesAggregator{}.Sum(1, period, payments)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), total.GrossAmount)
	assert.Equal(t, 3, total.PaymentCount)
}

func TestSalesAggregator_SumEmptyIsZero(t *testing.T) {
	t.Parallel()

	total, err := SalesAggregator{}.Sum(1, models.MustParsePeriod("2024-05"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total.GrossAmount)
	assert.Equal(t, 0, total.PaymentCount)
}

func TestSalesAggregator_NegativeAmount(t *testing.T) {
	t.Parallel()

	inMay := time.Date(2024, 5, 10, 0, 0, 0, 0, models.JST)
	_, err := SalesAggregator{}.Sum(1, models.MustParsePeriod("2024-05"), []*models.Payment{
		paidPayment(1, 1, 500, inMay),
		paidPayment(2, 1, -100, inMay),
	})
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestSalesAggregator_Aggregate(t *testing.T) {
	ctx := context.Background()
	period := models.MustParsePeriod("2024-05")

	t.Run("queries the JST window", func(t *testing.T) {
		repo := new(MockPaymentRepository)
		repo.On("ListSuccessful", ctx, int64(1), period.Start(), period.End()).
			Return([]*models.Payment{paidPayment(1, 1, 700, period.Start())}, nil)

		total, err := SalesAggregator{}.Aggregate(ctx, repo, 1, period)
		require.NoError(t, err)
		assert.Equal(t, int64(700), total.GrossAmount)
		repo.AssertExpectations(t)
	})

	t.Run("repository error is wrapped", func(t *testing.T) {
		repo := new(MockPaymentRepository)
		repo.On("ListSuccessful", ctx, int64(1), period.Start(), period.End()).
			Return(nil, errors.New("connection reset"))

		_, err := SalesAggregator{}.Aggregate(ctx, repo, 1, period)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}
