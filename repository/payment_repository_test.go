package repository

import (
	"context"
	"testing"
	"time"

	"payouts/models"
	"payouts/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRepository_PeriodWindow(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPaymentRepository(testDB.DB)
	ctx := context.Background()
	may := models.MustParsePeriod("2024-05")

	at := func(tm time.Time) *time.Time { return &tm }

	// 2024-04-30 23:59 JST is before the window; 2024-05-01 00:00 JST is inside
	testutil.InsertPayment(t, testDB.DB, 1, 100, models.PaymentStatusSuccess, at(time.Date(2024, 4, 30, 23, 59, 0, 0, models.JST)))
	inside := testutil.InsertPayment(t, testDB.DB, 1, 200, models.PaymentStatusSuccess, at(may.Start()))
	testutil.InsertPayment(t, testDB.DB, 1, 300, models.PaymentStatusSuccess, at(may.End()))
	testutil.InsertPayment(t, testDB.DB, 1, 400, models.PaymentStatusFailed, at(may.Start().Add(time.Hour)))
	testutil.InsertPayment(t, testDB.DB, 1, 500, models.PaymentStatusSuccess, nil)
	testutil.InsertPayment(t, testDB.DB, 2, 600, models.PaymentStatusSuccess, at(may.End().Add(-time.Second)))
	testutil.InsertPayment(t, testDB.DB, 3, 700, models.PaymentStatusPending, at(may.Start().Add(time.Hour)))

	payments, err := repo.ListSuccessful(ctx, 1, may.Start(), may.End())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, inside, payments[0].ID)
	assert.Equal(t, int64(200), payments[0].Amount)
	assert.True(t, payments[0].Qualifies())

	sellers, err := repo.ListSellers(ctx, may.Start(), may.End())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, sellers)
}
