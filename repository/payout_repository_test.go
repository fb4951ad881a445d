package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"payouts/models"
	"payouts/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutRepository_Upsert(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPayoutRepository(testDB.DB)
	ctx := context.Background()

	t.Run("insert then overwrite", func(t *testing.T) {
		payout := testutil.CreateTestPayout(1, "2024-05", 10000)
		applied, err := repo.Upsert(ctx, payout)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.NotZero(t, payout.ID)
		firstID := payout.ID

		rerun := testutil.CreateTestPayout(1, "2024-05", 20000)
		applied, err = repo.Upsert(ctx, rerun)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, firstID, rerun.ID)

		stored, err := repo.GetByID(ctx, firstID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(20000), stored.GrossAmount)
		assert.Equal(t, int64(18000), stored.Amount)
		assert.Equal(t, "2024-05", stored.Period.String())
		assert.Equal(t, "10", stored.CommissionRate.String())
	})

	t.Run("paid rows are never overwritten", func(t *testing.T) {
		payout := testutil.CreateTestPayout(2, "2024-05", 10000)
		_, err := repo.Upsert(ctx, payout)
		require.NoError(t, err)

		_, err = repo.TransitionStatus(ctx, payout.ID, models.PayoutStatusUnpaid, models.PayoutStatusPaid, time.Now(), "")
		require.NoError(t, err)

		applied, err := repo.Upsert(ctx, testutil.CreateTestPayout(2, "2024-05", 99999))
		require.NoError(t, err)
		assert.False(t, applied)

		stored, err := repo.GetByID(ctx, payout.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), stored.GrossAmount)
		assert.Equal(t, models.PayoutStatusPaid, stored.Status)
	})
}

func TestPayoutRepository_TransitionStatus(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPayoutRepository(testDB.DB)
	ctx := context.Background()

	payout := testutil.CreateTestPayout(1, "2024-05", 10000)
	_, err := repo.Upsert(ctx, payout)
	require.NoError(t, err)

	t.Run("missing row", func(t *testing.T) {
		result, err := repo.TransitionStatus(ctx, 9999, models.PayoutStatusUnpaid, models.PayoutStatusPaid, time.Now(), "")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("concurrent confirmations succeed once", func(t *testing.T) {
		var wg sync.WaitGroup
		results := make(chan *models.Payout, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := repo.TransitionStatus(ctx, payout.ID, models.PayoutStatusUnpaid, models.PayoutStatusPaid, time.Now(), "")
				assert.NoError(t, err)
				results <- result
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for result := range results {
			if result != nil {
				succeeded++
				assert.Equal(t, models.PayoutStatusPaid, result.Status)
				assert.NotNil(t, result.PaidAt)
			}
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("failed keeps the reason", func(t *testing.T) {
		other := testutil.CreateTestPayout(2, "2024-05", 5000)
		_, err := repo.Upsert(ctx, other)
		require.NoError(t, err)

		result, err := repo.TransitionStatus(ctx, other.ID, models.PayoutStatusUnpaid, models.PayoutStatusFailed, time.Now(), "account closed")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, models.PayoutStatusFailed, result.Status)
		assert.Equal(t, "account closed", result.Note)
		assert.Nil(t, result.PaidAt)
	})
}

func TestPayoutRepository_CarryOverQueries(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPayoutRepository(testDB.DB)
	ctx := context.Background()

	// Author 1: carried over in April, nothing later
	// Author 2: carried over in March, paid out in April
	// Author 3: payable in April
	for _, p := range []*models.Payout{
		testutil.CreateTestCarriedOverPayout(1, "2024-04", 500),
		testutil.CreateTestCarriedOverPayout(2, "2024-03", 500),
		testutil.CreateTestPayout(2, "2024-04", 5000),
		testutil.CreateTestPayout(3, "2024-04", 5000),
	} {
		_, err := repo.Upsert(ctx, p)
		require.NoError(t, err)
	}

	may := models.MustParsePeriod("2024-05")

	ids, err := repo.ListAuthorsWithCarryOver(ctx, may)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	ids, err = repo.ListAuthorsWithCarryOver(ctx, models.MustParsePeriod("2024-04"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	latest, err := repo.GetLatestBefore(ctx, 2, may)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-04", latest.Period.String())

	none, err := repo.GetLatestBefore(ctx, 4, may)
	require.NoError(t, err)
	assert.Nil(t, none)

	later, err := repo.ExistsAfter(ctx, 2, models.MustParsePeriod("2024-03"))
	require.NoError(t, err)
	assert.True(t, later)

	later, err = repo.ExistsAfter(ctx, 2, models.MustParsePeriod("2024-04"))
	require.NoError(t, err)
	assert.False(t, later)

	authors, err := repo.ListAuthorsForPeriod(ctx, models.MustParsePeriod("2024-04"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, authors)
}

func TestPayoutRepository_DeleteAndList(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPayoutRepository(testDB.DB)
	ctx := context.Background()

	unpaid := testutil.CreateTestPayout(1, "2024-05", 10000)
	paid := testutil.CreateTestPayout(2, "2024-05", 10000)
	older := testutil.CreateTestPayout(1, "2024-04", 3000)
	for _, p := range []*models.Payout{unpaid, paid, older} {
		_, err := repo.Upsert(ctx, p)
		require.NoError(t, err)
	}
	_, err := repo.TransitionStatus(ctx, paid.ID, models.PayoutStatusUnpaid, models.PayoutStatusPaid, time.Now(), "")
	require.NoError(t, err)

	t.Run("list filters", func(t *testing.T) {
		may := models.MustParsePeriod("2024-05")

		all, err := repo.List(ctx, models.PayoutFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "2024-05", all[0].Period.String())
		assert.Equal(t, "2024-04", all[2].Period.String())

		byPeriod, err := repo.List(ctx, models.PayoutFilter{Period: &may, Status: models.PayoutStatusPaid})
		require.NoError(t, err)
		require.Len(t, byPeriod, 1)
		assert.Equal(t, paid.ID, byPeriod[0].ID)

		byUser, err := repo.List(ctx, models.PayoutFilter{UserID: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, byUser, 1)
		assert.Equal(t, unpaid.ID, byUser[0].ID)

		page, err := repo.List(ctx, models.PayoutFilter{UserID: 1, Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, older.ID, page[0].ID)
	})

	t.Run("delete respects status", func(t *testing.T) {
		deleted, err := repo.DeleteIfStatus(ctx, paid.ID, models.PayoutStatusUnpaid, models.PayoutStatusCarriedOver)
		require.NoError(t, err)
		assert.False(t, deleted)

		deleted, err = repo.DeleteIfStatus(ctx, unpaid.ID, models.PayoutStatusUnpaid, models.PayoutStatusCarriedOver)
		require.NoError(t, err)
		assert.True(t, deleted)

		gone, err := repo.GetByID(ctx, unpaid.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

func TestPayoutRepository_GetForUpdateSerializesAuthor(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	may := models.MustParsePeriod("2024-05")
	june := models.MustParsePeriod("2024-06")

	holder, err := testDB.DB.Begin(ctx)
	require.NoError(t, err)
	defer holder.Rollback(ctx)

	payout, err := newPayoutRepositoryWithTx(holder).GetForUpdate(ctx, 1, may)
	require.NoError(t, err)
	assert.Nil(t, payout)

	t.Run("other author is not blocked", func(t *testing.T) {
		tx, err := testDB.DB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err = newPayoutRepositoryWithTx(tx).GetForUpdate(lockCtx, 2, june)
		require.NoError(t, err)
	})

	t.Run("same author waits for the holder", func(t *testing.T) {
		waiter, err := testDB.DB.Begin(ctx)
		require.NoError(t, err)
		defer waiter.Rollback(ctx)

		acquired := make(chan error, 1)
		go func() {
			_, err := newPayoutRepositoryWithTx(waiter).GetForUpdate(ctx, 1, june)
			acquired <- err
		}()

		select {
		case <-acquired:
			t.Fatal("next period acquired the author lock while it was held")
		case <-time.After(300 * time.Millisecond):
		}

		require.NoError(t, holder.Commit(ctx))

		select {
		case err := <-acquired:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("author lock was not released on commit")
		}
	})
}
