package repository

import (
	"context"
	"testing"
	"time"

	"payouts/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionSettingRepository_CRUD(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCommissionSettingRepository(testDB.DB)
	ctx := context.Background()

	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	may31 := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	first := testutil.CreateTestCommissionSetting("10.00", jan, nil)
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	second := testutil.CreateTestCommissionSetting("12.50", jun, nil)
	require.NoError(t, repo.Create(ctx, second))

	t.Run("get by id", func(t *testing.T) {
		stored, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "12.5", stored.Rate.String())
		assert.Equal(t, "2024-06-01", stored.ApplicableFrom.Format(time.DateOnly))
		assert.Nil(t, stored.ApplicableTo)

		missing, err := repo.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("update closes range", func(t *testing.T) {
		first.ApplicableTo = &may31
		require.NoError(t, repo.Update(ctx, first))

		stored, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ApplicableTo)
		assert.Equal(t, "2024-05-31", stored.ApplicableTo.Format(time.DateOnly))
	})

	t.Run("list orders", func(t *testing.T) {
		active, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, second.ID, active[0].ID)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID, all[0].ID)
	})

	t.Run("inactive settings are excluded", func(t *testing.T) {
		second.IsActive = false
		require.NoError(t, repo.Update(ctx, second))

		active, err := repo.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, first.ID, active[0].ID)
	})

	t.Run("range check", func(t *testing.T) {
		bad := testutil.CreateTestCommissionSetting("10", jun, &may31)
		assert.Error(t, repo.Create(ctx, bad))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		gone, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}
