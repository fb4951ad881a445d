package service

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutCalculator_Compute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		gross          int64
		rate           string
		wantCommission int64
		wantNet        int64
	}{
		{name: "ten percent", gross: 10000, rate: "10", wantCommission: 1000, wantNet: 9000},
		{name: "small sale", gross: 500, rate: "10", wantCommission: 50, wantNet: 450},
		{name: "repeating decimal rate rounds up", gross: 9999, rate: "33.33", wantCommission: 3333, wantNet: 6666},
		{name: "exact half rounds up", gross: 5, rate: "10", wantCommission: 1, wantNet: 4},
		{name: "below half rounds down", gross: 14, rate: "10", wantCommission: 1, wantNet: 13},
		{name: "zero rate", gross: 1234, rate: "0", wantCommission: 0, wantNet: 1234},
		{name: "full rate", gross: 1234, rate: "100", wantCommission: 1234, wantNet: 0},
		{name: "zero gross", gross: 0, rate: "15", wantCommission: 0, wantNet: 0},
		{name: "large amount", gross: 987654321, rate: "12.34", wantCommission: 121876543, wantNet: 865777778},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := PayoutCalculator{}.Compute(tt.gross, decimal.RequireFromString(tt.rate))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCommission, got.CommissionAmount)
			assert.Equal(t, tt.wantNet, got.NetAmount)
			assert.Equal(t, tt.gross, got.CommissionAmount+got.NetAmount)
		})
	}
}

func TestPayoutCalculator_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := PayoutCalculator{}.Compute(-1, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = PayoutCalculator{}.Compute(1000, decimal.RequireFromString("100.01"))
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = PayoutCalculator{}.Compute(1000, decimal.RequireFromString("-0.5"))
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestPayoutCalculator_NoRoundingLeakage(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(20240501))
	for i := 0; i < 5000; i++ {
		gross := rng.Int63n(10_000_000)
		rate := decimal.New(rng.Int63n(10001), -2) // 0.00 - 100.00

		got, err := PayoutCalculator{}.Compute(gross, rate)
		require.NoError(t, err)
		require.Equal(t, gross, got.CommissionAmount+got.NetAmount, "gross=%d rate=%s", gross, rate)
		require.GreaterOrEqual(t, got.NetAmount, int64(0))
		require.GreaterOrEqual(t, got.CommissionAmount, int64(0))
	}
}
