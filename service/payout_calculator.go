package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	minRate = decimal.Zero
	maxRate = decimal.NewFromInt(100)
)

// PayoutBreakdown splits gross sales into platform commission and author net
type PayoutBreakdown struct {
	GrossAmount      int64
	Rate             decimal.Decimal
	CommissionAmount int64
	NetAmount        int64
}

// PayoutCalculator applies a commission rate with exact decimal arithmetic
type PayoutCalculator struct{}

// Compute returns commission = round_half_up(gross * rate / 100) in whole yen
// and net = gross - commission.
func (PayoutCalculator) Compute(grossAmount int64, rate decimal.Decimal) (*PayoutBreakdown, error) {
	if grossAmount < 0 {
		return nil, fmt.Errorf("%w: gross amount %d", ErrNegativeAmount, grossAmount)
	}
	if rate.LessThan(minRate) || rate.GreaterThan(maxRate) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRate, rate.String())
	}

	breakdown := &PayoutBreakdown{GrossAmount: grossAmount, Rate: rate}
	if grossAmount == 0 {
		return breakdown, nil
	}

	// Non-negative operands, so Round's half-away-from-zero is half-up
	commission := decimal.NewFromInt(grossAmount).Mul(rate).Shift(-2).Round(0)
	breakdown.CommissionAmount = commission.IntPart()
	breakdown.NetAmount = grossAmount - breakdown.CommissionAmount

	return breakdown, nil
}
