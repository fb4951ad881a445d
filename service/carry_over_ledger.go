package service

import (
	"context"
	"fmt"

	"payouts/models"
)

// MinimumPayoutAmount is the smallest balance transferred to an author, in yen
const MinimumPayoutAmount int64 = 1000

// Settlement is the outcome of merging a period's net into the carried balance
type Settlement struct {
	PriorCarryOver int64
	NetAmount      int64
	PayableNow     int64
	NewCarryOver   int64
}

// Due reports whether the settlement produces a transfer
func (s Settlement) Due() bool {
	return s.PayableNow > 0
}

// CarryOverLedger folds per-period net amounts into payable transfers
type CarryOverLedger struct{}

// Settle merges prior carry-over with this period's net. The combined balance
// is payable once it reaches MinimumPayoutAmount, otherwise it rolls forward.
func (CarryOverLedger) Settle(priorCarryOver, netAmount int64) (Settlement, error) {
	if priorCarryOver < 0 || netAmount < 0 {
		return Settlement{}, fmt.Errorf("%w: carry-over %d, net %d", ErrNegativeAmount, priorCarryOver, netAmount)
	}

	s := Settlement{PriorCarryOver: priorCarryOver, NetAmount: netAmount}
	combined := priorCarryOver + netAmount
	if combined >= MinimumPayoutAmount {
		s.PayableNow = combined
	} else {
		s.NewCarryOver = combined
	}
	return s, nil
}

// Fold threads Settle through chronologically ordered net amounts
func (l CarryOverLedger) Fold(priorCarryOver int64, nets ...int64) ([]Settlement, error) {
	settlements := make([]Settlement, 0, len(nets))
	carry := priorCarryOver
	for i, net := range nets {
		s, err := l.Settle(carry, net)
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i, err)
		}
		settlements = append(settlements, s)
		carry = s.NewCarryOver
	}
	return settlements, nil
}

// PriorCarryOver reads the balance the author carries into period: the
// carry_over of the author's latest payout before it.
func (CarryOverLedger) PriorCarryOver(ctx context.Context, payouts PayoutRepository, userID int64, period models.Period) (int64, error) {
	prior, err := payouts.GetLatestBefore(ctx, userID, period)
	if err != nil {
		return 0, fmt.Errorf("failed to get prior payout for user %d before %s: %w", userID, period, err)
	}
	if prior == nil {
		return 0, nil
	}
	if prior.CarryOver < 0 {
		return 0, fmt.Errorf("%w: payout %d carries %d", ErrNegativeAmount, prior.ID, prior.CarryOver)
	}
	return prior.CarryOver, nil
}
