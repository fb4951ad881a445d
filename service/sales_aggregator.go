package service

import (
	"context"
	"fmt"

	"payouts/models"
)

// SalesTotal is an author's gross sales for one period
type SalesTotal struct {
	UserID       int64
	Period       models.Period
	GrossAmount  int64
	PaymentCount int
}

// SalesAggregator sums an author's successful payments per period
type SalesAggregator struct{}

// Aggregate loads the author's successful payments in the period's JST
// window and sums them
func (a SalesAggregator) Aggregate(ctx context.Context, payments PaymentRepository, userID int64, period models.Period) (*SalesTotal, error) {
	list, err := payments.ListSuccessful(ctx, userID, period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for user %d in %s: %w", userID, period, err)
	}
	return a.Sum(userID, period, list)
}

// Sum totals qualifying payments that fall inside the period.
// Payments outside the window or not successful are ignored.
func (SalesAggregator) Sum(userID int64, period models.Period, payments []*models.Payment) (*SalesTotal, error) {
	total := &SalesTotal{UserID: userID, Period: period}
	start, end := period.Start(), period.End()

	for _, p := range payments {
		if p == nil || p.UserID != userID || !p.Qualifies() {
			continue
		}
		if p.PaidAt.Before(start) || !p.PaidAt.Before(end) {
			continue
		}
		if p.Amount < 0 {
			return nil, fmt.Errorf("%w: payment %d has amount %d", ErrNegativeAmount, p.ID, p.Amount)
		}
		total.GrossAmount += p.Amount
		total.PaymentCount++
	}

	return total, nil
}
