package testutil

import (
	"context"
	"testing"
	"time"

	"payouts/database"
	"payouts/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateTestCommissionSetting creates an active setting starting on from
func CreateTestCommissionSetting(rate string, from time.Time, to *time.Time) *models.CommissionSetting {
	return &models.CommissionSetting{
		Rate:           decimal.RequireFromString(rate),
		ApplicableFrom: from,
		ApplicableTo:   to,
		IsActive:       true,
		Description:    "test rate",
	}
}

// CreateTestPayout creates an unpaid payout with a 10% commission on gross
func CreateTestPayout(userID int64, period string, gross int64) *models.Payout {
	commission := gross / 10
	return &models.Payout{
		UserID:           userID,
		Period:           models.MustParsePeriod(period),
		GrossAmount:      gross,
		PaymentCount:     1,
		CommissionRate:   decimal.NewFromInt(10),
		CommissionAmount: commission,
		NetAmount:        gross - commission,
		Amount:           gross - commission,
		Status:           models.PayoutStatusUnpaid,
	}
}

// CreateTestCarriedOverPayout creates a below-threshold payout
func CreateTestCarriedOverPayout(userID int64, period string, gross int64) *models.Payout {
	payout := CreateTestPayout(userID, period, gross)
	payout.CarryOver = payout.NetAmount
	payout.Amount = 0
	payout.Status = models.PayoutStatusCarriedOver
	return payout
}

// InsertPayment writes a payment row the way the sales subsystem would
func InsertPayment(t *testing.T, db *database.DB, userID, amount int64, status models.PaymentStatus, paidAt *time.Time) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(context.Background(), `
		INSERT INTO payments (article_id, user_id, amount, status, paid_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, userID*100, userID, amount, string(status), paidAt).Scan(&id)
	require.NoError(t, err)
	return id
}
