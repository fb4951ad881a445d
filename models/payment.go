package models

import "time"

// PaymentStatus mirrors the sales subsystem's payment states
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusPending PaymentStatus = "pending"
)

// Payment is an article sale owned by the sales subsystem
type Payment struct {
	ID        int64         `db:"id"`
	ArticleID int64         `db:"article_id"`
	UserID    int64         `db:"user_id"` // seller
	Amount    int64         `db:"amount"`
	Status    PaymentStatus `db:"status"`
	PaidAt    *time.Time    `db:"paid_at"`
	CreatedAt time.Time     `db:"created_at"`
}

// Qualifies reports whether the payment counts toward a payout
func (p *Payment) Qualifies() bool {
	return p.Status == PaymentStatusSuccess && p.PaidAt != nil
}
