package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutStatus represents the lifecycle state of a payout
type PayoutStatus string

const (
	PayoutStatusUnpaid      PayoutStatus = "unpaid"
	PayoutStatusPaid        PayoutStatus = "paid"
	PayoutStatusFailed      PayoutStatus = "failed"
	PayoutStatusCarriedOver PayoutStatus = "carried_over" // below threshold, not yet due
)

// IsValid reports whether s is a known status
func (s PayoutStatus) IsValid() bool {
	switch s {
	case PayoutStatusUnpaid, PayoutStatusPaid, PayoutStatusFailed, PayoutStatusCarriedOver:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusPaid || s == PayoutStatusFailed
}

// Payout is one author's settlement for one period.
// GrossAmount, CommissionAmount and NetAmount describe the period's own sales;
// CarriedIn is the prior balance merged in, Amount is payable now and
// CarryOver rolls into the next period.
type Payout struct {
	ID               int64           `db:"id" json:"id"`
	UserID           int64           `db:"user_id" json:"user_id"`
	Period           Period          `db:"period" json:"period"`
	GrossAmount      int64           `db:"gross_amount" json:"gross_amount"`
	PaymentCount     int             `db:"payment_count" json:"payment_count"`
	CommissionRate   decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	CommissionAmount int64           `db:"commission_amount" json:"commission_amount"`
	NetAmount        int64           `db:"net_amount" json:"net_amount"`
	CarriedIn        int64           `db:"carried_in" json:"carried_in"`
	Amount           int64           `db:"amount" json:"amount"`
	CarryOver        int64           `db:"carry_over" json:"carry_over"`
	Status           PayoutStatus    `db:"status" json:"status"`
	PaidAt           *time.Time      `db:"paid_at" json:"paid_at"`
	Note             string          `db:"note" json:"note"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// PayoutFilter narrows payout listings; zero values match everything
type PayoutFilter struct {
	Period *Period
	Status PayoutStatus
	UserID int64
	Limit  int
	Offset int
}
