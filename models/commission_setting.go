package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionSetting is a time-bounded platform commission rate
type CommissionSetting struct {
	ID             int64           `db:"id" json:"id"`
	Rate           decimal.Decimal `db:"rate" json:"rate"` // percent, 0-100
	ApplicableFrom time.Time       `db:"applicable_from" json:"applicable_from"`
	ApplicableTo   *time.Time      `db:"applicable_to" json:"applicable_to"` // inclusive, nil = open-ended
	IsActive       bool            `db:"is_active" json:"is_active"`
	Description    string          `db:"description" json:"description"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the setting is active on the calendar day of date
func (s *CommissionSetting) Covers(date time.Time) bool {
	if !s.IsActive {
		return false
	}
	day := CivilDate(date)
	if CivilDate(s.ApplicableFrom) > day {
		return false
	}
	return s.ApplicableTo == nil || CivilDate(*s.ApplicableTo) >= day
}
