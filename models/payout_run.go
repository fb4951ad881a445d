package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutRun records the outcome of monthly processing for a period
type PayoutRun struct {
	ID               int64                  `db:"id" json:"id"`
	Period           Period                 `db:"period" json:"period"`
	CommissionRate   *decimal.Decimal       `db:"commission_rate" json:"commission_rate"`
	AuthorsProcessed int                    `db:"authors_processed" json:"authors_processed"`
	AuthorsFailed    int                    `db:"authors_failed" json:"authors_failed"`
	TotalPayable     int64                  `db:"total_payable" json:"total_payable"`
	TotalCarryOver   int64                  `db:"total_carry_over" json:"total_carry_over"`
	ExecutionSummary map[string]interface{} `db:"execution_summary" json:"execution_summary"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time              `db:"updated_at" json:"updated_at"`
}
