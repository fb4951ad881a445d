package service

import (
	"time"

	"payouts/models"

	"github.com/shopspring/decimal"
)

// AuthorOutcome is what monthly processing did for one author
type AuthorOutcome string

const (
	OutcomePayable     AuthorOutcome = "payable"      // unpaid row, amount due
	OutcomeCarriedOver AuthorOutcome = "carried_over" // row written, balance rolled forward
	OutcomeNoRecord    AuthorOutcome = "no_record"    // zero sales and nothing due
	OutcomeSkipped     AuthorOutcome = "skipped"      // row already paid or failed
	OutcomeFailed      AuthorOutcome = "failed"
)

// AuthorResult is the per-author line of a ProcessMonthReport
type AuthorResult struct {
	UserID           int64         `json:"user_id"`
	Outcome          AuthorOutcome `json:"outcome"`
	PayoutID         int64         `json:"payout_id,omitempty"`
	GrossAmount      int64         `json:"gross_amount"`
	CommissionAmount int64         `json:"commission_amount"`
	NetAmount        int64         `json:"net_amount"`
	CarriedIn        int64         `json:"carried_in"`
	Amount           int64         `json:"amount"`
	CarryOver        int64         `json:"carry_over"`
	Code             string        `json:"code,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// ProcessMonthReport summarizes a monthly processing run
type ProcessMonthReport struct {
	Period              models.Period    `json:"period"`
	CommissionRate      *decimal.Decimal `json:"commission_rate"`
	CommissionSettingID int64            `json:"commission_setting_id,omitempty"`
	Warnings            []string         `json:"warnings,omitempty"`
	Results             []AuthorResult   `json:"results"`

	Payable        int   `json:"payable"`
	CarriedOver    int   `json:"carried_over"`
	NoRecord       int   `json:"no_record"`
	Skipped        int   `json:"skipped"`
	Failed         int   `json:"failed"`
	TotalPayable   int64 `json:"total_payable"`
	TotalCarryOver int64 `json:"total_carry_over"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *ProcessMonthReport) tally() {
	r.Payable, r.CarriedOver, r.NoRecord, r.Skipped, r.Failed = 0, 0, 0, 0, 0
	r.TotalPayable, r.TotalCarryOver = 0, 0

	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomePayable:
			r.Payable++
			r.TotalPayable += res.Amount
		case OutcomeCarriedOver:
			r.CarriedOver++
			r.TotalCarryOver += res.CarryOver
		case OutcomeNoRecord:
			r.NoRecord++
		case OutcomeSkipped:
			r.Skipped++
		case OutcomeFailed:
			r.Failed++
		}
	}
}

// Processed counts authors for which a row was written
func (r *ProcessMonthReport) Processed() int {
	return r.Payable + r.CarriedOver
}

// FailedResults returns the failed author lines
func (r *ProcessMonthReport) FailedResults() []AuthorResult {
	var failed []AuthorResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// BulkConfirmFailure describes one id that could not be confirmed
type BulkConfirmFailure struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkConfirmReport is the partial-success result of BulkConfirm
type BulkConfirmReport struct {
	Succeeded []int64              `json:"succeeded"`
	Failed    []BulkConfirmFailure `json:"failed"`
}

// CarryOverView shows the balance an author carries into a period
type CarryOverView struct {
	UserID    int64          `json:"user_id"`
	Period    models.Period  `json:"period"`
	CarryOver int64          `json:"carry_over"`
	Threshold int64          `json:"threshold"`
	Remaining int64          `json:"remaining"` // still needed to reach the threshold
	Source    *models.Payout `json:"source,omitempty"`
}
