package service

import "errors"

var (
	// ErrCommissionUnconfigured means no active commission setting covers the period
	ErrCommissionUnconfigured = errors.New("commission rate is not configured")

	// ErrNegativeAmount flags corrupt upstream money data
	ErrNegativeAmount = errors.New("negative amount")

	// ErrInvalidRate is returned for rates outside [0, 100]
	ErrInvalidRate = errors.New("commission rate must be between 0 and 100")

	ErrPayoutNotFound     = errors.New("payout not found")
	ErrInvalidPayoutState = errors.New("invalid payout state")

	// ErrPeriodSuperseded means a later period already exists for the author,
	// so recomputing this one would break the carry-over chain
	ErrPeriodSuperseded = errors.New("a later period has already been recorded")

	ErrCommissionSettingNotFound = errors.New("commission setting not found")
	ErrInvalidCommissionSetting  = errors.New("invalid commission setting")
)

// Error codes reported per item in batch results
const (
	CodeNotFound       = "not_found"
	CodeInvalidState   = "invalid_state"
	CodeUnconfigured   = "commission_unconfigured"
	CodeNegativeAmount = "negative_amount"
	CodeInvalidRate    = "invalid_rate"
	CodeSuperseded     = "period_superseded"
	CodeInternal       = "internal_error"
)

// ErrorCode classifies err for batch reports
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrPayoutNotFound), errors.Is(err, ErrCommissionSettingNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidPayoutState):
		return CodeInvalidState
	case errors.Is(err, ErrCommissionUnconfigured):
		return CodeUnconfigured
	case errors.Is(err, ErrNegativeAmount):
		return CodeNegativeAmount
	case errors.Is(err, ErrInvalidRate):
		return CodeInvalidRate
	case errors.Is(err, ErrPeriodSuperseded):
		return CodeSuperseded
	default:
		return CodeInternal
	}
}
