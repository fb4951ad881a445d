package service

import (
	"fmt"
	"time"

	"payouts/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CommissionResolution is the rate applied on a reference date
type CommissionResolution struct {
	Rate          decimal.Decimal
	Setting       *models.CommissionSetting
	ReferenceDate time.Time

	// Matches counts active settings covering the date; more than one is a
	// data-integrity problem resolved in favor of the latest start.
	Matches int
}

// Ambiguous reports whether several settings covered the reference date
func (r *CommissionResolution) Ambiguous() bool {
	return r.Matches > 1
}

// CommissionScheduleResolver picks the commission rate for a date from a
// snapshot of settings. It holds no state.
type CommissionScheduleResolver struct{}

// Resolve returns the rate of the unique active setting covering date.
// Zero matches yield ErrCommissionUnconfigured.
func (CommissionScheduleResolver) Resolve(settings []*models.CommissionSetting, date time.Time) (*CommissionResolution, error) {
	var chosen *models.CommissionSetting
	matches := 0

	for _, s := range settings {
		if s == nil || !s.Covers(date) {
			continue
		}
		matches++
		if chosen == nil || laterStart(s, chosen) {
			chosen = s
		}
	}

	if chosen == nil {
		return nil, fmt.Errorf("%w for %s", ErrCommissionUnconfigured, date.Format("2006-01-02"))
	}

	if matches > 1 {
		log.WithFields(log.Fields{
			"date":      date.Format("2006-01-02"),
			"matches":   matches,
			"settingID": chosen.ID,
			"rate":      chosen.Rate.String(),
		}).Warn("Overlapping active commission settings; using the most recently started")
	}

	return &CommissionResolution{
		Rate:          chosen.Rate,
		Setting:       chosen,
		ReferenceDate: date,
		Matches:       matches,
	}, nil
}

// ResolvePeriod resolves against the last day of period
func (r CommissionScheduleResolver) ResolvePeriod(settings []*models.CommissionSetting, period models.Period) (*CommissionResolution, error) {
	resolution, err := r.Resolve(settings, period.LastDay())
	if err != nil {
		return nil, fmt.Errorf("period %s: %w", period, err)
	}
	return resolution, nil
}

// laterStart orders by applicable_from, then by id so ties are deterministic
func laterStart(a, b *models.CommissionSetting) bool {
	da, db := models.CivilDate(a.ApplicableFrom), models.CivilDate(b.ApplicableFrom)
	if da != db {
		return da > db
	}
	return a.ID > b.ID
}
