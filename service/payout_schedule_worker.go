package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payouts/models"

	log "github.com/sirupsen/logrus"
)

// PayoutScheduleWorker processes the previous month once a month at a fixed
// day and hour in JST
type PayoutScheduleWorker struct {
	payouts PayoutService
	day     int
	hour    int
	now     func() time.Time
}

// NewPayoutScheduleWorker creates a new payout schedule worker
func NewPayoutScheduleWorker(payouts PayoutService, day, hour int) *PayoutScheduleWorker {
	return &PayoutScheduleWorker{
		payouts: payouts,
		day:     day,
		hour:    hour,
		now:     time.Now,
	}
}

// Start begins the worker. The returned function stops it.
func (w *PayoutScheduleWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("Payout schedule worker started, runs on day %d at %02d:00 JST", w.day, w.hour)

		for {
			// Catch up on a missed run first, e.g. after a restart
			if _, err := w.RunDue(ctx); err != nil {
				log.Errorf("Error processing scheduled payouts: %v", err)
			}

			next := w.NextRun(w.now())
			waitDuration := time.Until(next)
			log.Infof("Next scheduled payout run at %v (in %v)", next, waitDuration)

			select {
			case <-ctx.Done():
				log.Info("Payout schedule worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Payout schedule worker shutting down (stop requested)...")
				return
			case <-time.After(waitDuration):
				// Timer fired, loop to process
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// NextRun returns the first scheduled time strictly after now
func (w *PayoutScheduleWorker) NextRun(now time.Time) time.Time {
	scheduled := w.scheduledIn(models.PeriodOf(now))
	if now.Before(scheduled) {
		return scheduled
	}
	return w.scheduledIn(models.PeriodOf(now).Next())
}

// RunDue processes the previous month when this month's scheduled time has
// passed and no run is stored for it yet. It returns the report, or nil if
// nothing was due.
func (w *PayoutScheduleWorker) RunDue(ctx context.Context) (*ProcessMonthReport, error) {
	now := w.now()
	current := models.PeriodOf(now)
	if now.Before(w.scheduledIn(current)) {
		return nil, nil
	}

	period := current.Prev()
	run, err := w.payouts.RunForPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to check payout run for %s: %w", period, err)
	}
	if run != nil {
		log.WithFields(log.Fields{
			"period": period.String(),
			"runID":  run.ID,
		}).Debug("Payout run already recorded, skipping scheduled processing")
		return nil, nil
	}

	log.WithField("period", period.String()).Info("Starting scheduled payout processing")

	report, err := w.payouts.ProcessMonth(ctx, period)
	if err != nil {
		// An unconfigured rate still produces a stored run and an alert
		if errors.Is(err, ErrCommissionUnconfigured) {
			return report, err
		}
		return nil, fmt.Errorf("failed to process payouts for %s: %w", period, err)
	}
	return report, nil
}

func (w *PayoutScheduleWorker) scheduledIn(period models.Period) time.Time {
	return time.Date(period.Year, period.Month, w.day, w.hour, 0, 0, 0, models.JST)
}
