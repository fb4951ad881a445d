package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"payouts/config"
	"payouts/models"
	"payouts/service"
)

// ProcessMonth runs monthly processing once for period (YYYY-MM)
func ProcessMonth(ctx context.Context, cfg *config.Config, rawPeriod string) error {
	period, err := models.ParsePeriod(rawPeriod)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.payouts.ProcessMonth(ctx, period)
	if report != nil {
		log.Printf("Processed %s: %d payable (%d yen), %d carried over (%d yen), %d skipped, %d failed",
			period, report.Payable, report.TotalPayable, report.CarriedOver, report.TotalCarryOver, report.Skipped, report.Failed)
		for _, failed := range report.FailedResults() {
			log.Printf("  author %d: %s (%s)", failed.UserID, failed.Error, failed.Code)
		}
	}
	if errors.Is(err, service.ErrCommissionUnconfigured) {
		return fmt.Errorf("no commission rate covers %s, add a setting and rerun", period)
	}
	return err
}

// Confirm marks the given payouts as paid
func Confirm(ctx context.Context, cfg *config.Config, ids []int64) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.payouts.BulkConfirm(ctx, ids)
	if err != nil {
		return err
	}

	for _, id := range report.Succeeded {
		log.Printf("Payout %d confirmed", id)
	}
	for _, failed := range report.Failed {
		log.Printf("Payout %d not confirmed: %s (%s)", failed.ID, failed.Message, failed.Code)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d payouts could not be confirmed", len(report.Failed), len(report.Failed)+len(report.Succeeded))
	}
	return nil
}
