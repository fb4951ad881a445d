package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"payouts/events"
	"payouts/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// payoutService implements the PayoutService interface
type payoutService struct {
	uowFactory UnitOfWorkFactory
	workers    int
	metrics    PayoutMetrics
	now        func() time.Time

	resolver   CommissionScheduleResolver
	aggregator SalesAggregator
	calculator PayoutCalculator
	ledger     CarryOverLedger
}

// NewPayoutService creates a new payout service. workers bounds how many
// authors ProcessMonth handles concurrently; metrics may be nil.
func NewPayoutService(uowFactory UnitOfWorkFactory, workers int, metrics PayoutMetrics) PayoutService {
	if workers < 1 {
		workers = 1
	}
	if metrics == nil {
		metrics = noopPayoutMetrics{}
	}
	return &payoutService{
		uowFactory: uowFactory,
		workers:    workers,
		metrics:    metrics,
		now:        time.Now,
	}
}

// ProcessMonth computes the period's payout for every author with sales in
// the period or a balance carried into it. Each author runs in its own
// transaction; one author's failure never affects another.
func (s *payoutService) ProcessMonth(ctx context.Context, period models.Period) (*ProcessMonthReport, error) {
	if period.IsZero() {
		return nil, fmt.Errorf("period is required")
	}

	report := &ProcessMonthReport{Period: period, StartedAt: s.now()}

	settings, targets, err := s.loadProcessingInputs(ctx, period)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"period":  period.String(),
		"authors": len(targets),
	})

	resolution, resolveErr := s.resolver.ResolvePeriod(settings, period)
	if resolveErr != nil {
		logger.WithError(resolveErr).Error("Cannot process month: commission rate unresolved")
		for _, userID := range targets {
			report.Results = append(report.Results, AuthorResult{
				UserID:  userID,
				Outcome: OutcomeFailed,
				Code:    ErrorCode(resolveErr),
				Error:   resolveErr.Error(),
			})
		}
		report.tally()
		report.FinishedAt = s.now()

		if err := s.saveRun(ctx, report, events.CommissionUnconfiguredEvent{
			Period:          period,
			AffectedAuthors: len(targets),
		}); err != nil {
			return report, errors.Join(resolveErr, err)
		}
		return report, resolveErr
	}

	rate := resolution.Rate
	report.CommissionRate = &rate
	report.CommissionSettingID = resolution.Setting.ID
	if resolution.Ambiguous() {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%d active commission settings cover %s; applied setting %d",
			resolution.Matches, period.LastDay().Format("2006-01-02"), resolution.Setting.ID))
	}

	report.Results = make([]AuthorResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, userID := range targets {
		g.Go(func() error {
			report.Results[i] = s.processAuthor(gctx, period, resolution, userID)
			return nil
		})
	}
	_ = g.Wait()

	report.tally()
	report.FinishedAt = s.now()

	for _, res := range report.Results {
		s.metrics.RecordPayoutOutcome(string(res.Outcome))
		if res.Outcome == OutcomePayable {
			s.metrics.RecordPayoutAmount(string(models.PayoutStatusUnpaid), res.Amount)
		}
	}
	s.metrics.RecordMonthProcessed(period.String(), report.FinishedAt.Sub(report.StartedAt))

	logger.WithFields(log.Fields{
		"rate":           rate.String(),
		"payable":        report.Payable,
		"carriedOver":    report.CarriedOver,
		"noRecord":       report.NoRecord,
		"skipped":        report.Skipped,
		"failed":         report.Failed,
		"totalPayable":   report.TotalPayable,
		"totalCarryOver": report.TotalCarryOver,
	}).Info("Monthly payout processing completed")

	if err := s.saveRun(ctx, report, events.MonthProcessedEvent{
		Period:         period,
		CommissionRate: rate.String(),
		Processed:      report.Processed(),
		CarriedOver:    report.CarriedOver,
		Skipped:        report.Skipped,
		Failed:         report.Failed,
		TotalPayable:   report.TotalPayable,
		TotalCarryOver: report.TotalCarryOver,
	}); err != nil {
		return report, err
	}

	return report, nil
}

// loadProcessingInputs snapshots the commission settings and the authors to process
func (s *payoutService) loadProcessingInputs(ctx context.Context, period models.Period) ([]*models.CommissionSetting, []int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.CommissionSettingRepository().ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load commission settings: %w", err)
	}

	sellers, err := uow.PaymentRepository().ListSellers(ctx, period.Start(), period.End())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sellers for %s: %w", period, err)
	}

	carrying, err := uow.PayoutRepository().ListAuthorsWithCarryOver(ctx, period)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list authors with carry-over before %s: %w", period, err)
	}

	// Authors already holding a row are revisited so a rerun can correct them
	existing, err := uow.PayoutRepository().ListAuthorsForPeriod(ctx, period)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list existing payouts for %s: %w", period, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settings, mergeAuthorIDs(sellers, carrying, existing), nil
}

// processAuthor runs aggregator, calculator and ledger for one author and
// writes the result in a single transaction
func (s *payoutService) processAuthor(ctx context.Context, period models.Period, resolution *CommissionResolution, userID int64) AuthorResult {
	result := AuthorResult{UserID: userID}

	fail := func(err error) AuthorResult {
		log.WithFields(log.Fields{
			"period": period.String(),
			"userID": userID,
			"error":  err,
		}).Error("Failed to process author payout")
		result.Outcome = OutcomeFailed
		result.Code = ErrorCode(err)
		result.Error = err.Error()
		return result
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fail(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer uow.Rollback()

	payouts := uow.PayoutRepository()

	existing, err := payouts.GetForUpdate(ctx, userID, period)
	if err != nil {
		return fail(fmt.Errorf("failed to get existing payout: %w", err))
	}
	if existing != nil && existing.Status.IsTerminal() {
		result.Outcome = OutcomeSkipped
		result.PayoutID = existing.ID
		result.Amount = existing.Amount
		return result
	}

	later, err := payouts.ExistsAfter(ctx, userID, period)
	if err != nil {
		return fail(fmt.Errorf("failed to check later payouts: %w", err))
	}
	if later {
		return fail(fmt.Errorf("%w for user %d after %s", ErrPeriodSuperseded, userID, period))
	}

	sales, err := s.aggregator.Aggregate(ctx, uow.PaymentRepository(), userID, period)
	if err != nil {
		return fail(err)
	}

	breakdown, err := s.calculator.Compute(sales.GrossAmount, resolution.Rate)
	if err != nil {
		return fail(err)
	}

	prior, err := s.ledger.PriorCarryOver(ctx, payouts, userID, period)
	if err != nil {
		return fail(err)
	}

	settlement, err := s.ledger.Settle(prior, breakdown.NetAmount)
	if err != nil {
		return fail(err)
	}

	result.GrossAmount = breakdown.GrossAmount
	result.CommissionAmount = breakdown.CommissionAmount
	result.NetAmount = breakdown.NetAmount
	result.CarriedIn = settlement.PriorCarryOver
	result.Amount = settlement.PayableNow
	result.CarryOver = settlement.NewCarryOver

	// No sales and nothing due: the balance stays on the earlier row
	if sales.GrossAmount == 0 && !settlement.Due() {
		if existing != nil {
			if _, err := payouts.DeleteIfStatus(ctx, existing.ID, models.PayoutStatusUnpaid, models.PayoutStatusCarriedOver); err != nil {
				return fail(fmt.Errorf("failed to remove stale payout %d: %w", existing.ID, err))
			}
		}
		if err := uow.Commit(); err != nil {
			return fail(fmt.Errorf("failed to commit transaction: %w", err))
		}
		result.Outcome = OutcomeNoRecord
		result.CarryOver = 0
		result.CarriedIn = 0
		return result
	}

	payout := &models.Payout{
		UserID:           userID,
		Period:           period,
		GrossAmount:      breakdown.GrossAmount,
		PaymentCount:     sales.PaymentCount,
		CommissionRate:   resolution.Rate,
		CommissionAmount: breakdown.CommissionAmount,
		NetAmount:        breakdown.NetAmount,
		CarriedIn:        settlement.PriorCarryOver,
		Amount:           settlement.PayableNow,
		CarryOver:        settlement.NewCarryOver,
		Status:           models.PayoutStatusUnpaid,
		Note:             settlementNote(settlement),
	}
	if !settlement.Due() {
		payout.Status = models.PayoutStatusCarriedOver
	}

	applied, err := payouts.Upsert(ctx, payout)
	if err != nil {
		return fail(fmt.Errorf("failed to save payout: %w", err))
	}
	if !applied {
		// Confirmed or failed between our read and write
		result.Outcome = OutcomeSkipped
		return result
	}

	uow.EventBus().Publish(events.PayoutProcessedEvent{
		PayoutID:         payout.ID,
		UserID:           userID,
		Period:           period,
		GrossAmount:      payout.GrossAmount,
		CommissionAmount: payout.CommissionAmount,
		Amount:           payout.Amount,
		CarryOver:        payout.CarryOver,
		Status:           payout.Status,
	})

	if err := uow.Commit(); err != nil {
		return fail(fmt.Errorf("failed to commit transaction: %w", err))
	}

	result.PayoutID = payout.ID
	if settlement.Due() {
		result.Outcome = OutcomePayable
	} else {
		result.Outcome = OutcomeCarriedOver
	}
	return result
}

// saveRun stores the run summary and publishes its event after commit
func (s *payoutService) saveRun(ctx context.Context, report *ProcessMonthReport, event events.Event) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run := &models.PayoutRun{
		Period:           report.Period,
		CommissionRate:   report.CommissionRate,
		AuthorsProcessed: report.Processed(),
		AuthorsFailed:    report.Failed,
		TotalPayable:     report.TotalPayable,
		TotalCarryOver:   report.TotalCarryOver,
		ExecutionSummary: runSummary(report),
	}
	if err := uow.PayoutRunRepository().Save(ctx, run); err != nil {
		return fmt.Errorf("failed to save payout run for %s: %w", report.Period, err)
	}

	uow.EventBus().Publish(event)

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Confirm transitions an unpaid payout to paid
func (s *payoutService) Confirm(ctx context.Context, id int64) (*models.Payout, error) {
	payout, err := s.transition(ctx, id, models.PayoutStatusPaid, "")
	if err != nil {
		s.metrics.RecordConfirmation(ErrorCode(err))
		return nil, err
	}
	s.metrics.RecordConfirmation("confirmed")
	s.metrics.RecordPayoutAmount(string(models.PayoutStatusPaid), payout.Amount)
	return payout, nil
}

// BulkConfirm confirms every id independently. Failures are collected per
// id; the returned error is reserved for a cancelled context.
func (s *payoutService) BulkConfirm(ctx context.Context, ids []int64) (*BulkConfirmReport, error) {
	report := &BulkConfirmReport{
		Succeeded: []int64{},
		Failed:    []BulkConfirmFailure{},
	}

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, err := s.Confirm(ctx, id); err != nil {
			report.Failed = append(report.Failed, BulkConfirmFailure{
				ID:      id,
				Code:    ErrorCode(err),
				Message: err.Error(),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, id)
	}

	log.WithFields(log.Fields{
		"requested": len(ids),
		"succeeded": len(report.Succeeded),
		"failed":    len(report.Failed),
	}).Info("Bulk payout confirmation completed")

	return report, nil
}

// MarkFailed transitions an unpaid payout to failed with a reason
func (s *payoutService) MarkFailed(ctx context.Context, id int64, reason string) (*models.Payout, error) {
	return s.transition(ctx, id, models.PayoutStatusFailed, reason)
}

// transition performs the unpaid -> to compare-and-set
func (s *payoutService) transition(ctx context.Context, id int64, to models.PayoutStatus, note string) (*models.Payout, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payouts := uow.PayoutRepository()

	payout, err := payouts.TransitionStatus(ctx, id, models.PayoutStatusUnpaid, to, s.now(), note)
	if err != nil {
		return nil, fmt.Errorf("failed to update payout %d: %w", id, err)
	}
	if payout == nil {
		current, err := payouts.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get payout %d: %w", id, err)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %d", ErrPayoutNotFound, id)
		}
		return nil, fmt.Errorf("%w: payout %d is %s, expected %s", ErrInvalidPayoutState, id, current.Status, models.PayoutStatusUnpaid)
	}

	switch to {
	case models.PayoutStatusPaid:
		uow.EventBus().Publish(events.PayoutConfirmedEvent{
			PayoutID: payout.ID,
			UserID:   payout.UserID,
			Period:   payout.Period,
			Amount:   payout.Amount,
		})
	case models.PayoutStatusFailed:
		uow.EventBus().Publish(events.PayoutFailedEvent{
			PayoutID: payout.ID,
			UserID:   payout.UserID,
			Period:   payout.Period,
			Amount:   payout.Amount,
			Reason:   note,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"payoutID": payout.ID,
		"userID":   payout.UserID,
		"period":   payout.Period.String(),
		"amount":   payout.Amount,
		"status":   payout.Status,
	}).Info("Payout status updated")

	return payout, nil
}

// Delete removes an unconfirmed payout. Rows whose balance already flowed
// into a later period cannot be deleted.
func (s *payoutService) Delete(ctx context.Context, id int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payouts := uow.PayoutRepository()

	payout, err := payouts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get payout %d: %w", id, err)
	}
	if payout == nil {
		return fmt.Errorf("%w: %d", ErrPayoutNotFound, id)
	}

	later, err := payouts.ExistsAfter(ctx, payout.UserID, payout.Period)
	if err != nil {
		return fmt.Errorf("failed to check later payouts: %w", err)
	}
	if later {
		return fmt.Errorf("%w: payout %d is followed by a later period", ErrInvalidPayoutState, id)
	}

	deleted, err := payouts.DeleteIfStatus(ctx, id, models.PayoutStatusUnpaid, models.PayoutStatusCarriedOver)
	if err != nil {
		return fmt.Errorf("failed to delete payout %d: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("%w: payout %d is %s", ErrInvalidPayoutState, id, payout.Status)
	}

	return uow.Commit()
}

// List returns payouts matching filter
func (s *payoutService) List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	var payouts []*models.Payout
	err := s.read(ctx, func(uow UnitOfWork) error {
		var err error
		payouts, err = uow.PayoutRepository().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return payouts, nil
}

// ListByAuthor returns an author's payouts, newest period first
func (s *payoutService) ListByAuthor(ctx context.Context, userID int64) ([]*models.Payout, error) {
	return s.List(ctx, models.PayoutFilter{UserID: userID})
}

// CarryOverBalance returns the balance carried into period and how much
// more is needed before it becomes payable
func (s *payoutService) CarryOverBalance(ctx context.Context, userID int64, period models.Period) (*CarryOverView, error) {
	view := &CarryOverView{UserID: userID, Period: period, Threshold: MinimumPayoutAmount}

	err := s.read(ctx, func(uow UnitOfWork) error {
		prior, err := uow.PayoutRepository().GetLatestBefore(ctx, userID, period)
		if err != nil {
			return err
		}
		if prior != nil {
			view.Source = prior
			view.CarryOver = prior.CarryOver
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get carry-over for user %d: %w", userID, err)
	}

	if view.CarryOver < MinimumPayoutAmount {
		view.Remaining = MinimumPayoutAmount - view.CarryOver
	}
	return view, nil
}

// LatestRun returns the most recent monthly run
func (s *payoutService) LatestRun(ctx context.Context) (*models.PayoutRun, error) {
	var run *models.PayoutRun
	err := s.read(ctx, func(uow UnitOfWork) error {
		var err error
		run, err = uow.PayoutRunRepository().GetLatest(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest payout run: %w", err)
	}
	return run, nil
}

// RunForPeriod returns the stored run for period, or nil
func (s *payoutService) RunForPeriod(ctx context.Context, period models.Period) (*models.PayoutRun, error) {
	var run *models.PayoutRun
	err := s.read(ctx, func(uow UnitOfWork) error {
		var err error
		run, err = uow.PayoutRunRepository().GetByPeriod(ctx, period)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get payout run for %s: %w", period, err)
	}
	return run, nil
}

func (s *payoutService) read(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}

func settlementNote(s Settlement) string {
	switch {
	case !s.Due():
		return fmt.Sprintf("below minimum payout of %d yen; %d yen carried over", MinimumPayoutAmount, s.NewCarryOver)
	case s.PriorCarryOver > 0:
		return fmt.Sprintf("includes %d yen carried over from earlier periods", s.PriorCarryOver)
	default:
		return ""
	}
}

func runSummary(report *ProcessMonthReport) map[string]interface{} {
	summary := map[string]interface{}{
		"payable":      report.Payable,
		"carried_over": report.CarriedOver,
		"no_record":    report.NoRecord,
		"skipped":      report.Skipped,
		"failed":       report.Failed,
		"duration_ms":  report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	}
	if report.CommissionSettingID != 0 {
		summary["commission_setting_id"] = report.CommissionSettingID
	}
	if len(report.Warnings) > 0 {
		summary["warnings"] = report.Warnings
	}

	var failures []map[string]interface{}
	for _, res := range report.FailedResults() {
		failures = append(failures, map[string]interface{}{
			"user_id": res.UserID,
			"code":    res.Code,
			"error":   res.Error,
		})
	}
	if len(failures) > 0 {
		summary["failures"] = failures
	}
	return summary
}

// mergeAuthorIDs returns the sorted union of the given id lists
func mergeAuthorIDs(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type noopPayoutMetrics struct{}

func (noopPayoutMetrics) RecordPayoutOutcome(string)                {}
func (noopPayoutMetrics) RecordPayoutAmount(string, int64)          {}
func (noopPayoutMetrics) RecordConfirmation(string)                 {}
func (noopPayoutMetrics) RecordMonthProcessed(string, time.Duration) {}
