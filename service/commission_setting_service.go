package service

import (
	"context"
	"fmt"
	"time"

	"payouts/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CommissionSettingInput carries admin-editable fields of a commission setting
type CommissionSettingInput struct {
	Rate           decimal.Decimal `json:"rate"`
	ApplicableFrom time.Time       `json:"applicable_from"`
	ApplicableTo   *time.Time      `json:"applicable_to"`
	IsActive       *bool           `json:"is_active"`
	Description    string          `json:"description"`
}

// commissionSettingService implements the CommissionSettingService interface
type commissionSettingService struct {
	uowFactory UnitOfWorkFactory
	resolver   CommissionScheduleResolver
}

// NewCommissionSettingService creates a new commission setting service
func NewCommissionSettingService(uowFactory UnitOfWorkFactory) CommissionSettingService {
	return &commissionSettingService{
		uowFactory: uowFactory,
		resolver:   CommissionScheduleResolver{},
	}
}

func (s *commissionSettingService) List(ctx context.Context) ([]*models.CommissionSetting, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.CommissionSettingRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission settings: %w", err)
	}
	return settings, uow.Commit()
}

// Create inserts a setting and trims the open range of the setting before it
// so that active ranges never overlap
func (s *commissionSettingService) Create(ctx context.Context, input CommissionSettingInput) (*models.CommissionSetting, error) {
	setting := &models.CommissionSetting{IsActive: true}
	if err := applyInput(setting, input); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.CommissionSettingRepository()
	existing, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission settings: %w", err)
	}

	adjusted, continuation, err := fitIntoSchedule(setting, existing)
	if err != nil {
		return nil, err
	}
	for _, neighbor := range adjusted {
		if err := repo.Update(ctx, neighbor); err != nil {
			return nil, fmt.Errorf("failed to adjust commission setting %d: %w", neighbor.ID, err)
		}
	}

	if err := repo.Create(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to create commission setting: %w", err)
	}
	if err := createContinuation(ctx, repo, continuation); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"settingID": setting.ID,
		"rate":      setting.Rate.String(),
		"from":      setting.ApplicableFrom.Format(time.DateOnly),
		"adjusted":  len(adjusted),
	}).Info("Commission setting created")

	return setting, nil
}

// Update replaces a setting's fields, re-fitting neighbors the same way Create does
func (s *commissionSettingService) Update(ctx context.Context, id int64, input CommissionSettingInput) (*models.CommissionSetting, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.CommissionSettingRepository()
	setting, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission setting %d: %w", id, err)
	}
	if setting == nil {
		return nil, fmt.Errorf("%w: %d", ErrCommissionSettingNotFound, id)
	}

	if err := applyInput(setting, input); err != nil {
		return nil, err
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission settings: %w", err)
	}

	adjusted, continuation, err := fitIntoSchedule(setting, existing)
	if err != nil {
		return nil, err
	}
	for _, neighbor := range adjusted {
		if err := repo.Update(ctx, neighbor); err != nil {
			return nil, fmt.Errorf("failed to adjust commission setting %d: %w", neighbor.ID, err)
		}
	}

	if err := repo.Update(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to update commission setting %d: %w", id, err)
	}
	if err := createContinuation(ctx, repo, continuation); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return setting, nil
}

// Delete removes a setting. When the preceding active setting ended the day
// before it, that setting is extended over the deleted range.
func (s *commissionSettingService) Delete(ctx context.Context, id int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	repo := uow.CommissionSettingRepository()
	setting, err := repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get commission setting %d: %w", id, err)
	}
	if setting == nil {
		return fmt.Errorf("%w: %d", ErrCommissionSettingNotFound, id)
	}

	if setting.IsActive {
		existing, err := repo.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list commission settings: %w", err)
		}
		prev := previousActive(existing, setting)
		if prev != nil && prev.ApplicableTo != nil &&
			models.CivilDate(addDays(*prev.ApplicableTo, 1)) == models.CivilDate(setting.ApplicableFrom) {
			prev.ApplicableTo = setting.ApplicableTo
			if err := repo.Update(ctx, prev); err != nil {
				return fmt.Errorf("failed to extend commission setting %d: %w", prev.ID, err)
			}
		}
	}

	if err := repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete commission setting %d: %w", id, err)
	}
	return uow.Commit()
}

// ResolveForPeriod resolves the rate against the current settings
func (s *commissionSettingService) ResolveForPeriod(ctx context.Context, period models.Period) (*CommissionResolution, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.CommissionSettingRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load commission settings: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.resolver.ResolvePeriod(settings, period)
}

func applyInput(setting *models.CommissionSetting, input CommissionSettingInput) error {
	if input.Rate.LessThan(minRate) || input.Rate.GreaterThan(maxRate) {
		return fmt.Errorf("%w: %w", ErrInvalidCommissionSetting, ErrInvalidRate)
	}
	if input.Rate.Exponent() < -2 && !input.Rate.Equal(input.Rate.Round(2)) {
		return fmt.Errorf("%w: rate supports at most two decimal places", ErrInvalidCommissionSetting)
	}
	if input.ApplicableFrom.IsZero() {
		return fmt.Errorf("%w: applicable_from is required", ErrInvalidCommissionSetting)
	}

	setting.Rate = input.Rate
	setting.ApplicableFrom = dateOnly(input.ApplicableFrom)
	setting.ApplicableTo = nil
	if input.ApplicableTo != nil {
		to := dateOnly(*input.ApplicableTo)
		if models.CivilDate(to) < models.CivilDate(setting.ApplicableFrom) {
			return fmt.Errorf("%w: applicable_to is before applicable_from", ErrInvalidCommissionSetting)
		}
		setting.ApplicableTo = &to
	}
	if input.IsActive != nil {
		setting.IsActive = *input.IsActive
	}
	setting.Description = input.Description
	return nil
}

// fitIntoSchedule makes target's active range disjoint from the other
// active settings. The preceding setting is trimmed to end the day before
// target starts and target is trimmed to end the day before the following
// setting starts. When target ends inside the preceding setting's range, the
// remainder of that range is returned as a continuation to be created.
// It returns the neighbors that changed.
func fitIntoSchedule(target *models.CommissionSetting, settings []*models.CommissionSetting) ([]*models.CommissionSetting, *models.CommissionSetting, error) {
	if !target.IsActive {
		return nil, nil, nil
	}

	start := models.CivilDate(target.ApplicableFrom)
	var next *models.CommissionSetting
	for _, s := range settings {
		if s.ID == target.ID || !s.IsActive {
			continue
		}
		from := models.CivilDate(s.ApplicableFrom)
		if from == start {
			return nil, nil, fmt.Errorf("%w: setting %d already starts on %s",
				ErrInvalidCommissionSetting, s.ID, target.ApplicableFrom.Format(time.DateOnly))
		}
		if from > start && (next == nil || from < models.CivilDate(next.ApplicableFrom)) {
			next = s
		}
	}

	if next != nil && (target.ApplicableTo == nil || models.CivilDate(*target.ApplicableTo) >= models.CivilDate(next.ApplicableFrom)) {
		end := addDays(next.ApplicableFrom, -1)
		target.ApplicableTo = &end
	}

	var adjusted []*models.CommissionSetting
	var continuation *models.CommissionSetting
	if prev := previousActive(settings, target); prev != nil {
		if prev.ApplicableTo == nil || models.CivilDate(*prev.ApplicableTo) >= start {
			originalEnd := prev.ApplicableTo
			if target.ApplicableTo != nil &&
				(originalEnd == nil || models.CivilDate(*originalEnd) > models.CivilDate(*target.ApplicableTo)) {
				continuation = &models.CommissionSetting{
					Rate:           prev.Rate,
					ApplicableFrom: addDays(*target.ApplicableTo, 1),
					ApplicableTo:   originalEnd,
					IsActive:       true,
					Description:    prev.Description,
				}
			}

			end := addDays(target.ApplicableFrom, -1)
			prev.ApplicableTo = &end
			adjusted = append(adjusted, prev)
		}
	}
	return adjusted, continuation, nil
}

func createContinuation(ctx context.Context, repo CommissionSettingRepository, continuation *models.CommissionSetting) error {
	if continuation == nil {
		return nil
	}
	if err := repo.Create(ctx, continuation); err != nil {
		return fmt.Errorf("failed to create continuation of commission setting: %w", err)
	}

	log.WithFields(log.Fields{
		"settingID": continuation.ID,
		"rate":      continuation.Rate.String(),
		"from":      continuation.ApplicableFrom.Format(time.DateOnly),
	}).Info("Commission setting range split around a bounded setting")
	return nil
}

// previousActive returns the active setting that starts latest before target
func previousActive(settings []*models.CommissionSetting, target *models.CommissionSetting) *models.CommissionSetting {
	start := models.CivilDate(target.ApplicableFrom)
	var prev *models.CommissionSetting
	for _, s := range settings {
		if s.ID == target.ID || !s.IsActive {
			continue
		}
		from := models.CivilDate(s.ApplicableFrom)
		if from < start && (prev == nil || from > models.CivilDate(prev.ApplicableFrom)) {
			prev = s
		}
	}
	return prev
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addDays(t time.Time, days int) time.Time {
	return dateOnly(t).AddDate(0, 0, days)
}
