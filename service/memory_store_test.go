package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"payouts/events"
	"payouts/models"
)

// memoryStore is an in-memory UnitOfWorkFactory for multi-step scenarios.
// Writes apply immediately; events are kept only when the unit of work commits.
type memoryStore struct {
	mu          sync.Mutex
	settings    []*models.CommissionSetting
	payments    []*models.Payment
	payouts     map[int64]*models.Payout
	runs        map[models.Period]*models.PayoutRun
	events      []events.Event
	nextID      int64
	nextPayment int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		payouts: make(map[int64]*models.Payout),
		runs:    make(map[models.Period]*models.PayoutRun),
	}
}

func (s *memoryStore) Create() UnitOfWork {
	return &memoryUnitOfWork{store: s}
}

func (s *memoryStore) addSetting(id int64, rate string, from time.Time, to *time.Time) {
	s.settings = append(s.settings, setting(id, rate, from, to, true))
}

func (s *memoryStore) addSale(userID, amount int64, paidAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPayment++
	s.payments = append(s.payments, paidPayment(s.nextPayment, userID, amount, paidAt))
}

func (s *memoryStore) payoutFor(userID int64, period models.Period) *models.Payout {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payouts {
		if p.UserID == userID && p.Period == period {
			copied := *p
			return &copied
		}
	}
	return nil
}

func (s *memoryStore) payoutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payouts)
}

func (s *memoryStore) eventsOfType(t events.EventType) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, e := range s.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

type memoryUnitOfWork struct {
	store   *memoryStore
	pending []events.Event
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *memoryUnitOfWork) Commit() error {
	u.store.mu.Lock()
	u.store.events = append(u.store.events, u.pending...)
	u.store.mu.Unlock()
	u.pending = nil
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	u.pending = nil
	return nil
}

func (u *memoryUnitOfWork) CommissionSettingRepository() CommissionSettingRepository {
	return &memoryCommissionSettings{store: u.store}
}

func (u *memoryUnitOfWork) PaymentRepository() PaymentRepository {
	return &memoryPayments{store: u.store}
}

func (u *memoryUnitOfWork) PayoutRepository() PayoutRepository {
	return &memoryPayouts{store: u.store}
}

func (u *memoryUnitOfWork) PayoutRunRepository() PayoutRunRepository {
	return &memoryRuns{store: u.store}
}

func (u *memoryUnitOfWork) EventBus() EventPublisher {
	return u
}

func (u *memoryUnitOfWork) Publish(event events.Event) {
	u.pending = append(u.pending, event)
}

type memoryCommissionSettings struct{ store *memoryStore }

func (r *memoryCommissionSettings) ListActive(ctx context.Context) ([]*models.CommissionSetting, error) {
	var out []*models.CommissionSetting
	for _, s := range r.store.settings {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryCommissionSettings) List(ctx context.Context) ([]*models.CommissionSetting, error) {
	return r.store.settings, nil
}

func (r *memoryCommissionSettings) GetByID(ctx context.Context, id int64) (*models.CommissionSetting, error) {
	for _, s := range r.store.settings {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memoryCommissionSettings) Create(ctx context.Context, setting *models.CommissionSetting) error {
	setting.ID = int64(len(r.store.settings) + 1)
	r.store.settings = append(r.store.settings, setting)
	return nil
}

func (r *memoryCommissionSettings) Update(ctx context.Context, setting *models.CommissionSetting) error {
	return nil
}

func (r *memoryCommissionSettings) Delete(ctx context.Context, id int64) error {
	for i, s := range r.store.settings {
		if s.ID == id {
			r.store.settings = append(r.store.settings[:i], r.store.settings[i+1:]...)
			return nil
		}
	}
	return nil
}

type memoryPayments struct{ store *memoryStore }

func (r *memoryPayments) ListSuccessful(ctx context.Context, userID int64, from, to time.Time) ([]*models.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.Payment
	for _, p := range r.store.payments {
		if p.UserID == userID && p.Qualifies() && !p.PaidAt.Before(from) && p.PaidAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryPayments) ListSellers(ctx context.Context, from, to time.Time) ([]int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := map[int64]bool{}
	var out []int64
	for _, p := range r.store.payments {
		if p.Qualifies() && !p.PaidAt.Before(from) && p.PaidAt.Before(to) && !seen[p.UserID] {
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

type memoryPayouts struct{ store *memoryStore }

func (r *memoryPayouts) find(userID int64, period models.Period) *models.Payout {
	for _, p := range r.store.payouts {
		if p.UserID == userID && p.Period == period {
			return p
		}
	}
	return nil
}

func (r *memoryPayouts) GetByID(ctx context.Context, id int64) (*models.Payout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.payouts[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryPayouts) GetForUpdate(ctx context.Context, userID int64, period models.Period) (*models.Payout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p := r.find(userID, period); p != nil {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryPayouts) GetLatestBefore(ctx context.Context, userID int64, before models.Period) (*models.Payout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var latest *models.Payout
	for _, p := range r.store.payouts {
		if p.UserID == userID && p.Period.Before(before) && (latest == nil || latest.Period.Before(p.Period)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *memoryPayouts) ExistsAfter(ctx context.Context, userID int64, after models.Period) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.payouts {
		if p.UserID == userID && after.Before(p.Period) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPayouts) ListAuthorsWithCarryOver(ctx context.Context, before models.Period) ([]int64, error) {
	r.store.mu.Lock()
	latest := map[int64]*models.Payout{}
	for _, p := range r.store.payouts {
		if !p.Period.Before(before) {
			continue
		}
		if cur, ok := latest[p.UserID]; !ok || cur.Period.Before(p.Period) {
			latest[p.UserID] = p
		}
	}
	r.store.mu.Unlock()

	var out []int64
	for userID, p := range latest {
		if p.CarryOver > 0 {
			out = append(out, userID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *memoryPayouts) ListAuthorsForPeriod(ctx context.Context, period models.Period) ([]int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []int64
	for _, p := range r.store.payouts {
		if p.Period == period && !p.Status.IsTerminal() {
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (r *memoryPayouts) Upsert(ctx context.Context, payout *models.Payout) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if existing := r.find(payout.UserID, payout.Period); existing != nil {
		if existing.Status.IsTerminal() {
			return false, nil
		}
		payout.ID = existing.ID
		payout.CreatedAt = existing.CreatedAt
	} else {
		r.store.nextID++
		payout.ID = r.store.nextID
		payout.CreatedAt = time.Now()
	}
	payout.UpdatedAt = time.Now()
	copied := *payout
	r.store.payouts[payout.ID] = &copied
	return true, nil
}

func (r *memoryPayouts) TransitionStatus(ctx context.Context, id int64, from, to models.PayoutStatus, at time.Time, note string) (*models.Payout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payouts[id]
	if !ok || p.Status != from {
		return nil, nil
	}
	p.Status = to
	if to == models.PayoutStatusPaid {
		paidAt := at
		p.PaidAt = &paidAt
	}
	if note != "" {
		p.Note = note
	}
	p.UpdatedAt = at
	copied := *p
	return &copied, nil
}

func (r *memoryPayouts) DeleteIfStatus(ctx context.Context, id int64, statuses ...models.PayoutStatus) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payouts[id]
	if !ok {
		return false, nil
	}
	for _, s := range statuses {
		if p.Status == s {
			delete(r.store.payouts, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryPayouts) List(ctx context.Context, filter models.PayoutFilter) ([]*models.Payout, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*models.Payout
	for _, p := range r.store.payouts {
		if filter.UserID != 0 && p.UserID != filter.UserID {
			continue
		}
		if filter.Period != nil && p.Period != *filter.Period {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Period.Before(out[i].Period) })
	return out, nil
}

type memoryRuns struct{ store *memoryStore }

func (r *memoryRuns) GetByPeriod(ctx context.Context, period models.Period) (*models.PayoutRun, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.runs[period], nil
}

func (r *memoryRuns) GetLatest(ctx context.Context) (*models.PayoutRun, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var latest *models.PayoutRun
	for _, run := range r.store.runs {
		if latest == nil || latest.Period.Before(run.Period) {
			latest = run
		}
	}
	return latest, nil
}

func (r *memoryRuns) Save(ctx context.Context, run *models.PayoutRun) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if existing, ok := r.store.runs[run.Period]; ok {
		run.ID = existing.ID
	} else {
		run.ID = int64(len(r.store.runs) + 1)
	}
	r.store.runs[run.Period] = run
	return nil
}
