package events

import (
	"context"
	"sync"

	"payouts/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePayoutProcessed        EventType = "payout_processed"
	EventTypePayoutConfirmed        EventType = "payout_confirmed"
	EventTypePayoutFailed           EventType = "payout_failed"
	EventTypeMonthProcessed         EventType = "month_processed"
	EventTypeCommissionUnconfigured EventType = "commission_unconfigured"
)

// AllEventTypes lists every event type emitted by the payout engine
var AllEventTypes = []EventType{
	EventTypePayoutProcessed,
	EventTypePayoutConfirmed,
	EventTypePayoutFailed,
	EventTypeMonthProcessed,
	EventTypeCommissionUnconfigured,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PayoutProcessedEvent is emitted when monthly processing writes a payout row
type PayoutProcessedEvent struct {
	PayoutID         int64               `json:"payout_id"`
	UserID           int64               `json:"user_id"`
	Period           models.Period       `json:"period"`
	GrossAmount      int64               `json:"gross_amount"`
	CommissionAmount int64               `json:"commission_amount"`
	Amount           int64               `json:"amount"`
	CarryOver        int64               `json:"carry_over"`
	Status           models.PayoutStatus `json:"status"`
}

func (e PayoutProcessedEvent) Type() EventType {
	return EventTypePayoutProcessed
}

// PayoutConfirmedEvent is emitted when an admin marks a payout as paid
type PayoutConfirmedEvent struct {
	PayoutID int64         `json:"payout_id"`
	UserID   int64         `json:"user_id"`
	Period   models.Period `json:"period"`
	Amount   int64         `json:"amount"`
}

func (e PayoutConfirmedEvent) Type() EventType {
	return EventTypePayoutConfirmed
}

// PayoutFailedEvent is emitted when a transfer is recorded as failed
type PayoutFailedEvent struct {
	PayoutID int64         `json:"payout_id"`
	UserID   int64         `json:"user_id"`
	Period   models.Period `json:"period"`
	Amount   int64         `json:"amount"`
	Reason   string        `json:"reason"`
}

func (e PayoutFailedEvent) Type() EventType {
	return EventTypePayoutFailed
}

// MonthProcessedEvent summarizes a completed monthly run
type MonthProcessedEvent struct {
	Period         models.Period `json:"period"`
	CommissionRate string        `json:"commission_rate"`
	Processed      int           `json:"processed"`
	CarriedOver    int           `json:"carried_over"`
	Skipped        int           `json:"skipped"`
	Failed         int           `json:"failed"`
	TotalPayable   int64         `json:"total_payable"`
	TotalCarryOver int64         `json:"total_carry_over"`
}

func (e MonthProcessedEvent) Type() EventType {
	return EventTypeMonthProcessed
}

// CommissionUnconfiguredEvent alerts admins that a period has no rate
type CommissionUnconfiguredEvent struct {
	Period          models.Period `json:"period"`
	AffectedAuthors int           `json:"affected_authors"`
}

func (e CommissionUnconfiguredEvent) Type() EventType {
	return EventTypeCommissionUnconfigured
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers.
// Handlers run asynchronously; a panicking handler is logged and dropped.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.wg.Wait()
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush emits pending events; called after a successful commit.
// Handlers receive ctx detached from its cancellation.
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	for _, ev := range b.pending {
		b.real.Emit(context.WithoutCancel(ctx), ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
