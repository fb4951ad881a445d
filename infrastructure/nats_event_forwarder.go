package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payouts/events"
	"payouts/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// EventStreamName is the JetStream stream holding payout events
	EventStreamName = "payout_events"

	subjectPrefix = "payouts"
	sourceService = "payouts"
)

// MessagePublisher sends raw bytes to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// EventEnvelope wraps a domain event on the wire
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// SubjectForEvent maps an event type to its NATS subject
func SubjectForEvent(eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, eventType)
}

// AllSubjects returns every subject the forwarder publishes to
func AllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, eventType := range events.AllEventTypes {
		subjects = append(subjects, SubjectForEvent(eventType))
	}
	return subjects
}

// NATSEventForwarder republishes committed bus events to NATS
type NATSEventForwarder struct {
	publisher MessagePublisher
	now       func() time.Time
}

// NewNATSEventForwarder creates a forwarder publishing through publisher
func NewNATSEventForwarder(publisher MessagePublisher) *NATSEventForwarder {
	return &NATSEventForwarder{
		publisher: publisher,
		now:       time.Now,
	}
}

// Register subscribes the forwarder to every payout event on the bus
func (f *NATSEventForwarder) Register(bus *events.Bus) {
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, f.handle)
	}
}

func (f *NATSEventForwarder) handle(ctx context.Context, event events.Event) {
	if err := f.Forward(ctx, event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to forward event to NATS")
	}
}

// Forward publishes a single event wrapped in an envelope
func (f *NATSEventForwarder) Forward(ctx context.Context, event events.Event) error {
	envelope, err := f.envelope(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := SubjectForEvent(event.Type())
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	observability.GetMetrics().RecordNATSMessagePublished(string(event.Type()))

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}

func (f *NATSEventForwarder) envelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}, nil
}
