package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"payouts/events"
	"payouts/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessagePublisher struct {
	mock.Mock
	mu       sync.Mutex
	messages map[string][]byte
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	m.mu.Lock()
	if m.messages == nil {
		m.messages = make(map[string][]byte)
	}
	m.messages[subject] = data
	m.mu.Unlock()

	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func TestSubjectForEvent(t *testing.T) {
	assert.Equal(t, "payouts.payout_confirmed", SubjectForEvent(events.EventTypePayoutConfirmed))
	assert.Equal(t, "payouts.month_processed", SubjectForEvent(events.EventTypeMonthProcessed))

	subjects := AllSubjects()
	assert.Len(t, subjects, len(events.AllEventTypes))
	assert.Contains(t, subjects, "payouts.commission_unconfigured")
}

func TestNATSEventForwarder_Forward(t *testing.T) {
	ctx := context.Background()
	publisher := &MockMessagePublisher{}
	publisher.On("Publish", ctx, "payouts.payout_confirmed", mock.Anything).Return(nil)

	forwarder := NewNATSEventForwarder(publisher)
	fixed := time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)
	forwarder.now = func() time.Time { return fixed }

	event := events.PayoutConfirmedEvent{
		PayoutID: 7,
		UserID:   42,
		Period:   models.MustParsePeriod("2024-05"),
		Amount:   9000,
	}
	require.NoError(t, forwarder.Forward(ctx, event))
	publisher.AssertExpectations(t)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(publisher.messages["payouts.payout_confirmed"], &envelope))
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "payout_confirmed", envelope.EventType)
	assert.Equal(t, "payouts", envelope.SourceService)
	assert.True(t, fixed.Equal(envelope.Timestamp))

	var payload events.PayoutConfirmedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventForwarder_PublishError(t *testing.T) {
	ctx := context.Background()
	publisher := &MockMessagePublisher{}
	publisher.On("Publish", ctx, mock.Anything, mock.Anything).Return(errors.New("no responders"))

	forwarder := NewNATSEventForwarder(publisher)
	err := forwarder.Forward(ctx, events.MonthProcessedEvent{Period: models.MustParsePeriod("2024-05")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
}

func TestNATSEventForwarder_Register(t *testing.T) {
	publisher := &MockMessagePublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	bus := events.NewBus()
	NewNATSEventForwarder(publisher).Register(bus)

	bus.Emit(context.Background(), events.CommissionUnconfiguredEvent{
		Period:          models.MustParsePeriod("2024-05"),
		AffectedAuthors: 3,
	})
	bus.Emit(context.Background(), events.PayoutFailedEvent{PayoutID: 1, Reason: "closed"})
	bus.Wait()

	publisher.AssertNumberOfCalls(t, "Publish", 2)
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Contains(t, publisher.messages, "payouts.commission_unconfigured")
	assert.Contains(t, publisher.messages, "payouts.payout_failed")
}

func TestNATSClient_NotConnected(t *testing.T) {
	client := NewNATSClient("nats://localhost:4222")
	assert.False(t, client.IsConnected())
	assert.Error(t, client.Publish(context.Background(), "payouts.x", []byte("{}")))
	assert.Error(t, client.EnsureStream(EventStreamName, AllSubjects()))
	assert.NoError(t, client.Close())
}
