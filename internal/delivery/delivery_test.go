package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/kafka"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Deliver(ctx context.Context, channel Channel, event kafka.NotificationEvent) error {
	return m.Called(ctx, channel, event.NotificationID).Error(0)
}

type MockDeduper struct {
	mock.Mock
}

func (m *MockDeduper) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeduper) ForgetDelivered(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func message(t *testing.T, typ domain.NotificationType) (kafkaGo.Message, uuid.UUID) {
	t.Helper()
	event := kafka.NotificationEvent{NotificationID: uuid.New(), UserID: uuid.New(), Type: typ, Title: "t", CreatedAt: time.Now()}
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafkaGo.Message{Value: raw}, event.NotificationID
}

func TestChannelsFor(t *testing.T) {
	assert.Equal(t, []Channel{ChannelPush, ChannelEmail}, ChannelsFor(domain.NotificationBookingConfirmed))
	assert.Equal(t, []Channel{ChannelPush, ChannelEmail}, ChannelsFor(domain.NotificationRideCancelled))
	assert.Equal(t, []Channel{ChannelPush}, ChannelsFor(domain.NotificationBookingRequest))
	assert.Equal(t, []Channel{ChannelPush}, ChannelsFor(domain.NotificationBookingCancelled))
}

func TestSender_ReportsFailedChannelsOnly(t *testing.T) {
	transport := &MockTransport{}
	sender := NewSender(transport, nil)
	event := kafka.NotificationEvent{NotificationID: uuid.New(), Type: domain.NotificationRideCancelled}

	transport.On("Deliver", mock.Anything, ChannelPush, event.NotificationID).Return(nil)
	transport.On("Deliver", mock.Anything, ChannelEmail, event.NotificationID).Return(errors.New("smtp down"))

	err := sender.Send(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "email: smtp down")
	assert.NotContains(t, err.Error(), "push")
	transport.AssertExpectations(t)
}

func TestWorker_SkipsMalformedEvents(t *testing.T) {
	transport := &MockTransport{}
	worker := NewWorker(NewSender(transport, nil))

	err := worker.Handle(context.Background(), kafkaGo.Message{Value: []byte("{not json")})

	assert.NoError(t, err)
	transport.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_SkipsAlreadyDelivered(t *testing.T) {
	transport := &MockTransport{}
	dedupe := &MockDeduper{}
	worker := NewWorker(NewSender(transport, nil), WithDeduper(dedupe))
	msg, id := message(t, domain.NotificationBookingRequest)

	dedupe.On("MarkDelivered", mock.Anything, id).Return(false, nil)

	require.NoError(t, worker.Handle(context.Background(), msg))
	transport.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_RetriesThenClearsMarker(t *testing.T) {
	transport := &MockTransport{}
	dedupe := &MockDeduper{}
	worker := NewWorker(NewSender(transport, nil), WithDeduper(dedupe), WithRetry(3, time.Millisecond))
	msg, id := message(t, domain.NotificationBookingRequest)

	dedupe.On("MarkDelivered", mock.Anything, id).Return(true, nil)
	dedupe.On("ForgetDelivered", mock.Anything, id).Return(nil)
	transport.On("Deliver", mock.Anything, ChannelPush, id).Return(errors.New("gateway timeout"))

	require.NoError(t, worker.Handle(context.Background(), msg))

	transport.AssertNumberOfCalls(t, "Deliver", 3)
	dedupe.AssertCalled(t, "ForgetDelivered", mock.Anything, id)
}

func TestWorker_DeliversWhenDedupeUnavailable(t *testing.T) {
	transport := &MockTransport{}
	dedupe := &MockDeduper{}
	worker := NewWorker(NewSender(transport, nil), WithDeduper(dedupe))
	msg, id := message(t, domain.NotificationBookingConfirmed)

	dedupe.On("MarkDelivered", mock.Anything, id).Return(false, errors.New("redis down"))
	transport.On("Deliver", mock.Anything, mock.Anything, id).Return(nil)

	require.NoError(t, worker.Handle(context.Background(), msg))
	transport.AssertNumberOfCalls(t, "Deliver", 2)
}

func TestWorker_StopsRetryingOnCancel(t *testing.T) {
	transport := &MockTransport{}
	worker := NewWorker(NewSender(transport, nil), WithRetry(5, time.Hour))
	msg, id := message(t, domain.NotificationBookingRequest)
	transport.On("Deliver", mock.Anything, ChannelPush, id).Return(errors.New("down"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, worker.Handle(ctx, msg), context.Canceled)
	transport.AssertNumberOfCalls(t, "Deliver", 1)
}
