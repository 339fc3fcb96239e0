// Package delivery hands persisted notifications to the user's devices.
// It runs in the worker process, fed by the notifications topic.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/kafka"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/observability"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
)

// Transport is one provider integration, push gateway or mail relay.
type Transport interface {
	Deliver(ctx context.Context, channel Channel, event kafka.NotificationEvent) error
}

// ChannelsFor lists where a notification type goes. Every type is pushed;
// confirmations and ride cancellations also go out by email.
func ChannelsFor(t domain.NotificationType) []Channel {
	switch t {
	case domain.NotificationBookingConfirmed, domain.NotificationRideCancelled:
		return []Channel{ChannelPush, ChannelEmail}
	default:
		return []Channel{ChannelPush}
	}
}

type Sender struct {
	transport Transport
	logger    *slog.Logger
}

func NewSender(transport Transport, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sender{transport: transport, logger: logger}
}

// Send tries every channel for the event and reports the channels that failed.
func (s *Sender) Send(ctx context.Context, event kafka.NotificationEvent) error {
	var errs []error
	for _, ch := range ChannelsFor(event.Type) {
		if err := s.transport.Deliver(ctx, ch, event); err != nil {
			observability.DeliveriesTotal.WithLabelValues(string(ch), "error").Inc()
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
			continue
		}
		observability.DeliveriesTotal.WithLabelValues(string(ch), "ok").Inc()
	}
	return errors.Join(errs...)
}

// LogTransport writes deliveries to the log instead of calling a provider.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Deliver(ctx context.Context, channel Channel, event kafka.NotificationEvent) error {
	t.logger.InfoContext(ctx, "notification delivered",
		"channel", channel,
		"notification_id", event.NotificationID,
		"user_id", event.UserID,
		"type", event.Type,
		"priority", event.Priority,
		"title", event.Title,
	)
	return nil
}
