package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/rideshare/internal/kafka"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Deduper remembers which notifications already went out so redelivered
// messages are not sent twice.
type Deduper interface {
	MarkDelivered(ctx context.Context, notificationID uuid.UUID) (bool, error)
	ForgetDelivered(ctx context.Context, notificationID uuid.UUID) error
}

type Worker struct {
	sender      *Sender
	dedupe      Deduper
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

type WorkerOption func(*Worker)

func WithDeduper(d Deduper) WorkerOption {
	return func(w *Worker) { w.dedupe = d }
}

func WithRetry(maxAttempts int, backoff time.Duration) WorkerOption {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
		w.backoff = backoff
	}
}

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

func NewWorker(sender *Sender, opts ...WorkerOption) *Worker {
	w := &Worker{sender: sender, maxAttempts: 1, logger: logging.Discard()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle processes one message. It only returns an error when ctx ends, so
// the consumer keeps committing past undeliverable messages.
func (w *Worker) Handle(ctx context.Context, msg kafkaGo.Message) error {
	event, err := kafka.DecodeNotificationEvent(msg)
	if err != nil {
		w.logger.Warn("skipping malformed notification event", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return nil
	}

	if w.dedupe != nil {
		first, err := w.dedupe.MarkDelivered(ctx, event.NotificationID)
		switch {
		case err != nil:
			w.logger.Warn("delivery dedupe unavailable", "notification_id", event.NotificationID, "error", err)
		case !first:
			w.logger.Debug("notification already delivered", "notification_id", event.NotificationID)
			return nil
		}
	}

	for attempt := 1; ; attempt++ {
		err = w.sender.Send(ctx, event)
		if err == nil {
			return nil
		}
		if attempt >= w.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * w.backoff):
		}
	}

	w.logger.Error("notification not delivered",
		"notification_id", event.NotificationID, "user_id", event.UserID, "type", event.Type, "error", err)
	if w.dedupe != nil {
		if ferr := w.dedupe.ForgetDelivered(ctx, event.NotificationID); ferr != nil {
			w.logger.Warn("delivery marker not cleared", "notification_id", event.NotificationID, "error", ferr)
		}
	}
	return nil
}
