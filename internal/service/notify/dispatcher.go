// Package notify turns booking lifecycle events into notification records.
// Emit only enqueues; a single worker goroutine persists, invalidates the
// unread-count cache and publishes a delivery event.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/kafka"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/observability"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/google/uuid"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// UnreadCache holds per-user unread counts. A fill only lands if no
// invalidation happened since the generation it carries was read.
type UnreadCache interface {
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (count int, generation int64, ok bool, err error)
	SetUnreadCount(ctx context.Context, userID uuid.UUID, generation int64, count int) error
	InvalidateUnreadCount(ctx context.Context, userID uuid.UUID) error
}

type Dispatcher struct {
	repo      repository.NotificationRepository
	cache     UnreadCache
	publisher Publisher
	topic     string
	logger    *slog.Logger

	maxAttempts int
	backoff     time.Duration
	now         func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan *domain.Notification
	done   chan struct{}
}

type DispatcherOption func(*Dispatcher)

func WithCache(c UnreadCache) DispatcherOption {
	return func(d *Dispatcher) { d.cache = c }
}

func WithPublisher(p Publisher, topic string) DispatcherOption {
	return func(d *Dispatcher) {
		d.publisher = p
		d.topic = topic
	}
}

func WithRetry(maxAttempts int, backoff time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if maxAttempts > 0 {
			d.maxAttempts = maxAttempts
		}
		d.backoff = backoff
	}
}

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

func NewDispatcher(repo repository.NotificationRepository, queueSize int, opts ...DispatcherOption) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		repo:        repo,
		logger:      logging.Discard(),
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
		now:         time.Now,
		queue:       make(chan *domain.Notification, queueSize),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Emit builds the record and enqueues it without waiting for storage. When
// the queue is full or closed the record is dropped and logged.
func (d *Dispatcher) Emit(ctx context.Context, userID uuid.UUID, title, body string, typ domain.NotificationType, metadata map[string]any) *domain.Notification {
	if metadata == nil {
		metadata = map[string]any{}
	}
	n := &domain.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      typ,
		Priority:  priorityOf(typ),
		Metadata:  metadata,
		CreatedAt: d.now(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ctx, n, "dispatcher closed")
		return n
	}
	select {
	case d.queue <- n:
		observability.NotificationsEmitted.WithLabelValues(string(typ)).Inc()
		observability.NotificationQueueDepth.Set(float64(len(d.queue)))
	default:
		d.drop(ctx, n, "queue full")
	}
	return n
}

// Run processes the queue until Close is called and the queue is drained.
// ctx is used for storage and publish calls only.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for n := range d.queue {
		observability.NotificationQueueDepth.Set(float64(len(d.queue)))
		d.deliver(ctx, n)
	}
}

// Close stops accepting records and waits for Run to drain the queue or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n *domain.Notification) {
	if err := d.persist(ctx, n); err != nil {
		observability.NotificationsFailed.Inc()
		d.logger.Error("notification not persisted",
			"notification_id", n.ID, "user_id", n.UserID, "type", n.Type, "error", err)
		return
	}

	if d.cache != nil {
		if err := d.cache.InvalidateUnreadCount(ctx, n.UserID); err != nil {
			d.logger.Warn("unread count not invalidated", "user_id", n.UserID, "error", err)
		}
	}

	if d.publisher != nil && d.topic != "" {
		if err := d.publisher.Publish(ctx, d.topic, n.UserID.String(), kafka.NewNotificationEvent(n)); err != nil {
			d.logger.Warn("delivery event not published", "notification_id", n.ID, "error", err)
		}
	}
}

// persist retries with linear backoff. Create is idempotent on the record id.
func (d *Dispatcher) persist(ctx context.Context, n *domain.Notification) error {
	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err = d.repo.Create(ctx, n); err == nil {
			return nil
		}
		if attempt == d.maxAttempts {
			break
		}
		d.logger.Warn("persist notification failed, retrying", "notification_id", n.ID, "attempt", attempt, "error", err)
		select {
		case <-time.After(time.Duration(attempt) * d.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (d *Dispatcher) drop(ctx context.Context, n *domain.Notification, reason string) {
	observability.NotificationsDropped.Inc()
	d.logger.ErrorContext(ctx, "notification dropped",
		"reason", reason, "notification_id", n.ID, "user_id", n.UserID, "type", n.Type)
}

func priorityOf(typ domain.NotificationType) domain.NotificationPriority {
	if typ == domain.NotificationRideCancelled {
		return domain.PriorityHigh
	}
	return domain.PriorityNormal
}
