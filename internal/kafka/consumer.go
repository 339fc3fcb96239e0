package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one notification event message. A non-nil error
// stops the subscription without committing the message.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// messageSource is the part of *kafka.Reader the subscription loop needs.
type messageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationSubscriber feeds the notification event topic to a handler as
// a member of a consumer group.
type NotificationSubscriber struct {
	source messageSource
	topic  string
	logger *slog.Logger
}

func NewNotificationSubscriber(brokers []string, groupID, topic string, logger *slog.Logger) *NotificationSubscriber {
	source := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		StartOffset:       kafka.FirstOffset,
		MaxWait:           time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return &NotificationSubscriber{source: source, topic: topic, logger: logger}
}

// Run fetches until ctx ends or handle fails. A message is committed only
// after handle accepted it, so a crash redelivers instead of losing events.
func (s *NotificationSubscriber) Run(ctx context.Context, handle MessageHandler) error {
	for {
		msg, err := s.source.FetchMessage(ctx)
		if err != nil {
			return err
		}
		if err := handle(ctx, msg); err != nil {
			s.logger.Warn("notification event not handled", "topic", s.topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			return err
		}
		if err := s.source.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

func (s *NotificationSubscriber) Close() error {
	if s == nil || s.source == nil {
		return nil
	}
	return s.source.Close()
}
