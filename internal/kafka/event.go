package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// NotificationEvent is the delivery request handed to the push/email sink.
type NotificationEvent struct {
	NotificationID uuid.UUID                   `json:"notification_id"`
	UserID         uuid.UUID                   `json:"user_id"`
	Type           domain.NotificationType     `json:"type"`
	Priority       domain.NotificationPriority `json:"priority"`
	Title          string                      `json:"title"`
	Body           string                      `json:"body"`
	Metadata       map[string]any              `json:"metadata,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
}

func NewNotificationEvent(n *domain.Notification) NotificationEvent {
	return NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Priority:       n.Priority,
		Title:          n.Title,
		Body:           n.Body,
		Metadata:       n.Metadata,
		CreatedAt:      n.CreatedAt,
	}
}

func DecodeNotificationEvent(msg kafka.Message) (NotificationEvent, error) {
	var event NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, fmt.Errorf("decode notification event: %w", err)
	}
	if event.NotificationID == uuid.Nil || event.UserID == uuid.Nil {
		return event, fmt.Errorf("notification event at offset %d is missing ids", msg.Offset)
	}
	return event, nil
}
