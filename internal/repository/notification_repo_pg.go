package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}

type PGNotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

const notificationColumns = `id, user_id, title, body, type, priority, metadata, is_read, created_at`

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &n.Priority, &n.Metadata, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create is idempotent on id so a retried delivery does not duplicate rows.
func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.Metadata == nil {
		n.Metadata = map[string]any{}
	}
	_, err := r.db.Exec(ctx, `INSERT INTO notifications (id, user_id, title, body, type, priority, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		n.ID, n.UserID, n.Title, n.Body, n.Type, n.Priority, n.Metadata, n.IsRead, n.CreatedAt)
	if err != nil {
		return domain.Unavailable("create notification", err)
	}
	return nil
}

func (r *PGNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, domain.Unavailable("list notifications", err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, domain.Unavailable("list notifications", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list notifications", err)
	}
	return out, nil
}

func (r *PGNotificationRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, domain.Unavailable("count notifications", err)
	}
	return count, nil
}

func (r *PGNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&count); err != nil {
		return 0, domain.Unavailable("count unread notifications", err)
	}
	return count, nil
}

func (r *PGNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	n, err := scanNotification(r.db.QueryRow(ctx, `UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationColumns, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, domain.Unavailable("mark notification read", err)
	}
	return n, nil
}

func (r *PGNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, domain.Unavailable("mark all notifications read", err)
	}
	return int(cmd.RowsAffected()), nil
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)
