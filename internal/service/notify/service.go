package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*page_size far from overflowing.
	MaxPage = 1_000_000
)

type NotificationUseCase interface {
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) (*domain.NotificationPage, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error)
}

type NotificationService struct {
	repo   repository.NotificationRepository
	cache  UnreadCache
	logger *slog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, cache UnreadCache, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NotificationService{repo: repo, cache: cache, logger: logger}
}

// List returns one page, newest first. page starts at 1.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) (*domain.NotificationPage, error) {
	var fields []domain.FieldError
	if page < 1 {
		fields = append(fields, domain.FieldError{Field: "page", Message: "must be at least 1", Kind: "min"})
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		fields = append(fields, domain.FieldError{Field: "page_size", Message: "must be between 1 and 100", Kind: "range"})
	} else if page > MaxPage {
		fields = append(fields, domain.FieldError{Field: "page", Message: fmt.Sprintf("must be at most %d", MaxPage), Kind: "max"})
	}
	if len(fields) > 0 {
		return nil, domain.Validation(fields...)
	}

	items, err := s.repo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.NotificationPage{
		Notifications: items,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		HasMore:       page*pageSize < total,
	}, nil
}

// UnreadCount is served from cache when possible. Cache failures fall back to
// storage without refilling.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	fill := false
	var generation int64
	if s.cache != nil {
		n, gen, ok, err := s.cache.GetUnreadCount(ctx, userID)
		switch {
		case err != nil:
			s.logger.Warn("unread cache read failed", "user_id", userID, "error", err)
		case ok:
			return n, nil
		default:
			fill, generation = true, gen
		}
	}

	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if fill {
		if err := s.cache.SetUnreadCount(ctx, userID, generation, n); err != nil {
			s.logger.Warn("unread cache write failed", "user_id", userID, "error", err)
		}
	}
	return n, nil
}

// MarkRead only touches notifications owned by userID; anything else is
// reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUnreadCount(ctx, userID); err != nil {
		s.logger.Warn("unread count not invalidated", "user_id", userID, "error", err)
	}
}

var _ NotificationUseCase = (*NotificationService)(nil)
