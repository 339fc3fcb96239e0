package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/observability"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/Domenick1991/rideshare/internal/validation"
	"github.com/google/uuid"
)

type ReviewUseCase interface {
	CreateReview(ctx context.Context, authorID uuid.UUID, input CreateReviewInput) (*domain.Review, error)
	ListUserReviews(ctx context.Context, subjectID uuid.UUID, viewer *uuid.UUID) ([]domain.Review, error)
}

type RatingRecomputer interface {
	Recompute(ctx context.Context, subjectID uuid.UUID) (*domain.RatingSummary, error)
}

type CreateReviewInput struct {
	BookingID uuid.UUID          `json:"booking_id" validate:"required"`
	SubjectID uuid.UUID          `json:"subject_id" validate:"required"`
	Score     int                `json:"score" validate:"min=1,max=5"`
	Comment   *string            `json:"comment" validate:"omitempty,max=500"`
	Role      *domain.ReviewRole `json:"role" validate:"omitempty,oneof=rider driver"`
}

type ReviewService struct {
	bookings   repository.BookingRepository
	reviews    repository.ReviewRepository
	rating     RatingRecomputer
	visibility *VisibilityEngine
	window     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewReviewService(
	bookings repository.BookingRepository,
	reviews repository.ReviewRepository,
	rating RatingRecomputer,
	visibility *VisibilityEngine,
	logger *slog.Logger,
) *ReviewService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ReviewService{
		bookings:   bookings,
		reviews:    reviews,
		rating:     rating,
		visibility: visibility,
		window:     visibility.window,
		now:        visibility.now,
		logger:     logger,
	}
}

// CreateReview records the author's review of the counterparty on a
// completed, confirmed booking and refreshes the subject's rating.
func (s *ReviewService) CreateReview(ctx context.Context, authorID uuid.UUID, input CreateReviewInput) (*domain.Review, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	isRider, isDriver := booking.IsRider(authorID), booking.IsDriver(authorID)
	if !isRider && !isDriver {
		return nil, domain.ErrNotParticipant
	}
	if booking.Status != domain.BookingStatusConfirmed {
		return nil, domain.ErrBookingNotConfirmed
	}
	if booking.Ride == nil {
		return nil, domain.ErrRideNotFound
	}
	elapsed := s.now().Sub(booking.Ride.DepartureTime)
	if elapsed < 0 {
		return nil, domain.ErrRideNotCompleted
	}
	if elapsed > s.window {
		return nil, domain.ErrReviewWindowClosed
	}
	if input.SubjectID == authorID {
		return nil, domain.ErrSelfReview
	}
	if input.SubjectID != booking.Counterparty(authorID) {
		return nil, domain.ErrSubjectNotParticipant
	}

	role := domain.ReviewRoleDriver
	if isRider {
		role = domain.ReviewRoleRider
	}
	if input.Role != nil && *input.Role != role {
		return nil, validation.Field("role", "does not match your role on this booking", "mismatch")
	}

	exists, err := s.reviews.ExistsForAuthor(ctx, booking.ID, authorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateReview
	}

	review := &domain.Review{
		ID:        uuid.New(),
		BookingID: booking.ID,
		AuthorID:  authorID,
		SubjectID: input.SubjectID,
		Score:     input.Score,
		Comment:   input.Comment,
		Role:      role,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	observability.ReviewsCreated.Inc()

	if _, err := s.rating.Recompute(ctx, review.SubjectID); err != nil {
		s.logger.Error("rating recompute failed", "user_id", review.SubjectID, "review_id", review.ID, "error", err)
	}
	return review, nil
}

// ListUserReviews returns the reviews about subjectID that viewer may see,
// newest first.
func (s *ReviewService) ListUserReviews(ctx context.Context, subjectID uuid.UUID, viewer *uuid.UUID) ([]domain.Review, error) {
	all, err := s.reviews.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.visibility.Filter(ctx, all, viewer), nil
}

var _ ReviewUseCase = (*ReviewService)(nil)
