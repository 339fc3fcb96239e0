package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/google/uuid"
)

// DefaultWindow is both how long participants may review a ride and how long
// a review stays hidden without a reciprocal one.
const DefaultWindow = 14 * 24 * time.Hour

// VisibilityEngine applies mutual blindness: a review becomes public once the
// counterparty has reviewed the same booking or once the window has passed
// since departure. It is evaluated on every read.
type VisibilityEngine struct {
	bookings repository.BookingRepository
	reviews  repository.ReviewRepository
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewVisibilityEngine(bookings repository.BookingRepository, reviews repository.ReviewRepository, window time.Duration, now func() time.Time, logger *slog.Logger) *VisibilityEngine {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &VisibilityEngine{bookings: bookings, reviews: reviews, window: window, now: now, logger: logger}
}

// Visible reports whether viewer may see r. viewer is nil for anonymous
// requests. Lookup failures make the review visible.
func (e *VisibilityEngine) Visible(ctx context.Context, r domain.Review, viewer *uuid.UUID) bool {
	if viewer != nil && *viewer == r.AuthorID {
		return true
	}

	booking, err := e.bookings.GetByID(ctx, r.BookingID)
	if err != nil || booking.Ride == nil {
		e.logger.Warn("visibility lookup failed, showing review", "review_id", r.ID, "booking_id", r.BookingID, "error", err)
		return true
	}
	if e.now().Sub(booking.Ride.DepartureTime) >= e.window {
		return true
	}

	reciprocal, err := e.reviews.HasReciprocal(ctx, r.BookingID, r.AuthorID)
	if err != nil {
		e.logger.Warn("reciprocal lookup failed, showing review", "review_id", r.ID, "error", err)
		return true
	}
	return reciprocal
}

func (e *VisibilityEngine) Filter(ctx context.Context, all []domain.Review, viewer *uuid.UUID) []domain.Review {
	out := make([]domain.Review, 0, len(all))
	for _, r := range all {
		if e.Visible(ctx, r, viewer) {
			out = append(out, r)
		}
	}
	return out
}
