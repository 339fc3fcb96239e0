package rating

import (
	"context"
	"log/slog"
	"math"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/google/uuid"
)

type Aggregator struct {
	reviews repository.ReviewRepository
	users   repository.UserRepository
	logger  *slog.Logger
}

func NewAggregator(reviews repository.ReviewRepository, users repository.UserRepository, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{reviews: reviews, users: users, logger: logger}
}

// Recompute derives the subject's average and count from every review about
// them and stores both on the profile. With no reviews nothing is written.
func (a *Aggregator) Recompute(ctx context.Context, subjectID uuid.UUID) (*domain.RatingSummary, error) {
	scores, err := a.reviews.ScoresBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(subjectID, scores)
	if summary.RatingCount == 0 {
		return summary, nil
	}
	if err := a.users.UpdateRating(ctx, subjectID, summary.AverageRating, summary.RatingCount); err != nil {
		return nil, err
	}
	a.logger.Debug("rating recomputed", "user_id", subjectID, "average", summary.AverageRating, "count", summary.RatingCount)
	return summary, nil
}

// Summarize averages scores rounded to two decimals.
func Summarize(subjectID uuid.UUID, scores []int) *domain.RatingSummary {
	summary := &domain.RatingSummary{UserID: subjectID, RatingCount: len(scores)}
	if len(scores) == 0 {
		return summary
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	summary.AverageRating = math.Round(float64(total)/float64(len(scores))*100) / 100
	return summary
}
