package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore       = 1
	MaxScore       = 5
	MaxCommentSize = 500
)

type ReviewRole string

const (
	ReviewRoleRider  ReviewRole = "rider"
	ReviewRoleDriver ReviewRole = "driver"
)

type Review struct {
	ID        uuid.UUID  `json:"id"`
	BookingID uuid.UUID  `json:"booking_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	SubjectID uuid.UUID  `json:"subject_id"`
	Score     int        `json:"score"`
	Comment   *string    `json:"comment,omitempty"`
	Role      ReviewRole `json:"role"`
	CreatedAt time.Time  `json:"created_at"`

	Author *User `json:"author,omitempty"`
}

type RatingSummary struct {
	UserID        uuid.UUID `json:"user_id"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
}
