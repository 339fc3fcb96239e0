package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// DisplayName falls back to a neutral label when the profile is missing.
func (u *User) DisplayName(fallback string) string {
	if u == nil || u.Name == "" {
		return fallback
	}
	return u.Name
}

// ProfileChanges is a partial profile update. Nil fields are left as they
// are; rating fields are never part of it.
type ProfileChanges struct {
	Name      *string
	AvatarURL *string
	Phone     *string
}

func (c ProfileChanges) Empty() bool {
	return c.Name == nil && c.AvatarURL == nil && c.Phone == nil
}
