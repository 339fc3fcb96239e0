package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Active reports whether the booking still holds a seat.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	ID        uuid.UUID     `json:"id"`
	RideID    uuid.UUID     `json:"ride_id"`
	RiderID   uuid.UUID     `json:"rider_id"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Ride  *Ride `json:"ride,omitempty"`
	Rider *User `json:"rider,omitempty"`
}

func (b *Booking) IsRider(userID uuid.UUID) bool {
	return b.RiderID == userID
}

// IsDriver needs the hydrated Ride.
func (b *Booking) IsDriver(userID uuid.UUID) bool {
	return b.Ride.IsDriver(userID)
}

func (b *Booking) DriverID() uuid.UUID {
	if b.Ride == nil {
		return uuid.Nil
	}
	return b.Ride.DriverID
}

// Counterparty returns the other participant of the booking, or uuid.Nil
// when userID is not part of it.
func (b *Booking) Counterparty(userID uuid.UUID) uuid.UUID {
	switch {
	case b.IsRider(userID):
		return b.DriverID()
	case b.IsDriver(userID):
		return b.RiderID
	default:
		return uuid.Nil
	}
}
