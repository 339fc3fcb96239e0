package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinSeats     = 1
	MaxSeats     = 8
	MaxNotesSize = 500
)

type Location struct {
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type Ride struct {
	ID             uuid.UUID `json:"id"`
	DriverID       uuid.UUID `json:"driver_id"`
	From           Location  `json:"from"`
	To             Location  `json:"to"`
	DepartureTime  time.Time `json:"date_time"`
	SeatsTotal     int       `json:"seats_total"`
	SeatsAvailable int       `json:"seats_available"`
	Price          *float64  `json:"price,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	Driver *User `json:"driver,omitempty"`
}

// ReleasedSeats returns the available seat count after one seat is handed
// back, never exceeding SeatsTotal.
func (r *Ride) ReleasedSeats() int {
	if r.SeatsAvailable+1 > r.SeatsTotal {
		return r.SeatsTotal
	}
	return r.SeatsAvailable + 1
}

func (r *Ride) IsDriver(userID uuid.UUID) bool {
	return r != nil && r.DriverID == userID
}

// RideFilter narrows a ride search. Zero values mean "no filter".
type RideFilter struct {
	FromCity string
	ToCity   string
	Date     *time.Time
	MinSeats int
	MaxPrice *float64
	// Now is the lower bound for departure time.
	Now time.Time
}
