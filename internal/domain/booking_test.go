package domain

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBooking_Participants(t *testing.T) {
	driver := uuid.New()
	rider := uuid.New()
	stranger := uuid.New()

	b := &Booking{RiderID: rider, Ride: &Ride{DriverID: driver}}

	assert.True(t, b.IsRider(rider))
	assert.False(t, b.IsRider(driver))
	assert.True(t, b.IsDriver(driver))
	assert.False(t, b.IsDriver(rider))

	assert.Equal(t, driver, b.Counterparty(rider))
	assert.Equal(t, rider, b.Counterparty(driver))
	assert.Equal(t, uuid.Nil, b.Counterparty(stranger))
}

func TestBooking_IsDriverWithoutRide(t *testing.T) {
	b := &Booking{RiderID: uuid.New()}
	assert.False(t, b.IsDriver(uuid.New()))
	assert.Equal(t, uuid.Nil, b.DriverID())
}

func TestRide_ReleasedSeatsIsClamped(t *testing.T) {
	assert.Equal(t, 3, (&Ride{SeatsTotal: 3, SeatsAvailable: 2}).ReleasedSeats())
	assert.Equal(t, 3, (&Ride{SeatsTotal: 3, SeatsAvailable: 3}).ReleasedSeats())
}

func TestBookingStatus_Active(t *testing.T) {
	assert.True(t, BookingStatusPending.Active())
	assert.True(t, BookingStatusConfirmed.Active())
	assert.False(t, BookingStatusCancelled.Active())
}

func TestError_IsMatchesWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("reserve: %w", ErrSeatsExhausted)

	assert.ErrorIs(t, wrapped, ErrSeatsExhausted)
	assert.NotErrorIs(t, wrapped, ErrDuplicateBooking)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("boom")))
}

func TestUnavailable_Unwraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Unavailable("get ride", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}
