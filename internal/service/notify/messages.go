package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
)

func bookingMetadata(b *domain.Booking) map[string]any {
	return map[string]any{"booking_id": b.ID.String(), "ride_id": b.RideID.String()}
}

func destination(b *domain.Booking) string {
	if b.Ride == nil {
		return "your destination"
	}
	return b.Ride.To.City
}

// BookingRequested tells the driver a rider asked for a seat.
func (d *Dispatcher) BookingRequested(ctx context.Context, b *domain.Booking) {
	d.Emit(ctx, b.DriverID(), "New booking request",
		fmt.Sprintf("%s wants to join your ride to %s", b.Rider.DisplayName("A rider"), destination(b)),
		domain.NotificationBookingRequest, bookingMetadata(b))
}

func (d *Dispatcher) BookingConfirmed(ctx context.Context, b *domain.Booking) {
	d.Emit(ctx, b.RiderID, "Booking confirmed",
		fmt.Sprintf("Your ride to %s is confirmed. See details.", destination(b)),
		domain.NotificationBookingConfirmed, bookingMetadata(b))
}

// BookingRejected is sent to the rider when the driver cancels a pending request.
func (d *Dispatcher) BookingRejected(ctx context.Context, b *domain.Booking) {
	d.Emit(ctx, b.RiderID, "Booking request declined",
		fmt.Sprintf("Your request for the ride to %s was declined.", destination(b)),
		domain.NotificationBookingRejected, bookingMetadata(b))
}

// BookingCancelled notifies the participant who did not cancel.
func (d *Dispatcher) BookingCancelled(ctx context.Context, b *domain.Booking, cancelledBy uuid.UUID) {
	recipient := b.Counterparty(cancelledBy)
	if recipient == uuid.Nil {
		return
	}
	name := b.Rider.DisplayName("the rider")
	if b.IsDriver(cancelledBy) {
		name = b.Ride.Driver.DisplayName("the driver")
	}
	d.Emit(ctx, recipient, "Booking cancelled",
		fmt.Sprintf("The booking for %s was cancelled by %s.", destination(b), name),
		domain.NotificationBookingCancelled, bookingMetadata(b))
}

// RideCancelled warns a rider that the driver removed the ride.
func (d *Dispatcher) RideCancelled(ctx context.Context, ride *domain.Ride, riderID uuid.UUID) {
	d.Emit(ctx, riderID, "URGENT: ride cancelled",
		fmt.Sprintf("The ride to %s was cancelled by the driver.", ride.To.City),
		domain.NotificationRideCancelled, map[string]any{"ride_id": ride.ID.String()})
}
