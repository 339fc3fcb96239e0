// Package ledger keeps seats_available consistent with the active bookings of
// a ride. Every seat change happens inside a transaction holding the ride's
// row lock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/observability"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/google/uuid"
)

type Ledger struct {
	tx     repository.Transactor
	logger *slog.Logger
	newID  func() uuid.UUID
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func New(tx repository.Transactor, opts ...Option) *Ledger {
	l := &Ledger{tx: tx, logger: logging.Discard(), newID: uuid.New}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reserve takes one seat on the ride and records a pending booking for the
// rider. The booking is returned without its ride and rider hydrated.
func (l *Ledger) Reserve(ctx context.Context, rideID, riderID uuid.UUID) (*domain.Booking, error) {
	var booking *domain.Booking
	err := l.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ride, err := tx.LockRide(ctx, rideID)
		if err != nil {
			return err
		}
		if ride.IsDriver(riderID) {
			return domain.ErrSelfBooking
		}
		if ride.SeatsAvailable <= 0 {
			return domain.ErrSeatsExhausted
		}
		dup, err := tx.HasActiveBooking(ctx, rideID, riderID)
		if err != nil {
			return fmt.Errorf("check active booking: %w", err)
		}
		if dup {
			return domain.ErrDuplicateBooking
		}

		if err := tx.SetSeatsAvailable(ctx, rideID, ride.SeatsAvailable-1); err != nil {
			return fmt.Errorf("take seat: %w", err)
		}
		b := &domain.Booking{
			ID:      l.newID(),
			RideID:  rideID,
			RiderID: riderID,
			Status:  domain.BookingStatusPending,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		l.rejected(err)
		return nil, classify("reserve seat", err)
	}

	l.logger.Info("seat reserved", "ride_id", rideID, "booking_id", booking.ID)
	return booking, nil
}

// Release hands one seat back for a booking leaving prior. It must run in the
// same transaction as the status write, with ride locked by that transaction.
func (l *Ledger) Release(ctx context.Context, tx repository.Tx, ride *domain.Ride, prior domain.BookingStatus) error {
	if !prior.Active() {
		return nil
	}
	seats := ride.ReleasedSeats()
	if err := tx.SetSeatsAvailable(ctx, ride.ID, seats); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	ride.SeatsAvailable = seats
	return nil
}

func (l *Ledger) rejected(err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		observability.SeatReservationsRejected.WithLabelValues(de.Code).Inc()
	}
}

// classify keeps business errors as they are and marks everything else as a
// storage outage.
func classify(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Unavailable(op, err)
}
