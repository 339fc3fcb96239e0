// Package booking drives a booking from pending to confirmed or cancelled.
// Every occupancy change goes through the seat ledger inside the same
// transaction as the status write.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/observability"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, riderID, rideID uuid.UUID) (*domain.Booking, error)
	GetBooking(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error)
	ListMyBookings(ctx context.Context, riderID uuid.UUID) ([]domain.Booking, error)
	ListRideBookings(ctx context.Context, rideID, userID uuid.UUID) ([]domain.Booking, error)
	ConfirmBooking(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error)
}

type SeatLedger interface {
	Reserve(ctx context.Context, rideID, riderID uuid.UUID) (*domain.Booking, error)
	Release(ctx context.Context, tx repository.Tx, ride *domain.Ride, prior domain.BookingStatus) error
}

type Notifier interface {
	BookingRequested(ctx context.Context, b *domain.Booking)
	BookingConfirmed(ctx context.Context, b *domain.Booking)
	BookingRejected(ctx context.Context, b *domain.Booking)
	BookingCancelled(ctx context.Context, b *domain.Booking, cancelledBy uuid.UUID)
}

type BookingService struct {
	bookings repository.BookingRepository
	rides    repository.RideRepository
	tx       repository.Transactor
	ledger   SeatLedger
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) { s.logger = logger }
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) { s.now = now }
}

func NewBookingService(
	bookings repository.BookingRepository,
	rides repository.RideRepository,
	tx repository.Transactor,
	ledger SeatLedger,
	notifier Notifier,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		rides:    rides,
		tx:       tx,
		ledger:   ledger,
		notifier: notifier,
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, riderID, rideID uuid.UUID) (*domain.Booking, error) {
	reserved, err := s.ledger.Reserve(ctx, rideID, riderID)
	if err != nil {
		return nil, err
	}
	observability.BookingTransitions.WithLabelValues(string(domain.BookingStatusPending)).Inc()

	booking, err := s.bookings.GetByID(ctx, reserved.ID)
	if err != nil {
		// The reservation is committed; answer with what we have.
		s.logger.Warn("reload created booking failed", "booking_id", reserved.ID, "error", err)
		booking = s.withRide(ctx, reserved)
	}

	if booking.Ride == nil {
		s.logger.Error("booking request not announced: driver unknown", "booking_id", booking.ID, "ride_id", rideID)
	} else {
		s.notifier.BookingRequested(ctx, booking)
	}
	s.logger.Info("booking created", "booking_id", booking.ID, "ride_id", rideID, "rider_id", riderID)
	return booking, nil
}

// withRide attaches the ride to a bare booking so the driver can still be
// notified. The rider stays unhydrated.
func (s *BookingService) withRide(ctx context.Context, b *domain.Booking) *domain.Booking {
	degraded := *b
	if s.rides == nil {
		return &degraded
	}
	ride, err := s.rides.GetByID(ctx, b.RideID)
	if err != nil {
		s.logger.Warn("load ride for booking request failed", "ride_id", b.RideID, "error", err)
		return &degraded
	}
	degraded.Ride = ride
	return &degraded
}

// GetBooking is visible to the rider and to the ride's driver only.
func (s *BookingService) GetBooking(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsRider(userID) && !booking.IsDriver(userID) {
		return nil, domain.ErrNotParticipant
	}
	return booking, nil
}

func (s *BookingService) ListMyBookings(ctx context.Context, riderID uuid.UUID) ([]domain.Booking, error) {
	return s.bookings.ListByRider(ctx, riderID)
}

func (s *BookingService) ListRideBookings(ctx context.Context, rideID, userID uuid.UUID) ([]domain.Booking, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsDriver(userID) {
		return nil, domain.ErrNotRideOwner
	}
	return s.bookings.ListByRide(ctx, rideID)
}

// ConfirmBooking moves a pending booking to confirmed. Only the ride's driver
// may confirm, and no seat changes hands.
func (s *BookingService) ConfirmBooking(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsDriver(userID) {
		return nil, domain.ErrNotRideDriver
	}
	if err := transitionAllowed(booking.Status, domain.BookingStatusConfirmed); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LockRide(ctx, booking.RideID); err != nil {
			return err
		}
		return tx.TransitionBooking(ctx, id, domain.BookingStatusPending, domain.BookingStatusConfirmed)
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, s.lostRace(ctx, id, domain.BookingStatusConfirmed)
	}
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatusConfirmed
	booking.UpdatedAt = s.now()
	observability.BookingTransitions.WithLabelValues(string(domain.BookingStatusConfirmed)).Inc()

	s.notifier.BookingConfirmed(ctx, booking)
	s.logger.Info("booking confirmed", "booking_id", id, "driver_id", userID)
	return booking, nil
}

// CancelBooking may be called by the rider or the driver from pending or
// confirmed. The seat goes back to the ride in the same transaction.
func (s *BookingService) CancelBooking(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	byRider, byDriver := booking.IsRider(userID), booking.IsDriver(userID)
	if !byRider && !byDriver {
		return nil, domain.ErrNotParticipant
	}
	if err := transitionAllowed(booking.Status, domain.BookingStatusCancelled); err != nil {
		return nil, err
	}

	var (
		prior domain.BookingStatus
		ride  *domain.Ride
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		// ride before booking, the same order Reserve locks in
		if ride, err = tx.LockRide(ctx, booking.RideID); err != nil {
			return err
		}
		locked, err := tx.LockBooking(ctx, id)
		if err != nil {
			return err
		}
		if err := transitionAllowed(locked.Status, domain.BookingStatusCancelled); err != nil {
			return err
		}
		prior = locked.Status
		if err := tx.TransitionBooking(ctx, id, prior, domain.BookingStatusCancelled); err != nil {
			return err
		}
		return s.ledger.Release(ctx, tx, ride, prior)
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, s.lostRace(ctx, id, domain.BookingStatusCancelled)
	}
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatusCancelled
	booking.UpdatedAt = s.now()
	if booking.Ride != nil {
		booking.Ride.SeatsAvailable = ride.SeatsAvailable
	}
	observability.BookingTransitions.WithLabelValues(string(domain.BookingStatusCancelled)).Inc()

	if byDriver && prior == domain.BookingStatusPending {
		s.notifier.BookingRejected(ctx, booking)
	} else {
		s.notifier.BookingCancelled(ctx, booking, userID)
	}
	s.logger.Info("booking cancelled", "booking_id", id, "by", userID, "prior_status", prior)
	return booking, nil
}

// lostRace explains a failed compare-and-set from the booking's current state.
func (s *BookingService) lostRace(ctx context.Context, id uuid.UUID, to domain.BookingStatus) error {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := transitionAllowed(current.Status, to); err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

func transitionAllowed(from, to domain.BookingStatus) error {
	if from == domain.BookingStatusCancelled {
		return domain.ErrAlreadyCancelled
	}
	switch to {
	case domain.BookingStatusConfirmed:
		if from != domain.BookingStatusPending {
			return domain.ErrInvalidTransition
		}
	case domain.BookingStatusCancelled:
		if !from.Active() {
			return domain.ErrInvalidTransition
		}
	default:
		return domain.ErrInvalidTransition
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
