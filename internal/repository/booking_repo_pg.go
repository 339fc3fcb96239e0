package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStatusChanged is returned by compare-and-set transitions when the
// booking no longer has the expected status.
var ErrStatusChanged = errors.New("booking status changed concurrently")

type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListByRider(ctx context.Context, riderID uuid.UUID) ([]domain.Booking, error)
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

// GetByID returns the booking hydrated with its ride, the ride's driver and
// the rider.
func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := scanHydratedBooking(r.db.QueryRow(ctx, hydratedBookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, domain.Unavailable("get booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListByRider(ctx context.Context, riderID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, "list rider bookings", hydratedBookingSelect+` WHERE b.rider_id = $1 ORDER BY b.created_at DESC`, riderID)
}

func (r *PGBookingRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]domain.Booking, error) {
	return r.list(ctx, "list ride bookings", hydratedBookingSelect+` WHERE b.ride_id = $1 ORDER BY b.created_at ASC`, rideID)
}

func (r *PGBookingRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanHydratedBooking(rows)
		if err != nil {
			return nil, domain.Unavailable(op, err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return bookings, nil
}

func transitionBooking(ctx context.Context, q querier, id uuid.UUID, from, to domain.BookingStatus) error {
	cmd, err := q.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return domain.Unavailable("update booking status", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrStatusChanged
	}
	return nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
