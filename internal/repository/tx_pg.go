package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx is the unit of work used by the seat ledger and the booking state
// machine. Lock methods take row locks held until the transaction ends.
type Tx interface {
	LockRide(ctx context.Context, id uuid.UUID) (*domain.Ride, error)
	LockBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	HasActiveBooking(ctx context.Context, rideID, riderID uuid.UUID) (bool, error)
	InsertBooking(ctx context.Context, booking *domain.Booking) error
	SetSeatsAvailable(ctx context.Context, rideID uuid.UUID, seats int) error
	TransitionBooking(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error
	// ActiveRiders lists riders holding a pending or confirmed booking.
	ActiveRiders(ctx context.Context, rideID uuid.UUID) ([]uuid.UUID, error)
	// DeleteRide removes the ride; bookings and their reviews cascade.
	DeleteRide(ctx context.Context, id uuid.UUID) error
}

type Transactor interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type PGTransactor struct {
	db *pgxpool.Pool
}

func NewTransactor(db *pgxpool.Pool) Transactor {
	return &PGTransactor{db: db}
}

func (t *PGTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Unavailable("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Unavailable("commit transaction", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockRide(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	var ride domain.Ride
	err := t.tx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides r WHERE r.id = $1 FOR UPDATE`, id).Scan(rideDest(&ride)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRideNotFound
		}
		return nil, domain.Unavailable("lock ride", err)
	}
	return &ride, nil
}

func (t *pgTx) LockBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	err := t.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1 FOR UPDATE`, id).Scan(bookingDest(&b)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, domain.Unavailable("lock booking", err)
	}
	return &b, nil
}

func (t *pgTx) HasActiveBooking(ctx context.Context, rideID, riderID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM bookings WHERE ride_id = $1 AND rider_id = $2 AND status <> $3
	)`, rideID, riderID, domain.BookingStatusCancelled).Scan(&exists)
	if err != nil {
		return false, domain.Unavailable("check active booking", err)
	}
	return exists, nil
}

func (t *pgTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO bookings (id, ride_id, rider_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`, b.ID, b.RideID, b.RiderID, b.Status).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateBooking
		}
		return domain.Unavailable("insert booking", err)
	}
	return nil
}

func (t *pgTx) SetSeatsAvailable(ctx context.Context, rideID uuid.UUID, seats int) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE rides SET seats_available = $1 WHERE id = $2`, seats, rideID)
	if err != nil {
		return domain.Unavailable(fmt.Sprintf("set seats_available=%d", seats), err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRideNotFound
	}
	return nil
}

func (t *pgTx) TransitionBooking(ctx context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	return transitionBooking(ctx, t.tx, id, from, to)
}

func (t *pgTx) ActiveRiders(ctx context.Context, rideID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := t.tx.Query(ctx, `SELECT rider_id FROM bookings WHERE ride_id = $1 AND status <> $2`,
		rideID, domain.BookingStatusCancelled)
	if err != nil {
		return nil, domain.Unavailable("list active riders", err)
	}
	riders, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, domain.Unavailable("scan active riders", err)
	}
	return riders, nil
}

func (t *pgTx) DeleteRide(ctx context.Context, id uuid.UUID) error {
	cmd, err := t.tx.Exec(ctx, `DELETE FROM rides WHERE id = $1`, id)
	if err != nil {
		return domain.Unavailable("delete ride", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRideNotFound
	}
	return nil
}

var _ Transactor = (*PGTransactor)(nil)
