package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const rideColumns = `r.id, r.driver_id, r.from_city, r.from_lat, r.from_lon, r.to_city, r.to_lat, r.to_lon,
	r.date_time, r.seats_total, r.seats_available, r.price, r.notes, r.created_at`

func rideDest(r *domain.Ride) []any {
	return []any{
		&r.ID, &r.DriverID, &r.From.City, &r.From.Lat, &r.From.Lon, &r.To.City, &r.To.Lat, &r.To.Lon,
		&r.DepartureTime, &r.SeatsTotal, &r.SeatsAvailable, &r.Price, &r.Notes, &r.CreatedAt,
	}
}

const bookingColumns = `b.id, b.ride_id, b.rider_id, b.status, b.created_at, b.updated_at`

func bookingDest(b *domain.Booking) []any {
	return []any{&b.ID, &b.RideID, &b.RiderID, &b.Status, &b.CreatedAt, &b.UpdatedAt}
}

// userColumns selects a users row under the given alias. The row may come from
// a LEFT JOIN, so every column is scanned through nullable holders.
func userColumns(alias string) string {
	return alias + ".id, " + alias + ".email, " + alias + ".name, " + alias + ".role, " +
		alias + ".avatar_url, " + alias + ".average_rating, " + alias + ".rating_count, " + alias + ".created_at"
}

type nullUser struct {
	id        uuid.NullUUID
	email     *string
	name      *string
	role      *string
	avatarURL *string
	rating    *float64
	count     *int
	createdAt *time.Time
}

func (u *nullUser) dest() []any {
	return []any{&u.id, &u.email, &u.name, &u.role, &u.avatarURL, &u.rating, &u.count, &u.createdAt}
}

func (u *nullUser) user() *domain.User {
	if !u.id.Valid {
		return nil
	}
	out := &domain.User{ID: u.id.UUID, AvatarURL: u.avatarURL}
	if u.email != nil {
		out.Email = *u.email
	}
	if u.name != nil {
		out.Name = *u.name
	}
	if u.role != nil {
		out.Role = domain.Role(*u.role)
	}
	if u.rating != nil {
		out.AverageRating = *u.rating
	}
	if u.count != nil {
		out.RatingCount = *u.count
	}
	if u.createdAt != nil {
		out.CreatedAt = *u.createdAt
	}
	return out
}

func scanRideWithDriver(row rowScanner) (*domain.Ride, error) {
	var r domain.Ride
	var driver nullUser
	if err := row.Scan(append(rideDest(&r), driver.dest()...)...); err != nil {
		return nil, err
	}
	r.Driver = driver.user()
	return &r, nil
}

var hydratedBookingSelect = `SELECT ` + bookingColumns + `, ` + rideColumns + `, ` + userColumns("d") + `, ` + userColumns("u") + `
	FROM bookings b
	JOIN rides r ON r.id = b.ride_id
	LEFT JOIN users d ON d.id = r.driver_id
	LEFT JOIN users u ON u.id = b.rider_id`

// scanHydratedBooking scans a row produced by hydratedBookingSelect.
func scanHydratedBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var r domain.Ride
	var driver, rider nullUser

	dest := bookingDest(&b)
	dest = append(dest, rideDest(&r)...)
	dest = append(dest, driver.dest()...)
	dest = append(dest, rider.dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	r.Driver = driver.user()
	b.Ride = &r
	b.Rider = rider.user()
	return &b, nil
}
