package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RideRepository interface {
	Create(ctx context.Context, ride *domain.Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ride, error)
	Search(ctx context.Context, filter domain.RideFilter) ([]domain.Ride, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Ride, error)
}

type PGRideRepository struct {
	db *pgxpool.Pool
}

func NewRideRepository(db *pgxpool.Pool) RideRepository {
	return &PGRideRepository{db: db}
}

var rideWithDriverSelect = `SELECT ` + rideColumns + `, ` + userColumns("u") + `
	FROM rides r
	LEFT JOIN users u ON u.id = r.driver_id`

func (r *PGRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	err := r.db.QueryRow(ctx, `INSERT INTO rides
		(id, driver_id, from_city, from_lat, from_lon, to_city, to_lat, to_lon, date_time, seats_total, seats_available, price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at`,
		ride.ID, ride.DriverID, ride.From.City, ride.From.Lat, ride.From.Lon, ride.To.City, ride.To.Lat, ride.To.Lon,
		ride.DepartureTime, ride.SeatsTotal, ride.SeatsAvailable, ride.Price, ride.Notes).
		Scan(&ride.CreatedAt)
	if err != nil {
		return domain.Unavailable("create ride", err)
	}
	return nil
}

func (r *PGRideRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	ride, err := scanRideWithDriver(r.db.QueryRow(ctx, rideWithDriverSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRideNotFound
		}
		return nil, domain.Unavailable("get ride", err)
	}
	return ride, nil
}

func (r *PGRideRepository) Search(ctx context.Context, filter domain.RideFilter) ([]domain.Ride, error) {
	query, args := buildRideSearch(filter)
	return r.list(ctx, "search rides", query, args...)
}

func (r *PGRideRepository) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Ride, error) {
	return r.list(ctx, "list driver rides", rideWithDriverSelect+` WHERE r.driver_id = $1 ORDER BY r.date_time ASC`, driverID)
}

func (r *PGRideRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Ride, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Unavailable(op, err)
	}
	defer rows.Close()

	rides := make([]domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRideWithDriver(rows)
		if err != nil {
			return nil, domain.Unavailable(op, err)
		}
		rides = append(rides, *ride)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable(op, err)
	}
	return rides, nil
}

// buildRideSearch only returns future rides with at least one free seat,
// ordered by departure.
func buildRideSearch(f domain.RideFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	add("r.date_time >= $%d", f.Now)
	conds = append(conds, "r.seats_available > 0")

	if f.FromCity != "" {
		add("r.from_city ILIKE $%d", "%"+escapeLike(f.FromCity)+"%")
	}
	if f.ToCity != "" {
		add("r.to_city ILIKE $%d", "%"+escapeLike(f.ToCity)+"%")
	}
	if f.Date != nil {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
		add("r.date_time >= $%d", day)
		add("r.date_time < $%d", day.AddDate(0, 0, 1))
	}
	if f.MinSeats > 0 {
		add("r.seats_available >= $%d", f.MinSeats)
	}
	if f.MaxPrice != nil {
		add("r.price <= $%d", *f.MaxPrice)
	}

	return rideWithDriverSelect + " WHERE " + strings.Join(conds, " AND ") + " ORDER BY r.date_time ASC", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ RideRepository = (*PGRideRepository)(nil)
