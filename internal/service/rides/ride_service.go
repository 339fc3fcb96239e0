package rides

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/logging"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/Domenick1991/rideshare/internal/validation"
	"github.com/google/uuid"
)

// A departure may be back-dated by at most this much when a ride is published.
const maxBackdate = 24 * time.Hour

type RideUseCase interface {
	CreateRide(ctx context.Context, driverID uuid.UUID, role domain.Role, input CreateRideInput) (*domain.Ride, error)
	SearchRides(ctx context.Context, input SearchInput) ([]domain.Ride, error)
	GetRide(ctx context.Context, id uuid.UUID) (*domain.Ride, error)
	ListMyRides(ctx context.Context, driverID uuid.UUID) ([]domain.Ride, error)
	DeleteRide(ctx context.Context, id, userID uuid.UUID) error
}

type Notifier interface {
	RideCancelled(ctx context.Context, ride *domain.Ride, riderID uuid.UUID)
}

type LocationInput struct {
	City string   `json:"city" validate:"required,min=2,max=100"`
	Lat  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon  *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

func (l LocationInput) location() domain.Location {
	return domain.Location{City: l.City, Lat: *l.Lat, Lon: *l.Lon}
}

type CreateRideInput struct {
	From       LocationInput `json:"from"`
	To         LocationInput `json:"to"`
	DateTime   time.Time     `json:"date_time" validate:"required"`
	SeatsTotal int           `json:"seats_total" validate:"min=1,max=8"`
	Price      *float64      `json:"price" validate:"omitempty,gte=0"`
	Notes      *string       `json:"notes" validate:"omitempty,max=500"`
}

type SearchInput struct {
	FromCity string     `form:"from_city" validate:"omitempty,max=100"`
	ToCity   string     `form:"to_city" validate:"omitempty,max=100"`
	Date     *time.Time `form:"date" time_format:"2006-01-02"`
	MinSeats int        `form:"min_seats" validate:"omitempty,min=1,max=8"`
	MaxPrice *float64   `form:"max_price" validate:"omitempty,gte=0"`
}

type RideService struct {
	rides    repository.RideRepository
	tx       repository.Transactor
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type RideServiceOption func(*RideService)

func WithLogger(logger *slog.Logger) RideServiceOption {
	return func(s *RideService) { s.logger = logger }
}

func WithClock(now func() time.Time) RideServiceOption {
	return func(s *RideService) { s.now = now }
}

func NewRideService(rides repository.RideRepository, tx repository.Transactor, notifier Notifier, opts ...RideServiceOption) *RideService {
	s := &RideService{
		rides:    rides,
		tx:       tx,
		notifier: notifier,
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRide publishes a ride with every seat available.
func (s *RideService) CreateRide(ctx context.Context, driverID uuid.UUID, role domain.Role, input CreateRideInput) (*domain.Ride, error) {
	if role != domain.RoleDriver {
		return nil, domain.ErrDriverRoleRequired
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.DateTime.Before(s.now().Add(-maxBackdate)) {
		return nil, validation.Field("date_time", "must not be more than one day in the past", "past")
	}

	ride := &domain.Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		From:           input.From.location(),
		To:             input.To.location(),
		DepartureTime:  input.DateTime,
		SeatsTotal:     input.SeatsTotal,
		SeatsAvailable: input.SeatsTotal,
		Price:          input.Price,
		Notes:          input.Notes,
	}
	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, err
	}
	s.logger.Info("ride created", "ride_id", ride.ID, "driver_id", driverID, "seats", ride.SeatsTotal)
	return ride, nil
}

// SearchRides lists upcoming rides with a free seat, earliest first.
func (s *RideService) SearchRides(ctx context.Context, input SearchInput) ([]domain.Ride, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	return s.rides.Search(ctx, domain.RideFilter{
		FromCity: input.FromCity,
		ToCity:   input.ToCity,
		Date:     input.Date,
		MinSeats: input.MinSeats,
		MaxPrice: input.MaxPrice,
		Now:      s.now(),
	})
}

func (s *RideService) GetRide(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	return s.rides.GetByID(ctx, id)
}

func (s *RideService) ListMyRides(ctx context.Context, driverID uuid.UUID) ([]domain.Ride, error) {
	return s.rides.ListByDriver(ctx, driverID)
}

// DeleteRide removes an owned ride together with its bookings and warns every
// rider who still held a seat. The ride stays locked from the ownership check
// until the delete commits, so no booking can slip in between.
func (s *RideService) DeleteRide(ctx context.Context, id, userID uuid.UUID) error {
	var (
		ride   *domain.Ride
		riders []uuid.UUID
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.LockRide(ctx, id)
		if err != nil {
			return err
		}
		if !locked.IsDriver(userID) {
			return domain.ErrNotRideOwner
		}
		if riders, err = tx.ActiveRiders(ctx, id); err != nil {
			return err
		}
		ride = locked
		return tx.DeleteRide(ctx, id)
	})
	if err != nil {
		return err
	}

	for _, riderID := range riders {
		s.notifier.RideCancelled(ctx, ride, riderID)
	}
	s.logger.Info("ride deleted", "ride_id", id, "riders_notified", len(riders))
	return nil
}

var _ RideUseCase = (*RideService)(nil)
