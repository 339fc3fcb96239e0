package bootstrap

import (
	"log/slog"

	"github.com/Domenick1991/rideshare/config"
	"github.com/Domenick1991/rideshare/internal/auth"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/Domenick1991/rideshare/internal/repository/memory"
	"github.com/Domenick1991/rideshare/internal/service/booking"
	"github.com/Domenick1991/rideshare/internal/service/ledger"
	"github.com/Domenick1991/rideshare/internal/service/notify"
	"github.com/Domenick1991/rideshare/internal/service/rating"
	"github.com/Domenick1991/rideshare/internal/service/reviews"
	"github.com/Domenick1991/rideshare/internal/service/rides"
	"github.com/Domenick1991/rideshare/internal/service/users"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Rides         repository.RideRepository
	Bookings      repository.BookingRepository
	Reviews       repository.ReviewRepository
	Notifications repository.NotificationRepository
	Users         repository.UserRepository
	Tx            repository.Transactor
}

// Infra holds the optional adapters. Leave a field nil to run without it.
type Infra struct {
	Cache     notify.UnreadCache
	Publisher notify.Publisher
}

type App struct {
	Dispatcher    *notify.Dispatcher
	Verifier      *auth.Verifier
	Rides         rides.RideUseCase
	Bookings      booking.BookingUseCase
	Reviews       reviews.ReviewUseCase
	Notifications notify.NotificationUseCase
	Users         users.UserUseCase
}

func NewApp(cfg *config.Config, logger *slog.Logger, repos Repositories, infra Infra) *App {
	dispatcherOpts := []notify.DispatcherOption{
		notify.WithLogger(logger),
		notify.WithRetry(cfg.Notifications.MaxAttempts, cfg.Notifications.RetryBackoff),
	}
	if infra.Cache != nil {
		dispatcherOpts = append(dispatcherOpts, notify.WithCache(infra.Cache))
	}
	if infra.Publisher != nil {
		dispatcherOpts = append(dispatcherOpts, notify.WithPublisher(infra.Publisher, cfg.Kafka.NotificationsTopic))
	}
	dispatcher := notify.NewDispatcher(repos.Notifications, cfg.Notifications.QueueSize, dispatcherOpts...)

	seats := ledger.New(repos.Tx, ledger.WithLogger(logger))
	aggregator := rating.NewAggregator(repos.Reviews, repos.Users, logger)
	visibility := reviews.NewVisibilityEngine(repos.Bookings, repos.Reviews, cfg.Reviews.Window, nil, logger)

	return &App{
		Dispatcher:    dispatcher,
		Verifier:      auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience),
		Rides:         rides.NewRideService(repos.Rides, repos.Tx, dispatcher, rides.WithLogger(logger)),
		Bookings:      booking.NewBookingService(repos.Bookings, repos.Rides, repos.Tx, seats, dispatcher, booking.WithLogger(logger)),
		Reviews:       reviews.NewReviewService(repos.Bookings, repos.Reviews, aggregator, visibility, logger),
		Notifications: notify.NewNotificationService(repos.Notifications, infra.Cache, logger),
		Users:         users.NewUserService(repos.Users),
	}
}

func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Rides:         repository.NewRideRepository(pool),
		Bookings:      repository.NewBookingRepository(pool),
		Reviews:       repository.NewReviewRepository(pool),
		Notifications: repository.NewNotificationRepository(pool),
		Users:         repository.NewUserRepository(pool),
		Tx:            repository.NewTransactor(pool),
	}
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Rides:         store.Rides(),
		Bookings:      store.Bookings(),
		Reviews:       store.Reviews(),
		Notifications: store.Notifications(),
		Users:         store.Users(),
		Tx:            store,
	}
}
