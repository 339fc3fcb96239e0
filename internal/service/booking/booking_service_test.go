package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/Domenick1991/rideshare/internal/repository/memory"
	"github.com/Domenick1991/rideshare/internal/service/ledger"
	"github.com/Domenick1991/rideshare/internal/service/rides"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByRider(ctx context.Context, riderID uuid.UUID) ([]domain.Booking, error) {
	args := m.Called(ctx, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]domain.Booking, error) {
	args := m.Called(ctx, rideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Reserve(ctx context.Context, rideID, riderID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, rideID, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockLedger) Release(ctx context.Context, tx repository.Tx, ride *domain.Ride, prior domain.BookingStatus) error {
	args := m.Called(ctx, tx, ride, prior)
	return args.Error(0)
}

// recordingNotifier captures which lifecycle message went to whom.
type recordingNotifier struct {
	mu        sync.Mutex
	sent      []string
	requested []*domain.Booking
}

func (n *recordingNotifier) record(kind string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
}

func (n *recordingNotifier) BookingRequested(_ context.Context, b *domain.Booking) {
	n.mu.Lock()
	n.requested = append(n.requested, b)
	n.mu.Unlock()
	n.record("requested")
}
func (n *recordingNotifier) BookingConfirmed(context.Context, *domain.Booking) { n.record("confirmed") }
func (n *recordingNotifier) BookingRejected(context.Context, *domain.Booking)  { n.record("rejected") }
func (n *recordingNotifier) BookingCancelled(context.Context, *domain.Booking, uuid.UUID) {
	n.record("cancelled")
}

type harness struct {
	store    *memory.Store
	service  *BookingService
	notifier *recordingNotifier
	ride     *domain.Ride
}

func newHarness(t *testing.T, seats int) *harness {
	t.Helper()
	store := memory.New()
	driver := domain.User{ID: uuid.New(), Name: "Dana", Role: domain.RoleDriver}
	store.PutUser(driver)
	ride := &domain.Ride{
		ID:             uuid.New(),
		DriverID:       driver.ID,
		To:             domain.Location{City: "Valencia"},
		DepartureTime:  time.Now().Add(24 * time.Hour),
		SeatsTotal:     seats,
		SeatsAvailable: seats,
	}
	require.NoError(t, store.Rides().Create(context.Background(), ride))

	notifier := &recordingNotifier{}
	service := NewBookingService(store.Bookings(), store.Rides(), store, ledger.New(store), notifier)
	return &harness{store: store, service: service, notifier: notifier, ride: ride}
}

func (h *harness) seats(t *testing.T) int {
	t.Helper()
	ride, err := h.store.Rides().GetByID(context.Background(), h.ride.ID)
	require.NoError(t, err)
	return ride.SeatsAvailable
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	h := newHarness(t, 2)
	rider := uuid.New()

	booking, err := h.service.CreateBooking(context.Background(), rider, h.ride.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	require.NotNil(t, booking.Ride)
	assert.Equal(t, h.ride.DriverID, booking.Ride.Driver.ID)
	assert.Equal(t, 1, h.seats(t))
	assert.Equal(t, []string{"requested"}, h.notifier.sent)
}

func TestBookingService_CreateBooking_LedgerErrorsPassThrough(t *testing.T) {
	l := new(MockLedger)
	rideID, riderID := uuid.New(), uuid.New()
	l.On("Reserve", mock.Anything, rideID, riderID).Return(nil, domain.ErrSeatsExhausted)
	notifier := &recordingNotifier{}

	service := NewBookingService(new(MockBookingRepository), nil, nil, l, notifier)
	_, err := service.CreateBooking(context.Background(), riderID, rideID)

	assert.ErrorIs(t, err, domain.ErrSeatsExhausted)
	assert.Empty(t, notifier.sent)
}

func TestBookingService_CreateBooking_ReloadFailureStillSucceeds(t *testing.T) {
	l := new(MockLedger)
	repo := new(MockBookingRepository)
	rideID, riderID := uuid.New(), uuid.New()
	reserved := &domain.Booking{ID: uuid.New(), RideID: rideID, RiderID: riderID, Status: domain.BookingStatusPending}
	l.On("Reserve", mock.Anything, rideID, riderID).Return(reserved, nil)
	repo.On("GetByID", mock.Anything, reserved.ID).Return(nil, domain.Unavailable("get booking", errors.New("timeout")))

	service := NewBookingService(repo, nil, nil, l, &recordingNotifier{})
	booking, err := service.CreateBooking(context.Background(), riderID, rideID)

	require.NoError(t, err)
	assert.Equal(t, reserved.ID, booking.ID)
}

func TestBookingService_CreateBooking_ReloadFailureStillNotifiesDriver(t *testing.T) {
	store := memory.New()
	driverID := uuid.New()
	ride := &domain.Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		To:             domain.Location{City: "Valencia"},
		DepartureTime:  time.Now().Add(24 * time.Hour),
		SeatsTotal:     2,
		SeatsAvailable: 2,
	}
	require.NoError(t, store.Rides().Create(context.Background(), ride))

	l := new(MockLedger)
	repo := new(MockBookingRepository)
	riderID := uuid.New()
	reserved := &domain.Booking{ID: uuid.New(), RideID: ride.ID, RiderID: riderID, Status: domain.BookingStatusPending}
	l.On("Reserve", mock.Anything, ride.ID, riderID).Return(reserved, nil)
	repo.On("GetByID", mock.Anything, reserved.ID).Return(nil, domain.Unavailable("get booking", errors.New("timeout")))

	notifier := &recordingNotifier{}
	service := NewBookingService(repo, store.Rides(), nil, l, notifier)
	booking, err := service.CreateBooking(context.Background(), riderID, ride.ID)

	require.NoError(t, err)
	assert.Equal(t, reserved.ID, booking.ID)
	assert.Equal(t, []string{"requested"}, notifier.sent)
	require.Len(t, notifier.requested, 1)
	assert.Equal(t, driverID, notifier.requested[0].DriverID())
	assert.Nil(t, reserved.Ride, "reserved booking must not be mutated")
}

func TestBookingService_ConfirmBooking_Rules(t *testing.T) {
	h := newHarness(t, 3)
	rider := uuid.New()
	booking, err := h.service.CreateBooking(context.Background(), rider, h.ride.ID)
	require.NoError(t, err)

	_, err = h.service.ConfirmBooking(context.Background(), booking.ID, rider)
	assert.ErrorIs(t, err, domain.ErrNotRideDriver)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	confirmed, err := h.service.ConfirmBooking(context.Background(), booking.ID, h.ride.DriverID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, 2, h.seats(t))

	_, err = h.service.ConfirmBooking(context.Background(), booking.ID, h.ride.DriverID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = h.service.CancelBooking(context.Background(), booking.ID, rider)
	require.NoError(t, err)
	_, err = h.service.ConfirmBooking(context.Background(), booking.ID, h.ride.DriverID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)

	_, err = h.service.ConfirmBooking(context.Background(), uuid.New(), h.ride.DriverID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingService_CancelBooking_TwiceDoesNotDoubleRelease(t *testing.T) {
	h := newHarness(t, 2)
	rider := uuid.New()
	booking, err := h.service.CreateBooking(context.Background(), rider, h.ride.ID)
	require.NoError(t, err)

	cancelled, err := h.service.CancelBooking(context.Background(), booking.ID, rider)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, 2, cancelled.Ride.SeatsAvailable)

	_, err = h.service.CancelBooking(context.Background(), booking.ID, rider)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, 2, h.seats(t))
}

func TestBookingService_CancelBooking_Outsider(t *testing.T) {
	h := newHarness(t, 2)
	booking, err := h.service.CreateBooking(context.Background(), uuid.New(), h.ride.ID)
	require.NoError(t, err)

	_, err = h.service.CancelBooking(context.Background(), booking.ID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotParticipant)
	assert.Equal(t, 1, h.seats(t))
}

func TestBookingService_CancelBooking_NotificationKinds(t *testing.T) {
	h := newHarness(t, 3)

	pending, err := h.service.CreateBooking(context.Background(), uuid.New(), h.ride.ID)
	require.NoError(t, err)
	_, err = h.service.CancelBooking(context.Background(), pending.ID, h.ride.DriverID)
	require.NoError(t, err)

	confirmed, err := h.service.CreateBooking(context.Background(), uuid.New(), h.ride.ID)
	require.NoError(t, err)
	_, err = h.service.ConfirmBooking(context.Background(), confirmed.ID, h.ride.DriverID)
	require.NoError(t, err)
	_, err = h.service.CancelBooking(context.Background(), confirmed.ID, h.ride.DriverID)
	require.NoError(t, err)

	byRider, err := h.service.CreateBooking(context.Background(), uuid.New(), h.ride.ID)
	require.NoError(t, err)
	_, err = h.service.CancelBooking(context.Background(), byRider.ID, byRider.RiderID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"requested", "rejected",
		"requested", "confirmed", "cancelled",
		"requested", "cancelled",
	}, h.notifier.sent)
	assert.Equal(t, 3, h.seats(t))
}

func TestBookingService_CancelBooking_ReleaseFailureRollsBack(t *testing.T) {
	h := newHarness(t, 2)
	rider := uuid.New()
	booking, err := h.service.CreateBooking(context.Background(), rider, h.ride.ID)
	require.NoError(t, err)

	l := new(MockLedger)
	l.On("Release", mock.Anything, mock.Anything, mock.Anything, domain.BookingStatusPending).Return(errors.New("disk full"))
	service := NewBookingService(h.store.Bookings(), h.store.Rides(), h.store, l, h.notifier)

	_, err = service.CancelBooking(context.Background(), booking.ID, rider)
	require.Error(t, err)

	current, err := h.store.Bookings().GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, current.Status)
	assert.Equal(t, 1, h.seats(t))
}

func TestBookingService_ConcurrentCancelReleasesOnce(t *testing.T) {
	h := newHarness(t, 1)
	rider := uuid.New()
	booking, err := h.service.CreateBooking(context.Background(), rider, h.ride.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []uuid.UUID{rider, h.ride.DriverID} {
		wg.Add(1)
		go func(i int, actor uuid.UUID) {
			defer wg.Done()
			_, errs[i] = h.service.CancelBooking(context.Background(), booking.ID, actor)
		}(i, actor)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, h.seats(t))
}

func TestBookingService_GetBooking_ParticipantsOnly(t *testing.T) {
	h := newHarness(t, 2)
	rider := uuid.New()
	booking, err := h.service.CreateBooking(context.Background(), rider, h.ride.ID)
	require.NoError(t, err)

	_, err = h.service.GetBooking(context.Background(), booking.ID, rider)
	assert.NoError(t, err)
	_, err = h.service.GetBooking(context.Background(), booking.ID, h.ride.DriverID)
	assert.NoError(t, err)
	_, err = h.service.GetBooking(context.Background(), booking.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotParticipant)
}

func TestBookingService_ListRideBookings_OwnerOnly(t *testing.T) {
	h := newHarness(t, 2)
	_, err := h.service.CreateBooking(context.Background(), uuid.New(), h.ride.ID)
	require.NoError(t, err)

	list, err := h.service.ListRideBookings(context.Background(), h.ride.ID, h.ride.DriverID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.service.ListRideBookings(context.Background(), h.ride.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotRideOwner)
}

func TestBookingLifecycle_EndToEnd(t *testing.T) {
	store := memory.New()
	driverID := uuid.New()
	store.PutUser(domain.User{ID: driverID, Name: "Dana", Role: domain.RoleDriver})
	notifier := &recordingNotifier{}

	rideService := rides.NewRideService(store.Rides(), store, nil)
	bookingService := NewBookingService(store.Bookings(), store.Rides(), store, ledger.New(store), notifier)
	ctx := context.Background()
	lat, lon := 40.0, -3.0

	ride, err := rideService.CreateRide(ctx, driverID, domain.RoleDriver, rides.CreateRideInput{
		From:       rides.LocationInput{City: "Madrid", Lat: &lat, Lon: &lon},
		To:         rides.LocationInput{City: "Valencia", Lat: &lat, Lon: &lon},
		DateTime:   time.Now().Add(72 * time.Hour),
		SeatsTotal: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ride.SeatsAvailable)

	seats := func() int {
		r, err := rideService.GetRide(ctx, ride.ID)
		require.NoError(t, err)
		return r.SeatsAvailable
	}

	riderA, riderB := uuid.New(), uuid.New()
	a, err := bookingService.CreateBooking(ctx, riderA, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, a.Status)
	assert.Equal(t, 2, seats())

	a, err = bookingService.ConfirmBooking(ctx, a.ID, driverID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, a.Status)
	assert.Equal(t, 2, seats())

	a, err = bookingService.CancelBooking(ctx, a.ID, riderA)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, a.Status)
	assert.Equal(t, 3, seats())

	b, err := bookingService.CreateBooking(ctx, riderB, ride.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, seats())

	// a cancelled booking does not block rebooking the same ride
	again, err := bookingService.CreateBooking(ctx, riderA, ride.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, again.ID)
	assert.Equal(t, 1, seats())
}

func TestTransitionAllowed(t *testing.T) {
	assert.NoError(t, transitionAllowed(domain.BookingStatusPending, domain.BookingStatusConfirmed))
	assert.NoError(t, transitionAllowed(domain.BookingStatusPending, domain.BookingStatusCancelled))
	assert.NoError(t, transitionAllowed(domain.BookingStatusConfirmed, domain.BookingStatusCancelled))
	assert.ErrorIs(t, transitionAllowed(domain.BookingStatusConfirmed, domain.BookingStatusConfirmed), domain.ErrInvalidTransition)
	assert.ErrorIs(t, transitionAllowed(domain.BookingStatusCancelled, domain.BookingStatusCancelled), domain.ErrAlreadyCancelled)
	assert.ErrorIs(t, transitionAllowed(domain.BookingStatusPending, domain.BookingStatusPending), domain.ErrInvalidTransition)
}
