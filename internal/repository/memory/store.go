// Package memory is an in-process implementation of the repository
// interfaces. A single mutex serializes every operation, and WithinTx holds it
// for the whole unit of work, which gives the same per-ride serialization the
// Postgres row locks provide.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/google/uuid"
)

type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	users         map[uuid.UUID]domain.User
	rides         map[uuid.UUID]domain.Ride
	bookings      map[uuid.UUID]domain.Booking
	reviews       map[uuid.UUID]domain.Review
	notifications map[uuid.UUID]domain.Notification
}

func New() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[uuid.UUID]domain.User),
		rides:         make(map[uuid.UUID]domain.Ride),
		bookings:      make(map[uuid.UUID]domain.Booking),
		reviews:       make(map[uuid.UUID]domain.Review),
		notifications: make(map[uuid.UUID]domain.Notification),
	}
}

// PutUser seeds or replaces a user profile.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) Rides() repository.RideRepository                 { return rideRepo{s} }
func (s *Store) Bookings() repository.BookingRepository           { return bookingRepo{s} }
func (s *Store) Reviews() repository.ReviewRepository             { return reviewRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }
func (s *Store) Users() repository.UserRepository                 { return userRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// hydrate must be called with s.mu held.
func (s *Store) hydrate(b domain.Booking) domain.Booking {
	if r, ok := s.rides[b.RideID]; ok {
		r.Driver = s.userPtr(r.DriverID)
		b.Ride = &r
	}
	b.Rider = s.userPtr(b.RiderID)
	return b
}

func (s *Store) userPtr(id uuid.UUID) *domain.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &u
}

type rideRepo struct{ s *Store }

func (r rideRepo) Create(_ context.Context, ride *domain.Ride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ride.CreatedAt = r.s.now()
	stored := *ride
	stored.Driver = nil
	r.s.rides[ride.ID] = stored
	return nil
}

func (r rideRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ride, ok := r.s.rides[id]
	if !ok {
		return nil, domain.ErrRideNotFound
	}
	ride.Driver = r.s.userPtr(ride.DriverID)
	return &ride, nil
}

func (r rideRepo) Search(_ context.Context, f domain.RideFilter) ([]domain.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Ride, 0)
	for _, ride := range r.s.rides {
		if ride.DepartureTime.Before(f.Now) || ride.SeatsAvailable <= 0 {
			continue
		}
		if f.FromCity != "" && !containsFold(ride.From.City, f.FromCity) {
			continue
		}
		if f.ToCity != "" && !containsFold(ride.To.City, f.ToCity) {
			continue
		}
		if f.Date != nil {
			day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, f.Date.Location())
			if ride.DepartureTime.Before(day) || !ride.DepartureTime.Before(day.AddDate(0, 0, 1)) {
				continue
			}
		}
		if f.MinSeats > 0 && ride.SeatsAvailable < f.MinSeats {
			continue
		}
		if f.MaxPrice != nil && (ride.Price == nil || *ride.Price > *f.MaxPrice) {
			continue
		}
		ride.Driver = r.s.userPtr(ride.DriverID)
		out = append(out, ride)
	}
	sortByDeparture(out)
	return out, nil
}

func (r rideRepo) ListByDriver(_ context.Context, driverID uuid.UUID) ([]domain.Ride, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Ride, 0)
	for _, ride := range r.s.rides {
		if ride.DriverID == driverID {
			ride.Driver = r.s.userPtr(ride.DriverID)
			out = append(out, ride)
		}
	}
	sortByDeparture(out)
	return out, nil
}

type bookingRepo struct{ s *Store }

func (r bookingRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b = r.s.hydrate(b)
	return &b, nil
}

func (r bookingRepo) ListByRider(_ context.Context, riderID uuid.UUID) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool { return b.RiderID == riderID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r bookingRepo) ListByRide(_ context.Context, rideID uuid.UUID) ([]domain.Booking, error) {
	out := r.filter(func(b domain.Booking) bool { return b.RideID == rideID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r bookingRepo) filter(keep func(domain.Booking) bool) []domain.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.Booking, 0)
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, r.s.hydrate(b))
		}
	}
	return out
}

// memTx runs with Store.mu held and records undo steps for rollback.
type memTx struct {
	s    *Store
	undo []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

func (t *memTx) LockRide(_ context.Context, id uuid.UUID) (*domain.Ride, error) {
	ride, ok := t.s.rides[id]
	if !ok {
		return nil, domain.ErrRideNotFound
	}
	return &ride, nil
}

func (t *memTx) LockBooking(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) HasActiveBooking(_ context.Context, rideID, riderID uuid.UUID) (bool, error) {
	for _, b := range t.s.bookings {
		if b.RideID == rideID && b.RiderID == riderID && b.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertBooking(_ context.Context, b *domain.Booking) error {
	now := t.s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	stored := *b
	stored.Ride, stored.Rider = nil, nil
	t.s.bookings[b.ID] = stored
	id := b.ID
	t.undo = append(t.undo, func() { delete(t.s.bookings, id) })
	return nil
}

func (t *memTx) SetSeatsAvailable(_ context.Context, rideID uuid.UUID, seats int) error {
	ride, ok := t.s.rides[rideID]
	if !ok {
		return domain.ErrRideNotFound
	}
	prev := ride.SeatsAvailable
	ride.SeatsAvailable = seats
	t.s.rides[rideID] = ride
	t.undo = append(t.undo, func() {
		r := t.s.rides[rideID]
		r.SeatsAvailable = prev
		t.s.rides[rideID] = r
	})
	return nil
}

func (t *memTx) TransitionBooking(_ context.Context, id uuid.UUID, from, to domain.BookingStatus) error {
	b, ok := t.s.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrStatusChanged
	}
	prev := b
	b.Status = to
	b.UpdatedAt = t.s.now()
	t.s.bookings[id] = b
	t.undo = append(t.undo, func() { t.s.bookings[id] = prev })
	return nil
}

func (t *memTx) ActiveRiders(_ context.Context, rideID uuid.UUID) ([]uuid.UUID, error) {
	riders := make([]uuid.UUID, 0)
	for _, b := range t.s.bookings {
		if b.RideID == rideID && b.Status.Active() {
			riders = append(riders, b.RiderID)
		}
	}
	return riders, nil
}

// DeleteRide cascades to the ride's bookings and their reviews.
func (t *memTx) DeleteRide(_ context.Context, id uuid.UUID) error {
	ride, ok := t.s.rides[id]
	if !ok {
		return domain.ErrRideNotFound
	}
	delete(t.s.rides, id)
	t.undo = append(t.undo, func() { t.s.rides[id] = ride })
	for bid, b := range t.s.bookings {
		if b.RideID != id {
			continue
		}
		delete(t.s.bookings, bid)
		t.undo = append(t.undo, func() { t.s.bookings[bid] = b })
		for rid, rv := range t.s.reviews {
			if rv.BookingID == bid {
				delete(t.s.reviews, rid)
				t.undo = append(t.undo, func() { t.s.reviews[rid] = rv })
			}
		}
	}
	return nil
}

type reviewRepo struct{ s *Store }

func (r reviewRepo) Create(_ context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.reviews {
		if v.BookingID == review.BookingID && v.AuthorID == review.AuthorID {
			return domain.ErrDuplicateReview
		}
	}
	review.CreatedAt = r.s.now()
	stored := *review
	stored.Author = nil
	r.s.reviews[review.ID] = stored
	return nil
}

func (r reviewRepo) ExistsForAuthor(_ context.Context, bookingID, authorID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.reviews {
		if v.BookingID == bookingID && v.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (r reviewRepo) HasReciprocal(_ context.Context, bookingID, authorID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.reviews {
		if v.BookingID == bookingID && v.AuthorID != authorID {
			return true, nil
		}
	}
	return false, nil
}

func (r reviewRepo) ListBySubject(_ context.Context, subjectID uuid.UUID) ([]domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Review, 0)
	for _, v := range r.s.reviews {
		if v.SubjectID == subjectID {
			v.Author = r.s.userPtr(v.AuthorID)
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r reviewRepo) ScoresBySubject(_ context.Context, subjectID uuid.UUID) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	scores := make([]int, 0)
	for _, v := range r.s.reviews {
		if v.SubjectID == subjectID {
			scores = append(scores, v.Score)
		}
	}
	return scores, nil
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.notifications[n.ID]; ok {
		return nil
	}
	if n.Metadata == nil {
		n.Metadata = map[string]any{}
	}
	r.s.notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]domain.Notification, error) {
	all := r.byUser(userID, false)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset < 0 || limit <= 0 || offset >= len(all) {
		return []domain.Notification{}, nil
	}
	end := offset + limit
	if end > len(all) || end < offset {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r notificationRepo) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	return len(r.byUser(userID, false)), nil
}

func (r notificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	return len(r.byUser(userID, true)), nil
}

func (r notificationRepo) MarkRead(_ context.Context, id, userID uuid.UUID) (*domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, domain.ErrNotificationNotFound
	}
	n.IsRead = true
	r.s.notifications[id] = n
	return &n, nil
}

func (r notificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	updated := 0
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			r.s.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (r notificationRepo) byUser(userID uuid.UUID, unreadOnly bool) []domain.Notification {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Notification, 0)
	for _, n := range r.s.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) UpdateProfile(_ context.Context, id uuid.UUID, changes domain.ProfileChanges) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if changes.Name != nil {
		u.Name = *changes.Name
	}
	if changes.AvatarURL != nil {
		u.AvatarURL = changes.AvatarURL
	}
	if changes.Phone != nil {
		u.Phone = changes.Phone
	}
	r.s.users[id] = u
	return &u, nil
}

func (r userRepo) UpdateRating(_ context.Context, id uuid.UUID, average float64, count int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.AverageRating = average
	u.RatingCount = count
	r.s.users[id] = u
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sortByDeparture(rides []domain.Ride) {
	sort.SliceStable(rides, func(i, j int) bool { return rides[i].DepartureTime.Before(rides[j].DepartureTime) })
}

var (
	_ repository.Transactor             = (*Store)(nil)
	_ repository.RideRepository         = rideRepo{}
	_ repository.BookingRepository      = bookingRepo{}
	_ repository.ReviewRepository       = reviewRepo{}
	_ repository.NotificationRepository = notificationRepo{}
	_ repository.UserRepository         = userRepo{}
)
