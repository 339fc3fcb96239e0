package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/Domenick1991/rideshare/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestList_Paginates(t *testing.T) {
	repo := new(MockNotificationRepository)
	userID := uuid.New()
	items := []domain.Notification{{ID: uuid.New(), CreatedAt: time.Now()}}
	repo.On("ListByUser", mock.Anything, userID, 20, 20).Return(items, nil)
	repo.On("CountByUser", mock.Anything, userID).Return(41, nil)

	page, err := NewNotificationService(repo, nil, nil).List(context.Background(), userID, 2, 20)

	require.NoError(t, err)
	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.True(t, page.HasMore)
	assert.Len(t, page.Notifications, 1)
}

func TestList_LastPageHasNoMore(t *testing.T) {
	repo := new(MockNotificationRepository)
	userID := uuid.New()
	repo.On("ListByUser", mock.Anything, userID, 20, 40).Return([]domain.Notification{}, nil)
	repo.On("CountByUser", mock.Anything, userID).Return(40, nil)

	page, err := NewNotificationService(repo, nil, nil).List(context.Background(), userID, 3, 20)

	require.NoError(t, err)
	assert.False(t, page.HasMore)
}

func TestList_ValidatesPaging(t *testing.T) {
	svc := NewNotificationService(new(MockNotificationRepository), nil, nil)

	_, err := svc.List(context.Background(), uuid.New(), 0, 101)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)
	assert.Len(t, de.Fields, 2)
}

func TestList_RejectsPageBeyondLimit(t *testing.T) {
	svc := NewNotificationService(memory.New().Notifications(), nil, nil)

	_, err := svc.List(context.Background(), uuid.New(), 100_000_000_000_000_000, MaxPageSize)

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindValidation, de.Kind)
	require.Len(t, de.Fields, 1)
	assert.Equal(t, "page", de.Fields[0].Field)
}

func TestUnreadCount_CacheHitSkipsStorage(t *testing.T) {
	repo := new(MockNotificationRepository)
	cache := new(MockUnreadCache)
	userID := uuid.New()
	cache.On("GetUnreadCount", mock.Anything, userID).Return(7, int64(0), true, nil)

	n, err := NewNotificationService(repo, cache, nil).UnreadCount(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 7, n)
	repo.AssertNotCalled(t, "CountUnread", mock.Anything, mock.Anything)
}

func TestUnreadCount_MissFillsWithGeneration(t *testing.T) {
	repo := new(MockNotificationRepository)
	cache := new(MockUnreadCache)
	userID := uuid.New()
	cache.On("GetUnreadCount", mock.Anything, userID).Return(0, int64(3), false, nil)
	repo.On("CountUnread", mock.Anything, userID).Return(2, nil)
	cache.On("SetUnreadCount", mock.Anything, userID, int64(3), 2).Return(nil)

	n, err := NewNotificationService(repo, cache, nil).UnreadCount(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	cache.AssertExpectations(t)
}

func TestUnreadCount_CacheErrorReadsStorageOnly(t *testing.T) {
	repo := new(MockNotificationRepository)
	cache := new(MockUnreadCache)
	userID := uuid.New()
	cache.On("GetUnreadCount", mock.Anything, userID).Return(0, int64(0), false, errors.New("redis down"))
	repo.On("CountUnread", mock.Anything, userID).Return(2, nil)

	n, err := NewNotificationService(repo, cache, nil).UnreadCount(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	cache.AssertNotCalled(t, "SetUnreadCount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// generationCache behaves like the Redis adapter: invalidation bumps a
// per-user generation and fills carrying an older one are discarded.
type generationCache struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
	gens   map[uuid.UUID]int64
}

func newGenerationCache() *generationCache {
	return &generationCache{counts: map[uuid.UUID]int{}, gens: map[uuid.UUID]int64{}}
}

func (c *generationCache) GetUnreadCount(_ context.Context, userID uuid.UUID) (int, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[userID]
	return n, c.gens[userID], ok, nil
}

func (c *generationCache) SetUnreadCount(_ context.Context, userID uuid.UUID, generation int64, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] == generation {
		c.counts[userID] = count
	}
	return nil
}

func (c *generationCache) InvalidateUnreadCount(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	delete(c.counts, userID)
	return nil
}

// countHookRepo runs afterCount once storage has been counted and before the
// caller sees the result.
type countHookRepo struct {
	repository.NotificationRepository
	afterCount func()
}

func (r *countHookRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := r.NotificationRepository.CountUnread(ctx, userID)
	if r.afterCount != nil {
		hook := r.afterCount
		r.afterCount = nil
		hook()
	}
	return n, err
}

func TestUnreadCount_StaleFillDoesNotOutliveDelivery(t *testing.T) {
	store := memory.New()
	cache := newGenerationCache()
	userID := uuid.New()
	d := NewDispatcher(store.Notifications(), 1, WithCache(cache))

	repo := &countHookRepo{NotificationRepository: store.Notifications()}
	repo.afterCount = func() {
		d.deliver(context.Background(), &domain.Notification{
			ID: uuid.New(), UserID: userID, Title: "t", Type: domain.NotificationBookingRequest, CreatedAt: time.Now(),
		})
	}
	svc := NewNotificationService(repo, cache, nil)

	first, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 0, first)

	second, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, second)

	stored, _, ok, _ := cache.GetUnreadCount(context.Background(), userID)
	assert.True(t, ok)
	assert.Equal(t, 1, stored)
}

func TestMarkRead_InvalidatesCache(t *testing.T) {
	repo := new(MockNotificationRepository)
	cache := new(MockUnreadCache)
	id, userID := uuid.New(), uuid.New()
	repo.On("MarkRead", mock.Anything, id, userID).Return(&domain.Notification{ID: id, IsRead: true}, nil)
	cache.On("InvalidateUnreadCount", mock.Anything, userID).Return(nil)

	n, err := NewNotificationService(repo, cache, nil).MarkRead(context.Background(), id, userID)

	require.NoError(t, err)
	assert.True(t, n.IsRead)
	cache.AssertExpectations(t)
}

func TestMarkRead_NotOwnedIsNotFound(t *testing.T) {
	repo := new(MockNotificationRepository)
	id, userID := uuid.New(), uuid.New()
	repo.On("MarkRead", mock.Anything, id, userID).Return(nil, domain.ErrNotificationNotFound)

	_, err := NewNotificationService(repo, nil, nil).MarkRead(context.Background(), id, userID)

	assert.ErrorIs(t, err, domain.ErrNotificationNotFound)
}

func TestMarkAllRead_ReturnsCount(t *testing.T) {
	repo := new(MockNotificationRepository)
	cache := new(MockUnreadCache)
	userID := uuid.New()
	repo.On("MarkAllRead", mock.Anything, userID).Return(4, nil)
	cache.On("InvalidateUnreadCount", mock.Anything, userID).Return(errors.New("redis down"))

	updated, err := NewNotificationService(repo, cache, nil).MarkAllRead(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 4, updated)
}
