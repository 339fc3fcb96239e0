package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/rideshare/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	unreadTTL time.Duration
	dedupeTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return NewRedisCacheWithClient(client, cfg.UnreadTTL, cfg.DeliveryDedupeTTL)
}

func NewRedisCacheWithClient(client *redis.Client, unreadTTL, dedupeTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, unreadTTL: unreadTTL, dedupeTTL: dedupeTTL}
}

// fillUnread stores the count only while the generation still matches the
// one read before storage was queried.
var fillUnread = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
  return 0
end
if ARGV[3] == '0' then
  redis.call('SET', KEYS[1], ARGV[2])
else
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

// GetUnreadCount reports ok=false on a cache miss. generation must be passed
// back to SetUnreadCount when filling after a miss.
func (c *RedisCache) GetUnreadCount(ctx context.Context, userID uuid.UUID) (count int, generation int64, ok bool, err error) {
	vals, err := c.client.MGet(ctx, unreadKey(userID), unreadGenKey(userID)).Result()
	if err != nil {
		return 0, 0, false, err
	}
	if raw, isStr := vals[1].(string); isStr {
		if generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return 0, 0, false, fmt.Errorf("corrupt unread generation for %s: %w", userID, err)
		}
	}
	raw, isStr := vals[0].(string)
	if !isStr {
		return 0, generation, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, 0, false, fmt.Errorf("corrupt unread count for %s: %w", userID, err)
	}
	return n, generation, true, nil
}

// SetUnreadCount is a no-op when an invalidation happened since generation
// was read.
func (c *RedisCache) SetUnreadCount(ctx context.Context, userID uuid.UUID, generation int64, count int) error {
	keys := []string{unreadKey(userID), unreadGenKey(userID)}
	return fillUnread.Run(ctx, c.client, keys,
		strconv.FormatInt(generation, 10), strconv.Itoa(count), strconv.FormatInt(c.unreadTTL.Milliseconds(), 10)).Err()
}

// InvalidateUnreadCount bumps the generation before dropping the count, so a
// fill computed from older storage state can no longer land.
func (c *RedisCache) InvalidateUnreadCount(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Incr(ctx, unreadGenKey(userID)).Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, unreadKey(userID)).Err()
}

// MarkDelivered returns false when the notification was already handed to
// the delivery sink.
func (c *RedisCache) MarkDelivered(ctx context.Context, notificationID uuid.UUID) (bool, error) {
	return c.client.SetNX(ctx, deliveredKey(notificationID), "1", c.dedupeTTL).Result()
}

// ForgetDelivered lets a failed delivery be retried.
func (c *RedisCache) ForgetDelivered(ctx context.Context, notificationID uuid.UUID) error {
	return c.client.Del(ctx, deliveredKey(notificationID)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func unreadKey(userID uuid.UUID) string {
	return "cache:notifications:unread:" + userID.String()
}

func unreadGenKey(userID uuid.UUID) string {
	return "cache:notifications:unread-gen:" + userID.String()
}

func deliveredKey(notificationID uuid.UUID) string {
	return "lock:notification:delivered:" + notificationID.String()
}
