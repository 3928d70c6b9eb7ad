package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateStore keeps fixed-window counters in Redis so concurrently warm
// instances share one quota per caller. Keys are
// ratelimit:{callerID} with an expiry equal to the window; INCR on an
// expired key starts the next window.
type RateStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRateStore(client *redis.Client) *RateStore {
	return &RateStore{client: client, clock: time.Now}
}

func (s *RateStore) Incr(ctx context.Context, callerID string, window time.Duration) (int, time.Time, error) {
	key := s.key(callerID)
	now := s.clock()

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return int(count), now.Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		// Key lost its expiry (e.g. flushed mid-window); restore it so the
		// counter cannot grow forever.
		_ = s.client.Expire(ctx, key, window).Err()
		ttl = window
	}
	return int(count), now.Add(ttl), nil
}

func (s *RateStore) key(callerID string) string {
	return "ratelimit:" + callerID
}
