package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"opennotes-gateway/internal/domain"
)

// CodeStore keeps auth-code records in Redis as JSON values under
// authcode:{code}, expiring at the record's ExpiresAt. Native TTL makes the
// lazy purge a no-op here.
type CodeStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client, clock: time.Now}
}

func (s *CodeStore) Put(ctx context.Context, code domain.AuthCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return err
	}
	ttl := code.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(code.Code), data, ttl).Err()
}

func (s *CodeStore) Get(ctx context.Context, code string) (domain.AuthCode, bool, error) {
	data, err := s.client.Get(ctx, s.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AuthCode{}, false, nil
	}
	if err != nil {
		return domain.AuthCode{}, false, err
	}
	var record domain.AuthCode
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.AuthCode{}, false, err
	}
	return record, true, nil
}

func (s *CodeStore) Delete(ctx context.Context, code string) error {
	return s.client.Del(ctx, s.key(code)).Err()
}

// PurgeExpired is a no-op; Redis expires records itself.
func (s *CodeStore) PurgeExpired(context.Context, time.Time) error {
	return nil
}

func (s *CodeStore) key(code string) string {
	return "authcode:" + code
}
