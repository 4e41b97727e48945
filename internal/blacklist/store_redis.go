package blacklist

import (
	"context"

	"github.com/redis/go-redis/v9"

	"parkspace/pkg/domain"
)

// Redis key holding the blacklist set. A single set keeps Count cheap (SCARD)
// and membership checks O(1) (SISMEMBER).
const blacklistKey = "parkspace:blacklist"

// RedisStore is a Redis-backed blacklist. This is the recommended
// implementation for distributed deployments where multiple instances must
// agree on who is barred from renting.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Add(ctx context.Context, addr domain.Address) error {
	return s.client.SAdd(ctx, blacklistKey, addr.String()).Err()
}

func (s *RedisStore) Contains(ctx context.Context, addr domain.Address) (bool, error) {
	return s.client.SIsMember(ctx, blacklistKey, addr.String()).Result()
}

func (s *RedisStore) Count(ctx context.Context) (uint64, error) {
	n, err := s.client.SCard(ctx, blacklistKey).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}
