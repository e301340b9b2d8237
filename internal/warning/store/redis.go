package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/stockledger/internal/warning/domain"
)

const keyUserWarning = "stockledger:warning:%s:%s"

// RedisStore acknowledges warnings with SETNX so the first writer wins and
// the key expires with the session ttl.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{client: client}
}

func (s *RedisStore) Acknowledge(ctx context.Context, sessionID string, w domain.Warning, ttl time.Duration) (bool, error) {
	if s == nil || s.client == nil {
		return false, errors.New("warning redis client not configured")
	}
	if sessionID == "" {
		return false, domain.ErrInvalidSession
	}
	if w.Key == "" {
		return false, domain.ErrInvalidWarning
	}
	if ttl <= 0 {
		return false, errors.New("warning ttl must be positive")
	}

	return s.client.SetNX(ctx, fmt.Sprintf(keyUserWarning, sessionID, w.Key), w.Name, ttl).Result()
}
