package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chall_zone/internal/common"
	"chall_zone/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "chall_zone:revoked:"

// Connect opens the Redis client used for session state and checks it is
// reachable.
func Connect(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("session.Connect: %w", err)
	}
	log.WithField("addr", cfg.RedisAddr).Info("connected to Redis")
	return rdb, nil
}

// RevocationStore remembers logged-out token ids until the tokens would have
// expired anyway.
type RevocationStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRevocationStore(rdb *redis.Client) *RevocationStore {
	return &RevocationStore{rdb: rdb, now: time.Now}
}

// Revoke marks jti as unusable until expiresAt. Tokens already past their
// expiry are not stored.
func (s *RevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, keyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("session.Revoke: %w: %w", common.ErrServiceUnavailable, err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.rdb.Get(ctx, keyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session.IsRevoked: %w: %w", common.ErrServiceUnavailable, err)
	}
	return true, nil
}

// Ping is used by the health endpoint.
func (s *RevocationStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
