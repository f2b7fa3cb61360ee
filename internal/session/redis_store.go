package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusdesk/student-portal/internal/config"
)

const keyPrefix = "portal:profile:"

// RedisStore keeps page state in redis with a sliding TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore builds a store on top of an existing client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// OpenRedisStore connects to redis using the provided configuration. An
// unreachable server is logged, not fatal; readiness reports it.
func OpenRedisStore(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return NewRedisStore(client, ttl)
}

// Ping verifies redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis client not configured")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *RedisStore) Get(ctx context.Context, userID string) (*State, error) {
	raw, err := r.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var st State
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode page state: %w", err)
	}
	return &st, nil
}

func (r *RedisStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.UserID == "" {
		return errors.New("state requires a user id")
	}
	raw, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode page state: %w", err)
	}
	return r.client.Set(ctx, key(state.UserID), raw, r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, key(userID)).Err()
}

func key(userID string) string {
	return keyPrefix + userID
}
