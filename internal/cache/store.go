package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/bandwise/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Store is a JSON key/value store. Get reports false on a miss. Incr
// atomically bumps an integer counter, starting from zero.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}

// noopStore always misses. Used when Redis is not configured.
type noopStore struct{}

func (noopStore) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopStore) Set(context.Context, string, any, time.Duration) error { return nil }
func (noopStore) Incr(context.Context, string) (int64, error) { return 0, nil }

// NewStore connects to Redis when an address is configured and falls back
// to a store that never hits otherwise.
func NewStore(cfg *config.Config) (Store, error) {
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("REDIS_ADDR is not set. Read cache is disabled.")
		return noopStore{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return NewRedisStore(client), nil
}
