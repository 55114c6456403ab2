package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// RedisKeyPrefix namespaces prediction entries in a shared Redis database.
// Keys are RedisKeyPrefix + version + ":" + cache key.
const RedisKeyPrefix = "fwi:prediction:"

// RedisCache stores predictions as JSON strings with a TTL, so several
// service replicas can share one cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache wraps an existing client. Entries expire after ttl.
// version is the artifact store digest; replicas serving different
// artifacts never read each other's entries.
func NewRedisCache(client *redis.Client, ttl time.Duration, version string) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: RedisKeyPrefix + version + ":"}
}

func (r *RedisCache) Get(ctx context.Context, key string) (domain.Prediction, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Prediction{}, false, nil
	}
	if err != nil {
		return domain.Prediction{}, false, fmt.Errorf("redis get: %w", err)
	}

	var p domain.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Prediction{}, false, fmt.Errorf("decode cached prediction: %w", err)
	}
	return p, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, p domain.Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Backend() string { return "redis" }

// Ping checks connectivity to the Redis server.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
