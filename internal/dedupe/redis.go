package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces dedupe markers away from all other application state.
const keyPrefix = "stripe_events:"

// RedisStore is the shared persistent dedupe backend. Markers are written
// with SET NX, so concurrent markers for one id resolve to a single record,
// and are retained indefinitely; Seen answers consistently across all
// instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection before
// returning.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Seen(ctx context.Context, id string) (bool, error) {
	err := s.client.Get(ctx, keyPrefix+id).Err()
	switch {
	case err == redis.Nil:
		return false, nil
	case err != nil:
		// Lookup failure, not a miss: the caller must not publish on it.
		return false, fmt.Errorf("dedupe lookup failed for %s: %w", id, err)
	default:
		return true, nil
	}
}

func (s *RedisStore) MarkSeen(ctx context.Context, id string) error {
	// NX makes the mark an atomic check-and-set: the losing writer of a
	// concurrent pair leaves the first record untouched.
	_, err := s.client.SetNX(ctx, keyPrefix+id, time.Now().UTC().Format(time.RFC3339), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to mark %s as processed: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
