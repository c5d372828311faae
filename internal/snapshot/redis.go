package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pep299/subreddit-digest/internal/model"
)

// RedisStore keeps the snapshot as a JSON string under a single key
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis store from a redis:// URL
func NewRedisStore(url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	return &RedisStore{client: redis.NewClient(opts), key: key}, nil
}

func (r *RedisStore) Load(ctx context.Context) (*model.Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot from redis: %w", err)
	}
	return decode(data)
}

func (r *RedisStore) Save(ctx context.Context, s *model.Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("setting snapshot in redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
