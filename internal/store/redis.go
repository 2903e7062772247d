package store

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// RedisKV persists documents as plain Redis string values. Documents never
// expire; the store is the system of record, not a cache.
type RedisKV struct {
	R *redis.Client
}

// Load reads the full document for key.
func (s RedisKV) Load(ctx context.Context, key string) ([]byte, error) {
	doc, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("store: redis get %s: %w", key, err)
	}
	return doc, nil
}

// Save overwrites the document for key.
func (s RedisKV) Save(ctx context.Context, key string, doc []byte) error {
	if err := s.R.Set(ctx, key, doc, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set %s: %w", key, err)
	}
	return nil
}

// Ping probes the Redis connection.
func (s RedisKV) Ping(ctx context.Context) error {
	return s.R.Ping(ctx).Err()
}
