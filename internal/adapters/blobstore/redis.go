// Package blobstore implements the BlobStore port.
package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rescam/phish-triage/internal/core"
)

// NewRedisClient creates a new Redis client and verifies connectivity.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// RedisStore implements core.BlobStore over Redis, one key per blob path.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis blob store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the blob at path, or core.ErrBlobNotFound.
func (s *RedisStore) Get(ctx context.Context, path string) (string, error) {
	val, err := s.client.Get(ctx, path).Result()
	if errors.Is(err, redis.Nil) {
		return "", core.ErrBlobNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", path, err)
	}
	return val, nil
}

// Put writes the blob at path with no expiry.
func (s *RedisStore) Put(ctx context.Context, path, content string) error {
	if err := s.client.Set(ctx, path, content, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", path, err)
	}
	return nil
}

// Delete removes the blob at path.
func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, path).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", path, err)
	}
	return nil
}
