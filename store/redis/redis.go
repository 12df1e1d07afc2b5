// Package redis provides a Redis-backed checkpoint store, for deployments
// that want resume hints shared across processes with an optional TTL so
// stale checkpoints age out on their own.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/ragpipe/store"
)

// Store keeps one key per run under a common prefix.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces checkpoint keys. Default "ragpipe:checkpoint:".
	Prefix string

	// TTL expires checkpoints after the given duration. Zero keeps them
	// until deleted.
	TTL time.Duration
}

// New builds a store over a fresh Redis client.
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Prefix, opts.TTL)
}

// NewWithClient wraps an existing client, useful for tests.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "ragpipe:checkpoint:"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(runID string) string {
	return s.prefix + runID
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Save stores the checkpoint for runID, refreshing the TTL.
func (s *Store) Save(ctx context.Context, runID string, data []byte) error {
	if err := s.client.Set(ctx, s.key(runID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving checkpoint to redis: %w", err)
	}
	return nil
}

// Load returns the checkpoint for runID, or store.ErrNotFound.
func (s *Store) Load(ctx context.Context, runID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint from redis: %w", err)
	}
	return data, nil
}

// Delete removes runID's checkpoint if present.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if err := s.client.Del(ctx, s.key(runID)).Err(); err != nil {
		return fmt.Errorf("deleting checkpoint from redis: %w", err)
	}
	return nil
}

// List scans for checkpoint keys and strips the prefix.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var out []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing checkpoints in redis: %w", err)
	}
	return out, nil
}
