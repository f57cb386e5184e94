// Package redis provides a Redis-backed cache store, used when analyses must
// survive process restarts or be shared between replicas. It implements the
// same contract as the in-memory store; expiry is delegated to Redis TTLs.
package redis

import (
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/cv-ranking-engine/internal/domain"
)

// Store implements domain.Store on top of a Redis client.
type Store struct {
	client *goredis.Client
	prefix string
}

// New constructs a Store. prefix namespaces keys so multiple caches can share
// one Redis database.
func New(client *goredis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// NewFromAddr dials addr and returns a Store.
func NewFromAddr(addr, prefix string) *Store {
	return New(goredis.NewClient(&goredis.Options{Addr: addr}), prefix)
}

// Get returns the value for key. Redis errors surface to the caller, which
// treats them as cache misses.
func (s *Store) Get(ctx domain.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores value under key. A zero ttl stores without expiry.
func (s *Store) Set(ctx domain.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// Delete removes key.
func (s *Store) Delete(ctx domain.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
