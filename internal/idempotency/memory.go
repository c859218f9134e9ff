package idempotency

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps claims in process memory. Suitable for a single replica.
type MemoryStore struct {
	cache *cache.Cache
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, time.Minute)}
}

// Claim reserves key unless it is already held.
func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := s.cache.Add(key, Pending, ttl); err == nil {
		return "", true, nil
	}
	if v, ok := s.cache.Get(key); ok {
		return v.(string), false, nil
	}
	// expired between Add and Get
	if err := s.cache.Add(key, Pending, ttl); err != nil {
		return Pending, false, nil
	}
	return "", true, nil
}

// Complete records the result for key.
func (s *MemoryStore) Complete(_ context.Context, key, value string, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

// Release drops the claim on key.
func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
