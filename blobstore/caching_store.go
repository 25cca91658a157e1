package blobstore

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheEntries is the LRU capacity used when NewCachingStore is given
// a non-positive size.
const DefaultCacheEntries = 64

// CachingStore wraps a Store and keeps recently read blobs in an LRU cache.
// Writes and deletes go through to the inner store and invalidate the entry.
//
// A read that overlaps a write or delete returns what the inner store gave
// it but does not populate the cache.
type CachingStore struct {
	inner Store
	cache *lru.Cache[string, []byte]

	mu  sync.Mutex
	gen uint64 // bumped by every Put and Delete
}

// NewCachingStore creates a new CachingStore holding up to entries blobs.
func NewCachingStore(inner Store, entries int) (*CachingStore, error) {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}

	c, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, err
	}

	return &CachingStore{inner: inner, cache: c}, nil
}

// Put writes through and drops any cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	err := s.inner.Put(ctx, name, data)
	s.invalidate(name)
	return err
}

// Get serves from the cache or reads through. Callers receive their own copy.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	cached, ok := s.cache.Get(name)
	gen := s.gen
	s.mu.Unlock()

	if ok {
		return clone(cached), nil
	}

	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.cache.Add(name, clone(data))
	}
	s.mu.Unlock()

	return data, nil
}

// Delete removes the blob and its cached copy.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	err := s.inner.Delete(ctx, name)
	s.invalidate(name)
	return err
}

// invalidate runs after the inner write, even a failed one, since the
// inner state may have changed.
func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	s.gen++
	s.cache.Remove(name)
	s.mu.Unlock()
}

// List is not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Len returns the number of cached blobs.
func (s *CachingStore) Len() int { return s.cache.Len() }

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
