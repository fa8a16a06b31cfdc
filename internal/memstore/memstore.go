// Package memstore provides the in-memory BlockPersistence implementation
// used by brightchain's default, non-disk-backed block store. It generalizes
// the teacher's on-disk LRU cache (core/storage.go's diskLRU, keyed by CID)
// into a pure in-memory map with an optional bounded LRU front, using
// github.com/hashicorp/golang-lru/v2 for the eviction policy instead of the
// teacher's hand-rolled slice-ordered eviction list.
package memstore

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is a content-addressed, in-memory byte-slice store keyed by hex
// block id. brightchain's core.InMemoryBlockPersistence adapts it to the
// core.BlockPersistence interface.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty in-memory block store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Put installs a copy of data under the hex key id, replacing any bytes
// already stored there — the caller (core.BlockStore) decides whether
// re-putting an existing id is a no-op.
func (s *Store) Put(id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.data[id] = buf
	return nil
}

// Get returns a copy of the bytes stored under id, or ok=false.
func (s *Store) Get(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[id]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

// Has reports whether id is present.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok
}

// Delete removes id, returning ok=false if it was absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	return true
}

// Keys returns all stored keys in unspecified order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// BoundedCache is a fixed-capacity LRU front for hot block reads, mirroring
// the teacher's diskLRU eviction role but backed by hashicorp/golang-lru
// instead of a hand-rolled order slice.
type BoundedCache struct {
	cache *lru.Cache[string, []byte]
}

// NewBoundedCache creates a cache holding at most size entries.
func NewBoundedCache(size int) (*BoundedCache, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &BoundedCache{cache: c}, nil
}

// Get returns a cached value for id, if present.
func (c *BoundedCache) Get(id string) ([]byte, bool) {
	return c.cache.Get(id)
}

// Add inserts or refreshes id in the cache, evicting the least-recently-used
// entry if the cache is full.
func (c *BoundedCache) Add(id string, data []byte) {
	c.cache.Add(id, data)
}

// Remove evicts id from the cache, if present.
func (c *BoundedCache) Remove(id string) {
	c.cache.Remove(id)
}
