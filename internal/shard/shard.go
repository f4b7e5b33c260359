// Package shard provides a concurrent map split into independently locked
// shards. It backs the symbol registry and the instantiation cache.
package shard

import (
	"hash/maphash"
	"sync"
)

// DefaultShards is used when New receives a non-positive shard count.
const DefaultShards = 32

type bucket[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// Map is a sharded map. Operations on different shards never contend.
type Map[K comparable, V any] struct {
	seed    maphash.Seed
	buckets []bucket[K, V]
}

// New creates a map with n shards.
func New[K comparable, V any](n int) *Map[K, V] {
	if n <= 0 {
		n = DefaultShards
	}
	m := &Map[K, V]{
		seed:    maphash.MakeSeed(),
		buckets: make([]bucket[K, V], n),
	}
	for i := range m.buckets {
		m.buckets[i].m = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) bucket(key K) *bucket[K, V] {
	h := maphash.Comparable(m.seed, key)
	return &m.buckets[h%uint64(len(m.buckets))]
}

// Load returns the value stored under key.
func (m *Map[K, V]) Load(key K) (V, bool) {
	b := m.bucket(key)
	b.mu.RLock()
	v, ok := b.m[key]
	b.mu.RUnlock()
	return v, ok
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores the value produced by mk and returns it with loaded=false. mk runs
// under the shard lock, at most once per call.
func (m *Map[K, V]) LoadOrStore(key K, mk func() V) (v V, loaded bool) {
	b := m.bucket(key)
	b.mu.RLock()
	v, ok := b.m[key]
	b.mu.RUnlock()
	if ok {
		return v, true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok = b.m[key]; ok {
		return v, true
	}
	v = mk()
	b.m[key] = v
	return v, false
}

// Store sets the value for key.
func (m *Map[K, V]) Store(key K, v V) {
	b := m.bucket(key)
	b.mu.Lock()
	b.m[key] = v
	b.mu.Unlock()
}

// Delete removes key.
func (m *Map[K, V]) Delete(key K) {
	b := m.bucket(key)
	b.mu.Lock()
	delete(b.m, key)
	b.mu.Unlock()
}

// Len counts entries across all shards.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.RLock()
		n += len(b.m)
		b.mu.RUnlock()
	}
	return n
}

// Keys returns a snapshot of all keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.RLock()
		for k := range b.m {
			keys = append(keys, k)
		}
		b.mu.RUnlock()
	}
	return keys
}
