package fields

import (
	"sync"

	"github.com/lukechampine/blake3"

	"github.com/symmetree-labs/infinitree/codec"
)

const mapShardCount = 16

type mapEntry[K comparable, V any] struct {
	Key K
	Val V
}

type mapShard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// Map approximates a lock-free concurrent hash map with a sharded,
// RWMutex-protected map -- the substitution spec §9 explicitly permits
// for languages without one. Each key's shard is chosen by hashing its
// codec-encoded bytes with Blake3 (matching the crypto package's hash
// primitive rather than introducing a separate fnv dependency).
// Snapshot depth; a duplicate Insert is a no-op that returns the
// existing value.
type Map[K comparable, V any] struct {
	name   string
	shards [mapShardCount]mapShard[K, V]
}

// NewMap constructs an empty Map field named name.
func NewMap[K comparable, V any](name string) *Map[K, V] {
	m := &Map[K, V]{name: name}
	for i := range m.shards {
		m.shards[i].m = make(map[K]V)
	}
	return m
}

func shardIndex[K comparable](key K) int {
	enc := codec.NewEncoder()
	_ = enc.Encode(key) // Encode only errors on unsupported kinds (chan/func); K here is data.
	sum := blake3.Sum256(enc.Bytes())
	return int(sum[0]) % mapShardCount
}

func (m *Map[K, V]) shardFor(key K) *mapShard[K, V] {
	return &m.shards[shardIndex(key)]
}

// Insert stores value under key unless key is already present, in which
// case the existing value is returned and value is discarded.
func (m *Map[K, V]) Insert(key K, value V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.m[key]; ok {
		return existing
	}
	s.m[key] = value
	return value
}

// Get returns the value stored under key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Remove deletes key, returning its value if it was present.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if ok {
		delete(s.m, key)
	}
	return v, ok
}

// Len returns the total number of entries across every shard.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].mu.RLock()
		n += len(m.shards[i].m)
		m.shards[i].mu.RUnlock()
	}
	return n
}

// ForEach calls fn once per entry, shard by shard. fn must not call back
// into the Map: each shard is visited under its own read lock.
func (m *Map[K, V]) ForEach(fn func(K, V)) {
	for i := range m.shards {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].m {
			fn(k, v)
		}
		m.shards[i].mu.RUnlock()
	}
}

func (m *Map[K, V]) snapshot() []mapEntry[K, V] {
	out := make([]mapEntry[K, V], 0, m.Len())
	m.ForEach(func(k K, v V) { out = append(out, mapEntry[K, V]{Key: k, Val: v}) })
	return out
}

func (m *Map[K, V]) restore(entries []mapEntry[K, V]) {
	for _, e := range entries {
		m.Insert(e.Key, e.Val)
	}
}

// FieldName implements Field.
func (m *Map[K, V]) FieldName() string { return m.name }

// FieldDepth implements Field.
func (m *Map[K, V]) FieldDepth() Depth { return Snapshot }

// Strategy implements Field.
func (m *Map[K, V]) Strategy() Strategy {
	return LocalField[[]mapEntry[K, V]]{
		Snapshot: m.snapshot,
		Restore:  m.restore,
	}
}
