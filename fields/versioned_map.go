package fields

import (
	"fmt"
	"sync"

	"github.com/symmetree-labs/infinitree/codec"
	"github.com/symmetree-labs/infinitree/object"
)

type versionedDelta[V any] struct {
	tombstone bool
	val       V
}

// VersionedMap maintains a committed base map and an uncommitted current
// delta map. Insert returns the existing value if the key is already
// present (in either view); otherwise it stores the new value in
// current. Remove stores a tombstone in current, but only if the key is
// present in either view. Commit folds current into base (tombstones
// delete, values overwrite) and clears current; Rollback just clears
// current. Get/Contains/Len merge the two views, current taking
// precedence. Incremental depth: Load replays every stream in the
// filtered range newest-first, inserting a key's value into base the
// first time that key is seen (a later, i.e. newer, tombstone or write
// always wins over an earlier one).
type VersionedMap[K comparable, V any] struct {
	name string
	mu   sync.RWMutex
	base map[K]V
	cur  map[K]versionedDelta[V]
}

// NewVersionedMap constructs an empty VersionedMap field named name.
func NewVersionedMap[K comparable, V any](name string) *VersionedMap[K, V] {
	return &VersionedMap[K, V]{
		name: name,
		base: make(map[K]V),
		cur:  make(map[K]versionedDelta[V]),
	}
}

func (m *VersionedMap[K, V]) lockedGet(key K) (V, bool) {
	if d, ok := m.cur[key]; ok {
		if d.tombstone {
			var zero V
			return zero, false
		}
		return d.val, true
	}
	if v, ok := m.base[key]; ok {
		return v, true
	}
	var zero V
	return zero, false
}

// Insert stores val under key unless key is already present in either
// view, in which case the existing value is returned and val discarded.
func (m *VersionedMap[K, V]) Insert(key K, val V) V {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.lockedGet(key); ok {
		return existing
	}
	m.cur[key] = versionedDelta[V]{val: val}
	return val
}

// Remove tombstones key in current, but only if it is present in either
// view. It returns the value that was removed, if any.
func (m *VersionedMap[K, V]) Remove(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.lockedGet(key)
	if !ok {
		var zero V
		return zero, false
	}
	m.cur[key] = versionedDelta[V]{tombstone: true}
	return existing, true
}

// Get merges current over base.
func (m *VersionedMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lockedGet(key)
}

// Contains reports whether key is present in the merged view.
func (m *VersionedMap[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the size of the merged view.
func (m *VersionedMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for k := range m.base {
		if d, ok := m.cur[k]; ok && d.tombstone {
			continue
		}
		n++
	}
	for k, d := range m.cur {
		if d.tombstone {
			continue
		}
		if _, inBase := m.base[k]; inBase {
			continue
		}
		n++
	}
	return n
}

// Commit folds current into base: tombstones delete, values overwrite.
func (m *VersionedMap[K, V]) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, d := range m.cur {
		if d.tombstone {
			delete(m.base, k)
		} else {
			m.base[k] = d.val
		}
	}
	m.cur = make(map[K]versionedDelta[V])
}

// Rollback discards every uncommitted change.
func (m *VersionedMap[K, V]) Rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = make(map[K]versionedDelta[V])
}

// FieldName implements Field.
func (m *VersionedMap[K, V]) FieldName() string { return m.name }

// FieldDepth implements Field.
func (m *VersionedMap[K, V]) FieldDepth() Depth { return Incremental }

// Strategy implements Field.
func (m *VersionedMap[K, V]) Strategy() Strategy {
	return versionedMapStrategy[K, V]{m: m}
}

type versionedRecord[K comparable, V any] struct {
	Key       K
	Tombstone bool
	Val       V
}

type versionedMapStrategy[K comparable, V any] struct {
	m *VersionedMap[K, V]
}

func (s versionedMapStrategy[K, V]) Store(sink *object.BufferedSink) error {
	s.m.mu.RLock()
	records := make([]versionedRecord[K, V], 0, len(s.m.cur))
	for k, d := range s.m.cur {
		records = append(records, versionedRecord[K, V]{Key: k, Tombstone: d.tombstone, Val: d.val})
	}
	s.m.mu.RUnlock()

	if len(records) == 0 {
		// Nothing changed this commit: write nothing, so the resulting
		// Stream has zero chunks and an OnlyOnChange commit can detect
		// this field contributed no change.
		return nil
	}

	enc := codec.NewEncoder()
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("fields: failed to encode versioned map delta: %w", err)
	}
	_, err := sink.Write(enc.Bytes())
	return err
}

func (s versionedMapStrategy[K, V]) Load(streams []object.Stream, reader *object.AEADReader) error {
	seen := make(map[K]struct{})

	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, stream := range streams { // newest-first, per Incremental depth
		buf, err := reader.ReadAll(nil, stream)
		if err != nil {
			return fmt.Errorf("fields: failed to read versioned map stream: %w", err)
		}
		if len(buf) == 0 {
			continue
		}
		var records []versionedRecord[K, V]
		if err := codec.NewDecoder(buf).Decode(&records); err != nil {
			return fmt.Errorf("fields: failed to decode versioned map delta: %w", err)
		}
		for _, r := range records {
			if _, ok := seen[r.Key]; ok {
				continue
			}
			seen[r.Key] = struct{}{}
			if r.Tombstone {
				continue
			}
			s.m.base[r.Key] = r.Val
		}
	}
	return nil
}
