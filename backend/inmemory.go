package backend

import (
	"sync"

	"github.com/symmetree-labs/infinitree/object"
)

// InMemory is a Backend entirely held in process memory, used by tests
// and examples. It keeps no disk-backed test double, so its defensive
// copy-on-write behavior is new code written to match the rest of this
// package's semantics rather than ported from anywhere in particular.
type InMemory struct {
	mu      sync.RWMutex
	objects map[object.ID]*object.ReadObject
}

// NewInMemory returns an empty InMemory backend.
func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[object.ID]*object.ReadObject)}
}

func (m *InMemory) WriteObject(o *object.WriteObject) error {
	ro := object.NewReadObject(o.ID(), o.Bytes())
	m.mu.Lock()
	m.objects[o.ID()] = ro
	m.mu.Unlock()
	return nil
}

func (m *InMemory) ReadObject(id object.ID) (*object.ReadObject, error) {
	return m.ReadFresh(id)
}

func (m *InMemory) ReadFresh(id object.ID) (*object.ReadObject, error) {
	m.mu.RLock()
	ro, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound("ReadObject", id)
	}
	return ro, nil
}

func (m *InMemory) Preload(ids []object.ID) {}

func (m *InMemory) KeepWarm(ids []object.ID) error { return nil }

func (m *InMemory) Delete(id object.ID) error {
	m.mu.Lock()
	delete(m.objects, id)
	m.mu.Unlock()
	return nil
}

func (m *InMemory) Sync() error { return nil }

// Len returns the number of objects currently stored, for test
// assertions.
func (m *InMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
