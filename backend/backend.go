package backend

import "github.com/symmetree-labs/infinitree/object"

// Backend is the storage contract every implementation in this package
// satisfies. It is also an object.Backend (that interface's three
// methods are a subset of this one), so an *object.AEADWriter/AEADReader
// can be handed any Backend value directly.
type Backend interface {
	WriteObject(o *object.WriteObject) error
	ReadObject(id object.ID) (*object.ReadObject, error)
	ReadFresh(id object.ID) (*object.ReadObject, error)

	// Preload asynchronously warms the backend's caches (if any) for the
	// given ids. Implementations with no cache treat this as a no-op.
	Preload(ids []object.ID)

	// KeepWarm marks ids as exempt from any local eviction policy.
	// Implementations with no cache treat this as a no-op.
	KeepWarm(ids []object.ID) error

	// Delete removes an object. Safe to call concurrently with readers
	// that already hold a *object.ReadObject for id, since ReadObject
	// copies its buffer on construction.
	Delete(id object.ID) error

	// Sync blocks until every write accepted so far has been durably
	// committed, surfacing the first error encountered, if any.
	Sync() error
}
