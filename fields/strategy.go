package fields

import "github.com/symmetree-labs/infinitree/object"

// Depth determines how many commits a field's Load/Query traverses.
type Depth int

const (
	// Snapshot reads only the most recent stream for a field; the
	// resulting in-memory state is a point-in-time snapshot.
	Snapshot Depth = iota
	// Incremental reads every stream for a field across the filtered
	// commit range, newest-first, inserting a record only if no later
	// record with the same key has already been seen.
	Incremental
)

// Field is what an Index holds: a stable name, the depth its Load/Query
// should traverse at, and a Strategy bridging its in-memory value to the
// object layer.
type Field interface {
	FieldName() string
	FieldDepth() Depth
	Strategy() Strategy
}

// Strategy adapts a field's in-memory representation to the object
// layer. Store serializes whatever the field considers "pending" for
// this commit into sink; the caller finalizes sink (via Finish) to
// obtain the resulting Stream. Load deserializes a field's history back
// into the field: streams is ordered according to the field's Depth
// (a single most-recent entry for Snapshot, newest-first across the
// filtered commit range for Incremental).
type Strategy interface {
	Store(sink *object.BufferedSink) error
	Load(streams []object.Stream, reader *object.AEADReader) error
}

// Committable is implemented by fields whose Store phase serializes an
// uncommitted delta rather than the field's full state (VersionedMap,
// LinkedList). After a commit successfully persists, the caller type-
// asserts every Field against Committable and calls Commit to fold the
// delta into committed state; if persisting fails, it calls Rollback to
// discard the delta instead.
type Committable interface {
	Commit()
	Rollback()
}
