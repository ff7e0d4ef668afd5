package fields

import (
	"fmt"

	"github.com/symmetree-labs/infinitree/codec"
	"github.com/symmetree-labs/infinitree/object"
)

// LocalField is a Strategy whose entire serialized form lives directly
// in the index stream, used by Serialized, Map and List: their full
// state is small enough to store as one self-contained record per
// commit rather than splitting values out into the object pool.
type LocalField[T any] struct {
	// Snapshot returns the value to serialize on Store.
	Snapshot func() T
	// Restore is called once per stream passed to Load, in the order
	// given. Depth-specific merge semantics (snapshot overwrite vs.
	// incremental newest-first-wins) are the caller's responsibility,
	// since LocalField itself is agnostic to how many streams it's
	// handed.
	Restore func(T)
}

// Store implements Strategy.
func (f LocalField[T]) Store(sink *object.BufferedSink) error {
	enc := codec.NewEncoder()
	if err := enc.Encode(f.Snapshot()); err != nil {
		return fmt.Errorf("fields: failed to encode field: %w", err)
	}
	_, err := sink.Write(enc.Bytes())
	return err
}

// Load implements Strategy.
func (f LocalField[T]) Load(streams []object.Stream, reader *object.AEADReader) error {
	for _, s := range streams {
		buf, err := reader.ReadAll(nil, s)
		if err != nil {
			return fmt.Errorf("fields: failed to read field stream: %w", err)
		}
		if len(buf) == 0 {
			continue
		}
		var v T
		if err := codec.NewDecoder(buf).Decode(&v); err != nil {
			return fmt.Errorf("fields: failed to decode field: %w", err)
		}
		f.Restore(v)
	}
	return nil
}
