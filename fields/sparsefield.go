package fields

import (
	"fmt"

	"github.com/symmetree-labs/infinitree/codec"
	"github.com/symmetree-labs/infinitree/object"
)

// sparseEntry is the codec-friendly (key, pointer) pair SparseField
// writes to the index stream. It carries object.RawChunkPointer rather
// than object.ChunkPointer since the latter's field is unexported --
// RawChunkPointer is the public, codec-safe wire form of the same data.
type sparseEntry[K comparable] struct {
	Key K
	Ptr object.RawChunkPointer
}

// SparseField is a Strategy that stores only (key, pointer) pairs in the
// index stream; values themselves are written to the object pool as
// independent chunks and materialized lazily through an AEADReader,
// rather than loaded eagerly with the rest of the field.
type SparseField[K comparable, V any] struct {
	// Pending returns the keys/values to persist as new chunks this
	// commit.
	Pending func() map[K]V
	// Encode/Decode convert a V to/from bytes for the chunk payload.
	Encode func(V) ([]byte, error)
	Decode func([]byte) (V, error)
	// Writer is used to write pending values as chunks.
	Writer object.Writer
	// Restore is invoked once per decoded (key, pointer) pair. value
	// lazily resolves the chunk through the Load call's AEADReader --
	// callers that don't need the value yet can discard the closure
	// without ever materializing it.
	Restore func(key K, value func() (V, error))
}

// Store implements Strategy.
func (f SparseField[K, V]) Store(sink *object.BufferedSink) error {
	pending := f.Pending()
	entries := make([]sparseEntry[K], 0, len(pending))
	for k, v := range pending {
		payload, err := f.Encode(v)
		if err != nil {
			return fmt.Errorf("fields: failed to encode sparse value: %w", err)
		}
		ptr, err := f.Writer.Write(payload)
		if err != nil {
			return fmt.Errorf("fields: failed to write sparse value: %w", err)
		}
		entries = append(entries, sparseEntry[K]{Key: k, Ptr: ptr.Raw()})
	}

	enc := codec.NewEncoder()
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("fields: failed to encode sparse index: %w", err)
	}
	_, err := sink.Write(enc.Bytes())
	return err
}

// Load implements Strategy.
func (f SparseField[K, V]) Load(streams []object.Stream, reader *object.AEADReader) error {
	for _, s := range streams {
		buf, err := reader.ReadAll(nil, s)
		if err != nil {
			return fmt.Errorf("fields: failed to read sparse index stream: %w", err)
		}
		if len(buf) == 0 {
			continue
		}
		var entries []sparseEntry[K]
		if err := codec.NewDecoder(buf).Decode(&entries); err != nil {
			return fmt.Errorf("fields: failed to decode sparse index: %w", err)
		}
		for _, e := range entries {
			ptr := object.FromRaw(e.Ptr)
			f.Restore(e.Key, func() (V, error) {
				plain, err := reader.Read(nil, ptr)
				if err != nil {
					var zero V
					return zero, err
				}
				return f.Decode(plain)
			})
		}
	}
	return nil
}
