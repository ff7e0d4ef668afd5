package object

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// Writer is the capability to append one more chunk to an in-progress
// object, or to force it out to the backend.
type Writer interface {
	// Write compresses, hashes and encrypts data, returning a
	// ChunkPointer. It may flush the current object first if data would
	// not otherwise fit.
	Write(data []byte) (ChunkPointer, error)

	// WriteChunk is like Write, but the caller supplies the content hash
	// (used when deduplicating against an already-known digest).
	WriteChunk(hash Digest, data []byte) (ChunkPointer, error)

	// Flush finalizes the current object (padding its tail with random
	// bytes) and hands it to the backend, starting a fresh object.
	Flush() error
}

// AEADWriter owns one in-progress WriteObject and packs Write/WriteChunk
// payloads into it, handing finished objects to a Backend. A dedicated
// "root" mode reserves the header prefix and optionally rewrites a
// caller-supplied list of ObjectIDs in place instead of minting fresh
// ones -- this is how the root index tier compacts on every commit
// instead of leaking a new object per commit.
type AEADWriter struct {
	mu      sync.Mutex
	backend Backend
	crypto  ChunkCrypto
	object  *WriteObject
	root    bool

	rewrite []ID

	scratch []byte
}

// NewWriter constructs an AEADWriter that mints fresh random object ids.
func NewWriter(backend Backend, crypto ChunkCrypto) (*AEADWriter, error) {
	id, err := NewRandom()
	if err != nil {
		return nil, err
	}
	return &AEADWriter{
		backend: backend,
		crypto:  crypto,
		object:  NewWriteObject(id),
	}, nil
}

// NewRootWriter constructs an AEADWriter in root mode: the first object
// reserves the 512-byte header prefix and is pinned to rootID (the
// tree's deterministic root object id), so it encrypts under -- and is
// later found at -- that same id with no further indirection. If the
// root tier's data overflows a single object, continuation objects
// prefer to reuse the ids in rewrite (in order) over minting new ones,
// so the tier's object count stays roughly constant across commits
// instead of growing forever.
func NewRootWriter(backend Backend, crypto ChunkCrypto, rootID ID, rewrite []ID) (*AEADWriter, error) {
	return &AEADWriter{
		backend: backend,
		crypto:  crypto,
		object:  NewRootWriteObject(rootID),
		root:    true,
		rewrite: rewrite,
	}, nil
}

func nextRootID(rewrite []ID) (ID, []ID, error) {
	if len(rewrite) > 0 {
		return rewrite[0], rewrite[1:], nil
	}
	id, err := NewRandom()
	return id, nil, err
}

// Write compresses, hashes with the writer's keying scheme, and encrypts
// data, returning the resulting ChunkPointer.
func (w *AEADWriter) Write(data []byte) (ChunkPointer, error) {
	hash := w.crypto.Hash(data)
	return w.WriteChunk(hash, data)
}

// WriteChunk is Write with a caller-supplied content hash.
func (w *AEADWriter) WriteChunk(hash Digest, data []byte) (ChunkPointer, error) {
	if len(data) > MaxChunkSize {
		return ChunkPointer{}, &ChunkTooLargeError{Size: len(data), MaxSize: MaxChunkSize}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	compressed := compressInto(data, w.scratch)
	w.scratch = compressed[:0]

	if len(compressed) > w.object.Remaining() {
		if err := w.flushLocked(); err != nil {
			return ChunkPointer{}, err
		}
		if len(compressed) > w.object.Remaining() {
			return ChunkPointer{}, &ChunkTooLargeError{Size: len(data), MaxSize: MaxChunkSize}
		}
	}

	offset := w.object.Position()
	tail := w.object.Tail()
	n := copy(tail, compressed)
	tag := w.crypto.EncryptChunk(w.object.ID(), hash, tail[:n])
	w.object.Advance(n)

	return NewChunkPointer(uint32(offset), uint32(n), w.object.ID(), hash, tag), nil
}

// Flush finalizes the current object and hands it to the backend.
func (w *AEADWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *AEADWriter) flushLocked() error {
	if err := w.object.PadTail(func(b []byte) error {
		_, err := rand.Read(b)
		return err
	}); err != nil {
		return err
	}

	if err := w.backend.WriteObject(w.object); err != nil {
		return fmt.Errorf("object: failed to write object %s: %w", w.object.ID(), err)
	}

	var next ID
	var err error
	if w.root {
		next, w.rewrite, err = nextRootID(w.rewrite)
	} else {
		next, err = NewRandom()
	}
	if err != nil {
		return err
	}
	w.object.Reset(next)

	return nil
}

// HasPending reports whether any bytes have been written to the current
// object since the last flush (beyond a reserved root header prefix).
func (w *AEADWriter) HasPending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.object.IsRoot() {
		return w.object.Position() > HeaderSize
	}
	return w.object.Position() > 0
}

// CurrentHeader returns the reserved header prefix of the in-progress
// root object, for the crypto package to seal into before the final
// Flush. Panics if this writer is not in root mode.
func (w *AEADWriter) CurrentHeader() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.object.Header()
}

// CurrentObjectID returns the id of the object currently being written.
func (w *AEADWriter) CurrentObjectID() ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.object.ID()
}

// SetCurrentObjectID relabels the in-progress object to id, overriding
// whatever rewrite rotation or random id it currently carries. The root
// tier does not call it: NewRootWriter already pins the first object to
// the root id, and RootIndex.Persist checks CurrentObjectID instead.
func (w *AEADWriter) SetCurrentObjectID(id ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.object.SetID(id)
}
