package object

import "fmt"

// Capacity is the fixed size, in bytes, of every object stored in a
// Backend: 4 MiB. Every object file/key is exactly this many bytes; there
// is no header external to the payload, except for the root object which
// additionally carries the sealed header at offset 0 (see the crypto
// package).
const Capacity = 4 * 1024 * 1024

// HeaderSize is the number of bytes reserved at the front of a root
// object for the sealed header. Non-root objects do not reserve this
// space.
const HeaderSize = 512

// MaxChunkSize is the largest plaintext payload Write/WriteChunk will
// accept: the teacher's compression ratio headroom (set conservatively so
// that an incompressible chunk plus its AEAD tag still fits the object's
// tail).
const MaxChunkSize = int((Capacity - TagSize - 4) * 10 / 11)

// WriteObject is a fixed-capacity, append-only buffer for one object
// being assembled. Every byte written to it must already be ciphertext,
// an AEAD tag, or cryptographically random padding by the time it
// reaches a Backend -- WriteObject itself never sees plaintext.
type WriteObject struct {
	id       ID
	buf      [Capacity]byte
	position int
	isRoot   bool
}

// NewWriteObject allocates a WriteObject addressed by id.
func NewWriteObject(id ID) *WriteObject {
	o := &WriteObject{id: id}
	return o
}

// NewRootWriteObject allocates a WriteObject that reserves HeaderSize
// bytes at the front for the sealed header.
func NewRootWriteObject(id ID) *WriteObject {
	o := &WriteObject{id: id, isRoot: true, position: HeaderSize}
	return o
}

// ID returns the object's id.
func (o *WriteObject) ID() ID { return o.id }

// SetID reassigns the object's id, used when a root writer is told to
// rewrite a specific previously-allocated object in place.
func (o *WriteObject) SetID(id ID) { o.id = id }

// IsRoot reports whether this object reserves the header prefix.
func (o *WriteObject) IsRoot() bool { return o.isRoot }

// Position returns the write cursor: the number of bytes already
// committed to the buffer (including any reserved header prefix).
func (o *WriteObject) Position() int { return o.position }

// Capacity returns the object's total byte capacity, exposed for
// ChunkTooLarge bound calculations.
func (o *WriteObject) Capacity() int { return Capacity }

// Remaining returns how many bytes are left in the tail.
func (o *WriteObject) Remaining() int { return Capacity - o.position }

// Tail returns the unwritten suffix of the buffer, for a writer to
// compress/encrypt into directly.
func (o *WriteObject) Tail() []byte { return o.buf[o.position:] }

// Advance moves the write cursor forward by n bytes after the caller has
// filled Tail()[:n].
func (o *WriteObject) Advance(n int) {
	if n < 0 || o.position+n > Capacity {
		panic(fmt.Sprintf("object: Advance(%d) overflows object (position=%d, capacity=%d)", n, o.position, Capacity))
	}
	o.position += n
}

// Header returns the reserved header prefix of a root object, for the
// crypto package to seal into. Panics if this is not a root object.
func (o *WriteObject) Header() []byte {
	if !o.isRoot {
		panic("object: Header() called on a non-root WriteObject")
	}
	return o.buf[:HeaderSize]
}

// Bytes returns the full, fixed-size buffer as it currently stands
// (including any not-yet-padded tail). Callers must call PadTail before
// handing this to a Backend.
func (o *WriteObject) Bytes() []byte { return o.buf[:] }

// PadTail fills every byte from the current write cursor to the end of
// the object with data from src (expected to be cryptographically random),
// and advances the cursor to Capacity.
func (o *WriteObject) PadTail(src func([]byte) error) error {
	if o.position >= Capacity {
		return nil
	}
	if err := src(o.buf[o.position:]); err != nil {
		return fmt.Errorf("object: failed to pad tail: %w", err)
	}
	o.position = Capacity
	return nil
}

// Reset reassigns a fresh id and rewinds the write cursor (past the
// header prefix, if this is a root writer), for reuse after a flush.
func (o *WriteObject) Reset(id ID) {
	o.id = id
	if o.isRoot {
		o.position = HeaderSize
	} else {
		o.position = 0
	}
}

// ReadObject is an immutable, fully materialized object fetched from a
// Backend. Unlike WriteObject it never mutates once constructed.
type ReadObject struct {
	id  ID
	buf []byte
}

// NewReadObject wraps buf (expected to be exactly Capacity bytes, though
// callers in tests may use shorter buffers) as an immutable ReadObject.
func NewReadObject(id ID, buf []byte) *ReadObject {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return &ReadObject{id: id, buf: cp}
}

// ID returns the object's id.
func (o *ReadObject) ID() ID { return o.id }

// Bytes returns the object's full backing buffer. Callers must not
// mutate the returned slice.
func (o *ReadObject) Bytes() []byte { return o.buf }

// Slice returns the byte range [offset, offset+size) of the object.
func (o *ReadObject) Slice(offset, size uint32) ([]byte, error) {
	end := uint64(offset) + uint64(size)
	if end > uint64(len(o.buf)) {
		return nil, fmt.Errorf("object: slice [%d:%d) out of range for object of length %d", offset, end, len(o.buf))
	}
	return o.buf[offset:end], nil
}
