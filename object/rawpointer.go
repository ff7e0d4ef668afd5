package object

import "encoding/binary"

// RawPointerSize is the fixed, contractual wire size of a RawChunkPointer:
// offset(4) + size(4) + object(32) + key(32) + tag(16).
const RawPointerSize = 4 + 4 + Size + DigestSize + TagSize

// RawChunkPointer is the fixed-layout, 88-byte little-endian encoding of a
// pointer to one encrypted chunk. Its size and field order are part of the
// on-disk contract: a RawChunkPointer is embedded at a fixed offset inside
// the 512-byte sealed header (see crypto.HeaderSize), so this type is
// never routed through the general-purpose codec package.
type RawChunkPointer struct {
	Offset uint32
	Size   uint32
	Object ID
	Key    Digest
	Tag    Tag
}

// WriteTo encodes p into buf starting at offset 0 and returns the number
// of bytes written (always RawPointerSize). buf must have length >=
// RawPointerSize.
func (p RawChunkPointer) WriteTo(buf []byte) int {
	_ = buf[RawPointerSize-1] // bounds check hint

	binary.LittleEndian.PutUint32(buf[0:4], p.Offset)
	binary.LittleEndian.PutUint32(buf[4:8], p.Size)
	copy(buf[8:8+Size], p.Object[:])
	copy(buf[8+Size:8+Size+DigestSize], p.Key[:])
	copy(buf[8+Size+DigestSize:RawPointerSize], p.Tag[:])

	return RawPointerSize
}

// ParseRawChunkPointer decodes a RawChunkPointer from the front of buf.
// buf must have length >= RawPointerSize.
func ParseRawChunkPointer(buf []byte) RawChunkPointer {
	_ = buf[RawPointerSize-1]

	var p RawChunkPointer
	p.Offset = binary.LittleEndian.Uint32(buf[0:4])
	p.Size = binary.LittleEndian.Uint32(buf[4:8])
	copy(p.Object[:], buf[8:8+Size])
	copy(p.Key[:], buf[8+Size:8+Size+DigestSize])
	copy(p.Tag[:], buf[8+Size+DigestSize:RawPointerSize])

	return p
}

// ChunkPointer is the public handle to one encrypted, compressed chunk
// within an object. Writers return it; readers consume it. It is a plain
// value, freely copied.
type ChunkPointer struct {
	raw RawChunkPointer
}

// NewChunkPointer builds a ChunkPointer from its constituent fields, as
// produced by an AEADWriter.
func NewChunkPointer(offset, size uint32, object ID, key Digest, tag Tag) ChunkPointer {
	return ChunkPointer{raw: RawChunkPointer{
		Offset: offset,
		Size:   size,
		Object: object,
		Key:    key,
		Tag:    tag,
	}}
}

// Raw exposes the underlying fixed-layout pointer, e.g. for embedding in
// the sealed header.
func (c ChunkPointer) Raw() RawChunkPointer { return c.raw }

// FromRaw wraps an already-decoded RawChunkPointer.
func FromRaw(raw RawChunkPointer) ChunkPointer { return ChunkPointer{raw: raw} }

// ObjectID returns the id of the object holding this chunk.
func (c ChunkPointer) ObjectID() ID { return c.raw.Object }

// Digest returns the content hash used as this chunk's encryption sub-key
// seed.
func (c ChunkPointer) Digest() Digest { return c.raw.Key }

// Size returns the plaintext size of the chunk in bytes.
func (c ChunkPointer) Size() uint32 { return c.raw.Size }

// Stream is an ordered list of ChunkPointers forming one logical byte
// stream: a field's serialized transaction, or a large externally-stored
// blob. It carries enough information to enumerate every ObjectID it
// touches, for liveness tracking.
type Stream []ChunkPointer

// Raw returns the fixed-layout encoding of every pointer in the stream.
// Unlike Stream itself, a []RawChunkPointer is safe to pass through the
// codec package -- this is how a Stream crosses into anything persisted
// as index content, e.g. the transaction log.
func (s Stream) Raw() []RawChunkPointer {
	out := make([]RawChunkPointer, len(s))
	for i, p := range s {
		out[i] = p.raw
	}
	return out
}

// StreamFromRaw reconstructs a Stream from its codec-safe representation.
func StreamFromRaw(raw []RawChunkPointer) Stream {
	out := make(Stream, len(raw))
	for i, r := range raw {
		out[i] = FromRaw(r)
	}
	return out
}

// Objects returns the de-duplicated set of ObjectIDs referenced by every
// pointer in the stream.
func (s Stream) Objects() []ID {
	seen := make(map[ID]struct{}, len(s))
	out := make([]ID, 0, len(s))
	for _, p := range s {
		if _, ok := seen[p.raw.Object]; ok {
			continue
		}
		seen[p.raw.Object] = struct{}{}
		out = append(out, p.raw.Object)
	}
	return out
}
