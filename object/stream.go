package object

import "io"

// OpenReader returns an io.Reader that resolves s's chunks, in order,
// against r, presenting them as one contiguous byte stream. The returned
// reader cannot be seeked; callers needing random access should index
// into s directly instead.
func (s Stream) OpenReader(r Reader) io.Reader {
	return &bufferedStream{
		reader:  r,
		pending: append([]ChunkPointer(nil), s...),
	}
}

type bufferedStream struct {
	reader  Reader
	pending []ChunkPointer
	current []byte
	pos     int
	err     error
}

func (b *bufferedStream) Read(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if b.pos == len(b.current) {
			if !b.openNextChunk() {
				break
			}
		}
		n := copy(p[written:], b.current[b.pos:])
		b.pos += n
		written += n
	}
	if b.err != nil {
		return written, b.err
	}
	if written == 0 && b.pos == len(b.current) && len(b.pending) == 0 {
		return 0, io.EOF
	}
	return written, nil
}

func (b *bufferedStream) openNextChunk() bool {
	if len(b.pending) == 0 {
		return false
	}
	ptr := b.pending[0]
	b.pending = b.pending[1:]

	chunk, err := b.reader.Read(nil, ptr)
	if err != nil {
		b.current = nil
		b.pos = 0
		b.err = err
		return false
	}
	b.current = chunk
	b.pos = 0
	return true
}
