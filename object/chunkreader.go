package object

import (
	"io"

	"github.com/restic/chunker"
)

// chunkBufferSize bounds the largest content-defined chunk restic/chunker
// will hand back before MaxChunkSize rejects it outright.
const chunkBufferSize = 8 * 1024 * 1024

// DefaultPolynomial is the chunker polynomial used when a caller does not
// supply their own deduplication scope. Two trees using different
// polynomials will never produce convergent chunk boundaries for the same
// content, so this is effectively part of a tree's on-disk identity for
// content-defined streams.
const DefaultPolynomial = chunker.Pol(0x3DA3358B4DC173)

// ChunkStream reads r to EOF, splitting it into content-defined chunks
// with pol, and writes each chunk through w, returning the resulting
// Stream. Unlike BufferedSink's fixed-size blocking, content-defined
// chunking keeps chunk boundaries stable under small inserts/deletes in
// r, at the cost of variable chunk sizes.
func ChunkStream(w Writer, hash func([]byte) Digest, r io.Reader, pol chunker.Pol) (Stream, error) {
	c := chunker.New(r, pol)
	buf := make([]byte, chunkBufferSize)

	var chunks []ChunkPointer
	for {
		chunk, err := c.Next(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		ptr, err := w.WriteChunk(hash(chunk.Data), chunk.Data)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ptr)
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}

	return Stream(chunks), nil
}
