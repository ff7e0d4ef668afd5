package object

// sinkChunkSize is the target plaintext size of each chunk a BufferedSink
// produces. Smaller chunks lower storage overhead per dedup hit but add
// per-chunk accounting (88 bytes per RawChunkPointer); this is the
// teacher's tradeoff, kept as-is.
const sinkChunkSize = 500 * 1024

// BufferedSink is an io.Writer that buffers input into sinkChunkSize
// blocks, hashing and handing each completed block to a Writer as it
// fills, and accumulates the resulting ChunkPointers into a Stream.
type BufferedSink struct {
	writer Writer
	hash   func([]byte) Digest
	buf    []byte
	chunks []ChunkPointer
}

// NewSink constructs a BufferedSink writing through w. hash is used to
// compute the content digest of each completed block before handing it to
// w -- normally the tree's crypto.ChunkCrypto.Hash.
func NewSink(w Writer, hash func([]byte) Digest) *BufferedSink {
	return &BufferedSink{
		writer: w,
		hash:   hash,
		buf:    make([]byte, 0, sinkChunkSize),
	}
}

// Write implements io.Writer, buffering p and flushing completed
// sinkChunkSize blocks to the underlying Writer.
func (s *BufferedSink) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		room := sinkChunkSize - len(s.buf)
		n := room
		if n > len(p) {
			n = len(p)
		}
		s.buf = append(s.buf, p[:n]...)
		p = p[n:]
		written += n

		if len(s.buf) == sinkChunkSize {
			if err := s.emptyBuffer(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (s *BufferedSink) emptyBuffer() error {
	if len(s.buf) == 0 {
		return nil
	}
	ptr, err := s.writer.WriteChunk(s.hash(s.buf), s.buf)
	if err != nil {
		return err
	}
	s.chunks = append(s.chunks, ptr)
	s.buf = s.buf[:0]
	return nil
}

// Clear flushes any buffered bytes into a final chunk without flushing
// the underlying Writer's current object, and returns the Stream
// describing everything written since the sink was created or last
// cleared. Reusing the sink after Clear avoids fragmenting data across
// objects compared to starting a fresh sink per call.
func (s *BufferedSink) Clear() (Stream, error) {
	if err := s.emptyBuffer(); err != nil {
		return nil, err
	}
	out := Stream(s.chunks)
	s.chunks = nil
	return out, nil
}

// Finish flushes any buffered bytes, flushes the underlying Writer, and
// returns the Stream describing everything written.
func (s *BufferedSink) Finish() (Stream, error) {
	if err := s.emptyBuffer(); err != nil {
		return nil, err
	}
	if err := s.writer.Flush(); err != nil {
		return nil, err
	}
	return Stream(s.chunks), nil
}
