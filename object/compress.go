package object

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// compressors pools zstd encoders/decoders: they are expensive to build
// and explicitly documented by klauspost/compress as safe to reuse
// concurrently once constructed, but cheaper still to pool per-goroutine
// to avoid the one-time setup cost on every chunk.
var (
	encoderPool = sync.Pool{
		New: func() interface{} {
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			if err != nil {
				panic(fmt.Sprintf("object: failed to construct zstd encoder: %v", err))
			}
			return enc
		},
	}
	decoderPool = sync.Pool{
		New: func() interface{} {
			dec, err := zstd.NewReader(nil)
			if err != nil {
				panic(fmt.Sprintf("object: failed to construct zstd decoder: %v", err))
			}
			return dec
		},
	}
)

// compressInto compresses data and appends the result to dst[:0],
// returning the compressed slice. The returned slice may alias dst's
// backing array, or a newly grown one if dst lacked capacity.
func compressInto(data, dst []byte) []byte {
	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)
	return enc.EncodeAll(data, dst[:0])
}

// decompressInto decompresses src into dst[:0], returning the decoded
// slice.
func decompressInto(src, dst []byte) ([]byte, error) {
	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)
	out, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return nil, fmt.Errorf("object: zstd decode failed: %w", err)
	}
	return out, nil
}
