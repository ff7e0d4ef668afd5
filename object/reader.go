package object

import "fmt"

// Reader is the capability to resolve a Stream (or a single ChunkPointer)
// back into plaintext.
type Reader interface {
	// Read decrypts and decompresses the chunk addressed by ptr, appending
	// the plaintext to dst[:0] and returning the resulting slice.
	Read(dst []byte, ptr ChunkPointer) ([]byte, error)
}

// AEADReader resolves ChunkPointers against a Backend, verifying and
// decrypting each chunk with the injected ChunkCrypto before inflating it.
type AEADReader struct {
	backend Backend
	crypto  ChunkCrypto

	scratch []byte
}

// NewReader constructs an AEADReader.
func NewReader(backend Backend, crypto ChunkCrypto) *AEADReader {
	return &AEADReader{backend: backend, crypto: crypto}
}

// Read fetches the object containing ptr, decrypts and decompresses the
// chunk, and appends the plaintext to dst[:0].
func (r *AEADReader) Read(dst []byte, ptr ChunkPointer) ([]byte, error) {
	obj, err := r.backend.ReadObject(ptr.ObjectID())
	if err != nil {
		return nil, fmt.Errorf("object: failed to read object %s: %w", ptr.ObjectID(), err)
	}

	ciphertext, err := obj.Slice(ptr.Raw().Offset, ptr.Size())
	if err != nil {
		return nil, err
	}

	if cap(r.scratch) < len(ciphertext) {
		r.scratch = make([]byte, len(ciphertext))
	}
	plain := r.scratch[:len(ciphertext)]
	copy(plain, ciphertext)

	if err := r.crypto.DecryptChunk(plain, plain, ptr); err != nil {
		return nil, fmt.Errorf("object: failed to decrypt chunk in object %s: %w", ptr.ObjectID(), err)
	}

	out, err := decompressInto(plain, dst)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadAll resolves every chunk of a Stream in order, appending their
// plaintext to dst[:0].
func (r *AEADReader) ReadAll(dst []byte, s Stream) ([]byte, error) {
	out := dst[:0]
	for _, ptr := range s {
		plain, err := r.Read(nil, ptr)
		if err != nil {
			return nil, err
		}
		out = append(out, plain...)
	}
	return out, nil
}
