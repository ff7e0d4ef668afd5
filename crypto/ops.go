package crypto

import (
	"fmt"

	"github.com/lukechampine/blake3"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/symmetree-labs/infinitree/object"
)

// zeroNonce is used for every chunk AEAD operation. This is safe only
// because each chunk is sealed under a key derived from its own content
// digest (see Hash/EncryptChunk below): no two chunks ever reuse the same
// key with a nonzero amount of plaintext, which is the property a nonce
// actually protects. This is a fixed, load-bearing part of the on-disk
// contract -- changing it would silently break every existing chunk.
var zeroNonce [chacha20poly1305.NonceSize]byte

// SymmetricOps implements CryptoOps: content hashed with a Blake3 keyed
// hash under the owning sub-key, then each chunk sealed with
// ChaCha20-Poly1305 keyed by its own content digest (the convergent
// encryption step -- identical plaintext under the same sub-key always
// produces the same ciphertext, which is what makes deduplication work)
// and bound to its object id as associated data.
type SymmetricOps struct {
	key RawKey
}

// NewSymmetricOps wraps key (normally a chunk/index/storage sub-key) as
// a CryptoOps.
func NewSymmetricOps(key RawKey) SymmetricOps {
	return SymmetricOps{key: key}
}

func (o SymmetricOps) Hash(content []byte) object.Digest {
	return object.Digest(keyedHash(o.key, content))
}

func (o SymmetricOps) Hasher() *blake3.Hasher {
	return blake3.New(32, o.key[:])
}

func (o SymmetricOps) EncryptChunk(objID object.ID, hash object.Digest, data []byte) object.Tag {
	aead, err := chacha20poly1305.New(hash[:])
	if err != nil {
		// hash is always exactly 32 bytes; chacha20poly1305.New only
		// fails on the wrong key length.
		panic(fmt.Sprintf("crypto: failed to construct chunk AEAD: %v", err))
	}

	sealed := aead.Seal(nil, zeroNonce[:], data, objID[:])
	copy(data, sealed[:len(data)])

	var tag object.Tag
	copy(tag[:], sealed[len(data):])
	return tag
}

func (o SymmetricOps) DecryptChunk(target, source []byte, ptr object.ChunkPointer) error {
	raw := ptr.Raw()
	size := int(raw.Size)
	if len(target) < size || len(source) < size {
		return fmt.Errorf("%w: buffer shorter than chunk size %d", object.ErrBufferTooSmall, size)
	}

	aead, err := chacha20poly1305.New(raw.Key[:])
	if err != nil {
		return fatalf("failed to construct chunk AEAD: %v", err)
	}

	ciphertext := make([]byte, size+chacha20poly1305.Overhead)
	copy(ciphertext, source[:size])
	copy(ciphertext[size:], raw.Tag[:])

	if _, err := aead.Open(target[:0], zeroNonce[:], ciphertext, raw.Object[:]); err != nil {
		return fatalf("chunk authentication failed for object %s: %v", raw.Object, err)
	}
	return nil
}
