package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/lukechampine/blake3"
	"golang.org/x/crypto/nacl/box"

	"github.com/symmetree-labs/infinitree/object"
)

// CryptoBoxStorage is an InternalScheme that keeps the usual symmetric
// chunk/index keys, but protects the storage sub-key's blobs with NaCl
// box instead: a write-only replica can hold the sender's private key
// and the recipient's public key (enough to seal new storage objects)
// without ever holding the recipient's private key, so it can push
// backups it cannot itself read back.
type CryptoBoxStorage struct {
	inner Symmetric

	senderPriv    *[32]byte
	senderPub     [32]byte
	recipientPub  [32]byte
	recipientPriv *[32]byte // nil for a write-only (seal-only) instance
}

// GenerateBoxKeypair is a thin wrapper over nacl/box's key generation,
// for callers provisioning a new write-only replica or recipient.
func GenerateBoxKeypair() (pub, priv *[32]byte, err error) {
	pub, priv, err = box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: failed to generate box keypair: %w", err)
	}
	return pub, priv, nil
}

// NewCryptoBoxStorage builds a CryptoBoxStorage on top of an existing
// Symmetric scheme (for the chunk/index keys and convergence key
// exposure), sealing storage blobs from senderPriv to recipientPub.
// recipientPriv may be nil, producing a write-only instance whose
// StorageKey can seal but never open.
func NewCryptoBoxStorage(inner Symmetric, senderPriv *[32]byte, senderPub, recipientPub [32]byte, recipientPriv *[32]byte) CryptoBoxStorage {
	return CryptoBoxStorage{
		inner:         inner,
		senderPriv:    senderPriv,
		senderPub:     senderPub,
		recipientPub:  recipientPub,
		recipientPriv: recipientPriv,
	}
}

func (s CryptoBoxStorage) ChunkKey() (ChunkKey, error)   { return s.inner.ChunkKey() }
func (s CryptoBoxStorage) IndexKey() (IndexKey, error)   { return s.inner.IndexKey() }
func (s CryptoBoxStorage) ConvergenceKey() (RawKey, bool) { return s.inner.ConvergenceKey() }

func (s CryptoBoxStorage) StorageKey() (StorageKey, error) {
	return StorageKey{BoxOps{
		senderPriv:    s.senderPriv,
		senderPub:     s.senderPub,
		recipientPub:  s.recipientPub,
		recipientPriv: s.recipientPriv,
	}}, nil
}

// BoxOps implements CryptoOps using NaCl box (Curve25519-XSalsa20-
// Poly1305). The per-chunk nonce is the leading 24 bytes of the chunk's
// content digest, which plays the same role the zero nonce plays for
// SymmetricOps: it is safe because it never repeats under the same
// sender/recipient key pair for different content.
type BoxOps struct {
	senderPriv    *[32]byte
	senderPub     [32]byte
	recipientPub  [32]byte
	recipientPriv *[32]byte
}

func (o BoxOps) Hash(content []byte) object.Digest {
	return object.Digest(blake3.Sum256(content))
}

func (o BoxOps) Hasher() *blake3.Hasher {
	return blake3.New(32, nil)
}

func (o BoxOps) EncryptChunk(objID object.ID, hash object.Digest, data []byte) object.Tag {
	var nonce [24]byte
	copy(nonce[:], hash[:24])

	sealed := box.Seal(nil, data, &nonce, &o.recipientPub, o.senderPriv)
	copy(data, sealed[:len(data)])

	var tag object.Tag
	copy(tag[:], sealed[len(data):])
	return tag
}

func (o BoxOps) DecryptChunk(target, source []byte, ptr object.ChunkPointer) error {
	if o.recipientPriv == nil {
		return fatalf("this storage key is write-only and cannot decrypt")
	}

	raw := ptr.Raw()
	size := int(raw.Size)
	if len(target) < size || len(source) < size {
		return fmt.Errorf("%w: buffer shorter than chunk size %d", object.ErrBufferTooSmall, size)
	}

	var nonce [24]byte
	copy(nonce[:], raw.Key[:24])

	sealed := make([]byte, 0, size+box.Overhead)
	sealed = append(sealed, source[:size]...)
	sealed = append(sealed, raw.Tag[:]...)

	if _, ok := box.Open(target[:0], sealed, &nonce, &o.senderPub, o.recipientPriv); !ok {
		return fatalf("storage chunk authentication failed for object %s", raw.Object)
	}
	return nil
}
