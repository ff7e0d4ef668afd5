package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/lukechampine/blake3"
	"golang.org/x/crypto/argon2"
)

// RawKeySize is the width of every key this package derives or stores:
// a 256-bit Blake3 output or subkey.
const RawKeySize = 32

// RawKey is an opaque 256-bit key. It is never serialized directly --
// only ever as the payload of a sealed header, or derived deterministically
// from one.
type RawKey [RawKeySize]byte

// generateKey produces a cryptographically random RawKey, used to mint a
// tree's convergence key.
func generateKey() (RawKey, error) {
	var k RawKey
	if _, err := rand.Read(k[:]); err != nil {
		return RawKey{}, fmt.Errorf("crypto: failed to generate key: %w", err)
	}
	return k, nil
}

// deriveSubkey derives a 256-bit subkey from master under context, using
// Blake3's key-derivation mode. Distinct context strings over the same
// master key produce cryptographically independent subkeys.
func deriveSubkey(master RawKey, context string) RawKey {
	var out RawKey
	blake3.DeriveKey(out[:], context, master[:])
	return out
}

// deriveArgon2 derives a master key from a username/password pair. salt
// is empty in the reference scheme: the username itself acts as a
// per-identity input alongside the password, rather than a random salt,
// so that the same credentials always resolve to the same tree.
func deriveArgon2(salt, username, password []byte) RawKey {
	// Bind the username into the password material so two users with the
	// same password on the same tree still derive distinct master keys.
	material := append(append([]byte{}, username...), password...)
	derived := argon2.IDKey(material, salt, 3, 64*1024, 4, RawKeySize)
	var out RawKey
	copy(out[:], derived)
	return out
}

// keyedHash computes the Blake3 keyed hash of content under key.
func keyedHash(key RawKey, content []byte) [32]byte {
	h := blake3.New(32, key[:])
	h.Write(content)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
