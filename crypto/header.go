package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/symmetree-labs/infinitree/object"
)

// HeaderSize is the fixed size of a sealed root header, stored at byte
// offset 0 of the root object.
const HeaderSize = 512

const (
	headerNonceSize  = 12
	headerCiphertext = HeaderSize - headerNonceSize      // 500: AEAD ciphertext + tag
	headerPayload    = headerCiphertext - chacha20poly1305.Overhead // 484: cleartext payload
)

// mode tags which InternalScheme a sealed header's embedded convergence
// key belongs to, so OpenRoot can reconstruct the right one.
type mode byte

const (
	modeMixed08   mode = 0
	modeSymmetric mode = 1
)

// SealedHeader is the fixed-layout, encrypted root header:
//
//	encrypt(root_ptr[88] || mode[1] || convergence_key[32] || 0...) || tag[16] || nonce[12]
type SealedHeader [HeaderSize]byte

// CleartextHeader is a sealed header's decrypted contents.
type CleartextHeader struct {
	RootPtr object.RawChunkPointer
	Key     InternalScheme
}

func rootKey(master RawKey) RawKey {
	return deriveSubkey(master, "infinitree 2024 root key")
}

func rootObjectID(master RawKey) object.ID {
	return object.ID(deriveSubkey(master, "infinitree 2024 root object id"))
}

func encodeRoot(dst []byte, m mode, rootPtr object.RawChunkPointer, convergenceKey RawKey) int {
	pos := rootPtr.WriteTo(dst)
	dst[pos] = byte(m)
	pos++
	pos += copy(dst[pos:], convergenceKey[:])
	return pos
}

func sealHeader(masterKey RawKey, m mode, header CleartextHeader) (SealedHeader, error) {
	convergenceKey, ok := header.Key.ConvergenceKey()
	if !ok {
		return SealedHeader{}, fatalf("internal scheme does not expose a convergence key to seal")
	}

	var sealed SealedHeader
	var nonce [headerNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return SealedHeader{}, fmt.Errorf("crypto: failed to generate header nonce: %w", err)
	}

	pos := encodeRoot(sealed[:], m, header.RootPtr, convergenceKey)
	if pos > headerPayload {
		return SealedHeader{}, fatalf("encoded root header overflows reserved payload (%d > %d bytes)", pos, headerPayload)
	}
	// remaining bytes up to headerPayload stay zero, matching the
	// reference layout's trailing padding.

	copy(sealed[headerCiphertext:], nonce[:])

	aead, err := chacha20poly1305.New(rootKey(masterKey)[:])
	if err != nil {
		return SealedHeader{}, fmt.Errorf("crypto: %w", err)
	}

	// Seal in place: dst and plaintext share the header's backing array,
	// which is the documented idiom for chacha20poly1305.AEAD.Seal.
	aead.Seal(sealed[:0:HeaderSize], nonce[:], sealed[:headerPayload], nil)

	return sealed, nil
}

// keySourceFunc reconstructs an InternalScheme from the mode tag and keys
// recovered from a decrypted header.
type keySourceFunc func(m mode, masterKey, convergenceKey RawKey) (InternalScheme, error)

func openHeader(masterKey RawKey, sealed SealedHeader, keysource keySourceFunc) (CleartextHeader, error) {
	var nonce [headerNonceSize]byte
	copy(nonce[:], sealed[headerCiphertext:])

	aead, err := chacha20poly1305.New(rootKey(masterKey)[:])
	if err != nil {
		return CleartextHeader{}, fmt.Errorf("crypto: %w", err)
	}

	buf := append([]byte(nil), sealed[:headerCiphertext]...)
	plain, err := aead.Open(buf[:0], nonce[:], buf, nil)
	if err != nil {
		return CleartextHeader{}, fmt.Errorf("%w: header authentication failed: %v", ErrFatal, err)
	}

	rootPtr := object.ParseRawChunkPointer(plain)
	pos := object.RawPointerSize
	m := mode(plain[pos])
	pos++

	var convergenceKey RawKey
	copy(convergenceKey[:], plain[pos:pos+RawKeySize])

	scheme, err := keysource(m, masterKey, convergenceKey)
	if err != nil {
		return CleartextHeader{}, err
	}

	return CleartextHeader{RootPtr: rootPtr, Key: scheme}, nil
}
