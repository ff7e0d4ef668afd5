package object

// Backend is the capability bundle the object layer needs from a storage
// backend: durable storage of whole, fixed-size objects addressed by ID.
// The richer operational surface (Preload, KeepWarm, Delete, Sync) lives
// in the backend package's own Backend interface, which embeds this one;
// it is declared here, where it is consumed, to keep this package free of
// a dependency on backend (which itself depends on object).
type Backend interface {
	// WriteObject durably (or eventually, pending Sync) stores o.
	WriteObject(o *WriteObject) error

	// ReadObject fetches the object addressed by id, possibly from a
	// cache.
	ReadObject(id ID) (*ReadObject, error)

	// ReadFresh fetches the object addressed by id bypassing any cache.
	// It is only used when opening the root header.
	ReadFresh(id ID) (*ReadObject, error)
}

// ChunkCrypto is the capability the object layer needs from a keying
// scheme's sub-key to turn plaintext into an authenticated, encrypted
// chunk and back. Concrete implementations live in the crypto package.
type ChunkCrypto interface {
	// EncryptChunk authenticated-encrypts data in place (data is
	// replaced with ciphertext of the same length) using a per-chunk key
	// derived from hash, binding the ciphertext to the object it will be
	// stored in. It returns the AEAD tag.
	EncryptChunk(object ID, hash Digest, data []byte) Tag

	// DecryptChunk authenticates and decrypts the ciphertext in source
	// (sized by ptr) into target, which must be at least ptr.Size()
	// bytes long.
	DecryptChunk(target, source []byte, ptr ChunkPointer) error

	// Hash computes the content digest used both for deduplication and
	// as the per-chunk key seed.
	Hash(content []byte) Digest
}
