package crypto

import (
	"github.com/lukechampine/blake3"

	"github.com/symmetree-labs/infinitree/object"
)

const (
	chunkKeyContext   = "infinitree 2024 chunk key"
	indexKeyContext   = "infinitree 2024 index key"
	storageKeyContext = "infinitree 2024 storage key"
)

// CryptoOps is the full capability a keyed sub-key exposes: everything
// object.ChunkCrypto needs, plus a streaming hasher for content that
// should not be buffered whole (e.g. content-defined chunk boundary
// scanning).
type CryptoOps interface {
	object.ChunkCrypto
	Hasher() *blake3.Hasher
}

// ChunkKey, IndexKey and StorageKey are distinct types wrapping the same
// CryptoOps shape, so a tree cannot accidentally encrypt a chunk with the
// index sub-key or vice versa -- the type system keeps the three uses of
// the convergence key apart even though at the bit level they're all
// "a CryptoOps".
type ChunkKey struct{ CryptoOps }
type IndexKey struct{ CryptoOps }
type StorageKey struct{ CryptoOps }

// HeaderScheme locates and unlocks a tree's sealed root header.
type HeaderScheme interface {
	// RootObjectID returns the deterministic object id holding the
	// sealed header, derived from credentials alone (no I/O needed).
	RootObjectID() (object.ID, error)

	// OpenRoot decrypts sealed and reconstructs the InternalScheme it
	// protects.
	OpenRoot(sealed SealedHeader) (CleartextHeader, error)

	// SealRoot encrypts header under this scheme's current layout.
	SealRoot(header CleartextHeader) (SealedHeader, error)
}

// InternalScheme derives the three sub-keys used to protect a tree's
// content from its convergence key.
type InternalScheme interface {
	ChunkKey() (ChunkKey, error)
	IndexKey() (IndexKey, error)
	StorageKey() (StorageKey, error)

	// ConvergenceKey exposes the raw convergence key, so it can be
	// embedded in a freshly sealed header. Returns false if this scheme
	// cannot expose one, in which case sealing a header under it fails;
	// every InternalScheme in this package returns true.
	ConvergenceKey() (RawKey, bool)
}

// KeyingScheme is the full capability a tree needs: locate/unlock the
// header, and derive every sub-key from what it unlocks.
type KeyingScheme interface {
	HeaderScheme
	InternalScheme
}

// Symmetric is the default InternalScheme: a single random convergence
// key, with chunk/index/storage sub-keys derived from it via distinct
// Blake3 key-derivation contexts.
type Symmetric struct {
	convergenceKey RawKey
}

// NewSymmetric wraps an existing convergence key (e.g. recovered from a
// sealed header) as a Symmetric scheme.
func NewSymmetric(convergenceKey RawKey) Symmetric {
	return Symmetric{convergenceKey: convergenceKey}
}

// GenerateSymmetric mints a fresh, random convergence key.
func GenerateSymmetric() (Symmetric, error) {
	key, err := generateKey()
	if err != nil {
		return Symmetric{}, err
	}
	return Symmetric{convergenceKey: key}, nil
}

func (s Symmetric) ChunkKey() (ChunkKey, error) {
	return ChunkKey{NewSymmetricOps(deriveSubkey(s.convergenceKey, chunkKeyContext))}, nil
}

func (s Symmetric) IndexKey() (IndexKey, error) {
	return IndexKey{NewSymmetricOps(deriveSubkey(s.convergenceKey, indexKeyContext))}, nil
}

func (s Symmetric) StorageKey() (StorageKey, error) {
	return StorageKey{NewSymmetricOps(deriveSubkey(s.convergenceKey, storageKeyContext))}, nil
}

func (s Symmetric) ConvergenceKey() (RawKey, bool) {
	return s.convergenceKey, true
}

// Argon2UserPass is the default HeaderScheme: a username/password pair
// slow-hashed with Argon2id into a master key that locates and unlocks
// the sealed header. The username/password combination can be rotated
// freely -- every byte that actually protects tree content is derived
// from the convergence key stored inside the header, not from the
// password directly.
type Argon2UserPass struct {
	masterKey       RawKey
	legacyMasterKey RawKey
}

// NewArgon2UserPass derives a master key from username/password, along
// with the legacy (pre-Argon2) master key needed to transparently open
// trees sealed before the Mixed08 -> Symmetric migration.
func NewArgon2UserPass(username, password string) Argon2UserPass {
	return Argon2UserPass{
		masterKey:       deriveArgon2(nil, []byte(username), []byte(password)),
		legacyMasterKey: deriveLegacyMasterKey(username, password),
	}
}

func (a Argon2UserPass) RootObjectID() (object.ID, error) {
	return rootObjectID(a.masterKey), nil
}

func (a Argon2UserPass) OpenRoot(sealed SealedHeader) (CleartextHeader, error) {
	header, err := openHeader(a.masterKey, sealed, a.keysource)
	if err == nil {
		return header, nil
	}

	// Transparently upgrade the pre-2022 Mixed08 header format: it used a
	// different KDF entirely (see mixed08.go), so a straight AEAD retry
	// under the Argon2 master key cannot recover it -- fall back to the
	// legacy derivation once before giving up. A subsequent Reseal always
	// writes the current (Symmetric) layout.
	legacy, legacyErr := openMixed08Header(a.legacyMasterKey, sealed)
	if legacyErr != nil {
		return CleartextHeader{}, err
	}
	return legacy, nil
}

func (a Argon2UserPass) SealRoot(header CleartextHeader) (SealedHeader, error) {
	return sealHeader(a.masterKey, modeSymmetric, header)
}

func (a Argon2UserPass) keysource(m mode, masterKey, convergenceKey RawKey) (InternalScheme, error) {
	switch m {
	case modeSymmetric:
		return NewSymmetric(convergenceKey), nil
	case modeMixed08:
		return newMixed08Scheme(masterKey, convergenceKey), nil
	default:
		return nil, fatalf("unrecognized header mode %d", m)
	}
}

// BoundScheme pairs a HeaderScheme with the InternalScheme it protects,
// satisfying KeyingScheme as a single value. A tree holds one of these
// for its lifetime: constructed fresh (HeaderScheme + a newly generated
// Symmetric) when a tree is created, or assembled from Open's two
// return values when an existing tree is unlocked.
type BoundScheme struct {
	HeaderScheme
	InternalScheme
}

// Bind pairs header and internal into a single KeyingScheme value.
func Bind(header HeaderScheme, internal InternalScheme) BoundScheme {
	return BoundScheme{HeaderScheme: header, InternalScheme: internal}
}

// ChangeHeaderKey rotates how a tree's header is located/unlocked (e.g.
// changing the username/password) while preserving the InternalScheme,
// and therefore every ChunkPointer already on disk. It cannot rotate the
// InternalScheme itself -- see ErrRotationUnsupported.
//
// It is meant to be bound as the HeaderScheme half of the KeyingScheme
// passed to a single reseal's Persist call (see tree.Infinitree.Reseal),
// not used to open a not-yet-rotated tree -- open under Old directly for
// that, since Old is where the header currently lives.
type ChangeHeaderKey struct {
	Old HeaderScheme
	New HeaderScheme
}

// RootObjectID returns where the rotated header will be written (New's
// location), the only id a reseal's Persist call needs: it never reads
// the existing object, only rewrites RootIndex's already-loaded state
// under New.
func (c ChangeHeaderKey) RootObjectID() (object.ID, error) {
	return c.New.RootObjectID()
}

// OpenRoot is unused by the reseal path (Persist never calls it) but
// completes the HeaderScheme interface by deferring to Old, the scheme
// that actually sealed any header bytes this value might be asked to
// open.
func (c ChangeHeaderKey) OpenRoot(sealed SealedHeader) (CleartextHeader, error) {
	return c.Old.OpenRoot(sealed)
}

func (c ChangeHeaderKey) SealRoot(header CleartextHeader) (SealedHeader, error) {
	return c.New.SealRoot(header)
}
