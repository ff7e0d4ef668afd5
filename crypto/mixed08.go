package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// deriveLegacyMasterKey recreates the pre-Argon2 master key: a plain
// HMAC-SHA256 of the password keyed by the username, with none of
// Argon2's deliberate slowness. It exists only so Argon2UserPass.OpenRoot
// can transparently open headers sealed before the migration to Argon2;
// Reseal always writes the current (Symmetric, Argon2-located) layout.
func deriveLegacyMasterKey(username, password string) RawKey {
	mac := hmac.New(sha256.New, []byte(username))
	mac.Write([]byte(password))
	var out RawKey
	copy(out[:], mac.Sum(nil))
	return out
}

func deriveSubkeyHMAC(master RawKey, context string) RawKey {
	mac := hmac.New(sha256.New, master[:])
	mac.Write([]byte(context))
	var out RawKey
	copy(out[:], mac.Sum(nil))
	return out
}

func openMixed08Header(legacyMasterKey RawKey, sealed SealedHeader) (CleartextHeader, error) {
	return openHeader(legacyMasterKey, sealed, func(m mode, masterKey, convergenceKey RawKey) (InternalScheme, error) {
		return newMixed08Scheme(masterKey, convergenceKey), nil
	})
}

// Mixed08Scheme is the legacy (pre-2022) InternalScheme: sub-keys are
// derived via HMAC-SHA256 rather than Blake3's key-derivation mode, and
// it has no distinct storage sub-key -- it reuses the chunk key, same as
// the format it reproduces.
type Mixed08Scheme struct {
	masterKey      RawKey
	convergenceKey RawKey
}

func newMixed08Scheme(masterKey, convergenceKey RawKey) Mixed08Scheme {
	return Mixed08Scheme{masterKey: masterKey, convergenceKey: convergenceKey}
}

func (m Mixed08Scheme) ChunkKey() (ChunkKey, error) {
	return ChunkKey{NewSymmetricOps(deriveSubkeyHMAC(m.convergenceKey, chunkKeyContext))}, nil
}

func (m Mixed08Scheme) IndexKey() (IndexKey, error) {
	return IndexKey{NewSymmetricOps(deriveSubkeyHMAC(m.convergenceKey, indexKeyContext))}, nil
}

func (m Mixed08Scheme) StorageKey() (StorageKey, error) {
	ck, err := m.ChunkKey()
	if err != nil {
		return StorageKey{}, err
	}
	return StorageKey{ck.CryptoOps}, nil
}

func (m Mixed08Scheme) ConvergenceKey() (RawKey, bool) {
	return m.convergenceKey, true
}
