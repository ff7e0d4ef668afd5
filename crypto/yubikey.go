package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"fmt"

	"github.com/lukechampine/blake3"

	"github.com/symmetree-labs/infinitree/object"
)

// YubikeyChallengeSize is the width of the challenge mixed into a
// YubikeyCR master key, and the number of bytes stored immediately after
// a sealed header sealed by one.
const YubikeyChallengeSize = 64

// YubikeyChallengeResponder performs the HMAC-SHA1 challenge-response
// exchange against a physical security key (a Yubikey slot configured
// for challenge-response mode is the standard personalization for this
// use case). Implementations wrap whatever USB/ykpers binding is
// available; infinitree only needs the resulting response bytes, so the
// hardware dependency never leaks into this package.
type YubikeyChallengeResponder interface {
	Respond(challenge [YubikeyChallengeSize]byte) ([sha1.Size]byte, error)
}

// YubikeyCR is a HeaderScheme that mixes a hardware challenge-response
// into the password-derived master key, so the sealed header cannot be
// opened without both the password and the physical key present. The
// challenge itself is not secret and is stored appended after the
// 512-byte sealed header; Challenge returns it for the caller to persist
// there.
type YubikeyCR struct {
	responder YubikeyChallengeResponder
	challenge [YubikeyChallengeSize]byte
	masterKey RawKey
}

// NewYubikeyCR mints a fresh random challenge, exercises the responder
// once, and derives the master key from the password and the hardware
// response together.
func NewYubikeyCR(responder YubikeyChallengeResponder, username, password string) (YubikeyCR, error) {
	var challenge [YubikeyChallengeSize]byte
	if _, err := rand.Read(challenge[:]); err != nil {
		return YubikeyCR{}, fmt.Errorf("crypto: failed to generate yubikey challenge: %w", err)
	}
	return OpenYubikeyCR(responder, username, password, challenge)
}

// OpenYubikeyCR reconstructs a YubikeyCR from a previously stored
// challenge (read from the tail of a sealed header) and a fresh hardware
// response.
func OpenYubikeyCR(responder YubikeyChallengeResponder, username, password string, challenge [YubikeyChallengeSize]byte) (YubikeyCR, error) {
	response, err := responder.Respond(challenge)
	if err != nil {
		return YubikeyCR{}, fmt.Errorf("crypto: yubikey challenge-response failed: %w", err)
	}

	base := deriveArgon2(nil, []byte(username), []byte(password))
	mac := hmac.New(sha1.New, base[:])
	mac.Write(response[:])

	// Stretch the 20-byte HMAC-SHA1 output back to a full 32-byte key;
	// the security of this scheme rests on the Argon2 base and the
	// hardware response, not on SHA1's output width.
	masterKey := RawKey(blake3.Sum256(mac.Sum(nil)))

	return YubikeyCR{
		responder: responder,
		challenge: challenge,
		masterKey: masterKey,
	}, nil
}

// Challenge returns the challenge bytes to store after the sealed
// header.
func (y YubikeyCR) Challenge() [YubikeyChallengeSize]byte { return y.challenge }

func (y YubikeyCR) RootObjectID() (object.ID, error) {
	return rootObjectID(y.masterKey), nil
}

func (y YubikeyCR) OpenRoot(sealed SealedHeader) (CleartextHeader, error) {
	return openHeader(y.masterKey, sealed, func(m mode, masterKey, convergenceKey RawKey) (InternalScheme, error) {
		switch m {
		case modeSymmetric:
			return NewSymmetric(convergenceKey), nil
		case modeMixed08:
			return newMixed08Scheme(masterKey, convergenceKey), nil
		default:
			return nil, fatalf("unrecognized header mode %d", m)
		}
	})
}

func (y YubikeyCR) SealRoot(header CleartextHeader) (SealedHeader, error) {
	return sealHeader(y.masterKey, modeSymmetric, header)
}
