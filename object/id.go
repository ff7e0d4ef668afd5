package object

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Size is the number of bytes in an ObjectID.
const Size = 32

// ID is an opaque identifier for an object stored in a Backend. Data
// objects are uniformly random; the root object's ID is deterministically
// derived from the tree's master key so it can be located without a side
// channel.
type ID [Size]byte

// Zero is the ID with every byte set to 0. It never addresses a real
// object and is used as a sentinel for "no object yet".
var Zero ID

// NewRandom generates a cryptographically random ID, suitable for any
// non-root data object.
func NewRandom() (ID, error) {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		return ID{}, fmt.Errorf("object: failed to generate random id: %w", err)
	}
	return id, nil
}

// String renders the ID as lowercase hex, matching the filename/key
// convention used by every Backend implementation.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the Zero sentinel.
func (id ID) IsZero() bool {
	return id == Zero
}

// ParseID decodes a hex-encoded ObjectID, as produced by String.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("object: invalid id %q: %w", s, err)
	}
	if len(b) != Size {
		return ID{}, fmt.Errorf("object: invalid id %q: decoded length %d, want %d", s, len(b), Size)
	}
	copy(id[:], b)
	return id, nil
}
