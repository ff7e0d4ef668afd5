package crypto

import (
	"errors"
	"fmt"
)

// ErrFatal wraps any AEAD verification failure, KDF error, or malformed
// stored key. Callers must treat it as "this tree cannot be opened with
// these credentials" -- infinitree never returns partial plaintext from a
// failed authentication check.
var ErrFatal = errors.New("crypto: fatal cryptographic error")

// ErrRotationUnsupported names the rotation infinitree does not offer:
// swapping a tree's InternalScheme after the fact. Rotating the
// convergence key would invalidate every ChunkPointer already written,
// since chunk sub-keys are derived from it. ChangeHeaderKey always carries
// the InternalScheme over unchanged, and no function in this package
// returns this error.
var ErrRotationUnsupported = errors.New("crypto: cannot rotate the internal (convergence) key scheme")

func fatalf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrFatal}, args...)...)
}
