package backend

import (
	"errors"
	"fmt"

	"github.com/symmetree-labs/infinitree/object"
)

// ErrNotFound is returned (wrapped) when an object id has no backing
// data in the backend.
var ErrNotFound = errors.New("backend: object not found")

// ErrIO is returned (wrapped) for any failure reading from or writing to
// the underlying storage medium (disk, network).
var ErrIO = errors.New("backend: io failure")

// ErrCannotCreate is returned (wrapped) when a backend cannot allocate
// storage for a new object (e.g. a directory that cannot be created).
var ErrCannotCreate = errors.New("backend: cannot create storage")

// Error wraps a failure from a specific operation against a specific
// object id, so callers can log or report without losing context while
// still unwrapping to one of the sentinel kinds above via errors.Is.
type Error struct {
	Op  string
	ID  object.ID
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(op string, id object.ID) error {
	return &Error{Op: op, ID: id, Err: ErrNotFound}
}

func ioFailure(op string, id object.ID, cause error) error {
	return &Error{Op: op, ID: id, Err: fmt.Errorf("%w: %v", ErrIO, cause)}
}

func cannotCreate(op string, id object.ID, cause error) error {
	return &Error{Op: op, ID: id, Err: fmt.Errorf("%w: %v", ErrCannotCreate, cause)}
}
