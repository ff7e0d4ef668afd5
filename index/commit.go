package index

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/lukechampine/blake3"

	"github.com/symmetree-labs/infinitree/codec"
	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

// CommitID identifies a commit by the Blake3 hash of its metadata
// concatenated with the ordered (field name, Stream) pairs it produced.
// Two commits with the same id are guaranteed to carry identical
// metadata and identical byte content in every field stream.
type CommitID [32]byte

// String renders the id as lowercase hex.
func (id CommitID) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the unset sentinel.
func (id CommitID) IsZero() bool { return id == CommitID{} }

// CommitMetadata is the non-content part of a commit: a link to its
// parent, a human-readable message, a timestamp, and an opaque
// application-supplied payload.
type CommitMetadata struct {
	Previous   *CommitID
	Message    string
	Time       time.Time
	CustomData []byte
}

// Commit pairs a CommitID with its metadata. The per-field streams that
// produced it are recorded separately, in the TransactionList, keyed by
// the same id.
type Commit struct {
	ID       CommitID
	Metadata CommitMetadata
}

// fieldStream is one (field name, Stream) pair contributed by a single
// commit -- the unit the commit id hash runs over, and the shape
// recorded once per field in the TransactionList. The stream is carried
// as its codec-safe []RawChunkPointer encoding rather than object.Stream,
// whose element type deliberately can't cross the codec package.
type fieldStream struct {
	Field   string
	Pointers []object.RawChunkPointer
}

// computeCommitID hashes the canonical codec encoding of metadata
// concatenated with the ordered field streams it produced, per the
// commit-id invariant: the hash uniquely identifies both the metadata
// and the exact byte content of every field stream committed alongside
// it.
func computeCommitID(metadata CommitMetadata, streams []fieldStream) (CommitID, error) {
	enc := codec.NewEncoder()
	if err := enc.Encode(metadata); err != nil {
		return CommitID{}, fmt.Errorf("index: failed to encode commit metadata: %w", err)
	}
	if err := enc.Encode(streams); err != nil {
		return CommitID{}, fmt.Errorf("index: failed to encode commit streams: %w", err)
	}
	return CommitID(blake3.Sum256(enc.Bytes())), nil
}

const commitListFieldName = "commit_list"

// CommitList is the RootIndex's own Snapshot-depth field: the ordered
// sequence of every Commit, newest first, persisted wholesale on every
// commit alongside the TransactionList.
type CommitList struct {
	mu      sync.RWMutex
	commits []Commit
}

// NewCommitList returns an empty CommitList.
func NewCommitList() *CommitList {
	return &CommitList{}
}

// Append adds c to the front of the list.
func (l *CommitList) Append(c Commit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commits = append([]Commit{c}, l.commits...)
}

// Commits returns every commit, newest first.
func (l *CommitList) Commits() []Commit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Commit(nil), l.commits...)
}

// Head returns the most recent commit, if any.
func (l *CommitList) Head() (Commit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.commits) == 0 {
		return Commit{}, false
	}
	return l.commits[0], true
}

// Get returns the commit with the given id, if present.
func (l *CommitList) Get(id CommitID) (Commit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range l.commits {
		if c.ID == id {
			return c, true
		}
	}
	return Commit{}, false
}

func (l *CommitList) snapshot() []Commit { return l.Commits() }

func (l *CommitList) restore(commits []Commit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commits = commits
}

// FieldName implements fields.Field.
func (l *CommitList) FieldName() string { return commitListFieldName }

// FieldDepth implements fields.Field.
func (l *CommitList) FieldDepth() fields.Depth { return fields.Snapshot }

// Strategy implements fields.Field.
func (l *CommitList) Strategy() fields.Strategy {
	return fields.LocalField[[]Commit]{
		Snapshot: l.snapshot,
		Restore:  l.restore,
	}
}
