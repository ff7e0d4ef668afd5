package tree

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/symmetree-labs/infinitree/backend"
	"github.com/symmetree-labs/infinitree/crypto"
	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/index"
	"github.com/symmetree-labs/infinitree/object"
)

// Infinitree wraps a caller-supplied fields.Index with the version and
// key management every tree needs: it owns the RootIndex (commit
// history), the backend, and the KeyingScheme every sub-key is derived
// from.
type Infinitree struct {
	mu sync.RWMutex

	fields  *fields.Index
	root    *index.RootIndex
	backend backend.Backend
	keying  crypto.KeyingScheme
	filter  index.CommitFilter
}

// Empty initializes a tree with no commit history: fields is the
// caller's index declaration (already populated via fields.Index.Add),
// keying protects it going forward, and keying.RootObjectID must not
// already resolve to an existing object in backend -- Empty does not
// check this, so calling it against a backend that already holds a tree
// under the same credentials silently shadows the existing history on
// the first commit.
func Empty(be backend.Backend, idx *fields.Index, keying crypto.KeyingScheme) *Infinitree {
	return &Infinitree{
		fields:  idx,
		root:    index.NewRootIndex(),
		backend: be,
		keying:  keying,
	}
}

// Open loads an existing tree's commit history (but none of its own
// index fields -- call LoadAll or Load afterward for that). scheme
// locates and unlocks the sealed header; the InternalScheme it protects
// is recovered from the header itself and bound to scheme to form the
// tree's working KeyingScheme, so subsequent commits reuse exactly the
// convergence key the tree was created with.
func Open(be backend.Backend, idx *fields.Index, scheme crypto.HeaderScheme) (*Infinitree, error) {
	root, internal, err := index.Open(be, scheme)
	if err != nil {
		return nil, fmt.Errorf("tree: failed to open root index: %w", err)
	}
	return &Infinitree{
		fields:  idx,
		root:    root,
		backend: be,
		keying:  crypto.Bind(scheme, internal),
	}, nil
}

// FilterCommits restricts every subsequent Load/LoadAll/StreamsFor call
// to the commits f selects. The zero CommitFilter (the default) selects
// every commit in the tree's history.
func (t *Infinitree) FilterCommits(f index.CommitFilter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = f
}

// Fields returns the caller's index.
func (t *Infinitree) Fields() *fields.Index {
	return t.fields
}

// Backend returns the tree's backend.
func (t *Infinitree) Backend() backend.Backend {
	return t.backend
}

// Commits returns every commit ever recorded, newest first.
func (t *Infinitree) Commits() []index.Commit {
	return t.root.Commits.Commits()
}

// Commit persists every pending change across the tree's fields as a
// new generation, with message recorded against it. It is equivalent to
// CommitWithMetadata with a fresh timestamp, the current head as
// Previous, and OnlyOnChange mode -- a commit that changed nothing is
// silently skipped.
func (t *Infinitree) Commit(message string) error {
	return t.CommitWithCustomData(message, OnlyOnChange, nil)
}

// CommitWithCustomData is Commit, but additionally attaches an
// application-defined payload to the commit's metadata, and lets the
// caller choose whether an empty generation is still persisted.
func (t *Infinitree) CommitWithCustomData(message string, mode CommitMode, customData []byte) error {
	var previous *index.CommitID
	if head, ok := t.root.Commits.Head(); ok {
		id := head.ID
		previous = &id
	}
	metadata := index.CommitMetadata{
		Previous:   previous,
		Message:    message,
		Time:       time.Now(),
		CustomData: customData,
	}
	return t.CommitWithMetadata(metadata, mode)
}

// CommitWithMetadata persists every pending change across the tree's
// fields under caller-supplied metadata. Field stores run in the
// index's declaration order, sharing one object writer and sink so that
// small fields pack into the same objects; Committable fields (those
// with an uncommitted delta, e.g. VersionedMap, LinkedList) are folded
// into committed state only once the whole commit -- including the
// root tier's own persistence -- has succeeded, and rolled back
// otherwise.
func (t *Infinitree) CommitWithMetadata(metadata index.CommitMetadata, mode CommitMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	chunkKey, err := t.keying.ChunkKey()
	if err != nil {
		return fmt.Errorf("tree: failed to derive chunk key: %w", err)
	}
	writer, err := object.NewWriter(t.backend, chunkKey)
	if err != nil {
		return fmt.Errorf("tree: failed to construct object writer: %w", err)
	}
	sink := object.NewSink(writer, chunkKey.Hash)

	fieldList := t.fields.Fields()
	streams := make([]index.NamedStream, len(fieldList))
	for i, f := range fieldList {
		s, err := index.StoreField(sink, f)
		if err != nil {
			t.rollback(fieldList)
			return err
		}
		streams[i] = index.NamedStream{Field: f.FieldName(), Stream: s}
	}

	if mode == OnlyOnChange && index.AllEmpty(streams) {
		t.rollback(fieldList)
		return nil
	}

	if err := writer.Flush(); err != nil {
		t.rollback(fieldList)
		return fmt.Errorf("tree: failed to flush commit objects: %w", err)
	}

	commit, entries, err := index.BuildCommit(metadata, streams)
	if err != nil {
		t.rollback(fieldList)
		return err
	}

	t.root.RecordCommit(commit, entries)
	if err := t.root.Persist(t.backend, t.keying); err != nil {
		t.rollback(fieldList)
		return fmt.Errorf("tree: failed to persist root index: %w", err)
	}

	for _, f := range fieldList {
		if c, ok := f.(fields.Committable); ok {
			c.Commit()
		}
	}
	return t.backend.Sync()
}

// Reseal rewrites the tree's sealed header under scheme -- a new
// HeaderScheme locating/unlocking it going forward -- without creating a
// new commit: the RootIndex's current in-memory state (TransactionList,
// CommitList) is simply persisted again through a KeyingScheme bound to
// scheme instead of the tree's current HeaderScheme. This is the only
// supported credential-rotation path; the InternalScheme (and therefore
// every ChunkPointer already on disk) is carried over unchanged.
//
// The previous header object, if scheme derives a different root id
// than the tree's current HeaderScheme, is left in place rather than
// deleted -- Reseal has no backend-wide enumeration to find and remove
// it, and doing so is gc-objects' job, not this call's.
func (t *Infinitree) Reseal(scheme crypto.HeaderScheme) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bound, ok := t.keying.(crypto.BoundScheme)
	if !ok {
		return fmt.Errorf("tree: keying scheme does not support resealing")
	}

	rotated := crypto.Bind(crypto.ChangeHeaderKey{Old: bound.HeaderScheme, New: scheme}, bound.InternalScheme)
	if err := t.root.Persist(t.backend, rotated); err != nil {
		return fmt.Errorf("tree: failed to reseal root header: %w", err)
	}

	t.keying = crypto.Bind(scheme, bound.InternalScheme)
	return t.backend.Sync()
}

func (t *Infinitree) rollback(fieldList []fields.Field) {
	for _, f := range fieldList {
		if c, ok := f.(fields.Committable); ok {
			c.Rollback()
		}
	}
}

// filterGenerations resolves the tree's current CommitFilter against
// its commit history, returning the set of commit ids that LoadAll,
// Load and StreamsFor should consider.
func (t *Infinitree) filterGenerations() (map[index.CommitID]struct{}, error) {
	return t.filter.Resolve(t.root.Commits)
}

// StreamsFor returns, newest-first, the Stream recorded for field by
// every commit selected under the tree's current CommitFilter. Pair it
// with Reader and fields.Collection.Walk to run a custom query over a
// field's history without loading it wholesale.
func (t *Infinitree) StreamsFor(field string) ([]object.Stream, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	allowed, err := t.filterGenerations()
	if err != nil {
		return nil, fmt.Errorf("tree: failed to resolve commit filter: %w", err)
	}
	return t.root.Transactions.StreamsFor(field, allowed), nil
}

// Reader returns a fresh AEADReader keyed to read the tree's own index
// fields (and anything else stored under the chunk sub-key) -- the
// counterpart to ObjectWriter for manual sparse-data reads, and what
// Load/LoadAll use internally.
func (t *Infinitree) Reader() (*object.AEADReader, error) {
	chunkKey, err := t.keying.ChunkKey()
	if err != nil {
		return nil, fmt.Errorf("tree: failed to derive chunk key: %w", err)
	}
	return object.NewReader(t.backend, chunkKey), nil
}

// Load restores field's in-memory state from the commits selected by
// the tree's current CommitFilter.
func (t *Infinitree) Load(field fields.Field) error {
	streams, err := t.StreamsFor(field.FieldName())
	if err != nil {
		return err
	}
	if field.FieldDepth() == fields.Snapshot && len(streams) > 1 {
		streams = streams[:1] // newest first: only the most recent stream counts
	}
	reader, err := t.Reader()
	if err != nil {
		return err
	}
	if err := field.Strategy().Load(streams, reader); err != nil {
		return fmt.Errorf("tree: failed to load %s: %w", field.FieldName(), err)
	}
	return nil
}

// LoadAll restores every field in the tree's index from the commits
// selected by the tree's current CommitFilter.
func (t *Infinitree) LoadAll() error {
	for _, f := range t.fields.Fields() {
		if err := t.Load(f); err != nil {
			return err
		}
	}
	return nil
}

// ObjectWriter returns a fresh AEADWriter for manually writing sparse
// data outside of any field (e.g. file content addressed by a
// SparseField elsewhere in the index): anything written through it must
// fit in a single object, since the writer performs no fragmentation.
func (t *Infinitree) ObjectWriter() (*object.AEADWriter, error) {
	chunkKey, err := t.keying.ChunkKey()
	if err != nil {
		return nil, fmt.Errorf("tree: failed to derive chunk key: %w", err)
	}
	return object.NewWriter(t.backend, chunkKey)
}

// ObjectReader is an alias for Reader, named to mirror ObjectWriter.
func (t *Infinitree) ObjectReader() (*object.AEADReader, error) {
	return t.Reader()
}

// StorageWriter returns a fresh AEADWriter keyed to storage_key, for
// writing blobs an application keeps outside the index entirely (only
// the resulting Stream is recorded in-index) -- distinct from ChunkKey
// so that large external content never shares a sub-key with index
// fields or pool-backed SparseField values.
func (t *Infinitree) StorageWriter() (*object.AEADWriter, error) {
	storageKey, err := t.keying.StorageKey()
	if err != nil {
		return nil, fmt.Errorf("tree: failed to derive storage key: %w", err)
	}
	return object.NewWriter(t.backend, storageKey)
}

// StorageReader returns a fresh AEADReader keyed to storage_key, the
// counterpart to StorageWriter for reading back a Stream it produced.
func (t *Infinitree) StorageReader() (*object.AEADReader, error) {
	storageKey, err := t.keying.StorageKey()
	if err != nil {
		return nil, fmt.Errorf("tree: failed to derive storage key: %w", err)
	}
	return object.NewReader(t.backend, storageKey), nil
}

// WriteBlob streams r through StorageWriter using content-defined
// chunking (object.ChunkStream, object.DefaultPolynomial), so that small
// edits to a large external blob between commits still converge on
// mostly the same chunks. The returned Stream is what an application
// stores against the blob's key in its own index field -- WriteBlob
// itself touches no field.
func (t *Infinitree) WriteBlob(r io.Reader) (object.Stream, error) {
	storageKey, err := t.keying.StorageKey()
	if err != nil {
		return nil, fmt.Errorf("tree: failed to derive storage key: %w", err)
	}
	writer, err := object.NewWriter(t.backend, storageKey)
	if err != nil {
		return nil, fmt.Errorf("tree: failed to construct storage writer: %w", err)
	}
	stream, err := object.ChunkStream(writer, storageKey.Hash, r, object.DefaultPolynomial)
	if err != nil {
		return nil, fmt.Errorf("tree: failed to chunk blob: %w", err)
	}
	return stream, nil
}

// ReadBlob reconstructs a blob written by WriteBlob from its Stream.
func (t *Infinitree) ReadBlob(stream object.Stream) ([]byte, error) {
	reader, err := t.StorageReader()
	if err != nil {
		return nil, err
	}
	return reader.ReadAll(nil, stream)
}

// LiveObjectIDs returns the id of every object this tree's full commit
// history currently depends on, ignoring any FilterCommits restriction
// in effect -- the set garbage collection must never delete.
func (t *Infinitree) LiveObjectIDs() (map[object.ID]struct{}, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rootID, err := t.keying.RootObjectID()
	if err != nil {
		return nil, fmt.Errorf("tree: failed to derive root object id: %w", err)
	}
	return t.root.ObjectIDs(rootID), nil
}
