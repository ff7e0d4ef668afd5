package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/symmetree-labs/infinitree/backend"
	"github.com/symmetree-labs/infinitree/codec"
	"github.com/symmetree-labs/infinitree/crypto"
	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

// rootDirectory is the small chunk a sealed header's RootPtr addresses
// directly: the raw-pointer streams for the root tier's own two fields.
// The object holding it is a tree's "shadow root" -- distinct from the
// deterministic root object id, which locates only the sealed header
// itself (see RootIndex.Persist).
type rootDirectory struct {
	TransactionLog []object.RawChunkPointer
	CommitList     []object.RawChunkPointer
}

// NamedStream pairs a field's declared name with the Stream its Store
// phase produced this commit -- the unit BuildCommit hashes and records.
type NamedStream struct {
	Field  string
	Stream object.Stream
}

// RootIndex is the persisted root of an infinitree: the TransactionList
// and CommitList fields, plus the bookkeeping needed to compact the root
// tier's own objects in place on every commit instead of leaking a new
// one per commit (spec §4.6).
type RootIndex struct {
	Transactions *TransactionList
	Commits      *CommitList

	mu          sync.Mutex
	rootObjects []object.ID // previous commit's continuation-object ids, offered as rewrite candidates
}

// NewRootIndex returns an empty RootIndex, as used by a freshly
// initialized tree with no commit history.
func NewRootIndex() *RootIndex {
	return &RootIndex{
		Transactions: NewTransactionList(),
		Commits:      NewCommitList(),
	}
}

// BuildCommit computes a commit's id from its metadata and the streams
// produced by each of a tree's user fields (in declaration order, so the
// id is stable), and returns the Commit plus the TransactionEntry batch
// to pass to RecordCommit.
func BuildCommit(metadata CommitMetadata, streams []NamedStream) (Commit, []TransactionEntry, error) {
	fs := make([]fieldStream, len(streams))
	for i, s := range streams {
		fs[i] = fieldStream{Field: s.Field, Pointers: s.Stream.Raw()}
	}

	id, err := computeCommitID(metadata, fs)
	if err != nil {
		return Commit{}, nil, err
	}

	entries := make([]TransactionEntry, len(streams))
	for i, s := range streams {
		entries[i] = TransactionEntry{Commit: id, Field: s.Field, Pointers: s.Stream.Raw()}
	}

	return Commit{ID: id, Metadata: metadata}, entries, nil
}

// AllEmpty reports whether every stream in streams is empty: the
// condition under which an OnlyOnChange commit is skipped entirely,
// since no field actually produced any new data.
func AllEmpty(streams []NamedStream) bool {
	for _, s := range streams {
		if len(s.Stream) > 0 {
			return false
		}
	}
	return true
}

// RecordCommit appends commit to the CommitList and prepends batch (this
// commit's per-field entries) to the front of the TransactionList. It
// only updates in-memory state; callers must still call Persist to make
// the commit durable.
func (ri *RootIndex) RecordCommit(commit Commit, batch []TransactionEntry) {
	ri.Commits.Append(commit)
	ri.Transactions.Prepend(batch)
}

// ObjectIDs returns every ObjectId the tree currently depends on: every
// stream referenced by the TransactionList, the root tier's own
// continuation objects, and rootID itself.
func (ri *RootIndex) ObjectIDs(rootID object.ID) map[object.ID]struct{} {
	out := ri.Transactions.ObjectIDs()
	out[rootID] = struct{}{}

	ri.mu.Lock()
	for _, id := range ri.rootObjects {
		out[id] = struct{}{}
	}
	ri.mu.Unlock()

	return out
}

// StoreField runs f's Store phase against sink and returns the Stream its
// content produced. Used both by RootIndex.Persist (for the root tier's
// own two fields) and by a tree's commit path (for the caller's index
// fields, sharing one writer/object across the whole commit).
func StoreField(sink *object.BufferedSink, f fields.Field) (object.Stream, error) {
	if err := f.Strategy().Store(sink); err != nil {
		return nil, fmt.Errorf("index: failed to store %s: %w", f.FieldName(), err)
	}
	return sink.Clear()
}

// errRootOverflow is returned by Persist if the root tier's own data
// doesn't fit in a single object: the header must be written into the
// same object addressed by the tree's deterministic root id, which only
// the first object a root writer opens is pinned to (see
// object.NewRootWriter). Supporting a root tier that spans multiple
// objects would require writing the header before its own contents are
// known, or relocating it after the fact; neither is implemented, since
// a single ~4 MiB object holds many tens of thousands of commits' worth
// of transaction history in practice.
var errRootOverflow = errors.New("index: root tier overflowed a single object")

// Persist writes RootIndex's own fields through a root-mode writer and
// seals the result into the tree's sealed header, compacting the root
// tier's objects in place. Run it as the last step of a commit, after
// RecordCommit has updated Commits/Transactions for this commit.
func (ri *RootIndex) Persist(be backend.Backend, keying crypto.KeyingScheme) error {
	rootID, err := keying.RootObjectID()
	if err != nil {
		return fmt.Errorf("index: failed to derive root object id: %w", err)
	}
	indexKey, err := keying.IndexKey()
	if err != nil {
		return fmt.Errorf("index: failed to derive index key: %w", err)
	}

	ri.mu.Lock()
	rewrite := ri.rootObjects
	ri.mu.Unlock()

	writer, err := object.NewRootWriter(be, indexKey, rootID, rewrite)
	if err != nil {
		return fmt.Errorf("index: failed to construct root writer: %w", err)
	}
	sink := object.NewSink(writer, indexKey.Hash)

	tlStream, err := StoreField(sink, ri.Transactions)
	if err != nil {
		return err
	}
	clStream, err := StoreField(sink, ri.Commits)
	if err != nil {
		return err
	}

	dir := rootDirectory{TransactionLog: tlStream.Raw(), CommitList: clStream.Raw()}
	enc := codec.NewEncoder()
	if err := enc.Encode(dir); err != nil {
		return fmt.Errorf("index: failed to encode root directory: %w", err)
	}
	dirPtr, err := writer.Write(enc.Bytes())
	if err != nil {
		return fmt.Errorf("index: failed to write root directory: %w", err)
	}

	if writer.CurrentObjectID() != rootID {
		return errRootOverflow
	}

	header := crypto.CleartextHeader{RootPtr: dirPtr.Raw(), Key: keying}
	sealed, err := keying.SealRoot(header)
	if err != nil {
		return fmt.Errorf("index: failed to seal root header: %w", err)
	}
	copy(writer.CurrentHeader(), sealed[:])

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("index: failed to flush root object: %w", err)
	}

	written := append(append(append([]object.ChunkPointer(nil), tlStream...), clStream...), dirPtr)
	all := object.Stream(written).Objects()

	continuation := all[:0]
	for _, id := range all {
		if id != rootID {
			continuation = append(continuation, id)
		}
	}

	ri.mu.Lock()
	ri.rootObjects = continuation
	ri.mu.Unlock()

	if err := be.KeepWarm(all); err != nil {
		return fmt.Errorf("index: failed to mark root objects warm: %w", err)
	}
	return nil
}

// Open reads the sealed header at the HeaderScheme's deterministic root
// id (bypassing any cache, since it may have just been rewritten) and
// restores a fully loaded RootIndex: every TransactionList and CommitList
// entry ever committed. The InternalScheme recovered from the header is
// returned alongside, since it -- not the HeaderScheme -- derives every
// other sub-key a tree needs.
func Open(be backend.Backend, scheme crypto.HeaderScheme) (*RootIndex, crypto.InternalScheme, error) {
	rootID, err := scheme.RootObjectID()
	if err != nil {
		return nil, nil, fmt.Errorf("index: failed to derive root object id: %w", err)
	}

	obj, err := be.ReadFresh(rootID)
	if err != nil {
		return nil, nil, fmt.Errorf("index: failed to read root object: %w", err)
	}

	headerBytes, err := obj.Slice(0, uint32(crypto.HeaderSize))
	if err != nil {
		return nil, nil, fmt.Errorf("index: root object too small for sealed header: %w", err)
	}
	var sealed crypto.SealedHeader
	copy(sealed[:], headerBytes)

	header, err := scheme.OpenRoot(sealed)
	if err != nil {
		return nil, nil, fmt.Errorf("index: failed to open sealed header: %w", err)
	}

	indexKey, err := header.Key.IndexKey()
	if err != nil {
		return nil, nil, fmt.Errorf("index: failed to derive index key: %w", err)
	}
	reader := object.NewReader(be, indexKey)

	dirBuf, err := reader.Read(nil, object.FromRaw(header.RootPtr))
	if err != nil {
		return nil, nil, fmt.Errorf("index: failed to read root directory: %w", err)
	}
	var dir rootDirectory
	if err := codec.NewDecoder(dirBuf).Decode(&dir); err != nil {
		return nil, nil, fmt.Errorf("index: failed to decode root directory: %w", err)
	}

	ri := NewRootIndex()
	tlStream := object.StreamFromRaw(dir.TransactionLog)
	clStream := object.StreamFromRaw(dir.CommitList)

	if err := ri.Transactions.Strategy().Load([]object.Stream{tlStream}, reader); err != nil {
		return nil, nil, fmt.Errorf("index: failed to load transaction log: %w", err)
	}
	if err := ri.Commits.Strategy().Load([]object.Stream{clStream}, reader); err != nil {
		return nil, nil, fmt.Errorf("index: failed to load commit list: %w", err)
	}

	continuation := make(map[object.ID]struct{})
	for _, id := range object.Stream(append(append([]object.ChunkPointer(nil), tlStream...), clStream...)).Objects() {
		if id != rootID {
			continuation[id] = struct{}{}
		}
	}
	rewrite := make([]object.ID, 0, len(continuation))
	for id := range continuation {
		rewrite = append(rewrite, id)
	}
	ri.rootObjects = rewrite

	objects := ri.ObjectIDs(rootID)
	ids := make([]object.ID, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	be.Preload(ids)
	if err := be.KeepWarm(ids); err != nil {
		return nil, nil, fmt.Errorf("index: failed to mark objects warm: %w", err)
	}

	return ri, header.Key, nil
}
