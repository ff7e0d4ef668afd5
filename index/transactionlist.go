package index

import (
	"sync"

	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

const transactionListFieldName = "transaction_list"

// TransactionEntry is one (commit, field, stream) triple recorded by a
// single commit's field-store phase. The stream is carried as its
// codec-safe []RawChunkPointer encoding, since object.Stream's element
// type deliberately can't cross the codec package; use Stream() to
// recover it.
type TransactionEntry struct {
	Commit   CommitID
	Field    string
	Pointers []object.RawChunkPointer
}

// Stream reconstructs the object.Stream this entry's pointers describe.
func (e TransactionEntry) Stream() object.Stream {
	return object.StreamFromRaw(e.Pointers)
}

// TransactionList is the RootIndex's own Snapshot-depth field: the
// ordered sequence of every TransactionEntry ever committed, newest
// commit first. New batches are prepended, so a forward walk is already
// reverse-chronological -- the order Incremental fields replay in. It is
// persisted wholesale on every commit (Snapshot depth), which is why the
// root tier can compact in place: the entire list is rewritten through
// the root AEADWriter each time rather than appended to.
type TransactionList struct {
	mu      sync.RWMutex
	entries []TransactionEntry
}

// NewTransactionList returns an empty TransactionList.
func NewTransactionList() *TransactionList {
	return &TransactionList{}
}

// Prepend adds batch -- the entries produced by one commit, in field-
// declaration order -- to the front of the list as a unit.
func (l *TransactionList) Prepend(batch []TransactionEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	merged := make([]TransactionEntry, 0, len(batch)+len(l.entries))
	merged = append(merged, batch...)
	merged = append(merged, l.entries...)
	l.entries = merged
}

// Entries returns every entry, newest commit first.
func (l *TransactionList) Entries() []TransactionEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]TransactionEntry(nil), l.entries...)
}

func (l *TransactionList) snapshot() []TransactionEntry { return l.Entries() }

func (l *TransactionList) restore(entries []TransactionEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
}

// StreamsFor returns, newest-first, the Stream of every entry naming
// field whose commit id is in allowed. A nil allowed set means every
// commit is considered.
func (l *TransactionList) StreamsFor(field string, allowed map[CommitID]struct{}) []object.Stream {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []object.Stream
	for _, e := range l.entries {
		if e.Field != field {
			continue
		}
		if allowed != nil {
			if _, ok := allowed[e.Commit]; !ok {
				continue
			}
		}
		out = append(out, e.Stream())
	}
	return out
}

// ObjectIDs returns the de-duplicated set of every ObjectId referenced
// by any Stream in the list -- the index tier's contribution to the
// tree's live set (spec invariant 7).
func (l *TransactionList) ObjectIDs() map[object.ID]struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[object.ID]struct{})
	for _, e := range l.entries {
		for _, id := range e.Stream().Objects() {
			out[id] = struct{}{}
		}
	}
	return out
}

// FieldName implements fields.Field.
func (l *TransactionList) FieldName() string { return transactionListFieldName }

// FieldDepth implements fields.Field.
func (l *TransactionList) FieldDepth() fields.Depth { return fields.Snapshot }

// Strategy implements fields.Field.
func (l *TransactionList) Strategy() fields.Strategy {
	return fields.LocalField[[]TransactionEntry]{
		Snapshot: l.snapshot,
		Restore:  l.restore,
	}
}
