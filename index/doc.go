// Package index implements infinitree's commit graph: the append-only
// TransactionList of per-field Streams, the CommitList that chains
// commits by their Previous id, and the RootIndex that persists both of
// those (plus the object-id bookkeeping needed to locate them) through
// the object layer using the tree's index_key.
package index
