// Package codec implements infinitree's on-disk binary format for commit
// metadata, transaction list entries, and index field streams.
//
// It is deliberately not encoding/gob: gob's wire format does not
// guarantee declaration-order map encoding or a frozen type descriptor
// across Go versions, and infinitree's commit ids are Blake3 hashes of
// this encoding -- any incidental reordering would change a tree's
// commit history. The format here is a flat, explicitly tagged binary
// encoding: every value is prefixed with a one-byte type tag and,
// for variable-length values, a varint length, so Encode/Decode never
// need out-of-band schema information and never reorder anything the
// caller didn't ask for.
package codec
