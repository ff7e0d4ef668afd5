package fields_test

import (
	"testing"

	"github.com/symmetree-labs/infinitree/backend"
	"github.com/symmetree-labs/infinitree/crypto"
	"github.com/symmetree-labs/infinitree/object"
)

// newTestRig builds an in-memory backend and AEADWriter/AEADReader pair
// sharing one chunk sub-key, the minimal plumbing every Strategy needs
// to Store into and Load back out of.
func newTestRig(t *testing.T) (*backend.InMemory, *object.AEADWriter, *object.AEADReader, crypto.ChunkKey) {
	t.Helper()

	sym, err := crypto.GenerateSymmetric()
	if err != nil {
		t.Fatalf("GenerateSymmetric: %v", err)
	}
	key, err := sym.ChunkKey()
	if err != nil {
		t.Fatalf("ChunkKey: %v", err)
	}

	mem := backend.NewInMemory()
	w, err := object.NewWriter(mem, key)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	r := object.NewReader(mem, key)
	return mem, w, r, key
}

func storeAndFinish(t *testing.T, w *object.AEADWriter, key crypto.ChunkKey, store func(sink *object.BufferedSink) error) object.Stream {
	t.Helper()
	sink := object.NewSink(w, key.Hash)
	if err := store(sink); err != nil {
		t.Fatalf("store: %v", err)
	}
	s, err := sink.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return s
}
