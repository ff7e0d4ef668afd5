package fields_test

import (
	"fmt"
	"testing"

	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

func TestSparseFieldStoreLoadLazyMaterialization(t *testing.T) {
	_, w, r, key := newTestRig(t)

	values := map[string][]byte{
		"a": []byte("apple"),
		"b": []byte("banana"),
	}

	f := fields.SparseField[string, []byte]{
		Pending: func() map[string][]byte { return values },
		Encode:  func(v []byte) ([]byte, error) { return v, nil },
		Decode:  func(b []byte) ([]byte, error) { return b, nil },
		Writer:  w,
	}

	stream := storeAndFinish(t, w, key, f.Store)

	got := map[string]string{}
	loader := fields.SparseField[string, []byte]{
		Decode: func(b []byte) ([]byte, error) { return b, nil },
		Restore: func(k string, value func() ([]byte, error)) {
			v, err := value()
			if err != nil {
				t.Fatalf("materialize %q: %v", k, err)
			}
			got[k] = string(v)
		},
	}
	if err := loader.Load([]object.Stream{stream}, r); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for k, want := range map[string]string{"a": "apple", "b": "banana"} {
		if got[k] != want {
			t.Fatalf("materialized %q = %q, want %q", k, got[k], want)
		}
	}
}

func TestSparseFieldRestoreCanSkipMaterialization(t *testing.T) {
	_, w, r, key := newTestRig(t)

	values := map[string][]byte{"a": []byte("apple")}
	f := fields.SparseField[string, []byte]{
		Pending: func() map[string][]byte { return values },
		Encode:  func(v []byte) ([]byte, error) { return v, nil },
		Writer:  w,
	}
	stream := storeAndFinish(t, w, key, f.Store)

	visited := 0
	loader := fields.SparseField[string, []byte]{
		Restore: func(k string, value func() ([]byte, error)) {
			visited++
			// Deliberately never call value(): the key alone is enough
			// for this caller.
			if k != "a" {
				t.Fatalf("unexpected key %q", k)
			}
		},
	}
	if err := loader.Load([]object.Stream{stream}, r); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if visited != 1 {
		t.Fatalf("visited = %d, want 1", visited)
	}
}

func TestSparseFieldEncodeErrorPropagates(t *testing.T) {
	_, w, _, _ := newTestRig(t)
	boom := fmt.Errorf("boom")

	f := fields.SparseField[string, []byte]{
		Pending: func() map[string][]byte { return map[string][]byte{"a": {1}} },
		Encode:  func(v []byte) ([]byte, error) { return nil, boom },
		Writer:  w,
	}

	sink := object.NewSink(w, func(b []byte) object.Digest { return object.Digest{} })
	if err := f.Store(sink); err == nil {
		t.Fatalf("expected an error from Store")
	}
}
