package fields_test

import (
	"testing"

	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

func TestSerializedStoreLoadRoundTrip(t *testing.T) {
	_, w, r, key := newTestRig(t)

	src := fields.NewSerialized[string]("greeting")
	src.Set("hello, tree")

	stream := storeAndFinish(t, w, key, src.Strategy().Store)

	dst := fields.NewSerialized[string]("greeting")
	if err := dst.Strategy().Load([]object.Stream{stream}, r); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := dst.Get(); got != "hello, tree" {
		t.Fatalf("Get() = %q, want %q", got, "hello, tree")
	}
}

func TestSerializedLoadEmptyStreamIsNoop(t *testing.T) {
	dst := fields.NewSerialized[int]("counter")
	dst.Set(7)
	if err := dst.Strategy().Load([]object.Stream{{}}, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := dst.Get(); got != 7 {
		t.Fatalf("Get() = %d, want unchanged 7", got)
	}
}

func TestSerializedFieldNameAndDepth(t *testing.T) {
	s := fields.NewSerialized[int]("x")
	if s.FieldName() != "x" {
		t.Fatalf("FieldName() = %q", s.FieldName())
	}
	if s.FieldDepth() != fields.Snapshot {
		t.Fatalf("FieldDepth() = %v, want Snapshot", s.FieldDepth())
	}
}
