package fields_test

import (
	"testing"

	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

func TestListAppendAndAt(t *testing.T) {
	l := fields.NewList[string]("log")
	l.Append("first")
	l.Append("second")
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	if got := l.At(0); got != "first" {
		t.Fatalf("At(0) = %q", got)
	}
	if got := l.At(1); got != "second" {
		t.Fatalf("At(1) = %q", got)
	}
}

func TestListStoreLoadRoundTrip(t *testing.T) {
	_, w, r, key := newTestRig(t)

	src := fields.NewList[int]("log")
	for i := 0; i < 5; i++ {
		src.Append(i)
	}

	stream := storeAndFinish(t, w, key, src.Strategy().Store)

	dst := fields.NewList[int]("log")
	if err := dst.Strategy().Load([]object.Stream{stream}, r); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dst.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", dst.Len())
	}
	for i := 0; i < 5; i++ {
		if got := dst.At(i); got != i {
			t.Fatalf("At(%d) = %d, want %d", i, got, i)
		}
	}
}

func TestListFieldNameAndDepth(t *testing.T) {
	l := fields.NewList[int]("x")
	if l.FieldName() != "x" {
		t.Fatalf("FieldName() = %q", l.FieldName())
	}
	if l.FieldDepth() != fields.Snapshot {
		t.Fatalf("FieldDepth() = %v, want Snapshot", l.FieldDepth())
	}
}
