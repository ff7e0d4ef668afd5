package fields_test

import (
	"testing"

	"github.com/symmetree-labs/infinitree/fields"
)

func TestIndexPreservesDeclarationOrder(t *testing.T) {
	idx := fields.NewIndex()
	idx.Add(fields.NewSerialized[int]("first"))
	idx.Add(fields.NewSerialized[int]("second"))
	idx.Add(fields.NewSerialized[int]("third"))

	names := []string{}
	for _, f := range idx.Fields() {
		names = append(names, f.FieldName())
	}
	want := []string{"first", "second", "third"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("Fields()[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestIndexGet(t *testing.T) {
	idx := fields.NewIndex()
	s := fields.NewSerialized[int]("x")
	idx.Add(s)

	got, ok := idx.Get("x")
	if !ok || got != s {
		t.Fatalf("Get(x) = (%v, %v), want the same field back", got, ok)
	}
	if _, ok := idx.Get("missing"); ok {
		t.Fatalf("Get(missing) should report false")
	}
}

func TestIndexDuplicateNamePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic on duplicate field name")
		}
	}()
	idx := fields.NewIndex()
	idx.Add(fields.NewSerialized[int]("dup"))
	idx.Add(fields.NewSerialized[int]("dup"))
}
