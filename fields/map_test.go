package fields_test

import (
	"testing"

	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

func TestMapInsertIsFirstWriteWins(t *testing.T) {
	m := fields.NewMap[string, int]("counts")
	if got := m.Insert("a", 1); got != 1 {
		t.Fatalf("first Insert = %d, want 1", got)
	}
	if got := m.Insert("a", 2); got != 1 {
		t.Fatalf("duplicate Insert = %d, want existing 1", got)
	}
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
}

func TestMapRemoveAndLen(t *testing.T) {
	m := fields.NewMap[string, int]("counts")
	m.Insert("a", 1)
	m.Insert("b", 2)
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	v, ok := m.Remove("a")
	if !ok || v != 1 {
		t.Fatalf("Remove(a) = (%d, %v), want (1, true)", v, ok)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() after remove = %d, want 1", m.Len())
	}
	if _, ok := m.Get("a"); ok {
		t.Fatalf("Get(a) after remove should miss")
	}
}

func TestMapDistributesAcrossShards(t *testing.T) {
	m := fields.NewMap[int, int]("n")
	for i := 0; i < 200; i++ {
		m.Insert(i, i*i)
	}
	if m.Len() != 200 {
		t.Fatalf("Len() = %d, want 200", m.Len())
	}
	seen := 0
	m.ForEach(func(k, v int) {
		if v != k*k {
			t.Fatalf("ForEach(%d) = %d, want %d", k, v, k*k)
		}
		seen++
	})
	if seen != 200 {
		t.Fatalf("ForEach visited %d entries, want 200", seen)
	}
}

func TestMapStoreLoadRoundTrip(t *testing.T) {
	_, w, r, key := newTestRig(t)

	src := fields.NewMap[string, int]("m")
	src.Insert("a", 1)
	src.Insert("b", 2)
	src.Insert("c", 3)

	stream := storeAndFinish(t, w, key, src.Strategy().Store)

	dst := fields.NewMap[string, int]("m")
	if err := dst.Strategy().Load([]object.Stream{stream}, r); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dst.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", dst.Len())
	}
	for k, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if got, ok := dst.Get(k); !ok || got != want {
			t.Fatalf("Get(%q) = (%d, %v), want (%d, true)", k, got, ok, want)
		}
	}
}
