package fields_test

import (
	"testing"

	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

func TestVersionedMapInsertRemoveCommitRollback(t *testing.T) {
	m := fields.NewVersionedMap[string, int]("balances")

	m.Insert("alice", 10)
	if v, ok := m.Get("alice"); !ok || v != 10 {
		t.Fatalf("Get(alice) = (%d, %v), want (10, true)", v, ok)
	}

	// Rollback discards the uncommitted insert.
	m.Rollback()
	if _, ok := m.Get("alice"); ok {
		t.Fatalf("Get(alice) should miss after Rollback")
	}

	m.Insert("alice", 10)
	m.Commit()
	if v, ok := m.Get("alice"); !ok || v != 10 {
		t.Fatalf("Get(alice) after Commit = (%d, %v), want (10, true)", v, ok)
	}

	// Remove only tombstones in current; base still has it until Commit.
	if _, ok := m.Remove("alice"); !ok {
		t.Fatalf("Remove(alice) should report present")
	}
	if _, ok := m.Get("alice"); ok {
		t.Fatalf("Get(alice) should already reflect the pending tombstone")
	}
	m.Rollback()
	if v, ok := m.Get("alice"); !ok || v != 10 {
		t.Fatalf("Get(alice) after rolling back the remove = (%d, %v), want (10, true)", v, ok)
	}

	m.Remove("alice")
	m.Commit()
	if _, ok := m.Get("alice"); ok {
		t.Fatalf("Get(alice) should miss after committed remove")
	}
}

func TestVersionedMapRemoveAbsentKeyIsNoop(t *testing.T) {
	m := fields.NewVersionedMap[string, int]("m")
	if _, ok := m.Remove("ghost"); ok {
		t.Fatalf("Remove of an absent key should report false")
	}
}

func TestVersionedMapInsertAfterRemoveReplaces(t *testing.T) {
	m := fields.NewVersionedMap[string, int]("m")
	m.Insert("a", 1)
	m.Commit()
	m.Remove("a")
	// a is tombstoned in current; Insert should see it as absent and win.
	if got := m.Insert("a", 2); got != 2 {
		t.Fatalf("Insert after remove = %d, want 2", got)
	}
	m.Commit()
	if v, ok := m.Get("a"); !ok || v != 2 {
		t.Fatalf("Get(a) = (%d, %v), want (2, true)", v, ok)
	}
}

// TestVersionedMapInvariant checks spec invariant 4: for any sequence of
// insert/remove/commit/rollback, Get(k) equals the value of the most
// recent non-removed write to k across base and the uncommitted delta.
func TestVersionedMapInvariant(t *testing.T) {
	m := fields.NewVersionedMap[string, int]("m")
	model := map[string]int{}
	removed := map[string]bool{}

	apply := func(op string, key string, val int) {
		switch op {
		case "insert":
			if _, ok := model[key]; ok && !removed[key] {
				return // model already has it; field Insert is a no-op too
			}
			model[key] = val
			removed[key] = false
		case "remove":
			if _, ok := model[key]; !ok || removed[key] {
				return
			}
			removed[key] = true
		}
	}

	ops := []struct {
		op  string
		key string
		val int
	}{
		{"insert", "a", 1},
		{"insert", "b", 2},
		{"remove", "a", 0},
		{"insert", "a", 3}, // a was removed, so this should win
		{"insert", "b", 9}, // b already present, no-op
	}

	for _, o := range ops {
		switch o.op {
		case "insert":
			m.Insert(o.key, o.val)
		case "remove":
			m.Remove(o.key)
		}
		apply(o.op, o.key, o.val)
	}
	m.Commit()

	for k, v := range model {
		if removed[k] {
			if _, ok := m.Get(k); ok {
				t.Fatalf("Get(%q) should miss, key was removed", k)
			}
			continue
		}
		got, ok := m.Get(k)
		if !ok || got != v {
			t.Fatalf("Get(%q) = (%d, %v), want (%d, true)", k, got, ok, v)
		}
	}
}

func TestVersionedMapStoreLoadNewestWins(t *testing.T) {
	_, w, r, key := newTestRig(t)

	src := fields.NewVersionedMap[string, int]("balances")
	src.Insert("alice", 10)
	src.Insert("bob", 20)
	commit1 := storeAndFinish(t, w, key, src.Strategy().Store)
	src.Commit()

	src.Remove("bob")
	src.Insert("carol", 30)
	commit2 := storeAndFinish(t, w, key, src.Strategy().Store)
	src.Commit()

	// Loader replays newest-first: commit2 before commit1.
	dst := fields.NewVersionedMap[string, int]("balances")
	streams := []object.Stream{commit2, commit1}
	if err := dst.Strategy().Load(streams, r); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if v, ok := dst.Get("alice"); !ok || v != 10 {
		t.Fatalf("Get(alice) = (%d, %v), want (10, true)", v, ok)
	}
	if _, ok := dst.Get("bob"); ok {
		t.Fatalf("Get(bob) should miss: tombstoned in the newer commit")
	}
	if v, ok := dst.Get("carol"); !ok || v != 30 {
		t.Fatalf("Get(carol) = (%d, %v), want (30, true)", v, ok)
	}
}

func TestVersionedMapFieldDepthIsIncremental(t *testing.T) {
	m := fields.NewVersionedMap[string, int]("m")
	if m.FieldDepth() != fields.Incremental {
		t.Fatalf("FieldDepth() = %v, want Incremental", m.FieldDepth())
	}
	var _ fields.Committable = m
}
