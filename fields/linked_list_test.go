package fields_test

import (
	"testing"

	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/object"
)

func TestLinkedListAppendFirstLast(t *testing.T) {
	l := fields.NewLinkedList[string]("events")
	if _, ok := l.First(); ok {
		t.Fatalf("First() on empty list should miss")
	}

	l.Append("a")
	l.Append("b")
	if v, ok := l.First(); !ok || v != "a" {
		t.Fatalf("First() = (%q, %v), want (a, true)", v, ok)
	}
	if v, ok := l.Last(); !ok || v != "b" {
		t.Fatalf("Last() = (%q, %v), want (b, true)", v, ok)
	}
	if v, ok := l.FirstInCommit(); !ok || v != "a" {
		t.Fatalf("FirstInCommit() = (%q, %v), want (a, true)", v, ok)
	}
}

func TestLinkedListCommitMovesPendingToCommitted(t *testing.T) {
	l := fields.NewLinkedList[int]("events")
	l.Append(1)
	l.Append(2)
	l.Commit()

	if _, ok := l.FirstInCommit(); ok {
		t.Fatalf("FirstInCommit() should miss right after a Commit")
	}
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	l.Append(3)
	if v, ok := l.FirstInCommit(); !ok || v != 3 {
		t.Fatalf("FirstInCommit() = (%d, %v), want (3, true)", v, ok)
	}
	if v, ok := l.Last(); !ok || v != 3 {
		t.Fatalf("Last() = (%d, %v), want (3, true)", v, ok)
	}
}

func TestLinkedListRollbackDiscardsPending(t *testing.T) {
	l := fields.NewLinkedList[int]("events")
	l.Append(1)
	l.Commit()
	l.Append(2)
	l.Rollback()

	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	if v, ok := l.Last(); !ok || v != 1 {
		t.Fatalf("Last() = (%d, %v), want (1, true)", v, ok)
	}
}

func TestLinkedListClearEmptiesEverything(t *testing.T) {
	l := fields.NewLinkedList[int]("events")
	l.Append(1)
	l.Commit()
	l.Append(2)
	l.Clear()
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
}

func TestLinkedListStoreLoadReconstructsOrder(t *testing.T) {
	_, w, r, key := newTestRig(t)

	src := fields.NewLinkedList[int]("events")
	src.Append(1)
	src.Append(2)
	commit1 := storeAndFinish(t, w, key, src.Strategy().Store)
	src.Commit()

	src.Append(3)
	src.Append(4)
	commit2 := storeAndFinish(t, w, key, src.Strategy().Store)
	src.Commit()

	dst := fields.NewLinkedList[int]("events")
	streams := []object.Stream{commit2, commit1} // newest-first, as a loader would supply
	if err := dst.Strategy().Load(streams, r); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if dst.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", dst.Len())
	}
	for i, want := range []int{1, 2, 3, 4} {
		if got := dst.At(i); got != want {
			t.Fatalf("element %d = %d, want %d", i, got, want)
		}
	}
}
