package fields

import (
	"fmt"
	"sync"

	"github.com/symmetree-labs/infinitree/codec"
	"github.com/symmetree-labs/infinitree/object"
)

// LinkedList is an append-only sequence field. It substitutes a mutex-
// protected slice for a lock-free linked list, the same allowance spec
// §9 makes for Map. Appends since the last Commit live in an uncommitted
// pending tail; Commit moves them into the committed sequence, Rollback
// discards them. FirstInCommit reports the first element appended since
// the last commit, letting callers detect whether the current commit
// has touched the list at all. Incremental depth: each commit's Store
// phase serializes only the pending tail, and Load replays every stream
// in the filtered range to reconstruct the full sequence in the order
// the elements were originally appended.
type LinkedList[T any] struct {
	name      string
	mu        sync.RWMutex
	committed []T
	pending   []T
}

// NewLinkedList constructs an empty LinkedList field named name.
func NewLinkedList[T any](name string) *LinkedList[T] {
	return &LinkedList[T]{name: name}
}

// Append adds v to the uncommitted tail.
func (l *LinkedList[T]) Append(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, v)
}

// Len returns the number of committed plus pending elements.
func (l *LinkedList[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.committed) + len(l.pending)
}

// At returns the i'th element in append order, committed elements first.
func (l *LinkedList[T]) At(i int) T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < len(l.committed) {
		return l.committed[i]
	}
	return l.pending[i-len(l.committed)]
}

// First returns the oldest element in the list, committed or pending.
func (l *LinkedList[T]) First() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.committed) > 0 {
		return l.committed[0], true
	}
	if len(l.pending) > 0 {
		return l.pending[0], true
	}
	var zero T
	return zero, false
}

// Last returns the most recently appended element.
func (l *LinkedList[T]) Last() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.pending) > 0 {
		return l.pending[len(l.pending)-1], true
	}
	if len(l.committed) > 0 {
		return l.committed[len(l.committed)-1], true
	}
	var zero T
	return zero, false
}

// FirstInCommit returns the first element appended since the last
// Commit or Rollback, i.e. the head of the uncommitted tail.
func (l *LinkedList[T]) FirstInCommit() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.pending) == 0 {
		var zero T
		return zero, false
	}
	return l.pending[0], true
}

// Commit moves every pending element into the committed sequence.
func (l *LinkedList[T]) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = append(l.committed, l.pending...)
	l.pending = nil
}

// Rollback discards every element appended since the last commit.
func (l *LinkedList[T]) Rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
}

// Clear empties the list entirely, committed and pending alike.
func (l *LinkedList[T]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = nil
	l.pending = nil
}

// FieldName implements Field.
func (l *LinkedList[T]) FieldName() string { return l.name }

// FieldDepth implements Field.
func (l *LinkedList[T]) FieldDepth() Depth { return Incremental }

// Strategy implements Field.
func (l *LinkedList[T]) Strategy() Strategy {
	return linkedListStrategy[T]{l: l}
}

type linkedListStrategy[T any] struct {
	l *LinkedList[T]
}

func (s linkedListStrategy[T]) Store(sink *object.BufferedSink) error {
	s.l.mu.RLock()
	batch := make([]T, len(s.l.pending))
	copy(batch, s.l.pending)
	s.l.mu.RUnlock()

	if len(batch) == 0 {
		// Nothing appended this commit: write nothing, so the resulting
		// Stream has zero chunks and an OnlyOnChange commit can detect
		// this field contributed no change.
		return nil
	}

	enc := codec.NewEncoder()
	if err := enc.Encode(batch); err != nil {
		return fmt.Errorf("fields: failed to encode linked list batch: %w", err)
	}
	_, err := sink.Write(enc.Bytes())
	return err
}

func (s linkedListStrategy[T]) Load(streams []object.Stream, reader *object.AEADReader) error {
	batches := make([][]T, 0, len(streams))
	for _, stream := range streams { // newest-first
		buf, err := reader.ReadAll(nil, stream)
		if err != nil {
			return fmt.Errorf("fields: failed to read linked list stream: %w", err)
		}
		var batch []T
		if len(buf) > 0 {
			if err := codec.NewDecoder(buf).Decode(&batch); err != nil {
				return fmt.Errorf("fields: failed to decode linked list batch: %w", err)
			}
		}
		batches = append(batches, batch)
	}

	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	for i := len(batches) - 1; i >= 0; i-- { // replay oldest commit first
		s.l.committed = append(s.l.committed, batches[i]...)
	}
	return nil
}
