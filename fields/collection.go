package fields

import (
	"fmt"

	"github.com/symmetree-labs/infinitree/object"
)

// Verdict is returned by a Predicate to steer iteration over a
// Collection: Take yields the current item to the caller, Skip moves on
// without yielding it, Abort stops the walk immediately.
type Verdict int

const (
	Take Verdict = iota
	Skip
	Abort
)

// Predicate decides what to do with a single decoded item during a
// Query or Iter walk.
type Predicate[T any] func(item T) Verdict

// Collection describes how to deserialize a batch of records from a
// stream and extract a comparable key from each, so that iteration over
// an Incremental field's history can deduplicate records whose key has
// already been yielded by a newer commit.
type Collection[K comparable, T any] struct {
	// Decode turns one stream's plaintext into the records it holds.
	Decode func([]byte) ([]T, error)
	// KeyOf extracts the dedup key from a decoded record.
	KeyOf func(T) K
}

// Walk iterates streams -- the caller selects and orders them according
// to the field's Depth, newest-first for Incremental, single-element for
// Snapshot -- decoding each via c.Decode and running predicate over every
// record. Take invokes yield; Skip moves on; Abort stops the walk
// without error. For Incremental fields the walk key-caches: once a key
// has been seen (taken or not), records with that key from older commits
// are still decoded but skipped before predicate, matching the field's
// newest-write-wins replay semantics.
func (c Collection[K, T]) Walk(
	streams []object.Stream,
	reader *object.AEADReader,
	depth Depth,
	predicate Predicate[T],
	yield func(T) error,
) error {
	var seen map[K]struct{}
	if depth == Incremental {
		seen = make(map[K]struct{})
	}

	for _, stream := range streams {
		buf, err := reader.ReadAll(nil, stream)
		if err != nil {
			return fmt.Errorf("fields: failed to read collection stream: %w", err)
		}
		if len(buf) == 0 {
			if depth == Snapshot {
				break
			}
			continue
		}

		items, err := c.Decode(buf)
		if err != nil {
			return fmt.Errorf("fields: failed to decode collection batch: %w", err)
		}

		for _, item := range items {
			if seen != nil {
				k := c.KeyOf(item)
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
			}

			switch predicate(item) {
			case Take:
				if err := yield(item); err != nil {
					return err
				}
			case Skip:
				continue
			case Abort:
				return nil
			}
		}

		if depth == Snapshot {
			break
		}
	}
	return nil
}
