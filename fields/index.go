package fields

import (
	"fmt"
	"sync"
)

// Index is an ordered, named collection of Fields. Insertion order is
// preserved and is what a commit's field Store phase iterates in,
// matching the ordering guarantee that field stores within one commit
// run in declaration order.
type Index struct {
	mu     sync.Mutex
	order  []string
	fields map[string]Field
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{fields: make(map[string]Field)}
}

// Add registers f under its own FieldName, preserving insertion order.
// Adding a field whose name is already registered panics: the set of
// field names in an Index must be stable and distinct, the same
// contract the code-generated accessor layer this package replaces
// would enforce at compile time.
func (idx *Index) Add(f Field) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	name := f.FieldName()
	if _, exists := idx.fields[name]; exists {
		panic(fmt.Sprintf("fields: duplicate field name %q", name))
	}
	idx.fields[name] = f
	idx.order = append(idx.order, name)
}

// Fields returns every registered field, in declaration order.
func (idx *Index) Fields() []Field {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]Field, len(idx.order))
	for i, name := range idx.order {
		out[i] = idx.fields[name]
	}
	return out
}

// Get returns the field registered under name, if any.
func (idx *Index) Get(name string) (Field, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	f, ok := idx.fields[name]
	return f, ok
}
