package backend

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symmetree-labs/infinitree/object"
)

func newTestObject(t *testing.T, fill byte) *object.WriteObject {
	t.Helper()
	id, err := object.NewRandom()
	require.NoError(t, err)
	o := object.NewWriteObject(id)
	o.Advance(len(o.Tail()) - 1024)
	for i := range o.Tail() {
		o.Tail()[i] = fill
	}
	o.Advance(1024)
	require.NoError(t, o.PadTail(func(b []byte) error { return nil }))
	return o
}

func TestDirectoryWriteReadRoundTrip(t *testing.T) {
	dir, err := NewDirectory(filepath.Join(t.TempDir(), "objects"))
	require.NoError(t, err)

	o := newTestObject(t, 0x42)
	require.NoError(t, dir.WriteObject(o))

	ro, err := dir.ReadObject(o.ID())
	require.NoError(t, err)
	require.Equal(t, o.Bytes(), ro.Bytes())
}

func TestDirectoryReadMissingIsNotFound(t *testing.T) {
	dir, err := NewDirectory(filepath.Join(t.TempDir(), "objects"))
	require.NoError(t, err)

	id, err := object.NewRandom()
	require.NoError(t, err)

	_, err = dir.ReadObject(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryDeleteThenMissing(t *testing.T) {
	dir, err := NewDirectory(filepath.Join(t.TempDir(), "objects"))
	require.NoError(t, err)

	o := newTestObject(t, 0x7)
	require.NoError(t, dir.WriteObject(o))
	require.NoError(t, dir.Delete(o.ID()))

	_, err = dir.ReadObject(o.ID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryDeleteMissingIsNotAnError(t *testing.T) {
	dir, err := NewDirectory(filepath.Join(t.TempDir(), "objects"))
	require.NoError(t, err)

	id, err := object.NewRandom()
	require.NoError(t, err)
	require.NoError(t, dir.Delete(id))
}
