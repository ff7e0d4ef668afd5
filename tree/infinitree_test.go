package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symmetree-labs/infinitree/backend"
	"github.com/symmetree-labs/infinitree/crypto"
	"github.com/symmetree-labs/infinitree/fields"
	"github.com/symmetree-labs/infinitree/index"
)

func newTestKeying(t *testing.T) crypto.KeyingScheme {
	t.Helper()
	header := crypto.NewArgon2UserPass("alice", "swordfish")
	internal, err := crypto.GenerateSymmetric()
	require.NoError(t, err)
	return crypto.Bind(header, internal)
}

func TestCommitAndReopenRoundTrip(t *testing.T) {
	be := backend.NewInMemory()
	keying := newTestKeying(t)

	idx := fields.NewIndex()
	notes := fields.NewSerialized[string]("notes")
	idx.Add(notes)

	t1 := Empty(be, idx, keying)
	notes.Set("first")
	require.NoError(t, t1.Commit("first commit"))

	header := keying.(crypto.BoundScheme).HeaderScheme

	idx2 := fields.NewIndex()
	notes2 := fields.NewSerialized[string]("notes")
	idx2.Add(notes2)

	t2, err := Open(be, idx2, header)
	require.NoError(t, err)
	require.Len(t, t2.Commits(), 1)

	require.NoError(t, t2.LoadAll())
	require.Equal(t, "first", notes2.Get())
}

func TestCommitOnlyOnChangeSkipsEmptyGeneration(t *testing.T) {
	be := backend.NewInMemory()
	keying := newTestKeying(t)

	idx := fields.NewIndex()
	m := fields.NewVersionedMap[string, string]("things")
	idx.Add(m)

	tr := Empty(be, idx, keying)
	m.Insert("a", "1")
	require.NoError(t, tr.Commit("first"))
	require.Len(t, tr.Commits(), 1)

	// No change to any field -- OnlyOnChange must skip this commit.
	require.NoError(t, tr.Commit("no-op"))
	require.Len(t, tr.Commits(), 1)

	m.Insert("b", "2")
	require.NoError(t, tr.Commit("second"))
	require.Len(t, tr.Commits(), 2)
}

func TestCommitAlwaysPersistsEmptyGeneration(t *testing.T) {
	be := backend.NewInMemory()
	keying := newTestKeying(t)

	idx := fields.NewIndex()
	idx.Add(fields.NewVersionedMap[string, string]("things"))

	tr := Empty(be, idx, keying)
	require.NoError(t, tr.CommitWithCustomData("empty", Always, nil))
	require.Len(t, tr.Commits(), 1)
}

// TestResealRotatesHeaderCredentials exercises spec scenario (e): create
// a tree, commit, reseal under new credentials, then confirm the new
// credentials open it and recover identical index content. (The old
// header object is left in place, unaffected -- Reseal never deletes
// it -- so it would still open under the old credentials too; this test
// only asserts the rotation's positive case.)
func TestResealRotatesHeaderCredentials(t *testing.T) {
	be := backend.NewInMemory()
	oldHeader := crypto.NewArgon2UserPass("test", "test")
	internal, err := crypto.GenerateSymmetric()
	require.NoError(t, err)

	idx := fields.NewIndex()
	notes := fields.NewSerialized[string]("notes")
	idx.Add(notes)

	t1 := Empty(be, idx, crypto.Bind(oldHeader, internal))
	notes.Set("first")
	require.NoError(t, t1.Commit("first commit"))

	newHeader := crypto.NewArgon2UserPass("test", "rotated-password")
	require.NoError(t, t1.Reseal(newHeader))

	idxNew := fields.NewIndex()
	notesNew := fields.NewSerialized[string]("notes")
	idxNew.Add(notesNew)

	t2, err := Open(be, idxNew, newHeader)
	require.NoError(t, err)
	require.Len(t, t2.Commits(), 1)

	require.NoError(t, t2.LoadAll())
	require.Equal(t, "first", notesNew.Get())
}

func TestFilterSingleCommitSelectsExactlyOneGeneration(t *testing.T) {
	be := backend.NewInMemory()
	keying := newTestKeying(t)

	idx := fields.NewIndex()
	m := fields.NewVersionedMap[string, string]("things")
	idx.Add(m)

	tr := Empty(be, idx, keying)
	m.Insert("a", "1")
	require.NoError(t, tr.Commit("v1"))
	first := tr.Commits()[0].ID

	m.Insert("b", "2")
	require.NoError(t, tr.Commit("v2"))

	tr.FilterCommits(index.FilterSingleCommit(first))
	streams, err := tr.StreamsFor("things")
	require.NoError(t, err)
	require.Len(t, streams, 1)
}
