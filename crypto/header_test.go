package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symmetree-labs/infinitree/object"
)

func TestArgon2UserPassSealOpenRoundTrip(t *testing.T) {
	scheme := NewArgon2UserPass("alice", "hunter2")

	inner, err := GenerateSymmetric()
	require.NoError(t, err)

	id, err := object.NewRandom()
	require.NoError(t, err)
	rootPtr := object.NewChunkPointer(0, 4096, id, object.Digest{}, object.Tag{}).Raw()

	sealed, err := scheme.SealRoot(CleartextHeader{RootPtr: rootPtr, Key: inner})
	require.NoError(t, err)

	opened, err := scheme.OpenRoot(sealed)
	require.NoError(t, err)
	require.Equal(t, rootPtr, opened.RootPtr)

	wantKey, _ := inner.ConvergenceKey()
	gotKey, ok := opened.Key.ConvergenceKey()
	require.True(t, ok)
	require.Equal(t, wantKey, gotKey)
}

func TestArgon2UserPassWrongPasswordFails(t *testing.T) {
	scheme := NewArgon2UserPass("alice", "hunter2")
	inner, err := GenerateSymmetric()
	require.NoError(t, err)

	sealed, err := scheme.SealRoot(CleartextHeader{Key: inner})
	require.NoError(t, err)

	wrong := NewArgon2UserPass("alice", "wrong password")
	_, err = wrong.OpenRoot(sealed)
	require.Error(t, err)
}

func TestArgon2UserPassRootObjectIDIsDeterministic(t *testing.T) {
	a := NewArgon2UserPass("alice", "hunter2")
	b := NewArgon2UserPass("alice", "hunter2")

	idA, err := a.RootObjectID()
	require.NoError(t, err)
	idB, err := b.RootObjectID()
	require.NoError(t, err)
	require.Equal(t, idA, idB)

	c := NewArgon2UserPass("alice", "different")
	idC, err := c.RootObjectID()
	require.NoError(t, err)
	require.NotEqual(t, idA, idC)
}

func TestMixed08BackwardCompatUpgrade(t *testing.T) {
	scheme := NewArgon2UserPass("alice", "hunter2")

	legacyConvergence, err := generateKey()
	require.NoError(t, err)
	legacy := newMixed08Scheme(scheme.legacyMasterKey, legacyConvergence)

	sealed, err := sealHeader(scheme.legacyMasterKey, modeMixed08, CleartextHeader{Key: legacy})
	require.NoError(t, err)

	opened, err := scheme.OpenRoot(sealed)
	require.NoError(t, err)

	gotKey, ok := opened.Key.ConvergenceKey()
	require.True(t, ok)
	require.Equal(t, legacyConvergence, gotKey)

	// Resealing always upgrades to the current (Symmetric) layout.
	resealed, err := scheme.SealRoot(opened)
	require.NoError(t, err)
	reopened, err := scheme.OpenRoot(resealed)
	require.NoError(t, err)
	_, isSymmetric := reopened.Key.(Symmetric)
	require.True(t, isSymmetric)
}
