package object

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	crypto := fakeCrypto{}

	w, err := NewWriter(backend, crypto)
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 100)
	ptr, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	r := NewReader(backend, crypto)
	got, err := r.Read(nil, ptr)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestWriterFlushesWhenChunkDoesNotFit(t *testing.T) {
	backend := newFakeBackend()
	crypto := fakeCrypto{}

	w, err := NewWriter(backend, crypto)
	require.NoError(t, err)

	// incompressible data, sized so two of them can't both fit in one
	// object tail, forcing an implicit flush between writes.
	big := make([]byte, Capacity*2/3)
	_, _ = rand.Read(big)

	ptr1, err := w.Write(big)
	require.NoError(t, err)
	ptr2, err := w.Write(big)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	require.NotEqual(t, ptr1.ObjectID(), ptr2.ObjectID())

	r := NewReader(backend, crypto)
	got1, err := r.Read(nil, ptr1)
	require.NoError(t, err)
	got2, err := r.Read(nil, ptr2)
	require.NoError(t, err)
	require.NotEqual(t, got1, got2) // compression won't shrink random data identically at these offsets
}

func TestWriteChunkRejectsOversizedPayload(t *testing.T) {
	backend := newFakeBackend()
	crypto := fakeCrypto{}

	w, err := NewWriter(backend, crypto)
	require.NoError(t, err)

	tooBig := make([]byte, Capacity+1024*1024)
	_, _ = rand.Read(tooBig) // incompressible, so zstd can't shrink it under the bound
	_, err = w.Write(tooBig)
	require.Error(t, err)

	var tle *ChunkTooLargeError
	require.ErrorAs(t, err, &tle)
}

func TestRootWriterPinsFirstObjectToRootID(t *testing.T) {
	backend := newFakeBackend()
	crypto := fakeCrypto{}

	rootID, err := NewRandom()
	require.NoError(t, err)

	w, err := NewRootWriter(backend, crypto, rootID, nil)
	require.NoError(t, err)
	require.Equal(t, rootID, w.CurrentObjectID())

	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	_, err = backend.ReadFresh(rootID)
	require.NoError(t, err)
}

func TestRootWriterReusesRewriteIDsForContinuationObjects(t *testing.T) {
	backend := newFakeBackend()
	crypto := fakeCrypto{}

	rootID, err := NewRandom()
	require.NoError(t, err)
	reused, err := NewRandom()
	require.NoError(t, err)

	w, err := NewRootWriter(backend, crypto, rootID, []ID{reused})
	require.NoError(t, err)

	// incompressible data, sized so two of them can't both fit in one
	// object tail, forcing the writer to flush the root object (under
	// rootID) and roll over into a continuation object.
	big := make([]byte, Capacity*2/3)
	_, _ = rand.Read(big)

	ptr1, err := w.Write(big)
	require.NoError(t, err)
	require.Equal(t, rootID, ptr1.ObjectID())

	ptr2, err := w.Write(big)
	require.NoError(t, err)
	require.Equal(t, reused, ptr2.ObjectID())

	require.NoError(t, w.Flush())

	_, err = backend.ReadFresh(rootID)
	require.NoError(t, err)
	_, err = backend.ReadFresh(reused)
	require.NoError(t, err)
}
