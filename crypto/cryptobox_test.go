package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symmetree-labs/infinitree/object"
)

func TestCryptoBoxStorageRoundTrip(t *testing.T) {
	senderPub, senderPriv, err := GenerateBoxKeypair()
	require.NoError(t, err)
	recipientPub, recipientPriv, err := GenerateBoxKeypair()
	require.NoError(t, err)

	inner, err := GenerateSymmetric()
	require.NoError(t, err)

	writer := NewCryptoBoxStorage(inner, senderPriv, *senderPub, *recipientPub, nil)
	reader := NewCryptoBoxStorage(inner, senderPriv, *senderPub, *recipientPub, recipientPriv)

	storageKeyW, err := writer.StorageKey()
	require.NoError(t, err)
	storageKeyR, err := reader.StorageKey()
	require.NoError(t, err)

	id, err := object.NewRandom()
	require.NoError(t, err)

	plaintext := []byte("backup blob for a write-only replica")
	data := append([]byte(nil), plaintext...)
	hash := storageKeyW.Hash(data)
	tag := storageKeyW.EncryptChunk(id, hash, data)
	ptr := object.NewChunkPointer(0, uint32(len(data)), id, hash, tag)

	// the write-only instance can never decrypt what it just sealed.
	err = storageKeyW.DecryptChunk(make([]byte, len(data)), data, ptr)
	require.Error(t, err)

	decrypted := make([]byte, len(data))
	err = storageKeyR.DecryptChunk(decrypted, data, ptr)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}
