package object

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// fakeBackend is a minimal in-memory Backend for exercising the object
// layer without pulling in the backend package, which itself depends on
// object (see roles.go for why the dependency only runs one way).
type fakeBackend struct {
	mu      sync.Mutex
	objects map[ID][]byte
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: make(map[ID][]byte)}
}

func (b *fakeBackend) WriteObject(o *WriteObject) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(o.Bytes()))
	copy(cp, o.Bytes())
	b.objects[o.ID()] = cp
	return nil
}

func (b *fakeBackend) ReadObject(id ID) (*ReadObject, error) {
	return b.ReadFresh(id)
}

func (b *fakeBackend) ReadFresh(id ID) (*ReadObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.objects[id]
	if !ok {
		return nil, fmt.Errorf("fakeBackend: no such object %s", id)
	}
	return NewReadObject(id, buf), nil
}

// fakeCrypto is a deterministic, insecure stand-in for a real
// crypto.ChunkCrypto: it XORs with a key derived from the hash, which is
// enough to exercise the object package's framing logic (offsets, tags
// threaded separately from ciphertext, tail padding) without depending on
// the crypto package.
type fakeCrypto struct{}

func (fakeCrypto) Hash(content []byte) Digest {
	return blake2b.Sum256(content)
}

func (fakeCrypto) EncryptChunk(object ID, hash Digest, data []byte) Tag {
	xorWithKey(data, hash)
	var tag Tag
	copy(tag[:], hash[:TagSize])
	return tag
}

func (fakeCrypto) DecryptChunk(target, source []byte, ptr ChunkPointer) error {
	if &target[0] != &source[0] {
		copy(target, source)
	}
	xorWithKey(target, ptr.Digest())
	return nil
}

func xorWithKey(data []byte, key Digest) {
	for i := range data {
		data[i] ^= key[i%len(key)]
	}
}
