package object

// DigestSize is the width of a content digest (Blake3 output truncated to
// 256 bits).
const DigestSize = 32

// TagSize is the width of a ChaCha20-Poly1305 authentication tag.
const TagSize = 16

// Digest is a 32-byte content hash, used both as the content-addressing
// key for a chunk and as the seed for that chunk's convergent encryption
// sub-key.
type Digest [DigestSize]byte

// Tag is a 16-byte AEAD authentication tag.
type Tag [TagSize]byte
