// Package crypto implements infinitree's header sealing and per-chunk
// authenticated encryption schemes.
//
// A tree's identity is split in two layers: a HeaderScheme locates and
// unlocks the 512-byte sealed header (username/password, Yubikey
// challenge-response, or the legacy Mixed08 format), and an
// InternalScheme derives the chunk/index/storage sub-keys from the
// convergence key stored inside that header. Changing how a tree is
// unlocked (HeaderScheme) never requires re-encrypting a single chunk;
// changing the InternalScheme would, and no operation in this package
// offers it.
package crypto
