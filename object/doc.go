// Package object implements the fixed-size encrypted blob layer: object
// ids, the 4 MiB write/read buffers, the chunk pointer wire format, and the
// writer/reader pair that packs compressed, encrypted payloads into objects
// and hands them to a backend.
package object
