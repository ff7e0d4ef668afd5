package tree

// CommitMode controls whether Commit persists an empty generation.
type CommitMode int

const (
	// OnlyOnChange skips persisting a commit whose fields produced no
	// new chunks at all -- the default, and what Commit uses.
	OnlyOnChange CommitMode = iota
	// Always persists a commit even if every field came back empty,
	// useful for recording a message-only checkpoint.
	Always
)
