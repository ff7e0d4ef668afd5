// Package tree wraps an index's fields with versioning and key
// management, implementing the tree-level operations of spec §4:
// opening/creating a tree, committing a new generation, and loading or
// querying a field's history under a CommitFilter.
package tree
