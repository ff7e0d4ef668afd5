package index

import "fmt"

// FilterKind distinguishes the four ways a CommitFilter selects commits.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterSingle
	FilterUpTo
	FilterRange
)

// CommitFilter restricts which commits' field streams a load, query or
// iter walk considers. The zero value is FilterAll.
type CommitFilter struct {
	kind  FilterKind
	id    CommitID // Single, UpTo: the one commit / upper bound
	start CommitID // Range: inclusive lower bound
	end   CommitID // Range: inclusive upper bound
}

// FilterAllCommits selects every commit in the tree's history.
func FilterAllCommits() CommitFilter { return CommitFilter{kind: FilterAll} }

// FilterSingleCommit selects exactly id's own streams, even if id's
// ancestors are missing from the CommitList (spec §4.6, §8 scenario c).
func FilterSingleCommit(id CommitID) CommitFilter {
	return CommitFilter{kind: FilterSingle, id: id}
}

// FilterUpToCommit selects id and every ancestor reachable by following
// Previous links.
func FilterUpToCommit(id CommitID) CommitFilter {
	return CommitFilter{kind: FilterUpTo, id: id}
}

// FilterCommitRange selects every commit on the Previous chain from end
// back to start, inclusive of both ends.
func FilterCommitRange(start, end CommitID) CommitFilter {
	return CommitFilter{kind: FilterRange, start: start, end: end}
}

// Resolve walks list according to f's kind, returning the set of
// selected CommitIDs. A nil map return value from StreamsFor callers
// means "unrestricted"; Resolve never returns nil on success.
func (f CommitFilter) Resolve(list *CommitList) (map[CommitID]struct{}, error) {
	switch f.kind {
	case FilterAll:
		out := make(map[CommitID]struct{})
		for _, c := range list.Commits() {
			out[c.ID] = struct{}{}
		}
		return out, nil

	case FilterSingle:
		if _, ok := list.Get(f.id); !ok {
			return nil, fmt.Errorf("index: commit %s not found", f.id)
		}
		return map[CommitID]struct{}{f.id: {}}, nil

	case FilterUpTo:
		return walkPreviousChain(list, f.id, CommitID{}, true)

	case FilterRange:
		return walkPreviousChain(list, f.end, f.start, false)

	default:
		return nil, fmt.Errorf("index: unknown filter kind %d", f.kind)
	}
}

// walkPreviousChain walks list's Previous links starting at upper. If
// toGenesis, it walks all the way to the root commit; otherwise it stops
// as soon as it reaches lower, inclusive.
func walkPreviousChain(list *CommitList, upper, lower CommitID, toGenesis bool) (map[CommitID]struct{}, error) {
	out := make(map[CommitID]struct{})
	cur := upper
	for {
		c, ok := list.Get(cur)
		if !ok {
			return nil, fmt.Errorf("index: commit %s not found while resolving filter", cur)
		}
		out[cur] = struct{}{}

		if !toGenesis && cur == lower {
			break
		}
		if c.Metadata.Previous == nil {
			break
		}
		cur = *c.Metadata.Previous
	}
	return out, nil
}
