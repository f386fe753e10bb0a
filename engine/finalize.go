package engine

import (
	"sort"

	"linemap/text"
	"linemap/types"
)

// finalize returns the table sorted by old line number. With
// EmitTrivialUnmatched set, trivial old lines that have no entry get an
// unmatched one first; by default they are left out of the table.
func finalize(s *State, entries []types.Entry) []types.Entry {
	out := make([]types.Entry, len(entries), len(entries)+len(s.Old))
	copy(out, entries)

	if s.Params.EmitTrivialUnmatched {
		seen := make(map[int]bool, len(out))
		for _, e := range out {
			seen[e.Old] = true
		}
		for _, ol := range s.Old {
			if !seen[ol.Number] && text.IsTrivial(ol.Norm) {
				out = append(out, types.Entry{Old: ol.Number, New: []int{}, Status: types.StatusUnmatched})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Old < out[j].Old })
	return out
}
