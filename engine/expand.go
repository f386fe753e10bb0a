package engine

import (
	"sort"

	"linemap/text"
	"linemap/types"
)

// expandBlocks grows clean 1:1 matches into many-old-to-one-new groups.
// Starting from each anchor it walks outward over unmatched old lines and
// reassigns them to the anchor's new line while their similarity to it stays
// above max(ExpandFloor, ExpandRatio*baseline). This recovers merged and
// duplicated lines, the only case where several entries share a new line.
//
// The input table is not modified; a new table is returned together with
// the number of absorbed lines.
func expandBlocks(s *State, entries []types.Entry) ([]types.Entry, int) {
	p := s.Params

	out := make([]types.Entry, len(entries))
	copy(out, entries)

	index := make(map[int]int, len(out))
	claimed := make(map[int]bool, len(out))
	for i, e := range out {
		index[e.Old] = i
		if e.Status != types.StatusUnmatched {
			claimed[e.Old] = true
		}
	}

	// Anchors are fixed before any absorption happens.
	byNew := make(map[int][]types.Entry)
	for _, e := range entries {
		if e.Status == types.StatusMatch && len(e.New) == 1 {
			byNew[e.New[0]] = append(byNew[e.New[0]], e)
		}
	}
	var anchors []types.Entry
	for _, group := range byNew {
		if len(group) >= 1 && len(group) <= p.ExpandMaxGroup {
			anchors = append(anchors, group...)
		}
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Old < anchors[j].Old })

	absorbed := 0
	for _, a := range anchors {
		n := a.New[0]
		baseline, _, _ := s.score(a.Old, n, p.CandidateContextRadius)
		threshold := max(p.ExpandFloor, p.ExpandRatio*baseline)

		for _, dir := range []int{-1, 1} {
			for step := 1; step <= p.ExpandMaxSteps; step++ {
				o := a.Old + dir*step
				if o < 1 || o > len(s.Old) || claimed[o] {
					break
				}
				if text.IsTrivial(s.oldLine(o).Norm) {
					continue
				}
				i, ok := index[o]
				if !ok {
					break
				}

				score, _, _ := s.score(o, n, p.CandidateContextRadius)
				if score < threshold {
					break
				}
				out[i] = types.Entry{Old: o, New: []int{n}, Status: types.StatusMatch, Score: score}
				claimed[o] = true
				absorbed++
			}
		}
	}
	return out, absorbed
}
