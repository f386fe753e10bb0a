package engine

import (
	"linemap/text"
	"linemap/types"
)

// State is the working set of one comparison: both line sequences, the
// claimed line numbers and the entries accepted so far. Each stage receives
// the State left by its predecessor; nothing in it outlives a Map call.
type State struct {
	Old    []types.Line
	New    []types.Line
	Params Params

	usedOld map[int]bool
	usedNew map[int]bool
	entries []types.Entry
}

// NewState creates an empty match state for the given sequences.
func NewState(oldLines, newLines []types.Line, params Params) *State {
	return &State{
		Old:     oldLines,
		New:     newLines,
		Params:  params,
		usedOld: make(map[int]bool),
		usedNew: make(map[int]bool),
	}
}

// OldClaimed reports whether an old line already has a non-unmatched entry.
func (s *State) OldClaimed(num int) bool { return s.usedOld[num] }

// NewClaimed reports whether a new line is claimed by any entry.
func (s *State) NewClaimed(num int) bool { return s.usedNew[num] }

// Entries returns the entries accepted so far in acceptance order.
// The slice must not be modified.
func (s *State) Entries() []types.Entry { return s.entries }

// claim is the single entry point for accepting a match. It enforces:
//   - an old line is claimed at most once
//   - a new line is claimed at most once
//   - line numbers are within range
//
// Returns false and changes nothing when any check fails.
func (s *State) claim(old int, news []int, status types.Status, score float64) bool {
	if old < 1 || old > len(s.Old) || s.usedOld[old] {
		return false
	}
	for _, n := range news {
		if n < 1 || n > len(s.New) || s.usedNew[n] {
			return false
		}
	}

	s.usedOld[old] = true
	for _, n := range news {
		s.usedNew[n] = true
	}
	s.entries = append(s.entries, types.Entry{
		Old:    old,
		New:    append([]int(nil), news...),
		Status: status,
		Score:  score,
	})
	return true
}

// markUnmatched records an explicit unmatched entry. The old line stays
// unclaimed so block expansion can still absorb it.
func (s *State) markUnmatched(old int) {
	s.entries = append(s.entries, types.Entry{
		Old:    old,
		New:    []int{},
		Status: types.StatusUnmatched,
	})
}

func (s *State) oldLine(num int) types.Line { return s.Old[num-1] }
func (s *State) newLine(num int) types.Line { return s.New[num-1] }

func (s *State) oldTrivial(num int) bool { return text.IsTrivial(s.Old[num-1].Norm) }
func (s *State) newTrivial(num int) bool { return text.IsTrivial(s.New[num-1].Norm) }

// score computes the combined similarity of an old/new pair using
// neighbourhoods of the given radius.
func (s *State) score(o, n, radius int) (combined, content, context float64) {
	content = text.ContentSimilarity(s.oldLine(o).Norm, s.newLine(n).Norm)
	context = text.ContextSimilarity(
		text.Context(s.Old, o, radius),
		text.Context(s.New, n, radius),
	)
	return s.Params.Weights().Combine(content, context), content, context
}
