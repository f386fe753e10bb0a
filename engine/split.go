package engine

import (
	"strings"

	"linemap/text"
	"linemap/types"
)

// splitGroup is a run of contiguous new lines considered as the
// continuation of one old line.
type splitGroup struct {
	lines []int
	score float64
}

// matchSplits detects old lines that were broken over 2-3 new lines, e.g. a
// one-line function body reformatted onto several lines. Only groups
// starting within SplitMaxOffset lines of the old line are considered.
func matchSplits(s *State) int {
	p := s.Params
	accepted := 0

	for _, ol := range s.Old {
		if s.usedOld[ol.Number] || text.IsTrivial(ol.Norm) {
			continue
		}

		best := bestSplitGroup(s, ol)
		if best == nil || best.score < p.SplitThreshold {
			continue
		}
		if s.claim(ol.Number, best.lines, types.StatusMatchSplit, best.score) {
			accepted++
		}
	}
	return accepted
}

// bestSplitGroup scores every admissible group for an old line and returns
// the highest scoring one; the first group found wins ties.
func bestSplitGroup(s *State, ol types.Line) *splitGroup {
	p := s.Params
	w := p.Weights()
	ctxOld := text.Context(s.Old, ol.Number, p.SplitContextRadius)

	var best *splitGroup
	for i, start := range s.New {
		if abs(ol.Number-start.Number) > p.SplitMaxOffset {
			continue
		}
		if s.usedNew[start.Number] || text.IsTrivial(start.Norm) {
			continue
		}

		for size := p.SplitMinGroup; size <= p.SplitMaxGroup; size++ {
			group, ok := collectGroup(s, i, size)
			if !ok {
				continue
			}

			norms := make([]string, len(group))
			for k, num := range group {
				norms[k] = s.newLine(num).Norm
			}
			content := text.ContentSimilarity(ol.Norm, strings.Join(norms, " "))
			context := text.ContextSimilarity(ctxOld, text.Context(s.New, start.Number, p.SplitContextRadius))
			score := w.Combine(content, context)

			if best == nil || score > best.score {
				best = &splitGroup{lines: group, score: score}
			}
		}
	}
	return best
}

// collectGroup returns the line numbers of size contiguous new lines
// starting at index i. Every line must be unclaimed; the first and last
// must be non-trivial, lines in between may be trivial so a split can
// bridge a brace left on its own line.
func collectGroup(s *State, i, size int) ([]int, bool) {
	if size < 2 || i+size > len(s.New) {
		return nil, false
	}
	group := make([]int, 0, size)
	for k := 0; k < size; k++ {
		nl := s.New[i+k]
		if s.usedNew[nl.Number] {
			return nil, false
		}
		group = append(group, nl.Number)
	}
	if text.IsTrivial(s.New[i].Norm) || text.IsTrivial(s.New[i+size-1].Norm) {
		return nil, false
	}
	return group, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
