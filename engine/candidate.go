package engine

import (
	"sort"

	"linemap/text"
	"linemap/types"
)

// candidate is a scored old/new pairing awaiting global resolution
type candidate struct {
	old   int
	new   int
	score float64
}

// matchCandidates scores every remaining non-trivial old line against every
// remaining non-trivial new line, pools the best candidates of all old lines
// and resolves them greedily by descending score. Old lines left without a
// match receive an explicit unmatched entry.
func matchCandidates(s *State) int {
	p := s.Params

	// Offsets are derived from the matches accepted before this stage only,
	// so the result does not depend on the order candidates are scored in.
	snapshot := append([]types.Entry(nil), s.entries...)

	var pool []candidate
	for _, ol := range s.Old {
		if s.usedOld[ol.Number] || text.IsTrivial(ol.Norm) {
			continue
		}
		offset := dominantOffset(snapshot, ol.Number, p.OffsetWindow)
		pool = append(pool, scoreCandidates(s, ol, offset)...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score > pool[j].score
	})

	accepted := 0
	for _, c := range pool {
		if s.usedOld[c.old] || s.usedNew[c.new] {
			continue
		}
		status := types.StatusMatch
		if s.oldTrivial(c.old) && s.newTrivial(c.new) {
			status = types.StatusTrivialMatch
		}
		if s.claim(c.old, []int{c.new}, status, c.score) {
			accepted++
		}
	}

	for _, ol := range s.Old {
		if !s.usedOld[ol.Number] && !text.IsTrivial(ol.Norm) {
			s.markUnmatched(ol.Number)
		}
	}
	return accepted
}

// scoreCandidates returns the TopK candidates of one old line that reach
// CandidateThreshold, best first. Equal scores keep new-line order.
func scoreCandidates(s *State, ol types.Line, offset int) []candidate {
	p := s.Params
	w := p.Weights()
	ctxOld := text.Context(s.Old, ol.Number, p.CandidateContextRadius)

	var cands []candidate
	for _, nl := range s.New {
		if s.usedNew[nl.Number] || text.IsTrivial(nl.Norm) {
			continue
		}
		content := text.ContentSimilarity(ol.Norm, nl.Norm)
		context := text.ContextSimilarity(ctxOld, text.Context(s.New, nl.Number, p.CandidateContextRadius))
		score := w.Combine(content, context)
		score += positionalBias(p, content, context, ol.Number, nl.Number, offset)

		cands = append(cands, candidate{old: ol.Number, new: nl.Number, score: score})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
	if len(cands) > p.TopK {
		cands = cands[:p.TopK]
	}

	kept := cands[:0]
	for _, c := range cands {
		if c.score >= p.CandidateThreshold {
			kept = append(kept, c)
		}
	}
	return kept
}

// positionalBias lifts weak candidates that sit where the surrounding
// matches predict the old line to have moved. It only applies when the
// content barely agrees but the neighbourhood does, and fades linearly to
// zero over BiasDistance lines from the expected position.
func positionalBias(p Params, content, context float64, o, n, offset int) float64 {
	if content >= p.BiasContentMax || context <= 0 || p.BiasDistance <= 0 {
		return 0
	}
	dist := abs(n - (o + offset))
	factor := 1.0 - float64(dist)/float64(p.BiasDistance)
	if factor <= 0 {
		return 0
	}
	return p.BiasMax * factor
}

// dominantOffset returns the most frequent new-old delta among accepted 1:1
// matches whose old line lies within window lines of o. Ties prefer the
// smaller absolute delta, then the smaller delta. Returns 0 when no match is
// in range.
func dominantOffset(entries []types.Entry, o, window int) int {
	counts := make(map[int]int)
	for _, e := range entries {
		if len(e.New) != 1 {
			continue
		}
		if e.Status != types.StatusMatch && e.Status != types.StatusTrivialMatch {
			continue
		}
		if abs(e.Old-o) > window {
			continue
		}
		counts[e.New[0]-e.Old]++
	}

	best, bestCount := 0, 0
	for delta, n := range counts {
		switch {
		case n > bestCount:
			best, bestCount = delta, n
		case n == bestCount && (abs(delta) < abs(best) || (abs(delta) == abs(best) && delta < best)):
			best = delta
		}
	}
	return best
}
