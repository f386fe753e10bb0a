package engine

import (
	"strings"

	"linemap/logger"
	"linemap/text"
	"linemap/types"
)

// AlignDP is the global sequence-alignment alternative to Map. It finds the
// order-preserving alignment maximizing the summed combined similarity of
// matched pairs minus DPGapPenalty per skipped line. A pair may only be
// matched when its similarity reaches DPMatchMin; pairs involving a trivial
// line additionally need identical text.
//
// Unlike Map it never reorders, splits or merges lines. It is kept for
// comparative evaluation. Scores are kept for two rows only; the traceback
// needs one byte per old/new pair.
func AlignDP(oldLines, newLines []types.Line, params Params) []types.Entry {
	defer logger.Trace("engine.AlignDP")()

	s := NewState(oldLines, newLines, params)
	n, m := len(oldLines), len(newLines)
	w := params.Weights()
	radius := params.CandidateContextRadius

	ctxOld := make([]string, n)
	for i, l := range oldLines {
		ctxOld[i] = strings.Join(text.Context(oldLines, l.Number, radius), " ")
	}
	ctxNew := make([]string, m)
	for j, l := range newLines {
		ctxNew[j] = strings.Join(text.Context(newLines, l.Number, radius), " ")
	}

	// sim returns the pair score, or -1 when the pair may not be matched.
	sim := func(i, j int) float64 {
		ol, nl := oldLines[i], newLines[j]
		if (text.IsTrivial(ol.Norm) || text.IsTrivial(nl.Norm)) && ol.Norm != nl.Norm {
			return -1
		}
		score := w.Combine(
			text.ContentSimilarity(ol.Norm, nl.Norm),
			text.ContentSimilarity(ctxOld[i], ctxNew[j]),
		)
		if score < params.DPMatchMin {
			return -1
		}
		return score
	}

	gap := params.DPGapPenalty
	prev := make([]float64, m+1)
	cur := make([]float64, m+1)
	for j := range prev {
		prev[j] = -gap * float64(j)
	}

	// moves[(i-1)*m+(j-1)] is the step taken into cell (i, j). Ties prefer
	// the diagonal, then skipping the old line.
	moves := make([]dpMove, n*m)
	for i := 1; i <= n; i++ {
		cur[0] = -gap * float64(i)
		for j := 1; j <= m; j++ {
			best, move := prev[j]-gap, dpSkipOld
			if left := cur[j-1] - gap; left > best {
				best, move = left, dpSkipNew
			}
			if sc := sim(i-1, j-1); sc >= 0 && prev[j-1]+sc >= best {
				best, move = prev[j-1]+sc, dpMatch
			}
			cur[j] = best
			moves[(i-1)*m+(j-1)] = move
		}
		prev, cur = cur, prev
	}

	type pair struct{ i, j int }
	var pairs []pair
	i, j := n, m
	for i > 0 && j > 0 {
		switch moves[(i-1)*m+(j-1)] {
		case dpMatch:
			pairs = append(pairs, pair{i - 1, j - 1})
			i--
			j--
		case dpSkipOld:
			i--
		default:
			j--
		}
	}

	for k := len(pairs) - 1; k >= 0; k-- {
		pr := pairs[k]
		ol, nl := oldLines[pr.i], newLines[pr.j]
		status := types.StatusMatch
		if text.IsTrivial(ol.Norm) && text.IsTrivial(nl.Norm) {
			status = types.StatusTrivialMatch
		}
		s.claim(ol.Number, []int{nl.Number}, status, sim(pr.i, pr.j))
	}
	for _, ol := range oldLines {
		if !s.OldClaimed(ol.Number) && !text.IsTrivial(ol.Norm) {
			s.markUnmatched(ol.Number)
		}
	}

	logger.Debug("engine: dp aligned %d of %d old lines", len(pairs), n)
	return finalize(s, s.Entries())
}

type dpMove uint8

const (
	dpSkipOld dpMove = iota
	dpSkipNew
	dpMatch
)
