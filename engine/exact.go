package engine

import (
	"linemap/text"
	"linemap/types"
)

// matchExact pairs lines with identical normalized text, first fit in old
// ascending then new ascending order. Trivial pairs such as "{" or ";" are
// only accepted when their neighbourhoods agree, otherwise every brace in
// the old file would pair with the first free brace in the new one.
func matchExact(s *State) int {
	p := s.Params
	accepted := 0

	for _, ol := range s.Old {
		if s.usedOld[ol.Number] {
			continue
		}
		trivial := text.IsTrivial(ol.Norm)

		for _, nl := range s.New {
			if s.usedNew[nl.Number] || ol.Norm != nl.Norm {
				continue
			}

			status := types.StatusMatch
			if trivial {
				ctxSim := text.ContextSimilarity(
					text.Context(s.Old, ol.Number, p.ExactContextRadius),
					text.Context(s.New, nl.Number, p.ExactContextRadius),
				)
				if ctxSim < p.TrivialContextMin {
					continue
				}
				status = types.StatusTrivialMatch
			}

			if s.claim(ol.Number, []int{nl.Number}, status, 1.0) {
				accepted++
				break
			}
		}
	}
	return accepted
}
