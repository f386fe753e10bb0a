package engine

import (
	"strings"

	"linemap/logger"
	"linemap/text"
	"linemap/types"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// AlignDiff is a baseline built on a plain line diff of the normalized
// texts. Equal runs map one to one; a deletion followed by an insertion is
// treated as a block of modifications whose lines are paired by best
// character-level similarity. Used to compare the staged pipeline against
// what an ordinary diff would propagate.
func AlignDiff(oldLines, newLines []types.Line, params Params) []types.Entry {
	defer logger.Trace("engine.AlignDiff")()

	s := NewState(oldLines, newLines, params)

	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(joinNorms(oldLines), joinNorms(newLines))
	diffs := dmp.DiffMain(chars1, chars2, false)
	lineDiffs := dmp.DiffCharsToLines(diffs, lineArray)

	oldNum, newNum := 0, 0
	for i := 0; i < len(lineDiffs); i++ {
		d := lineDiffs[i]
		lines := splitLines(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			for k := range lines {
				o, n := oldNum+k+1, newNum+k+1
				status := types.StatusMatch
				if s.oldTrivial(o) {
					status = types.StatusTrivialMatch
				}
				s.claim(o, []int{n}, status, 1.0)
			}
			oldNum += len(lines)
			newNum += len(lines)

		case diffmatchpatch.DiffDelete:
			if i+1 < len(lineDiffs) && lineDiffs[i+1].Type == diffmatchpatch.DiffInsert {
				inserted := splitLines(lineDiffs[i+1].Text)
				pairModifications(s, oldNum, newNum, len(lines), len(inserted))
				oldNum += len(lines)
				newNum += len(inserted)
				i++
			} else {
				oldNum += len(lines)
			}

		case diffmatchpatch.DiffInsert:
			newNum += len(lines)
		}
	}

	for _, ol := range oldLines {
		if !s.OldClaimed(ol.Number) && !text.IsTrivial(ol.Norm) {
			s.markUnmatched(ol.Number)
		}
	}
	return finalize(s, s.Entries())
}

// pairModifications matches deleted old lines to inserted new lines of the
// same hunk. Each deleted line takes its most similar free inserted line
// when the similarity reaches DiffSimilarityMin.
func pairModifications(s *State, oldStart, newStart, deleted, inserted int) {
	used := make(map[int]bool)
	for d := 1; d <= deleted; d++ {
		o := oldStart + d
		if s.oldTrivial(o) {
			continue
		}

		bestIdx, bestSim := -1, 0.0
		for k := 1; k <= inserted; k++ {
			if used[k] {
				continue
			}
			sim := text.LineRatio(s.oldLine(o).Norm, s.newLine(newStart+k).Norm)
			if sim > bestSim {
				bestIdx, bestSim = k, sim
			}
		}
		if bestIdx == -1 || bestSim < s.Params.DiffSimilarityMin {
			continue
		}

		if s.claim(o, []int{newStart + bestIdx}, types.StatusMatch, bestSim) {
			used[bestIdx] = true
		}
	}
}

// joinNorms renders normalized lines as newline-terminated text so every
// line, including the last, is a complete diff unit.
func joinNorms(lines []types.Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Norm)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// splitLines splits text by newline and removes the trailing empty element
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
