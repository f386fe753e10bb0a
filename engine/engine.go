package engine

import (
	"linemap/logger"
	"linemap/text"
	"linemap/types"
)

// Map correlates the lines of two revisions with the staged pipeline:
// exact matches, line splits, greedy candidate resolution, then block
// expansion. Both sequences must be numbered contiguously from 1, as
// produced by text.NormalizeLines.
//
// The result holds at most one entry per old line, sorted by old line
// number. Every non-trivial old line has an entry; trivial ones only when
// they matched or params.EmitTrivialUnmatched is set.
func Map(oldLines, newLines []types.Line, params Params) []types.Entry {
	defer logger.Trace("engine.Map")()

	s := NewState(oldLines, newLines, params)

	exact := matchExact(s)
	splits := matchSplits(s)
	cands := matchCandidates(s)
	entries, absorbed := expandBlocks(s, s.Entries())

	logger.Debug("engine: %d old / %d new lines: exact=%d split=%d candidate=%d absorbed=%d",
		len(oldLines), len(newLines), exact, splits, cands, absorbed)

	return finalize(s, entries)
}

// MapText normalizes raw line text and runs the given strategy.
func MapText(oldRaw, newRaw []string, strategy types.Strategy, params Params) []types.Entry {
	oldLines := text.NormalizeLines(oldRaw, params.UnicodeFold)
	newLines := text.NormalizeLines(newRaw, params.UnicodeFold)
	return Run(strategy, oldLines, newLines, params)
}

// Run dispatches to the alignment strategy. Unknown strategies fall back
// to the staged pipeline.
func Run(strategy types.Strategy, oldLines, newLines []types.Line, params Params) []types.Entry {
	switch strategy {
	case types.StrategyDP:
		return AlignDP(oldLines, newLines, params)
	case types.StrategyDiff:
		return AlignDiff(oldLines, newLines, params)
	default:
		return Map(oldLines, newLines, params)
	}
}
