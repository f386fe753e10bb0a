package engine

import (
	"testing"

	"linemap/text"
	"linemap/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(raw ...string) []types.Line {
	return text.NormalizeLines(raw, false)
}

func mapLines(oldRaw, newRaw []string) []types.Entry {
	return Map(lines(oldRaw...), lines(newRaw...), DefaultParams())
}

func entryFor(t *testing.T, entries []types.Entry, old int) types.Entry {
	t.Helper()
	for _, e := range entries {
		if e.Old == old {
			return e
		}
	}
	t.Fatalf("no entry for old line %d", old)
	return types.Entry{}
}

// assertWellFormed checks the table shape every strategy must produce.
func assertWellFormed(t *testing.T, oldLines []types.Line, entries []types.Entry) {
	t.Helper()
	seen := make(map[int]bool)
	prev := 0
	for _, e := range entries {
		assert.False(t, seen[e.Old], "old line %d appears twice", e.Old)
		seen[e.Old] = true
		assert.Greater(t, e.Old, prev, "entries sorted by old line")
		prev = e.Old
		if e.Status == types.StatusUnmatched {
			assert.Empty(t, e.New, "unmatched entry %d has new lines", e.Old)
		} else {
			assert.NotEmpty(t, e.New, "matched entry %d has no new lines", e.Old)
		}
	}
	for _, l := range oldLines {
		if !text.IsTrivial(l.Norm) {
			assert.True(t, seen[l.Number], "non-trivial old line %d has no entry", l.Number)
		}
	}
}

func TestMap_ReorderAndInsert(t *testing.T) {
	entries := mapLines(
		[]string{"foo();", "bar();", "baz();"},
		[]string{"foo();", "qux();", "bar();", "baz();"},
	)

	expected := []types.Entry{
		{Old: 1, New: []int{1}, Status: types.StatusMatch, Score: 1},
		{Old: 2, New: []int{3}, Status: types.StatusMatch, Score: 1},
		{Old: 3, New: []int{4}, Status: types.StatusMatch, Score: 1},
	}
	assert.Equal(t, expected, entries)
}

func TestMap_LineSplit(t *testing.T) {
	entries := mapLines(
		[]string{"int total(a,b) { return a+b; }"},
		[]string{"int total(a,b)", "{", "  return a+b;", "}"},
	)

	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, types.StatusMatchSplit, e.Status)
	assert.Equal(t, []int{1, 2, 3}, e.New)
	assert.InDelta(t, 0.7*5.0/6.0+0.3, e.Score, 1e-9)
}

func TestMap_MergedDuplicateIsAbsorbed(t *testing.T) {
	entries := mapLines(
		[]string{"alpha beta", "alpha beta"},
		[]string{"alpha beta"},
	)

	require.Len(t, entries, 2)
	assert.Equal(t, types.Entry{Old: 1, New: []int{1}, Status: types.StatusMatch, Score: 1}, entries[0])

	second := entries[1]
	assert.Equal(t, 2, second.Old)
	assert.Equal(t, []int{1}, second.New, "second old line shares the anchor's new line")
	assert.Equal(t, types.StatusMatch, second.Status)
	assert.InDelta(t, 0.7, second.Score, 1e-9)
}

func TestMap_TrivialLinesNeedMatchingContext(t *testing.T) {
	entries := mapLines(
		[]string{"alpha beta", "{", "gamma"},
		[]string{"delta", "{", "epsilon"},
	)

	for _, e := range entries {
		assert.NotEqual(t, 2, e.Old, "brace with a different neighbourhood must not be paired")
	}
	assert.Equal(t, types.StatusUnmatched, entryFor(t, entries, 1).Status)
	assert.Equal(t, types.StatusUnmatched, entryFor(t, entries, 3).Status)
}

func TestMap_TrivialLinesWithSameContext(t *testing.T) {
	entries := mapLines(
		[]string{"if (x) return y;", "{", "z = 1;"},
		[]string{"if (x) return y;", "{", "z = 1;"},
	)

	e := entryFor(t, entries, 2)
	assert.Equal(t, types.StatusTrivialMatch, e.Status)
	assert.Equal(t, []int{2}, e.New)
}

// Lines with only trivial neighbours have empty contexts on both sides,
// which score 1, so an all-trivial file still pairs up as trivial_match.
// Context gating only rejects pairs whose neighbourhoods differ, see
// TestMap_TrivialLinesNeedMatchingContext.
func TestMap_AllTrivialFile(t *testing.T) {
	entries := mapLines(
		[]string{"{", "}", ";"},
		[]string{"{", "}", ";"},
	)

	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, types.StatusTrivialMatch, e.Status)
		assert.Equal(t, []int{i + 1}, e.New)
	}
}

func TestMap_EmitTrivialUnmatched(t *testing.T) {
	params := DefaultParams()
	params.EmitTrivialUnmatched = true

	entries := Map(
		lines("alpha beta", "{", "gamma"),
		lines("delta", "{", "epsilon"),
		params,
	)

	require.Len(t, entries, 3)
	e := entryFor(t, entries, 2)
	assert.Equal(t, types.StatusUnmatched, e.Status)
	assert.Empty(t, e.New)
}

func TestMap_ModifiedLineViaCandidates(t *testing.T) {
	entries := mapLines(
		[]string{"alpha beta gamma", "delta epsilon"},
		[]string{"alpha beta zeta", "delta epsilon"},
	)

	require.Len(t, entries, 2)
	e := entries[0]
	assert.Equal(t, types.StatusMatch, e.Status)
	assert.Equal(t, []int{1}, e.New)
	assert.InDelta(t, 0.65, e.Score, 1e-9)
	assert.Equal(t, types.Entry{Old: 2, New: []int{2}, Status: types.StatusMatch, Score: 1}, entries[1])
}

func TestMap_SelfComparison(t *testing.T) {
	raw := []string{
		"public class Counter {",
		"    private int count = 0;",
		"",
		"    public void increment() {",
		"        count++;",
		"    }",
		"",
		"    public int get() {",
		"        return count;",
		"    }",
		"}",
	}
	entries := mapLines(raw, raw)
	assertWellFormed(t, lines(raw...), entries)

	counts := make(map[string]int)
	for _, l := range lines(raw...) {
		counts[l.Norm]++
	}
	for _, l := range lines(raw...) {
		if counts[l.Norm] != 1 {
			continue
		}
		e := entryFor(t, entries, l.Number)
		assert.Equal(t, []int{l.Number}, e.New, "line %d", l.Number)
		assert.Contains(t, []types.Status{types.StatusMatch, types.StatusTrivialMatch}, e.Status)
		assert.Equal(t, 1.0, e.Score)
	}
}

func TestMap_EmptyOld(t *testing.T) {
	entries := mapLines(nil, []string{"foo", "bar"})
	assert.Empty(t, entries)
}

func TestMap_EmptyNew(t *testing.T) {
	entries := mapLines([]string{"foo", "{", "bar"}, nil)

	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, types.StatusUnmatched, e.Status)
		assert.Empty(t, e.New)
		assert.Equal(t, 0.0, e.Score)
	}
	assert.Equal(t, 1, entries[0].Old)
	assert.Equal(t, 3, entries[1].Old)
}

func TestMap_WellFormedOnEditedFile(t *testing.T) {
	oldRaw := []string{
		"import java.util.List;",
		"",
		"public class Report {",
		"    private final List<String> rows;",
		"    public Report(List<String> rows) { this.rows = rows; }",
		"    public int size() { return rows.size(); }",
		"    public String first() {",
		"        return rows.get(0);",
		"    }",
		"}",
	}
	newRaw := []string{
		"import java.util.ArrayList;",
		"import java.util.List;",
		"",
		"public class Report {",
		"    private final List<String> rows;",
		"",
		"    public Report(List<String> rows) {",
		"        this.rows = new ArrayList<>(rows);",
		"    }",
		"",
		"    public String first() {",
		"        return rows.isEmpty() ? null : rows.get(0);",
		"    }",
		"",
		"    public int size() { return rows.size(); }",
		"}",
	}

	oldLines := lines(oldRaw...)
	entries := Map(oldLines, lines(newRaw...), DefaultParams())
	assertWellFormed(t, oldLines, entries)

	assert.Equal(t, []int{2}, entryFor(t, entries, 1).New, "import moved down by one")
	assert.Equal(t, []int{15}, entryFor(t, entries, 6).New, "method moved to the end")
	assert.Equal(t, []int{11}, entryFor(t, entries, 7).New)

	// Apart from expansion groups, no new line is claimed twice
	owners := make(map[int][]types.Entry)
	for _, e := range entries {
		for _, n := range e.New {
			owners[n] = append(owners[n], e)
		}
	}
	for n, es := range owners {
		if len(es) > 1 {
			for _, e := range es {
				assert.Equal(t, types.StatusMatch, e.Status, "shared new line %d", n)
				assert.Len(t, e.New, 1, "shared new line %d", n)
			}
		}
	}
}

func TestMap_Deterministic(t *testing.T) {
	oldRaw := []string{"a b", "c d", "e f", "a b", "g h"}
	newRaw := []string{"c d", "a b x", "e f", "g h y", "a b"}

	first := mapLines(oldRaw, newRaw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, mapLines(oldRaw, newRaw))
	}
}

func TestRun_DispatchesStrategies(t *testing.T) {
	oldLines := lines("alpha one", "beta two", "gamma three")
	newLines := lines("alpha one", "beta two", "gamma three")
	params := DefaultParams()

	assert.Equal(t, Map(oldLines, newLines, params), Run(types.StrategyStaged, oldLines, newLines, params))
	assert.Equal(t, AlignDP(oldLines, newLines, params), Run(types.StrategyDP, oldLines, newLines, params))
	assert.Equal(t, AlignDiff(oldLines, newLines, params), Run(types.StrategyDiff, oldLines, newLines, params))
	assert.Equal(t, Map(oldLines, newLines, params), Run("", oldLines, newLines, params))
}

func TestMapText_Normalizes(t *testing.T) {
	entries := MapText(
		[]string{"  FOO ( ) ;"},
		[]string{"foo ( ) ;"},
		types.StrategyStaged, DefaultParams(),
	)
	require.Len(t, entries, 1)
	assert.Equal(t, []int{1}, entries[0].New)
	assert.Equal(t, types.StatusMatch, entries[0].Status)
}

func TestMap_ContestedLineGoesToBestCandidate(t *testing.T) {
	params := DefaultParams()
	params.ExpandMaxSteps = 0

	entries := Map(lines("a b x", "a b c"), lines("a b c d"), params)

	require.Len(t, entries, 2)
	assert.Equal(t, types.StatusUnmatched, entries[0].Status, "weaker earlier candidate loses")
	assert.Equal(t, []int{1}, entries[1].New)
	assert.InDelta(t, 0.525, entries[1].Score, 1e-9)
}

func TestMap_LosingCandidateAbsorbedByExpansion(t *testing.T) {
	entries := mapLines([]string{"a b x", "a b c"}, []string{"a b c d"})

	require.Len(t, entries, 2)
	assert.Equal(t, []int{1}, entries[0].New)
	assert.Equal(t, types.StatusMatch, entries[0].Status)
	assert.InDelta(t, 0.28, entries[0].Score, 1e-9)
	assert.InDelta(t, 0.525, entries[1].Score, 1e-9)
}

func TestMap_PositionalBiasPlacesUnsharedLine(t *testing.T) {
	entries := mapLines(
		[]string{"aa", "bb", "cc", "dd", "ee"},
		[]string{"zz", "aa", "bb", "xx", "dd", "ee"},
	)

	e := entryFor(t, entries, 3)
	assert.Equal(t, []int{4}, e.New)
	assert.Equal(t, types.StatusMatch, e.Status)
	// 0.3 from context plus the full 0.2 bias at the expected position
	assert.InDelta(t, 0.5, e.Score, 1e-9)
}

func TestMap_ExpansionWalksUpward(t *testing.T) {
	entries := mapLines(
		[]string{"x y z", "x y z w", "q"},
		[]string{"x y z w", "q"},
	)

	require.Len(t, entries, 3)
	assert.Equal(t, []int{1}, entries[0].New)
	assert.Equal(t, types.StatusMatch, entries[0].Status)
	assert.InDelta(t, 0.585, entries[0].Score, 1e-9)
	assert.Equal(t, []int{1}, entries[1].New)
	assert.Equal(t, []int{2}, entries[2].New)
}

func TestMap_ExpansionStepsOverTrivialLines(t *testing.T) {
	entries := mapLines(
		[]string{"x y z", "{", "x y z w"},
		[]string{"x y z w"},
	)

	require.Len(t, entries, 2, "brace stays out of the table")
	assert.Equal(t, 1, entries[0].Old)
	assert.Equal(t, []int{1}, entries[0].New)
	assert.Equal(t, types.StatusMatch, entries[0].Status)
	assert.InDelta(t, 0.525, entries[0].Score, 1e-9)
	assert.Equal(t, types.Entry{Old: 3, New: []int{1}, Status: types.StatusMatch, Score: 1}, entries[1])
}
