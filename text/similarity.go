package text

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ContentSimilarity is the Jaccard index over the whitespace-delimited token
// sets of two normalized strings. Two empty strings are identical (1); one
// empty string shares nothing with a non-empty one (0).
func ContentSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

// ContextSimilarity compares two neighbourhoods by joining each into one
// string and scoring them with ContentSimilarity.
func ContextSimilarity(ctxA, ctxB []string) float64 {
	return ContentSimilarity(strings.Join(ctxA, " "), strings.Join(ctxB, " "))
}

// Weights blends content and context similarity into one score
type Weights struct {
	Content float64
	Context float64
}

// DefaultWeights favour the line's own text over its neighbourhood.
var DefaultWeights = Weights{Content: ContentWeight, Context: ContextWeight}

// Combine returns the weighted sum of a content and a context score.
func (w Weights) Combine(content, context float64) float64 {
	return w.Content*content + w.Context*context
}

// CombinedSimilarity blends scores with DefaultWeights.
func CombinedSimilarity(content, context float64) float64 {
	return DefaultWeights.Combine(content, context)
}

// LineRatio computes a character-level similarity between two lines
// (0.0 to 1.0) as 1 - levenshtein/maxLen. Two empty lines score 1, an empty
// line against a non-empty one scores 0.
func LineRatio(line1, line2 string) float64 {
	if line1 == "" && line2 == "" {
		return 1.0
	}
	if line1 == "" || line2 == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(line1, line2, false)
	dist := dmp.DiffLevenshtein(diffs)

	maxLen := max(len(line1), len(line2))
	return 1.0 - float64(dist)/float64(maxLen)
}
