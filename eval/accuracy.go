package eval

import (
	"fmt"

	"linemap/buffer"
	"linemap/types"
)

// Options control how predictions are scored
type Options struct {
	// IgnoreTrivial leaves trivial_match entries out of the count
	IgnoreTrivial bool
}

// Result is the accuracy over the old lines present in a gold record
type Result struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// Add accumulates another result and recomputes the accuracy.
func (r *Result) Add(o Result) {
	r.Correct += o.Correct
	r.Total += o.Total
	r.Accuracy = ratio(r.Correct, r.Total)
}

// Percent returns the accuracy as a percentage
func (r Result) Percent() float64 { return r.Accuracy * 100 }

func (r Result) String() string {
	return fmt.Sprintf("%d/%d = %.1f%%", r.Correct, r.Total, r.Percent())
}

func ratio(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// Accuracy counts, for every predicted entry whose old line is in gold, whether
// the first predicted new line equals the expected one. Entries outside the
// gold set are ignored; an unmatched entry counts as wrong.
func Accuracy(gold Gold, predicted []types.Entry, opts Options) Result {
	var r Result
	for _, e := range predicted {
		expected, ok := gold[e.Old]
		if !ok {
			continue
		}
		if opts.IgnoreTrivial && e.Status == types.StatusTrivialMatch {
			continue
		}
		if len(e.New) > 0 && e.New[0] == expected {
			r.Correct++
		}
		r.Total++
	}
	r.Accuracy = ratio(r.Correct, r.Total)
	return r
}

// EvaluatePair scores the mapping file at predPath against the gold file
// at goldPath.
func EvaluatePair(goldPath, predPath string, opts Options) (Result, error) {
	gold, err := LoadGold(goldPath)
	if err != nil {
		return Result{}, err
	}
	predicted, err := buffer.ReadMapping(predPath)
	if err != nil {
		return Result{}, err
	}
	return Accuracy(gold, predicted, opts), nil
}
