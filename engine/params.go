package engine

import "linemap/text"

// Params holds every tunable of the alignment pipeline. The zero value is
// not useful; start from DefaultParams.
type Params struct {
	// Similarity weights for combined scores
	ContentWeight float64 `toml:"content_weight" json:"content_weight"`
	ContextWeight float64 `toml:"context_weight" json:"context_weight"`

	// UnicodeFold applies NFKC folding during normalization
	UnicodeFold bool `toml:"unicode_fold" json:"unicode_fold"`

	// Exact stage: trivial pairs need this much context agreement
	ExactContextRadius int     `toml:"exact_context_radius" json:"exact_context_radius"`
	TrivialContextMin  float64 `toml:"trivial_context_min" json:"trivial_context_min"`

	// Split stage
	SplitMaxOffset     int     `toml:"split_max_offset" json:"split_max_offset"`
	SplitMinGroup      int     `toml:"split_min_group" json:"split_min_group"`
	SplitMaxGroup      int     `toml:"split_max_group" json:"split_max_group"`
	SplitContextRadius int     `toml:"split_context_radius" json:"split_context_radius"`
	SplitThreshold     float64 `toml:"split_threshold" json:"split_threshold"`

	// Candidate stage
	CandidateContextRadius int     `toml:"candidate_context_radius" json:"candidate_context_radius"`
	CandidateThreshold     float64 `toml:"candidate_threshold" json:"candidate_threshold"`
	TopK                   int     `toml:"top_k" json:"top_k"`
	OffsetWindow           int     `toml:"offset_window" json:"offset_window"`
	BiasContentMax         float64 `toml:"bias_content_max" json:"bias_content_max"`
	BiasMax                float64 `toml:"bias_max" json:"bias_max"`
	BiasDistance           int     `toml:"bias_distance" json:"bias_distance"`

	// Block expansion
	ExpandMaxGroup int     `toml:"expand_max_group" json:"expand_max_group"`
	ExpandMaxSteps int     `toml:"expand_max_steps" json:"expand_max_steps"`
	ExpandFloor    float64 `toml:"expand_floor" json:"expand_floor"`
	ExpandRatio    float64 `toml:"expand_ratio" json:"expand_ratio"`

	// EmitTrivialUnmatched adds unmatched entries for trivial old lines that
	// never matched. Off by default: those lines are omitted from the table.
	EmitTrivialUnmatched bool `toml:"emit_trivial_unmatched" json:"emit_trivial_unmatched"`

	// DP alternative
	DPMatchMin   float64 `toml:"dp_match_min" json:"dp_match_min"`
	DPGapPenalty float64 `toml:"dp_gap_penalty" json:"dp_gap_penalty"`

	// Diff baseline
	DiffSimilarityMin float64 `toml:"diff_similarity_min" json:"diff_similarity_min"`
}

// DefaultParams returns the tuned defaults of the staged pipeline.
func DefaultParams() Params {
	return Params{
		ContentWeight: text.ContentWeight,
		ContextWeight: text.ContextWeight,

		ExactContextRadius: 2,
		TrivialContextMin:  0.6,

		SplitMaxOffset:     3,
		SplitMinGroup:      2,
		SplitMaxGroup:      3,
		SplitContextRadius: 1,
		SplitThreshold:     0.5,

		CandidateContextRadius: 2,
		CandidateThreshold:     0.25,
		TopK:                   15,
		OffsetWindow:           10,
		BiasContentMax:         0.2,
		BiasMax:                0.2,
		BiasDistance:           10,

		ExpandMaxGroup: 12,
		ExpandMaxSteps: 5,
		ExpandFloor:    0.1,
		ExpandRatio:    0.3,

		DPMatchMin:   0.5,
		DPGapPenalty: 0.1,

		DiffSimilarityMin: 0.3,
	}
}

// Weights returns the combined-similarity weights of these params.
func (p Params) Weights() text.Weights {
	return text.Weights{Content: p.ContentWeight, Context: p.ContextWeight}
}
