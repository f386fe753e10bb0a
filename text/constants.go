package text

const (
	// ContentWeight is the share of a combined score taken from the line's
	// own tokens.
	ContentWeight = 0.7

	// ContextWeight is the share taken from the surrounding non-trivial
	// lines. ContentWeight + ContextWeight must equal 1.
	ContextWeight = 0.3

	// TrivialMaxLength is the longest punctuation-only line still treated
	// as trivial. "{}" is trivial, "});" is not.
	TrivialMaxLength = 2
)
