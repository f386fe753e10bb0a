package types

import "encoding/json"

// Line is one physical line of a file with its canonical comparison text.
type Line struct {
	Number int    // 1-indexed
	Raw    string // text as read, without the line break
	Norm   string // normalized text used for all comparisons
}

// Status classifies how an old line was matched
type Status string

const (
	StatusMatch        Status = "match"
	StatusTrivialMatch Status = "trivial_match"
	StatusMatchSplit   Status = "match_split"
	StatusUnmatched    Status = "unmatched"
)

// Entry is the correspondence record for one old line.
type Entry struct {
	Old    int     `json:"old"`
	New    []int   `json:"new"`
	Status Status  `json:"status"`
	Score  float64 `json:"score"`
}

// MarshalJSON keeps New as a list even when it is nil, since consumers of
// the mapping file index into it unconditionally.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	p := plain(e)
	if p.New == nil {
		p.New = []int{}
	}
	return json.Marshal(p)
}

// FirstNew returns the first new line number, or 0 if the entry is unmatched.
func (e Entry) FirstNew() int {
	if len(e.New) == 0 {
		return 0
	}
	return e.New[0]
}

// Strategy selects the alignment algorithm
type Strategy string

const (
	StrategyStaged Strategy = "staged"
	StrategyDP     Strategy = "dp"
	StrategyDiff   Strategy = "diff"
)

// ParseStrategy parses a strategy name, defaulting to staged for empty input.
// The second return value is false for unknown names.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case "", StrategyStaged:
		return StrategyStaged, true
	case StrategyDP:
		return StrategyDP, true
	case StrategyDiff:
		return StrategyDiff, true
	default:
		return StrategyStaged, false
	}
}
