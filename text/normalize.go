package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"linemap/types"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a line for comparison: surrounding whitespace is
// trimmed, internal whitespace runs collapse to a single space, and the
// result is lowercased. Whitespace-only input yields "".
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeUnicode applies NFKC compatibility folding before Normalize, so
// full-width punctuation and ligatures compare equal to their plain forms.
func NormalizeUnicode(s string) string {
	return Normalize(norm.NFKC.String(s))
}

// NormalizeLines turns raw file lines into numbered line records.
// Numbers are 1-indexed and contiguous.
func NormalizeLines(raw []string, unicodeFold bool) []types.Line {
	normalize := Normalize
	if unicodeFold {
		normalize = NormalizeUnicode
	}

	lines := make([]types.Line, len(raw))
	for i, r := range raw {
		lines[i] = types.Line{
			Number: i + 1,
			Raw:    r,
			Norm:   normalize(r),
		}
	}
	return lines
}

// IsTrivial reports whether a normalized line carries too little content to
// be matched on its own: empty lines, and punctuation-only lines of at most
// TrivialMaxLength characters such as ";" or "{}".
// Any letter or digit makes a line non-trivial.
func IsTrivial(n string) bool {
	if n == "" {
		return true
	}
	for _, r := range n {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return utf8.RuneCountInString(n) <= TrivialMaxLength
}

// Context collects the normalized text of up to radius non-trivial lines on
// each side of the given 1-indexed line, in file order, excluding the line
// itself. Trivial neighbours still count against the radius.
func Context(lines []types.Line, number, radius int) []string {
	idx := number - 1
	start := max(0, idx-radius)
	end := min(len(lines)-1, idx+radius)

	var ctx []string
	for i := start; i <= end; i++ {
		if i == idx {
			continue
		}
		if IsTrivial(lines[i].Norm) {
			continue
		}
		ctx = append(ctx, lines[i].Norm)
	}
	return ctx
}
