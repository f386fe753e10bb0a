// Package eval scores predicted line mappings against gold correspondences
// and drives batch mapping over a dataset of file pairs.
package eval

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// ErrMalformedGold marks a gold record without any LOCATION element. Set
// evaluation skips such files instead of failing.
var ErrMalformedGold = errors.New("malformed gold format")

// Gold maps an old line number to its expected new line number
type Gold map[int]int

var locationRe = regexp.MustCompile(`<LOCATION ORIG="(\d+)" NEW="(\d+)"`)

// ParseGold extracts the ORIG/NEW pairs of a change-record document.
// Later duplicates of an ORIG line overwrite earlier ones.
func ParseGold(r io.Reader) (Gold, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	matches := locationRe.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no LOCATION elements", ErrMalformedGold)
	}

	gold := make(Gold, len(matches))
	for _, m := range matches {
		orig, err := strconv.Atoi(string(m[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: ORIG %q: %v", ErrMalformedGold, m[1], err)
		}
		neu, err := strconv.Atoi(string(m[2]))
		if err != nil {
			return nil, fmt.Errorf("%w: NEW %q: %v", ErrMalformedGold, m[2], err)
		}
		gold[orig] = neu
	}
	return gold, nil
}

// LoadGold parses the gold file at path.
func LoadGold(path string) (Gold, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gold, err := ParseGold(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gold, nil
}
