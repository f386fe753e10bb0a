// Package buffer loads files into line sequences for the engine and
// persists the resulting correspondence tables.
package buffer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"linemap/logger"
	"linemap/text"
	"linemap/types"

	"github.com/andybalholm/brotli"
	"github.com/dustin/go-humanize"
)

// BrotliExt marks files stored brotli-compressed
const BrotliExt = ".br"

// InputError reports a file that could not be read. It is fatal for a
// mapping run.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// SplitLines normalizes CRLF and lone CR line breaks to LF and splits the
// content into physical lines. Content ending in a line break yields a
// trailing empty line, and empty content yields a single empty line.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// ReadLines reads all of r and splits it with SplitLines.
func ReadLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return SplitLines(string(data)), nil
}

// ReadFile reads the file at path into raw lines. Files ending in .br are
// decompressed first.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, BrotliExt) {
		r = brotli.NewReader(f)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	lines := SplitLines(string(data))
	logger.Debug("buffer: read %s (%s, %d lines)", path, humanize.Bytes(uint64(len(data))), len(lines))
	return lines, nil
}

// LoadFile reads and normalizes a file in one step.
func LoadFile(path string, unicodeFold bool) ([]types.Line, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return text.NormalizeLines(raw, unicodeFold), nil
}
