package buffer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"linemap/types"

	"github.com/andybalholm/brotli"
)

// EncodeMapping writes entries as a JSON array of {old, new, status, score}
// objects. The compact form is the interchange format read back by the
// evaluation commands.
func EncodeMapping(w io.Writer, entries []types.Entry, pretty bool) error {
	if entries == nil {
		entries = []types.Entry{}
	}

	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteMapping writes entries to path, creating parent directories.
// Paths ending in .br are brotli-compressed.
func WriteMapping(path string, entries []types.Entry, pretty bool) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if !strings.HasSuffix(path, BrotliExt) {
		return EncodeMapping(f, entries, pretty)
	}

	bw := newBrotliWriter(f)
	if err := EncodeMapping(bw, entries, pretty); err != nil {
		bw.Close()
		return err
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return nil
}

// ReadMapping loads a mapping file written by WriteMapping.
func ReadMapping(path string) ([]types.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, BrotliExt) {
		r = brotli.NewReader(f)
	}

	var entries []types.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode mapping %s: %w", path, err)
	}
	return entries, nil
}

func newBrotliWriter(w io.Writer) *brotli.Writer {
	return brotli.NewWriterLevel(w, brotli.DefaultCompression)
}
