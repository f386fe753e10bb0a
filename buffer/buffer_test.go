package buffer

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"linemap/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"lf", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb", []string{"a", "b"}},
		{"lone cr", "a\rb", []string{"a", "b"}},
		{"mixed", "a\r\nb\rc\nd", []string{"a", "b", "c", "d"}},
		{"trailing newline", "a\n", []string{"a", ""}},
		{"empty", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.content))
		})
	}
}

func TestReadLines(t *testing.T) {
	got, err := ReadLines(strings.NewReader("x\r\ny"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Foo_v1.java")
	require.NoError(t, os.WriteFile(path, []byte("  Int X;\r\n}\n"), 0o644))

	got, err := LoadFile(path, false)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, types.Line{Number: 1, Raw: "  Int X;", Norm: "int x;"}, got[0])
	assert.Equal(t, "}", got[1].Norm)
	assert.Equal(t, "", got[2].Norm)
}

func TestReadFile_Brotli(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(plain, []byte("one\ntwo"), 0o644))

	// Write compressed data through the same codec the mapping writer uses
	compressed := filepath.Join(dir, "a.txt"+BrotliExt)
	var buf bytes.Buffer
	bw := newBrotliWriter(&buf)
	_, err := bw.Write([]byte("one\ntwo"))
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0o644))

	want, err := ReadFile(plain)
	require.NoError(t, err)
	got, err := ReadFile(compressed)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadFile_MissingIsInputError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.java")

	_, err := ReadFile(path)
	require.Error(t, err)

	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, path, inputErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), path)
}

func TestEncodeMapping(t *testing.T) {
	entries := []types.Entry{
		{Old: 1, New: []int{2, 3}, Status: types.StatusMatchSplit, Score: 0.75},
		{Old: 2, New: nil, Status: types.StatusUnmatched},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeMapping(&buf, entries, false))
	assert.Equal(t,
		`[{"old":1,"new":[2,3],"status":"match_split","score":0.75},{"old":2,"new":[],"status":"unmatched","score":0}]`,
		buf.String())
}

func TestEncodeMapping_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeMapping(&buf, nil, false))
	assert.Equal(t, "[]", buf.String())
}

func TestEncodeMapping_Pretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeMapping(&buf, []types.Entry{{Old: 1, New: []int{1}, Status: types.StatusMatch, Score: 1}}, true))
	assert.Contains(t, buf.String(), "\n  {\n    \"old\": 1,")
}

func TestWriteReadMapping_RoundTrip(t *testing.T) {
	entries := []types.Entry{
		{Old: 1, New: []int{1}, Status: types.StatusMatch, Score: 1},
		{Old: 2, New: []int{2}, Status: types.StatusTrivialMatch, Score: 1},
		{Old: 3, New: []int{}, Status: types.StatusUnmatched},
	}
	dir := t.TempDir()

	for _, name := range []string{"out/pair.json", "out/pair.json" + BrotliExt} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteMapping(path, entries, false))

			got, err := ReadMapping(path)
			require.NoError(t, err)
			assert.Equal(t, entries, got)
		})
	}
}

func TestReadMapping_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadMapping(filepath.Join(dir, "none.json"))
	var inputErr *InputError
	assert.True(t, errors.As(err, &inputErr))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = ReadMapping(bad)
	assert.ErrorContains(t, err, "decode mapping")
}
