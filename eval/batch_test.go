package eval

import (
	"context"
	"path/filepath"
	"testing"

	"linemap/buffer"
	"linemap/engine"
	"linemap/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairGold = `<FILE><VERSION NUMBER="2">
<LOCATION ORIG="1" NEW="1"/>
<LOCATION ORIG="2" NEW="3"/>
<LOCATION ORIG="3" NEW="4"/>
</VERSION></FILE>`

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "01", "pair_01_v1.java"), "foo();\nbar();\nbaz();")
	writeFile(t, filepath.Join(dir, "01", "pair_01_v2.java"), "foo();\nqux();\nbar();\nbaz();")
	writeFile(t, filepath.Join(dir, "01", "pair_01"+GoldSuffix), pairGold)

	writeFile(t, filepath.Join(dir, "02", "pair_02_v1.c"), "int a;\nint b;")
	writeFile(t, filepath.Join(dir, "02", "pair_02_v2.c"), "int b;\nint a;")

	// No second revision
	writeFile(t, filepath.Join(dir, "03", "pair_03_v1.py"), "x = 1")
	return dir
}

func TestDiscoverPairs(t *testing.T) {
	dir := writeDataset(t)

	pairs, err := DiscoverPairs(dir)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, Pair{
		Name: "pair_01",
		Old:  filepath.Join(dir, "01", "pair_01_v1.java"),
		New:  filepath.Join(dir, "01", "pair_01_v2.java"),
		Gold: filepath.Join(dir, "01", "pair_01_mapping.xml"),
	}, pairs[0])

	assert.Equal(t, "pair_02", pairs[1].Name)
	assert.Equal(t, filepath.Join(dir, "02", "pair_02_v2.c"), pairs[1].New)
	assert.Empty(t, pairs[1].Gold)
}

func TestDiscoverPairs_MissingDir(t *testing.T) {
	_, err := DiscoverPairs(filepath.Join(t.TempDir(), "none"))
	assert.Error(t, err)
}

func TestMapPairs(t *testing.T) {
	dir := writeDataset(t)
	out := filepath.Join(t.TempDir(), "out")

	pairs, err := DiscoverPairs(dir)
	require.NoError(t, err)

	results, err := MapPairs(context.Background(), pairs, BatchOptions{
		OutDir:   out,
		Strategy: types.StrategyStaged,
		Params:   engine.DefaultParams(),
		Workers:  2,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	first := results[0]
	require.NoError(t, first.Err)
	assert.Equal(t, "pair_01", first.Pair.Name)
	assert.Equal(t, filepath.Join(out, "pair_01.json"), first.Output)
	assert.Equal(t, 3, first.Entries)
	require.NotNil(t, first.Score)
	assert.Equal(t, Result{Correct: 3, Total: 3, Accuracy: 1}, *first.Score)

	written, err := buffer.ReadMapping(first.Output)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	second := results[1]
	require.NoError(t, second.Err)
	assert.Nil(t, second.Score, "no gold record")
	assert.FileExists(t, second.Output)
}

func TestMapPairs_ReportsPerPairErrors(t *testing.T) {
	out := t.TempDir()
	pairs := []Pair{{Name: "ghost", Old: filepath.Join(out, "ghost_v1.txt"), New: filepath.Join(out, "ghost_v2.txt")}}

	results, err := MapPairs(context.Background(), pairs, BatchOptions{OutDir: out, Params: engine.DefaultParams()})
	require.NoError(t, err)
	require.Len(t, results, 1)

	var inputErr *buffer.InputError
	assert.ErrorAs(t, results[0].Err, &inputErr)
}

func TestMapPairs_Cancelled(t *testing.T) {
	dir := writeDataset(t)
	pairs, err := DiscoverPairs(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = MapPairs(ctx, pairs, BatchOptions{OutDir: t.TempDir(), Params: engine.DefaultParams(), Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapPairs_Empty(t *testing.T) {
	results, err := MapPairs(context.Background(), nil, BatchOptions{Params: engine.DefaultParams()})
	require.NoError(t, err)
	assert.Empty(t, results)
}
