package eval

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"sync"

	"linemap/buffer"
	"linemap/engine"
	"linemap/logger"
	"linemap/types"
)

// GoldSuffix names the gold record stored next to a dataset pair
const GoldSuffix = "_mapping.xml"

// Pair is one old/new revision pair of a dataset
type Pair struct {
	Name string // shared base name, e.g. "pair_18"
	Old  string
	New  string
	Gold string // empty when no gold record exists
}

var oldRevisionRe = regexp.MustCompile(`^(.+)_v1(\.[^.]+)?$`)

// DiscoverPairs walks dir for files named <base>_v1<ext> that have a
// <base>_v2<ext> sibling. A <base>_mapping.xml sibling becomes the pair's
// gold record. Pairs are returned sorted by name, then path.
func DiscoverPairs(dir string) ([]Pair, error) {
	var pairs []Pair
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m := oldRevisionRe.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}
		base, ext := m[1], m[2]
		parent := filepath.Dir(path)

		newPath := filepath.Join(parent, base+"_v2"+ext)
		if _, err := os.Stat(newPath); err != nil {
			logger.Debug("eval: %s has no _v2 revision, skipping", path)
			return nil
		}

		p := Pair{Name: base, Old: path, New: newPath}
		goldPath := filepath.Join(parent, base+GoldSuffix)
		if _, err := os.Stat(goldPath); err == nil {
			p.Gold = goldPath
		}
		pairs = append(pairs, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover pairs in %s: %w", dir, err)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Name != pairs[j].Name {
			return pairs[i].Name < pairs[j].Name
		}
		return pairs[i].Old < pairs[j].Old
	})
	return pairs, nil
}

// BatchOptions configure MapPairs
type BatchOptions struct {
	OutDir   string
	Strategy types.Strategy
	Params   engine.Params
	Workers  int // 0 = runtime.NumCPU()
	Eval     Options
}

// PairResult is the outcome of mapping one pair
type PairResult struct {
	Pair    Pair
	Output  string
	Entries int
	Score   *Result // nil when the pair has no usable gold record
	Err     error
}

// MapPairs maps every pair with a bounded pool of workers and writes each
// table to <OutDir>/<name>.json. Comparisons share no state, so pairs run
// independently; results are returned in input order. Per-pair failures are
// reported in PairResult.Err, cancellation of ctx stops remaining work and
// is returned as the error.
func MapPairs(ctx context.Context, pairs []Pair, opts BatchOptions) ([]PairResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(pairs), 1))

	results := make([]PairResult, len(pairs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = mapPair(pairs[i], opts)
			}
		}()
	}

	var ctxErr error
feed:
	for i := range pairs {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return results, ctxErr
	}
	return results, nil
}

func mapPair(p Pair, opts BatchOptions) PairResult {
	res := PairResult{Pair: p}

	oldLines, err := buffer.LoadFile(p.Old, opts.Params.UnicodeFold)
	if err != nil {
		res.Err = err
		return res
	}
	newLines, err := buffer.LoadFile(p.New, opts.Params.UnicodeFold)
	if err != nil {
		res.Err = err
		return res
	}

	entries := engine.Run(opts.Strategy, oldLines, newLines, opts.Params)
	res.Entries = len(entries)

	res.Output = filepath.Join(opts.OutDir, p.Name+".json")
	if err := buffer.WriteMapping(res.Output, entries, false); err != nil {
		res.Err = err
		return res
	}

	if p.Gold != "" {
		gold, err := LoadGold(p.Gold)
		if err != nil {
			logger.Warn("eval: %s: %v, not scored", p.Name, err)
			return res
		}
		score := Accuracy(gold, entries, opts.Eval)
		res.Score = &score
	}
	return res
}
