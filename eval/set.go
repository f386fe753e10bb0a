package eval

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"linemap/buffer"
	"linemap/logger"

	"github.com/dustin/go-humanize"
)

// FileResult is the score of one mapping file
type FileResult struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// Skipped records a mapping file left out of a set evaluation
type Skipped struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// SetReport holds per-file results and the aggregate of a set evaluation
type SetReport struct {
	Files   []FileResult `json:"files"`
	Skipped []Skipped    `json:"skipped,omitempty"`
	Overall Result       `json:"overall"`
}

// mappingExts are the prediction file suffixes picked up by EvaluateSet
var mappingExts = []string{".json" + buffer.BrotliExt, ".json"}

// EvaluateSet scores every mapping file in predDir against the gold record
// of the same base name in goldDir (<base>.xml or <base>_mapping.xml).
// Files whose gold is missing or malformed are skipped with a warning;
// unreadable mapping files abort the run.
func EvaluateSet(goldDir, predDir string, opts Options) (*SetReport, error) {
	dirEntries, err := os.ReadDir(predDir)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() || mappingBase(de.Name()) == "" {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	report := &SetReport{}
	for _, name := range names {
		base := mappingBase(name)

		goldPath, ok := findGold(goldDir, base)
		if !ok {
			logger.Warn("eval: %s: missing gold file in %s, skipping", base, goldDir)
			report.Skipped = append(report.Skipped, Skipped{Name: base, Reason: "missing gold file"})
			continue
		}

		gold, err := LoadGold(goldPath)
		if err != nil {
			if errors.Is(err, ErrMalformedGold) {
				logger.Warn("eval: %s: %v, skipping", base, err)
				report.Skipped = append(report.Skipped, Skipped{Name: base, Reason: err.Error()})
				continue
			}
			return nil, err
		}

		predicted, err := buffer.ReadMapping(filepath.Join(predDir, name))
		if err != nil {
			return nil, err
		}

		r := Accuracy(gold, predicted, opts)
		report.Files = append(report.Files, FileResult{Name: base, Result: r})
		report.Overall.Add(r)
	}
	return report, nil
}

// mappingBase strips a mapping suffix from a file name, returning "" for
// files that are not mapping files.
func mappingBase(name string) string {
	for _, ext := range mappingExts {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return ""
}

func findGold(dir, base string) (string, bool) {
	for _, candidate := range []string{base + ".xml", base + GoldSuffix} {
		p := filepath.Join(dir, candidate)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Debug("eval: stat %s: %v", p, err)
		}
	}
	return "", false
}

// WriteText prints one line per file followed by the aggregate, in the
// form "<name>: <correct>/<total> = <pct>%".
func (r *SetReport) WriteText(w io.Writer) error {
	for _, f := range r.Files {
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.Name, f.Result); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 50)); err != nil {
		return err
	}
	if r.Overall.Total == 0 {
		_, err := fmt.Fprintln(w, "No cases evaluated.")
		return err
	}
	_, err := fmt.Fprintf(w, "Overall: %s/%s = %.1f%% accuracy\n",
		humanize.Comma(int64(r.Overall.Correct)),
		humanize.Comma(int64(r.Overall.Total)),
		r.Overall.Percent())
	return err
}
