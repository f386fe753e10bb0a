package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"linemap/buffer"
	"linemap/config"
	"linemap/engine"
	"linemap/eval"
	"linemap/logger"
	"linemap/metrics"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

const defaultOutput = "mapping.json"

type command struct {
	name    string
	args    string
	summary string
	run     func(args []string) error
}

var commands = []command{
	{"map", "<old> <new> [out]", "map old lines to new lines and write the table (default " + defaultOutput + ")", runMap},
	{"eval", "<gold.xml> <mapping.json> [label]", "score one mapping against its gold record", runEval},
	{"eval-set", "<goldDir> <mappingDir>", "score every mapping in a directory", runEvalSet},
	{"batch", "<datasetDir> <outDir>", "map every _v1/_v2 pair of a dataset", runBatch},
	{"runs", "", "list recorded evaluation runs", runRuns},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [args]\n\nCommands:\n", filepath.Base(os.Args[0]))
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %-36s %s\n", c.name, c.args, c.summary)
	}
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> --help' for command flags.\n", filepath.Base(os.Args[0]))
}

// commonFlags are shared by every subcommand
type commonFlags struct {
	configPath string
	logLevel   string
	logFile    string
}

func newFlagSet(name, args string, cf *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&cf.configPath, "config", "c", "", "Path to a TOML or JSON config file.")
	fs.StringVar(&cf.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error.")
	fs.StringVar(&cf.logFile, "log-file", "", "Write logs to this file instead of stderr.")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [flags] %s\n\nFlags:\n", filepath.Base(os.Args[0]), name, args)
		fs.PrintDefaults()
	}
	return fs
}

// setup loads the config, applies flag overrides, validates the result and
// installs the global logger. The returned function closes the log file.
func setup(cf *commonFlags, fs *pflag.FlagSet, strategy string) (*config.Config, func(), error) {
	cfg, err := config.Read(cf.configPath)
	if err != nil {
		return nil, nil, err
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = cf.logLevel
	}
	if fs.Changed("log-file") {
		cfg.LogFile = cf.logFile
	}
	if strategy != "" {
		cfg.Strategy = strategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if cfg.LogFile == "" {
		logger.Install(logger.New(os.Stderr, level))
		return cfg, func() {}, nil
	}

	l, err := logger.OpenFile(cfg.LogFile, level)
	if err != nil {
		return nil, nil, err
	}
	logger.Install(l)
	return cfg, func() { l.Close() }, nil
}

func runMap(args []string) error {
	var (
		cf       commonFlags
		strategy string
		pretty   bool
	)
	fs := newFlagSet("map", "<old> <new> [out]", &cf)
	fs.StringVarP(&strategy, "strategy", "s", "", "Alignment strategy: staged, dp, diff (dp needs len(old)*len(new) bytes).")
	fs.BoolVarP(&pretty, "pretty", "p", false, "Indent the JSON output.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 || fs.NArg() > 3 {
		fs.Usage()
		return errors.New("map needs <old> <new> [out]")
	}

	cfg, closeLog, err := setup(&cf, fs, strategy)
	if err != nil {
		return err
	}
	defer closeLog()

	out := defaultOutput
	if fs.NArg() == 3 {
		out = fs.Arg(2)
	}

	oldLines, err := buffer.LoadFile(fs.Arg(0), cfg.Engine.UnicodeFold)
	if err != nil {
		return err
	}
	newLines, err := buffer.LoadFile(fs.Arg(1), cfg.Engine.UnicodeFold)
	if err != nil {
		return err
	}

	entries := engine.Run(cfg.StrategyValue(), oldLines, newLines, cfg.Engine)
	if err := buffer.WriteMapping(out, entries, pretty); err != nil {
		return err
	}

	logger.Info("map: %d entries (%s strategy) written to %s", len(entries), cfg.Strategy, out)
	fmt.Printf("Wrote %d mapping entries to %s\n", len(entries), out)
	return nil
}

func runEval(args []string) error {
	var (
		cf            commonFlags
		ignoreTrivial bool
	)
	fs := newFlagSet("eval", "<gold.xml> <mapping.json> [label]", &cf)
	fs.BoolVar(&ignoreTrivial, "ignore-trivial", false, "Leave trivial_match entries out of the score.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 || fs.NArg() > 3 {
		fs.Usage()
		return errors.New("eval needs <gold.xml> <mapping.json> [label]")
	}

	_, closeLog, err := setup(&cf, fs, "")
	if err != nil {
		return err
	}
	defer closeLog()

	label := filepath.Base(fs.Arg(1))
	if fs.NArg() == 3 {
		label = fs.Arg(2)
	}

	r, err := eval.EvaluatePair(fs.Arg(0), fs.Arg(1), eval.Options{IgnoreTrivial: ignoreTrivial})
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s accuracy\n", label, r)
	return nil
}

func runEvalSet(args []string) error {
	var (
		cf            commonFlags
		ignoreTrivial bool
		dbPath        string
		label         string
	)
	fs := newFlagSet("eval-set", "<goldDir> <mappingDir>", &cf)
	fs.BoolVar(&ignoreTrivial, "ignore-trivial", false, "Leave trivial_match entries out of the score.")
	fs.StringVar(&dbPath, "db", "", "Record the run in this SQLite database.")
	fs.StringVar(&label, "label", "", "Label stored with the recorded run (default: mapping directory name).")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("eval-set needs <goldDir> <mappingDir>")
	}

	cfg, closeLog, err := setup(&cf, fs, "")
	if err != nil {
		return err
	}
	defer closeLog()

	opts := eval.Options{IgnoreTrivial: ignoreTrivial}
	report, err := eval.EvaluateSet(fs.Arg(0), fs.Arg(1), opts)
	if err != nil {
		return err
	}
	if err := report.WriteText(os.Stdout); err != nil {
		return err
	}

	if dbPath == "" {
		return nil
	}
	if label == "" {
		label = filepath.Base(fs.Arg(1))
	}
	return recordRun(dbPath, label, cfg.Strategy, opts, report.Overall, report.Files)
}

func runBatch(args []string) error {
	var (
		cf            commonFlags
		strategy      string
		workers       int
		ignoreTrivial bool
		dbPath        string
	)
	fs := newFlagSet("batch", "<datasetDir> <outDir>", &cf)
	fs.StringVarP(&strategy, "strategy", "s", "", "Alignment strategy: staged, dp, diff (dp needs len(old)*len(new) bytes).")
	fs.IntVarP(&workers, "workers", "w", 0, "Concurrent comparisons (default: config value, 0 = one per CPU).")
	fs.BoolVar(&ignoreTrivial, "ignore-trivial", false, "Leave trivial_match entries out of the score.")
	fs.StringVar(&dbPath, "db", "", "Record the scored pairs in this SQLite database.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errors.New("batch needs <datasetDir> <outDir>")
	}

	cfg, closeLog, err := setup(&cf, fs, strategy)
	if err != nil {
		return err
	}
	defer closeLog()
	if fs.Changed("workers") {
		cfg.Workers = workers
	}

	pairs, err := eval.DiscoverPairs(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no _v1/_v2 pairs found in %s", fs.Arg(0))
	}
	logger.Info("batch: mapping %d pairs with %s strategy", len(pairs), cfg.Strategy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := eval.BatchOptions{
		OutDir:   fs.Arg(1),
		Strategy: cfg.StrategyValue(),
		Params:   cfg.Engine,
		Workers:  cfg.Workers,
		Eval:     eval.Options{IgnoreTrivial: ignoreTrivial},
	}
	results, err := eval.MapPairs(ctx, pairs, opts)
	if err != nil {
		return err
	}

	var (
		overall eval.Result
		files   []eval.FileResult
		failed  int
	)
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			logger.Error("batch: %s: %v", r.Pair.Name, r.Err)
			fmt.Printf("%s: error: %v\n", r.Pair.Name, r.Err)
		case r.Score != nil:
			overall.Add(*r.Score)
			files = append(files, eval.FileResult{Name: r.Pair.Name, Result: *r.Score})
			fmt.Printf("%s: %d entries, %s\n", r.Pair.Name, r.Entries, r.Score)
		default:
			fmt.Printf("%s: %d entries\n", r.Pair.Name, r.Entries)
		}
	}

	fmt.Println(strings.Repeat("-", 50))
	if overall.Total > 0 {
		fmt.Printf("Overall: %s/%s = %.1f%% accuracy\n",
			humanize.Comma(int64(overall.Correct)), humanize.Comma(int64(overall.Total)), overall.Percent())
	}

	if dbPath != "" && len(files) > 0 {
		if err := recordRun(dbPath, filepath.Base(fs.Arg(0)), cfg.Strategy, opts.Eval, overall, files); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d pairs failed", failed, len(pairs))
	}
	return nil
}

func runRuns(args []string) error {
	var (
		cf     commonFlags
		dbPath string
		limit  int
	)
	fs := newFlagSet("runs", "", &cf)
	fs.StringVar(&dbPath, "db", "", "SQLite database holding recorded runs.")
	fs.IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 = all).")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if dbPath == "" {
		fs.Usage()
		return errors.New("runs needs --db")
	}

	_, closeLog, err := setup(&cf, fs, "")
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := metrics.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tLABEL\tSTRATEGY\tSCORE\tACCURACY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%.1f%%\n",
			shortID(r.ID), humanize.Time(r.CreatedAt), r.Label, r.Strategy, r.Correct, r.Total, r.Accuracy()*100)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func recordRun(dbPath, label, strategy string, opts eval.Options, overall eval.Result, files []eval.FileResult) error {
	store, err := metrics.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := metrics.Run{
		Label:         label,
		Strategy:      strategy,
		IgnoreTrivial: opts.IgnoreTrivial,
		Correct:       overall.Correct,
		Total:         overall.Total,
	}
	for _, f := range files {
		run.Files = append(run.Files, metrics.FileRecord{Name: f.Name, Correct: f.Result.Correct, Total: f.Result.Total})
	}

	id, err := store.RecordRun(context.Background(), run)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	logger.Info("recorded run %s in %s", id, dbPath)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	name := os.Args[1]
	if name == "-h" || name == "--help" || name == "help" {
		usage()
		return
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(os.Args[2:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(1)
}
