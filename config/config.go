// Package config loads linemap settings from a TOML (or JSON) file, applies
// environment overrides and validates the result.
//
// Example config.toml:
//
//	log_level = "debug"
//	strategy = "staged"
//
//	[engine]
//	split_threshold = 0.55
//	top_k = 10
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"linemap/engine"
	"linemap/logger"
	"linemap/types"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete linemap configuration.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error
	LogLevel string `toml:"log_level" json:"log_level"`
	// LogFile redirects logging from stderr to a line-limited file
	LogFile string `toml:"log_file" json:"log_file"`
	// Strategy selects the alignment algorithm: staged, dp or diff
	Strategy string `toml:"strategy" json:"strategy"`
	// Workers bounds concurrent comparisons in batch mode (0 = one per CPU)
	Workers int `toml:"workers" json:"workers"`

	Engine engine.Params `toml:"engine" json:"engine"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Strategy: string(types.StrategyStaged),
		Engine:   engine.DefaultParams(),
	}
}

// Load reads the file at path over the defaults and validates the result.
// An empty path yields the defaults. Environment overrides are applied
// before validation.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further
// overrides (command-line flags) and call Validate themselves.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		var err error
		if strings.HasSuffix(path, ".json") {
			err = loadJSON(cfg, path)
		} else {
			err = loadTOML(cfg, path)
		}
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

func loadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		logger.Warn("config: unknown key %q in %s", key.String(), path)
	}
	return nil
}

func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON config %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies LINEMAP_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if level := os.Getenv("LINEMAP_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if file := os.Getenv("LINEMAP_LOG_FILE"); file != "" {
		c.LogFile = file
	}
	if strategy := os.Getenv("LINEMAP_STRATEGY"); strategy != "" {
		c.Strategy = strategy
	}
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks ranges and cross-field constraints. The returned error
// wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		add("log_level", "invalid level %q", c.LogLevel)
	}
	if _, ok := types.ParseStrategy(c.Strategy); !ok {
		add("strategy", "invalid strategy %q, must be one of: staged, dp, diff", c.Strategy)
	}
	if c.Workers < 0 {
		add("workers", "must be >= 0, got %d", c.Workers)
	}

	p := c.Engine
	if p.ContentWeight < 0 || p.ContextWeight < 0 {
		add("engine.content_weight", "weights must be non-negative")
	} else if math.Abs(p.ContentWeight+p.ContextWeight-1) > 1e-9 {
		add("engine.content_weight", "content_weight + context_weight must be 1, got %g", p.ContentWeight+p.ContextWeight)
	}

	units := []struct {
		field string
		value float64
	}{
		{"engine.trivial_context_min", p.TrivialContextMin},
		{"engine.split_threshold", p.SplitThreshold},
		{"engine.candidate_threshold", p.CandidateThreshold},
		{"engine.bias_content_max", p.BiasContentMax},
		{"engine.bias_max", p.BiasMax},
		{"engine.expand_floor", p.ExpandFloor},
		{"engine.expand_ratio", p.ExpandRatio},
		{"engine.dp_match_min", p.DPMatchMin},
		{"engine.dp_gap_penalty", p.DPGapPenalty},
		{"engine.diff_similarity_min", p.DiffSimilarityMin},
	}
	for _, u := range units {
		if u.value < 0 || u.value > 1 {
			add(u.field, "must be within [0, 1], got %g", u.value)
		}
	}

	counts := []struct {
		field string
		value int
	}{
		{"engine.exact_context_radius", p.ExactContextRadius},
		{"engine.split_max_offset", p.SplitMaxOffset},
		{"engine.split_context_radius", p.SplitContextRadius},
		{"engine.candidate_context_radius", p.CandidateContextRadius},
		{"engine.offset_window", p.OffsetWindow},
		{"engine.bias_distance", p.BiasDistance},
		{"engine.expand_max_steps", p.ExpandMaxSteps},
	}
	for _, n := range counts {
		if n.value < 0 {
			add(n.field, "must be >= 0, got %d", n.value)
		}
	}

	if p.SplitMinGroup < 2 {
		add("engine.split_min_group", "must be >= 2, got %d", p.SplitMinGroup)
	}
	if p.SplitMaxGroup < p.SplitMinGroup {
		add("engine.split_max_group", "must be >= split_min_group (%d), got %d", p.SplitMinGroup, p.SplitMaxGroup)
	}
	if p.TopK < 1 {
		add("engine.top_k", "must be >= 1, got %d", p.TopK)
	}
	if p.ExpandMaxGroup < 1 {
		add("engine.expand_max_group", "must be >= 1, got %d", p.ExpandMaxGroup)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
}

// StrategyValue returns the parsed strategy; call after Validate.
func (c *Config) StrategyValue() types.Strategy {
	s, _ := types.ParseStrategy(c.Strategy)
	return s
}
