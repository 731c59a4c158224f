package config

import (
	"sort"
	"strings"

	"github.com/arthur-debert/ndetect/pkg/errors"
)

// Retention strategies
const (
	StrategyNewest       = "newest"
	StrategyOldest       = "oldest"
	StrategyShortestPath = "shortest_path"
	StrategyLargest      = "largest"
	StrategySmallest     = "smallest"
)

// ValidStrategies lists the known retention strategy names
var ValidStrategies = map[string]bool{
	StrategyNewest:       true,
	StrategyOldest:       true,
	StrategyShortestPath: true,
	StrategyLargest:      true,
	StrategySmallest:     true,
}

// RetentionConfig controls keeper selection for a duplicate group.
// Immutable per run.
type RetentionConfig struct {
	// Strategy is one of the Strategy* constants
	Strategy string
	// PriorityPaths are glob patterns tested in declared order
	PriorityPaths []string
	// PriorityFirst makes a priority-pattern match override the strategy
	PriorityFirst bool
}

// NewRetentionConfig validates and builds a retention configuration
func NewRetentionConfig(strategy string, priorityPaths []string, priorityFirst bool) (RetentionConfig, error) {
	cfg := RetentionConfig{
		Strategy:      strategy,
		PriorityPaths: priorityPaths,
		PriorityFirst: priorityFirst,
	}
	if err := cfg.Validate(); err != nil {
		return RetentionConfig{}, err
	}
	return cfg, nil
}

// Validate checks the strategy name
func (c RetentionConfig) Validate() error {
	if !ValidStrategies[c.Strategy] {
		names := make([]string, 0, len(ValidStrategies))
		for name := range ValidStrategies {
			names = append(names, name)
		}
		sort.Strings(names)
		return errors.Newf(errors.ErrInvalidStrategy,
			"unknown retention strategy %q, must be one of: %s", c.Strategy, strings.Join(names, ", "))
	}
	return nil
}

// MoveConfig controls how duplicates are relocated
type MoveConfig struct {
	// HoldingDir is the destination root for consolidated files
	HoldingDir string
	// PreserveStructure re-creates the path relative to the base dir
	// under the holding dir instead of flat filename placement
	PreserveStructure bool
	// DryRun plans moves without touching the filesystem
	DryRun bool
}

// Validate checks the move configuration
func (c MoveConfig) Validate() error {
	if c.HoldingDir == "" {
		return errors.New(errors.ErrInvalidInput, "holding directory must not be empty")
	}
	return nil
}

// AnalyzerConfig controls text detection and discovery
type AnalyzerConfig struct {
	// MinPrintableRatio is the printable-character threshold for the
	// validity screen, in (0, 1]
	MinPrintableRatio float64
	// AllowedExtensions restricts candidate files; nil means the default
	// set, empty means every extension
	AllowedExtensions []string
	// SkipEmpty excludes zero-byte files from signing
	SkipEmpty bool
	// MaxWorkers bounds parallel signature computation; zero means the
	// available hardware parallelism
	MaxWorkers int
}

// DefaultAllowedExtensions is the default candidate extension set
var DefaultAllowedExtensions = []string{".txt", ".md", ".log", ".csv"}

// DefaultAnalyzerConfig returns the standard analyzer configuration
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MinPrintableRatio: 0.8,
		AllowedExtensions: DefaultAllowedExtensions,
		SkipEmpty:         true,
	}
}

// Validate checks the analyzer configuration
func (c AnalyzerConfig) Validate() error {
	if c.MinPrintableRatio <= 0 || c.MinPrintableRatio > 1 {
		return errors.New(errors.ErrConfigValid, "MinPrintableRatio must be in (0, 1]")
	}
	if c.MaxWorkers < 0 {
		return errors.New(errors.ErrConfigValid, "MaxWorkers must not be negative")
	}
	return nil
}

// Config is the top-level, per-run configuration
type Config struct {
	Paths     []string
	Threshold float64
	BaseDir   string

	NumPermutations int
	ShingleSize     int

	FollowSymlinks  bool
	MaxSymlinkDepth int

	Analyzer  AnalyzerConfig
	Retention RetentionConfig
	Move      MoveConfig
}

// Default returns the standard configuration, before path arguments are
// applied
func Default() Config {
	return Config{
		Threshold:       0.85,
		NumPermutations: 128,
		ShingleSize:     5,
		FollowSymlinks:  false,
		MaxSymlinkDepth: 10,
		Analyzer:        DefaultAnalyzerConfig(),
		Retention: RetentionConfig{
			Strategy: StrategyNewest,
		},
		Move: MoveConfig{
			HoldingDir:        "duplicates",
			PreserveStructure: true,
		},
	}
}

// Validate checks the whole configuration
func (c Config) Validate() error {
	if len(c.Paths) == 0 {
		return errors.New(errors.ErrInvalidInput, "at least one path must be provided")
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return errors.New(errors.ErrConfigValid, "threshold must be in (0, 1]")
	}
	if c.NumPermutations <= 0 {
		return errors.New(errors.ErrConfigValid, "NumPermutations must be positive")
	}
	if c.ShingleSize <= 0 {
		return errors.New(errors.ErrConfigValid, "ShingleSize must be positive")
	}
	if c.MaxSymlinkDepth <= 0 {
		return errors.New(errors.ErrConfigValid, "MaxSymlinkDepth must be positive")
	}
	if err := c.Analyzer.Validate(); err != nil {
		return err
	}
	if err := c.Retention.Validate(); err != nil {
		return err
	}
	return c.Move.Validate()
}
