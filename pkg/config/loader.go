package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/logging"
)

// fileConfig mirrors the optional config file. Pointer fields distinguish
// "absent" from zero values so file settings only override what they set.
type fileConfig struct {
	Threshold         *float64 `toml:"threshold" yaml:"threshold"`
	NumPermutations   *int     `toml:"num_permutations" yaml:"num_permutations"`
	ShingleSize       *int     `toml:"shingle_size" yaml:"shingle_size"`
	FollowSymlinks    *bool    `toml:"follow_symlinks" yaml:"follow_symlinks"`
	MaxSymlinkDepth   *int     `toml:"max_symlink_depth" yaml:"max_symlink_depth"`
	MinPrintableRatio *float64 `toml:"min_printable_ratio" yaml:"min_printable_ratio"`
	AllowedExtensions []string `toml:"allowed_extensions" yaml:"allowed_extensions"`
	SkipEmpty         *bool    `toml:"skip_empty" yaml:"skip_empty"`
	MaxWorkers        *int     `toml:"max_workers" yaml:"max_workers"`

	HoldingDir        *string `toml:"holding_dir" yaml:"holding_dir"`
	PreserveStructure *bool   `toml:"preserve_structure" yaml:"preserve_structure"`

	Retention struct {
		Strategy      *string  `toml:"strategy" yaml:"strategy"`
		PriorityPaths []string `toml:"priority_paths" yaml:"priority_paths"`
		PriorityFirst *bool    `toml:"priority_first" yaml:"priority_first"`
	} `toml:"retention" yaml:"retention"`
}

// configFileNames are probed, in order, in the working directory when no
// explicit config file is given
var configFileNames = []string{".ndetect.toml", "ndetect.toml", ".ndetect.yaml", "ndetect.yaml"}

// LoadFile reads path and applies its settings on top of base. The format
// is chosen by extension: .toml or .yaml/.yml.
func LoadFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read config file %s", path)
	}

	var fc fileConfig
	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return base, errors.Wrapf(err, errors.ErrConfigParse, "invalid TOML in %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return base, errors.Wrapf(err, errors.ErrConfigParse, "invalid YAML in %s", path)
		}
	default:
		return base, errors.Newf(errors.ErrConfigLoad, "unsupported config format: %s", path)
	}

	return fc.apply(base), nil
}

// Discover probes the working directory for a config file and applies the
// first one found. A missing file is not an error.
func Discover(base Config) Config {
	logger := logging.GetLogger("config")
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		cfg, err := LoadFile(base, name)
		if err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("Ignoring unreadable config file")
			return base
		}
		logger.Debug().Str("file", name).Msg("Loaded config file")
		return cfg
	}
	return base
}

func (fc fileConfig) apply(cfg Config) Config {
	if fc.Threshold != nil {
		cfg.Threshold = *fc.Threshold
	}
	if fc.NumPermutations != nil {
		cfg.NumPermutations = *fc.NumPermutations
	}
	if fc.ShingleSize != nil {
		cfg.ShingleSize = *fc.ShingleSize
	}
	if fc.FollowSymlinks != nil {
		cfg.FollowSymlinks = *fc.FollowSymlinks
	}
	if fc.MaxSymlinkDepth != nil {
		cfg.MaxSymlinkDepth = *fc.MaxSymlinkDepth
	}
	if fc.MinPrintableRatio != nil {
		cfg.Analyzer.MinPrintableRatio = *fc.MinPrintableRatio
	}
	if fc.AllowedExtensions != nil {
		cfg.Analyzer.AllowedExtensions = fc.AllowedExtensions
	}
	if fc.SkipEmpty != nil {
		cfg.Analyzer.SkipEmpty = *fc.SkipEmpty
	}
	if fc.MaxWorkers != nil {
		cfg.Analyzer.MaxWorkers = *fc.MaxWorkers
	}
	if fc.HoldingDir != nil {
		cfg.Move.HoldingDir = *fc.HoldingDir
	}
	if fc.PreserveStructure != nil {
		cfg.Move.PreserveStructure = *fc.PreserveStructure
	}
	if fc.Retention.Strategy != nil {
		cfg.Retention.Strategy = *fc.Retention.Strategy
	}
	if fc.Retention.PriorityPaths != nil {
		cfg.Retention.PriorityPaths = fc.Retention.PriorityPaths
	}
	if fc.Retention.PriorityFirst != nil {
		cfg.Retention.PriorityFirst = *fc.Retention.PriorityFirst
	}
	return cfg
}
