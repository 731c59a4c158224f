package retention

import (
	"path/filepath"

	"github.com/arthur-debert/ndetect/pkg/config"
	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/logging"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// SelectKeeper deterministically picks exactly one file to retain from a
// non-empty candidate set. Priority patterns, when configured with
// priority-first, win over the numeric strategy: each pattern is tested
// in declared order against every candidate in input order and the first
// match is the keeper. Ties within a strategy resolve to the candidate
// encountered first in input order.
func SelectKeeper(files []*types.TextFile, cfg config.RetentionConfig, baseDir string) (*types.TextFile, error) {
	if len(files) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no candidate files provided")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.PriorityFirst && len(cfg.PriorityPaths) > 0 {
		if keeper := matchPriority(files, cfg.PriorityPaths); keeper != nil {
			logger := logging.GetLogger("retention")
			logger.Debug().
				Str("keeper", keeper.Path).
				Msg("Keeper selected by priority pattern")
			return keeper, nil
		}
	}

	var keeper *types.TextFile
	switch cfg.Strategy {
	case config.StrategyNewest:
		keeper = pick(files, func(a, b *types.TextFile) bool { return a.ModTime.After(b.ModTime) })
	case config.StrategyOldest:
		keeper = pick(files, func(a, b *types.TextFile) bool { return a.ModTime.Before(b.ModTime) })
	case config.StrategyLargest:
		keeper = pick(files, func(a, b *types.TextFile) bool { return a.Size > b.Size })
	case config.StrategySmallest:
		keeper = pick(files, func(a, b *types.TextFile) bool { return a.Size < b.Size })
	case config.StrategyShortestPath:
		keeper = pick(files, func(a, b *types.TextFile) bool {
			return pathLength(a.Path, baseDir) < pathLength(b.Path, baseDir)
		})
	default:
		// Validate above guarantees a known strategy; this is unreachable
		return nil, errors.Newf(errors.ErrInvalidStrategy, "unknown retention strategy %q", cfg.Strategy)
	}
	return keeper, nil
}

// matchPriority returns the first candidate matched by the first matching
// pattern, or nil
func matchPriority(files []*types.TextFile, patterns []string) *types.TextFile {
	for _, pattern := range patterns {
		for _, f := range files {
			if matched, err := filepath.Match(pattern, f.Path); err == nil && matched {
				return f
			}
			if matched, err := filepath.Match(pattern, filepath.Base(f.Path)); err == nil && matched {
				return f
			}
		}
	}
	return nil
}

// pick returns the first candidate that strictly beats all later ones, so
// ties keep input order
func pick(files []*types.TextFile, better func(a, b *types.TextFile) bool) *types.TextFile {
	best := files[0]
	for _, f := range files[1:] {
		if better(f, best) {
			best = f
		}
	}
	return best
}

// pathLength measures path length relative to baseDir when the path is
// beneath it, absolute length otherwise
func pathLength(path, baseDir string) int {
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !hasDotDotPrefix(rel) {
			return len(rel)
		}
	}
	return len(path)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
