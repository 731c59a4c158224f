package symlinks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/logging"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// DefaultMaxDepth bounds symlink chain length when no explicit limit is
// configured
const DefaultMaxDepth = 10

// Config controls symlink resolution
type Config struct {
	// Follow enables symlink resolution; when false, symlinks fail to
	// resolve and only regular files pass through
	Follow bool
	// MaxDepth is the maximum number of link hops (default 10)
	MaxDepth int
	// BaseDir, when set, is a containment boundary: every resolved
	// target must stay underneath it
	BaseDir string
}

// DefaultConfig returns a resolver configuration that follows links with
// the standard depth bound and no containment boundary
func DefaultConfig() Config {
	return Config{Follow: true, MaxDepth: DefaultMaxDepth}
}

// Resolver performs bounded, cycle-safe symlink chain resolution.
// Failures are typed for logging and tests, but callers should treat any
// non-nil error as "no result": a file that cannot be resolved is skipped,
// never fatal.
type Resolver struct {
	cfg Config
	fs  types.FS
}

// NewResolver builds a resolver over the given filesystem
func NewResolver(cfg Config, fsys types.FS) *Resolver {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Resolver{cfg: cfg, fs: fsys}
}

// Resolve walks the symlink chain starting at path and returns the final
// regular-file target. The walk is an explicit loop over a visited set
// and a hop counter, so deep chains cannot exhaust the call stack and the
// depth and cycle checks stay uniform.
func (r *Resolver) Resolve(path string) (string, error) {
	logger := logging.GetLogger("symlinks")

	info, err := r.fs.Lstat(path)
	if err != nil {
		return "", statError(path, err)
	}

	if info.Mode()&os.ModeSymlink == 0 {
		// Non-symlinks resolve to themselves after an existence check
		if _, err := r.fs.Stat(path); err != nil {
			return "", statError(path, err)
		}
		return path, nil
	}

	if !r.cfg.Follow {
		return "", errors.Newf(errors.ErrNotFound, "symlink following disabled: %s", path)
	}

	seen := map[string]struct{}{}
	current := filepath.Clean(path)
	hops := 0

	for {
		if _, ok := seen[current]; ok {
			logger.Debug().Str("path", path).Str("at", current).Msg("Circular symlink chain")
			return "", errors.Newf(errors.ErrCircularReference, "symlink cycle at %s", current)
		}
		seen[current] = struct{}{}

		info, err := r.fs.Lstat(current)
		if err != nil {
			return "", statError(current, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return current, nil
		}

		hops++
		if hops > r.cfg.MaxDepth {
			logger.Debug().Str("path", path).Int("maxDepth", r.cfg.MaxDepth).Msg("Symlink chain too deep")
			return "", errors.Newf(errors.ErrDepthExceeded, "symlink chain exceeds %d hops at %s", r.cfg.MaxDepth, path)
		}

		target, err := r.fs.Readlink(current)
		if err != nil {
			return "", statError(current, err)
		}
		// Relative targets resolve against the link's parent, not the
		// original path
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		target = filepath.Clean(target)

		if r.cfg.BaseDir != "" && !isWithin(r.cfg.BaseDir, target) {
			logger.Debug().Str("path", path).Str("target", target).Str("baseDir", r.cfg.BaseDir).
				Msg("Symlink target escapes containment boundary")
			return "", errors.Newf(errors.ErrContainmentViolation,
				"symlink target %s escapes %s", target, r.cfg.BaseDir)
		}

		current = target
	}
}

// statError maps a filesystem error to the resolver's taxonomy
func statError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrNotFound, "path does not exist: %s", path)
	}
	return errors.Wrapf(err, errors.ErrFileAccess, "cannot access %s", path)
}

// isWithin reports whether path is base or a descendant of base
func isWithin(base, path string) bool {
	base = filepath.Clean(base)
	path = filepath.Clean(path)
	return path == base || strings.HasPrefix(path, base+string(filepath.Separator))
}
