package analysis

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/ndetect/pkg/logging"
	"github.com/arthur-debert/ndetect/pkg/minhash"
	"github.com/arthur-debert/ndetect/pkg/symlinks"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// Scanner turns path arguments into signed TextFile records. Discovery is
// sequential and deterministic; signing fans out over a bounded worker
// pool. Per-file failures are logged and skipped, never fatal, so one
// unreadable file cannot abort a large scan.
type Scanner struct {
	fs       types.FS
	resolver *symlinks.Resolver
	analyzer *Analyzer
	engine   *minhash.Engine
	workers  int
}

// NewScanner assembles a scanner from the discovery and signing stages.
// workers bounds parallel signing; zero means the available hardware
// parallelism.
func NewScanner(fsys types.FS, resolver *symlinks.Resolver, analyzer *Analyzer, engine *minhash.Engine, workers int) *Scanner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scanner{
		fs:       fsys,
		resolver: resolver,
		analyzer: analyzer,
		engine:   engine,
		workers:  workers,
	}
}

// Scan discovers text files under the given paths and computes their
// signatures. Directories are walked recursively; symlinks are resolved
// through the resolver, so cycles, over-deep chains and boundary escapes
// become skips. The result preserves discovery order and contains at most
// one record per resolved path. Cancellation is honored between files.
func (s *Scanner) Scan(ctx context.Context, paths []string) ([]*types.TextFile, error) {
	files, err := s.discover(ctx, paths)
	if err != nil {
		return nil, err
	}
	if err := s.sign(ctx, files); err != nil {
		return nil, err
	}
	return files, nil
}

// discover collects candidate records, applying the resolver and the
// analyzer's validity screen
func (s *Scanner) discover(ctx context.Context, paths []string) ([]*types.TextFile, error) {
	logger := logging.GetLogger("analysis")

	var files []*types.TextFile
	seen := map[string]struct{}{}

	addFile := func(path string) {
		resolved, err := s.resolver.Resolve(path)
		if err != nil {
			logger.Debug().Str("path", path).Err(err).Msg("Skipping unresolvable path")
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}

		file, err := s.analyzer.Analyze(resolved)
		if err != nil {
			logger.Warn().Str("path", resolved).Err(err).Msg("Skipping unreadable file")
			return
		}
		if file != nil {
			files = append(files, file)
		}
	}

	for _, root := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resolved, err := s.resolver.Resolve(root)
		if err != nil {
			logger.Warn().Str("path", root).Err(err).Msg("Skipping unresolvable argument")
			continue
		}
		info, err := s.fs.Stat(resolved)
		if err != nil {
			logger.Warn().Str("path", resolved).Err(err).Msg("Skipping unreadable argument")
			continue
		}
		if !info.IsDir() {
			addFile(root)
			continue
		}

		// Iterative walk; directory entries are visited in sorted order so
		// discovery order is stable across runs
		stack := []string{resolved}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			entries, err := s.fs.ReadDir(dir)
			if err != nil {
				logger.Warn().Str("path", dir).Err(err).Msg("Skipping unreadable directory")
				continue
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

			var subdirs []string
			for _, entry := range entries {
				path := filepath.Join(dir, entry.Name())
				switch {
				case entry.IsDir():
					subdirs = append(subdirs, path)
				case entry.Type()&os.ModeSymlink != 0:
					addFile(path)
				case entry.Type().IsRegular():
					addFile(path)
				}
			}
			// Push in reverse so the stack pops subdirectories in sorted
			// order
			for i := len(subdirs) - 1; i >= 0; i-- {
				stack = append(stack, subdirs[i])
			}
		}
	}

	logger.Debug().Int("count", len(files)).Msg("Discovery complete")
	return files, nil
}

// sign computes signatures in parallel. Each worker writes only its own
// record, so no locking is needed. A failed file keeps a nil signature
// and is later ignored by clustering.
func (s *Scanner) sign(ctx context.Context, files []*types.TextFile) error {
	logger := logging.GetLogger("analysis")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.fs.Open(file.Path)
			if err != nil {
				logger.Warn().Str("path", file.Path).Err(err).Msg("Cannot open file for signing")
				return nil
			}
			defer func() { _ = r.Close() }()

			sig, err := s.engine.SignReader(ctx, r)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Str("path", file.Path).Err(err).Msg("Signing failed")
				return nil
			}
			file.Signature = sig
			return nil
		})
	}
	return g.Wait()
}
