// Package scan wires discovery, clustering, retention and the move
// transaction into the end-to-end consolidation run.
package scan

import (
	"context"

	"github.com/arthur-debert/ndetect/pkg/analysis"
	"github.com/arthur-debert/ndetect/pkg/config"
	"github.com/arthur-debert/ndetect/pkg/errors"
	"github.com/arthur-debert/ndetect/pkg/filesystem"
	"github.com/arthur-debert/ndetect/pkg/logging"
	"github.com/arthur-debert/ndetect/pkg/minhash"
	"github.com/arthur-debert/ndetect/pkg/operations"
	"github.com/arthur-debert/ndetect/pkg/retention"
	"github.com/arthur-debert/ndetect/pkg/similarity"
	"github.com/arthur-debert/ndetect/pkg/symlinks"
	"github.com/arthur-debert/ndetect/pkg/types"
	"github.com/arthur-debert/ndetect/pkg/ui"
)

// Options holds everything a run needs. FS, Prompter and Renderer are
// injectable for testing; nil picks the production defaults.
type Options struct {
	Config config.Config

	// FileSystem allows injecting a filesystem for testing
	FileSystem types.FS

	// Interactive prompts per group instead of applying the retention
	// strategy across the board
	Interactive bool

	Prompter *ui.Prompter
	Renderer *ui.Renderer
}

// Result summarizes one run
type Result struct {
	Scanned int
	Groups  []similarity.Group
	// Keepers maps group ID to the retained file
	Keepers map[int]string
	// Moves is the executed (or, under dry run, planned) batch
	Moves []*operations.MoveOperation
	// Deleted lists duplicates removed outright via the delete action
	Deleted []string
	// Aborted is set when the user quit mid-run; remaining groups were
	// left untouched
	Aborted bool
}

// Execute runs the full pipeline: discover and sign files, cluster them,
// pick keepers and consolidate duplicates into the holding directory.
func Execute(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.scan")
	done := logging.LogOperationStart(logger, "scan")
	defer done()
	cfg := opts.Config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fs := opts.FileSystem
	if fs == nil {
		fs = filesystem.NewOS()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = ui.NewConsoleRenderer()
	}

	logger.Info().
		Strs("paths", cfg.Paths).
		Float64("threshold", cfg.Threshold).
		Str("strategy", cfg.Retention.Strategy).
		Bool("dry_run", cfg.Move.DryRun).
		Msg("Starting scan")

	engineCfg := minhash.DefaultConfig()
	engineCfg.NumPermutations = cfg.NumPermutations
	engineCfg.ShingleSize = cfg.ShingleSize
	engineCfg.Workers = cfg.Analyzer.MaxWorkers
	engine, err := minhash.NewEngine(engineCfg)
	if err != nil {
		return nil, err
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Analyzer, fs)
	if err != nil {
		return nil, err
	}
	resolver := symlinks.NewResolver(symlinks.Config{
		Follow:   cfg.FollowSymlinks,
		MaxDepth: cfg.MaxSymlinkDepth,
		BaseDir:  cfg.BaseDir,
	}, fs)
	scanner := analysis.NewScanner(fs, resolver, analyzer, engine, cfg.Analyzer.MaxWorkers)

	files, err := scanner.Scan(ctx, cfg.Paths)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*types.TextFile, len(files))
	for _, file := range files {
		index[file.Path] = file
	}

	graph, err := similarity.NewGraph(cfg.Threshold)
	if err != nil {
		return nil, err
	}
	graph.Add(files)
	groups := graph.Groups()

	result := &Result{
		Scanned: len(files),
		Groups:  groups,
		Keepers: map[int]string{},
	}

	if err := renderer.RenderGroups(groups, index); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return result, nil
	}

	planner := operations.NewPlanner(cfg.Move.HoldingDir, cfg.Move.PreserveStructure, cfg.BaseDir)
	var batch []*operations.MoveOperation
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		keeper, action, err := decideKeeper(opts, renderer, graph, group, index, cfg)
		if err != nil {
			return nil, err
		}
		switch action {
		case ui.ActionQuit:
			result.Aborted = true
		case ui.ActionKeep:
			// The operator resolved the group by keeping everything
			graph.Dissolve(group.Files)
			continue
		case ui.ActionDelete:
			result.Keepers[group.ID] = keeper
			duplicates := groupDuplicates(group, keeper)
			if cfg.Move.DryRun {
				result.Deleted = append(result.Deleted, duplicates...)
				continue
			}
			for _, path := range duplicates {
				if err := fs.Remove(path); err != nil {
					return nil, errors.Wrapf(err, errors.ErrOperationFailed, "cannot delete %s", path)
				}
				logger.Info().Str("path", path).Int("group", group.ID).Msg("Deleted duplicate")
			}
			graph.Remove(duplicates)
			result.Deleted = append(result.Deleted, duplicates...)
			continue
		case ui.ActionMove:
			result.Keepers[group.ID] = keeper
			batch = append(batch, planner.Plan(groupDuplicates(group, keeper), group.ID)...)
			continue
		}
		break
	}

	if err := renderer.RenderKeepers(result.Keepers); err != nil {
		return nil, err
	}
	if err := renderer.RenderMovePreview(batch, cfg.Move.DryRun); err != nil {
		return nil, err
	}
	result.Moves = batch

	moved := 0
	if !cfg.Move.DryRun && len(batch) > 0 {
		tx := operations.NewTransaction(fs)
		if err := tx.Execute(batch); err != nil {
			return nil, err
		}
		moved = len(batch)
		sources := make([]string, len(batch))
		for i, move := range batch {
			sources[i] = move.Source
		}
		graph.Remove(sources)
		logger.Info().Str("batch", tx.BatchID()).Int("moved", moved).Msg("Batch complete")
	}

	if err := renderer.RenderSummary(result.Scanned, len(groups), moved); err != nil {
		return nil, err
	}
	return result, nil
}

// decideKeeper resolves one group to a keeper and an action, either via
// the interactive prompt or the configured retention strategy. Info
// requests are handled here by re-prompting after the detail display.
func decideKeeper(opts Options, renderer *ui.Renderer, graph *similarity.Graph,
	group similarity.Group, index map[string]*types.TextFile, cfg config.Config) (string, ui.Action, error) {

	action := ui.ActionMove
	if opts.Interactive && opts.Prompter != nil {
		for {
			decision, err := opts.Prompter.Prompt(group)
			if err != nil {
				return "", action, err
			}
			if decision.Action == ui.ActionInfo {
				if err := renderer.RenderGroupDetail(group, graph.GroupSimilarities(group.Files)); err != nil {
					return "", action, err
				}
				continue
			}
			action = decision.Action
			if action == ui.ActionQuit || action == ui.ActionKeep {
				return "", action, nil
			}
			if decision.Keeper != "" {
				return decision.Keeper, action, nil
			}
			break
		}
	}

	members := make([]*types.TextFile, 0, len(group.Files))
	for _, path := range group.Files {
		if file, ok := index[path]; ok {
			members = append(members, file)
		}
	}
	chosen, err := retention.SelectKeeper(members, cfg.Retention, cfg.BaseDir)
	if err != nil {
		return "", action, err
	}
	return chosen.Path, action, nil
}

// groupDuplicates lists a group's members minus the keeper
func groupDuplicates(group similarity.Group, keeper string) []string {
	duplicates := make([]string, 0, len(group.Files)-1)
	for _, path := range group.Files {
		if path != keeper {
			duplicates = append(duplicates, path)
		}
	}
	return duplicates
}
