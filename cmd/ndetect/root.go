package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/ndetect/internal/version"
	"github.com/arthur-debert/ndetect/pkg/commands/scan"
	"github.com/arthur-debert/ndetect/pkg/config"
	"github.com/arthur-debert/ndetect/pkg/logging"
	"github.com/arthur-debert/ndetect/pkg/ui"
)

// rootFlags captures everything settable on the command line. Only flags
// the user actually changed override the config file.
type rootFlags struct {
	verbosity int
	dryRun    bool

	configFile string
	threshold  float64
	baseDir    string

	strategy      string
	priorityPaths []string
	priorityFirst bool

	holdingDir string
	flat       bool

	followSymlinks  bool
	maxSymlinkDepth int

	extensions   []string
	includeEmpty bool
	workers      int

	nonInteractive bool
}

// NewRootCmd builds the ndetect command tree
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "ndetect [paths...]",
		Short: "Find and consolidate near-duplicate text files",
		Long: `ndetect scans directories for text files whose content is nearly
identical, groups them by estimated similarity and consolidates the
duplicates into a holding directory, keeping one file per group.`,
		Args: cobra.MinimumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&flags.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Preview moves without executing them")

	f := rootCmd.Flags()
	f.StringVar(&flags.configFile, "config", "", "Config file (default: probe .ndetect.toml/.ndetect.yaml in the working directory)")
	f.Float64VarP(&flags.threshold, "threshold", "t", 0.85, "Similarity threshold in (0, 1]")
	f.StringVar(&flags.baseDir, "base-dir", "", "Base directory for relative paths and symlink containment")
	f.StringVarP(&flags.strategy, "strategy", "s", config.StrategyNewest, "Retention strategy: newest, oldest, shortest_path, largest, smallest")
	f.StringArrayVar(&flags.priorityPaths, "priority", nil, "Glob pattern preferred for retention (repeatable, tested in order)")
	f.BoolVar(&flags.priorityFirst, "priority-first", false, "Let a priority match override the strategy")
	f.StringVarP(&flags.holdingDir, "holding-dir", "d", "duplicates", "Destination directory for moved duplicates")
	f.BoolVar(&flags.flat, "flat", false, "Place moved files directly in the holding dir instead of mirroring their paths")
	f.BoolVar(&flags.followSymlinks, "follow-symlinks", false, "Resolve symlinks instead of skipping them")
	f.IntVar(&flags.maxSymlinkDepth, "max-symlink-depth", 10, "Maximum symlink chain length")
	f.StringArrayVar(&flags.extensions, "extension", nil, "File extension to consider (repeatable, default: .txt .md .log .csv)")
	f.BoolVar(&flags.includeEmpty, "include-empty", false, "Include zero-byte files")
	f.IntVar(&flags.workers, "workers", 0, "Parallel signing workers (0 = number of CPUs)")
	f.BoolVar(&flags.nonInteractive, "non-interactive", false, "Apply the retention strategy without prompting")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGuideCmd())

	return rootCmd
}

// runScan assembles the effective configuration and runs the pipeline
func runScan(cmd *cobra.Command, args []string, flags *rootFlags) error {
	cfg := config.Default()
	if flags.configFile != "" {
		var err error
		cfg, err = config.LoadFile(cfg, flags.configFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Discover(cfg)
	}
	cfg = applyFlags(cmd, flags, cfg)
	cfg.Paths = args
	if cfg.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.BaseDir = wd
		}
	}

	interactive := !flags.nonInteractive && !cfg.Move.DryRun
	opts := scan.Options{
		Config:      cfg,
		Interactive: interactive,
	}
	if interactive {
		opts.Prompter = ui.NewPrompter(os.Stdin, os.Stdout)
	}

	result, err := scan.Execute(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if result.Aborted {
		return fmt.Errorf("aborted, %d group(s) left untouched", len(result.Groups)-len(result.Keepers))
	}
	return nil
}

// applyFlags overrides file and default settings with flags the user set
func applyFlags(cmd *cobra.Command, flags *rootFlags, cfg config.Config) config.Config {
	set := cmd.Flags().Changed

	if set("threshold") {
		cfg.Threshold = flags.threshold
	}
	if set("base-dir") {
		cfg.BaseDir = flags.baseDir
	}
	if set("strategy") {
		cfg.Retention.Strategy = flags.strategy
	}
	if set("priority") {
		cfg.Retention.PriorityPaths = flags.priorityPaths
	}
	if set("priority-first") {
		cfg.Retention.PriorityFirst = flags.priorityFirst
	}
	if set("holding-dir") {
		cfg.Move.HoldingDir = flags.holdingDir
	}
	if set("flat") {
		cfg.Move.PreserveStructure = !flags.flat
	}
	if set("follow-symlinks") {
		cfg.FollowSymlinks = flags.followSymlinks
	}
	if set("max-symlink-depth") {
		cfg.MaxSymlinkDepth = flags.maxSymlinkDepth
	}
	if set("extension") {
		cfg.Analyzer.AllowedExtensions = flags.extensions
	}
	if set("include-empty") {
		cfg.Analyzer.SkipEmpty = !flags.includeEmpty
	}
	if set("workers") {
		cfg.Analyzer.MaxWorkers = flags.workers
	}
	cfg.Move.DryRun = flags.dryRun
	return cfg
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ndetect version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}
