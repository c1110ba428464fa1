package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/agent"
	"github.com/mendtool/mend/internal/batch"
	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/discovery"
	"github.com/mendtool/mend/internal/events"
	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/github"
	"github.com/mendtool/mend/internal/orchestrator"
	"github.com/mendtool/mend/internal/validate"
	"github.com/mendtool/mend/internal/worker"
)

// FixOptions holds flags for the fix command
type FixOptions struct {
	MaxBatchSize int      // Max files per batch (0 = from config)
	GroupBy      string   // "directory" or "flat" ("" = from config)
	Types        []string // File extensions to include ([] = from config)
	PR           bool     // Batched-PR mode: branch, commits, one PR
	Base         string   // Base branch for the work branch
	DryRun       bool     // Show the batch plan without running
}

// Validate checks FixOptions for validity
func (opts FixOptions) Validate() error {
	if opts.MaxBatchSize < 0 {
		return fmt.Errorf("max-batch-size must be positive, got %d", opts.MaxBatchSize)
	}
	switch opts.GroupBy {
	case "", string(config.GroupByDirectory), string(config.GroupByFlat):
	default:
		return fmt.Errorf("group-by must be %q or %q, got %q",
			config.GroupByDirectory, config.GroupByFlat, opts.GroupBy)
	}
	return nil
}

// NewFixCmd creates the fix command
func NewFixCmd(app *App) *cobra.Command {
	var opts FixOptions

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Run batched quality fixes across the codebase",
		Long: `Fix discovers candidate files, groups them into batches, and runs one
isolated agent transformation per batch. Each batch is validated before
its changes are kept; failed batches are skipped, not fatal.

Without --pr, accepted changes stay uncommitted in the working tree.
With --pr, each accepted batch becomes one commit on a new work branch
and a single pull request is opened at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return app.RunFix(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.MaxBatchSize, "max-batch-size", 0, "Maximum files per batch")
	cmd.Flags().StringVar(&opts.GroupBy, "group-by", "", "Batch grouping: directory or flat")
	cmd.Flags().StringSliceVar(&opts.Types, "types", nil, "File extensions to include (e.g. ts,tsx)")
	cmd.Flags().BoolVar(&opts.PR, "pr", false, "Commit each accepted batch and open a pull request")
	cmd.Flags().StringVar(&opts.Base, "base", "", "Base branch for the work branch (default: current)")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Show the batch plan without running")

	return cmd
}

// RunFix executes the quality-fix pipeline.
func (a *App) RunFix(ctx context.Context, opts FixOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := NewSignalHandler(cancel)
	handler.OnShutdown(func() {
		fmt.Fprintln(os.Stderr, "\nInterrupted; finishing current unit state...")
	})
	handler.Start()
	defer handler.Stop()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.LoadConfig(wd)
	if err != nil {
		return err
	}
	applyFixOverrides(cfg, opts)

	bus := events.NewBus()
	defer bus.Close()
	bus.Subscribe(ProgressHandler(os.Stdout))
	if a.verbose || cfg.LogLevel == "debug" {
		bus.Subscribe(events.LogHandler(events.LogConfig{IncludePayload: true}))
	}

	files, err := discovery.Discover(discovery.Options{
		Root:       wd,
		Include:    cfg.Fix.Include,
		Types:      cfg.Fix.Types,
		IgnoreFile: cfg.Fix.IgnoreFile,
		Exclude:    cfg.Fix.Exclude,
	})
	if err != nil {
		return err
	}
	batches := batch.Build(files, cfg.Fix.MaxBatchSize, cfg.Fix.GroupBy)
	if len(batches) == 0 {
		fmt.Println("No candidate files discovered; nothing to do.")
		return nil
	}

	if opts.DryRun {
		fmt.Print(RenderPlan(batches))
		return nil
	}

	session := git.NewSession(wd)
	gate := validate.NewGate(cfg.Checks, wd, bus)
	proc := worker.NewProcessor(
		worker.Config{Dir: wd, MaxTurns: cfg.Agent.MaxTurns},
		worker.Deps{Agent: agent.NewCLI(cfg.Agent.Command), Tree: session, Bus: bus},
	)

	// Credentials are a configuration concern: missing token fails here,
	// before any unit is processed.
	var pr orchestrator.PRCreator
	if opts.PR {
		if err := cfg.ResolveGitHub(wd); err != nil {
			return err
		}
		token, err := config.GitHubToken()
		if err != nil {
			return err
		}
		pr = github.NewPRClient(cfg.GitHub.Owner, cfg.GitHub.Repo, token, bus)
	}

	base := opts.Base
	if base == "" {
		base = cfg.BaseBranch
	}

	pipeline := orchestrator.NewPipeline(proc, gate, session, pr, bus, orchestrator.PipelineOptions{
		PRMode:     opts.PR,
		BaseBranch: base,
	})

	result, runErr := pipeline.Run(ctx, batches)

	// Partial credit: the summary prints even when the run failed, so
	// cost already incurred is always accounted for.
	if result != nil {
		fmt.Print(RenderSummary(result))
	}

	if errors.Is(runErr, git.ErrNoChanges) {
		fmt.Println("No batch produced changes that survived validation; no PR opened.")
	}

	if runErr == nil && result != nil && result.PR != nil {
		if n, err := session.CommitCount(ctx, result.BaseBranch); err == nil {
			fmt.Printf("\n%d commits on %s:\n", n, result.Branch)
		}
		if stat, err := session.DiffStat(ctx, result.BaseBranch); err == nil && stat != "" {
			fmt.Println(stat)
		}
	}
	return runErr
}

// applyFixOverrides layers command-line flags over file/env config.
func applyFixOverrides(cfg *config.Config, opts FixOptions) {
	if opts.MaxBatchSize > 0 {
		cfg.Fix.MaxBatchSize = opts.MaxBatchSize
	}
	if opts.GroupBy != "" {
		cfg.Fix.GroupBy = config.GroupBy(opts.GroupBy)
	}
	if len(opts.Types) > 0 {
		cfg.Fix.Types = opts.Types
	}
}
