package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"refmove.dev/pkg/refmove/internal/adapter"
	"refmove.dev/pkg/refmove/internal/controller"
	m "refmove.dev/pkg/refmove/internal/model"
	"refmove.dev/pkg/refmove/pkg"
)

// ErrDestinationUnavailable is returned when a destination directory the
// whole run depends on cannot be created.
var ErrDestinationUnavailable = errors.New("destination directory cannot be created")

// MoveArgs contains the arguments of a move run.
type MoveArgs struct {
	RunID        string
	WorkingDir   m.WorkingDirectory
	Sources      []string
	Destination  string
	Extensions   []string
	Force        bool
	DryRun       bool
	DebugImports bool
	Recursive    bool
	// TSConfigPath pins the project root to the directory holding it.
	TSConfigPath string
	// SpillDir holds the ledger of completed moves; empty means the OS default.
	SpillDir string
}

// Workflow runs a move from discovery to cleanup.
type Workflow interface {
	Move(ctx context.Context, args MoveArgs) (m.RunReport, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.ProjectFactory
	controller.UI
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(fsAdapter adapter.SourceFSAdapter, factory adapter.ProjectFactory, ui controller.UI) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		ProjectFactory:  factory,
		UI:              ui,
	}
}

// Move discovers the inputs, plans every destination once, and either reports
// the plan (dry run) or executes it tier by tier.
func (w *workflow) Move(ctx context.Context, args MoveArgs) (m.RunReport, error) {
	report := m.RunReport{RunID: args.RunID, DryRun: args.DryRun}

	fs := w.SourceFSAdapter
	if args.DryRun {
		fs = fs.ReadOnly()
	}

	discovery, err := NewDiscoverer(fs).Discover(DiscoverArgs{
		WorkingDir: args.WorkingDir,
		Sources:    args.Sources,
		Extensions: args.Extensions,
		Recursive:  args.Recursive,
	})
	for _, warning := range discovery.Warnings {
		w.warn(ctx, &report, warning)
	}

	if err != nil {
		return report, err
	}

	files := discovery.Files()
	report.FilesDiscovered = files

	destination := args.WorkingDir.Resolve(args.Destination)
	plan := BuildPlan(discovery.Entries, destination, IsDirectoryDestination(fs, args.Destination, destination, files))
	plan.WorkingDir = args.WorkingDir
	report.Mappings = plan.Mappings

	if args.DryRun {
		return report, w.DisplayPlan(ctx, plan)
	}

	return w.execute(ctx, args, plan, report)
}

func (w *workflow) execute(ctx context.Context, args MoveArgs, plan m.MovePlan, report m.RunReport) (m.RunReport, error) {
	files := len(plan.Mappings)
	strategy := SelectStrategy(files)
	tier := TierFor(strategy)
	report.Strategy = strategy.String()

	slog.Info("Selected strategy", "strategy", strategy, "files", files)
	w.DisplayStrategy(ctx, strategy, files)

	if err := w.prepareDestinations(plan); err != nil {
		return report, err
	}

	root := w.projectRoot(args)

	ledger, err := pkg.NewFileSpill[m.MoveMapping](args.SpillDir)
	if err != nil {
		return report, fmt.Errorf("create move ledger: %w", err)
	}

	defer func() {
		if err := ledger.Remove(); err != nil {
			slog.Warn("Cannot remove move ledger", "path", ledger.Path(), "error", err)
		}
	}()

	builder := NewScopeBuilder(w.SourceFSAdapter, w.ProjectFactory, ScopeConfig{
		Root:         root,
		Extensions:   args.Extensions,
		DebugImports: args.DebugImports,
	})

	exec := NewExecutor(w.SourceFSAdapter, ExecuteOptions{
		Force:    args.Force,
		Fallback: tier.UsesTextualScan(),
		OnSaved: func(saved adapter.SaveResult) {
			if args.DebugImports {
				w.DisplayChanges(ctx, saved.Changes)
			}
		},
	})

	if tier.Batched() {
		if err := w.Start(ctx, controller.WithProgress(files)); err != nil {
			return report, err
		}
	}

	for _, batch := range Batches(plan.Mappings, tier) {
		w.runBatch(ctx, builder, exec, tier, batch, ledger, &report)
		w.DisplayProgress(ctx, len(batch))
	}

	if tier.Batched() {
		w.Close(ctx)
	}

	swept := NewSweeper(w.SourceFSAdapter).Sweep(plan.SweepRoots, ledger, []m.Path{m.Path(args.WorkingDir), root})
	report.DirectoriesSwept = len(swept.Removed)

	for _, warning := range swept.Warnings {
		w.warn(ctx, &report, warning)
	}

	slog.Info("Move finished",
		"moved", report.FilesMoved,
		"skipped", report.FilesSkipped,
		"fallbacks", report.FallbackMoves,
		"references", report.ReferencesFixed,
		"swept", report.DirectoriesSwept)

	w.DisplaySummary(ctx, report)

	return report, nil
}

// runBatch builds a scope for batch, moves it, persists it and tears the
// scope down before the next batch starts.
func (w *workflow) runBatch(
	ctx context.Context,
	builder ScopeBuilder,
	exec Executor,
	tier m.Tier,
	batch []m.MoveMapping,
	ledger pkg.FileSpill[m.MoveMapping],
	report *m.RunReport,
) {
	seeds := m.MovePlan{Mappings: batch}.Seeds()

	scope, err := builder.Build(ctx, tier, seeds)
	if err != nil {
		for _, seed := range seeds {
			w.warn(ctx, report, m.Warning{Kind: m.WarnScopeLoad, Path: seed, Message: err.Error()})
		}

		report.FilesSkipped += len(batch)

		return
	}

	defer func() {
		if err := scope.Close(); err != nil {
			slog.Warn("Cannot close scope", "error", err)
		}
	}()

	for _, warning := range scope.Warnings {
		w.warn(ctx, report, warning)
	}

	if !tier.UsesTextualScan() {
		for _, cycle := range FindCycles(ctx, scope.Project, scope.Seeds) {
			w.warn(ctx, report, m.Warning{Kind: m.WarnCycle, Path: cycle[0], Message: "import cycle: " + cycle.String()})
		}
	}

	result := exec.Execute(ctx, scope, batch)

	for _, warning := range result.Warnings {
		w.warn(ctx, report, warning)
	}

	if err := ledger.AppendBatch(result.Moved); err != nil {
		slog.Warn("Cannot record moves in ledger", "error", err)
	}

	report.FilesMoved += len(result.Moved)
	report.FilesSkipped += result.Skipped
	report.FallbackMoves += result.Fallbacks
	report.ReferencesFixed += result.ReferencesFixed
}

// prepareDestinations creates the directories the whole run depends on.
func (w *workflow) prepareDestinations(plan m.MovePlan) error {
	dirs := make([]m.Path, 0, len(plan.Directories)+1)
	if plan.DestinationIsDirectory {
		dirs = append(dirs, plan.Destination)
	}

	for _, dir := range plan.Directories {
		dirs = append(dirs, dir.Destination)
	}

	for _, dir := range dirs {
		if err := w.MkdirAll(dir); err != nil {
			slog.Error("Failed to create destination", "path", dir, "error", err)
			return fmt.Errorf("%w: %s: %w", ErrDestinationUnavailable, dir, err)
		}
	}

	return nil
}

// projectRoot is the directory of the tsconfig given by the user, else the
// nearest directory above the working directory holding a project marker,
// else the working directory.
func (w *workflow) projectRoot(args MoveArgs) m.Path {
	if args.TSConfigPath != "" {
		return args.WorkingDir.Resolve(args.TSConfigPath).Dir()
	}

	root, err := w.FindProjectRoot(m.Path(args.WorkingDir))
	if err != nil {
		slog.Debug("No project marker found, using working directory", "dir", args.WorkingDir)
		return m.Path(args.WorkingDir)
	}

	return root
}

func (w *workflow) warn(ctx context.Context, report *m.RunReport, warning m.Warning) {
	w.DisplayWarning(ctx, report.Warn(warning.Kind, warning.Path, warning.Message))
}
