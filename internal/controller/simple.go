package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/cheggaaa/pb/v3"
	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	m "refmove.dev/pkg/refmove/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// SimpleUI implements UI using cobra Command's output streams.
type SimpleUI struct {
	cmd      *cobra.Command
	verbose  bool
	progress bool
	bar      *pb.ProgressBar
}

// NewSimpleUI creates a new SimpleUI. Warnings are printed only when verbose
// is set.
func NewSimpleUI(cmd *cobra.Command, verbose bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, verbose: verbose}
}

// Start initializes the UI and, when enabled and requested, a progress bar
// on stderr.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := StartConfig{}
	for _, opt := range options {
		opt(&cfg)
	}

	if s.progress && !s.verbose && cfg.total > 0 {
		s.bar = pb.New(cfg.total)
		s.bar.SetWriter(s.cmd.ErrOrStderr())
		s.bar.Start()
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {
	if s.bar != nil {
		s.bar.Finish()
		s.bar = nil
	}
}

// DisplayPlan prints the source to destination table of a dry run.
func (s *SimpleUI) DisplayPlan(ctx context.Context, plan m.MovePlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n%s", titleStyle.Render("Dry run, nothing will be changed"), renderPlanTable(plan))

	return nil
}

func renderPlanTable(plan m.MovePlan) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Source", "Destination"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, dir := range plan.Directories {
		table.Append([]string{plan.WorkingDir.Rel(dir.SourceRoot) + "/", plan.WorkingDir.Rel(dir.Destination) + "/"})
	}

	for _, mapping := range plan.Mappings {
		table.Append([]string{plan.WorkingDir.Rel(mapping.Source), plan.WorkingDir.Rel(mapping.Destination)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(plan.Mappings)),
		fmt.Sprintf("Directories %d", len(plan.Directories)),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayStrategy shows the tier chosen for the run.
func (s *SimpleUI) DisplayStrategy(ctx context.Context, strategy m.Strategy, files int) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Moving %d file(s) using the %s strategy\n", files, titleStyle.Render(strategy.String()))
}

// DisplayProgress advances the progress bar by done files.
func (s *SimpleUI) DisplayProgress(_ context.Context, done int) {
	if s.bar != nil {
		s.bar.Add(done)
	}
}

// DisplayWarning prints a warning in verbose mode.
func (s *SimpleUI) DisplayWarning(ctx context.Context, warning m.Warning) {
	if err := ctx.Err(); err != nil || !s.verbose {
		return
	}

	line := fmt.Sprintf("warning [%s]", warning.Kind)
	if warning.Path != "" {
		line += " " + string(warning.Path)
	}

	s.errorf("%s: %s\n", warnStyle.Render(line), warning.Message)
}

// DisplayChanges prints a unified diff for every written file.
func (s *SimpleUI) DisplayChanges(ctx context.Context, changes []m.FileChange) {
	if err := ctx.Err(); err != nil {
		return
	}

	for _, change := range changes {
		diff, err := renderDiff(change)
		if err != nil {
			s.errorf("cannot diff %s: %v\n", change.Path, err)
			continue
		}

		if diff == "" {
			continue
		}

		s.printf("%s", diff)
	}
}

func renderDiff(change m.FileChange) (string, error) {
	from := change.Path
	if change.MovedFrom != "" {
		from = change.MovedFrom
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(change.Before)),
		B:        difflib.SplitLines(string(change.After)),
		FromFile: string(from),
		ToFile:   string(change.Path),
		Context:  1,
	})
}

// DisplaySummary prints the final counts.
func (s *SimpleUI) DisplaySummary(ctx context.Context, report m.RunReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s %d/%d file(s) using %s\n",
		okStyle.Render("Moved"), report.FilesMoved, report.FilesDiscovered, report.Strategy)
	s.printf("Updated imports in %d file(s)\n", report.ReferencesFixed)

	if report.FallbackMoves > 0 {
		s.printf("%s %d file(s) moved without updating references\n", warnStyle.Render("Fallback:"), report.FallbackMoves)
	}

	if report.FilesSkipped > 0 {
		s.printf("%s %d file(s)\n", warnStyle.Render("Skipped:"), report.FilesSkipped)
	}

	if report.DirectoriesSwept > 0 {
		s.printf("Removed %d empty director(ies)\n", report.DirectoriesSwept)
	}

	if len(report.Warnings) > 0 && !s.verbose {
		s.printf("%s\n", faintStyle.Render(fmt.Sprintf("%d warning(s), rerun with --verbose for details", len(report.Warnings))))
	}
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func (s *SimpleUI) errorf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), format, args...)
}
