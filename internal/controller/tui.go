package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "refmove.dev/pkg/refmove/internal/model"
)

// TUI is the terminal flavour of SimpleUI: it shows a progress bar and pages
// dry-run plans that do not fit on one screen.
type TUI struct {
	*SimpleUI
	output io.Writer
}

// NewTUI creates a new TUI writing to the command's stdout.
func NewTUI(cmd *cobra.Command, verbose bool) *TUI {
	simple := NewSimpleUI(cmd, verbose)
	simple.progress = true

	return &TUI{SimpleUI: simple, output: cmd.OutOrStdout()}
}

// NewUI picks the TUI when stdout is a terminal.
func NewUI(cmd *cobra.Command, isTTY bool, verbose bool) UI {
	if isTTY {
		return NewTUI(cmd, verbose)
	}

	return NewSimpleUI(cmd, verbose)
}

// DisplayPlan prints the plan, or opens a pager when it is taller than the
// terminal.
func (p *TUI) DisplayPlan(ctx context.Context, plan m.MovePlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content := renderPlanTable(plan)
	model := newPlanPagerModel(content)

	if f, ok := p.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model = model.resize(width, height)
		}
	}

	if !model.needsPagination() {
		_, err := fmt.Fprint(p.output, model.header()+"\n"+content)
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

var pagerFooterStyle = lipgloss.NewStyle().Faint(true)

// planPagerModel is the Bubble Tea model scrolling a rendered plan.
type planPagerModel struct {
	lines    int
	viewport viewport.Model
	ready    bool
}

func newPlanPagerModel(content string) planPagerModel {
	vp := viewport.New(0, 0)
	vp.SetContent(content)

	return planPagerModel{
		lines:    strings.Count(content, "\n") + 1,
		viewport: vp,
	}
}

// resize fits the viewport between the header and footer lines.
func (pm planPagerModel) resize(width, height int) planPagerModel {
	pm.viewport.Width = width
	pm.viewport.Height = max(height-2, 1)
	pm.ready = true

	return pm
}

func (pm planPagerModel) needsPagination() bool {
	return pm.ready && pm.lines > pm.viewport.Height
}

func (pm planPagerModel) header() string {
	return titleStyle.Render("Dry run, nothing will be changed")
}

func (pm planPagerModel) Init() tea.Cmd {
	return nil
}

func (pm planPagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return pm.resize(msg.Width, msg.Height), nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c", "enter":
			return pm, tea.Quit
		}
	}

	var cmd tea.Cmd
	pm.viewport, cmd = pm.viewport.Update(msg)

	return pm, cmd
}

func (pm planPagerModel) View() string {
	footer := pagerFooterStyle.Render(fmt.Sprintf("%3.f%%  ↑/↓ scroll, q quit", pm.viewport.ScrollPercent()*100))

	return pm.header() + "\n" + pm.viewport.View() + "\n" + footer
}
