package controller

import (
	"bytes"
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "refmove.dev/pkg/refmove/internal/model"
)

func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	return cmd, &stdout, &stderr
}

func testPlan() m.MovePlan {
	return m.MovePlan{
		WorkingDir: "/p",
		Mappings: []m.MoveMapping{
			{Source: "/p/src/a/x.ts", Destination: "/p/lib/a/x.ts"},
			{Source: "/elsewhere/y.ts", Destination: "/p/lib/y.ts"},
		},
		Directories: []m.DirectoryTarget{{SourceRoot: "/p/src/a", Destination: "/p/lib/a"}},
	}
}

func TestSimpleUI_DisplayPlan(t *testing.T) {
	cmd, stdout, _ := newTestCmd()
	ui := NewSimpleUI(cmd, false)

	require.NoError(t, ui.DisplayPlan(context.Background(), testPlan()))

	out := stdout.String()
	assert.Contains(t, out, "Dry run, nothing will be changed")
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "src/a/")
	assert.Contains(t, out, "lib/a/x.ts")
	assert.Contains(t, out, "/elsewhere/y.ts")
	assert.Contains(t, out, "TOTAL FILES 2")
}

func TestSimpleUI_DisplayPlanCanceled(t *testing.T) {
	cmd, stdout, _ := newTestCmd()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, NewSimpleUI(cmd, false).DisplayPlan(ctx, testPlan()), context.Canceled)
	assert.Empty(t, stdout.String())
}

func TestSimpleUI_DisplayWarning(t *testing.T) {
	warning := m.Warning{Kind: m.WarnFallback, Path: "/p/a.ts", Message: "references not updated"}

	t.Run("quiet", func(t *testing.T) {
		cmd, stdout, stderr := newTestCmd()
		NewSimpleUI(cmd, false).DisplayWarning(context.Background(), warning)

		assert.Empty(t, stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("verbose", func(t *testing.T) {
		cmd, stdout, stderr := newTestCmd()
		NewSimpleUI(cmd, true).DisplayWarning(context.Background(), warning)

		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "warning [fallback] /p/a.ts")
		assert.Contains(t, stderr.String(), "references not updated")
	})
}

func TestSimpleUI_DisplaySummary(t *testing.T) {
	report := m.RunReport{
		Strategy:         "chunked",
		FilesDiscovered:  40,
		FilesMoved:       38,
		FilesSkipped:     2,
		ReferencesFixed:  12,
		DirectoriesSwept: 1,
		Warnings:         []m.Warning{{Kind: m.WarnNotInScope}, {Kind: m.WarnNotInScope}},
	}

	cmd, stdout, _ := newTestCmd()
	NewSimpleUI(cmd, false).DisplaySummary(context.Background(), report)

	out := stdout.String()
	assert.Contains(t, out, "38/40 file(s) using chunked")
	assert.Contains(t, out, "Updated imports in 12 file(s)")
	assert.Contains(t, out, "2 file(s)")
	assert.Contains(t, out, "Removed 1 empty director(ies)")
	assert.Contains(t, out, "2 warning(s), rerun with --verbose")
	assert.NotContains(t, out, "without updating references")
}

func TestSimpleUI_DisplayChanges(t *testing.T) {
	cmd, stdout, _ := newTestCmd()

	NewSimpleUI(cmd, false).DisplayChanges(context.Background(), []m.FileChange{
		{
			Path:   "/p/src/b.ts",
			Before: []byte("import { a } from './a';\n"),
			After:  []byte("import { a } from '../lib/a';\n"),
		},
		{
			Path:      "/p/lib/a.ts",
			MovedFrom: "/p/src/a.ts",
			Before:    []byte("export const a = 1;\n"),
			After:     []byte("export const a = 1;\n"),
		},
	})

	out := stdout.String()
	assert.Contains(t, out, "--- /p/src/b.ts")
	assert.Contains(t, out, "-import { a } from './a';")
	assert.Contains(t, out, "+import { a } from '../lib/a';")
	assert.NotContains(t, out, "/p/src/a.ts")
}

func TestSimpleUI_ProgressOnlyWhenEnabled(t *testing.T) {
	ctx := context.Background()

	cmd, _, _ := newTestCmd()
	simple := NewSimpleUI(cmd, false)
	require.NoError(t, simple.Start(ctx, WithProgress(10)))
	assert.Nil(t, simple.bar)

	tui := NewTUI(cmd, false)
	require.NoError(t, tui.Start(ctx, WithProgress(10)))
	require.NotNil(t, tui.bar)
	tui.DisplayProgress(ctx, 4)
	assert.Equal(t, int64(4), tui.bar.Current())
	tui.Close(ctx)
	assert.Nil(t, tui.bar)

	verbose := NewTUI(cmd, true)
	require.NoError(t, verbose.Start(ctx, WithProgress(10)))
	assert.Nil(t, verbose.bar)
}

func TestNewUI(t *testing.T) {
	cmd, _, _ := newTestCmd()

	assert.IsType(t, &TUI{}, NewUI(cmd, true, false))
	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false, false))
}

func TestTUI_DisplayPlanFitsWithoutPager(t *testing.T) {
	cmd, stdout, _ := newTestCmd()

	require.NoError(t, NewTUI(cmd, false).DisplayPlan(context.Background(), testPlan()))
	assert.Contains(t, stdout.String(), "lib/a/x.ts")
}

func TestPlanPagerModel(t *testing.T) {
	content := "one\ntwo\nthree\nfour\nfive\n"

	model := newPlanPagerModel(content)
	assert.False(t, model.needsPagination())

	assert.True(t, model.resize(80, 4).needsPagination())
	assert.False(t, model.resize(80, 20).needsPagination())

	updated, cmd := model.Update(tea.WindowSizeMsg{Width: 80, Height: 4})
	assert.Nil(t, cmd)
	assert.True(t, updated.(planPagerModel).needsPagination())

	_, cmd = updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	assert.Contains(t, updated.View(), "q quit")
}
