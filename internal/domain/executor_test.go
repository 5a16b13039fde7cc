package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"refmove.dev/pkg/refmove/internal/adapter"
	"refmove.dev/pkg/refmove/internal/adapter/mocks"
	m "refmove.dev/pkg/refmove/internal/model"
)

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	return string(content)
}

func TestExecutor_MovesAndRewrites(t *testing.T) {
	ctx := context.Background()
	fs := newReferenceFS(t)
	scope := buildScope(t, fs, TierFor(m.StrategySurgical), "/p/src/util.ts")

	var saved []adapter.SaveResult

	exec := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{
		OnSaved: func(result adapter.SaveResult) { saved = append(saved, result) },
	})

	mapping := m.MoveMapping{Source: "/p/src/util.ts", Destination: "/p/lib/helpers/util.ts"}
	result := exec.Execute(ctx, scope, []m.MoveMapping{mapping})

	assert.Equal(t, []m.MoveMapping{mapping}, result.Moved)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Fallbacks)
	assert.Equal(t, 3, result.ReferencesFixed)
	assert.Empty(t, result.Warnings)
	require.Len(t, saved, 1)

	exists, err := afero.Exists(fs, "/p/src/util.ts")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "export const u = 1;\n", readFile(t, fs, "/p/lib/helpers/util.ts"))
	assert.Equal(t, "import { u } from '../lib/helpers/util';\n", readFile(t, fs, "/p/src/a.ts"))
	assert.Equal(t, "export * from '../../lib/helpers/util';\n", readFile(t, fs, "/p/src/nested/c.ts"))
	assert.Equal(t, "export const z = 0;\n", readFile(t, fs, "/p/src/unrelated.ts"))
}

func TestExecutor_SkipsSeedOutsideScope(t *testing.T) {
	fs := newReferenceFS(t)
	scope := buildScope(t, fs, TierFor(m.StrategySurgical), "/p/src/util.ts")

	exec := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{})
	result := exec.Execute(context.Background(), scope, []m.MoveMapping{
		{Source: "/p/src/unrelated.ts", Destination: "/p/lib/unrelated.ts"},
		{Source: "/p/src/util.ts", Destination: "/p/src/util.ts"},
	})

	assert.Empty(t, result.Moved)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, m.WarnNotInScope, result.Warnings[0].Kind)
	assert.Equal(t, "export const z = 0;\n", readFile(t, fs, "/p/src/unrelated.ts"))
}

func TestExecutor_SkippedSeedLeavesNoDestinationDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/bad.ts", "export const bad = 1;\n")

	project := mocks.NewMockProject(t)
	project.On("Save", mock.Anything).Return(adapter.SaveResult{}, nil).Once()

	result := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{}).Execute(context.Background(), mockScope(project), []m.MoveMapping{
		{Source: "/p/src/bad.ts", Destination: "/p/out/deep/renamed.ts"},
	})

	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, m.WarnNotInScope, result.Warnings[0].Kind)

	exists, err := afero.DirExists(fs, "/p/out/deep")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.DirExists(fs, "/p/out")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExecutor_RespectsForce(t *testing.T) {
	mapping := m.MoveMapping{Source: "/p/src/util.ts", Destination: "/p/src/taken.ts"}

	t.Run("existing destination is kept", func(t *testing.T) {
		fs := newReferenceFS(t)
		writeFile(t, fs, "/p/src/taken.ts", "export const taken = true;\n")
		scope := buildScope(t, fs, TierFor(m.StrategySurgical), "/p/src/util.ts")

		result := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{}).Execute(context.Background(), scope, []m.MoveMapping{mapping})

		assert.Empty(t, result.Moved)
		assert.Equal(t, 1, result.Skipped)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, m.WarnMoveFailed, result.Warnings[0].Kind)
		assert.Equal(t, "export const taken = true;\n", readFile(t, fs, "/p/src/taken.ts"))
	})

	t.Run("force overwrites", func(t *testing.T) {
		fs := newReferenceFS(t)
		writeFile(t, fs, "/p/src/taken.ts", "export const taken = true;\n")
		scope := buildScope(t, fs, TierFor(m.StrategySurgical), "/p/src/util.ts")

		result := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{Force: true}).Execute(context.Background(), scope, []m.MoveMapping{mapping})

		assert.Equal(t, []m.MoveMapping{mapping}, result.Moved)
		assert.Equal(t, "export const u = 1;\n", readFile(t, fs, "/p/src/taken.ts"))
		assert.Equal(t, "import { u } from './taken';\n", readFile(t, fs, "/p/src/a.ts"))
	})
}

func TestExecutor_DestinationDirectoryFailureSkipsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/a.ts", "export const a = 1;\n")

	project := mocks.NewMockProject(t)
	project.On("Save", mock.Anything).Return(adapter.SaveResult{}, nil).Once()

	readOnly := adapter.NewSourceFSAdapter(fs).ReadOnly()
	result := NewExecutor(readOnly, ExecuteOptions{}).Execute(context.Background(), mockScope(project, "/p/src/a.ts"), []m.MoveMapping{
		{Source: "/p/src/a.ts", Destination: "/p/new/a.ts"},
	})

	assert.Empty(t, result.Moved)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, m.WarnMoveFailed, result.Warnings[0].Kind)
	assert.Contains(t, result.Warnings[0].Message, "cannot create /p/new")
}

func mockScope(project adapter.Project, loaded ...m.Path) *Scope {
	scope := &Scope{Project: project, Seeds: loaded, loaded: make(map[m.Path]struct{})}
	for _, path := range loaded {
		scope.loaded[path] = struct{}{}
	}

	return scope
}

func TestExecutor_Fallback(t *testing.T) {
	ctx := context.Background()
	mapping := m.MoveMapping{Source: "/p/src/a.ts", Destination: "/p/dest/a.ts"}

	failingProject := func(t *testing.T) *mocks.MockProject {
		project := mocks.NewMockProject(t)
		project.On("Move", mock.Anything, mapping.Source, mapping.Destination, adapter.MoveOptions{}).
			Return(adapter.MoveResult{}, errors.New("model exploded")).Once()
		project.On("Save", mock.Anything).Return(adapter.SaveResult{}, nil).Once()

		return project
	}

	t.Run("copies and deletes when enabled", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/p/src/a.ts", "import './b';\n")

		exec := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{Fallback: true})
		result := exec.Execute(ctx, mockScope(failingProject(t), mapping.Source), []m.MoveMapping{mapping})

		assert.Equal(t, []m.MoveMapping{mapping}, result.Moved)
		assert.Equal(t, 1, result.Fallbacks)
		assert.Zero(t, result.Skipped)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, m.WarnFallback, result.Warnings[0].Kind)
		assert.Contains(t, result.Warnings[0].Message, "without updating references")

		assert.Equal(t, "import './b';\n", readFile(t, fs, "/p/dest/a.ts"))
		exists, err := afero.Exists(fs, "/p/src/a.ts")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("refuses to clobber", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/p/src/a.ts", "import './b';\n")
		writeFile(t, fs, "/p/dest/a.ts", "keep\n")

		exec := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{Fallback: true})
		result := exec.Execute(ctx, mockScope(failingProject(t), mapping.Source), []m.MoveMapping{mapping})

		assert.Empty(t, result.Moved)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, "keep\n", readFile(t, fs, "/p/dest/a.ts"))
		assert.Equal(t, "import './b';\n", readFile(t, fs, "/p/src/a.ts"))
	})

	t.Run("disabled outside streaming", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/p/src/a.ts", "import './b';\n")

		exec := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{})
		result := exec.Execute(ctx, mockScope(failingProject(t), mapping.Source), []m.MoveMapping{mapping})

		assert.Empty(t, result.Moved)
		assert.Equal(t, 1, result.Skipped)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, m.WarnMoveFailed, result.Warnings[0].Kind)
	})

	t.Run("not in project is never a fallback", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/p/src/a.ts", "import './b';\n")

		project := mocks.NewMockProject(t)
		project.On("Move", mock.Anything, mapping.Source, mapping.Destination, adapter.MoveOptions{}).
			Return(adapter.MoveResult{}, adapter.ErrFileNotInProject).Once()
		project.On("Save", mock.Anything).Return(adapter.SaveResult{}, nil).Once()

		exec := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{Fallback: true})
		result := exec.Execute(ctx, mockScope(project, mapping.Source), []m.MoveMapping{mapping})

		assert.Zero(t, result.Fallbacks)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, m.WarnNotInScope, result.Warnings[0].Kind)
	})
}

func TestExecutor_PersistFailureIsWarning(t *testing.T) {
	fs := afero.NewMemMapFs()
	mapping := m.MoveMapping{Source: "/p/src/a.ts", Destination: "/p/dest/a.ts"}

	project := mocks.NewMockProject(t)
	project.On("Move", mock.Anything, mapping.Source, mapping.Destination, adapter.MoveOptions{Overwrite: true}).
		Return(adapter.MoveResult{}, nil).Once()
	project.On("Save", mock.Anything).
		Return(adapter.SaveResult{ReferencesUpdated: 2}, errors.New("disk full")).Once()

	exec := NewExecutor(adapter.NewSourceFSAdapter(fs), ExecuteOptions{Force: true})
	result := exec.Execute(context.Background(), mockScope(project, mapping.Source), []m.MoveMapping{mapping})

	assert.Equal(t, []m.MoveMapping{mapping}, result.Moved)
	assert.Equal(t, 2, result.ReferencesFixed)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, m.WarnPersist, result.Warnings[0].Kind)
	assert.Equal(t, "disk full", result.Warnings[0].Message)
}
