package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"refmove.dev/pkg/refmove/internal/adapter"
	"refmove.dev/pkg/refmove/internal/adapter/mocks"
	m "refmove.dev/pkg/refmove/internal/model"
)

func newScopeBuilder(fs afero.Fs) ScopeBuilder {
	adp := adapter.NewSourceFSAdapter(fs)

	return NewScopeBuilder(adp, adapter.NewLocalProjectFactory(adp), ScopeConfig{Root: "/p", Extensions: testExtensions})
}

func buildScope(t *testing.T, fs afero.Fs, tier m.Tier, seeds ...m.Path) *Scope {
	t.Helper()

	scope, err := newScopeBuilder(fs).Build(context.Background(), tier, seeds)
	require.NoError(t, err)
	t.Cleanup(func() { _ = scope.Close() })

	return scope
}

func newReferenceFS(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/util.ts", "export const u = 1;\n")
	writeFile(t, fs, "/p/src/a.ts", "import { u } from './util';\n")
	writeFile(t, fs, "/p/src/b.ts", "import { u } from './util';\nimport { a } from './a';\n")
	writeFile(t, fs, "/p/src/nested/c.ts", "export * from '../util';\n")
	writeFile(t, fs, "/p/src/unrelated.ts", "export const z = 0;\n")

	return fs
}

func TestScopeBuilder_Standard(t *testing.T) {
	scope := buildScope(t, newReferenceFS(t), TierFor(m.StrategyStandard), "/p/src/util.ts")

	assert.Equal(t, []m.Path{"/p/src/util.ts"}, scope.Seeds)
	assert.Empty(t, scope.Referencers)
	assert.Len(t, scope.Project.Files(), 5)
	assert.True(t, scope.Has("/p/src/util.ts"))
}

func TestScopeBuilder_Surgical(t *testing.T) {
	scope := buildScope(t, newReferenceFS(t), TierFor(m.StrategySurgical), "/p/src/util.ts")

	assert.Equal(t, []m.Path{"/p/src/util.ts"}, scope.Seeds)
	assert.Equal(t, []m.Path{"/p/src/a.ts", "/p/src/b.ts", "/p/src/nested/c.ts"}, scope.Referencers)
	assert.False(t, scope.Has("/p/src/unrelated.ts"))
	assert.Len(t, scope.Project.Files(), 4)
}

func TestScopeBuilder_ReferencersExcludeSeeds(t *testing.T) {
	scope := buildScope(t, newReferenceFS(t), TierFor(m.StrategySurgical), "/p/src/util.ts", "/p/src/a.ts")

	assert.Equal(t, []m.Path{"/p/src/util.ts", "/p/src/a.ts"}, scope.Seeds)
	assert.Equal(t, []m.Path{"/p/src/b.ts", "/p/src/nested/c.ts"}, scope.Referencers)
}

func TestScopeBuilder_ReferenceCap(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/shared.ts", "export const s = 1;\n")

	for i := range 25 {
		writeFile(t, fs, fmt.Sprintf("/p/src/r%02d.ts", i), "import { s } from './shared';\n")
	}

	chunked := buildScope(t, fs, TierFor(m.StrategyChunked), "/p/src/shared.ts")
	assert.Len(t, chunked.Referencers, ChunkReferenceCap)
	assert.Equal(t, m.Path("/p/src/r00.ts"), chunked.Referencers[0])

	surgical := buildScope(t, fs, TierFor(m.StrategySurgical), "/p/src/shared.ts")
	assert.Len(t, surgical.Referencers, 25)

	capped := buildScope(t, fs, m.Tier{Strategy: m.StrategySurgical, ReferenceCap: 3}, "/p/src/shared.ts")
	assert.Equal(t, []m.Path{"/p/src/r00.ts", "/p/src/r01.ts", "/p/src/r02.ts"}, capped.Referencers)
}

func TestScopeBuilder_SurgicalReferenceCap(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/shared.ts", "export const s = 1;\n")

	referencers := SurgicalReferenceCap + 20
	for i := range referencers {
		writeFile(t, fs, fmt.Sprintf("/p/src/refs/r%03d.ts", i), "import { s } from '../shared';\n")
	}

	scope := buildScope(t, fs, TierFor(m.StrategySurgical), "/p/src/shared.ts")

	require.Len(t, scope.Referencers, SurgicalReferenceCap)
	assert.Equal(t, m.Path("/p/src/refs/r000.ts"), scope.Referencers[0])
	assert.Equal(t, m.Path(fmt.Sprintf("/p/src/refs/r%03d.ts", SurgicalReferenceCap-1)), scope.Referencers[SurgicalReferenceCap-1])
	assert.False(t, scope.Has(m.Path(fmt.Sprintf("/p/src/refs/r%03d.ts", SurgicalReferenceCap))))
	assert.Len(t, scope.Project.Files(), SurgicalReferenceCap+1)
}

func TestScopeBuilder_StreamingScanWindow(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/lib/target.ts", "export const t = 1;\n")

	for i := range 60 {
		content := "export const x = 0;\n"
		if i == 5 || i == 55 {
			content = "import { t } from './lib/target';\n"
		}

		writeFile(t, fs, fmt.Sprintf("/p/src/f%02d.ts", i), content)
	}

	scope := buildScope(t, fs, TierFor(m.StrategyStreaming), "/p/src/lib/target.ts")

	assert.Equal(t, []m.Path{"/p/src/lib/target.ts"}, scope.Seeds)
	assert.Equal(t, []m.Path{"/p/src/f05.ts"}, scope.Referencers)
	assert.False(t, scope.Has("/p/src/f55.ts"))
}

func TestScopeBuilder_StreamingMatchLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/target.ts", "export const t = 1;\n")
	writeFile(t, fs, "/p/src/notes.md", "target\n")

	for i := range 12 {
		writeFile(t, fs, fmt.Sprintf("/p/src/r%02d.ts", i), "// mentions target only\n")
	}

	scope := buildScope(t, fs, TierFor(m.StrategyStreaming), "/p/src/target.ts")

	require.Len(t, scope.Referencers, StreamingMatchLimit)
	assert.Equal(t, m.Path("/p/src/r00.ts"), scope.Referencers[0])
	assert.Equal(t, m.Path("/p/src/r09.ts"), scope.Referencers[9])
	assert.NotContains(t, scope.Referencers, m.Path("/p/src/target.ts"))
}

func TestScopeBuilder_LoadFailuresAreWarnings(t *testing.T) {
	fs := newReferenceFS(t)
	writeFile(t, fs, "/p/src/binary.ts", "import './util';\xff\xfe\n")

	scope := buildScope(t, fs, TierFor(m.StrategyStreaming), "/p/src/util.ts", "/p/src/gone.ts")

	assert.Equal(t, []m.Path{"/p/src/util.ts"}, scope.Seeds)
	assert.NotContains(t, scope.Referencers, m.Path("/p/src/binary.ts"))
	assert.Contains(t, scope.Referencers, m.Path("/p/src/a.ts"))

	var warned []m.Path
	for _, w := range scope.Warnings {
		assert.Equal(t, m.WarnScopeLoad, w.Kind)
		warned = append(warned, w.Path)
	}

	assert.ElementsMatch(t, []m.Path{"/p/src/gone.ts", "/p/src/binary.ts"}, warned)
}

func TestScopeBuilder_OpenFailure(t *testing.T) {
	factory := mocks.NewMockProjectFactory(t)
	factory.On("Open", mock.Anything, mock.MatchedBy(func(opts adapter.ProjectOptions) bool {
		return opts.IndexReferences && !opts.LoadAll
	})).Return(nil, errors.New("no memory"))

	builder := NewScopeBuilder(adapter.NewSourceFSAdapter(afero.NewMemMapFs()), factory, ScopeConfig{Root: "/p"})

	scope, err := builder.Build(context.Background(), TierFor(m.StrategyChunked), []m.Path{"/p/a.ts"})
	require.Error(t, err)
	assert.Nil(t, scope)
	assert.Contains(t, err.Error(), "chunked scope")
}

func TestScope_Close(t *testing.T) {
	project := mocks.NewMockProject(t)
	project.On("Close").Return(nil).Once()

	scope := &Scope{Project: project, loaded: map[m.Path]struct{}{"/p/a.ts": {}}}

	require.NoError(t, scope.Close())
	require.NoError(t, scope.Close())
	assert.False(t, scope.Has("/p/a.ts"))
}
