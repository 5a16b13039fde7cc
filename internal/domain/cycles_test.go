package domain

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refmove.dev/pkg/refmove/internal/adapter"
	m "refmove.dev/pkg/refmove/internal/model"
)

func TestFindCycles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/a.ts", "import { b } from './b';\n")
	writeFile(t, fs, "/p/src/b.ts", "import { c } from './c';\n")
	writeFile(t, fs, "/p/src/c.ts", "import { a } from './a';\n")
	writeFile(t, fs, "/p/src/self.ts", "import { me } from './self';\n")
	writeFile(t, fs, "/p/src/leaf.ts", "import { a } from './a';\n")

	scope := buildScope(t, fs, TierFor(m.StrategyStandard), "/p/src/a.ts")
	ctx := context.Background()

	t.Run("shortest cycle through seed", func(t *testing.T) {
		cycles := FindCycles(ctx, scope.Project, []m.Path{"/p/src/a.ts"})
		require.Len(t, cycles, 1)
		assert.Equal(t, Cycle{"/p/src/a.ts", "/p/src/b.ts", "/p/src/c.ts", "/p/src/a.ts"}, cycles[0])
		assert.Equal(t, "/p/src/a.ts -> /p/src/b.ts -> /p/src/c.ts -> /p/src/a.ts", cycles[0].String())
	})

	t.Run("same cycle reported once", func(t *testing.T) {
		cycles := FindCycles(ctx, scope.Project, []m.Path{"/p/src/a.ts", "/p/src/c.ts"})
		assert.Len(t, cycles, 1)
	})

	t.Run("self import", func(t *testing.T) {
		cycles := FindCycles(ctx, scope.Project, []m.Path{"/p/src/self.ts"})
		require.Len(t, cycles, 1)
		assert.Equal(t, Cycle{"/p/src/self.ts", "/p/src/self.ts"}, cycles[0])
	})

	t.Run("no cycle", func(t *testing.T) {
		assert.Empty(t, FindCycles(ctx, scope.Project, []m.Path{"/p/src/leaf.ts"}))
	})
}

func TestFindCycles_OnlyLoadedEdges(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/src/a.ts", "import { b } from './b';\n")
	writeFile(t, fs, "/p/src/b.ts", "import { a } from './a';\n")

	project, err := adapter.NewLocalProjectFactory(adapter.NewSourceFSAdapter(fs)).Open(ctx, adapter.ProjectOptions{
		Root:       "/p",
		Extensions: testExtensions,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = project.Close() })
	require.NoError(t, project.AddFile(ctx, "/p/src/a.ts"))

	assert.Empty(t, FindCycles(ctx, project, []m.Path{"/p/src/a.ts"}))
}

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t,
		canonicalKey(Cycle{"/b", "/c", "/a", "/b"}),
		canonicalKey(Cycle{"/a", "/b", "/c", "/a"}))
}
