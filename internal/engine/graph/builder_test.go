package graph_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports/mocks"
	"go.trai.ch/knit/internal/engine/graph"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestBuilder_Claim(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := graph.NewBuilder(mocks.NewMockImportResolver(ctrl), mocks.NewMockLogger(ctrl))

	a := domain.NewModuleID("/src/a.js")
	c := domain.NewModuleID("/src/c.js")

	task, ok := b.Claim(a)
	require.True(t, ok)
	assert.Equal(t, domain.BuildTask{ID: a, Seq: 0}, task)

	_, ok = b.Claim(a)
	assert.False(t, ok)

	task, ok = b.Claim(c)
	require.True(t, ok)
	assert.Equal(t, 1, task.Seq)
	assert.Equal(t, 2, b.Discovered())
}

func TestBuilder_ClaimIsExclusiveUnderContention(t *testing.T) {
	ctrl := gomock.NewController(t)
	b := graph.NewBuilder(mocks.NewMockImportResolver(ctrl), mocks.NewMockLogger(ctrl))
	id := domain.NewModuleID("/src/shared.js")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 32 {
		wg.Go(func() {
			if _, ok := b.Claim(id); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestBuilder_Expand(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockImportResolver(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	b := graph.NewBuilder(resolver, logger)

	app := domain.NewModuleID("/src/app.js")
	util := domain.NewModuleID("/src/util.js")
	missing := zerr.Wrap(domain.ErrModuleNotFound, "./gone.js")

	resolver.EXPECT().Resolve("./util.js", app).Return(util, nil)
	resolver.EXPECT().Resolve("./gone.js", app).Return(domain.ModuleID{}, missing)
	resolver.EXPECT().Resolve("./app.js", util).Return(app, nil)
	logger.EXPECT().Warn("dropping unresolved import", gomock.Any()).Times(1)

	_, ok := b.Claim(app)
	require.True(t, ok)

	m := &domain.Module{
		ID:      app,
		Kind:    domain.KindJS,
		Content: "import \"./util.js\";\nimport \"./gone.js\";\n",
	}
	tasks := b.Expand(m)
	require.Len(t, tasks, 1)
	assert.Equal(t, util, tasks[0].ID)
	assert.Equal(t, 1, tasks[0].Seq)

	require.Len(t, m.Imports, 2)
	assert.True(t, m.Imports[0].Resolved())
	assert.False(t, m.Imports[1].Resolved())
	require.ErrorIs(t, m.Imports[1].Err, domain.ErrModuleNotFound)
	assert.Equal(t, []domain.ModuleID{util}, m.Dependencies())

	// The back edge is recorded but app is not claimed again.
	back := &domain.Module{ID: util, Kind: domain.KindJS, Content: "import './app.js';"}
	assert.Empty(t, b.Expand(back))

	g := b.Graph()
	assert.Equal(t, []domain.ModuleID{util}, g.Dependencies(app))
	assert.Equal(t, []domain.ModuleID{app}, g.Dependencies(util))
	assert.Equal(t, 2, g.EdgeCount())

	failures := b.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, app, failures[0].From)
	assert.Equal(t, "./gone.js", failures[0].Reference)
}

func TestBuilder_ExpandDuplicateImport(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockImportResolver(ctrl)
	b := graph.NewBuilder(resolver, mocks.NewMockLogger(ctrl))

	css := domain.NewModuleID("/src/main.css")
	reset := domain.NewModuleID("/src/reset.css")
	resolver.EXPECT().Resolve("reset.css", css).Return(reset, nil).Times(2)

	b.Claim(css)
	tasks := b.Expand(&domain.Module{
		ID:      css,
		Kind:    domain.KindCSS,
		Content: "@import \"reset.css\";\n@import url(\"reset.css\");\n",
	})

	assert.Len(t, tasks, 1)
	assert.Equal(t, []domain.ModuleID{reset}, b.Graph().Dependencies(css))
}

func TestCycleError(t *testing.T) {
	err := graph.CycleError([]domain.ModuleID{
		domain.NewModuleID("/a.js"),
		domain.NewModuleID("/b.js"),
		domain.NewModuleID("/a.js"),
	})

	require.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Contains(t, err.Error(), "/a.js -> /b.js -> /a.js")
}
