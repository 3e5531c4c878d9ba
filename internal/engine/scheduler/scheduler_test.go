package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knit/internal/adapters/telemetry"
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/knit/internal/core/ports/mocks"
	"go.trai.ch/knit/internal/engine/graph"
	"go.trai.ch/knit/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func mod(name string) domain.ModuleID {
	return domain.NewModuleID("/src/" + name)
}

// fixture wires a scheduler over an in-memory project where "./x.js" always
// resolves to /src/x.js.
type fixture struct {
	ctrl        *gomock.Controller
	reader      *mocks.MockSourceReader
	transformer *mocks.MockTransformer
	builder     *graph.Builder
	sched       *scheduler.Scheduler
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	resolver := mocks.NewMockImportResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ref string, _ domain.ModuleID) (domain.ModuleID, error) {
			name := strings.TrimPrefix(ref, "./")
			if _, ok := files[name]; !ok {
				return domain.ModuleID{}, zerr.Wrap(domain.ErrModuleNotFound, ref)
			}
			return mod(name), nil
		}).AnyTimes()

	reader := mocks.NewMockSourceReader(ctrl)
	reader.EXPECT().Read(gomock.Any()).DoAndReturn(func(id domain.ModuleID) (string, error) {
		name := strings.TrimPrefix(id.String(), "/src/")
		return files[name], nil
	}).AnyTimes()

	return &fixture{
		ctrl:        ctrl,
		reader:      reader,
		transformer: mocks.NewMockTransformer(ctrl),
		builder:     graph.NewBuilder(resolver, logger),
		sched:       scheduler.NewScheduler(reader, logger),
	}
}

func (f *fixture) job(workers int, cache *scheduler.Cache, entries ...string) scheduler.Job {
	var roots []domain.BuildTask
	for _, e := range entries {
		task, _ := f.builder.Claim(mod(e))
		roots = append(roots, task)
	}
	return scheduler.Job{
		Roots:       roots,
		Expander:    f.builder,
		Cache:       cache,
		Transformer: f.transformer,
		Telemetry:   telemetry.NewNoOp(),
		Workers:     workers,
		Root:        "/src",
	}
}

var diamond = map[string]string{
	"app.js":    "import \"./a.js\";\nimport \"./b.js\";\n",
	"a.js":      "import \"./shared.js\";\n",
	"b.js":      "import \"./shared.js\";\n",
	"shared.js": "export const x = 1;\n",
}

func TestScheduler_Run_DiamondTransformsOnce(t *testing.T) {
	for workers := 1; workers <= 8; workers++ {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				f := newFixture(t, diamond)

				calls := make(map[string]*atomic.Int32)
				for name := range diamond {
					calls[name] = &atomic.Int32{}
				}
				f.transformer.EXPECT().Transform(gomock.Any(), gomock.Any(), domain.KindJS, gomock.Any()).DoAndReturn(
					func(_ context.Context, id domain.ModuleID, _ domain.FileKind, content string) (string, error) {
						calls[strings.TrimPrefix(id.String(), "/src/")].Add(1)
						return content + "// done\n", nil
					}).Times(len(diamond))

				cache := scheduler.NewCache(nil)
				res, err := f.sched.Run(context.Background(), f.job(workers, cache, "app.js"))
				require.NoError(t, err)

				for name, n := range calls {
					assert.Equal(t, int32(1), n.Load(), "transform count for %s", name)
				}
				assert.Equal(t, 4, res.Processed)
				assert.Zero(t, res.CacheHits)
				assert.Len(t, res.Modules, 4)
				assert.Equal(t, 4, cache.Len())

				shared, ok := cache.Get(mod("shared.js"))
				require.True(t, ok)
				assert.Equal(t, "export const x = 1;\n// done\n", shared)

				g := f.builder.Graph()
				assert.Equal(t, []domain.ModuleID{mod("a.js"), mod("b.js")}, g.Dependencies(mod("app.js")))
				assert.Equal(t, []domain.ModuleID{mod("shared.js")}, g.Dependencies(mod("a.js")))
				assert.Equal(t, []domain.ModuleID{mod("shared.js")}, g.Dependencies(mod("b.js")))
				for id, status := range res.Status {
					assert.Equal(t, scheduler.StatusCompleted, status, id.String())
				}
			})
		})
	}
}

func TestScheduler_Run_CycleTerminates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, map[string]string{
			"a.js": "import \"./b.js\";\n",
			"b.js": "import \"./a.js\";\n",
		})
		f.transformer.EXPECT().Transform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ domain.ModuleID, _ domain.FileKind, content string) (string, error) {
				return content, nil
			}).Times(2)

		res, err := f.sched.Run(context.Background(), f.job(4, scheduler.NewCache(nil), "a.js"))
		require.NoError(t, err)
		assert.Len(t, res.Modules, 2)
		assert.Equal(t, 2, f.builder.Graph().EdgeCount())
	})
}

func TestScheduler_Run_WarmCache(t *testing.T) {
	f := newFixture(t, diamond)

	f.transformer.EXPECT().Transform(gomock.Any(), gomock.Not(mod("shared.js")), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.ModuleID, _ domain.FileKind, content string) (string, error) {
			return content, nil
		}).Times(3)

	cache := scheduler.NewCache(map[string]string{
		mod("shared.js").String(): "cached();\n",
	})
	res, err := f.sched.Run(context.Background(), f.job(2, cache, "app.js"))
	require.NoError(t, err)

	assert.Equal(t, 1, res.CacheHits)
	assert.Equal(t, scheduler.StatusCached, res.Status[mod("shared.js")])

	shared := res.Modules[mod("shared.js")]
	require.NotNil(t, shared)
	assert.Equal(t, "cached();\n", shared.Content)
}

func TestScheduler_Run_CachedVertex(t *testing.T) {
	f := newFixture(t, map[string]string{"a.js": "a();\n"})

	tel := mocks.NewMockTelemetry(f.ctrl)
	vertex := mocks.NewMockVertex(f.ctrl)
	tel.EXPECT().Record(gomock.Any(), "a.js").DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ctx, vertex
		}).Times(1)
	vertex.EXPECT().Cached().Times(1)
	vertex.EXPECT().Log(domain.LogLevelDebug, "served from transform cache").Times(1)
	vertex.EXPECT().Complete(nil).Times(1)

	job := f.job(1, scheduler.NewCache(map[string]string{mod("a.js").String(): "a();\n"}), "a.js")
	job.Telemetry = tel

	_, err := f.sched.Run(context.Background(), job)
	require.NoError(t, err)
}

func TestScheduler_Run_LogsDroppedImportOnVertex(t *testing.T) {
	f := newFixture(t, map[string]string{"a.js": "import \"./gone.js\";\n"})
	f.transformer.EXPECT().Transform(gomock.Any(), mod("a.js"), gomock.Any(), gomock.Any()).Return("import \"./gone.js\";\n", nil)

	tel := mocks.NewMockTelemetry(f.ctrl)
	vertex := mocks.NewMockVertex(f.ctrl)
	tel.EXPECT().Record(gomock.Any(), "a.js").DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ctx, vertex
		}).Times(1)
	vertex.EXPECT().Log(domain.LogLevelWarn, gomock.Any()).DoAndReturn(func(_ domain.LogLevel, msg string) {
		assert.Contains(t, msg, "./gone.js")
	}).Times(1)
	vertex.EXPECT().Complete(nil).Times(1)

	job := f.job(1, scheduler.NewCache(nil), "a.js")
	job.Telemetry = tel

	res, err := f.sched.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Len(t, res.Modules, 1)
	assert.Len(t, f.builder.Failures(), 1)
}

func TestScheduler_Run_FailFast(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.js": "import \"./a.js\";\n",
		"a.js":   "import \"./b.js\";\n",
		"b.js":   "b();\n",
	})

	boom := errors.New("boom")
	f.transformer.EXPECT().Transform(gomock.Any(), mod("app.js"), gomock.Any(), gomock.Any()).Return("import \"./a.js\";\n", nil)
	f.transformer.EXPECT().Transform(gomock.Any(), mod("a.js"), gomock.Any(), gomock.Any()).Return("", boom)
	f.transformer.EXPECT().Transform(gomock.Any(), mod("b.js"), gomock.Any(), gomock.Any()).Times(0)

	cache := scheduler.NewCache(nil)
	res, err := f.sched.Run(context.Background(), f.job(1, cache, "app.js"))
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), domain.ErrTransformFailed.Error())

	assert.Equal(t, scheduler.StatusFailed, res.Status[mod("a.js")])
	_, cached := cache.Get(mod("a.js"))
	assert.False(t, cached)
	assert.Equal(t, 1, cache.Len())
}

func TestScheduler_Run_ReadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	reader := mocks.NewMockSourceReader(ctrl)
	resolver := mocks.NewMockImportResolver(ctrl)
	transformer := mocks.NewMockTransformer(ctrl)

	readErr := zerr.Wrap(errors.New("permission denied"), domain.ErrReadFailed.Error())
	reader.EXPECT().Read(mod("a.js")).Return("", readErr)
	transformer.EXPECT().Transform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	builder := graph.NewBuilder(resolver, logger)
	task, _ := builder.Claim(mod("a.js"))

	_, err := scheduler.NewScheduler(reader, logger).Run(context.Background(), scheduler.Job{
		Roots:       []domain.BuildTask{task},
		Expander:    builder,
		Cache:       scheduler.NewCache(nil),
		Transformer: transformer,
		Telemetry:   telemetry.NewNoOp(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrReadFailed.Error())
}

func TestScheduler_Run_ContinueOnError(t *testing.T) {
	f := newFixture(t, map[string]string{
		"app.js": "import \"./a.js\";\nimport \"./b.js\";\n",
		"a.js":   "a();\n",
		"b.js":   "import \"./c.js\";\n",
		"c.js":   "c();\n",
	})

	f.transformer.EXPECT().Transform(gomock.Any(), mod("a.js"), gomock.Any(), gomock.Any()).Return("", errors.New("bad a"))
	f.transformer.EXPECT().Transform(gomock.Any(), gomock.Not(mod("a.js")), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.ModuleID, _ domain.FileKind, content string) (string, error) {
			return content, nil
		}).Times(3)

	job := f.job(1, scheduler.NewCache(nil), "app.js")
	job.ContinueOnError = true

	res, err := f.sched.Run(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad a")
	assert.Equal(t, scheduler.StatusFailed, res.Status[mod("a.js")])
	assert.Equal(t, scheduler.StatusCompleted, res.Status[mod("c.js")])
	assert.Equal(t, 4, res.Processed)
}

func TestScheduler_Run_InFlightTasksFinish(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, map[string]string{
			"a.js":     "import \"./child.js\";\n",
			"b.js":     "b();\n",
			"child.js": "child();\n",
		})

		aStarted := make(chan struct{})
		aProceed := make(chan struct{})

		f.transformer.EXPECT().Transform(gomock.Any(), mod("a.js"), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ domain.ModuleID, _ domain.FileKind, content string) (string, error) {
				close(aStarted)
				<-aProceed
				return content, nil
			})
		f.transformer.EXPECT().Transform(gomock.Any(), mod("b.js"), gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ domain.ModuleID, _ domain.FileKind, _ string) (string, error) {
				<-aStarted
				return "", errors.New("b failed")
			})
		f.transformer.EXPECT().Transform(gomock.Any(), mod("child.js"), gomock.Any(), gomock.Any()).Times(0)

		cache := scheduler.NewCache(nil)
		type outcome struct {
			res *scheduler.Result
			err error
		}
		done := make(chan outcome)
		go func() {
			res, err := f.sched.Run(context.Background(), f.job(2, cache, "a.js", "b.js"))
			done <- outcome{res, err}
		}()

		// b has failed and a is still blocked in its transform.
		synctest.Wait()
		select {
		case <-done:
			t.Fatal("Run returned while a task was in flight")
		default:
		}

		close(aProceed)
		out := <-done

		require.Error(t, out.err)
		assert.Equal(t, scheduler.StatusCompleted, out.res.Status[mod("a.js")])
		assert.Equal(t, scheduler.StatusFailed, out.res.Status[mod("b.js")])
		assert.NotContains(t, out.res.Modules, mod("child.js"))
		_, ok := cache.Get(mod("a.js"))
		assert.True(t, ok)
	})
}

func TestScheduler_Run_Canceled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, map[string]string{"a.js": "a();\n"})

		f.transformer.EXPECT().Transform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ domain.ModuleID, _ domain.FileKind, _ string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			})

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error)
		go func() {
			_, err := f.sched.Run(ctx, f.job(1, scheduler.NewCache(nil), "a.js"))
			errCh <- err
		}()

		synctest.Wait()
		cancel()

		err := <-errCh
		require.ErrorIs(t, err, context.Canceled)
	})
}
