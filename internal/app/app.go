// Package app implements the application layer for knit.
package app

import (
	"cmp"
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/knit/internal/adapters/cas"                //nolint:depguard // Per-build adapters are constructed here
	"go.trai.ch/knit/internal/adapters/fs"                 //nolint:depguard // Per-build adapters are constructed here
	"go.trai.ch/knit/internal/adapters/shell"              //nolint:depguard // Per-build adapters are constructed here
	"go.trai.ch/knit/internal/adapters/telemetry"          //nolint:depguard // Per-build adapters are constructed here
	"go.trai.ch/knit/internal/adapters/telemetry/progrock" //nolint:depguard // Per-build adapters are constructed here
	"go.trai.ch/knit/internal/adapters/transform"          //nolint:depguard // Per-build adapters are constructed here
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/knit/internal/engine/bundler"
	"go.trai.ch/knit/internal/engine/graph"
	"go.trai.ch/knit/internal/engine/scheduler"
	"go.trai.ch/knit/internal/engine/sourcemap"
	"go.trai.ch/knit/internal/engine/splitter"
	"go.trai.ch/knit/internal/engine/treeshake"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	inputs       ports.InputResolver
	scheduler    *scheduler.Scheduler
	hasher       ports.Hasher
	writer       ports.ArtifactWriter
	logger       ports.Logger
	progress     io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	inputs ports.InputResolver,
	sched *scheduler.Scheduler,
	hasher ports.Hasher,
	writer ports.ArtifactWriter,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		inputs:       inputs,
		scheduler:    sched,
		hasher:       hasher,
		writer:       writer,
		logger:       logger,
	}
}

// WithProgress sets where per-module progress lines are printed.
// A nil writer disables them.
func (a *App) WithProgress(w io.Writer) *App {
	a.progress = w
	return a
}

func (a *App) telemetry() ports.Telemetry {
	if a.progress == nil {
		return telemetry.NewNoOp()
	}
	return progrock.NewRecorder(progrock.NewProgress(a.progress))
}

// SetVerbose enables debug logging when the logger supports it.
func (a *App) SetVerbose(verbose bool) {
	if l, ok := a.logger.(interface{ SetVerbose(bool) }); ok {
		l.SetVerbose(verbose)
	}
}

// LoadConfig reads build options from path. A missing file yields empty
// options unless required is set.
func (a *App) LoadConfig(path string, required bool) (*domain.BuildOptions, error) {
	opts, err := a.configLoader.Load(path)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) && !required {
			return &domain.BuildOptions{}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to load configuration"), "path", path)
	}
	return opts, nil
}

// Bundle runs one build and writes its artifacts. The returned summary is
// also populated when the bundle was written with dropped import edges; the
// caller decides how to report a degraded build.
func (a *App) Bundle(ctx context.Context, opts domain.BuildOptions) (*domain.BuildSummary, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	mode, err := domain.ParseSourceMapMode(string(opts.SourceMapMode))
	if err != nil {
		return nil, err
	}

	summary := &domain.BuildSummary{BuildID: uuid.NewString()}
	a.logger.Info("build started", "build_id", summary.BuildID, "workers", opts.WorkerCount())

	root, err := filepath.Abs(cmp.Or(opts.Root, "."))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve project root"), "root", opts.Root)
	}
	var hook ports.ResolverHook
	if len(opts.Aliases) > 0 {
		hook = fs.ChainHooks{fs.NewAliasHook(root, opts.Aliases)}
	}
	resolver, err := fs.NewImportResolver(root, opts.SearchPaths, opts.FallbackExtensions(), hook)
	if err != nil {
		return nil, err
	}
	root = resolver.Root()

	// 1. Resolve entries and includes
	entries, err := a.resolveInputs(resolver, opts.Entries)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, domain.ErrNoEntries
	}
	var includes []domain.ModuleID
	if len(opts.Includes) > 0 {
		includes, err = a.resolveInputs(resolver, opts.Includes)
		if err != nil {
			return nil, err
		}
	}

	// 2. Warm the cache
	var store *cas.Store
	var warm map[string]string
	if opts.CacheFile != "" {
		store = cas.NewStore(opts.CacheFile)
		warm, err = store.Load()
		if err != nil {
			a.logger.Warn("ignoring unreadable cache file", "path", opts.CacheFile, "error", err)
			warm = nil
		}
	}
	cache := scheduler.NewCache(warm)

	// 3. Load, transform and expand every reachable module
	builder := graph.NewBuilder(resolver, a.logger)
	var tasks []domain.BuildTask
	for _, id := range slices.Concat(entries, includes) {
		if task, ok := builder.Claim(id); ok {
			tasks = append(tasks, task)
		}
	}

	recorder := a.telemetry()
	result, runErr := a.scheduler.Run(ctx, scheduler.Job{
		Roots:           tasks,
		Expander:        builder,
		Cache:           cache,
		Transformer:     a.transformer(opts, root),
		Telemetry:       recorder,
		Workers:         opts.WorkerCount(),
		ContinueOnError: opts.ContinueOnError,
		Root:            root,
	})
	if err := recorder.Close(); err != nil {
		a.logger.Debug("failed to close progress recorder", "error", err)
	}
	if runErr != nil {
		return nil, zerr.With(zerr.Wrap(runErr, domain.ErrBuildFailed.Error()), "build_id", summary.BuildID)
	}

	summary.Modules = result.Processed
	summary.CacheHits = result.CacheHits
	summary.Dropped = builder.Failures()

	// 4. Diagnose cycles
	g := builder.Graph()
	summary.Discovered = builder.Discovered()
	summary.Edges = g.EdgeCount()
	allRoots := slices.Concat(entries, includes)
	summary.Cycles = graph.DetectCycles(g, allRoots)
	for _, cycle := range summary.Cycles {
		a.logger.Warn("import cycle", "error", graph.CycleError(cycle))
	}

	// 5. Tree shake
	roots := allRoots
	var keep func(domain.ModuleID) bool
	if opts.TreeShaking {
		shaken := treeshake.Shake(g, entries)
		keep = shaken.Keep
		roots = entries
		summary.Pruned = len(shaken.Pruned)
		for _, id := range shaken.Pruned {
			var importers []string
			for _, dep := range g.Dependents(id) {
				importers = append(importers, dep.String())
			}
			a.logger.Debug("pruned unreachable module", "path", id.String(), "imported_by", importers)
		}
		cache.Retain(shaken.Keep)
	}

	// 6. Split and assemble
	in := bundler.Input{
		Root:    root,
		Output:  opts.Output,
		Roots:   roots,
		Graph:   g,
		Modules: result.Modules,
		Keep:    keep,
	}
	if opts.CodeSplitting {
		in.Splitter, err = splitter.New(a.hasher, root, roots, opts.SplitPatterns)
		if err != nil {
			return nil, err
		}
	}
	if opts.SourceMap != "" {
		in.SourceMap = sourcemap.NewGenerator(filepath.Base(opts.Output))
		in.SourceMapURL = sourceMapURL(opts.Output, opts.SourceMap)
	}
	b, err := bundler.Assemble(in)
	if err != nil {
		return nil, zerr.With(err, "build_id", summary.BuildID)
	}
	summary.Bundled = len(b.Modules)
	summary.Chunks = b.Chunks

	// 7. Write artifacts as one set once the whole build succeeded
	artifacts := []domain.Artifact{{Path: opts.Output, Data: []byte(b.Content)}}
	outDir := filepath.Dir(opts.Output)
	for _, c := range b.Chunks {
		artifacts = append(artifacts, domain.Artifact{Path: filepath.Join(outDir, filepath.FromSlash(c.Path)), Data: []byte(c.Content)})
	}
	if b.Manifest != "" {
		artifacts = append(artifacts, domain.Artifact{Path: filepath.Join(outDir, splitter.ManifestName), Data: []byte(b.Manifest)})
	}
	if in.SourceMap != nil {
		data, err := sourcemap.Render(in.SourceMap.Map(), mode).Marshal()
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrWriteFailed.Error())
		}
		artifacts = append(artifacts, domain.Artifact{Path: opts.SourceMap, Data: data})
	}
	if err := a.writer.WriteFiles(artifacts); err != nil {
		return nil, zerr.With(err, "build_id", summary.BuildID)
	}
	for _, art := range artifacts {
		summary.Artifacts = append(summary.Artifacts, art.Path)
	}

	if store != nil {
		if err := store.Save(cache.Snapshot()); err != nil {
			return nil, err
		}
		summary.Artifacts = append(summary.Artifacts, store.Path())
	}

	summary.Duration = time.Since(start)
	a.logger.Info("build finished",
		"build_id", summary.BuildID,
		"modules", summary.Modules,
		"cache_hits", summary.CacheHits,
		"chunks", len(summary.Chunks),
		"dropped", len(summary.Dropped),
		"duration", summary.Duration,
	)
	return summary, nil
}

// resolveInputs expands patterns below the resolver root into deduplicated
// canonical identities, keeping the resolved order.
func (a *App) resolveInputs(resolver *fs.ImportResolver, patterns []string) ([]domain.ModuleID, error) {
	paths, err := a.inputs.ResolveInputs(patterns, resolver.Root())
	if err != nil {
		return nil, err
	}
	ids := make([]domain.ModuleID, 0, len(paths))
	for _, p := range paths {
		id, err := resolver.Canonical(p)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// transformer builds the per-module transform: the external command first,
// then esbuild.
func (a *App) transformer(opts domain.BuildOptions, root string) ports.Transformer {
	var ts []ports.Transformer
	if opts.Exec != "" {
		ts = append(ts, shell.NewTransformer(opts.Exec, root, a.logger))
	}
	if opts.Minify || opts.StripTypes {
		ts = append(ts, transform.NewEsbuild(opts.Minify, opts.StripTypes))
	}
	return transform.Compose(ts...)
}

// sourceMapURL is the map location relative to the bundle directory.
func sourceMapURL(output, mapPath string) string {
	rel, err := filepath.Rel(filepath.Dir(output), mapPath)
	if err != nil {
		return filepath.Base(mapPath)
	}
	return filepath.ToSlash(rel)
}
