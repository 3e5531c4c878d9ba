package domain

import (
	"fmt"
	"time"
)

// ResolutionFailure is an import edge dropped because its reference could not
// be resolved. The build continues without the edge.
type ResolutionFailure struct {
	From      ModuleID
	Reference string
	Err       error
}

// Error implements error.
func (f ResolutionFailure) Error() string {
	return fmt.Sprintf("%s: cannot resolve %q: %v", f.From, f.Reference, f.Err)
}

// Unwrap returns the underlying resolution error.
func (f ResolutionFailure) Unwrap() error {
	return f.Err
}

// BuildSummary reports the outcome of a build.
type BuildSummary struct {
	BuildID string
	// Discovered is the number of modules claimed while walking imports.
	Discovered int
	// Edges is the number of resolved import edges in the graph.
	Edges int
	// Modules is the number of modules processed by the scheduler.
	Modules int
	// CacheHits is the number of modules served from the transform cache.
	CacheHits int
	// Bundled is the number of modules emitted into the main bundle.
	Bundled int
	// Pruned is the number of modules removed by tree shaking.
	Pruned int
	Chunks []Chunk
	// Dropped are the import edges dropped by resolution failures.
	Dropped []ResolutionFailure
	// Cycles are the import cycles found, each listed from its first module
	// back to that module.
	Cycles   [][]ModuleID
	Duration time.Duration
	// Artifacts are the files written, in write order.
	Artifacts []string
}

// Degraded reports whether the bundle was produced with dropped edges.
func (s *BuildSummary) Degraded() bool {
	return len(s.Dropped) > 0
}
