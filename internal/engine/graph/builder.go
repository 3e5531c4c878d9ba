// Package graph discovers modules and records their dependency edges.
package graph

import (
	"slices"
	"strings"
	"sync"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
)

// Builder owns the discovered set and the edge set of one build.
// It is safe for concurrent use by scheduler workers.
type Builder struct {
	resolver ports.ImportResolver
	logger   ports.Logger

	mu       sync.Mutex
	claims   map[domain.ModuleID]int
	graph    *domain.Graph
	failures []domain.ResolutionFailure
}

// NewBuilder creates a Builder resolving imports with resolver.
func NewBuilder(resolver ports.ImportResolver, logger ports.Logger) *Builder {
	return &Builder{
		resolver: resolver,
		logger:   logger,
		claims:   make(map[domain.ModuleID]int),
		graph:    domain.NewGraph(),
	}
}

// Claim atomically inserts id into the discovered set.
// Only the first caller for an id gets ok == true and owns the returned task.
func (b *Builder) Claim(id domain.ModuleID) (domain.BuildTask, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.claimLocked(id)
}

func (b *Builder) claimLocked(id domain.ModuleID) (domain.BuildTask, bool) {
	if _, taken := b.claims[id]; taken {
		return domain.BuildTask{}, false
	}
	seq := len(b.claims)
	b.claims[id] = seq
	return domain.BuildTask{ID: id, Seq: seq}, true
}

// Expand scans m for import references, resolves them and records one edge per
// resolved target, even when the target was discovered before. It fills
// m.Imports and returns tasks for the targets this call claimed.
// References that fail to resolve are dropped with a warning and kept as failures.
func (b *Builder) Expand(m *domain.Module) []domain.BuildTask {
	refs := domain.ScanImports(m.Kind, m.Content)
	var dropped []domain.ResolutionFailure
	for i := range refs {
		target, err := b.resolver.Resolve(refs[i].Spec, m.ID)
		if err != nil {
			refs[i].Err = err
			dropped = append(dropped, domain.ResolutionFailure{
				From:      m.ID,
				Reference: refs[i].Spec,
				Err:       err,
			})
			b.logger.Warn("dropping unresolved import",
				"from", m.ID.String(),
				"reference", refs[i].Spec,
				"error", err.Error(),
			)
			continue
		}
		refs[i].Target = target
	}
	m.Imports = refs

	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = append(b.failures, dropped...)
	b.graph.AddNode(m.ID)

	var tasks []domain.BuildTask
	for _, ref := range refs {
		if !ref.Resolved() {
			continue
		}
		b.graph.AddEdge(m.ID, ref.Target)
		if task, ok := b.claimLocked(ref.Target); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// Graph returns the dependency graph. It must only be read after the
// scheduler has drained.
func (b *Builder) Graph() *domain.Graph {
	return b.graph
}

// Discovered returns the number of claimed modules.
func (b *Builder) Discovered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.claims)
}

// Failures returns the dropped references grouped by referencing module.
// Within a module they keep content order.
func (b *Builder) Failures() []domain.ResolutionFailure {
	b.mu.Lock()
	out := slices.Clone(b.failures)
	b.mu.Unlock()

	slices.SortStableFunc(out, func(x, y domain.ResolutionFailure) int {
		return strings.Compare(x.From.String(), y.From.String())
	})
	return out
}

// CycleError describes an import cycle as a diagnostic error.
func CycleError(cycle []domain.ModuleID) error {
	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = id.String()
	}
	err := zerr.Wrap(domain.ErrCycleDetected, strings.Join(parts, " -> "))
	return zerr.With(err, "length", len(cycle)-1)
}
