// Package treeshake removes modules that no entry point can reach.
package treeshake

import (
	"slices"
	"strings"

	"go.trai.ch/knit/internal/core/domain"
)

// Result is the outcome of shaking a graph.
type Result struct {
	reachable map[domain.ModuleID]struct{}
	// Pruned lists the unreachable modules sorted by path.
	Pruned []domain.ModuleID
}

// Keep reports whether id is reachable from an entry.
func (r *Result) Keep(id domain.ModuleID) bool {
	_, ok := r.reachable[id]
	return ok
}

// Len returns the size of the reachable set.
func (r *Result) Len() int {
	return len(r.reachable)
}

// Shake computes the modules of g reachable from entries.
// A module is marked before its dependencies are pushed, so cycle members
// are never queued twice. Only module-level reachability is considered.
func Shake(g *domain.Graph, entries []domain.ModuleID) *Result {
	reachable := make(map[domain.ModuleID]struct{}, g.Len())
	stack := make([]domain.ModuleID, 0, len(entries))

	for _, e := range entries {
		if _, seen := reachable[e]; seen || !g.Contains(e) {
			continue
		}
		reachable[e] = struct{}{}
		stack = append(stack, e)
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range g.Dependencies(id) {
			if _, seen := reachable[dep]; seen {
				continue
			}
			reachable[dep] = struct{}{}
			stack = append(stack, dep)
		}
	}

	var pruned []domain.ModuleID
	for id := range g.Nodes() {
		if _, ok := reachable[id]; !ok {
			pruned = append(pruned, id)
		}
	}
	slices.SortFunc(pruned, func(a, b domain.ModuleID) int {
		return strings.Compare(a.String(), b.String())
	})

	return &Result{reachable: reachable, Pruned: pruned}
}
