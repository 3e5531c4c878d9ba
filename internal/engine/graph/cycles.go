package graph

import (
	"slices"

	"go.trai.ch/knit/internal/core/domain"
)

const (
	unvisited = iota
	onStack
	finished
)

type frame struct {
	id   domain.ModuleID
	next int
}

// DetectCycles walks g depth first from roots, in order, and returns one cycle
// per back edge. Each cycle starts and ends with the same module.
// The walk is iterative so deep import chains cannot overflow the stack.
func DetectCycles(g *domain.Graph, roots []domain.ModuleID) [][]domain.ModuleID {
	state := make(map[domain.ModuleID]int, g.Len())
	var cycles [][]domain.ModuleID

	for _, root := range roots {
		if state[root] != unvisited || !g.Contains(root) {
			continue
		}

		state[root] = onStack
		stack := []frame{{id: root}}
		path := []domain.ModuleID{root}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.Dependencies(top.id)

			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++

				switch state[dep] {
				case unvisited:
					state[dep] = onStack
					stack = append(stack, frame{id: dep})
					path = append(path, dep)
				case onStack:
					start := slices.Index(path, dep)
					cycle := append(slices.Clone(path[start:]), dep)
					cycles = append(cycles, cycle)
				}
				continue
			}

			state[top.id] = finished
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
		}
	}
	return cycles
}
