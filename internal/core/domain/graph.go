// Package domain contains the core domain models of the bundler: modules,
// the dependency graph, chunks and source mappings.
package domain

import (
	"iter"
	"slices"
)

// Graph is the dependency graph of modules.
// Nodes keep their first-insertion order and each edge list keeps the order
// in which edges were recorded. Cycles are allowed.
// Graph is not safe for concurrent mutation; the graph builder serializes writes.
type Graph struct {
	order []ModuleID
	edges map[ModuleID][]ModuleID
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		edges: make(map[ModuleID][]ModuleID),
	}
}

// AddNode inserts id if it is not present yet. It reports whether id was new.
func (g *Graph) AddNode(id ModuleID) bool {
	if _, exists := g.edges[id]; exists {
		return false
	}
	g.edges[id] = nil
	g.order = append(g.order, id)
	return true
}

// AddEdge records that from depends on to. Both nodes are added if missing.
// A duplicate edge is ignored so the edge list stays in first-seen order.
func (g *Graph) AddEdge(from, to ModuleID) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.edges[from], to) {
		return
	}
	g.edges[from] = append(g.edges[from], to)
}

// Contains reports whether id is a node of the graph.
func (g *Graph) Contains(id ModuleID) bool {
	_, ok := g.edges[id]
	return ok
}

// Dependencies returns the ordered dependencies of id.
func (g *Graph) Dependencies(id ModuleID) []ModuleID {
	return g.edges[id]
}

// Dependents returns every node with an edge to id, in node order.
func (g *Graph) Dependents(id ModuleID) []ModuleID {
	var out []ModuleID
	for _, n := range g.order {
		if slices.Contains(g.edges[n], id) {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, deps := range g.edges {
		n += len(deps)
	}
	return n
}

// Nodes yields the nodes in insertion order.
func (g *Graph) Nodes() iter.Seq[ModuleID] {
	return func(yield func(ModuleID) bool) {
		for _, id := range g.order {
			if !yield(id) {
				return
			}
		}
	}
}

// BreadthFirst returns the nodes reachable from roots in breadth-first order,
// following edges in recorded order. Each node appears once. When keep is not
// nil, only nodes for which keep returns true are visited or expanded.
func (g *Graph) BreadthFirst(roots []ModuleID, keep func(ModuleID) bool) []ModuleID {
	seen := make(map[ModuleID]bool, len(g.order))
	out := make([]ModuleID, 0, len(g.order))
	queue := make([]ModuleID, 0, len(roots))

	visit := func(id ModuleID) {
		if seen[id] || !g.Contains(id) {
			return
		}
		if keep != nil && !keep(id) {
			return
		}
		seen[id] = true
		queue = append(queue, id)
	}

	for _, r := range roots {
		visit(r)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		for _, dep := range g.edges[id] {
			visit(dep)
		}
	}
	return out
}
