package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/engine/graph"
)

func id(s string) domain.ModuleID {
	return domain.NewModuleID("/" + s)
}

func TestDetectCycles(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		roots []string
		want  [][]string
	}{
		{
			name:  "acyclic",
			edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}},
			roots: []string{"a"},
			want:  nil,
		},
		{
			name:  "two module cycle",
			edges: [][2]string{{"a", "b"}, {"b", "a"}},
			roots: []string{"a"},
			want:  [][]string{{"a", "b", "a"}},
		},
		{
			name:  "self import",
			edges: [][2]string{{"a", "a"}},
			roots: []string{"a"},
			want:  [][]string{{"a", "a"}},
		},
		{
			name:  "cycle below the root",
			edges: [][2]string{{"app", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}, {"app", "c"}},
			roots: []string{"app"},
			want:  [][]string{{"a", "b", "c", "a"}},
		},
		{
			name:  "second root reaches finished nodes only",
			edges: [][2]string{{"a", "b"}, {"c", "b"}},
			roots: []string{"a", "c"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewGraph()
			for _, e := range tt.edges {
				g.AddEdge(id(e[0]), id(e[1]))
			}
			roots := make([]domain.ModuleID, len(tt.roots))
			for i, r := range tt.roots {
				roots[i] = id(r)
			}

			var want [][]domain.ModuleID
			for _, c := range tt.want {
				cycle := make([]domain.ModuleID, len(c))
				for i, s := range c {
					cycle[i] = id(s)
				}
				want = append(want, cycle)
			}

			assert.Equal(t, want, graph.DetectCycles(g, roots))
		})
	}
}
