package progrock

import (
	"fmt"
	"io"
	"sync"

	"github.com/vito/progrock"
)

// Status is the lifecycle state of a recorded vertex.
type Status int

const (
	// StatusRunning means the vertex started and has not completed.
	StatusRunning Status = iota
	// StatusCompleted means the vertex finished without error.
	StatusCompleted
	// StatusCached means the vertex finished from the cache.
	StatusCached
	// StatusFailed means the vertex finished with an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCached:
		return "cached"
	case StatusFailed:
		return "failed"
	default:
		return "running"
	}
}

// VertexState is the latest known state of one vertex.
type VertexState struct {
	ID     string
	Name   string
	Status Status
	Error  string
	cached bool
}

var _ progrock.Writer = (*Progress)(nil)

// Progress is a progrock.Writer that tracks vertex states in first-seen order
// and prints one line per finished vertex when out is not nil.
type Progress struct {
	mu       sync.Mutex
	out      io.Writer
	styles   styles
	vertices []VertexState
	index    map[string]int
}

// NewProgress creates a Progress writer. out may be nil.
func NewProgress(out io.Writer) *Progress {
	p := &Progress{
		out:   out,
		index: make(map[string]int),
	}
	if out != nil {
		p.styles = newStyles(out)
	}
	return p
}

// WriteStatus implements progrock.Writer.
func (p *Progress) WriteStatus(update *progrock.StatusUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range update.Vertexes {
		p.apply(v)
	}
	return nil
}

func (p *Progress) apply(v *progrock.Vertex) {
	i, ok := p.index[v.Id]
	if !ok {
		i = len(p.vertices)
		p.index[v.Id] = i
		p.vertices = append(p.vertices, VertexState{ID: v.Id, Name: v.Name, Status: StatusRunning})
	}
	state := &p.vertices[i]
	if v.Cached {
		state.cached = true
	}
	if v.Completed == nil || state.Status != StatusRunning {
		return
	}

	switch {
	case v.Error != nil:
		state.Status = StatusFailed
		state.Error = *v.Error
	case state.cached:
		state.Status = StatusCached
	default:
		state.Status = StatusCompleted
	}
	p.print(state)
}

func (p *Progress) print(state *VertexState) {
	if p.out == nil {
		return
	}
	switch state.Status {
	case StatusFailed:
		_, _ = fmt.Fprintf(p.out, "%s %s: %s\n", p.styles.failed.Render(cross), state.Name, state.Error)
	case StatusCached:
		_, _ = fmt.Fprintf(p.out, "%s %s\n", p.styles.cached.Render(dot), p.styles.cached.Render(state.Name+" (cached)"))
	default:
		_, _ = fmt.Fprintf(p.out, "%s %s\n", p.styles.done.Render(check), state.Name)
	}
}

// Close implements progrock.Writer.
func (p *Progress) Close() error {
	return nil
}

// Vertices returns a snapshot of all vertex states in first-seen order.
func (p *Progress) Vertices() []VertexState {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]VertexState, len(p.vertices))
	copy(out, p.vertices)
	return out
}

// Count returns the number of vertices in the given state.
func (p *Progress) Count(status Status) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, v := range p.vertices {
		if v.Status == status {
			n++
		}
	}
	return n
}
