package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.trai.ch/knit/internal/core/domain"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

// renderSummary prints the build summary followed by the chunk, dropped edge
// and cycle tables when they have rows.
func renderSummary(w io.Writer, s *domain.BuildSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Build ID", s.BuildID},
		{"Discovered", s.Discovered},
		{"Edges", s.Edges},
		{"Modules", s.Modules},
		{"Cache hits", s.CacheHits},
		{"Bundled", s.Bundled},
		{"Pruned", s.Pruned},
		{"Chunks", len(s.Chunks)},
		{"Dropped imports", len(s.Dropped)},
		{"Cycles", len(s.Cycles)},
		{"Duration", s.Duration.Round(time.Millisecond)},
	})
	t.Render()

	if len(s.Chunks) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Chunk", "Path", "Members"})
		for _, c := range s.Chunks {
			t.AppendRow(table.Row{c.Name, c.Path, len(c.Members)})
		}
		t.Render()
	}

	if len(s.Dropped) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Module", "Import", "Error"})
		for _, f := range s.Dropped {
			t.AppendRow(table.Row{f.From.String(), f.Reference, f.Err.Error()})
		}
		t.Render()
	}

	for _, cycle := range s.Cycles {
		parts := make([]string, len(cycle))
		for i, id := range cycle {
			parts[i] = id.String()
		}
		_, _ = fmt.Fprintf(w, "cycle: %s\n", strings.Join(parts, " -> "))
	}

	for _, path := range s.Artifacts {
		_, _ = fmt.Fprintf(w, "wrote %s\n", path)
	}
}
