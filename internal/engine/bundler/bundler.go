// Package bundler concatenates processed modules into the bundle and its chunks.
package bundler

import (
	"path/filepath"
	"strings"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/engine/sourcemap"
	"go.trai.ch/knit/internal/engine/splitter"
	"go.trai.ch/zerr"
)

// Input is everything the assembler reads.
type Input struct {
	// Root is the project root; module paths are shown relative to it.
	Root string
	// Output is the bundle path. Its kind selects the runtime prelude and
	// the sourceMappingURL syntax.
	Output string
	// Roots are the entry modules followed by the included modules.
	Roots   []domain.ModuleID
	Graph   *domain.Graph
	Modules map[domain.ModuleID]*domain.Module
	// Keep filters the traversal. Nil keeps every module.
	Keep func(domain.ModuleID) bool
	// Splitter enables code splitting when set.
	Splitter *splitter.Splitter
	// SourceMap receives one mapping per generated module line when set.
	SourceMap *sourcemap.Generator
	// SourceMapURL is appended as a sourceMappingURL comment when set.
	SourceMapURL string
}

// Bundle is the assembled output.
type Bundle struct {
	Content string
	// Modules are the modules inlined into Content, in order.
	Modules []domain.ModuleID
	// Chunks are the extracted chunks in creation order, content included.
	Chunks []domain.Chunk
	// Manifest is empty when no chunk was created.
	Manifest string
}

type rewritten struct {
	content string
	// lines maps each line of content to its line in the module content.
	lines []int
}

type assembly struct {
	in   Input
	done map[domain.ModuleID]rewritten
}

// Assemble walks the graph breadth first from the roots, following imports in
// the order they appear, and emits every reached module once. Each module is
// preceded by a comment naming its root-relative path. Output depends only on
// the graph and module contents, never on processing order.
func Assemble(in Input) (*Bundle, error) {
	a := &assembly{in: in, done: make(map[domain.ModuleID]rewritten)}
	order := in.Graph.BreadthFirst(in.Roots, in.Keep)

	// Rewriting every module first creates all chunks before anything is emitted.
	for _, id := range order {
		if _, err := a.rewrite(id); err != nil {
			return nil, err
		}
	}

	var inlined []domain.ModuleID
	for _, id := range order {
		if in.Splitter != nil && in.Splitter.Has(id) {
			continue
		}
		inlined = append(inlined, id)
	}

	b := &Bundle{Modules: inlined}
	if in.Splitter != nil {
		chunks, err := a.chunks()
		if err != nil {
			return nil, err
		}
		b.Chunks = chunks
		b.Manifest = splitter.Manifest(chunks)
	}

	bundleKind := domain.KindForPath(in.Output)
	var out strings.Builder
	line := 0

	if bundleKind == domain.KindJS {
		if rt := splitter.Runtime(b.Chunks); rt != "" {
			out.WriteString(rt)
			line += strings.Count(rt, "\n")
		}
	}

	for _, id := range inlined {
		m := in.Modules[id]
		r := a.done[id]
		rel := a.rel(id)

		out.WriteString(PathComment(m.Kind, rel))
		out.WriteByte('\n')
		line++

		body := r.content
		if body == "" {
			continue
		}
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		out.WriteString(body)

		emitted := strings.Count(body, "\n")
		if in.SourceMap != nil {
			src := in.SourceMap.AddSource(rel, m.Content)
			for i := range emitted {
				in.SourceMap.AddMapping(domain.Mapping{
					GeneratedLine: line + i,
					SourceIndex:   src,
					OriginalLine:  r.lines[i],
					NameIndex:     domain.NoName,
				})
			}
		}
		line += emitted
	}

	if in.SourceMapURL != "" {
		switch bundleKind {
		case domain.KindJS:
			out.WriteString("//# sourceMappingURL=" + in.SourceMapURL + "\n")
		case domain.KindCSS:
			out.WriteString("/*# sourceMappingURL=" + in.SourceMapURL + " */\n")
		}
	}

	b.Content = out.String()
	return b, nil
}

// chunks fills in the content of every chunk created while rewriting.
func (a *assembly) chunks() ([]domain.Chunk, error) {
	for _, c := range a.in.Splitter.Chunks() {
		member := c.Members[0]
		r, err := a.rewrite(member)
		if err != nil {
			return nil, err
		}
		m := a.in.Modules[member]
		a.in.Splitter.SetContent(member, PathComment(m.Kind, a.rel(member))+"\n"+r.content)
	}
	return a.in.Splitter.Chunks(), nil
}

// rewrite replaces the split import sites of one module with chunk references.
func (a *assembly) rewrite(id domain.ModuleID) (rewritten, error) {
	if r, ok := a.done[id]; ok {
		return r, nil
	}

	m, ok := a.in.Modules[id]
	if !ok {
		return rewritten{}, zerr.With(zerr.Wrap(domain.ErrReadFailed, "module was not loaded"), "path", id.String())
	}

	var edits []splitter.Edit
	if a.in.Splitter != nil {
		for _, ref := range m.Imports {
			if !ref.Resolved() || !a.in.Splitter.Selects(ref.Target) {
				continue
			}
			target, ok := a.in.Modules[ref.Target]
			if !ok {
				continue
			}
			c, err := a.in.Splitter.Chunk(target)
			if err != nil {
				return rewritten{}, err
			}
			edits = append(edits, splitter.Rewrite(m.Kind, ref, c))
		}
	}

	content, lines := applyEdits(m.Content, edits)
	r := rewritten{content: content, lines: lines}
	a.done[id] = r
	return r, nil
}

// applyEdits applies non-overlapping edits sorted by offset and returns, for
// every line of the result, the line of content it came from. Lines produced
// by an edit map to the line the edit starts on.
func applyEdits(content string, edits []splitter.Edit) (string, []int) {
	var b strings.Builder
	lines := []int{0}
	orig, pos := 0, 0

	copyText := func(seg string) {
		for range strings.Count(seg, "\n") {
			orig++
			lines = append(lines, orig)
		}
		b.WriteString(seg)
	}

	for _, e := range edits {
		copyText(content[pos:e.Start])
		for range strings.Count(e.Text, "\n") {
			lines = append(lines, orig)
		}
		b.WriteString(e.Text)
		orig += strings.Count(content[e.Start:e.End], "\n")
		pos = e.End
	}
	copyText(content[pos:])
	return b.String(), lines
}

func (a *assembly) rel(id domain.ModuleID) string {
	rel, err := filepath.Rel(a.in.Root, id.String())
	if err != nil {
		return filepath.ToSlash(id.String())
	}
	return filepath.ToSlash(rel)
}

// PathComment renders the comment naming a module in the syntax of its kind.
func PathComment(kind domain.FileKind, path string) string {
	switch kind {
	case domain.KindCSS:
		return "/* " + path + " */"
	case domain.KindHTML:
		return "<!-- " + path + " -->"
	default:
		return "// " + path
	}
}
