// Package sourcemap accumulates position mappings and reads, writes, merges
// and compresses version 3 source map documents.
package sourcemap

import (
	"encoding/json"
	"strings"
	"sync"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/zerr"
)

// Version is the source map format version written by this package.
const Version = 3

// MergedFile is the file name of a merged map unless one is given.
const MergedFile = "merged.js"

// Map is a source map document.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     *string  `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`

	XFilenames      []string `json:"x_filenames,omitempty"`
	XSourcesContent []string `json:"x_sources_content,omitempty"`
}

// Marshal encodes the document as compact JSON.
func (m *Map) Marshal() ([]byte, error) {
	out := *m
	out.Sources = nonNil(out.Sources)
	out.SourcesContent = nonNil(out.SourcesContent)
	out.Names = nonNil(out.Names)
	return json.Marshal(&out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Generator accumulates sources, names and mappings for one output file.
// It is safe for concurrent use.
type Generator struct {
	file string

	mu          sync.Mutex
	sources     []string
	contents    []string
	sourceIndex map[string]int
	names       []string
	nameIndex   map[string]int
	mappings    []domain.Mapping
}

// NewGenerator creates a Generator for the output file name.
func NewGenerator(file string) *Generator {
	return &Generator{
		file:        file,
		sourceIndex: make(map[string]int),
		nameIndex:   make(map[string]int),
	}
}

// AddSource registers a source and its original content and returns its index.
// A source added twice keeps its first index and content.
func (g *Generator) AddSource(path, content string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.sourceIndex[path]; ok {
		return i
	}
	i := len(g.sources)
	g.sources = append(g.sources, path)
	g.contents = append(g.contents, content)
	g.sourceIndex[path] = i
	return i
}

// AddName registers an identifier name and returns its index.
func (g *Generator) AddName(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.nameIndex[name]; ok {
		return i
	}
	i := len(g.names)
	g.names = append(g.names, name)
	g.nameIndex[name] = i
	return i
}

// AddMapping records one mapping.
func (g *Generator) AddMapping(m domain.Mapping) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mappings = append(g.mappings, m)
}

// Len returns the number of recorded mappings.
func (g *Generator) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.mappings)
}

// Map serializes the accumulated state.
func (g *Generator) Map() *Map {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &Map{
		Version:        Version,
		File:           g.file,
		Sources:        append([]string{}, g.sources...),
		SourcesContent: append([]string{}, g.contents...),
		Names:          append([]string{}, g.names...),
		Mappings:       EncodeMappings(g.mappings),
	}
}

// Load parses and validates a source map document. The version must be 2 or
// 3; file and mappings must be strings; sources, sourcesContent and names
// must be arrays. Null array elements read as empty strings.
func Load(data []byte) (*Map, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedSourceMap, "invalid json"), "error", err.Error())
	}

	version, ok := doc["version"].(float64)
	if !ok || (version != 2 && version != 3) {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedSourceMap, "unsupported version"), "version", doc["version"])
	}

	m := &Map{Version: int(version)}
	var err error
	if m.File, err = stringField(doc, "file"); err != nil {
		return nil, err
	}
	if m.Sources, err = arrayField(doc, "sources"); err != nil {
		return nil, err
	}
	if m.SourcesContent, err = arrayField(doc, "sourcesContent"); err != nil {
		return nil, err
	}
	if m.Names, err = arrayField(doc, "names"); err != nil {
		return nil, err
	}
	if m.Mappings, err = stringField(doc, "mappings"); err != nil {
		return nil, err
	}

	if root, ok := doc["sourceRoot"].(string); ok {
		m.SourceRoot = &root
	}
	if _, ok := doc["x_filenames"]; ok {
		if m.XFilenames, err = arrayField(doc, "x_filenames"); err != nil {
			return nil, err
		}
	}
	if _, ok := doc["x_sources_content"]; ok {
		if m.XSourcesContent, err = arrayField(doc, "x_sources_content"); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func fieldError(field string) error {
	return zerr.With(zerr.Wrap(domain.ErrMalformedSourceMap, "missing or invalid "+field+" field"), "field", field)
}

func stringField(doc map[string]any, field string) (string, error) {
	s, ok := doc[field].(string)
	if !ok {
		return "", fieldError(field)
	}
	return s, nil
}

func arrayField(doc map[string]any, field string) ([]string, error) {
	items, ok := doc[field].([]any)
	if !ok {
		return nil, fieldError(field)
	}
	out := make([]string, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			out[i] = v
		case nil:
		default:
			return nil, zerr.With(fieldError(field), "index", i)
		}
	}
	return out, nil
}

// Merge combines maps into one document. Sources and names are the ordered
// deduplicated union of the inputs and each source keeps the content it was
// first seen with, so sourcesContent stays aligned with sources. Mappings are
// the input mappings concatenated in order. An empty file selects MergedFile.
func Merge(file string, maps ...*Map) *Map {
	if file == "" {
		file = MergedFile
	}

	var mappings strings.Builder
	sources := newUnion()
	names := newUnion()
	contents := []string{}
	withContent := false
	for _, m := range maps {
		withContent = withContent || len(m.SourcesContent) > 0
		for i, src := range m.Sources {
			if !sources.add(src) {
				continue
			}
			var content string
			if i < len(m.SourcesContent) {
				content = m.SourcesContent[i]
			}
			contents = append(contents, content)
		}
		names.add(m.Names...)
		mappings.WriteString(m.Mappings)
	}
	if !withContent {
		contents = []string{}
	}

	return &Map{
		Version:        Version,
		File:           file,
		Sources:        sources.items,
		SourcesContent: contents,
		Names:          names.items,
		Mappings:       mappings.String(),
	}
}

type union struct {
	seen  map[string]bool
	items []string
}

func newUnion() *union {
	return &union{seen: make(map[string]bool), items: []string{}}
}

// add appends the items not seen yet and reports whether any was new.
func (u *union) add(items ...string) bool {
	added := false
	for _, s := range items {
		if u.seen[s] {
			continue
		}
		u.seen[s] = true
		u.items = append(u.items, s)
		added = true
	}
	return added
}

// Compress returns a copy of m whose runs of consecutive empty mapping groups
// are collapsed into one separator.
func Compress(m *Map) *Map {
	out := *m
	var b strings.Builder
	prevSep := false
	for i := range len(m.Mappings) {
		c := m.Mappings[i]
		if c == ';' {
			if prevSep {
				continue
			}
			prevSep = true
		} else {
			prevSep = false
		}
		b.WriteByte(c)
	}
	out.Mappings = b.String()
	return &out
}

// Detailed returns a copy of m that also carries sourceRoot, x_filenames and
// x_sources_content for tools that do not read the compact fields.
func Detailed(m *Map, sourceRoot string) *Map {
	out := *m
	out.SourceRoot = &sourceRoot
	out.XFilenames = append([]string{}, m.Sources...)
	out.XSourcesContent = append([]string{}, m.SourcesContent...)
	return &out
}

// Render applies the document variant selected by mode.
func Render(m *Map, mode domain.SourceMapMode) *Map {
	switch mode {
	case domain.SourceMapDetailed:
		return Detailed(m, "")
	case domain.SourceMapCompressed:
		return Compress(m)
	default:
		return m
	}
}
