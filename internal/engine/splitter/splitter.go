// Package splitter extracts imported modules into separately loadable chunks.
package splitter

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
)

// ManifestName is the file name of the chunk manifest, written beside the bundle.
const ManifestName = "manifest.txt"

// Splitter decides which import targets become chunks and owns the chunk list
// and manifest of one build.
type Splitter struct {
	hasher   ports.Hasher
	root     string
	patterns []string
	roots    map[domain.ModuleID]bool

	mu     sync.Mutex
	byID   map[domain.ModuleID]*domain.Chunk
	byName map[string]domain.ModuleID
	chunks []*domain.Chunk
}

// New creates a Splitter. Roots are never split. With no patterns every other
// import target is split; otherwise only targets whose root-relative slash path
// matches one of the patterns. A pattern without a slash also matches the base name.
func New(hasher ports.Hasher, root string, roots []domain.ModuleID, patterns []string) (*Splitter, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidOption, "split pattern"), "pattern", p)
		}
	}

	s := &Splitter{
		hasher:   hasher,
		root:     root,
		patterns: patterns,
		roots:    make(map[domain.ModuleID]bool, len(roots)),
		byID:     make(map[domain.ModuleID]*domain.Chunk),
		byName:   make(map[string]domain.ModuleID),
	}
	for _, r := range roots {
		s.roots[r] = true
	}
	return s, nil
}

// Selects reports whether an import of target is replaced by a chunk load.
func (s *Splitter) Selects(target domain.ModuleID) bool {
	if s.roots[target] {
		return false
	}
	if len(s.patterns) == 0 {
		return true
	}

	rel, err := filepath.Rel(s.root, target.String())
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range s.patterns {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := path.Match(p, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}

// Chunk returns the chunk carrying m, creating it on first use.
// The name is derived from the module identity and content; a name already
// owned by another module is ErrChunkNameCollision.
func (s *Splitter) Chunk(m *domain.Module) (*domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.byID[m.ID]; ok {
		return c, nil
	}

	name := "chunk_" + s.hasher.Hash(m.ID.String(), m.Content)
	if owner, taken := s.byName[name]; taken {
		err := zerr.With(zerr.Wrap(domain.ErrChunkNameCollision, name), "module", m.ID.String())
		return nil, zerr.With(err, "owner", owner.String())
	}

	bucket := m.Kind.Bucket()
	ext := filepath.Ext(m.ID.String())
	if ext == "" {
		ext = "." + bucket
	}

	c := &domain.Chunk{
		Name:    name,
		Members: []domain.ModuleID{m.ID},
		Path:    bucket + "/" + name + ext,
		Bucket:  bucket,
	}
	s.byID[m.ID] = c
	s.byName[name] = m.ID
	s.chunks = append(s.chunks, c)
	return c, nil
}

// Has reports whether id was extracted into a chunk.
func (s *Splitter) Has(id domain.ModuleID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

// SetContent stores the assembled text of the chunk carrying id.
func (s *Splitter) SetContent(id domain.ModuleID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byID[id]; ok {
		c.Content = content
	}
}

// Chunks returns the chunks in creation order.
func (s *Splitter) Chunks() []domain.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Chunk, len(s.chunks))
	for i, c := range s.chunks {
		out[i] = *c
	}
	return out
}

// Manifest renders one "name: path" line per chunk in creation order.
func Manifest(chunks []domain.Chunk) string {
	var b strings.Builder
	for i := range chunks {
		b.WriteString(chunks[i].ManifestLine())
		b.WriteByte('\n')
	}
	return b.String()
}

// Edit is a replacement of content[Start:End] by Text.
type Edit struct {
	Start, End int
	Text       string
}

// Rewrite returns the edit that points ref at chunk c. JavaScript import
// statements become a loadChunk call; other kinds keep their statement and
// only the reference is repointed to the chunk file.
func Rewrite(kind domain.FileKind, ref domain.ImportRef, c *domain.Chunk) Edit {
	if kind == domain.KindJS {
		return Edit{Start: ref.Start, End: ref.End, Text: LoadCall(c.Name)}
	}
	return Edit{Start: ref.SpecStart, End: ref.SpecEnd, Text: c.Path}
}

// LoadCall is the runtime statement loading a chunk by name.
func LoadCall(name string) string {
	return "loadChunk(" + strconv.Quote(name) + ");"
}
