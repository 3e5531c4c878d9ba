package domain

import (
	"path/filepath"
	"strings"
)

// FileKind classifies a module by the import syntax it uses.
type FileKind string

const (
	// KindJS covers JavaScript and TypeScript sources.
	KindJS FileKind = "js"
	// KindCSS covers stylesheets.
	KindCSS FileKind = "css"
	// KindHTML covers HTML documents.
	KindHTML FileKind = "html"
	// KindJSON covers JSON documents.
	KindJSON FileKind = "json"
	// KindUnknown is any other file. It is bundled as opaque text and never scanned for imports.
	KindUnknown FileKind = "unknown"
)

// KindForPath derives the FileKind from a file extension.
func KindForPath(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx":
		return KindJS
	case ".css":
		return KindCSS
	case ".html", ".htm":
		return KindHTML
	case ".json":
		return KindJSON
	default:
		return KindUnknown
	}
}

// Bucket returns the chunk folder for the kind.
func (k FileKind) Bucket() string {
	switch k {
	case KindCSS:
		return "css"
	case KindHTML:
		return "html"
	default:
		return "js"
	}
}

// ModuleID is the canonical absolute path of a module.
type ModuleID = InternedString

// NewModuleID interns a cleaned path as a module identity.
func NewModuleID(path string) ModuleID {
	return NewInternedString(filepath.Clean(path))
}

// ImportRef is one import reference found in a module's content.
type ImportRef struct {
	// Spec is the raw reference string, e.g. "./util.js".
	Spec string
	// Start and End delimit the whole import statement in the content.
	Start, End int
	// SpecStart and SpecEnd delimit Spec itself in the content.
	SpecStart, SpecEnd int
	// Target is the resolved module. It is zero when resolution failed.
	Target ModuleID
	// Err holds the resolution failure, if any.
	Err error
}

// Resolved reports whether the reference was resolved to a module.
func (r ImportRef) Resolved() bool {
	return !r.Target.IsZero() && r.Err == nil
}

// Module is one source file participating in the dependency graph.
type Module struct {
	ID   ModuleID
	Kind FileKind
	// Content is the transformed content. It is immutable once cached and is
	// what import spans and source map lines refer to.
	Content string
	// Imports are in the order they appear in Content.
	Imports []ImportRef
}

// Dependencies returns the resolved import targets in import order.
func (m *Module) Dependencies() []ModuleID {
	deps := make([]ModuleID, 0, len(m.Imports))
	for _, ref := range m.Imports {
		if ref.Resolved() {
			deps = append(deps, ref.Target)
		}
	}
	return deps
}

// BuildTask is a unit of scheduling: one claimed module waiting to be loaded,
// transformed and expanded.
type BuildTask struct {
	ID ModuleID
	// Seq is the claim sequence number of the module.
	Seq int
}
