package fs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ImportResolver = (*ImportResolver)(nil)

// ImportResolver resolves import references against the file system.
// It holds no mutable state and is safe for concurrent use.
type ImportResolver struct {
	root        string
	searchPaths []string
	extensions  []string
	hook        ports.ResolverHook
}

// NewImportResolver creates an ImportResolver confined to root.
// Relative search paths are taken from root. hook may be nil.
func NewImportResolver(root string, searchPaths, extensions []string, hook ports.ResolverHook) (*ImportResolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve project root"), "root", root)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve project root"), "root", root)
	}

	paths := make([]string, 0, len(searchPaths))
	for _, sp := range searchPaths {
		if !filepath.IsAbs(sp) {
			sp = filepath.Join(canonical, sp)
		}
		if resolved, err := filepath.EvalSymlinks(sp); err == nil {
			sp = resolved
		}
		paths = append(paths, filepath.Clean(sp))
	}

	return &ImportResolver{
		root:        canonical,
		searchPaths: paths,
		extensions:  extensions,
		hook:        hook,
	}, nil
}

// Root returns the canonical project root.
func (r *ImportResolver) Root() string {
	return r.root
}

// Canonical checks that path is a regular file inside the root and returns
// its identity with symlinks evaluated.
func (r *ImportResolver) Canonical(path string) (domain.ModuleID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.ModuleID{}, zerr.With(zerr.Wrap(err, "failed to make path absolute"), "path", path)
	}
	return r.accept(abs, path)
}

// Resolve resolves ref as written in the module from.
func (r *ImportResolver) Resolve(ref string, from domain.ModuleID) (domain.ModuleID, error) {
	if r.hook != nil {
		path, ok, err := r.hook.ResolveImport(ref, from)
		if err != nil {
			return domain.ModuleID{}, zerr.With(zerr.Wrap(err, "resolver hook failed"), "reference", ref)
		}
		if ok {
			if !filepath.IsAbs(path) {
				path = filepath.Join(filepath.Dir(from.String()), path)
			}
			return r.accept(filepath.Clean(path), ref)
		}
	}

	for _, base := range r.bases(ref, from) {
		id, found, err := r.lookup(base, ref)
		if err != nil {
			return domain.ModuleID{}, err
		}
		if found {
			return id, nil
		}
	}

	return domain.ModuleID{}, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, ref), "from", from.String())
}

// bases returns the candidate paths for ref before extension fallback.
func (r *ImportResolver) bases(ref string, from domain.ModuleID) []string {
	switch {
	case ref == "." || ref == ".." || strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../"):
		return []string{filepath.Join(filepath.Dir(from.String()), filepath.FromSlash(ref))}
	case strings.HasPrefix(ref, "/"):
		return []string{filepath.Join(r.root, filepath.FromSlash(ref))}
	default:
		out := make([]string, 0, len(r.searchPaths))
		for _, sp := range r.searchPaths {
			out = append(out, filepath.Join(sp, filepath.FromSlash(ref)))
		}
		return out
	}
}

// lookup tries base as written, then with each fallback extension, then as a
// directory module. A rejection stops the search.
func (r *ImportResolver) lookup(base, ref string) (domain.ModuleID, bool, error) {
	if !r.within(base) {
		return domain.ModuleID{}, false, r.reject(ref, base, "outside project root")
	}

	id, found, isDir, err := r.tryFile(base, ref)
	if found || err != nil {
		return id, found, err
	}
	for _, ext := range r.extensions {
		if id, found, _, err := r.tryFile(base+ext, ref); found || err != nil {
			return id, found, err
		}
	}
	if isDir {
		return r.lookupDir(base, ref)
	}
	return domain.ModuleID{}, false, nil
}

// lookupDir resolves a directory through package.json "main", then index files.
func (r *ImportResolver) lookupDir(dir, ref string) (domain.ModuleID, bool, error) {
	if main := packageMain(dir); main != "" {
		entry := filepath.Join(dir, filepath.FromSlash(main))
		if r.within(entry) {
			if id, found, _, err := r.tryFile(entry, ref); found || err != nil {
				return id, found, err
			}
			for _, ext := range r.extensions {
				if id, found, _, err := r.tryFile(entry+ext, ref); found || err != nil {
					return id, found, err
				}
			}
		}
	}
	for _, ext := range r.extensions {
		if id, found, _, err := r.tryFile(filepath.Join(dir, "index"+ext), ref); found || err != nil {
			return id, found, err
		}
	}
	return domain.ModuleID{}, false, nil
}

// tryFile stats one candidate. Missing candidates are not errors.
func (r *ImportResolver) tryFile(path, ref string) (id domain.ModuleID, found, isDir bool, err error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return domain.ModuleID{}, false, false, nil
	default:
		return domain.ModuleID{}, false, false, r.reject(ref, path, err.Error())
	}

	if info.IsDir() {
		return domain.ModuleID{}, false, true, nil
	}
	id, err = r.accept(path, ref)
	if err != nil {
		return domain.ModuleID{}, false, false, err
	}
	return id, true, false, nil
}

// accept applies the traversal check after symlink evaluation and requires a
// regular file.
func (r *ImportResolver) accept(path, ref string) (domain.ModuleID, error) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ModuleID{}, zerr.With(zerr.Wrap(domain.ErrModuleNotFound, ref), "path", path)
		}
		return domain.ModuleID{}, r.reject(ref, path, err.Error())
	}
	if !r.within(canonical) {
		return domain.ModuleID{}, r.reject(ref, canonical, "outside project root")
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return domain.ModuleID{}, r.reject(ref, canonical, err.Error())
	}
	if !info.Mode().IsRegular() {
		return domain.ModuleID{}, r.reject(ref, canonical, "not a regular file")
	}
	return domain.NewModuleID(canonical), nil
}

func (r *ImportResolver) within(path string) bool {
	rel, err := filepath.Rel(r.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (r *ImportResolver) reject(ref, path, reason string) error {
	err := zerr.With(zerr.Wrap(domain.ErrResolutionRejected, ref), "path", path)
	return zerr.With(err, "reason", reason)
}

type packageManifest struct {
	Main string `json:"main"`
}

// packageMain returns the "main" field of dir/package.json, or "".
func packageMain(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json")) //nolint:gosec // Path is confined to the project root
	if err != nil {
		return ""
	}
	var pkg packageManifest
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Main
}
