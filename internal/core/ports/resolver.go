package ports

import "go.trai.ch/knit/internal/core/domain"

// InputResolver defines the interface for resolving entry and include patterns.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs resolves the given patterns to a sorted list of concrete file paths.
	// Directories are expanded to every file below them.
	ResolveInputs(inputs []string, root string) ([]string, error)
}

// ImportResolver turns an import reference into a module identity.
// Implementations must be safe for concurrent use.
type ImportResolver interface {
	// Resolve resolves ref as written in the module from.
	// It returns domain.ErrModuleNotFound or domain.ErrResolutionRejected on failure.
	Resolve(ref string, from domain.ModuleID) (domain.ModuleID, error)
}

// ResolverHook can override import resolution.
type ResolverHook interface {
	// ResolveImport returns the path ref should resolve to, or ok=false to
	// fall through to the default resolution.
	ResolveImport(ref string, from domain.ModuleID) (path string, ok bool, err error)
}
