package domain

import (
	"runtime"
	"strings"

	"go.trai.ch/zerr"
)

// SourceMapMode selects the source map document variant.
type SourceMapMode string

const (
	// SourceMapStandard emits a plain version 3 document.
	SourceMapStandard SourceMapMode = "standard"
	// SourceMapDetailed adds sourceRoot and the x_filenames/x_sources_content extensions.
	SourceMapDetailed SourceMapMode = "detailed"
	// SourceMapCompressed collapses runs of empty mapping groups.
	SourceMapCompressed SourceMapMode = "compressed"
)

// ParseSourceMapMode validates a mode name. The empty string selects SourceMapStandard.
func ParseSourceMapMode(s string) (SourceMapMode, error) {
	switch SourceMapMode(strings.ToLower(s)) {
	case "", SourceMapStandard:
		return SourceMapStandard, nil
	case SourceMapDetailed:
		return SourceMapDetailed, nil
	case SourceMapCompressed:
		return SourceMapCompressed, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidOption, "unknown sourcemap mode"), "sourcemap_mode", s)
	}
}

// DefaultExtensions are the fallback extensions tried when a reference has no
// matching file as written.
var DefaultExtensions = []string{".js", ".ts", ".css", ".html", ".json"}

// BuildOptions configures one bundle build.
type BuildOptions struct {
	// Entries are entry file paths or glob patterns.
	Entries []string
	// Output is the bundle file path.
	Output string
	// Root is the project root. Every resolved module must live below it.
	Root string
	// SearchPaths are tried in order for bare references.
	SearchPaths []string
	// Extensions are the fallback extensions, tried in order.
	Extensions []string
	// Includes are extra non-entry modules (globs or directories).
	Includes []string
	// Aliases map reference prefixes to paths, e.g. "@ui" to "src/ui".
	Aliases map[string]string
	// Workers is the worker pool size. Values below 1 select runtime.NumCPU().
	Workers int

	TreeShaking   bool
	CodeSplitting bool
	// SplitPatterns restricts splitting to targets matching one of these
	// root-relative globs. Empty means every non-entry import target.
	SplitPatterns []string

	// SourceMap is the source map output path. Empty disables source maps.
	SourceMap     string
	SourceMapMode SourceMapMode

	// CacheFile persists the transform cache between runs when set.
	CacheFile string

	Minify     bool
	StripTypes bool
	// Exec is an external command every module is piped through.
	Exec string

	// ContinueOnError keeps processing after a read or transform failure.
	// The build still fails once the queue drains.
	ContinueOnError bool
	Verbose         bool
}

// WorkerCount returns the effective number of workers.
func (o *BuildOptions) WorkerCount() int {
	if o.Workers < 1 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// FallbackExtensions returns the configured extensions or DefaultExtensions.
func (o *BuildOptions) FallbackExtensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions
	}
	return o.Extensions
}

// Validate checks the options for a bundle build.
func (o *BuildOptions) Validate() error {
	if len(o.Entries) == 0 {
		return ErrNoEntries
	}
	if o.Output == "" {
		return ErrOutputRequired
	}
	if _, err := ParseSourceMapMode(string(o.SourceMapMode)); err != nil {
		return err
	}
	for _, ext := range o.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return zerr.With(zerr.Wrap(ErrInvalidOption, "extension must start with a dot"), "extension", ext)
		}
	}
	return nil
}
