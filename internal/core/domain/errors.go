package domain

import "go.trai.ch/zerr"

var (
	// ErrModuleNotFound is returned when no file exists for an import reference,
	// including every fallback extension.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrResolutionRejected is returned when a resolved path escapes the project root
	// or fails the existence/permission check.
	ErrResolutionRejected = zerr.New("resolution rejected")

	// ErrReadFailed is returned when a discovered module cannot be read.
	ErrReadFailed = zerr.New("failed to read module")

	// ErrTransformFailed is returned when a transform hook reports an error.
	ErrTransformFailed = zerr.New("transform failed")

	// ErrCycleDetected is reported when a module can reach itself through its imports.
	// It is a diagnostic and never aborts a build.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrChunkNameCollision is returned when two different modules produce the same chunk name.
	ErrChunkNameCollision = zerr.New("chunk name collision")

	// ErrMalformedSourceMap is returned when a source map document fails validation.
	ErrMalformedSourceMap = zerr.New("malformed source map")

	// ErrNoEntries is returned when no entry pattern matched a file.
	ErrNoEntries = zerr.New("no entry modules")

	// ErrEntryNotFound is returned when an entry pattern matches nothing.
	ErrEntryNotFound = zerr.New("entry not found")

	// ErrOutputRequired is returned when the bundle command has no output path.
	ErrOutputRequired = zerr.New("output file required")

	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = zerr.New("config file not found")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidOption is returned when a build option has an unsupported value.
	ErrInvalidOption = zerr.New("invalid build option")

	// ErrCacheReadFailed is returned when the persisted cache cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read cache file")

	// ErrCacheWriteFailed is returned when the persisted cache cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write cache file")

	// ErrWriteFailed is returned when a build artifact cannot be written.
	ErrWriteFailed = zerr.New("failed to write artifact")

	// ErrBuildFailed is returned when the build aborts on a fatal error.
	ErrBuildFailed = zerr.New("build failed")

	// ErrBuildDegraded is returned when the bundle was written but one or more
	// import edges were dropped because they could not be resolved.
	ErrBuildDegraded = zerr.New("build completed with unresolved imports")
)
