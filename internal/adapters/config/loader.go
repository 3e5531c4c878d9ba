// Package config provides the YAML configuration loader for knit.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the config file looked up when none is given.
const DefaultFilename = "knit.yaml"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{logger: log}
}

// Load reads the build options from the YAML file at path.
func (l *Loader) Load(path string) (*domain.BuildOptions, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file Knitfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}
	opts, err := file.toOptions(filepath.Dir(abs))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	l.logger.Debug("loaded config", "path", path, "entries", len(opts.Entries))
	return opts, nil
}

func (f *Knitfile) toOptions(dir string) (*domain.BuildOptions, error) {
	mode, err := domain.ParseSourceMapMode(f.SourceMapMode)
	if err != nil {
		return nil, err
	}

	opts := &domain.BuildOptions{
		Entries:         f.Entries,
		Output:          rebase(dir, f.Output),
		Root:            rebase(dir, f.Root),
		SearchPaths:     f.SearchPaths,
		Extensions:      f.Extensions,
		Includes:        f.Include,
		Aliases:         f.Alias,
		Workers:         f.Parallel,
		TreeShaking:     f.TreeShaking,
		CodeSplitting:   f.CodeSplitting,
		SplitPatterns:   f.Split,
		SourceMapMode:   mode,
		CacheFile:       rebase(dir, f.CacheFile),
		Minify:          f.Minify,
		StripTypes:      f.StripTypes,
		Exec:            f.Exec,
		ContinueOnError: f.ContinueOnError,
	}
	if opts.Root == "" {
		opts.Root = dir
	}

	switch {
	case f.SourceMapFile != "":
		opts.SourceMap = rebase(dir, f.SourceMapFile)
	case f.SourceMap && opts.Output != "":
		opts.SourceMap = opts.Output + ".map"
	}

	return opts, nil
}

// rebase makes a relative path absolute against dir. Empty stays empty.
func rebase(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
