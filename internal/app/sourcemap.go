package app

import (
	"os"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/engine/sourcemap"
	"go.trai.ch/zerr"
)

// ValidateSourceMap loads the map at path and reports whether it is well formed.
func (a *App) ValidateSourceMap(path string) (*sourcemap.Map, error) {
	m, err := readSourceMap(path)
	if err != nil {
		return nil, err
	}
	if _, err := sourcemap.DecodeMappings(m.Mappings); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	a.logger.Debug("source map is valid", "path", path, "sources", len(m.Sources))
	return m, nil
}

// MergeSourceMaps merges the maps at inputs into one document written to out.
// An empty file name selects sourcemap.MergedFile.
func (a *App) MergeSourceMaps(out, file string, inputs []string) (*sourcemap.Map, error) {
	maps := make([]*sourcemap.Map, 0, len(inputs))
	for _, path := range inputs {
		m, err := readSourceMap(path)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}

	merged := sourcemap.Merge(file, maps...)
	if err := a.writeSourceMap(out, merged); err != nil {
		return nil, err
	}
	a.logger.Debug("merged source maps", "inputs", len(inputs), "output", out)
	return merged, nil
}

// CompressSourceMap collapses the empty mapping groups of the map at in and
// writes the result to out. An empty out overwrites in.
func (a *App) CompressSourceMap(in, out string) (*sourcemap.Map, error) {
	m, err := readSourceMap(in)
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = in
	}

	compressed := sourcemap.Compress(m)
	if err := a.writeSourceMap(out, compressed); err != nil {
		return nil, err
	}
	return compressed, nil
}

func (a *App) writeSourceMap(path string, m *sourcemap.Map) error {
	data, err := m.Marshal()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
	}
	return a.writer.WriteFile(path, data)
}

func readSourceMap(path string) (*sourcemap.Map, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrReadFailed.Error()), "path", path)
	}
	m, err := sourcemap.Load(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}
