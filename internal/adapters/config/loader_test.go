package config_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knit/internal/adapters/config"
	"go.trai.ch/knit/internal/adapters/logger"
	"go.trai.ch/knit/internal/core/domain"
)

func newLoader() *config.Loader {
	log := logger.New()
	log.SetOutput(io.Discard)
	return config.NewLoader(log)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	path := filepath.Join(dir, config.DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeConfig(t, `
version: "1"
entries: ["src/main.js", "src/pages/*.html"]
output: dist/bundle.js
searchPaths: [node_modules]
extensions: [".js", ".css"]
include: [src/extra]
alias:
  "@ui": src/ui
parallel: 4
treeShaking: true
codeSplitting: true
split: ["src/lazy/*.js"]
sourcemap: true
sourcemapMode: detailed
cacheFile: .knit/cache.json
minify: true
stripTypes: true
exec: "cat"
continueOnError: true
`)
	dir := filepath.Dir(path)

	opts, err := newLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"src/main.js", "src/pages/*.html"}, opts.Entries)
	assert.Equal(t, filepath.Join(dir, "dist", "bundle.js"), opts.Output)
	assert.Equal(t, dir, opts.Root)
	assert.Equal(t, []string{"node_modules"}, opts.SearchPaths)
	assert.Equal(t, []string{".js", ".css"}, opts.Extensions)
	assert.Equal(t, []string{"src/extra"}, opts.Includes)
	assert.Equal(t, map[string]string{"@ui": "src/ui"}, opts.Aliases)
	assert.Equal(t, 4, opts.Workers)
	assert.True(t, opts.TreeShaking)
	assert.True(t, opts.CodeSplitting)
	assert.Equal(t, []string{"src/lazy/*.js"}, opts.SplitPatterns)
	assert.Equal(t, filepath.Join(dir, "dist", "bundle.js.map"), opts.SourceMap)
	assert.Equal(t, domain.SourceMapDetailed, opts.SourceMapMode)
	assert.Equal(t, filepath.Join(dir, ".knit", "cache.json"), opts.CacheFile)
	assert.True(t, opts.Minify)
	assert.True(t, opts.StripTypes)
	assert.Equal(t, "cat", opts.Exec)
	assert.True(t, opts.ContinueOnError)
}

func TestLoad_ExplicitSourceMapFileAndRoot(t *testing.T) {
	path := writeConfig(t, `
root: app
entries: [main.js]
output: /abs/out.js
sourcemapFile: maps/out.map
`)
	dir := filepath.Dir(path)

	opts, err := newLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app"), opts.Root)
	assert.Equal(t, "/abs/out.js", opts.Output)
	assert.Equal(t, filepath.Join(dir, "maps", "out.map"), opts.SourceMap)
	assert.Equal(t, domain.SourceMapStandard, opts.SourceMapMode)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	opts, err := newLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), opts.Root)
	assert.Empty(t, opts.Entries)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := newLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfigNotFound))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "entries: [unclosed")

	_, err := newLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeConfig(t, "entrys: [main.js]\n")

	_, err := newLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidSourceMapMode(t *testing.T) {
	path := writeConfig(t, "sourcemapMode: inline\n")

	_, err := newLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid build option")
}
