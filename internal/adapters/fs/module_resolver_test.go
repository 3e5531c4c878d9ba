package fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knit/internal/adapters/fs"
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/knit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFiles(t, root, files)
	return root
}

func newImportResolver(t *testing.T, root string, hook *mocks.MockResolverHook) *fs.ImportResolver {
	t.Helper()
	var h ports.ResolverHook
	if hook != nil {
		h = hook
	}
	r, err := fs.NewImportResolver(root, []string{"lib"}, domain.DefaultExtensions, h)
	require.NoError(t, err)
	return r
}

func TestImportResolver_Resolve(t *testing.T) {
	root := newProject(t, map[string]string{
		"src/app.js":                 "",
		"src/util.js":                "",
		"src/styles/site.css":        "",
		"src/widgets/index.js":       "",
		"src/pkg/package.json":       `{"main": "dist/entry"}`,
		"src/pkg/dist/entry.js":      "",
		"assets/logo.json":           "",
		"lib/vendor.js":              "",
		"lib/ui/button.ts":           "",
		"lib/brokenpkg/package.json": `{not json`,
		"lib/brokenpkg/index.css":    "",
		"src/exact.js.js":            "",
		"src/exact.js":               "",
	})
	from := domain.NewModuleID(filepath.Join(root, "src", "app.js"))
	resolver := newImportResolver(t, root, nil)

	tests := []struct {
		ref  string
		want string
	}{
		{"./util.js", "src/util.js"},
		{"./util", "src/util.js"},
		{"./styles/site.css", "src/styles/site.css"},
		{"./widgets", "src/widgets/index.js"},
		{"./pkg", "src/pkg/dist/entry.js"},
		{"../assets/logo", "assets/logo.json"},
		{"/assets/logo.json", "assets/logo.json"},
		{"vendor", "lib/vendor.js"},
		{"ui/button", "lib/ui/button.ts"},
		{"brokenpkg", "lib/brokenpkg/index.css"},
		{"./exact.js", "src/exact.js"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			id, err := resolver.Resolve(tt.ref, from)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), id.String())
		})
	}
}

func TestImportResolver_NotFound(t *testing.T) {
	root := newProject(t, map[string]string{"src/app.js": ""})
	from := domain.NewModuleID(filepath.Join(root, "src", "app.js"))
	resolver := newImportResolver(t, root, nil)

	for _, ref := range []string{"./missing.js", "./missing", "/nowhere", "bare-missing", "./app.js/child"} {
		_, err := resolver.Resolve(ref, from)
		require.Error(t, err, ref)
		assert.ErrorIs(t, err, domain.ErrModuleNotFound, ref)
	}
}

func TestImportResolver_RejectsTraversal(t *testing.T) {
	outside := t.TempDir()
	writeFiles(t, outside, map[string]string{"secret.js": ""})

	root := newProject(t, map[string]string{"src/app.js": ""})
	from := domain.NewModuleID(filepath.Join(root, "src", "app.js"))
	resolver := newImportResolver(t, root, nil)

	rel, err := filepath.Rel(filepath.Join(root, "src"), filepath.Join(outside, "secret.js"))
	require.NoError(t, err)

	_, err = resolver.Resolve("./"+filepath.ToSlash(rel), from)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolutionRejected)

	_, err = resolver.Resolve("../../../../../../../../etc/passwd", from)
	assert.ErrorIs(t, err, domain.ErrResolutionRejected)
}

func TestImportResolver_RejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	outside := t.TempDir()
	writeFiles(t, outside, map[string]string{"secret.js": ""})

	root := newProject(t, map[string]string{"src/app.js": ""})
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.js"), filepath.Join(root, "src", "link.js")))
	from := domain.NewModuleID(filepath.Join(root, "src", "app.js"))

	_, err := newImportResolver(t, root, nil).Resolve("./link.js", from)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolutionRejected)
}

func TestImportResolver_SymlinkInsideRootIsCanonical(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	root := newProject(t, map[string]string{"src/app.js": "", "src/real.js": ""})
	require.NoError(t, os.Symlink(filepath.Join(root, "src", "real.js"), filepath.Join(root, "src", "alias.js")))
	from := domain.NewModuleID(filepath.Join(root, "src", "app.js"))

	id, err := newImportResolver(t, root, nil).Resolve("./alias.js", from)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "real.js"), id.String())
}

func TestImportResolver_Hook(t *testing.T) {
	outside := t.TempDir()
	writeFiles(t, outside, map[string]string{"secret.js": ""})

	root := newProject(t, map[string]string{"src/app.js": "", "src/override.js": ""})
	from := domain.NewModuleID(filepath.Join(root, "src", "app.js"))

	ctrl := gomock.NewController(t)
	hook := mocks.NewMockResolverHook(ctrl)
	resolver := newImportResolver(t, root, hook)

	t.Run("override wins", func(t *testing.T) {
		hook.EXPECT().ResolveImport("virtual:thing", from).Return("override.js", true, nil)

		id, err := resolver.Resolve("virtual:thing", from)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "src", "override.js"), id.String())
	})

	t.Run("fall through", func(t *testing.T) {
		hook.EXPECT().ResolveImport("./override.js", from).Return("", false, nil)

		id, err := resolver.Resolve("./override.js", from)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "src", "override.js"), id.String())
	})

	t.Run("override is still confined", func(t *testing.T) {
		hook.EXPECT().ResolveImport("escape", from).Return(filepath.Join(outside, "secret.js"), true, nil)

		_, err := resolver.Resolve("escape", from)
		assert.ErrorIs(t, err, domain.ErrResolutionRejected)
	})

	t.Run("hook error", func(t *testing.T) {
		hook.EXPECT().ResolveImport("boom", from).Return("", false, errors.New("hook exploded"))

		_, err := resolver.Resolve("boom", from)
		assert.ErrorContains(t, err, "hook exploded")
	})
}

func TestImportResolver_Canonical(t *testing.T) {
	root := newProject(t, map[string]string{"main.js": ""})
	resolver := newImportResolver(t, root, nil)

	id, err := resolver.Canonical(filepath.Join(root, "main.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "main.js"), id.String())

	_, err = resolver.Canonical(root)
	assert.ErrorIs(t, err, domain.ErrResolutionRejected)
}
