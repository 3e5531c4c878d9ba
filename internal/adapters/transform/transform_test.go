package transform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/knit/internal/adapters/transform"
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestNone(t *testing.T) {
	out, err := transform.None{}.Transform(context.Background(), domain.NewModuleID("/a.js"), domain.KindJS, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestChain_AppliesInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockTransformer(ctrl)
	second := mocks.NewMockTransformer(ctrl)
	id := domain.NewModuleID("/a.js")

	gomock.InOrder(
		first.EXPECT().Transform(gomock.Any(), id, domain.KindJS, "a").Return("ab", nil),
		second.EXPECT().Transform(gomock.Any(), id, domain.KindJS, "ab").Return("abc", nil),
	)

	out, err := transform.Chain{first, second}.Transform(context.Background(), id, domain.KindJS, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", out)
}

func TestChain_StopsOnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockTransformer(ctrl)
	second := mocks.NewMockTransformer(ctrl)
	boom := errors.New("boom")

	first.EXPECT().Transform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", boom)
	second.EXPECT().Transform(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := transform.Chain{first, second}.Transform(context.Background(), domain.NewModuleID("/a.js"), domain.KindJS, "a")
	require.ErrorIs(t, err, boom)
}

func TestCompose(t *testing.T) {
	ctrl := gomock.NewController(t)
	single := mocks.NewMockTransformer(ctrl)

	assert.Equal(t, transform.None{}, transform.Compose())
	assert.Equal(t, transform.None{}, transform.Compose(nil))
	assert.Same(t, single, transform.Compose(nil, single))
	assert.IsType(t, transform.Chain{}, transform.Compose(single, transform.None{}))
}

func TestEsbuild_StripTypes(t *testing.T) {
	e := transform.NewEsbuild(false, true)

	out, err := e.Transform(context.Background(), domain.NewModuleID("/src/a.ts"), domain.KindJS, "let x: number = 1;\n")
	require.NoError(t, err)
	assert.Equal(t, "let x = 1;\n", out)

	// Plain JavaScript is left alone when only type stripping is enabled.
	src := "let   y = 2\n"
	out, err = e.Transform(context.Background(), domain.NewModuleID("/src/b.js"), domain.KindJS, src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestEsbuild_Minify(t *testing.T) {
	e := transform.NewEsbuild(true, false)

	css, err := e.Transform(context.Background(), domain.NewModuleID("/src/a.css"), domain.KindCSS, "body {\n  color: red;\n}\n")
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}\n", css)

	src := "import \"./dep.js\";\nfunction add(first, second) {\n  return first + second;\n}\nconsole.log(add(1, 2));\n"
	js, err := e.Transform(context.Background(), domain.NewModuleID("/src/a.js"), domain.KindJS, src)
	require.NoError(t, err)
	assert.Less(t, len(js), len(src))
	assert.Contains(t, js, `"./dep.js"`)

	refs := domain.ScanImports(domain.KindJS, js)
	require.Len(t, refs, 1)
	assert.Equal(t, "./dep.js", refs[0].Spec)
}

func TestEsbuild_PassesThroughOtherKinds(t *testing.T) {
	e := transform.NewEsbuild(true, true)

	html := "<p>  hi  </p>\n"
	out, err := e.Transform(context.Background(), domain.NewModuleID("/src/a.html"), domain.KindHTML, html)
	require.NoError(t, err)
	assert.Equal(t, html, out)
}

func TestEsbuild_SyntaxError(t *testing.T) {
	e := transform.NewEsbuild(true, false)

	_, err := e.Transform(context.Background(), domain.NewModuleID("/src/bad.js"), domain.KindJS, "let = ;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "esbuild transform failed")
}
