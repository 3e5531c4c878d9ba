package transform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/zerr"
)

// Esbuild minifies JavaScript and CSS and strips TypeScript annotations using esbuild.
// Other kinds pass through untouched.
type Esbuild struct {
	minify     bool
	stripTypes bool
}

// NewEsbuild creates an Esbuild transformer.
func NewEsbuild(minify, stripTypes bool) *Esbuild {
	return &Esbuild{minify: minify, stripTypes: stripTypes}
}

// Transform runs esbuild's transform API over one module.
func (e *Esbuild) Transform(ctx context.Context, id domain.ModuleID, kind domain.FileKind, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	loader, typed := loaderFor(id.String(), kind)
	if loader == api.LoaderNone {
		return content, nil
	}
	if !e.minify && !(e.stripTypes && typed) {
		return content, nil
	}

	opts := api.TransformOptions{
		Loader:     loader,
		Sourcefile: id.String(),
		LogLevel:   api.LogLevelSilent,
	}
	if e.minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	result := api.Transform(content, opts)
	if len(result.Errors) > 0 {
		var msg strings.Builder
		for i, m := range result.Errors {
			if i > 0 {
				msg.WriteString("; ")
			}
			if m.Location != nil {
				fmt.Fprintf(&msg, "%d:%d: ", m.Location.Line, m.Location.Column)
			}
			msg.WriteString(m.Text)
		}
		err := zerr.Wrap(zerr.New(msg.String()), "esbuild transform failed")
		return "", zerr.With(err, "loader", string(kind))
	}
	return string(result.Code), nil
}

// loaderFor picks the esbuild loader for a module and reports whether it carries type annotations.
func loaderFor(path string, kind domain.FileKind) (api.Loader, bool) {
	switch kind {
	case domain.KindCSS:
		return api.LoaderCSS, false
	case domain.KindJS:
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ts", ".mts", ".cts":
			return api.LoaderTS, true
		case ".tsx":
			return api.LoaderTSX, true
		case ".jsx":
			return api.LoaderJSX, false
		default:
			return api.LoaderJS, false
		}
	default:
		return api.LoaderNone, false
	}
}
