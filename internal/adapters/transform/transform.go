// Package transform provides the content transformers applied to modules
// before they are cached.
package transform

import (
	"context"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
)

// None leaves content unchanged.
type None struct{}

// Transform returns content as is.
func (None) Transform(_ context.Context, _ domain.ModuleID, _ domain.FileKind, content string) (string, error) {
	return content, nil
}

// Chain applies each transformer in order, feeding the output of one into the next.
// The first error stops the chain.
type Chain []ports.Transformer

// Transform runs the chain.
func (c Chain) Transform(ctx context.Context, id domain.ModuleID, kind domain.FileKind, content string) (string, error) {
	for _, t := range c {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := t.Transform(ctx, id, kind, content)
		if err != nil {
			return "", err
		}
		content = out
	}
	return content, nil
}

// Compose returns the simplest transformer for ts: None when empty, the single
// transformer when there is one, and a Chain otherwise. Nil entries are skipped.
func Compose(ts ...ports.Transformer) ports.Transformer {
	var chain Chain
	for _, t := range ts {
		if t != nil {
			chain = append(chain, t)
		}
	}
	switch len(chain) {
	case 0:
		return None{}
	case 1:
		return chain[0]
	default:
		return chain
	}
}
