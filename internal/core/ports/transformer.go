package ports

import (
	"context"

	"go.trai.ch/knit/internal/core/domain"
)

// Transformer rewrites module content before imports are scanned and the
// result is cached.
//
//go:generate go run go.uber.org/mock/mockgen -source=transformer.go -destination=mocks/mock_transformer.go -package=mocks
type Transformer interface {
	Transform(ctx context.Context, id domain.ModuleID, kind domain.FileKind, content string) (string, error)
}
