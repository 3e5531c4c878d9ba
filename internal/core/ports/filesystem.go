package ports

import "go.trai.ch/knit/internal/core/domain"

// SourceReader reads module sources.
//
//go:generate go run go.uber.org/mock/mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type SourceReader interface {
	Read(id domain.ModuleID) (string, error)
}

// ArtifactWriter writes build artifacts. A failed write must not leave a
// partial file behind.
type ArtifactWriter interface {
	WriteFile(path string, data []byte) error
	// WriteFiles writes a set of artifacts. Either every artifact is written
	// or none of the targets is left behind.
	WriteFiles(files []domain.Artifact) error
}
