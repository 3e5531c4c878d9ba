package fs

import (
	"os"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceReader = (*Reader)(nil)

// Reader reads module sources from disk.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read returns the content of the module file.
func (r *Reader) Read(id domain.ModuleID) (string, error) {
	data, err := os.ReadFile(id.String())
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrReadFailed.Error()), "path", id.String())
	}
	return string(data), nil
}
