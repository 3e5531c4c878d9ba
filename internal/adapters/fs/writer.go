package fs

import (
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactWriter = (*Writer)(nil)

// Writer writes artifacts atomically: data goes to a temporary file in the
// target directory which is then renamed over the target.
type Writer struct{}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteFile writes data to path, creating parent directories as needed.
func (w *Writer) WriteFile(path string, data []byte) error {
	tmpName, err := stage(path, data)
	if err != nil {
		return err
	}
	return commit(tmpName, path)
}

// WriteFiles stages every artifact in a temporary file before renaming any of
// them. A staging failure leaves the targets untouched. A rename failure
// removes the targets already renamed by this call.
func (w *Writer) WriteFiles(files []domain.Artifact) error {
	staged := make([]string, 0, len(files))
	discard := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := stage(f.Path, f.Data)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, f := range files {
		if err := commit(staged[i], f.Path); err != nil {
			var errs []error
			for _, done := range files[:i] {
				if rmErr := os.Remove(done.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
					errs = append(errs, rmErr)
				}
			}
			staged = staged[i+1:]
			discard()
			return errors.Join(append([]error{err}, errs...)...)
		}
	}
	return nil
}

// stage writes data to a temporary file beside path and returns its name.
func stage(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // Artifacts are meant to be world-readable
		_ = os.Remove(tmpName)
		return "", zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
	}
	return tmpName, nil
}

func commit(tmpName, path string) error {
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "path", path)
	}
	return nil
}
