package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	domrepo "MandiPulse/internal/domain/repository"
)

func checkArtifactName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}

// FileModelStore keeps artifacts as files in one directory.
type FileModelStore struct {
	dir string
}

var _ domrepo.ModelStore = (*FileModelStore)(nil)

func NewFileModelStore(dir string) *FileModelStore {
	return &FileModelStore{dir: dir}
}

func (s *FileModelStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := checkArtifactName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domrepo.ErrModelNotFound, filepath.Join(s.dir, name))
		}
		return nil, err
	}
	return f, nil
}

// Save writes through a temp file and renames it into place, so readers
// never see a partial artifact.
func (s *FileModelStore) Save(ctx context.Context, name string, r io.Reader) error {
	if err := checkArtifactName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}
