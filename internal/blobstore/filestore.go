package blobstore

import (
	"context"
	"contract-signing/internal/model"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const tempPrefix = ".tmp-"

// FileStore keeps every area in its own directory.
type FileStore struct {
	dirs map[model.Area]string
}

func NewFileStore(uploadsDir, storageDir string) (*FileStore, error) {
	dirs := map[model.Area]string{
		model.AreaUploads: uploadsDir,
		model.AreaStorage: storageDir,
	}
	for area, dir := range dirs {
		//nolint:gosec // documents are served read-only by the same process
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to ensure %s dir: %w", area, err)
		}
	}
	return &FileStore{dirs: dirs}, nil
}

func (s *FileStore) path(ref model.FileRef) (string, error) {
	if err := validateRef(ref); err != nil {
		return "", err
	}
	return filepath.Join(s.dirs[ref.Area], ref.Name), nil
}

// Put writes to a temp file and then hard links it into place, so a reader
// never sees a partial blob and an existing name is never replaced.
func (s *FileStore) Put(ctx context.Context, ref model.FileRef, data []byte) error {
	target, err := s.path(ref)
	if err != nil {
		return err
	}

	tmpPath := filepath.Join(s.dirs[ref.Area], tempPrefix+uuid.NewString())
	//nolint:gosec // G306: documents are readable by design of the static routes
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	defer os.Remove(tmpPath) //nolint:errcheck // best effort

	if err := os.Link(tmpPath, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, ref.Path())
		}
		return fmt.Errorf("failed to commit blob: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, ref model.FileRef) ([]byte, error) {
	p, err := s.path(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, ref.Path())
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *FileStore) Exists(ctx context.Context, ref model.FileRef) (bool, error) {
	p, err := s.path(ref)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if err == nil {
		return info.Mode().IsRegular(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *FileStore) Delete(ctx context.Context, ref model.FileRef) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context, area model.Area) ([]string, error) {
	dir, ok := s.dirs[area]
	if !ok {
		return nil, fmt.Errorf("%w: unknown area %q", ErrBadRef, area)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", area, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Dir is the directory backing area, for static file serving.
func (s *FileStore) Dir(area model.Area) string {
	return s.dirs[area]
}
