package photostore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/topsell/tams/core/asset"
)

// LocalStore writes photos under a directory served by the API at PublicBaseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ asset.PhotoStore = (*LocalStore)(nil)

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: baseURL}
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(_ context.Context, objectPath, _ string, data []byte) error {
	fp := filepath.Join(s.dir, filepath.FromSlash(filepath.Clean("/"+objectPath)))
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return errors.Wrap(err, "creating photo dir")
	}
	if err := os.WriteFile(fp, data, 0o644); err != nil {
		return errors.Wrap(err, "writing photo")
	}
	return nil
}

func (s *LocalStore) URL(objectPath string) string {
	return publicURL(s.baseURL, objectPath)
}
