package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images below a directory served at MediaURL
type LocalStore struct {
	dir      string
	mediaURL string
}

func NewLocalStore(dir, mediaURL string) *LocalStore {
	return &LocalStore{dir: dir, mediaURL: strings.TrimSuffix(mediaURL, "/")}
}

// Dir returns the root directory, used to serve media in development
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(_ context.Context, prefix string, img *Image) (string, error) {
	key := objectKey(prefix, img)
	path := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return s.mediaURL + "/" + key, nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.mediaURL+"/")
	if !ok || strings.Contains(key, "..") {
		return fmt.Errorf("%s is not managed by this store", url)
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
