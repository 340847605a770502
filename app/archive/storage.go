package archive

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Storage keeps archived bookmark thumbnails on the local filesystem, one
// file per bookmark, named by bookmark id plus the source extension.
type Storage struct {
	dir string
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Store writes data under a name derived from the bookmark id and returns
// the relative archived path.
func (s *Storage) Store(bookmarkID, sourceURL string, data []byte) (string, error) {
	name := bookmarkID + extensionFor(sourceURL)

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archived thumbnail: %w", err)
	}

	return name, nil
}

// Remove deletes an archived file. A missing file is not an error; the
// desired state is already reached.
func (s *Storage) Remove(archivedPath string) error {
	// Paths come back from the database; keep them inside the archive dir
	name := filepath.Base(archivedPath)

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove archived thumbnail: %w", err)
	}
	return nil
}

func extensionFor(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return ".img"
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif":
		return ext
	default:
		return ".img"
	}
}
