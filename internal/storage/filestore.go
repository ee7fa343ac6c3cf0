package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps uploaded artifacts in a single directory. The upload
// path only ever appends and the reaper only ever removes, so a
// timestamp prefix is enough to keep stored names unique.
type FileStore struct {
	dir string
}

// NewFileStore creates the upload directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the uploaded content under a unique name derived from the
// original filename and returns the stored name.
func (s *FileStore) Save(name string, src io.Reader, now time.Time) (string, error) {
	stored := fmt.Sprintf("%d_%s", now.Unix(), sanitize(name))

	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// Don't leave a torn file behind.
		os.Remove(dst.Name())
		return "", err
	}
	return stored, nil
}

// Open opens a stored artifact for reading.
func (s *FileStore) Open(name string) (*os.File, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(name)))
}

// Remove deletes a stored artifact. An already-absent artifact is not
// an error: the entry it backed is going away either way.
func (s *FileStore) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// sanitize strips any path components from an uploaded filename and
// replaces characters that are awkward in URLs or shells.
func sanitize(name string) string {
	name = filepath.Base(name)
	// Base maps "" to ".", bare separators to "/", and keeps ".." as-is;
	// none of those is a usable filename.
	if name == "." || name == ".." || name == string(filepath.Separator) {
		name = ""
	}
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		case c == '.' || c == '-' || c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "file"
	}
	return string(out)
}
