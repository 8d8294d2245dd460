package images

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

const (
	booksSubdir = "books"
	// PublicPrefix is the URL path under which stored book images are served.
	PublicPrefix = "/uploads/" + booksSubdir + "/"
)

// Storage keeps uploaded book images under {root}/books.
// Thread-safe: file names are unique per upload.
type Storage struct {
	root string
	dir  string
	now  func() time.Time
}

// NewStorage creates the books directory below root if needed.
func NewStorage(root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("upload root cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}

	dir := filepath.Join(abs, booksSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", booksSubdir, err)
	}

	return &Storage{root: abs, dir: dir, now: time.Now}, nil
}

// Root returns the upload root, which is served at /uploads.
func (s *Storage) Root() string {
	return s.root
}

// Save writes data as {unixmillis}-{uuid}{ext} and returns the public reference
// and the file path.
func (s *Storage) Save(data []byte, ext string) (ref, path string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("image data cannot be empty")
	}

	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + uuid.NewString() + ext
	path = filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil { //#nosec G306 -- served publicly
		return "", "", fmt.Errorf("failed to write image file: %w", err)
	}

	return PublicPrefix + name, path, nil
}

// Resolve maps a public reference to a file inside the books directory.
// It reports false for external URIs, foreign paths, and anything that would
// leave the directory.
func (s *Storage) Resolve(ref string) (string, bool) {
	if ref == "" || domain.IsExternalRef(ref) {
		return "", false
	}

	name, ok := strings.CutPrefix(ref, PublicPrefix)
	if !ok || name == "" || name == "." || name == ".." {
		return "", false
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", false
	}

	path := filepath.Join(s.dir, name)
	if rel, err := filepath.Rel(s.dir, path); err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return path, true
}

// Delete removes the file behind ref. References that do not resolve and
// files that are already gone are not errors.
func (s *Storage) Delete(ref string) error {
	path, ok := s.Resolve(ref)
	if !ok {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

// Exists reports whether ref resolves to a stored file.
func (s *Storage) Exists(ref string) bool {
	path, ok := s.Resolve(ref)
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
