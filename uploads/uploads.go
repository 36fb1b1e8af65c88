// Package uploads validates and persists uploaded profile images.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxFileSize is the largest accepted upload, 5 MiB.
const MaxFileSize = 5 << 20

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

var (
	ErrNoFile      = errors.New("uploads: no file")
	ErrInvalidType = errors.New("uploads: content type not allowed")
	ErrTooLarge    = errors.New("uploads: file too large")
)

// Validate checks the declared content type and size of an upload.
func Validate(contentType string, size int64) error {
	if _, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]; !ok {
		return ErrInvalidType
	}
	if size > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

type Saved struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Store writes files into a single directory that is served at URLPrefix.
type Store struct {
	dir       string
	urlPrefix string
	newName   func() string
}

func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		newName:   func() string { return uuid.New().String() },
	}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) URLPrefix() string { return s.urlPrefix }

// Save validates and writes r under a freshly generated name that keeps the
// extension of originalName.
func (s *Store) Save(r io.Reader, originalName, contentType string, size int64) (Saved, error) {
	if err := Validate(contentType, size); err != nil {
		return Saved{}, err
	}

	// Lowercased extension; a name without a dot gets none.
	name := s.newName() + strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	dst := filepath.Join(s.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Saved{}, fmt.Errorf("create %s: %w", name, err)
	}
	written, err := io.Copy(f, io.LimitReader(r, MaxFileSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && written > MaxFileSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		return Saved{}, fmt.Errorf("write %s: %w", name, err)
	}

	return Saved{Filename: name, URL: path.Join(s.urlPrefix, name)}, nil
}

// Remove deletes the file a public reference points to. Only the last path
// element of ref is used, so a reference can never escape the directory.
func (s *Store) Remove(ref string) error {
	name := path.Base(strings.TrimSpace(ref))
	if name == "" || name == "." || name == "/" || name == ".." {
		return fmt.Errorf("remove upload: invalid reference %q", ref)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
