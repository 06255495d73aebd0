package uploads

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxPhotoSize = 5 << 20 // 5 MB

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Store saves uploaded photos under a single directory and hands back
// relative paths ("uploads/<name>") for storage on the record.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// SavePhoto reads the named multipart field and writes it to disk.
// Returns "" with no error when the field is absent, so photos stay
// optional.
func (s *Store) SavePhoto(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	if header.Size > maxPhotoSize {
		return "", fmt.Errorf("photo exceeds %d bytes", maxPhotoSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported photo type %q", ext)
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}

	// Forward slashes regardless of platform; the path is served as a URL.
	return filepath.ToSlash(filepath.Join(filepath.Base(s.Dir), name)), nil
}

// Delete removes a stored photo. Best effort; a missing file is fine.
func (s *Store) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	name := filepath.Base(relPath)
	err := os.Remove(filepath.Join(s.Dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
