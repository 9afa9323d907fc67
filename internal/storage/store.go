// Package storage is the file collaborator behind message attachments:
// upload a blob, get back a public URL. Backed by a local directory and
// served straight over HTTP.
package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize caps attachments before any bytes are written.
const MaxUploadSize = 10 << 20 // 10 MB

var ErrTooLarge = errors.New("attachment exceeds the 10MB limit")

type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save writes the blob under a collision-free name and returns its public
// URL. The reader is trusted to already be size-capped by the handler.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	safe := sanitize(name)
	stored := uuid.NewString() + "_" + safe

	f, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return "", err
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if n > MaxUploadSize {
		os.Remove(f.Name())
		return "", ErrTooLarge
	}

	return s.baseURL + "/" + stored, nil
}

// Handler serves stored blobs at the base URL.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(s.baseURL+"/", http.FileServer(http.Dir(s.dir)))
}

// sanitize strips any path components and characters that do not belong in
// a stored filename.
func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
