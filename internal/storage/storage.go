// Package storage is the file store for post images. References are slash separated
// paths relative to the storage root, e.g. "images/<uuid>-photo.png".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidPath = errors.New("invalid file reference")
)

type FileStore interface {
	Save(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error)
	// Delete removes the file behind ref. An empty ref is a no-op.
	Delete(ctx context.Context, ref string) error
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// NewRef builds a fresh reference "<dir>/<uuid>-<base name>" for an upload.
func NewRef(dir, originalName string) string {
	name := path.Base(strings.ReplaceAll(originalName, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		name = "upload"
	}
	return path.Join(dir, fmt.Sprintf("%s-%s", uuid.New().String(), name))
}

// CleanRef normalizes ref and rejects references that are empty, absolute or escape the root.
func CleanRef(ref string) (string, error) {
	cleaned := path.Clean(filepath.ToSlash(ref))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) || filepath.IsAbs(ref) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, ref)
	}
	return cleaned, nil
}

// InDir reports whether the cleaned ref lives under dir.
func InDir(ref, dir string) bool {
	return strings.HasPrefix(ref, strings.Trim(dir, "/")+"/")
}
