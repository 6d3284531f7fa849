package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/gfdmit/web-forum/feed-service/config"
	"github.com/gfdmit/web-forum/feed-service/internal/storage"
)

type localStorage struct {
	root string
	dir  string
}

// New prepares <root>/<dir> on disk and returns a file store rooted at root.
func New(conf config.Media) (*localStorage, error) {
	root, err := filepath.Abs(conf.Root)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, conf.Dir), 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %v", err)
	}
	log.Println("[STORAGE] storing images in", filepath.Join(root, conf.Dir))

	return &localStorage{root: root, dir: conf.Dir}, nil
}

func (ls *localStorage) Save(ctx context.Context, originalName, contentType string, r io.Reader, size int64) (string, error) {
	ref := storage.NewRef(ls.dir, originalName)

	f, err := os.OpenFile(ls.resolve(ref), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("os.OpenFile: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(ls.resolve(ref))
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(ls.resolve(ref))
		return "", fmt.Errorf("f.Close: %w", err)
	}
	return ref, nil
}

func (ls *localStorage) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	cleaned, err := storage.CleanRef(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(ls.resolve(cleaned)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
		}
		return fmt.Errorf("os.Remove: %w", err)
	}
	return nil
}

func (ls *localStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	cleaned, err := storage.CleanRef(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(ls.resolve(cleaned))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", storage.ErrNotFound, err)
		}
		return nil, fmt.Errorf("os.Open: %w", err)
	}
	return f, nil
}

func (ls *localStorage) resolve(ref string) string {
	return filepath.Join(ls.root, filepath.FromSlash(ref))
}
