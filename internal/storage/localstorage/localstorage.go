// Package localstorage provides the filesystem side of the batch: listing the
// input folder, reading sources and writing results under an output root.
package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

type FileSystem struct {
	root string
}

// New returns a FileSystem that writes keys relative to root.
func New(root string) *FileSystem {
	return &FileSystem{root: root}
}

// List returns the regular files directly inside dir, sorted by name.
func (f *FileSystem) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	return files, nil
}

func (f *FileSystem) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (f *FileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// EnsureDir creates root/dir if it is absent.
func (f *FileSystem) EnsureDir(_ context.Context, dir string) error {
	return os.MkdirAll(filepath.Join(f.root, dir), 0o755)
}

// Put writes r to root/key through a temp file so readers never see a partial image.
func (f *FileSystem) Put(ctx context.Context, key string, size int64, _ string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dst := filepath.Join(f.root, key)
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	n, err := io.Copy(tmp, r)
	if cErr := tmp.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return err
	}
	if size >= 0 && n != size {
		return fmt.Errorf("short write for %q: %d of %d bytes", key, n, size)
	}

	return os.Rename(tmp.Name(), dst)
}
