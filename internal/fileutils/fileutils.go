package fileutils

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

func FileExists(path string, filesystem ...afero.Fs) bool {
	fs := InitFilesystem(filesystem...)
	exists, _ := afero.Exists(fs, path)
	return exists
}

func InitFilesystem(filesystem ...afero.Fs) afero.Fs {
	if len(filesystem) > 0 && filesystem[0] != nil {
		return filesystem[0]
	}

	return afero.NewOsFs()
}

// DirCache memoizes directories already created for the lifetime of the cache. It never
// invalidates, so a directory removed behind its back is not recreated.
type DirCache struct {
	fs      afero.Fs
	ensured sync.Map
}

func NewDirCache(fs afero.Fs) *DirCache {
	return &DirCache{fs: fs}
}

func (cache *DirCache) Ensure(dir string) error {
	dir = filepath.Clean(dir)
	if _, ok := cache.ensured.Load(dir); ok {
		return nil
	}
	if err := cache.fs.MkdirAll(dir, 0755); err != nil {
		return err
	}
	cache.ensured.Store(dir, struct{}{})
	return nil
}

// EnsureParent creates the directory holding path.
func (cache *DirCache) EnsureParent(path string) error {
	return cache.Ensure(filepath.Dir(path))
}

// CopyFile copies src to dst on fs, creating dst's directory. It returns the number of bytes written.
func CopyFile(fs afero.Fs, src string, dst string) (int64, error) {
	source, err := fs.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = source.Close() }()

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	target, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return 0, err
	}

	n, copyErr := io.Copy(target, source)
	closeErr := target.Close()
	if copyErr != nil {
		return n, copyErr
	}
	return n, closeErr
}

// CopyTree copies every regular file under src into dst preserving relative paths.
func CopyTree(fs afero.Fs, src string, dst string) error {
	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0755)
		}
		_, copyErr := CopyFile(fs, path, target)
		return copyErr
	})
}
