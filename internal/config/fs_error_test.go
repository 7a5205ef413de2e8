package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// statErrorFs fails Stat for one path and leaves the rest of the tree readable.
type statErrorFs struct {
	afero.Fs
	failPath string
	err      error
}

func (fs statErrorFs) Stat(name string) (os.FileInfo, error) {
	if filepath.Clean(name) != filepath.Clean(fs.failPath) {
		return fs.Fs.Stat(name)
	}
	if fs.err == nil {
		return nil, errors.New("stat failed")
	}
	return nil, fs.err
}

var errDiskFull = errors.New("no space left on device")

// fullDiskFs accepts writes but fails to flush them, the way a full data drive does.
type fullDiskFs struct {
	afero.Fs
}

func (fs fullDiskFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := fs.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return unflushableFile{File: file}, nil
}

type unflushableFile struct {
	afero.File
}

func (unflushableFile) Sync() error {
	return errDiskFull
}
