package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const siblingSlots = 100

// replacement moves a fully written sibling over target. Instance manifests, settings and
// servers.dat are read by other mml runs while an install is writing them, so a reader
// sees either the old bytes or the new ones.
type replacement struct {
	fs     afero.Fs
	target string
	temp   string
	backup string
}

// WriteFileAtomic creates the parent directory when needed, stages data next to targetPath
// and swaps it into place.
func WriteFileAtomic(fs afero.Fs, targetPath string, data []byte, perm os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return err
	}
	job, err := newReplacement(fs, targetPath)
	if err != nil {
		return err
	}
	if err := job.stage(data, perm); err != nil {
		return err
	}

	exists, err := afero.Exists(fs, targetPath)
	switch {
	case err != nil:
		return job.abandon(err)
	case !exists:
		if err := fs.Rename(job.temp, job.target); err != nil {
			return job.abandon(err)
		}
		return nil
	default:
		return job.swap()
	}
}

func newReplacement(fs afero.Fs, target string) (*replacement, error) {
	temp, err := nextSiblingPath(fs, target, ".tmp")
	if err != nil {
		return nil, err
	}
	backup, err := nextSiblingPath(fs, target, ".bak")
	if err != nil {
		return nil, err
	}
	return &replacement{fs: fs, target: target, temp: temp, backup: backup}, nil
}

// nextSiblingPath returns the first free <target>.mml<suffix>[.N].
func nextSiblingPath(fs afero.Fs, targetPath string, suffix string) (string, error) {
	base := targetPath + ".mml" + suffix
	for slot := 0; slot < siblingSlots; slot++ {
		candidate := base
		if slot > 0 {
			candidate = fmt.Sprintf("%s.%d", base, slot)
		}
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free sibling for %s after %d attempts", base, siblingSlots)
}

// stage writes and syncs the temp file.
func (job *replacement) stage(data []byte, perm os.FileMode) error {
	if err := removeIfPresent(job.fs, job.temp); err != nil {
		return removeError("temp file", job.temp, err)
	}
	file, err := job.fs.OpenFile(job.temp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	_, writeErr := file.Write(data)
	if writeErr == nil {
		writeErr = file.Sync()
	}
	if closeErr := file.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return job.abandon(writeErr)
	}
	return nil
}

// swap replaces an existing target. A direct rename is tried first; filesystems that refuse
// to rename over a file get the target parked as the backup for the duration of the move.
func (job *replacement) swap() error {
	if err := job.fs.Rename(job.temp, job.target); err == nil {
		return nil
	}
	if err := job.fs.Rename(job.target, job.backup); err != nil {
		return job.abandon(err)
	}
	if err := job.fs.Rename(job.temp, job.target); err != nil {
		return job.restore(err)
	}
	if err := removeIfPresent(job.fs, job.backup); err != nil {
		return removeError("backup file", job.backup, err)
	}
	return nil
}

// abandon drops the temp file and reports cause together with any cleanup failure.
func (job *replacement) abandon(cause error) error {
	if err := removeIfPresent(job.fs, job.temp); err != nil {
		return errors.Join(cause, removeError("temp file", job.temp, err))
	}
	return cause
}

// restore puts the parked backup back after a failed swap.
func (job *replacement) restore(cause error) error {
	cause = job.abandon(cause)
	if err := job.fs.Rename(job.backup, job.target); err != nil {
		cause = errors.Join(cause, fmt.Errorf("failed to restore backup %s: %w", job.backup, err))
	}
	return cause
}

func removeIfPresent(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func removeError(kind string, path string, err error) error {
	return fmt.Errorf("failed to remove %s %s: %w", kind, path, err)
}
