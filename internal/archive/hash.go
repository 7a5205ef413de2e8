// Package archive holds integrity checks and safe extraction for the archives the
// install pipeline handles: jars, zips, modpacks and JDK tarballs.
package archive

import (
	"crypto/sha1" // #nosec G505 -- sha1 is the integrity format of every vendor manifest.
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

func Sha1Bytes(data []byte) string {
	sum := sha1.Sum(data) // #nosec G401
	return hex.EncodeToString(sum[:])
}

func Sha256Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func Sha1File(fs afero.Fs, path string) (string, error) {
	return hashFile(fs, path, sha1.New())
}

func Sha256File(fs afero.Fs, path string) (string, error) {
	return hashFile(fs, path, sha256.New())
}

func hashFile(fs afero.Fs, path string, digest hash.Hash) (string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(digest, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Matches reports whether path exists and agrees with the declared sha1 and size. An empty
// sha1 or a non-positive size skips that check.
func Matches(fs afero.Fs, path string, sha1sum string, size int64) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if size > 0 && info.Size() != size {
		return false, nil
	}
	if sha1sum == "" {
		return true, nil
	}
	actual, err := Sha1File(fs, path)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, sha1sum), nil
}
