package version

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

const (
	DefaultAuthlibBackend = "https://authlib-injector.yushi.moe/artifact/latest.json"
	authlibKey            = "moe.yushi:authlibinjector"
)

// AuthlibArtifact is the release metadata an authlib-injector artifact server publishes.
type AuthlibArtifact struct {
	Version     string
	DownloadURL string
	Sha256      string
}

func (a AuthlibArtifact) Coordinate() Coordinate {
	return Coordinate{Group: "moe.yushi", Artifact: "authlibinjector", Version: a.Version, Extension: "jar"}
}

func (a AuthlibArtifact) Library() Library {
	coordinate := a.Coordinate()
	return Library{
		Name: coordinate.String(),
		Downloads: &LibraryDownloads{Artifact: &Artifact{
			Path: coordinate.Path(),
			URL:  a.DownloadURL,
		}},
	}
}

func FetchAuthlib(ctx context.Context, client httpclient.Doer, backend string) (AuthlibArtifact, error) {
	if backend == "" {
		backend = DefaultAuthlibBackend
	}
	body, err := getBody(ctx, client, backend)
	if err != nil {
		return AuthlibArtifact{}, errors.Wrap(err, "authlib artifact")
	}
	artifact := AuthlibArtifact{
		Version:     gjson.GetBytes(body, "version").String(),
		DownloadURL: gjson.GetBytes(body, "download_url").String(),
		Sha256:      gjson.GetBytes(body, "checksums.sha256").String(),
	}
	if artifact.Version == "" || artifact.DownloadURL == "" {
		return AuthlibArtifact{}, newError(Malformed, "authlib.fetch", fmt.Errorf("incomplete artifact metadata from %s", backend))
	}
	return artifact, nil
}

// authlibJar is the injected agent jar named in the manifest, if any.
func authlibJar(manifest *Manifest, librariesDir string) string {
	for _, library := range manifest.Libraries {
		if libraryKey(library) != authlibKey {
			continue
		}
		coordinate, err := ParseCoordinate(library.Name)
		if err != nil {
			continue
		}
		return filepath.Join(librariesDir, filepath.FromSlash(coordinate.Path()))
	}
	return ""
}

func verifyAuthlib(fs afero.Fs, path string, sha256 string) error {
	if sha256 == "" {
		return nil
	}
	actual, err := archive.Sha256File(fs, path)
	if err != nil {
		return err
	}
	if actual != sha256 {
		_ = fs.Remove(path)
		return newError(Malformed, "authlib.verify", fmt.Errorf("sha256 of %s is %s, expected %s", path, actual, sha256))
	}
	return nil
}
