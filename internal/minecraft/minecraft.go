// Package minecraft reads the vendor version list that maps game version ids to their manifests.
package minecraft

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/perf"
	"go.opentelemetry.io/otel/attribute"
)

var versionManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

var newRequestWithContext = http.NewRequestWithContext

var (
	manifestMu     sync.Mutex
	latestManifest *VersionList
)

type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// Entry points at the full manifest of one game version.
type Entry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Sha1        string    `json:"sha1,omitempty"`
	Time        time.Time `json:"time"`
	ReleaseTime time.Time `json:"releaseTime"`
}

type VersionList struct {
	Latest   Latest  `json:"latest"`
	Versions []Entry `json:"versions"`
}

// ClearManifestCache forgets the process-wide copy of the version list.
func ClearManifestCache() {
	manifestMu.Lock()
	defer manifestMu.Unlock()
	latestManifest = nil
}

func getMinecraftVersionManifest(ctx context.Context, client httpclient.Doer) (manifest *VersionList, returnErr error) {
	manifestMu.Lock()
	defer manifestMu.Unlock()
	if latestManifest != nil {
		return latestManifest, nil
	}

	ctx, span := perf.StartSpan(ctx, "minecraft.version_list", perf.WithAttributes(attribute.String("url", versionManifestURL)))
	defer span.End()

	request, err := newRequestWithContext(ctx, http.MethodGet, versionManifestURL, nil)
	if err != nil {
		return nil, err
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, httpclient.WrapTimeoutError(err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			manifest = nil
			latestManifest = nil
			returnErr = errors.Join(returnErr, closeErr)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, &VersionListStatusError{StatusCode: response.StatusCode}
	}

	var decoded VersionList
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	latestManifest = &decoded
	return latestManifest, nil
}

// FetchVersionList returns the cached version list, fetching it on first use.
func FetchVersionList(ctx context.Context, client httpclient.Doer) (*VersionList, error) {
	return getMinecraftVersionManifest(ctx, client)
}

func GetLatestVersion(ctx context.Context, client httpclient.Doer) (string, error) {
	manifest, err := getMinecraftVersionManifest(ctx, client)
	if err != nil {
		var timeoutErr *httpclient.TimeoutError
		if errors.As(err, &timeoutErr) {
			return "", err
		}
		return "", errors.Join(ErrNoLatestRelease, err)
	}
	if manifest.Latest.Release == "" {
		return "", ErrNoLatestRelease
	}

	return manifest.Latest.Release, nil
}

// Lookup finds the entry for id. The id "latest" resolves to the latest release.
func Lookup(ctx context.Context, client httpclient.Doer, id string) (Entry, error) {
	manifest, err := getMinecraftVersionManifest(ctx, client)
	if err != nil {
		return Entry{}, err
	}
	if id == "latest" {
		id = manifest.Latest.Release
	}
	for _, entry := range manifest.Versions {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, &UnknownVersionError{ID: id}
}

// IsValidVersion is lenient: when the list cannot be fetched every non-empty id is accepted.
func IsValidVersion(ctx context.Context, version string, client httpclient.Doer) bool {
	if version == "" {
		return false
	}
	manifest, err := getMinecraftVersionManifest(ctx, client)
	if err != nil {
		return true
	}

	for _, v := range manifest.Versions {
		if v.ID == version {
			return true
		}
	}

	return false
}

func GetAllMineCraftVersions(ctx context.Context, client httpclient.Doer) []string {
	versions := make([]string, 0)
	manifest, err := getMinecraftVersionManifest(ctx, client)
	if err != nil {
		return versions
	}

	for _, v := range manifest.Versions {
		versions = append(versions, v.ID)
	}

	return versions
}
