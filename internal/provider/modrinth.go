package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/meza/minecraft-launcher/internal/environment"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

var ModrinthBase = "https://api.modrinth.com"

type modrinthClient struct {
	client httpclient.Doer
}

func (c *modrinthClient) Do(request *http.Request) (*http.Response, error) {
	ctx, span := perf.StartSpan(request.Context(), "api.modrinth.http.request", perf.WithAttributes(attribute.String("url", request.URL.String())))
	defer span.End()
	request.Header.Set("User-Agent", fmt.Sprintf("github_com/meza/minecraft-launcher/%s", environment.AppVersion()))
	request.Header.Set("Accept", "application/json")
	if key := environment.ModrinthAPIKey(); key != "" {
		request.Header.Set("Authorization", key)
	}
	return c.client.Do(request.WithContext(ctx))
}

type modrinthProject struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Type  string `json:"project_type"`
}

type modrinthFile struct {
	FileName string `json:"filename"`
	URL      string `json:"url"`
	Primary  bool   `json:"primary"`
	Size     int64  `json:"size"`
	Hashes   struct {
		Sha1 string `json:"sha1"`
	} `json:"hashes"`
}

type modrinthVersion struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	VersionNumber string         `json:"version_number"`
	Type          ReleaseType    `json:"version_type"`
	DatePublished time.Time      `json:"date_published"`
	GameVersions  []string       `json:"game_versions"`
	Files         []modrinthFile `json:"files"`
}

// primaryFile is the file flagged primary, or the first one.
func (v modrinthVersion) primaryFile() (modrinthFile, bool) {
	for _, file := range v.Files {
		if file.Primary {
			return file, true
		}
	}
	if len(v.Files) == 0 {
		return modrinthFile{}, false
	}
	return v.Files[0], true
}

// modrinthLoaders maps a project kind to the loader facet Modrinth files it under.
func modrinthLoaders(kind models.ProjectKind, loader models.Loader) []string {
	switch kind {
	case models.KindMod:
		if loader == "" || loader == models.VANILLA {
			return nil
		}
		return []string{loader.String()}
	case models.KindResourcePack:
		return []string{"minecraft"}
	case models.KindDatapack:
		return []string{"datapack"}
	default:
		return nil
	}
}

func fetchJSON(ctx context.Context, client httpclient.Doer, provider models.Platform, target string, projectID string, result any) (returnErr error) {
	ctx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()
	request, err := newRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	response, err := client.Do(request)
	if err != nil {
		if httpclient.IsTimeoutError(err) {
			return httpclient.WrapTimeoutError(err)
		}
		return apiError(err, projectID, provider)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil && returnErr == nil {
			returnErr = closeErr
		}
	}()

	if response.StatusCode == http.StatusNotFound {
		return &ProjectNotFoundError{ProjectID: projectID, Provider: provider}
	}
	if response.StatusCode != http.StatusOK {
		return apiError(errors.Errorf("unexpected status code: %d", response.StatusCode), projectID, provider)
	}
	if err := json.NewDecoder(response.Body).Decode(result); err != nil {
		return apiError(errors.Wrap(err, "decode response"), projectID, provider)
	}
	return nil
}

func modrinthVersions(ctx context.Context, client httpclient.Doer, request Request, gameVersion string) ([]modrinthVersion, error) {
	ctx, span := perf.StartSpan(ctx, "api.modrinth.version.list", perf.WithAttributes(
		attribute.String("project_id", request.ProjectID),
		attribute.String("game_version", gameVersion),
	))
	defer span.End()

	target, _ := url.Parse(fmt.Sprintf("%s/v2/project/%s/version", ModrinthBase, url.PathEscape(request.ProjectID)))
	query := url.Values{}
	gameVersions, _ := json.Marshal([]string{gameVersion})
	query.Set("game_versions", string(gameVersions))
	if loaders := modrinthLoaders(request.kind(), request.Loader); loaders != nil {
		encoded, _ := json.Marshal(loaders)
		query.Set("loaders", string(encoded))
	}
	target.RawQuery = query.Encode()

	var versions []modrinthVersion
	if err := fetchJSON(ctx, client, models.MODRINTH, target.String(), request.ProjectID, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

func resolveModrinth(ctx context.Context, request Request, doer httpclient.Doer) (models.ProjectReference, error) {
	client := &modrinthClient{client: doer}

	var project modrinthProject
	if err := fetchJSON(ctx, client, models.MODRINTH, fmt.Sprintf("%s/v2/project/%s", ModrinthBase, url.PathEscape(request.ProjectID)), request.ProjectID, &project); err != nil {
		return models.ProjectReference{}, err
	}

	for _, gameVersion := range candidateVersions(request) {
		versions, err := modrinthVersions(ctx, client, request, gameVersion)
		if err != nil {
			return models.ProjectReference{}, err
		}
		candidates := filterModrinthVersions(versions, request, gameVersion)
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].DatePublished.After(candidates[j].DatePublished)
		})
		selected := candidates[0]
		file, ok := selected.primaryFile()
		if !ok || file.URL == "" || file.Hashes.Sha1 == "" {
			break
		}
		return models.ProjectReference{
			Provider:  models.MODRINTH,
			ProjectID: project.ID,
			Name:      project.Title,
			Kind:      request.kind(),
			File: models.ProjectFile{
				ID:          selected.ID,
				FileName:    file.FileName,
				URL:         file.URL,
				Sha1:        file.Hashes.Sha1,
				Size:        file.Size,
				ReleaseDate: formatTime(selected.DatePublished),
			},
		}, nil
	}
	return models.ProjectReference{}, &NoCompatibleFileError{Provider: models.MODRINTH, ProjectID: request.ProjectID, GameVersion: request.GameVersion, Loader: request.Loader}
}

func filterModrinthVersions(versions []modrinthVersion, request Request, gameVersion string) []modrinthVersion {
	filtered := make([]modrinthVersion, 0, len(versions))
	for _, version := range versions {
		if request.FixedVersion != "" {
			if version.VersionNumber == request.FixedVersion {
				filtered = append(filtered, version)
			}
			continue
		}
		if !request.allows(version.Type) || !contains(version.GameVersions, gameVersion) {
			continue
		}
		filtered = append(filtered, version)
	}
	return filtered
}

// LookupModrinthHash finds the Modrinth project a local file was downloaded from. The bool
// is false when Modrinth does not know the hash.
func LookupModrinthHash(ctx context.Context, sha1 string, kind models.ProjectKind, doer httpclient.Doer) (models.ProjectReference, bool, error) {
	ctx, span := perf.StartSpan(ctx, "api.modrinth.version_file.get", perf.WithAttributes(attribute.String("hash", sha1)))
	defer span.End()

	client := &modrinthClient{client: doer}
	var version modrinthVersion
	err := fetchJSON(ctx, client, models.MODRINTH, fmt.Sprintf("%s/v2/version_file/%s?algorithm=sha1", ModrinthBase, sha1), sha1, &version)
	if err != nil {
		var notFound *ProjectNotFoundError
		if errors.As(err, &notFound) {
			return models.ProjectReference{}, false, nil
		}
		return models.ProjectReference{}, false, err
	}
	for _, file := range version.Files {
		if file.Hashes.Sha1 != sha1 {
			continue
		}
		return models.ProjectReference{
			Provider:  models.MODRINTH,
			ProjectID: version.ProjectID,
			Kind:      kind,
			File: models.ProjectFile{
				ID:          version.ID,
				FileName:    file.FileName,
				URL:         file.URL,
				Sha1:        sha1,
				Size:        file.Size,
				ReleaseDate: formatTime(version.DatePublished),
			},
		}, true, nil
	}
	return models.ProjectReference{}, false, nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
