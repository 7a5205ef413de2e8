package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/meza/minecraft-launcher/internal/environment"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

var CurseforgeBase = "https://api.curseforge.com/v1"

const (
	curseforgeMinecraft = 432
	curseforgeSha1      = 1
	curseforgeApproved  = 4
)

type curseforgeClient struct {
	client httpclient.Doer
}

func (c *curseforgeClient) Do(request *http.Request) (*http.Response, error) {
	ctx, span := perf.StartSpan(request.Context(), "api.curseforge.http.request", perf.WithAttributes(attribute.String("url", request.URL.String())))
	defer span.End()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("x-api-key", environment.CurseforgeAPIKey())
	return c.client.Do(request.WithContext(ctx))
}

type curseforgeHash struct {
	Value     string `json:"value"`
	Algorithm int    `json:"algo"`
}

type curseforgeFile struct {
	ID           int              `json:"id"`
	ModID        int              `json:"modId"`
	FileName     string           `json:"fileName"`
	ReleaseType  int              `json:"releaseType"`
	FileStatus   int              `json:"fileStatus"`
	IsAvailable  bool             `json:"isAvailable"`
	Hashes       []curseforgeHash `json:"hashes"`
	FileDate     time.Time        `json:"fileDate"`
	FileLength   int64            `json:"fileLength"`
	DownloadURL  string           `json:"downloadUrl"`
	GameVersions []string         `json:"gameVersions"`
	Fingerprint  uint32           `json:"fileFingerprint"`
}

func (f curseforgeFile) sha1() string {
	for _, hash := range f.Hashes {
		if hash.Algorithm == curseforgeSha1 {
			return hash.Value
		}
	}
	return ""
}

func (f curseforgeFile) releaseType() (ReleaseType, bool) {
	switch f.ReleaseType {
	case 1:
		return Release, true
	case 2:
		return Beta, true
	case 3:
		return Alpha, true
	}
	return "", false
}

type curseforgeProject struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Links struct {
		WebsiteURL string `json:"websiteUrl"`
	} `json:"links"`
}

// curseforgeLoaderType is CurseForge's modLoaderType; zero means no filter.
func curseforgeLoaderType(kind models.ProjectKind, loader models.Loader) int {
	if kind != models.KindMod {
		return 0
	}
	switch loader {
	case models.FORGE:
		return 1
	case models.FABRIC:
		return 4
	case models.QUILT:
		return 5
	case models.NEOFORGE:
		return 6
	}
	return 0
}

func resolveCurseforge(ctx context.Context, request Request, doer httpclient.Doer) (models.ProjectReference, error) {
	client := &curseforgeClient{client: doer}

	var project struct {
		Data curseforgeProject `json:"data"`
	}
	if err := fetchJSON(ctx, client, models.CURSEFORGE, fmt.Sprintf("%s/mods/%s", CurseforgeBase, url.PathEscape(request.ProjectID)), request.ProjectID, &project); err != nil {
		return models.ProjectReference{}, err
	}

	for _, gameVersion := range candidateVersions(request) {
		files, err := curseforgeFiles(ctx, client, request, gameVersion)
		if err != nil {
			return models.ProjectReference{}, err
		}
		candidates := filterCurseforgeFiles(files, request, gameVersion)
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].FileDate.After(candidates[j].FileDate)
		})
		return curseforgeReference(project.Data, candidates[0], request.kind()), nil
	}
	return models.ProjectReference{}, &NoCompatibleFileError{Provider: models.CURSEFORGE, ProjectID: request.ProjectID, GameVersion: request.GameVersion, Loader: request.Loader}
}

// curseforgeReference marks files whose authors disabled third-party downloads as blocked,
// pointing at the page the player downloads them from by hand.
func curseforgeReference(project curseforgeProject, file curseforgeFile, kind models.ProjectKind) models.ProjectReference {
	downloadURL := file.DownloadURL
	if downloadURL == "" {
		downloadURL = models.BlockedURLPrefix + strings.TrimSuffix(project.Links.WebsiteURL, "/") + "/files/" + strconv.Itoa(file.ID)
	}
	return models.ProjectReference{
		Provider:  models.CURSEFORGE,
		ProjectID: strconv.Itoa(project.ID),
		Name:      project.Name,
		Kind:      kind,
		File: models.ProjectFile{
			ID:          strconv.Itoa(file.ID),
			FileName:    file.FileName,
			URL:         downloadURL,
			Sha1:        file.sha1(),
			Size:        file.FileLength,
			Fingerprint: file.Fingerprint,
			ReleaseDate: formatTime(file.FileDate),
		},
	}
}

func curseforgeFiles(ctx context.Context, client httpclient.Doer, request Request, gameVersion string) ([]curseforgeFile, error) {
	ctx, span := perf.StartSpan(ctx, "api.curseforge.files.list", perf.WithAttributes(
		attribute.String("project_id", request.ProjectID),
		attribute.String("game_version", gameVersion),
	))
	defer span.End()

	query := url.Values{}
	query.Set("gameVersion", gameVersion)
	if loaderType := curseforgeLoaderType(request.kind(), request.Loader); loaderType != 0 {
		query.Set("modLoaderType", strconv.Itoa(loaderType))
	}
	target := fmt.Sprintf("%s/mods/%s/files?%s", CurseforgeBase, url.PathEscape(request.ProjectID), query.Encode())

	var response struct {
		Data []curseforgeFile `json:"data"`
	}
	if err := fetchJSON(ctx, client, models.CURSEFORGE, target, request.ProjectID, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

func filterCurseforgeFiles(files []curseforgeFile, request Request, gameVersion string) []curseforgeFile {
	filtered := make([]curseforgeFile, 0, len(files))
	for _, file := range files {
		if request.FixedVersion != "" && !strings.EqualFold(file.FileName, request.FixedVersion) {
			continue
		}
		if !containsFold(file.GameVersions, gameVersion) {
			continue
		}
		releaseType, ok := file.releaseType()
		if !ok || (request.FixedVersion == "" && !request.allows(releaseType)) {
			continue
		}
		if file.FileStatus != curseforgeApproved || !file.IsAvailable {
			continue
		}
		filtered = append(filtered, file)
	}
	return filtered
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

// MatchFingerprints maps each known fingerprint to the CurseForge file it identifies.
// Unknown fingerprints are left out.
func MatchFingerprints(ctx context.Context, fingerprints []uint32, kind models.ProjectKind, doer httpclient.Doer) (result map[uint32]models.ProjectReference, returnErr error) {
	ctx, span := perf.StartSpan(ctx, "api.curseforge.fingerprints.match", perf.WithAttributes(attribute.Int("fingerprints_count", len(fingerprints))))
	defer span.End()

	result = make(map[uint32]models.ProjectReference)
	if len(fingerprints) == 0 {
		return result, nil
	}
	client := &curseforgeClient{client: doer}
	body, err := json.Marshal(map[string][]uint32{"fingerprints": fingerprints})
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()
	request, err := newRequestWithContext(timeoutCtx, http.MethodPost, fmt.Sprintf("%s/fingerprints/%d", CurseforgeBase, curseforgeMinecraft), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.Do(request)
	if err != nil {
		if httpclient.IsTimeoutError(err) {
			return nil, httpclient.WrapTimeoutError(err)
		}
		return nil, apiError(err, "fingerprints", models.CURSEFORGE)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil && returnErr == nil {
			returnErr = closeErr
		}
	}()
	if response.StatusCode != http.StatusOK {
		return nil, apiError(errors.Errorf("unexpected status code: %d", response.StatusCode), "fingerprints", models.CURSEFORGE)
	}

	var matches struct {
		Data struct {
			ExactMatches []struct {
				ID   int            `json:"id"`
				File curseforgeFile `json:"file"`
			} `json:"exactMatches"`
		} `json:"data"`
	}
	if err := json.NewDecoder(response.Body).Decode(&matches); err != nil {
		return nil, apiError(errors.Wrap(err, "decode fingerprint matches"), "fingerprints", models.CURSEFORGE)
	}
	for _, match := range matches.Data.ExactMatches {
		project := curseforgeProject{ID: match.ID}
		result[match.File.Fingerprint] = curseforgeReference(project, match.File, kind)
	}
	span.SetAttributes(attribute.Int("matches", len(result)))
	return result, nil
}
