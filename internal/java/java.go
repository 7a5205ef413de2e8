// Package java provisions Temurin JDKs under the data root.
package java

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// Fetcher runs a download batch. *downloader.Downloader satisfies it.
type Fetcher interface {
	DownloadFiles(ctx context.Context, items []models.DownloadItem) downloader.Result
}

type Runtime struct {
	Major   int
	Host    models.Host
	Release *Release
	// Dir is <data>/java/<tag>.
	Dir string
	// JavaPath launches the game: javaw on Windows so no console window opens.
	JavaPath string
	// ServerJavaPath always points at the console java binary.
	ServerJavaPath string

	javaRoot string
}

// New resolves the release for major on host. An unsupported combination yields a Runtime
// whose paths stay empty after Init and whose Install does nothing.
func New(major int, dataDir string, host models.Host) *Runtime {
	runtime := &Runtime{
		Major:    major,
		Host:     host,
		javaRoot: filepath.Join(dataDir, "java"),
	}
	if release, ok := LookupRelease(major); ok && release.Supports(host.OS, host.Arch) {
		runtime.Release = &release
	}
	return runtime
}

func (r *Runtime) Supported() bool {
	return r.Release != nil
}

// Init computes the install paths without touching disk.
func (r *Runtime) Init() {
	if !r.Supported() {
		return
	}
	r.Dir = filepath.Join(r.javaRoot, r.Release.Tag)
	bin := filepath.Join(r.Dir, "bin")
	if r.Host.OS == "osx" {
		bin = filepath.Join(r.Dir, "Contents", "Home", "bin")
	}
	if r.Host.IsWindows() {
		r.JavaPath = filepath.Join(bin, "javaw.exe")
		r.ServerJavaPath = filepath.Join(bin, "java.exe")
		return
	}
	r.JavaPath = filepath.Join(bin, "java")
	r.ServerJavaPath = r.JavaPath
}

// DownloadItem extracts the archive into <data>/java, which yields Dir.
func (r *Runtime) DownloadItem() (models.DownloadItem, bool) {
	if !r.Supported() {
		return models.DownloadItem{}, false
	}
	name := r.Release.AssetName(r.Host.OS, r.Host.Arch)
	return models.DownloadItem{
		URL:         r.Release.URL(r.Host.OS, r.Host.Arch),
		Destination: filepath.Join(r.javaRoot, name),
		Group:       models.GroupJava,
		Options: &models.DownloadOptions{
			Extract:       true,
			ExtractFolder: r.javaRoot,
		},
	}, true
}

// ChecksumItem fetches the sha256 sidecar Temurin publishes next to every asset.
func (r *Runtime) ChecksumItem() (models.DownloadItem, bool) {
	item, ok := r.DownloadItem()
	if !ok {
		return item, false
	}
	return models.DownloadItem{
		URL:         item.URL + checksumSuffix,
		Destination: item.Destination + checksumSuffix,
		Group:       models.GroupJava,
	}, true
}

const checksumSuffix = ".sha256.txt"

// ChecksumError is a sidecar that does not start with a sha256 hex digest.
type ChecksumError struct {
	URL string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("no sha256 digest in %s", e.URL)
}

// parseChecksum reads the "<hex>  <file>" sha256sum line.
func parseChecksum(data []byte) (string, bool) {
	fields := strings.Fields(string(data))
	if len(fields) == 0 || len(fields[0]) != 64 {
		return "", false
	}
	if _, err := hex.DecodeString(fields[0]); err != nil {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

func (r *Runtime) fetchChecksum(ctx context.Context, fs afero.Fs, fetcher Fetcher) (string, error) {
	item, _ := r.ChecksumItem()
	result := fetcher.DownloadFiles(ctx, []models.DownloadItem{item})
	if len(result.Items) == 1 && result.Items[0].Err != nil {
		return "", result.Items[0].Err
	}
	data, err := afero.ReadFile(fs, item.Destination)
	if err != nil {
		return "", fmt.Errorf("read checksum: %w", err)
	}
	_ = fs.Remove(item.Destination)
	digest, ok := parseChecksum(data)
	if !ok {
		return "", &ChecksumError{URL: item.URL}
	}
	return digest, nil
}

// Installed reports whether the launch binary exists.
func (r *Runtime) Installed(fs afero.Fs) bool {
	if r.JavaPath == "" {
		return false
	}
	exists, _ := afero.Exists(fs, r.JavaPath)
	return exists
}

// Install downloads and extracts the JDK unless the launch binary is already present.
// The archive is checked against the published sha256 before anything is extracted. It returns installed=false with a nil error for unsupported runtimes.
func (r *Runtime) Install(ctx context.Context, fs afero.Fs, fetcher Fetcher) (bool, error) {
	ctx, span := perf.StartSpan(ctx, "java.install", perf.WithAttributes(attribute.Int("major", r.Major)))
	defer span.End()

	if !r.Supported() {
		span.SetAttributes(attribute.Bool("supported", false))
		return false, nil
	}
	if r.JavaPath == "" {
		r.Init()
	}
	if r.Installed(fs) {
		span.SetAttributes(attribute.Bool("cached", true))
		return true, nil
	}

	digest, err := r.fetchChecksum(ctx, fs, fetcher)
	if err != nil {
		return false, fmt.Errorf("java %d: %w", r.Major, err)
	}
	item, _ := r.DownloadItem()
	item.Sha256 = digest
	result := fetcher.DownloadFiles(ctx, []models.DownloadItem{item})
	if len(result.Items) == 1 && result.Items[0].Err != nil {
		return false, fmt.Errorf("java %d: %w", r.Major, result.Items[0].Err)
	}
	if !r.Installed(fs) {
		return false, fmt.Errorf("java %d: %s missing after extraction", r.Major, r.JavaPath)
	}
	return true, nil
}
