package config

import (
	"bytes"
	"context"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/meza/minecraft-launcher/internal/constants"
	"github.com/meza/minecraft-launcher/internal/environment"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultDownloadLimit = 6
	minDefaultMemoryMB   = 1024
	maxDefaultMemoryMB   = 8192
)

// Settings are the launcher-wide preferences stored in settings.toml.
type Settings struct {
	DownloadLimit   int      `toml:"download_limit"`
	Language        string   `toml:"language"`
	MemoryMB        int      `toml:"memory_mb"`
	LauncherName    string   `toml:"launcher_name"`
	LauncherVersion string   `toml:"launcher_version"`
	AuthlibBackend  string   `toml:"authlib_backend,omitempty"`
	ExtraJVMArgs    []string `toml:"extra_jvm_args,omitempty"`
}

var totalMemory = func() (uint64, error) {
	stat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return stat.Total, nil
}

var detectLanguage = func() string { return "en-GB" }

// SetLanguageDetector replaces the default language source used when settings omit one.
func SetLanguageDetector(detector func() string) {
	if detector != nil {
		detectLanguage = detector
	}
}

func DefaultSettings() Settings {
	return Settings{
		DownloadLimit:   DefaultDownloadLimit,
		Language:        detectLanguage(),
		MemoryMB:        defaultMemoryMB(),
		LauncherName:    constants.LauncherBrand,
		LauncherVersion: environment.AppVersion(),
	}
}

// defaultMemoryMB is half the physical memory clamped to a sane heap range.
func defaultMemoryMB() int {
	total, err := totalMemory()
	if err != nil || total == 0 {
		return 2048
	}
	half := int(total / 2 / (1024 * 1024))
	if half < minDefaultMemoryMB {
		return minDefaultMemoryMB
	}
	if half > maxDefaultMemoryMB {
		return maxDefaultMemoryMB
	}
	return half
}

// withDefaults fills zero values so a partial settings.toml still yields a usable configuration.
func (settings Settings) withDefaults() Settings {
	defaults := DefaultSettings()
	if settings.DownloadLimit <= 0 {
		settings.DownloadLimit = defaults.DownloadLimit
	}
	if settings.Language == "" {
		settings.Language = defaults.Language
	}
	if settings.MemoryMB <= 0 {
		settings.MemoryMB = defaults.MemoryMB
	}
	if settings.LauncherName == "" {
		settings.LauncherName = defaults.LauncherName
	}
	if settings.LauncherVersion == "" {
		settings.LauncherVersion = defaults.LauncherVersion
	}
	return settings
}

// ReadSettings returns defaults when settings.toml is missing.
func ReadSettings(ctx context.Context, fs afero.Fs, layout Layout) (Settings, error) {
	path := layout.SettingsPath()
	_, span := perf.StartSpan(ctx, "io.config.settings.read", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			span.SetAttributes(attribute.Bool("defaults", true))
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}

	var settings Settings
	if _, err := toml.Decode(string(data), &settings); err != nil {
		return Settings{}, &SettingsInvalidError{Path: path, Err: err}
	}
	return settings.withDefaults(), nil
}

func WriteSettings(ctx context.Context, fs afero.Fs, layout Layout, settings Settings) error {
	path := layout.SettingsPath()
	_, span := perf.StartSpan(ctx, "io.config.settings.write", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	var buffer bytes.Buffer
	if err := toml.NewEncoder(&buffer).Encode(settings); err != nil {
		return err
	}
	if err := fs.MkdirAll(layout.DataDir, 0755); err != nil {
		return err
	}
	return WriteFileAtomic(fs, path, buffer.Bytes(), 0644)
}
