// Package environment reads runtime environment configuration.
package environment

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/meza/minecraft-launcher/internal/constants"
)

var (
	posthogAPIKeyDefault    = "REPL_POSTHOG_API_KEY"    // #nosec G101 -- build-time placeholder replaced in release builds.
	curseforgeAPIKeyDefault = "REPL_CURSEFORGE_API_KEY" // #nosec G101 -- build-time placeholder replaced in release builds.
	modrinthAPIKeyDefault   = ""
	appVersionDefault       = "REPL_VERSION"
)

var userConfigDir = os.UserConfigDir

// DataDir is the application-data root that holds java/, minecraft/ and settings.toml.
func DataDir() string {
	if dir, present := os.LookupEnv("MML_DATA_DIR"); present && strings.TrimSpace(dir) != "" {
		return dir
	}

	base, err := userConfigDir()
	if err != nil || base == "" {
		return filepath.Join(".", "."+constants.AppName)
	}
	return filepath.Join(base, constants.AppName)
}

func PosthogAPIKey() string {
	key, present := os.LookupEnv("POSTHOG_API_KEY")
	if present {
		return key
	}

	return posthogAPIKeyDefault
}

func CurseforgeAPIKey() string {
	if key, present := os.LookupEnv("CURSEFORGE_API_KEY"); present {
		return key
	}
	return curseforgeAPIKeyDefault
}

// ModrinthAPIKey is optional; anonymous requests are rate limited harder.
func ModrinthAPIKey() string {
	if key, present := os.LookupEnv("MODRINTH_API_KEY"); present {
		return key
	}
	return modrinthAPIKeyDefault
}

// TelemetryEnabled is false when no real key was baked in or MML_TELEMETRY=off.
func TelemetryEnabled() bool {
	if value, present := os.LookupEnv("MML_TELEMETRY"); present {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "0", "off", "false", "no":
			return false
		}
	}
	return !strings.HasPrefix(PosthogAPIKey(), "REPL_") && PosthogAPIKey() != ""
}

func AppVersion() string {
	return appVersionDefault
}

func HelpURL() string {
	return "REPL_HELP_URL"
}
