package config

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutPaths(t *testing.T) {
	layout := NewLayout("/data/mml")

	assert.Equal(t, filepath.FromSlash("/data/mml/settings.toml"), layout.SettingsPath())
	assert.Equal(t, filepath.FromSlash("/data/mml/java"), layout.JavaDir())
	assert.Equal(t, filepath.FromSlash("/data/mml/minecraft/libraries"), layout.LibrariesDir())
	assert.Equal(t, filepath.FromSlash("/data/mml/minecraft/assets"), layout.AssetsDir())
	assert.Equal(t, filepath.FromSlash("/data/mml/minecraft/versions/Survival"), layout.InstanceDir("Survival"))
	assert.Equal(t, filepath.FromSlash("/data/mml/minecraft/versions/Survival/version.json"), layout.VersionConfigPath("Survival"))
}

func TestLayoutResolveAnchorsRelativePaths(t *testing.T) {
	layout := NewLayout("/data/mml")
	assert.Equal(t, filepath.FromSlash("/data/mml/exports"), layout.Resolve("exports"))
}

func TestLayoutResolveKeepsRootedForwardSlash(t *testing.T) {
	layout := NewLayout("/data/mml")
	assert.Equal(t, "/var/mc", layout.Resolve("/var/mc"))
}

func TestLayoutResolveKeepsWindowsDriveAbsolute(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("Windows-only coverage for drive-letter absolute paths")
	}

	layout := NewLayout(`C:\data`)
	assert.Equal(t, `D:\mc`, layout.Resolve(`D:\mc`))
}
