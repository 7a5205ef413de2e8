package config

import (
	"path/filepath"
	"strings"
)

// Layout maps the application-data root onto the on-disk directory structure.
type Layout struct {
	DataDir string
}

func NewLayout(dataDir string) Layout {
	return Layout{DataDir: filepath.Clean(filepath.FromSlash(dataDir))}
}

func (l Layout) SettingsPath() string {
	return filepath.Join(l.DataDir, "settings.toml")
}

func (l Layout) JavaDir() string {
	return filepath.Join(l.DataDir, "java")
}

func (l Layout) MinecraftDir() string {
	return filepath.Join(l.DataDir, "minecraft")
}

func (l Layout) VersionsDir() string {
	return filepath.Join(l.MinecraftDir(), "versions")
}

func (l Layout) LibrariesDir() string {
	return filepath.Join(l.MinecraftDir(), "libraries")
}

func (l Layout) AssetsDir() string {
	return filepath.Join(l.MinecraftDir(), "assets")
}

func (l Layout) InstanceDir(name string) string {
	return filepath.Join(l.VersionsDir(), name)
}

func (l Layout) VersionConfigPath(name string) string {
	return filepath.Join(l.InstanceDir(name), "version.json")
}

// Resolve anchors a relative path at the data root and leaves absolute ones alone.
func (l Layout) Resolve(path string) string {
	if isAbsoluteOrRootedPath(path) {
		return path
	}
	return filepath.Join(l.DataDir, path)
}

func isAbsoluteOrRootedPath(path string) bool {
	if filepath.IsAbs(path) {
		return true
	}
	return strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\")
}
