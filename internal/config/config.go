package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

func ReadVersionConfiguration(ctx context.Context, fs afero.Fs, path string) (models.VersionConfiguration, error) {
	_, span := perf.StartSpan(ctx, "io.config.version.read", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	exists, _ := afero.Exists(fs, path)
	if !exists {
		return models.VersionConfiguration{}, &ConfigFileNotFoundException{Path: path, Err: os.ErrNotExist}
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return models.VersionConfiguration{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config models.VersionConfiguration
	if err := json.Unmarshal(data, &config); err != nil {
		return models.VersionConfiguration{}, &FileInvalidError{Path: path, Err: err}
	}
	if config.Projects == nil {
		config.Projects = []models.ProjectReference{}
	}

	return config, nil
}

func WriteVersionConfiguration(ctx context.Context, fs afero.Fs, path string, config models.VersionConfiguration) error {
	_, span := perf.StartSpan(ctx, "io.config.version.write", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	if config.Projects == nil {
		config.Projects = []models.ProjectReference{}
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return WriteFileAtomic(fs, path, data, 0644)
}

// ListInstances returns the names of instance directories that carry a version.json.
func ListInstances(ctx context.Context, fs afero.Fs, layout Layout) ([]string, error) {
	_, span := perf.StartSpan(ctx, "io.config.instances.list")
	defer span.End()

	entries, err := afero.ReadDir(fs, layout.VersionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if exists, _ := afero.Exists(fs, layout.VersionConfigPath(entry.Name())); exists {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	span.SetAttributes(attribute.Int("count", len(names)))
	return names, nil
}
