package perf

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const defaultExportFilename = "mml-perf.json"

type exportSpan struct {
	Name       string                 `json:"name"`
	Parent     string                 `json:"parent,omitempty"`
	ID         string                 `json:"id"`
	Start      time.Time              `json:"start"`
	DurationNS int64                  `json:"duration_ns"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ExportToFile writes the recorded spans as JSON to <outDir>/mml-perf.json. Absolute paths held in
// path-like attributes are rewritten relative to baseDir so the artifact stays portable.
//
// Callers should treat a returned error as non-fatal.
func ExportToFile(fs afero.Fs, outDir string, baseDir string, spans []SpanSnapshot) (string, error) {
	if outDir == "" {
		outDir = "."
	}

	exported := make([]exportSpan, 0, len(spans))
	for _, span := range spans {
		exported = append(exported, exportSpan{
			Name:       span.Name,
			Parent:     span.ParentSpanID,
			ID:         span.SpanID,
			Start:      span.StartTime,
			DurationNS: span.EndTime.Sub(span.StartTime).Nanoseconds(),
			Attributes: normalizeAttributes(span.Attributes, baseDir),
		})
	}

	if err := fs.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(outDir, defaultExportFilename)
	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return "", err
	}

	return path, afero.WriteFile(fs, path, data, 0644)
}

func normalizeAttributes(attrs map[string]interface{}, baseDir string) map[string]interface{} {
	if len(attrs) == 0 {
		return attrs
	}
	normalized := make(map[string]interface{}, len(attrs))
	for key, value := range attrs {
		normalized[key] = normalizeValue(key, value, baseDir)
	}
	return normalized
}

func normalizeValue(key string, value interface{}, baseDir string) interface{} {
	stringValue, ok := value.(string)
	if !ok || !looksLikePathKey(key) {
		return value
	}

	if baseDir != "" && filepath.IsAbs(stringValue) {
		if rel, err := filepath.Rel(baseDir, stringValue); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(stringValue))
}

func looksLikePathKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "path" || key == "destination" || strings.HasSuffix(key, "_path") || strings.HasSuffix(key, "_dir")
}
