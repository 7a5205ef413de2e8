// Package version resolves game versions into installed, launchable instances.
package version

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

type OSRule struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

type Rule struct {
	Action   string          `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// Argument is either a bare string or a {rules, value} object whose value is a string or a list.
type Argument struct {
	Value []string
	Rules []Rule

	bare   bool
	scalar bool
}

func Literal(value string) Argument {
	return Argument{Value: []string{value}, bare: true}
}

func Conditional(rules []Rule, values ...string) Argument {
	return Argument{Value: values, Rules: rules, scalar: len(values) == 1}
}

type conditionalJSON struct {
	Rules []Rule          `json:"rules,omitempty"`
	Value json.RawMessage `json:"value"`
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*a = Literal(value)
		return nil
	}

	var raw conditionalJSON
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	if len(raw.Value) == 0 {
		return fmt.Errorf("argument %s has no value", string(trimmed))
	}
	var single string
	if err := json.Unmarshal(raw.Value, &single); err == nil {
		*a = Argument{Value: []string{single}, Rules: raw.Rules, scalar: true}
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw.Value, &many); err != nil {
		return fmt.Errorf("argument value: %w", err)
	}
	*a = Argument{Value: many, Rules: raw.Rules}
	return nil
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if a.bare && len(a.Rules) == 0 && len(a.Value) == 1 {
		return json.Marshal(a.Value[0])
	}
	var value any = a.Value
	if a.scalar && len(a.Value) == 1 {
		value = a.Value[0]
	}
	return json.Marshal(struct {
		Rules []Rule `json:"rules,omitempty"`
		Value any    `json:"value"`
	}{a.Rules, value})
}

type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	JVM  []Argument `json:"jvm,omitempty"`
}

type Artifact struct {
	Path string `json:"path,omitempty"`
	Sha1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url"`
}

type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

type ExtractRule struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Library is one entry of the manifest's libraries list. Loader profiles only carry Name and
// URL (a maven repository root); vendor entries carry Downloads.
type Library struct {
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	Sha1      string            `json:"sha1,omitempty"`
	Size      int64             `json:"size,omitempty"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
	Extract   *ExtractRule      `json:"extract,omitempty"`
}

type AssetIndex struct {
	ID        string `json:"id"`
	Sha1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
	URL       string `json:"url"`
}

type Download struct {
	Sha1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url"`
}

type Downloads struct {
	Client *Download `json:"client,omitempty"`
	Server *Download `json:"server,omitempty"`
}

type JavaVersion struct {
	Component    string `json:"component,omitempty"`
	MajorVersion int    `json:"majorVersion"`
}

type Manifest struct {
	ID                 string       `json:"id"`
	InheritsFrom       string       `json:"inheritsFrom,omitempty"`
	Type               string       `json:"type,omitempty"`
	MainClass          string       `json:"mainClass"`
	MinecraftArguments string       `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments   `json:"arguments,omitempty"`
	Libraries          []Library    `json:"libraries"`
	AssetIndex         *AssetIndex  `json:"assetIndex,omitempty"`
	Assets             string       `json:"assets,omitempty"`
	Downloads          *Downloads   `json:"downloads,omitempty"`
	JavaVersion        *JavaVersion `json:"javaVersion,omitempty"`
	ReleaseTime        string       `json:"releaseTime,omitempty"`
	Time               string       `json:"time,omitempty"`
}

// DefaultJavaMajor is used by manifests that predate the javaVersion field.
const DefaultJavaMajor = 8

func (m *Manifest) JavaMajor() int {
	if m.JavaVersion == nil || m.JavaVersion.MajorVersion <= 0 {
		return DefaultJavaMajor
	}
	return m.JavaVersion.MajorVersion
}

func (m *Manifest) ClientDownload() *Download {
	if m.Downloads == nil {
		return nil
	}
	return m.Downloads.Client
}

// QuickPlaySupport reports which quick-play modes the manifest's game arguments can express.
func (m *Manifest) QuickPlaySupport() (multiplayer bool, singleplayer bool) {
	if m.Arguments == nil {
		return false, false
	}
	for _, argument := range m.Arguments.Game {
		for _, rule := range argument.Rules {
			if rule.Features["is_quick_play_multiplayer"] {
				multiplayer = true
			}
			if rule.Features["is_quick_play_singleplayer"] {
				singleplayer = true
			}
		}
	}
	return multiplayer, singleplayer
}

func (m *Manifest) HasLibrary(key string) bool {
	for _, library := range m.Libraries {
		if libraryKey(library) == key {
			return true
		}
	}
	return false
}

func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

func ReadManifest(ctx context.Context, fs afero.Fs, path string) (*Manifest, error) {
	_, span := perf.StartSpan(ctx, "version.manifest.read", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

func WriteManifest(ctx context.Context, fs afero.Fs, path string, manifest *Manifest) error {
	_, span := perf.StartSpan(ctx, "version.manifest.write", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return config.WriteFileAtomic(fs, path, data, os.FileMode(0644))
}
