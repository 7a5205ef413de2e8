// Package modmeta reads the descriptors packed into local mod, resource pack and shader pack
// archives so they can be added to an instance without a provider lookup.
package modmeta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	curseforgeFingerprint "github.com/meza/curseforge-fingerprint-go"
	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

const (
	fabricDescriptor   = "fabric.mod.json"
	quiltDescriptor    = "quilt.mod.json"
	forgeDescriptor    = "META-INF/mods.toml"
	neoforgeDescriptor = "META-INF/neoforge.mods.toml"
	legacyDescriptor   = "mcmod.info"
	jarManifest        = "META-INF/MANIFEST.MF"
	packDescriptor     = "pack.mcmeta"
)

type Metadata struct {
	ID      string
	Name    string
	Version string
	// Loaders lists every loader the archive carries a descriptor for, in AllLoaders order.
	Loaders []models.Loader
	// GameVersions is the raw minecraft dependency range, one per descriptor that declares it.
	GameVersions []string
	Kind         models.ProjectKind
	FileName     string
	Sha1         string
	Size         int64
	Fingerprint  uint32
}

// Supports reports whether the archive declares a descriptor for loader. Non-mod archives
// load everywhere.
func (m Metadata) Supports(loader models.Loader) bool {
	if m.Kind != models.KindMod {
		return true
	}
	for _, candidate := range m.Loaders {
		if candidate == loader {
			return true
		}
	}
	return false
}

// Reference turns the metadata into a local project reference pointing at url.
func (m Metadata) Reference(url string) models.ProjectReference {
	name := m.Name
	if name == "" {
		name = strings.TrimSuffix(m.FileName, filepath.Ext(m.FileName))
	}
	id := m.ID
	if id == "" {
		id = m.Sha1
	}
	return models.ProjectReference{
		Provider:  models.LOCAL,
		ProjectID: id,
		Name:      name,
		Kind:      m.Kind,
		File: models.ProjectFile{
			ID:          m.Version,
			FileName:    m.FileName,
			URL:         url,
			Sha1:        m.Sha1,
			Size:        m.Size,
			Fingerprint: m.Fingerprint,
		},
	}
}

type UnrecognizedError struct {
	Path string
}

func (e *UnrecognizedError) Error() string {
	return fmt.Sprintf("%s carries no mod or pack descriptor", e.Path)
}

// Inspector reads archives from Fs. Fingerprint computes the CurseForge fingerprint of a
// file on the host filesystem; nil skips it.
type Inspector struct {
	Fs          afero.Fs
	Fingerprint func(path string) uint32
}

func NewInspector(fs afero.Fs) *Inspector {
	return &Inspector{Fs: fs, Fingerprint: curseforgeFingerprint.GetFingerprintFor}
}

// Inspect reads the archive at path with the default inspector.
func Inspect(fs afero.Fs, path string) (Metadata, error) {
	return NewInspector(fs).Inspect(path)
}

func (i *Inspector) Inspect(path string) (Metadata, error) {
	entries, err := archive.List(i.Fs, path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read %s: %w", path, err)
	}
	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		present[entry] = true
	}

	meta := Metadata{FileName: filepath.Base(path)}
	readers := []struct {
		name   string
		loader models.Loader
		read   func(*Inspector, string, *Metadata) error
	}{
		{fabricDescriptor, models.FABRIC, (*Inspector).readFabric},
		{quiltDescriptor, models.QUILT, (*Inspector).readQuilt},
		{forgeDescriptor, models.FORGE, modsTOMLReader(forgeDescriptor)},
		{neoforgeDescriptor, models.NEOFORGE, modsTOMLReader(neoforgeDescriptor)},
		{legacyDescriptor, models.FORGE, (*Inspector).readLegacy},
	}
	for _, reader := range readers {
		if !present[reader.name] {
			continue
		}
		if err := reader.read(i, path, &meta); err != nil {
			return Metadata{}, fmt.Errorf("%s in %s: %w", reader.name, path, err)
		}
		meta.Loaders = appendLoader(meta.Loaders, reader.loader)
	}

	switch {
	case len(meta.Loaders) > 0:
		meta.Kind = models.KindMod
	case present[packDescriptor]:
		meta.Kind = packKind(entries)
		if err := i.readPack(path, &meta); err != nil {
			return Metadata{}, err
		}
	case hasPrefix(entries, "shaders/"):
		meta.Kind = models.KindShaderPack
	default:
		return Metadata{}, &UnrecognizedError{Path: path}
	}

	if strings.HasPrefix(meta.Version, "${") {
		meta.Version = i.implementationVersion(path)
	}
	if err := i.fileFacts(path, &meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (i *Inspector) fileFacts(path string, meta *Metadata) error {
	info, err := i.Fs.Stat(path)
	if err != nil {
		return err
	}
	meta.Size = info.Size()
	if meta.Sha1, err = archive.Sha1File(i.Fs, path); err != nil {
		return err
	}
	if i.Fingerprint != nil {
		meta.Fingerprint = i.Fingerprint(path)
	}
	return nil
}

func (i *Inspector) readFabric(path string, meta *Metadata) error {
	document, err := archive.Query(i.Fs, path, fabricDescriptor, "@this")
	if err != nil {
		return err
	}
	fill(meta, document.Get("id").String(), document.Get("name").String(), document.Get("version").String())
	meta.GameVersions = appendRange(meta.GameVersions, document.Get("depends.minecraft"))
	return nil
}

func (i *Inspector) readQuilt(path string, meta *Metadata) error {
	loader, err := archive.Query(i.Fs, path, quiltDescriptor, "quilt_loader")
	if err != nil {
		return err
	}
	fill(meta, loader.Get("id").String(), loader.Get("metadata.name").String(), loader.Get("version").String())
	for _, dependency := range loader.Get("depends").Array() {
		if dependency.Get("id").String() == "minecraft" {
			meta.GameVersions = appendRange(meta.GameVersions, dependency.Get("versions"))
		}
	}
	return nil
}

type modsTOML struct {
	Mods []struct {
		ModID       string `toml:"modId"`
		Version     string `toml:"version"`
		DisplayName string `toml:"displayName"`
	} `toml:"mods"`
	Dependencies map[string][]struct {
		ModID        string `toml:"modId"`
		VersionRange string `toml:"versionRange"`
	} `toml:"dependencies"`
}

func modsTOMLReader(descriptor string) func(*Inspector, string, *Metadata) error {
	return func(i *Inspector, path string, meta *Metadata) error {
		var document modsTOML
		if err := archive.ReadTOML(i.Fs, path, descriptor, &document); err != nil {
			return err
		}
		if len(document.Mods) == 0 {
			return errors.New("no [[mods]] entry")
		}
		first := document.Mods[0]
		fill(meta, first.ModID, first.DisplayName, first.Version)
		for _, dependency := range document.Dependencies[first.ModID] {
			if dependency.ModID == "minecraft" && dependency.VersionRange != "" {
				meta.GameVersions = append(meta.GameVersions, dependency.VersionRange)
			}
		}
		return nil
	}
}

// readLegacy handles the pre-1.13 Forge mcmod.info, which is either a bare list or a
// {"modList": [...]} object.
func (i *Inspector) readLegacy(path string, meta *Metadata) error {
	document, err := archive.Query(i.Fs, path, legacyDescriptor, "@this")
	if err != nil {
		return err
	}
	first := document.Get("0")
	if !first.Exists() {
		first = document.Get("modList.0")
	}
	if !first.Exists() {
		return errors.New("no mod entry")
	}
	fill(meta, first.Get("modid").String(), first.Get("name").String(), first.Get("version").String())
	if mcversion := first.Get("mcversion").String(); mcversion != "" {
		meta.GameVersions = append(meta.GameVersions, mcversion)
	}
	return nil
}

func (i *Inspector) readPack(path string, meta *Metadata) error {
	description, err := archive.Query(i.Fs, path, packDescriptor, "pack.description")
	if err != nil {
		return err
	}
	if description.Type == gjson.String {
		meta.Name = description.String()
	}
	return nil
}

// implementationVersion resolves the ${file.jarVersion} placeholder Forge mods ship.
func (i *Inspector) implementationVersion(path string) string {
	data, err := archive.ReadFile(i.Fs, path, jarManifest)
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if found && strings.TrimSpace(key) == "Implementation-Version" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// fill keeps values from the first descriptor that provides them.
func fill(meta *Metadata, id string, name string, version string) {
	if meta.ID == "" {
		meta.ID = id
	}
	if meta.Name == "" {
		meta.Name = name
	}
	if meta.Version == "" {
		meta.Version = version
	}
}

func appendRange(ranges []string, value gjson.Result) []string {
	if value.IsArray() {
		parts := make([]string, 0)
		for _, part := range value.Array() {
			parts = append(parts, part.String())
		}
		return append(ranges, strings.Join(parts, " || "))
	}
	if value.String() != "" {
		return append(ranges, value.String())
	}
	return ranges
}

func appendLoader(loaders []models.Loader, loader models.Loader) []models.Loader {
	for _, existing := range loaders {
		if existing == loader {
			return loaders
		}
	}
	loaders = append(loaders, loader)
	order := make(map[models.Loader]int)
	for index, known := range models.AllLoaders() {
		order[known] = index
	}
	sort.SliceStable(loaders, func(a, b int) bool { return order[loaders[a]] < order[loaders[b]] })
	return loaders
}

func packKind(entries []string) models.ProjectKind {
	if hasPrefix(entries, "data/") && !hasPrefix(entries, "assets/") {
		return models.KindDatapack
	}
	return models.KindResourcePack
}

func hasPrefix(entries []string, prefix string) bool {
	for _, entry := range entries {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}
