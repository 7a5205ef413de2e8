package models

import "strings"

type ProjectKind string

const (
	KindMod          ProjectKind = "mod"
	KindResourcePack ProjectKind = "resourcepack"
	KindShaderPack   ProjectKind = "shaderpack"
	KindWorld        ProjectKind = "world"
	KindDatapack     ProjectKind = "datapack"
)

type ProjectFile struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	URL         string `json:"url"`
	Sha1        string `json:"sha1,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Fingerprint uint32 `json:"fingerprint,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

type ProjectReference struct {
	Provider  Platform    `json:"provider"`
	ProjectID string      `json:"projectId"`
	Name      string      `json:"name,omitempty"`
	Kind      ProjectKind `json:"kind"`
	File      ProjectFile `json:"file"`
}

// VersionConfiguration is the user-authored descriptor of one instance, stored as version.json.
type VersionConfiguration struct {
	Name          string             `json:"name"`
	GameVersion   string             `json:"version"`
	Loader        Loader             `json:"loader"`
	LoaderVersion string             `json:"loaderVersion,omitempty"`
	Projects      []ProjectReference `json:"mods"`
	ShareCode     string             `json:"shareCode,omitempty"`
}

func (config VersionConfiguration) EffectiveLoader() Loader {
	if config.Loader == "" {
		return VANILLA
	}
	return config.Loader
}

func (config VersionConfiguration) Valid() bool {
	return strings.TrimSpace(config.Name) != "" && strings.TrimSpace(config.GameVersion) != ""
}

// FindProject returns the index of the reference for provider/projectID, or -1.
func (config VersionConfiguration) FindProject(provider Platform, projectID string) int {
	for index, project := range config.Projects {
		if project.Provider == provider && project.ProjectID == projectID {
			return index
		}
	}
	return -1
}
