package models

import "strings"

// Download groups used by the launcher core. Anything else is accepted and ordered by first appearance.
const (
	GroupManifest  = "manifest"
	GroupClient    = "client"
	GroupLibraries = "libraries"
	GroupNatives   = "natives"
	GroupAssets    = "assets"
	GroupJava      = "java"
	GroupServer    = "server"
	GroupMods      = "mods"
	GroupOther     = "other"
)

const (
	BlockedURLPrefix = "blocked::"
	FileURLPrefix    = "file://"
	DisabledSuffix   = ".disabled"
)

type DownloadOptions struct {
	Extract       bool     `json:"extract,omitempty"`
	ExtractFolder string   `json:"extractFolder,omitempty"`
	ExtractDelete *bool    `json:"extractDelete,omitempty"`
	ExtractSkip   []string `json:"extractSkip,omitempty"`
}

// DeleteAfterExtract defaults to true unless explicitly set to false.
func (options *DownloadOptions) DeleteAfterExtract() bool {
	if options == nil || options.ExtractDelete == nil {
		return true
	}
	return *options.ExtractDelete
}

type DownloadItem struct {
	URL         string           `json:"url"`
	Destination string           `json:"destination"`
	Group       string           `json:"group"`
	Sha1        string           `json:"sha1,omitempty"`
	Sha256      string           `json:"sha256,omitempty"`
	Size        int64            `json:"size,omitempty"`
	Options     *DownloadOptions `json:"options,omitempty"`
}

func (item DownloadItem) IsBlocked() bool {
	return strings.HasPrefix(item.URL, BlockedURLPrefix)
}

func (item DownloadItem) IsLocal() bool {
	return strings.HasPrefix(strings.ToLower(item.URL), FileURLPrefix)
}

// Valid reports whether the required fields are present.
func (item DownloadItem) Valid() bool {
	return strings.TrimSpace(item.URL) != "" &&
		strings.TrimSpace(item.Destination) != "" &&
		strings.TrimSpace(item.Group) != ""
}

func (item DownloadItem) Extracts() bool {
	return item.Options != nil && item.Options.Extract
}

func BoolPtr(value bool) *bool {
	return &value
}
