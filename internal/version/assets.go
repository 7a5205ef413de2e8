package version

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/spf13/afero"
)

var ResourcesURL = "https://resources.download.minecraft.net/"

type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Valid reports whether Hash is a 40 character hex sha1.
func (o AssetObject) Valid() bool {
	if len(o.Hash) != 40 {
		return false
	}
	_, err := hex.DecodeString(o.Hash)
	return err == nil
}

// Path is the content-addressed location below assets/objects, or "" for an invalid hash.
func (o AssetObject) Path() string {
	if !o.Valid() {
		return ""
	}
	return filepath.Join(o.Hash[:2], o.Hash)
}

func (o AssetObject) URL() string {
	if !o.Valid() {
		return ""
	}
	return ResourcesURL + o.Hash[:2] + "/" + o.Hash
}

type AssetIndexFile struct {
	Objects        map[string]AssetObject `json:"objects"`
	Virtual        bool                   `json:"virtual,omitempty"`
	MapToResources bool                   `json:"map_to_resources,omitempty"`
}

func ReadAssetIndex(ctx context.Context, fs afero.Fs, path string) (*AssetIndexFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var index AssetIndexFile
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// uniqueObjects returns each object once, ordered by hash. Malformed hashes are dropped.
func (index *AssetIndexFile) uniqueObjects() []AssetObject {
	seen := make(map[string]bool, len(index.Objects))
	objects := make([]AssetObject, 0, len(index.Objects))
	for _, object := range index.Objects {
		if !object.Valid() || seen[object.Hash] {
			continue
		}
		seen[object.Hash] = true
		objects = append(objects, object)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Hash < objects[j].Hash })
	return objects
}

func assetItems(index *AssetIndexFile, assetsDir string) []models.DownloadItem {
	objects := index.uniqueObjects()
	items := make([]models.DownloadItem, 0, len(objects))
	for _, object := range objects {
		items = append(items, models.DownloadItem{
			URL:         object.URL(),
			Destination: filepath.Join(assetsDir, "objects", object.Path()),
			Group:       models.GroupAssets,
			Sha1:        object.Hash,
			Size:        object.Size,
		})
	}
	return items
}
