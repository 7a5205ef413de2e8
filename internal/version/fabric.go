package version

import (
	"context"
	"fmt"
	"net/url"

	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// MetaSource is a loader that publishes launch profiles as JSON, which is Fabric and Quilt.
type MetaSource struct {
	Loader models.Loader
	Base   string
	// latestQuery picks the default loader version out of the per-game loader list.
	latestQuery    string
	installerQuery string
}

var (
	FabricMeta = MetaSource{Loader: models.FABRIC, Base: "https://meta.fabricmc.net/v2", latestQuery: `#(loader.stable==true).loader.version`, installerQuery: `#(stable==true).version`}
	QuiltMeta  = MetaSource{Loader: models.QUILT, Base: "https://meta.quiltmc.org/v3", latestQuery: `0.loader.version`, installerQuery: `0.version`}
)

func MetaSourceFor(loader models.Loader) (MetaSource, bool) {
	switch loader {
	case models.FABRIC:
		return FabricMeta, true
	case models.QUILT:
		return QuiltMeta, true
	}
	return MetaSource{}, false
}

// LoaderVersion returns requested, or the default loader version for game when requested is empty.
func (s MetaSource) LoaderVersion(ctx context.Context, client httpclient.Doer, game string, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	body, err := getBody(ctx, client, fmt.Sprintf("%s/versions/loader/%s", s.Base, url.PathEscape(game)))
	if err != nil {
		return "", errors.Wrapf(err, "%s loader versions", s.Loader)
	}
	if !gjson.ValidBytes(body) {
		return "", newError(Malformed, string(s.Loader)+".versions", fmt.Errorf("invalid loader list for %s", game))
	}
	version := gjson.GetBytes(body, s.latestQuery).String()
	if version == "" {
		return "", newError(Unsupported, string(s.Loader)+".versions", fmt.Errorf("no %s loader for %s", s.Loader, game))
	}
	return version, nil
}

// InstallerVersion is the installer release servers are bootstrapped with.
func (s MetaSource) InstallerVersion(ctx context.Context, client httpclient.Doer) (string, error) {
	body, err := getBody(ctx, client, s.Base+"/versions/installer")
	if err != nil {
		return "", errors.Wrapf(err, "%s installer versions", s.Loader)
	}
	version := gjson.GetBytes(body, s.installerQuery).String()
	if version == "" {
		return "", newError(Unsupported, string(s.Loader)+".installer", fmt.Errorf("no %s installer release", s.Loader))
	}
	return version, nil
}

// ServerJarURL is the self-bootstrapping server launcher Fabric meta builds on demand.
func (s MetaSource) ServerJarURL(game string, loaderVersion string, installerVersion string) string {
	return fmt.Sprintf("%s/versions/loader/%s/%s/%s/server/jar", s.Base, url.PathEscape(game), url.PathEscape(loaderVersion), url.PathEscape(installerVersion))
}

func (s MetaSource) ProfileURL(game string, loaderVersion string) string {
	return fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", s.Base, url.PathEscape(game), url.PathEscape(loaderVersion))
}

func (s MetaSource) Profile(ctx context.Context, client httpclient.Doer, game string, loaderVersion string) (*Manifest, error) {
	body, err := getBody(ctx, client, s.ProfileURL(game, loaderVersion))
	if err != nil {
		return nil, errors.Wrapf(err, "%s profile", s.Loader)
	}
	profile, err := ParseManifest(body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s profile", s.Loader)
	}
	return profile, nil
}

// mergeProfile splices a loader profile into the vendor manifest. Loader arguments are appended;
// the main class is replaced when the profile names one.
func mergeProfile(base *Manifest, profile *Manifest, prefer map[string]bool) {
	if profile.MainClass != "" {
		base.MainClass = profile.MainClass
	}
	if profile.Arguments != nil {
		if base.Arguments == nil {
			base.Arguments = &Arguments{}
		}
		base.Arguments.Game = append(base.Arguments.Game, profile.Arguments.Game...)
		base.Arguments.JVM = append(base.Arguments.JVM, profile.Arguments.JVM...)
	}
	if profile.MinecraftArguments != "" {
		base.MinecraftArguments = profile.MinecraftArguments
	}
	base.Libraries = MergeLibraries(base.Libraries, profile.Libraries, prefer)
}
