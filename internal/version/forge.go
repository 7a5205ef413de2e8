package version

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/fileutils"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ForgeMaven       = "https://maven.minecraftforge.net"
	ForgePromotions  = "https://files.minecraftforge.net/net/minecraftforge/forge/promotions_slim.json"
	NeoForgeMaven    = "https://maven.neoforged.net/releases"
	NeoForgeVersions = "https://maven.neoforged.net/api/maven/versions/releases/net/neoforged/neoforge"
)

// InstallerURL locates the installer jar of a Forge or NeoForge release.
func InstallerURL(loader models.Loader, game string, loaderVersion string) string {
	if loader == models.NEOFORGE {
		return fmt.Sprintf("%s/net/neoforged/neoforge/%s/neoforge-%s-installer.jar", NeoForgeMaven, loaderVersion, loaderVersion)
	}
	full := forgeFullVersion(game, loaderVersion)
	return fmt.Sprintf("%s/net/minecraftforge/forge/%s/forge-%s-installer.jar", ForgeMaven, full, full)
}

func forgeFullVersion(game string, loaderVersion string) string {
	if strings.HasPrefix(loaderVersion, game+"-") {
		return loaderVersion
	}
	return game + "-" + loaderVersion
}

// InstallerVersion returns requested, or the recommended (then latest) release for game.
func InstallerVersion(ctx context.Context, client httpclient.Doer, loader models.Loader, game string, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if loader == models.NEOFORGE {
		return latestNeoForge(ctx, client, game)
	}
	body, err := getBody(ctx, client, ForgePromotions)
	if err != nil {
		return "", errors.Wrap(err, "forge promotions")
	}
	escaped := strings.ReplaceAll(game, ".", `\.`)
	for _, channel := range []string{"recommended", "latest"} {
		if version := gjson.GetBytes(body, "promos."+escaped+"-"+channel).String(); version != "" {
			return version, nil
		}
	}
	return "", newError(Unsupported, "forge.versions", fmt.Errorf("no forge release for %s", game))
}

// NeoForge numbers releases after the game version without its leading "1.": 1.21.1 ships 21.1.x.
func neoForgePrefix(game string) string {
	parts := strings.Split(strings.TrimPrefix(game, "1."), ".")
	if len(parts) == 1 {
		parts = append(parts, "0")
	}
	return parts[0] + "." + parts[1] + "."
}

func latestNeoForge(ctx context.Context, client httpclient.Doer, game string) (string, error) {
	body, err := getBody(ctx, client, NeoForgeVersions)
	if err != nil {
		return "", errors.Wrap(err, "neoforge versions")
	}
	prefix := neoForgePrefix(game)
	var stable, newest string
	for _, candidate := range gjson.GetBytes(body, "versions").Array() {
		version := candidate.String()
		if !strings.HasPrefix(version, prefix) {
			continue
		}
		if newest == "" || CompareVersions(version, newest) > 0 {
			newest = version
		}
		if !strings.Contains(version, "beta") && (stable == "" || CompareVersions(version, stable) > 0) {
			stable = version
		}
	}
	if stable != "" {
		return stable, nil
	}
	if newest != "" {
		return newest, nil
	}
	return "", newError(Unsupported, "neoforge.versions", fmt.Errorf("no neoforge release for %s", game))
}

func checkedFor(loader models.Loader) map[string]bool {
	if loader == models.NEOFORGE {
		return NeoForgeChecked
	}
	return ForgeChecked
}

// installerOutcome is what installing a Forge-style loader contributed.
type installerOutcome struct {
	profile *Manifest
	// clientProvided is true when the installer produced the client jar itself.
	clientProvided bool
	fallback       bool
}

// runInstaller drives the installer jar headlessly inside a scratch directory and harvests its
// version profile, libraries and patched client jar.
func (i *Instance) runInstaller(ctx context.Context, installer string) (*installerOutcome, error) {
	ctx, span := perf.StartSpan(ctx, "version.forge.install_client")
	defer span.End()

	fs := i.deps.Fs
	workdir := filepath.Join(i.Dir, ".installer")
	defer func() { _ = fs.RemoveAll(workdir) }()

	if err := fs.MkdirAll(workdir, 0755); err != nil {
		return nil, err
	}
	if err := afero.WriteFile(fs, filepath.Join(workdir, "launcher_profiles.json"), []byte(`{"profiles":{}}`), 0644); err != nil {
		return nil, err
	}
	if err := i.deps.Runner.Run(ctx, workdir, i.Java.ServerJavaPath, "-jar", installer, "--installClient", workdir); err != nil {
		return nil, errors.Wrap(err, "installer")
	}

	game := i.Config.GameVersion
	versionsDir := filepath.Join(workdir, "versions")
	entries, err := afero.ReadDir(fs, versionsDir)
	if err != nil {
		return nil, errors.Wrap(err, "installer produced no versions")
	}
	var profile *Manifest
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == game {
			continue
		}
		candidate, readErr := ReadManifest(ctx, fs, filepath.Join(versionsDir, entry.Name(), entry.Name()+".json"))
		if readErr == nil {
			profile = candidate
			break
		}
	}
	if profile == nil {
		return nil, fmt.Errorf("installer produced no %s profile", i.Config.EffectiveLoader())
	}

	if exists, _ := afero.DirExists(fs, filepath.Join(workdir, "libraries")); exists {
		if err := fileutils.CopyTree(fs, filepath.Join(workdir, "libraries"), i.deps.Layout.LibrariesDir()); err != nil {
			return nil, errors.Wrap(err, "copy installer libraries")
		}
	}

	outcome := &installerOutcome{profile: profile}
	producedClient := filepath.Join(versionsDir, game, game+".jar")
	if exists, _ := afero.Exists(fs, producedClient); exists {
		if _, err := fileutils.CopyFile(fs, producedClient, i.ClientJar); err != nil {
			return nil, errors.Wrap(err, "copy client jar")
		}
		outcome.clientProvided = true
	}
	span.SetAttributes(attribute.Bool("client_provided", outcome.clientProvided))
	return outcome, nil
}

// installerFallback reads install_profile.json straight out of the installer. Modern installers
// point at an embedded version.json; legacy ones embed versionInfo and a universal jar. The
// result lacks anything the installer's processors would have generated.
func (i *Instance) installerFallback(ctx context.Context, installer string) (*installerOutcome, error) {
	_, span := perf.StartSpan(ctx, "version.forge.install_profile")
	defer span.End()

	fs := i.deps.Fs
	profile, err := archive.Query(fs, installer, "install_profile.json", "@this")
	if err != nil {
		return nil, newError(Malformed, "forge.install_profile", err)
	}

	if embedded := profile.Get("json").String(); embedded != "" {
		data, err := archive.ReadFile(fs, installer, strings.TrimPrefix(embedded, "/"))
		if err != nil {
			return nil, newError(Malformed, "forge.install_profile", err)
		}
		manifest, err := ParseManifest(data)
		if err != nil {
			return nil, newError(Malformed, "forge.install_profile", err)
		}
		return &installerOutcome{profile: manifest, fallback: true}, nil
	}

	info := profile.Get("versionInfo")
	if !info.Exists() {
		return nil, newError(Malformed, "forge.install_profile", errors.New("install_profile.json has neither json nor versionInfo"))
	}
	manifest, err := ParseManifest([]byte(info.Raw))
	if err != nil {
		return nil, newError(Malformed, "forge.install_profile", err)
	}

	filePath := profile.Get("install.filePath").String()
	name := profile.Get("install.path").String()
	if filePath != "" && name != "" {
		coordinate, err := ParseCoordinate(name)
		if err != nil {
			return nil, newError(Malformed, "forge.install_profile", err)
		}
		data, err := archive.ReadFile(fs, installer, filePath)
		if err != nil {
			return nil, newError(Malformed, "forge.install_profile", err)
		}
		target := filepath.Join(i.deps.Layout.LibrariesDir(), filepath.FromSlash(coordinate.Path()))
		if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, err
		}
		if err := afero.WriteFile(fs, target, data, os.FileMode(0644)); err != nil {
			return nil, err
		}
	}
	return &installerOutcome{profile: manifest, fallback: true}, nil
}

// mergeInstallerProfile splices the loader profile in and collapses the loader's checked
// coordinate groups to their highest version.
func mergeInstallerProfile(base *Manifest, profile *Manifest, loader models.Loader) {
	mergeProfile(base, profile, nil)
	base.Libraries = DedupeChecked(base.Libraries, checkedFor(loader))
}
