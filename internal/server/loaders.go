package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/spf13/afero"
)

var QuiltInstallerMaven = "https://maven.quiltmc.org/repository/release/org/quiltmc/quilt-installer"

const (
	quiltLauncherJar        = "quilt-server-launch.jar"
	quiltVanillaJar         = "vanilla-server.jar"
	quiltLauncherProperties = "quilt-server-launcher.properties"
)

func (s *Installer) installVanilla(ctx context.Context, request Request) error {
	manifest, err := version.FetchManifest(ctx, s.deps.Client, request.GameVersion)
	if err != nil {
		return err
	}
	if manifest.Downloads == nil || manifest.Downloads.Server == nil || manifest.Downloads.Server.URL == "" {
		return tagged(version.Unsupported, "server.vanilla", fmt.Errorf("%s has no server download", request.GameVersion))
	}
	server := manifest.Downloads.Server
	return s.download(ctx, "server.vanilla", models.DownloadItem{
		URL:         server.URL,
		Destination: filepath.Join(request.Dir, JarName),
		Group:       models.GroupServer,
		Sha1:        server.Sha1,
		Size:        server.Size,
	})
}

// installFabric fetches the meta-built launcher, which downloads the vanilla server on first start.
func (s *Installer) installFabric(ctx context.Context, request Request) (string, error) {
	meta := version.FabricMeta
	loaderVersion, err := meta.LoaderVersion(ctx, s.deps.Client, request.GameVersion, request.LoaderVersion)
	if err != nil {
		return "", version.Classify("server.fabric", err)
	}
	installerVersion, err := meta.InstallerVersion(ctx, s.deps.Client)
	if err != nil {
		return "", version.Classify("server.fabric", err)
	}
	err = s.download(ctx, "server.fabric", models.DownloadItem{
		URL:         meta.ServerJarURL(request.GameVersion, loaderVersion, installerVersion),
		Destination: filepath.Join(request.Dir, JarName),
		Group:       models.GroupServer,
	})
	return loaderVersion, err
}

func (s *Installer) installQuilt(ctx context.Context, request Request) (string, error) {
	meta := version.QuiltMeta
	loaderVersion, err := meta.LoaderVersion(ctx, s.deps.Client, request.GameVersion, request.LoaderVersion)
	if err != nil {
		return "", version.Classify("server.quilt", err)
	}
	installerVersion, err := meta.InstallerVersion(ctx, s.deps.Client)
	if err != nil {
		return "", version.Classify("server.quilt", err)
	}
	installer := filepath.Join(request.Dir, "quilt-installer.jar")
	err = s.download(ctx, "server.quilt", models.DownloadItem{
		URL:         fmt.Sprintf("%s/%s/quilt-installer-%s.jar", QuiltInstallerMaven, installerVersion, installerVersion),
		Destination: installer,
		Group:       models.GroupServer,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = s.deps.Fs.Remove(installer) }()

	err = s.run(ctx, "server.quilt", request, "-jar", installer,
		"install", "server", request.GameVersion, loaderVersion,
		"--download-server", "--install-dir="+request.Dir)
	if err != nil {
		return "", err
	}
	return loaderVersion, s.normalizeQuilt(request.Dir)
}

// normalizeQuilt moves the vanilla jar aside so the launcher can take the canonical name.
func (s *Installer) normalizeQuilt(dir string) error {
	fs := s.deps.Fs
	launcher := filepath.Join(dir, quiltLauncherJar)
	if exists, _ := afero.Exists(fs, launcher); !exists {
		return tagged(version.Malformed, "server.quilt", fmt.Errorf("installer did not produce %s", quiltLauncherJar))
	}
	canonical := filepath.Join(dir, JarName)
	if exists, _ := afero.Exists(fs, canonical); exists {
		if err := fs.Rename(canonical, filepath.Join(dir, quiltVanillaJar)); err != nil {
			return tagged(version.Unknown, "server.quilt", err)
		}
	}
	if err := fs.Rename(launcher, canonical); err != nil {
		return tagged(version.Unknown, "server.quilt", err)
	}
	properties := []byte("serverJar=" + quiltVanillaJar + "\n")
	if err := afero.WriteFile(fs, filepath.Join(dir, quiltLauncherProperties), properties, 0644); err != nil {
		return tagged(version.Unknown, "server.quilt", err)
	}
	return nil
}

func (s *Installer) installForge(ctx context.Context, loader models.Loader, request Request) (string, error) {
	op := "server." + loader.String()
	loaderVersion, err := version.InstallerVersion(ctx, s.deps.Client, loader, request.GameVersion, request.LoaderVersion)
	if err != nil {
		return "", version.Classify(op, err)
	}
	installer := filepath.Join(request.Dir, loader.String()+"-installer.jar")
	err = s.download(ctx, op, models.DownloadItem{
		URL:         version.InstallerURL(loader, request.GameVersion, loaderVersion),
		Destination: installer,
		Group:       loader.String(),
	})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = s.deps.Fs.Remove(installer)
		_ = s.deps.Fs.Remove(installer + ".log")
	}()

	if err := s.run(ctx, op, request, "-jar", installer, "--installServer", request.Dir); err != nil {
		return "", err
	}
	if scripts := s.presentScripts(request.Dir); len(scripts) > 0 {
		return loaderVersion, nil
	}
	return loaderVersion, s.normalizeForgeJar(loader, request.Dir)
}

// normalizeForgeJar renames the monolithic loader jar older installers leave behind.
func (s *Installer) normalizeForgeJar(loader models.Loader, dir string) error {
	entries, err := afero.ReadDir(s.deps.Fs, dir)
	if err != nil {
		return tagged(version.Unknown, "server.normalize", err)
	}
	prefix := loader.String() + "-"
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".jar") || strings.Contains(name, "installer") {
			continue
		}
		if err := s.deps.Fs.Rename(filepath.Join(dir, name), filepath.Join(dir, JarName)); err != nil {
			return tagged(version.Unknown, "server.normalize", err)
		}
		return nil
	}
	return tagged(version.Malformed, "server.normalize", errors.New("installer left no "+prefix+"*.jar or start scripts"))
}
