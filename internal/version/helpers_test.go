package version

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/minecraft"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"shanhu.io/g/https/httpstest"
)

var testHosts = []string{
	"piston-meta.mojang.com",
	"piston-data.mojang.com",
	"libraries.minecraft.net",
	"resources.download.minecraft.net",
	"github.com",
	"meta.fabricmc.net",
	"maven.fabricmc.net",
	"maven.minecraftforge.net",
	"authlib-injector.yushi.moe",
}

// remote is an in-memory internet: host+path to body.
type remote struct {
	mu       sync.Mutex
	files    map[string][]byte
	requests []string
}

func (r *remote) put(url string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[url] = body
}

func (r *remote) putJSON(t *testing.T, url string, value any) []byte {
	t.Helper()
	body, err := json.Marshal(value)
	require.NoError(t, err)
	r.put(url, body)
	return body
}

func (r *remote) requested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.requests...)
}

func (r *remote) ServeHTTP(w http.ResponseWriter, request *http.Request) {
	key := "https://" + request.Host + request.URL.Path
	r.mu.Lock()
	r.requests = append(r.requests, key)
	body, ok := r.files[key]
	r.mu.Unlock()
	if !ok {
		http.NotFound(w, request)
		return
	}
	_, _ = w.Write(body)
}

type testEnv struct {
	fs       afero.Fs
	layout   config.Layout
	remote   *remote
	deps     Deps
	manifest *Manifest
}

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
	run   func(dir string, args []string) error
}

func (r *recordingRunner) Run(_ context.Context, dir string, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.run != nil {
		return r.run(dir, args)
	}
	return nil
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for name, content := range entries {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func jdkArchive(t *testing.T) []byte {
	t.Helper()
	var buffer bytes.Buffer
	gz := gzip.NewWriter(&buffer)
	writer := tar.NewWriter(gz)
	body := []byte("#!/bin/sh\n")
	require.NoError(t, writer.WriteHeader(&tar.Header{Name: "jdk-21.0.5+11/bin/java", Mode: 0755, Size: int64(len(body)), Typeflag: tar.TypeReg}))
	_, err := writer.Write(body)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, gz.Close())
	return buffer.Bytes()
}

const (
	brigadierURL = "https://libraries.minecraft.net/com/mojang/brigadier/1.3.10/brigadier-1.3.10.jar"
	guavaURL     = "https://libraries.minecraft.net/com/google/guava/guava/31.1-jre/guava-31.1-jre.jar"
	nativesURL   = "https://libraries.minecraft.net/org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-linux.jar"
	windowsURL   = "https://libraries.minecraft.net/org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-windows.jar"
	clientURL    = "https://piston-data.mojang.com/v1/objects/c1/client.jar"
	manifestURL  = "https://piston-meta.mojang.com/v1/packages/m1/1.21.1.json"
	assetURL     = "https://piston-meta.mojang.com/v1/packages/a1/17.json"
	javaURL      = "https://github.com/adoptium/temurin21-binaries/releases/download/jdk-21.0.5+11/OpenJDK21U-jdk_x64_linux_hotspot_21.0.5_11.tar.gz"
)

var assetBody = []byte("pretty icon")

func mavenArtifact(name string, url string, body []byte) Library {
	coordinate, _ := ParseCoordinate(name)
	return Library{Name: name, Downloads: &LibraryDownloads{Artifact: &Artifact{
		Path: coordinate.Path(),
		URL:  url,
		Sha1: archive.Sha1Bytes(body),
		Size: int64(len(body)),
	}}}
}

// newTestEnv publishes a small but complete 1.21.1 release behind the real vendor hostnames.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	minecraft.ClearManifestCache()
	t.Cleanup(minecraft.ClearManifestCache)

	r := &remote{files: make(map[string][]byte)}
	server, err := httpstest.NewServer(testHosts, r)
	require.NoError(t, err)
	t.Cleanup(server.Close)

	brigadier := []byte("brigadier classes")
	guava := []byte("guava 31 classes")
	natives := zipBytes(t, map[string]string{"liblwjgl.so": "elf", "META-INF/MANIFEST.MF": "Manifest-Version: 1.0"})
	client := []byte("client classes")
	r.put(brigadierURL, brigadier)
	r.put(guavaURL, guava)
	r.put(nativesURL, natives)
	r.put(clientURL, client)
	jdk := jdkArchive(t)
	r.put(javaURL, jdk)
	r.put(javaURL+".sha256.txt", []byte(archive.Sha256Bytes(jdk)+"  OpenJDK21U-jdk_x64_linux_hotspot_21.0.5_11.tar.gz\n"))

	assetHash := archive.Sha1Bytes(assetBody)
	r.put("https://resources.download.minecraft.net/"+assetHash[:2]+"/"+assetHash, assetBody)
	assetIndex := r.putJSON(t, assetURL, AssetIndexFile{Objects: map[string]AssetObject{
		"icons/icon.png":      {Hash: assetHash, Size: int64(len(assetBody))},
		"icons/duplicate.png": {Hash: assetHash, Size: int64(len(assetBody))},
	}})

	nativeLibrary := Library{
		Name:    "org.lwjgl.lwjgl:lwjgl-platform:2.9.4",
		Natives: map[string]string{"linux": "natives-linux", "windows": "natives-windows"},
		Extract: &ExtractRule{Exclude: []string{"META-INF/"}},
		Downloads: &LibraryDownloads{Classifiers: map[string]Artifact{
			"natives-linux": {Path: "org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-linux.jar", URL: nativesURL, Sha1: archive.Sha1Bytes(natives), Size: int64(len(natives))},
		}},
	}
	windowsOnly := mavenArtifact("org.lwjgl:lwjgl:3.3.3:natives-windows", windowsURL, []byte("dll"))
	windowsOnly.Rules = []Rule{{Action: "allow", OS: &OSRule{Name: "windows"}}}

	manifest := &Manifest{
		ID:        "1.21.1",
		Type:      "release",
		MainClass: "net.minecraft.client.main.Main",
		Arguments: &Arguments{
			Game: []Argument{
				Literal("--username"), Literal("${auth_player_name}"),
				Literal("--version"), Literal("${version_name}"),
				Literal("--gameDir"), Literal("${game_directory}"),
				Literal("--assetsDir"), Literal("${assets_root}"),
				Literal("--assetIndex"), Literal("${assets_index_name}"),
				Literal("--uuid"), Literal("${auth_uuid}"),
				Literal("--accessToken"), Literal("${auth_access_token}"),
				Literal("--clientId"), Literal("${clientid}"),
				Literal("--xuid"), Literal("${auth_xuid}"),
				Literal("--userType"), Literal("${user_type}"),
				Literal("--versionType"), Literal("${version_type}"),
				Conditional([]Rule{{Action: "allow", Features: map[string]bool{"has_custom_resolution": true}}}, "--width", "${resolution_width}", "--height", "${resolution_height}"),
				Conditional([]Rule{{Action: "allow", Features: map[string]bool{"is_quick_play_multiplayer": true}}}, "--quickPlayMultiplayer", "${quickPlayMultiplayer}"),
			},
			JVM: []Argument{
				Conditional([]Rule{{Action: "allow", OS: &OSRule{Name: "osx"}}}, "-XstartOnFirstThread"),
				Literal("-Djava.library.path=${natives_directory}"),
				Literal("-Dminecraft.launcher.brand=${launcher_name}"),
				Literal("-cp"), Literal("${classpath}"),
			},
		},
		Libraries: []Library{
			mavenArtifact("com.mojang:brigadier:1.3.10", brigadierURL, brigadier),
			mavenArtifact("com.google.guava:guava:31.1-jre", guavaURL, guava),
			nativeLibrary,
			windowsOnly,
		},
		AssetIndex:  &AssetIndex{ID: "17", URL: assetURL, Sha1: archive.Sha1Bytes(assetIndex), Size: int64(len(assetIndex))},
		Assets:      "17",
		Downloads:   &Downloads{Client: &Download{URL: clientURL, Sha1: archive.Sha1Bytes(client), Size: int64(len(client))}},
		JavaVersion: &JavaVersion{Component: "java-runtime-delta", MajorVersion: 21},
	}
	manifestBody := r.putJSON(t, manifestURL, manifest)
	r.putJSON(t, "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json", minecraft.VersionList{
		Latest:   minecraft.Latest{Release: "1.21.1"},
		Versions: []minecraft.Entry{{ID: "1.21.1", Type: "release", URL: manifestURL, Sha1: archive.Sha1Bytes(manifestBody)}},
	})

	fs := afero.NewMemMapFs()
	layout := config.NewLayout("/data")
	settings := config.Settings{DownloadLimit: 4, Language: "en-GB", MemoryMB: 2048, LauncherName: "mml", LauncherVersion: "1.0.0"}
	deps := Deps{
		Fs:       fs,
		Layout:   layout,
		Settings: settings,
		Client:   server.Client(),
		Downloader: downloader.New(downloader.Options{
			Fs:      fs,
			Client:  server.Client(),
			Backoff: func(int) time.Duration { return 0 },
		}),
		Runner:   &recordingRunner{},
		Platform: Platform{OS: "linux", Arch: "x86_64"},
	}
	return &testEnv{fs: fs, layout: layout, remote: r, deps: deps, manifest: manifest}
}

func (env *testEnv) instance(t *testing.T, loader models.Loader, loaderVersion string) *Instance {
	t.Helper()
	instance := New(models.VersionConfiguration{Name: "test", GameVersion: "1.21.1", Loader: loader, LoaderVersion: loaderVersion}, env.deps)
	require.NoError(t, instance.Init(context.Background()))
	return instance
}
