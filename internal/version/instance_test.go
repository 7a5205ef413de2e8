package version

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meza/minecraft-launcher/internal/account"
	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	found, err := afero.Exists(fs, filepath.FromSlash(path))
	require.NoError(t, err)
	return found
}

func TestInstallVanilla(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	assert.Nil(t, instance.Manifest)

	report, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)
	assert.True(t, report.NewManifest)
	assert.True(t, report.Downloads.OK())

	fs := env.fs
	assert.True(t, exists(t, fs, "/data/minecraft/versions/test/1.21.1.json"))
	assert.True(t, exists(t, fs, "/data/minecraft/versions/test/1.21.1.jar"))
	assert.True(t, exists(t, fs, "/data/minecraft/versions/test/version.json"))
	assert.True(t, exists(t, fs, "/data/minecraft/libraries/com/mojang/brigadier/1.3.10/brigadier-1.3.10.jar"))
	assert.False(t, exists(t, fs, "/data/minecraft/libraries/org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-windows.jar"))
	assert.True(t, exists(t, fs, "/data/minecraft/versions/test/natives/liblwjgl.so"))
	assert.False(t, exists(t, fs, "/data/minecraft/versions/test/natives/META-INF/MANIFEST.MF"))
	assert.True(t, exists(t, fs, "/data/java/jdk-21.0.5+11/bin/java"))
	assert.True(t, exists(t, fs, "/data/minecraft/assets/indexes/17.json"))
	hash := archive.Sha1Bytes(assetBody)
	assert.True(t, exists(t, fs, "/data/minecraft/assets/objects/"+hash[:2]+"/"+hash))
	assert.True(t, exists(t, fs, "/data/minecraft/versions/test/mods"))
	assert.True(t, exists(t, fs, "/data/minecraft/versions/test/storage/datapacks"))

	options, err := afero.ReadFile(fs, instance.OptionsPath)
	require.NoError(t, err)
	assert.Equal(t, "lang:en_GB\n", string(options))

	stage, ok := report.Stage("loader")
	assert.False(t, ok, "vanilla has no loader stage")
	stage, ok = report.Stage("java")
	require.True(t, ok)
	assert.Equal(t, StageDone, stage.Status)
}

func TestInstallIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(env.fs, instance.OptionsPath, []byte("lang:hu_hu\n"), 0644))

	before := len(env.remote.requested())
	reloaded := env.instance(t, models.VANILLA, "")
	require.NotNil(t, reloaded.Manifest)

	report, err := reloaded.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)
	assert.False(t, report.NewManifest)
	assert.Equal(t, before, len(env.remote.requested()), "nothing is fetched twice")
	assert.Equal(t, report.Downloads.Info.TotalItems, report.Downloads.Info.CompletedItems)

	options, err := afero.ReadFile(env.fs, instance.OptionsPath)
	require.NoError(t, err)
	assert.Equal(t, "lang:hu_hu\n", string(options), "player options are never overwritten")
}

func TestRunCommand(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)

	player := account.NewOffline("Steve")
	command, err := instance.RunCommand(RunOptions{Account: player})
	require.NoError(t, err)

	joined := strings.Join(command, " ")
	assert.Equal(t, instance.Java.JavaPath, command[0])
	assert.Equal(t, "-Xmx2048M", command[1])
	assert.NotContains(t, joined, "${")
	assert.NotContains(t, joined, "-XstartOnFirstThread")
	assert.NotContains(t, joined, "--clientId")
	assert.NotContains(t, joined, "--width")
	assert.Contains(t, command, "net.minecraft.client.main.Main")
	assert.Contains(t, command, "Steve")
	assert.Contains(t, command, "1.21.1")
	assert.Contains(t, command, player.CompactUUID())
	assert.Contains(t, command, "legacy")
	assert.Contains(t, joined, "-Dminecraft.launcher.brand=mml")

	classpath := command[indexOf(command, "-cp")+1]
	entries := strings.Split(classpath, ":")
	assert.Equal(t, instance.ClientJar, entries[len(entries)-1])
	assert.Contains(t, classpath, "brigadier-1.3.10.jar")
	assert.NotContains(t, classpath, "natives")
}

func indexOf(values []string, target string) int {
	for index, value := range values {
		if value == target {
			return index
		}
	}
	return -1
}

func TestRunCommandVariants(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)

	t.Run("relative", func(t *testing.T) {
		command, err := instance.RunCommand(RunOptions{Account: account.NewOffline("Steve"), Relative: true})
		require.NoError(t, err)
		assert.Equal(t, "${java_path}", command[0])
		assert.Equal(t, filepath.Join("${minecraft_directory}", "versions", "test"), command[indexOf(command, "--gameDir")+1])
		assert.NotContains(t, strings.Join(command, " "), "/data/minecraft")
	})

	t.Run("resolution and quick play", func(t *testing.T) {
		command, err := instance.RunCommand(RunOptions{
			Account:   account.NewOffline("Steve"),
			Width:     1280,
			Height:    720,
			QuickPlay: &QuickPlay{Multiplayer: "mc.example.org:25566"},
		})
		require.NoError(t, err)
		assert.Equal(t, "1280", command[indexOf(command, "--width")+1])
		assert.Equal(t, "mc.example.org:25566", command[indexOf(command, "--quickPlayMultiplayer")+1])
		assert.Equal(t, -1, indexOf(command, "--server"))
	})

	t.Run("requires account", func(t *testing.T) {
		_, err := instance.RunCommand(RunOptions{})
		assert.Equal(t, NotConfigured, KindOf(err))
	})
}

func TestLegacyManifestRunCommand(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	instance.setManifest(&Manifest{
		ID:                 "1.7.10",
		MainClass:          "net.minecraft.client.main.Main",
		MinecraftArguments: "--username ${auth_player_name} --version ${version_name} --session ${auth_session}",
		Type:               "release",
	})

	command, err := instance.RunCommand(RunOptions{Account: account.NewOffline("Alex"), QuickPlay: &QuickPlay{Multiplayer: "play.example.org"}})
	require.NoError(t, err)

	assert.Contains(t, command[0], filepath.Join("jdk8u432-b06", "bin", "java"))
	assert.Equal(t, "-Djava.library.path="+instance.NativesDir, command[2])
	assert.Equal(t, "-cp", command[3])
	assert.Equal(t, []string{"--server", "play.example.org", "--port", "25565"}, command[len(command)-4:])
	assert.Contains(t, command, "Alex")
	assert.Contains(t, command, "1.7.10")
}

func TestRunCommandWithoutManifest(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	_, err := instance.RunCommand(RunOptions{Account: account.NewOffline("Steve")})
	assert.Equal(t, NotConfigured, KindOf(err))
}

func TestRunCommandInjectsAuthlibAgent(t *testing.T) {
	env := newTestEnv(t)
	env.remote.putJSON(t, "https://authlib-injector.yushi.moe/artifact/latest.json", map[string]any{
		"version":      "1.2.5",
		"download_url": "https://authlib-injector.yushi.moe/artifact/53/authlib-injector-1.2.5.jar",
		"checksums":    map[string]string{"sha256": ""},
	})
	env.remote.put("https://authlib-injector.yushi.moe/artifact/53/authlib-injector-1.2.5.jar", []byte("agent"))

	player := account.Account{Nickname: "Kim", UUID: "0f0e", AccessToken: "t", Provider: account.Authlib, AuthServer: "https://auth.example/api/yggdrasil"}
	instance := env.instance(t, models.VANILLA, "")
	report, err := instance.Install(context.Background(), player)
	require.NoError(t, err)
	stage, ok := report.Stage("authlib")
	require.True(t, ok)
	assert.Equal(t, "1.2.5", stage.Detail)

	jar := filepath.FromSlash("/data/minecraft/libraries/moe/yushi/authlibinjector/1.2.5/authlibinjector-1.2.5.jar")
	assert.True(t, exists(t, env.fs, jar))

	command, err := instance.RunCommand(RunOptions{Account: player})
	require.NoError(t, err)
	assert.Equal(t, "-javaagent:"+jar+"=https://auth.example/api/yggdrasil", command[1])
	assert.Equal(t, "-Xmx2048M", command[2])
}

func TestInstallFabric(t *testing.T) {
	env := newTestEnv(t)
	env.remote.put("https://meta.fabricmc.net/v2/versions/loader/1.21.1", []byte(`[
		{"loader": {"version": "0.16.6", "stable": false}},
		{"loader": {"version": "0.16.5", "stable": true}}
	]`))
	env.remote.put("https://meta.fabricmc.net/v2/versions/loader/1.21.1/0.16.5/profile/json", []byte(`{
		"id": "fabric-loader-0.16.5-1.21.1",
		"inheritsFrom": "1.21.1",
		"mainClass": "net.fabricmc.loader.impl.launch.knot.KnotClient",
		"arguments": {"game": [], "jvm": ["-DFabricMcEmu= net.minecraft.client.main.Main "]},
		"libraries": [
			{"name": "org.ow2.asm:asm:9.7.1", "url": "https://maven.fabricmc.net/"},
			{"name": "net.fabricmc:fabric-loader:0.16.5", "url": "https://maven.fabricmc.net/"}
		]
	}`))
	env.remote.put("https://maven.fabricmc.net/org/ow2/asm/asm/9.7.1/asm-9.7.1.jar", []byte("asm"))
	env.remote.put("https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.16.5/fabric-loader-0.16.5.jar", []byte("loader"))

	instance := env.instance(t, models.FABRIC, "")
	report, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)

	stage, _ := report.Stage("loader")
	assert.Equal(t, "0.16.5", stage.Detail)
	assert.Equal(t, "0.16.5", instance.Config.LoaderVersion)
	assert.Equal(t, "net.fabricmc.loader.impl.launch.knot.KnotClient", instance.Manifest.MainClass)
	assert.True(t, exists(t, env.fs, "/data/minecraft/libraries/net/fabricmc/fabric-loader/0.16.5/fabric-loader-0.16.5.jar"))

	reloaded, err := Load(context.Background(), "test", env.deps)
	require.NoError(t, err)
	assert.Equal(t, "0.16.5", reloaded.Config.LoaderVersion)
	assert.Equal(t, "net.fabricmc.loader.impl.launch.knot.KnotClient", reloaded.Manifest.MainClass)

	command, err := reloaded.RunCommand(RunOptions{Account: account.NewOffline("Steve")})
	require.NoError(t, err)
	assert.Contains(t, command, "-DFabricMcEmu= net.minecraft.client.main.Main ")

	report, err = reloaded.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)
	_, merged := report.Stage("loader")
	assert.False(t, merged, "a cached manifest is never merged twice")
	assert.Len(t, reloaded.Manifest.Arguments.JVM, len(env.manifest.Arguments.JVM)+1)
}

func TestInstallLoaderFailureForgetsManifest(t *testing.T) {
	env := newTestEnv(t)
	env.remote.put("https://meta.fabricmc.net/v2/versions/loader/1.21.1", []byte(`[]`))

	instance := env.instance(t, models.FABRIC, "")
	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	assert.Equal(t, Unsupported, KindOf(err))
	assert.False(t, exists(t, env.fs, "/data/minecraft/versions/test/1.21.1.json"))
	assert.Nil(t, instance.Manifest)
}

const forgeProfile = `{
	"id": "1.21.1-forge-52.0.1",
	"inheritsFrom": "1.21.1",
	"mainClass": "net.minecraftforge.bootstrap.ForgeBootstrap",
	"arguments": {"game": ["--launchTarget", "forge_client"], "jvm": ["-Djava.net.preferIPv6Addresses=system"]},
	"libraries": [
		{"name": "com.google.guava:guava:32.1.2-jre", "downloads": {"artifact": {"path": "com/google/guava/guava/32.1.2-jre/guava-32.1.2-jre.jar", "url": "https://libraries.minecraft.net/com/google/guava/guava/32.1.2-jre/guava-32.1.2-jre.jar"}}},
		{"name": "net.minecraftforge:forge:1.21.1-52.0.1:client", "downloads": {"artifact": {"path": "net/minecraftforge/forge/1.21.1-52.0.1/forge-1.21.1-52.0.1-client.jar", "url": ""}}}
	]
}`

const forgeInstallerURL = "https://maven.minecraftforge.net/net/minecraftforge/forge/1.21.1-52.0.1/forge-1.21.1-52.0.1-installer.jar"

func TestInstallForgeRunsInstaller(t *testing.T) {
	env := newTestEnv(t)
	env.remote.put(forgeInstallerURL, zipBytes(t, map[string]string{"install_profile.json": `{}`}))
	env.remote.put("https://libraries.minecraft.net/com/google/guava/guava/32.1.2-jre/guava-32.1.2-jre.jar", []byte("guava 32"))

	runner := &recordingRunner{run: func(dir string, args []string) error {
		files := map[string]string{
			"versions/1.21.1-forge-52.0.1/1.21.1-forge-52.0.1.json": forgeProfile,
			"versions/1.21.1/1.21.1.jar":                            "patched client",
			"libraries/net/minecraftforge/forge/1.21.1-52.0.1/forge-1.21.1-52.0.1-client.jar": "forge",
		}
		for name, content := range files {
			target := filepath.Join(dir, filepath.FromSlash(name))
			if err := env.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := afero.WriteFile(env.fs, target, []byte(content), 0644); err != nil {
				return err
			}
		}
		return nil
	}}
	env.deps.Runner = runner

	instance := env.instance(t, models.FORGE, "52.0.1")
	report, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, instance.Java.ServerJavaPath, call[0])
	assert.Equal(t, "--installClient", call[3])

	assert.Equal(t, "net.minecraftforge.bootstrap.ForgeBootstrap", instance.Manifest.MainClass)
	guava := versionsOf(instance.Manifest.Libraries, "com.google.guava:guava")
	assert.Equal(t, []string{"32.1.2-jre"}, guava)

	client, err := afero.ReadFile(env.fs, instance.ClientJar)
	require.NoError(t, err)
	assert.Equal(t, "patched client", string(client), "the installer's client jar is not re-downloaded")
	assert.True(t, exists(t, env.fs, "/data/minecraft/libraries/net/minecraftforge/forge/1.21.1-52.0.1/forge-1.21.1-52.0.1-client.jar"))
	assert.False(t, exists(t, env.fs, "/data/minecraft/versions/test/.installer"))
	assert.False(t, exists(t, env.fs, "/data/minecraft/versions/test/forge-installer.jar"))

	stage, _ := report.Stage("loader")
	assert.Equal(t, "52.0.1", stage.Detail)
	assert.NotContains(t, env.remote.requested(), clientURL)
}

func TestInstallForgeFallsBackToInstallProfile(t *testing.T) {
	env := newTestEnv(t)
	env.remote.put(forgeInstallerURL, zipBytes(t, map[string]string{
		"install_profile.json": `{"spec": 1, "json": "/version.json"}`,
		"version.json":         forgeProfile,
	}))
	env.remote.put("https://libraries.minecraft.net/com/google/guava/guava/32.1.2-jre/guava-32.1.2-jre.jar", []byte("guava 32"))
	env.deps.Runner = &recordingRunner{run: func(string, []string) error { return errors.New("exit status 1") }}

	instance := env.instance(t, models.FORGE, "52.0.1")
	report, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)

	stage, _ := report.Stage("loader")
	assert.Contains(t, stage.Detail, "install profile")
	assert.Equal(t, "net.minecraftforge.bootstrap.ForgeBootstrap", instance.Manifest.MainClass)
	assert.Contains(t, env.remote.requested(), clientURL, "the client jar is still downloaded")
}

func TestInstallerFallbackLegacyProfile(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.FORGE, "10.13.4.1614")
	installer := "/tmp/forge-installer.jar"
	require.NoError(t, afero.WriteFile(env.fs, installer, zipBytes(t, map[string]string{
		"install_profile.json": `{
			"install": {"path": "net.minecraftforge:forge:1.7.10-10.13.4.1614-1.7.10", "filePath": "forge-1.7.10-10.13.4.1614-1.7.10-universal.jar"},
			"versionInfo": {"id": "1.7.10-Forge10.13.4.1614-1.7.10", "mainClass": "net.minecraft.launchwrapper.Launch",
				"minecraftArguments": "--username ${auth_player_name} --tweakClass cpw.mods.fml.common.launcher.FMLTweaker",
				"libraries": [{"name": "net.minecraftforge:forge:1.7.10-10.13.4.1614-1.7.10"}, {"name": "net.minecraft:launchwrapper:1.12"}]}
		}`,
		"forge-1.7.10-10.13.4.1614-1.7.10-universal.jar": "universal",
	}), 0644))

	outcome, err := instance.installerFallback(context.Background(), installer)
	require.NoError(t, err)
	assert.True(t, outcome.fallback)
	assert.False(t, outcome.clientProvided)
	assert.Equal(t, "net.minecraft.launchwrapper.Launch", outcome.profile.MainClass)
	assert.Contains(t, outcome.profile.MinecraftArguments, "FMLTweaker")
	assert.True(t, exists(t, env.fs, "/data/minecraft/libraries/net/minecraftforge/forge/1.7.10-10.13.4.1614-1.7.10/forge-1.7.10-10.13.4.1614-1.7.10.jar"))

	require.NoError(t, afero.WriteFile(env.fs, installer, zipBytes(t, map[string]string{"install_profile.json": `{"spec": 1}`}), 0644))
	_, err = instance.installerFallback(context.Background(), installer)
	assert.Equal(t, Malformed, KindOf(err))
}

func versionsOf(libraries []Library, key string) []string {
	versions := make([]string, 0)
	for _, library := range libraries {
		if libraryKey(library) == key {
			versions = append(versions, libraryVersion(library))
		}
	}
	return versions
}

func TestInstallRefusesConcurrentInstall(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	unlock, ok := tryLock(instance.Dir)
	require.True(t, ok)
	defer unlock()

	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	assert.Equal(t, Busy, KindOf(err))
	assert.ErrorIs(t, err, &Error{Kind: Busy})
}

func TestInstallReportsPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	env.remote.mu.Lock()
	delete(env.remote.files, brigadierURL)
	env.remote.mu.Unlock()

	instance := env.instance(t, models.VANILLA, "")
	report, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	assert.Equal(t, Partial, KindOf(err))
	assert.Len(t, report.Downloads.Failed(), 1)
	assert.True(t, exists(t, env.fs, "/data/minecraft/versions/test/1.21.1.jar"), "other items still land")
	assert.True(t, exists(t, env.fs, "/data/minecraft/versions/test/version.json"))
}

func TestInstallCancelled(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	instance := env.instance(t, models.VANILLA, "")
	_, err := instance.Install(ctx, account.NewOffline("Steve"))
	assert.Equal(t, Cancelled, KindOf(err))
}

func TestInstallUnknownVersion(t *testing.T) {
	env := newTestEnv(t)
	instance := New(models.VersionConfiguration{Name: "old", GameVersion: "0.0.1"}, env.deps)
	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	assert.Equal(t, Unsupported, KindOf(err))
}

func TestInstallProjects(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	instance.Config.Projects = []models.ProjectReference{
		{Provider: models.MODRINTH, ProjectID: "AANobbMI", Kind: models.KindMod, File: models.ProjectFile{FileName: "sodium.jar", URL: "blocked::sodium"}},
		{Provider: models.LOCAL, ProjectID: "pack", Kind: models.KindResourcePack, File: models.ProjectFile{FileName: "pack.zip", URL: "file:///srv/pack.zip"}},
	}
	require.NoError(t, afero.WriteFile(env.fs, "/srv/pack.zip", []byte("pack"), 0644))

	items := instance.projectItems()
	require.Len(t, items, 2)
	assert.Equal(t, filepath.FromSlash("/data/minecraft/versions/test/mods/sodium.jar"), items[0].Destination)
	assert.Equal(t, filepath.FromSlash("/data/minecraft/versions/test/resourcepacks/pack.zip"), items[1].Destination)

	report, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	assert.Equal(t, Partial, KindOf(err), "blocked mods need manual action")
	assert.Len(t, report.Downloads.Blocked(), 1)
	assert.True(t, exists(t, env.fs, "/data/minecraft/versions/test/resourcepacks/pack.zip"))
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	instance := env.instance(t, models.VANILLA, "")
	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)

	brigadier := "/data/minecraft/libraries/com/mojang/brigadier/1.3.10/brigadier-1.3.10.jar"
	require.NoError(t, instance.Delete(context.Background(), false))
	assert.False(t, exists(t, env.fs, "/data/minecraft/versions/test"))
	assert.True(t, exists(t, env.fs, brigadier))

	_, err = instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)
	require.NoError(t, instance.Delete(context.Background(), true))
	assert.False(t, exists(t, env.fs, brigadier))
	hash := archive.Sha1Bytes(assetBody)
	assert.False(t, exists(t, env.fs, "/data/minecraft/assets/objects/"+hash[:2]+"/"+hash))
	assert.False(t, exists(t, env.fs, "/data/minecraft/assets/indexes/17.json"))
}

func TestRunUsesRunner(t *testing.T) {
	env := newTestEnv(t)
	runner := &recordingRunner{}
	env.deps.Runner = runner
	instance := env.instance(t, models.VANILLA, "")
	_, err := instance.Install(context.Background(), account.NewOffline("Steve"))
	require.NoError(t, err)

	require.NoError(t, instance.Run(context.Background(), RunOptions{Account: account.NewOffline("Steve"), Relative: true}))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, instance.Java.JavaPath, runner.calls[0][0], "Run always uses absolute paths")
}

func TestInitRejectsIncompleteConfig(t *testing.T) {
	env := newTestEnv(t)
	instance := New(models.VersionConfiguration{Name: "x"}, env.deps)
	assert.Equal(t, NotConfigured, KindOf(instance.Init(context.Background())))
	assert.Equal(t, NotConfigured, KindOf(instance.Delete(context.Background(), true)))
}

func TestLoadMissingInstance(t *testing.T) {
	env := newTestEnv(t)
	_, err := Load(context.Background(), "nope", env.deps)
	assert.Equal(t, NotConfigured, KindOf(err))
}
