package version

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func names(libraries []Library) []string {
	result := make([]string, 0, len(libraries))
	for _, library := range libraries {
		result = append(result, library.Name)
	}
	return result
}

func TestDedupeCheckedKeepsHighestVersion(t *testing.T) {
	libraries := []Library{
		{Name: "org.ow2.asm:asm:9.2"},
		{Name: "com.mojang:brigadier:1.3.10"},
		{Name: "org.ow2.asm:asm:9.5"},
	}

	deduped := DedupeChecked(libraries, NeoForgeChecked)

	assert.Equal(t, []string{"org.ow2.asm:asm:9.5", "com.mojang:brigadier:1.3.10"}, names(deduped))
}

func TestDedupeCheckedLeavesOtherKeysAlone(t *testing.T) {
	libraries := []Library{
		{Name: "com.google.guava:guava:31.1-jre"},
		{Name: "com.google.guava:guava:32.1.2-jre"},
		{Name: "org.ow2.asm:asm:9.2"},
		{Name: "org.ow2.asm:asm:9.5"},
	}

	deduped := DedupeChecked(libraries, ForgeChecked)

	assert.Equal(t, []string{"com.google.guava:guava:32.1.2-jre", "org.ow2.asm:asm:9.2", "org.ow2.asm:asm:9.5"}, names(deduped))
}

func TestMergeLibrariesPrefersContributedAsm(t *testing.T) {
	base := []Library{{Name: "org.ow2.asm:asm:9.7"}, {Name: "com.mojang:brigadier:1.3.10"}}
	extra := []Library{{Name: "org.ow2.asm:asm:9.6", URL: "https://maven.fabricmc.net/"}, {Name: "net.fabricmc:fabric-loader:0.16.5"}}

	merged := MergeLibraries(base, extra, FabricPreferred)

	assert.Equal(t, []string{"com.mojang:brigadier:1.3.10", "org.ow2.asm:asm:9.6", "net.fabricmc:fabric-loader:0.16.5"}, names(merged))
}

func TestDedupeLibrariesKeepsNatives(t *testing.T) {
	libraries := []Library{
		{Name: "com.mojang:brigadier:1.3.10"},
		{Name: "com.mojang:brigadier:1.3.10@jar"},
		{Name: "org.lwjgl:lwjgl:3.3.3:natives-linux"},
		{Name: "org.lwjgl:lwjgl:3.3.3:natives-linux"},
		{Name: "org.lwjgl.lwjgl:lwjgl-platform:2.9.4", Natives: map[string]string{"linux": "natives-linux"}},
	}

	assert.Equal(t, []string{
		"com.mojang:brigadier:1.3.10",
		"org.lwjgl:lwjgl:3.3.3:natives-linux",
		"org.lwjgl:lwjgl:3.3.3:natives-linux",
		"org.lwjgl.lwjgl:lwjgl-platform:2.9.4",
	}, names(DedupeLibraries(libraries)))
}

func TestResolveLibraries(t *testing.T) {
	libraries := []Library{
		{Name: "net.fabricmc:fabric-loader:0.16.5", URL: "https://maven.fabricmc.net/", Sha1: "aa", Size: 3},
		{Name: "com.mojang:brigadier:1.3.10"},
		{
			Name:      "org.lwjgl.lwjgl:lwjgl-platform:2.9.4",
			Natives:   map[string]string{"linux": "natives-linux", "windows": "natives-windows-${arch}"},
			Extract:   &ExtractRule{Exclude: []string{"META-INF/"}},
			Downloads: &LibraryDownloads{Classifiers: map[string]Artifact{"natives-linux": {Path: "org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-linux.jar", URL: "https://libraries.minecraft.net/l.jar", Sha1: "bb"}}},
		},
	}

	resolved := ResolveLibraries(libraries, linuxHost, nil, "/libs")
	assert.Len(t, resolved, 3)
	assert.Equal(t, "https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.16.5/fabric-loader-0.16.5.jar", resolved[0].URL)
	assert.Equal(t, "aa", resolved[0].Sha1)
	assert.Equal(t, "https://libraries.minecraft.net/com/mojang/brigadier/1.3.10/brigadier-1.3.10.jar", resolved[1].URL)
	assert.True(t, resolved[2].Native)
	assert.Equal(t, "bb", resolved[2].Sha1)
	assert.Equal(t, []string{"META-INF/"}, resolved[2].Exclude)

	windows := ResolveLibraries(libraries, windowsHost, nil, "/libs")
	assert.Equal(t, filepath.FromSlash("/libs/org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-windows-64.jar"), windows[2].Path)

	assert.Len(t, ResolveLibraries(libraries, macHost, nil, "/libs"), 2, "no osx classifier")
}

func TestClasspath(t *testing.T) {
	resolved := []ResolvedLibrary{
		{Path: "/libs/a.jar"},
		{Path: "/libs/native.jar", Native: true},
		{Path: "/libs/a.jar"},
		{Path: "/libs/b.jar"},
	}
	assert.Equal(t, []string{"/libs/a.jar", "/libs/b.jar", "/client.jar"}, Classpath(resolved, "/client.jar"))
}

func TestDedupeLibrariesKeepsHighestVersionPerCoordinate(t *testing.T) {
	libraries := []Library{
		{Name: "org.slf4j:slf4j-api:1.8.0"},
		{Name: "net.minecraftforge:forge:1.20.1-47.3.0:client"},
		{Name: "org.slf4j:slf4j-api:2.0.1"},
		{Name: "net.minecraftforge:forge:1.20.1-47.3.0:universal"},
	}

	assert.Equal(t, []string{
		"org.slf4j:slf4j-api:2.0.1",
		"net.minecraftforge:forge:1.20.1-47.3.0:client",
		"net.minecraftforge:forge:1.20.1-47.3.0:universal",
	}, names(DedupeLibraries(libraries)))
}

func TestDedupeLibrariesKeepsRuleSpecificVariants(t *testing.T) {
	osxOnly := []Rule{{Action: "allow", OS: &OSRule{Name: "osx"}}}
	notOsx := []Rule{{Action: "allow"}, {Action: "disallow", OS: &OSRule{Name: "osx"}}}
	libraries := []Library{
		{Name: "org.lwjgl:lwjgl:3.2.1", Rules: osxOnly},
		{Name: "org.lwjgl:lwjgl:3.2.2", Rules: notOsx},
	}

	deduped := DedupeLibraries(libraries)
	assert.Len(t, deduped, 2)

	osx := ResolveLibraries(deduped, Platform{OS: "osx", Arch: "arm64"}, nil, "/libs")
	assert.Equal(t, []string{filepath.FromSlash("/libs/org/lwjgl/lwjgl/3.2.1/lwjgl-3.2.1.jar")}, Classpath(osx, ""))
	linux := ResolveLibraries(deduped, linuxHost, nil, "/libs")
	assert.Equal(t, []string{filepath.FromSlash("/libs/org/lwjgl/lwjgl/3.2.2/lwjgl-3.2.2.jar")}, Classpath(linux, ""))
}

func TestClasspathKeepsOneArtifactPerCoordinate(t *testing.T) {
	resolved := []ResolvedLibrary{
		{Name: "org.slf4j:slf4j-api:1.8.0", Path: "/libs/slf4j-api-1.8.0.jar"},
		{Name: "com.mojang:brigadier:1.3.10", Path: "/libs/brigadier-1.3.10.jar"},
		{Name: "org.slf4j:slf4j-api:2.0.1", Path: "/libs/slf4j-api-2.0.1.jar"},
		{Name: "org.lwjgl:lwjgl:3.3.3", Path: "/libs/lwjgl-3.3.3.jar"},
		{Name: "org.lwjgl:lwjgl:3.3.3:natives-linux", Path: "/libs/lwjgl-3.3.3-natives-linux.jar"},
	}

	assert.Equal(t, []string{
		"/libs/slf4j-api-2.0.1.jar",
		"/libs/brigadier-1.3.10.jar",
		"/libs/lwjgl-3.3.3.jar",
		"/libs/lwjgl-3.3.3-natives-linux.jar",
		"/client.jar",
	}, Classpath(resolved, "/client.jar"))
}
