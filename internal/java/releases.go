package java

import (
	"fmt"
	"net/url"
	"strings"
)

// Release is one Eclipse Temurin JDK build.
type Release struct {
	Major int
	// Tag is the upstream release tag and the name of the top-level directory inside the archive.
	Tag string
	// File is the version fragment used in asset file names.
	File string
	// hosts lists the os/arch pairs Temurin publishes for this build.
	hosts map[string]bool
}

var releases = map[int]Release{
	8: {
		Major: 8,
		Tag:   "jdk8u432-b06",
		File:  "8u432b06",
		hosts: hostSet("windows/x86_64", "windows/x86", "linux/x86_64", "linux/arm64", "osx/x86_64"),
	},
	17: {
		Major: 17,
		Tag:   "jdk-17.0.13+11",
		File:  "17.0.13_11",
		hosts: hostSet("windows/x86_64", "windows/x86", "linux/x86_64", "linux/arm64", "osx/x86_64", "osx/arm64"),
	},
	21: {
		Major: 21,
		Tag:   "jdk-21.0.5+11",
		File:  "21.0.5_11",
		hosts: hostSet("windows/x86_64", "linux/x86_64", "linux/arm64", "osx/x86_64", "osx/arm64"),
	},
}

// aliases maps majors without their own build onto a compatible one.
var aliases = map[int]int{
	16: 17,
}

func hostSet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	return set
}

// LookupRelease resolves a major version, following aliases.
func LookupRelease(major int) (Release, bool) {
	if target, ok := aliases[major]; ok {
		major = target
	}
	release, ok := releases[major]
	return release, ok
}

func temurinOS(osName string) string {
	if osName == "osx" {
		return "mac"
	}
	return osName
}

func temurinArch(arch string) string {
	switch arch {
	case "x86_64":
		return "x64"
	case "arm64":
		return "aarch64"
	case "x86":
		return "x86-32"
	default:
		return arch
	}
}

func archiveExtension(osName string) string {
	if osName == "windows" {
		return "zip"
	}
	return "tar.gz"
}

// AssetName is the archive file name, e.g. OpenJDK21U-jdk_x64_linux_hotspot_21.0.5_11.tar.gz.
func (release Release) AssetName(osName string, arch string) string {
	return fmt.Sprintf("OpenJDK%dU-jdk_%s_%s_hotspot_%s.%s",
		release.Major, temurinArch(arch), temurinOS(osName), release.File, archiveExtension(osName))
}

func (release Release) URL(osName string, arch string) string {
	return fmt.Sprintf("https://github.com/adoptium/temurin%d-binaries/releases/download/%s/%s",
		release.Major, url.PathEscape(release.Tag), release.AssetName(osName, arch))
}

func (release Release) Supports(osName string, arch string) bool {
	return release.hosts[strings.ToLower(osName)+"/"+strings.ToLower(arch)]
}
