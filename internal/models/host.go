package models

import "runtime"

// Host is an operating system and CPU pair in the vocabulary vendor manifests use:
// OS is windows, osx or linux and Arch is x86, x86_64 or arm64.
type Host struct {
	OS   string
	Arch string
}

func CurrentHost() Host {
	return HostFor(runtime.GOOS, runtime.GOARCH)
}

func HostFor(goos string, goarch string) Host {
	osName := goos
	if goos == "darwin" {
		osName = "osx"
	}
	arch := goarch
	switch goarch {
	case "386":
		arch = "x86"
	case "amd64":
		arch = "x86_64"
	}
	return Host{OS: osName, Arch: arch}
}

func (host Host) IsWindows() bool {
	return host.OS == "windows"
}

// PathListSeparator is the classpath separator of the host, independent of the build target.
func (host Host) PathListSeparator() string {
	if host.IsWindows() {
		return ";"
	}
	return ":"
}

func (host Host) String() string {
	return host.OS + "/" + host.Arch
}
