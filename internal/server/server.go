// Package server installs dedicated Minecraft servers for every supported loader and leaves
// the directory in one of two launchable shapes: a single server.jar, or the split run.sh /
// run.bat layout newer Forge and NeoForge installers produce.
package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meza/minecraft-launcher/internal/account"
	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/logger"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

const (
	JarName        = "server.jar"
	AuthlibJarName = "authlib-injector.jar"
)

type Deps struct {
	Fs         afero.Fs
	Client     httpclient.Doer
	Downloader version.Fetcher
	Runner     version.Runner
	Logger     *logger.Logger
}

type Request struct {
	Loader        models.Loader
	GameVersion   string
	LoaderVersion string
	Dir           string
	// JavaPath runs the loader installers and ends up in the rewritten start scripts.
	JavaPath string
	MemoryMB int
	Account  account.Account
	// AuthlibBackend overrides the authlib-injector artifact server.
	AuthlibBackend string
}

type Layout string

const (
	LayoutJar    Layout = "jar"
	LayoutScript Layout = "script"
)

type Result struct {
	Loader        models.Loader
	LoaderVersion string
	Layout        Layout
	// Jar is set for LayoutJar.
	Jar string
	// Scripts lists the start scripts rewritten for LayoutScript.
	Scripts []string
	// Command starts the server from Dir.
	Command []string
}

type Installer struct {
	deps Deps
}

func NewInstaller(deps Deps) *Installer {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Runner == nil {
		deps.Runner = version.ExecRunner{}
	}
	if deps.Downloader == nil {
		deps.Downloader = downloader.New(downloader.Options{Client: deps.Client, Fs: deps.Fs, Logger: deps.Logger})
	}
	return &Installer{deps: deps}
}

func tagged(kind version.Kind, op string, err error) error {
	return &version.Error{Kind: kind, Op: op, Err: err}
}

// Install never writes eula.txt; accepting the EULA stays with the operator.
func (s *Installer) Install(ctx context.Context, request Request) (Result, error) {
	loader := request.Loader
	if loader == "" {
		loader = models.VANILLA
	}
	ctx, span := perf.StartSpan(ctx, "server.install", perf.WithAttributes(
		attribute.String("loader", loader.String()),
		attribute.String("game", request.GameVersion),
	))
	defer span.End()

	result := Result{Loader: loader}
	if strings.TrimSpace(request.GameVersion) == "" || strings.TrimSpace(request.Dir) == "" {
		return result, tagged(version.NotConfigured, "server.install", errors.New("a game version and a server directory are required"))
	}
	if request.MemoryMB <= 0 {
		request.MemoryMB = config.DefaultSettings().MemoryMB
	}
	if err := s.deps.Fs.MkdirAll(request.Dir, 0755); err != nil {
		return result, tagged(version.Unknown, "server.install", err)
	}

	var err error
	switch loader {
	case models.VANILLA:
		err = s.installVanilla(ctx, request)
	case models.FABRIC:
		result.LoaderVersion, err = s.installFabric(ctx, request)
	case models.QUILT:
		result.LoaderVersion, err = s.installQuilt(ctx, request)
	case models.FORGE, models.NEOFORGE:
		result.LoaderVersion, err = s.installForge(ctx, loader, request)
	default:
		err = tagged(version.Unsupported, "server.install", fmt.Errorf("unknown loader %q", loader))
	}
	if err != nil {
		return result, err
	}

	agent, err := s.installAuthlib(ctx, request)
	if err != nil {
		return result, err
	}
	flags := jvmFlags(agent, request.Account.AuthServer, request.MemoryMB)

	scripts, err := s.rewriteScripts(request.Dir, request.JavaPath, flags)
	if err != nil {
		return result, tagged(version.Unknown, "server.normalize", err)
	}
	if len(scripts) > 0 {
		result.Layout = LayoutScript
		result.Scripts = scripts
		result.Command = []string{filepath.Join(request.Dir, scripts[0]), "nogui"}
		return result, nil
	}

	result.Layout = LayoutJar
	result.Jar = filepath.Join(request.Dir, JarName)
	if exists, _ := afero.Exists(s.deps.Fs, result.Jar); !exists {
		return result, tagged(version.Malformed, "server.normalize", fmt.Errorf("%s produced neither %s nor start scripts", loader, JarName))
	}
	java := request.JavaPath
	if java == "" {
		java = "java"
	}
	result.Command = append(append([]string{java}, flags...), "-jar", JarName, "nogui")
	s.deps.Logger.Debugf("server ready in %s: %s", request.Dir, strings.Join(result.Command, " "))
	return result, nil
}

// jvmFlags puts the auth agent ahead of the heap flags.
func jvmFlags(agent string, authServer string, memoryMB int) []string {
	flags := make([]string, 0, 3)
	if agent != "" {
		flags = append(flags, "-javaagent:"+agent+"="+authServer)
	}
	return append(flags, fmt.Sprintf("-Xmx%dM", memoryMB), fmt.Sprintf("-Xms%dM", memoryMB))
}

func (s *Installer) download(ctx context.Context, op string, items ...models.DownloadItem) error {
	result := s.deps.Downloader.DownloadFiles(ctx, items)
	if result.Cancelled() {
		return tagged(version.Cancelled, op, context.Canceled)
	}
	for _, outcome := range result.Items {
		switch outcome.Status {
		case downloader.StatusFailed:
			return version.Classify(op, outcome.Err)
		case downloader.StatusBlocked:
			return tagged(version.Unsupported, op, outcome.Err)
		}
	}
	return nil
}

func (s *Installer) run(ctx context.Context, op string, request Request, args ...string) error {
	if request.JavaPath == "" {
		return tagged(version.NotConfigured, op, errors.New("the installer needs a java runtime"))
	}
	if err := s.deps.Runner.Run(ctx, request.Dir, request.JavaPath, args...); err != nil {
		if errors.Is(err, context.Canceled) {
			return tagged(version.Cancelled, op, err)
		}
		return tagged(version.Transient, op, fmt.Errorf("installer failed: %w", err))
	}
	return nil
}

func (s *Installer) installAuthlib(ctx context.Context, request Request) (string, error) {
	if !request.Account.NeedsAuthlib() {
		return "", nil
	}
	artifact, err := version.FetchAuthlib(ctx, s.deps.Client, request.AuthlibBackend)
	if err != nil {
		return "", version.Classify("server.authlib", err)
	}
	target := filepath.Join(request.Dir, AuthlibJarName)
	if err := s.download(ctx, "server.authlib", models.DownloadItem{URL: artifact.DownloadURL, Destination: target, Group: models.GroupServer}); err != nil {
		return "", err
	}
	if artifact.Sha256 != "" {
		actual, err := archive.Sha256File(s.deps.Fs, target)
		if err != nil {
			return "", tagged(version.Unknown, "server.authlib", err)
		}
		if actual != artifact.Sha256 {
			_ = s.deps.Fs.Remove(target)
			return "", tagged(version.Malformed, "server.authlib", fmt.Errorf("sha256 of %s is %s, expected %s", target, actual, artifact.Sha256))
		}
	}
	return AuthlibJarName, nil
}
