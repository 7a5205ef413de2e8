package version

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meza/minecraft-launcher/internal/account"
	"github.com/meza/minecraft-launcher/internal/archive"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/java"
	"github.com/meza/minecraft-launcher/internal/logger"
	"github.com/meza/minecraft-launcher/internal/minecraft"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Fetcher runs a download batch. *downloader.Downloader satisfies it.
type Fetcher interface {
	DownloadFiles(ctx context.Context, items []models.DownloadItem) downloader.Result
}

type Deps struct {
	Fs         afero.Fs
	Layout     config.Layout
	Settings   config.Settings
	Client     httpclient.Doer
	Downloader Fetcher
	Runner     Runner
	Platform   Platform
	Logger     *logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Platform == (Platform{}) {
		d.Platform = HostPlatform()
	}
	if d.Runner == nil {
		d.Runner = ExecRunner{}
	}
	if d.Client == nil {
		d.Client = httpclient.NewRLClient(rate.NewLimiter(rate.Inf, 0))
	}
	if d.Downloader == nil {
		d.Downloader = downloader.New(downloader.Options{
			Limit:  d.Settings.DownloadLimit,
			Client: d.Client,
			Fs:     d.Fs,
			Logger: d.Logger,
		})
	}
	return d
}

type StageStatus string

const (
	StageDone    StageStatus = "done"
	StageSkipped StageStatus = "skipped"
	StageFailed  StageStatus = "failed"
)

type StageResult struct {
	Name   string
	Status StageStatus
	Detail string
	Err    error
}

type InstallReport struct {
	NewManifest bool
	Downloads   downloader.Result
	Stages      []StageResult
}

func (r *InstallReport) record(name string, status StageStatus, detail string, err error) {
	r.Stages = append(r.Stages, StageResult{Name: name, Status: status, Detail: detail, Err: err})
}

func (r InstallReport) Stage(name string) (StageResult, bool) {
	for _, stage := range r.Stages {
		if stage.Name == name {
			return stage, true
		}
	}
	return StageResult{}, false
}

// QuickPlay launches straight into a world or a server. Set exactly one field.
type QuickPlay struct {
	Singleplayer string
	Multiplayer  string
}

type RunOptions struct {
	Account account.Account
	// Relative swaps absolute java and game paths for ${java_path} and ${minecraft_directory}.
	Relative  bool
	QuickPlay *QuickPlay
	Width     int
	Height    int
}

type Instance struct {
	Config   models.VersionConfiguration
	Manifest *Manifest
	Java     *java.Runtime

	Dir          string
	ConfigPath   string
	ManifestPath string
	ClientJar    string
	NativesDir   string
	OptionsPath  string

	QuickPlayMultiplayer  bool
	QuickPlaySingleplayer bool

	deps           Deps
	initialized    bool
	clientProvided bool
	authlibSha256  string
}

func New(cfg models.VersionConfiguration, deps Deps) *Instance {
	return &Instance{Config: cfg, deps: deps.withDefaults()}
}

// Load reads <name>/version.json and initializes the instance it describes.
func Load(ctx context.Context, name string, deps Deps) (*Instance, error) {
	deps = deps.withDefaults()
	cfg, err := config.ReadVersionConfiguration(ctx, deps.Fs, deps.Layout.VersionConfigPath(name))
	if err != nil {
		var notFound *config.ConfigFileNotFoundException
		if errors.As(err, &notFound) {
			return nil, newError(NotConfigured, "load", err)
		}
		return nil, newError(Malformed, "load", err)
	}
	instance := New(cfg, deps)
	return instance, instance.Init(ctx)
}

// Init computes paths and loads a cached manifest when one exists. A missing manifest is not
// an error; Manifest stays nil until Install fetches it.
func (i *Instance) Init(ctx context.Context) error {
	_, span := perf.StartSpan(ctx, "version.init", perf.WithAttributes(attribute.String("instance", i.Config.Name)))
	defer span.End()

	if !i.Config.Valid() {
		return newError(NotConfigured, "init", errors.New("instance needs a name and a game version"))
	}
	layout := i.deps.Layout
	game := i.Config.GameVersion
	i.Dir = layout.InstanceDir(i.Config.Name)
	i.ConfigPath = layout.VersionConfigPath(i.Config.Name)
	i.ManifestPath = filepath.Join(i.Dir, game+".json")
	i.ClientJar = filepath.Join(i.Dir, game+".jar")
	i.NativesDir = filepath.Join(i.Dir, "natives")
	i.OptionsPath = filepath.Join(i.Dir, "options.txt")
	i.initialized = true

	i.Manifest = nil
	exists, _ := afero.Exists(i.deps.Fs, i.ManifestPath)
	if !exists {
		return nil
	}
	manifest, err := ReadManifest(ctx, i.deps.Fs, i.ManifestPath)
	if err != nil {
		return newError(Malformed, "init", err)
	}
	i.setManifest(manifest)
	return nil
}

func (i *Instance) setManifest(manifest *Manifest) {
	i.Manifest = manifest
	i.QuickPlayMultiplayer, i.QuickPlaySingleplayer = manifest.QuickPlaySupport()
	i.Java = java.New(manifest.JavaMajor(), i.deps.Layout.DataDir, i.deps.Platform)
	i.Java.Init()
}

func (i *Instance) ensureInit(ctx context.Context) error {
	if i.initialized {
		return nil
	}
	return i.Init(ctx)
}

// Install brings the instance to a launchable state. Re-running it only fetches what is missing.
// Concurrent installs of one instance are refused with a Busy error.
func (i *Instance) Install(ctx context.Context, player account.Account) (InstallReport, error) {
	ctx, span := perf.StartSpan(ctx, "version.install", perf.WithAttributes(
		attribute.String("instance", i.Config.Name),
		attribute.String("game", i.Config.GameVersion),
		attribute.String("loader", i.Config.EffectiveLoader().String()),
	))
	defer span.End()

	var report InstallReport
	if err := i.ensureInit(ctx); err != nil {
		if KindOf(err) != Malformed {
			return report, err
		}
		i.deps.Logger.Debugf("discarding unreadable manifest %s: %v", i.ManifestPath, err)
	}

	unlock, ok := tryLock(i.Dir)
	if !ok {
		return report, newError(Busy, "install", fmt.Errorf("%s is already being installed", i.Config.Name))
	}
	defer unlock()

	var degraded []error

	if i.Manifest == nil {
		if err := i.fetchManifest(ctx); err != nil {
			report.record("manifest", StageFailed, "", err)
			return report, err
		}
		report.NewManifest = true
		report.record("manifest", StageDone, "", nil)
	} else {
		report.record("manifest", StageSkipped, "cached", nil)
	}

	if err := i.installJava(ctx); err != nil {
		report.record("java", StageFailed, "", err)
		if KindOf(err) == Cancelled {
			return report, err
		}
		degraded = append(degraded, err)
	} else {
		report.record("java", StageDone, i.Java.JavaPath, nil)
	}

	if report.NewManifest && i.Config.EffectiveLoader() != models.VANILLA {
		detail, err := i.mergeLoader(ctx)
		if err != nil {
			// The vanilla manifest must not be cached or the next install would skip the merge.
			_ = i.deps.Fs.Remove(i.ManifestPath)
			i.Manifest = nil
			report.record("loader", StageFailed, "", err)
			return report, err
		}
		report.record("loader", StageDone, detail, nil)
	}

	if player.NeedsAuthlib() && !i.Manifest.HasLibrary(authlibKey) {
		artifact, err := FetchAuthlib(ctx, i.deps.Client, i.deps.Settings.AuthlibBackend)
		if err != nil {
			err = Classify("authlib", err)
			report.record("authlib", StageFailed, "", err)
			degraded = append(degraded, err)
		} else {
			i.Manifest.Libraries = append(i.Manifest.Libraries, artifact.Library())
			i.authlibSha256 = artifact.Sha256
			report.record("authlib", StageDone, artifact.Version, nil)
		}
	}

	i.Manifest.Libraries = DedupeLibraries(i.Manifest.Libraries)
	if err := WriteManifest(ctx, i.deps.Fs, i.ManifestPath, i.Manifest); err != nil {
		err = newError(Unknown, "install.save_manifest", err)
		report.record("save", StageFailed, "", err)
		return report, err
	}

	if err := i.ensureLayout(); err != nil {
		return report, newError(Unknown, "install.layout", err)
	}

	plan := i.libraryItems()
	if client := i.Manifest.ClientDownload(); client != nil && !i.clientProvided {
		plan = append(plan, models.DownloadItem{URL: client.URL, Destination: i.ClientJar, Group: models.GroupClient, Sha1: client.Sha1, Size: client.Size})
	}
	assets, err := i.assetItems(ctx)
	if err != nil {
		report.record("assets", StageFailed, "", err)
		if KindOf(err) == Cancelled {
			return report, err
		}
		degraded = append(degraded, err)
	}
	plan = append(plan, assets...)
	plan = append(plan, i.projectItems()...)

	result := i.deps.Downloader.DownloadFiles(ctx, plan)
	report.Downloads = result
	if result.Cancelled() {
		err := newError(Cancelled, "install.download", context.Canceled)
		report.record("download", StageFailed, "", err)
		return report, err
	}
	if !result.OK() {
		err := newError(Partial, "install.download", downloadFailures(result))
		report.record("download", StageFailed, fmt.Sprintf("%d of %d items failed", result.Info.FailedItems+result.Info.BlockedItems, result.Info.TotalItems), err)
		degraded = append(degraded, err)
	} else {
		report.record("download", StageDone, fmt.Sprintf("%d items", result.Info.TotalItems), nil)
	}

	if err := i.extractNatives(ctx); err != nil {
		report.record("natives", StageFailed, "", err)
		degraded = append(degraded, err)
	}
	if jar := authlibJar(i.Manifest, i.deps.Layout.LibrariesDir()); jar != "" && i.authlibSha256 != "" {
		if err := verifyAuthlib(i.deps.Fs, jar, i.authlibSha256); err != nil {
			degraded = append(degraded, err)
		}
	}

	if written, err := writeDefaultOptions(i.deps.Fs, i.OptionsPath, i.deps.Settings.Language); err != nil {
		report.record("options", StageFailed, "", err)
	} else if written {
		report.record("options", StageDone, GameLanguage(i.deps.Settings.Language), nil)
	} else {
		report.record("options", StageSkipped, "exists", nil)
	}

	if err := i.Save(ctx); err != nil {
		return report, err
	}
	if len(degraded) > 0 {
		return report, degraded[0]
	}
	return report, nil
}

func downloadFailures(result downloader.Result) error {
	failures := make([]error, 0)
	for _, outcome := range result.Items {
		if outcome.Status == downloader.StatusFailed || outcome.Status == downloader.StatusBlocked {
			failures = append(failures, fmt.Errorf("%s: %w", outcome.Item.Destination, outcome.Err))
		}
	}
	return errors.Join(failures...)
}

// download runs a small prerequisite batch and turns any failure into a tagged error.
func (i *Instance) download(ctx context.Context, op string, items ...models.DownloadItem) error {
	result := i.deps.Downloader.DownloadFiles(ctx, items)
	if result.Cancelled() {
		return newError(Cancelled, op, context.Canceled)
	}
	for _, outcome := range result.Items {
		switch outcome.Status {
		case downloader.StatusFailed:
			return Classify(op, outcome.Err)
		case downloader.StatusBlocked:
			return newError(Unsupported, op, outcome.Err)
		}
	}
	return nil
}

func (i *Instance) fetchManifest(ctx context.Context) error {
	entry, err := minecraft.Lookup(ctx, i.deps.Client, i.Config.GameVersion)
	if err != nil {
		return Classify("install.manifest", err)
	}
	item := models.DownloadItem{URL: entry.URL, Destination: i.ManifestPath, Group: models.GroupManifest, Sha1: entry.Sha1}
	if err := i.download(ctx, "install.manifest", item); err != nil {
		return err
	}
	manifest, err := ReadManifest(ctx, i.deps.Fs, i.ManifestPath)
	if err != nil {
		return newError(Malformed, "install.manifest", err)
	}
	i.setManifest(manifest)
	return nil
}

func (i *Instance) installJava(ctx context.Context) error {
	if i.Java == nil || !i.Java.Supported() {
		return newError(Unsupported, "install.java", fmt.Errorf("no java %d build for %s", i.Manifest.JavaMajor(), i.deps.Platform))
	}
	if _, err := i.Java.Install(ctx, i.deps.Fs, i.deps.Downloader); err != nil {
		return Classify("install.java", err)
	}
	return nil
}

func (i *Instance) mergeLoader(ctx context.Context) (string, error) {
	loader := i.Config.EffectiveLoader()
	game := i.Config.GameVersion

	if source, ok := MetaSourceFor(loader); ok {
		loaderVersion, err := source.LoaderVersion(ctx, i.deps.Client, game, i.Config.LoaderVersion)
		if err != nil {
			return "", Classify("install.loader", err)
		}
		profile, err := source.Profile(ctx, i.deps.Client, game, loaderVersion)
		if err != nil {
			return "", Classify("install.loader", err)
		}
		mergeProfile(i.Manifest, profile, FabricPreferred)
		i.Config.LoaderVersion = loaderVersion
		return loaderVersion, nil
	}

	loaderVersion, err := InstallerVersion(ctx, i.deps.Client, loader, game, i.Config.LoaderVersion)
	if err != nil {
		return "", Classify("install.loader", err)
	}
	installer := filepath.Join(i.Dir, string(loader)+"-installer.jar")
	item := models.DownloadItem{URL: InstallerURL(loader, game, loaderVersion), Destination: installer, Group: string(loader)}
	if err := i.download(ctx, "install.loader", item); err != nil {
		return "", err
	}
	defer func() { _ = i.deps.Fs.Remove(installer) }()

	detail := loaderVersion
	outcome, err := i.runInstaller(ctx, installer)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", newError(Cancelled, "install.loader", err)
		}
		i.deps.Logger.Debugf("%s installer failed, reading its install profile instead: %v", loader, err)
		outcome, err = i.installerFallback(ctx, installer)
		if err != nil {
			return "", Classify("install.loader", err)
		}
		detail += " (install profile)"
	}
	mergeInstallerProfile(i.Manifest, outcome.profile, loader)
	i.clientProvided = outcome.clientProvided
	i.Config.LoaderVersion = loaderVersion
	return detail, nil
}

func (i *Instance) ensureLayout() error {
	dirs := []string{
		i.NativesDir,
		filepath.Join(i.Dir, "mods"),
		filepath.Join(i.Dir, "resourcepacks"),
		filepath.Join(i.Dir, "shaderpacks"),
		filepath.Join(i.Dir, "saves"),
		filepath.Join(i.Dir, "storage", "worlds"),
		filepath.Join(i.Dir, "storage", "datapacks"),
	}
	for _, dir := range dirs {
		if err := i.deps.Fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (i *Instance) defaultFeatures() Features {
	return Features{"is_demo_user": false, "has_custom_resolution": false}
}

// Libraries resolves the manifest's libraries for this host. It is empty without a manifest.
func (i *Instance) Libraries() []ResolvedLibrary {
	if i.Manifest == nil {
		return []ResolvedLibrary{}
	}
	return ResolveLibraries(i.Manifest.Libraries, i.deps.Platform, i.defaultFeatures(), i.deps.Layout.LibrariesDir())
}

// libraryItems skips entries without a URL; a loader installer produced those locally.
func (i *Instance) libraryItems() []models.DownloadItem {
	libraries := i.Libraries()
	items := make([]models.DownloadItem, 0, len(libraries))
	seen := make(map[string]bool, len(libraries))
	for _, library := range libraries {
		if library.URL == "" || seen[library.Path] {
			continue
		}
		seen[library.Path] = true
		group := models.GroupLibraries
		if library.Native {
			group = models.GroupNatives
		}
		items = append(items, models.DownloadItem{URL: library.URL, Destination: library.Path, Group: group, Sha1: library.Sha1, Size: library.Size})
	}
	return items
}

func (i *Instance) assetIndexPath() string {
	return filepath.Join(i.deps.Layout.AssetsDir(), "indexes", i.Manifest.AssetIndex.ID+".json")
}

func (i *Instance) assetItems(ctx context.Context) ([]models.DownloadItem, error) {
	if i.Manifest.AssetIndex == nil || i.Manifest.AssetIndex.URL == "" {
		return nil, nil
	}
	index := i.Manifest.AssetIndex
	path := i.assetIndexPath()
	item := models.DownloadItem{URL: index.URL, Destination: path, Group: models.GroupManifest, Sha1: index.Sha1, Size: index.Size}
	if err := i.download(ctx, "install.assets", item); err != nil {
		return nil, err
	}
	parsed, err := ReadAssetIndex(ctx, i.deps.Fs, path)
	if err != nil {
		return nil, newError(Malformed, "install.assets", err)
	}
	return assetItems(parsed, i.deps.Layout.AssetsDir()), nil
}

// projectItems turns the mods, packs and worlds of version.json into downloads.
func (i *Instance) projectItems() []models.DownloadItem {
	items := make([]models.DownloadItem, 0, len(i.Config.Projects))
	for _, project := range i.Config.Projects {
		if project.File.URL == "" || project.File.FileName == "" {
			continue
		}
		item := models.DownloadItem{
			URL:   project.File.URL,
			Group: models.GroupMods,
			Sha1:  project.File.Sha1,
			Size:  project.File.Size,
		}
		switch project.Kind {
		case models.KindResourcePack:
			item.Destination = filepath.Join(i.Dir, "resourcepacks", project.File.FileName)
		case models.KindShaderPack:
			item.Destination = filepath.Join(i.Dir, "shaderpacks", project.File.FileName)
		case models.KindDatapack:
			item.Destination = filepath.Join(i.Dir, "storage", "datapacks", project.File.FileName)
		case models.KindWorld:
			item.Destination = filepath.Join(i.Dir, "storage", "worlds", project.File.FileName)
			item.Options = &models.DownloadOptions{Extract: true, ExtractFolder: filepath.Join(i.Dir, "saves"), ExtractDelete: models.BoolPtr(false)}
		default:
			item.Destination = filepath.Join(i.Dir, "mods", project.File.FileName)
		}
		items = append(items, item)
	}
	return items
}

// extractNatives unpacks every native jar into the instance, whether or not it was just fetched,
// because the jars live in the shared libraries tree.
func (i *Instance) extractNatives(ctx context.Context) error {
	failures := make([]error, 0)
	for _, library := range i.Libraries() {
		if !library.Native {
			continue
		}
		exists, _ := afero.Exists(i.deps.Fs, library.Path)
		if !exists {
			continue
		}
		skip := append([]string{"META-INF/"}, library.Exclude...)
		if _, err := archive.Extract(ctx, i.deps.Fs, library.Path, i.NativesDir, archive.ExtractOptions{Skip: skip}); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", library.Name, err))
		}
	}
	if len(failures) > 0 {
		return newError(Malformed, "install.natives", errors.Join(failures...))
	}
	return nil
}

// Save persists version.json and, when loaded, the manifest.
func (i *Instance) Save(ctx context.Context) error {
	if err := i.ensureInit(ctx); err != nil && KindOf(err) == NotConfigured {
		return err
	}
	if err := config.WriteVersionConfiguration(ctx, i.deps.Fs, i.ConfigPath, i.Config); err != nil {
		return newError(Unknown, "save", err)
	}
	if i.Manifest != nil {
		if err := WriteManifest(ctx, i.deps.Fs, i.ManifestPath, i.Manifest); err != nil {
			return newError(Unknown, "save", err)
		}
	}
	return nil
}

// RunCommand builds [java, jvm args..., main class, game args...] for player.
func (i *Instance) RunCommand(options RunOptions) ([]string, error) {
	if i.Manifest == nil {
		return nil, newError(NotConfigured, "run", errors.New("instance is not installed"))
	}
	if i.Java == nil || i.Java.JavaPath == "" {
		return nil, newError(Unsupported, "run", fmt.Errorf("no java %d build for %s", i.Manifest.JavaMajor(), i.deps.Platform))
	}
	if !options.Account.Valid() {
		return nil, newError(NotConfigured, "run", errors.New("an account with a nickname and uuid is required"))
	}

	platform := i.deps.Platform
	features := i.defaultFeatures()
	features["has_custom_resolution"] = options.Width > 0 && options.Height > 0
	quickPlay := options.QuickPlay
	if quickPlay != nil {
		features["is_quick_play_singleplayer"] = quickPlay.Singleplayer != ""
		features["is_quick_play_multiplayer"] = quickPlay.Multiplayer != ""
	}

	librariesDir := i.deps.Layout.LibrariesDir()
	libraries := ResolveLibraries(i.Manifest.Libraries, platform, features, librariesDir)
	classpath := strings.Join(Classpath(libraries, i.ClientJar), platform.PathListSeparator())
	values := i.templateValues(options, classpath)

	var jvm []string
	if i.Manifest.Arguments != nil && len(i.Manifest.Arguments.JVM) > 0 {
		jvm = flattenArguments(i.Manifest.Arguments.JVM, platform, features)
	} else {
		jvm = append([]string{}, legacyJVMArguments...)
	}
	var game []string
	if i.Manifest.Arguments != nil && len(i.Manifest.Arguments.Game) > 0 {
		game = flattenArguments(i.Manifest.Arguments.Game, platform, features)
	} else {
		game = strings.Fields(i.Manifest.MinecraftArguments)
	}
	if quickPlay != nil && quickPlay.Multiplayer != "" && !i.QuickPlayMultiplayer {
		host, port := splitServerAddress(quickPlay.Multiplayer)
		game = append(game, "--server", host, "--port", port)
	}
	if options.Width > 0 && options.Height > 0 && !i.declaresResolution() {
		game = append(game, "--width", strconv.Itoa(options.Width), "--height", strconv.Itoa(options.Height))
	}

	prefix := make([]string, 0, 2+len(i.deps.Settings.ExtraJVMArgs))
	if options.Account.NeedsAuthlib() {
		if jar := authlibJar(i.Manifest, librariesDir); jar != "" {
			prefix = append(prefix, "-javaagent:"+jar+"="+options.Account.AuthServer)
		}
	}
	if i.deps.Settings.MemoryMB > 0 {
		prefix = append(prefix, fmt.Sprintf("-Xmx%dM", i.deps.Settings.MemoryMB))
	}
	prefix = append(prefix, i.deps.Settings.ExtraJVMArgs...)

	command := []string{i.Java.JavaPath}
	command = append(command, expandAll(append(prefix, jvm...), values)...)
	command = append(command, i.Manifest.MainClass)
	command = append(command, expandGameArguments(game, values)...)

	if options.Relative {
		minecraftDir := i.deps.Layout.MinecraftDir()
		for index, arg := range command {
			command[index] = relativize(arg, i.Java.JavaPath, minecraftDir)
		}
	}
	return command, nil
}

func (i *Instance) declaresResolution() bool {
	if i.Manifest.Arguments == nil {
		return false
	}
	for _, argument := range i.Manifest.Arguments.Game {
		for _, rule := range argument.Rules {
			if _, ok := rule.Features["has_custom_resolution"]; ok {
				return true
			}
		}
	}
	return false
}

func splitServerAddress(address string) (string, string) {
	if at := strings.LastIndex(address, ":"); at > 0 && !strings.Contains(address[at+1:], "]") {
		return address[:at], address[at+1:]
	}
	return address, "25565"
}

// expandGameArguments drops a --flag together with a value that expanded to nothing.
func expandGameArguments(args []string, values map[string]string) []string {
	expanded := make([]string, 0, len(args))
	for index := 0; index < len(args); index++ {
		value := ExpandTemplate(args[index], values)
		if strings.HasPrefix(value, "--") && index+1 < len(args) && !strings.HasPrefix(args[index+1], "--") {
			next := ExpandTemplate(args[index+1], values)
			index++
			if next == "" {
				continue
			}
			expanded = append(expanded, value, next)
			continue
		}
		if value != "" {
			expanded = append(expanded, value)
		}
	}
	return expanded
}

func (i *Instance) templateValues(options RunOptions, classpath string) map[string]string {
	player := options.Account
	layout := i.deps.Layout
	settings := i.deps.Settings

	assetsIndex := i.Manifest.Assets
	if i.Manifest.AssetIndex != nil {
		assetsIndex = i.Manifest.AssetIndex.ID
	}
	versionName := i.Manifest.ID
	if versionName == "" {
		versionName = i.Config.GameVersion
	}

	values := map[string]string{
		"natives_directory":   i.NativesDir,
		"launcher_name":       settings.LauncherName,
		"launcher_version":    settings.LauncherVersion,
		"classpath":           classpath,
		"library_directory":   layout.LibrariesDir(),
		"classpath_separator": i.deps.Platform.PathListSeparator(),
		"version_name":        versionName,
		"auth_player_name":    player.Nickname,
		"game_directory":      i.Dir,
		"assets_root":         layout.AssetsDir(),
		"game_assets":         layout.AssetsDir(),
		"assets_index_name":   assetsIndex,
		"auth_uuid":           player.CompactUUID(),
		"auth_access_token":   player.AccessToken,
		"auth_session":        player.AccessToken,
		"clientid":            "",
		"auth_xuid":           player.XUID,
		"user_type":           player.UserType(),
		"version_type":        i.Manifest.Type,
		"user_properties":     "{}",
	}
	if options.Width > 0 && options.Height > 0 {
		values["resolution_width"] = strconv.Itoa(options.Width)
		values["resolution_height"] = strconv.Itoa(options.Height)
	}
	if options.QuickPlay != nil {
		values["quickPlayPath"] = filepath.Join(i.Dir, "quickPlay", "log.json")
		values["quickPlaySingleplayer"] = options.QuickPlay.Singleplayer
		values["quickPlayMultiplayer"] = options.QuickPlay.Multiplayer
	}
	return values
}

// Run hands the launch command to the Runner and waits for the game to exit.
func (i *Instance) Run(ctx context.Context, options RunOptions) error {
	ctx, span := perf.StartSpan(ctx, "version.run", perf.WithAttributes(attribute.String("instance", i.Config.Name)))
	defer span.End()

	options.Relative = false
	command, err := i.RunCommand(options)
	if err != nil {
		return err
	}
	if err := i.ensureLayout(); err != nil {
		return newError(Unknown, "run", err)
	}
	if err := i.deps.Runner.Run(ctx, i.Dir, command[0], command[1:]...); err != nil {
		return Classify("run", err)
	}
	return nil
}

// Delete removes the instance directory. A full delete also removes the libraries and asset
// objects the instance references, even if another instance shares them.
func (i *Instance) Delete(ctx context.Context, full bool) error {
	_, span := perf.StartSpan(ctx, "version.delete", perf.WithAttributes(attribute.Bool("full", full)))
	defer span.End()

	if err := i.ensureInit(ctx); err != nil && KindOf(err) == NotConfigured {
		return err
	}
	fs := i.deps.Fs
	if full && i.Manifest != nil {
		for _, library := range i.Libraries() {
			if err := removeIfExists(fs, library.Path); err != nil {
				return newError(Unknown, "delete", err)
			}
		}
		if i.Manifest.AssetIndex != nil {
			indexPath := i.assetIndexPath()
			if index, err := ReadAssetIndex(ctx, fs, indexPath); err == nil {
				for _, object := range index.uniqueObjects() {
					if err := removeIfExists(fs, filepath.Join(i.deps.Layout.AssetsDir(), "objects", object.Path())); err != nil {
						return newError(Unknown, "delete", err)
					}
				}
			}
			if err := removeIfExists(fs, indexPath); err != nil {
				return newError(Unknown, "delete", err)
			}
		}
	}
	if err := fs.RemoveAll(i.Dir); err != nil {
		return newError(Unknown, "delete", err)
	}
	i.Manifest = nil
	return nil
}

func removeIfExists(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
