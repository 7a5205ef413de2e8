package instance

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/modmeta"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/provider"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type addOptions struct {
	Instance      string
	Source        string
	Kind          string
	AllowFallback bool
	PreRelease    bool
	Pin           string
	Lookup        bool
}

type addDeps struct {
	fs                afero.Fs
	layout            config.Layout
	clients           provider.Clients
	resolve           func(ctx context.Context, request provider.Request, clients provider.Clients) (models.ProjectReference, error)
	inspect           func(fs afero.Fs, path string) (modmeta.Metadata, error)
	lookupHash        func(ctx context.Context, sha1 string, kind models.ProjectKind, doer httpclient.Doer) (models.ProjectReference, bool, error)
	matchFingerprints func(ctx context.Context, fingerprints []uint32, kind models.ProjectKind, doer httpclient.Doer) (map[uint32]models.ProjectReference, error)
}

func defaultAddDeps() addDeps {
	return addDeps{
		resolve:           provider.Resolve,
		inspect:           modmeta.Inspect,
		lookupHash:        provider.LookupModrinthHash,
		matchFingerprints: provider.MatchFingerprints,
	}
}

func addCommand(options shared.Options, deps addDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <instance> <source>",
		Aliases: []string{"add-mod"},
		Short:   i18n.T("cmd.instance.add.short"),
		Long:    i18n.T("cmd.instance.add.long"),
		Example: "  mml instance add survival modrinth:sodium\n  mml instance add survival curseforge:238222 --allow-fallback\n  mml instance add survival ./downloads/custom.jar --lookup",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "instance.add")
			extra := map[string]any{}
			defer func() { done(err, extra) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			opts := addOptions{Instance: args[0], Source: args[1]}
			flags := cmd.Flags()
			if opts.Kind, err = flags.GetString("kind"); err != nil {
				return err
			}
			if opts.AllowFallback, err = flags.GetBool("allow-fallback"); err != nil {
				return err
			}
			if opts.PreRelease, err = flags.GetBool("pre-release"); err != nil {
				return err
			}
			if opts.Pin, err = flags.GetString("pin"); err != nil {
				return err
			}
			if opts.Lookup, err = flags.GetBool("lookup"); err != nil {
				return err
			}

			deps.fs = env.Fs
			deps.layout = env.Layout
			if deps.clients.Modrinth == nil {
				deps.clients = provider.Clients{Modrinth: env.Client, Curseforge: env.Client}
			}
			reference, replaced, err := runAdd(ctx, opts, deps)
			if err != nil {
				return err
			}
			extra["provider"] = string(reference.Provider)
			extra["kind"] = string(reference.Kind)
			key := "cmd.instance.add.added"
			if replaced {
				key = "cmd.instance.add.replaced"
			}
			env.Logger.Log(i18n.T(key, i18n.Tvars{Data: &i18n.TData{
				"name":     reference.Name,
				"file":     reference.File.FileName,
				"instance": opts.Instance,
			}}), false)
			if strings.HasPrefix(reference.File.URL, models.BlockedURLPrefix) {
				env.Logger.Log(i18n.T("cmd.instance.add.blocked", i18n.Tvars{Data: &i18n.TData{
					"url": strings.TrimPrefix(reference.File.URL, models.BlockedURLPrefix),
				}}), true)
			}
			return nil
		},
	}
	cmd.Flags().String("kind", "", i18n.T("cmd.instance.add.flag.kind"))
	cmd.Flags().Bool("allow-fallback", false, i18n.T("cmd.instance.add.flag.allow_fallback"))
	cmd.Flags().Bool("pre-release", false, i18n.T("cmd.instance.add.flag.pre_release"))
	cmd.Flags().String("pin", "", i18n.T("cmd.instance.add.flag.pin"))
	cmd.Flags().Bool("lookup", false, i18n.T("cmd.instance.add.flag.lookup"))
	return cmd
}

type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown project kind: %s", e.Kind)
}

type IncompatibleFileError struct {
	Path   string
	Loader models.Loader
}

func (e *IncompatibleFileError) Error() string {
	return fmt.Sprintf("%s does not support the %s loader", e.Path, e.Loader)
}

func parseKind(value string) (models.ProjectKind, error) {
	if value == "" {
		return "", nil
	}
	kind := models.ProjectKind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case models.KindMod, models.KindResourcePack, models.KindShaderPack, models.KindWorld, models.KindDatapack:
		return kind, nil
	}
	return "", &UnknownKindError{Kind: value}
}

// parseSource splits "modrinth:<id>" and "curseforge:<id>". Anything else is a local path.
func parseSource(source string) (models.Platform, string) {
	prefix, id, found := strings.Cut(source, ":")
	if found && id != "" {
		switch models.Platform(strings.ToLower(prefix)) {
		case models.MODRINTH:
			return models.MODRINTH, id
		case models.CURSEFORGE:
			return models.CURSEFORGE, id
		}
	}
	return models.LOCAL, source
}

// runAdd resolves the source and stores it in the instance, replacing an earlier reference
// to the same project. The bool reports a replacement.
func runAdd(ctx context.Context, opts addOptions, deps addDeps) (models.ProjectReference, bool, error) {
	path := deps.layout.VersionConfigPath(opts.Instance)
	cfg, err := config.ReadVersionConfiguration(ctx, deps.fs, path)
	if err != nil {
		return models.ProjectReference{}, false, err
	}
	kind, err := parseKind(opts.Kind)
	if err != nil {
		return models.ProjectReference{}, false, err
	}

	var reference models.ProjectReference
	platform, id := parseSource(opts.Source)
	if platform == models.LOCAL {
		reference, err = localReference(ctx, id, kind, cfg.EffectiveLoader(), opts.Lookup, deps)
	} else {
		request := provider.Request{
			Provider:      platform,
			ProjectID:     id,
			Kind:          kind,
			GameVersion:   cfg.GameVersion,
			Loader:        cfg.EffectiveLoader(),
			AllowFallback: opts.AllowFallback,
			FixedVersion:  opts.Pin,
		}
		if opts.PreRelease {
			request.AllowedReleaseTypes = []provider.ReleaseType{provider.Release, provider.Beta, provider.Alpha}
		}
		reference, err = deps.resolve(ctx, request, deps.clients)
	}
	if err != nil {
		return models.ProjectReference{}, false, err
	}

	replaced := false
	if index := cfg.FindProject(reference.Provider, reference.ProjectID); index >= 0 {
		cfg.Projects[index] = reference
		replaced = true
	} else {
		cfg.Projects = append(cfg.Projects, reference)
	}
	if err := config.WriteVersionConfiguration(ctx, deps.fs, path, cfg); err != nil {
		return models.ProjectReference{}, false, err
	}
	return reference, replaced, nil
}

// localReference inspects a file on disk. With lookup it prefers the Modrinth or CurseForge
// project the file came from so later installs fetch it from there.
func localReference(ctx context.Context, path string, kind models.ProjectKind, loader models.Loader, lookup bool, deps addDeps) (models.ProjectReference, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return models.ProjectReference{}, err
	}
	meta, err := deps.inspect(deps.fs, absolute)
	if err != nil {
		return models.ProjectReference{}, err
	}
	if kind != "" {
		meta.Kind = kind
	}
	if !meta.Supports(loader) {
		return models.ProjectReference{}, &IncompatibleFileError{Path: path, Loader: loader}
	}

	if lookup {
		if meta.Sha1 != "" {
			reference, found, err := deps.lookupHash(ctx, meta.Sha1, meta.Kind, deps.clients.Modrinth)
			if err != nil {
				return models.ProjectReference{}, err
			}
			if found {
				if reference.Name == "" {
					reference.Name = meta.Name
				}
				return reference, nil
			}
		}
		if meta.Fingerprint != 0 {
			matches, err := deps.matchFingerprints(ctx, []uint32{meta.Fingerprint}, meta.Kind, deps.clients.Curseforge)
			if err != nil {
				return models.ProjectReference{}, err
			}
			if reference, found := matches[meta.Fingerprint]; found {
				if reference.Name == "" {
					reference.Name = meta.Name
				}
				return reference, nil
			}
		}
	}
	return meta.Reference(models.FileURLPrefix + filepath.ToSlash(absolute)), nil
}
