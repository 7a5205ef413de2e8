package instance

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/minecraft"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type createOptions struct {
	Name          string
	GameVersion   string
	Loader        string
	LoaderVersion string
}

type createDeps struct {
	fs              afero.Fs
	layout          config.Layout
	client          httpclient.Doer
	validateVersion func(ctx context.Context, version string, client httpclient.Doer) bool
	latestVersion   func(ctx context.Context, client httpclient.Doer) (string, error)
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: i18n.T("cmd.instance.short"),
	}
	cmd.AddCommand(createCommand(shared.Options{}), listCommand(shared.Options{}), addCommand(shared.Options{}, defaultAddDeps()))
	return cmd
}

func createCommand(options shared.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: i18n.T("cmd.instance.create.short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "instance.create")
			defer func() { done(err, nil) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			opts := createOptions{Name: args[0]}
			if opts.GameVersion, err = cmd.Flags().GetString("version"); err != nil {
				return err
			}
			if opts.Loader, err = cmd.Flags().GetString("loader"); err != nil {
				return err
			}
			if opts.LoaderVersion, err = cmd.Flags().GetString("loader-version"); err != nil {
				return err
			}

			path, err := runCreate(ctx, opts, createDeps{
				fs:              env.Fs,
				layout:          env.Layout,
				client:          env.Client,
				validateVersion: minecraft.IsValidVersion,
				latestVersion:   minecraft.GetLatestVersion,
			})
			if err != nil {
				return err
			}
			env.Logger.Log(i18n.T("cmd.instance.create.done", i18n.Tvars{Data: &i18n.TData{"name": opts.Name, "path": path}}), false)
			return nil
		},
	}
	cmd.Flags().StringP("version", "v", "", i18n.T("cmd.instance.create.flag.version"))
	cmd.Flags().StringP("loader", "l", string(models.VANILLA), i18n.T("cmd.instance.create.flag.loader"))
	cmd.Flags().String("loader-version", "", i18n.T("cmd.instance.create.flag.loader_version"))
	return cmd
}

type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("instance name %q must be a plain directory name", e.Name)
}

type ExistsError struct {
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("instance %s already exists", e.Name)
}

type UnknownGameVersionError struct {
	Version string
}

func (e *UnknownGameVersionError) Error() string {
	return fmt.Sprintf("unknown minecraft version: %s", e.Version)
}

func validName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && trimmed == name && filepath.Base(name) == name && name != "." && name != ".." && !strings.ContainsAny(name, `/\:`)
}

func runCreate(ctx context.Context, opts createOptions, deps createDeps) (string, error) {
	if !validName(opts.Name) {
		return "", &InvalidNameError{Name: opts.Name}
	}
	path := deps.layout.VersionConfigPath(opts.Name)
	if exists, _ := afero.Exists(deps.fs, path); exists {
		return "", &ExistsError{Name: opts.Name}
	}
	loader, err := models.ParseLoader(opts.Loader)
	if err != nil {
		return "", err
	}

	gameVersion := strings.TrimSpace(opts.GameVersion)
	if gameVersion == "" || gameVersion == "latest" {
		if gameVersion, err = deps.latestVersion(ctx, deps.client); err != nil {
			return "", err
		}
	} else if !deps.validateVersion(ctx, gameVersion, deps.client) {
		return "", &UnknownGameVersionError{Version: gameVersion}
	}

	cfg := models.VersionConfiguration{
		Name:          opts.Name,
		GameVersion:   gameVersion,
		Loader:        loader,
		LoaderVersion: strings.TrimSpace(opts.LoaderVersion),
		Projects:      []models.ProjectReference{},
	}
	if err := config.WriteVersionConfiguration(ctx, deps.fs, path, cfg); err != nil {
		return "", err
	}
	return path, nil
}

func listCommand(options shared.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: i18n.T("cmd.instance.list.short"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "instance.list")
			defer func() { done(err, nil) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			lines, err := runList(ctx, env.Fs, env.Layout)
			if err != nil {
				return err
			}
			for _, line := range lines {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

// runList renders one "<name>  <loader> <version>  <n> projects" line per instance.
func runList(ctx context.Context, fs afero.Fs, layout config.Layout) ([]string, error) {
	names, err := config.ListInstances(ctx, fs, layout)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		cfg, err := config.ReadVersionConfiguration(ctx, fs, layout.VersionConfigPath(name))
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s\t%s", name, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s\t%s %s\t%d", name, cfg.EffectiveLoader(), cfg.GameVersion, len(cfg.Projects)))
	}
	return lines, nil
}
