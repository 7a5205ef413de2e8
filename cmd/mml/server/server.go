package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/account"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/httpclient"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/minecraft"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/server"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/spf13/cobra"
)

type installOptions struct {
	Loader        string
	GameVersion   string
	LoaderVersion string
	Dir           string
	MemoryMB      int
	JavaPath      string
}

type installDeps struct {
	client      httpclient.Doer
	javaMajor   func(ctx context.Context, client httpclient.Doer, gameVersion string) (int, error)
	installJava func(ctx context.Context, major int, observer downloader.Observer) (string, error)
	install     func(ctx context.Context, request server.Request, observer downloader.Observer) (server.Result, error)
	latest      func(ctx context.Context, client httpclient.Doer) (string, error)
}

func manifestJavaMajor(ctx context.Context, client httpclient.Doer, gameVersion string) (int, error) {
	manifest, err := version.FetchManifest(ctx, client, gameVersion)
	if err != nil {
		return 0, err
	}
	return manifest.JavaMajor(), nil
}

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: i18n.T("cmd.server.short"),
	}
	cmd.AddCommand(installCommand(shared.Options{}, nil, account.NewTokenStore()))
	return cmd
}

// installCommand builds `server install`. A nil wire builds the real dependencies from the env.
func installCommand(options shared.Options, wire func(env *shared.Env) installDeps, store shared.TokenStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: i18n.T("cmd.server.install.short"),
		Long:  i18n.T("cmd.server.install.long"),
		Example: "  mml server install --loader fabric --version 1.21.1 --dir ./survival-server\n" +
			"  mml server install --loader neoforge --version 1.21.1 --loader-version 21.1.65 --memory 6144",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "server.install")
			extra := map[string]any{}
			defer func() { done(err, extra) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			var opts installOptions
			flags := cmd.Flags()
			if opts.Loader, err = flags.GetString("loader"); err != nil {
				return err
			}
			if opts.GameVersion, err = flags.GetString("version"); err != nil {
				return err
			}
			if opts.LoaderVersion, err = flags.GetString("loader-version"); err != nil {
				return err
			}
			if opts.Dir, err = flags.GetString("dir"); err != nil {
				return err
			}
			if opts.MemoryMB, err = flags.GetInt("memory"); err != nil {
				return err
			}
			if opts.JavaPath, err = flags.GetString("java"); err != nil {
				return err
			}
			if opts.MemoryMB <= 0 {
				opts.MemoryMB = env.Settings.MemoryMB
			}
			player, err := shared.ReadAccount(cmd, store)
			if err != nil {
				return err
			}
			extra["loader"] = opts.Loader

			if wire == nil {
				wire = defaultWire(cmd)
			}
			deps := wire(env)

			var result server.Result
			title := i18n.T("cmd.server.install.title", i18n.Tvars{Data: &i18n.TData{"loader": opts.Loader, "version": opts.GameVersion}})
			err = env.Progress(ctx, cmd, title, func(ctx context.Context, observer downloader.Observer) error {
				var installErr error
				result, installErr = runInstall(ctx, opts, player, env.Settings.AuthlibBackend, observer, deps)
				return installErr
			})
			if err != nil {
				return err
			}
			extra["layout"] = string(result.Layout)

			env.Logger.Log(i18n.T("cmd.server.install.done", i18n.Tvars{Data: &i18n.TData{
				"loader":  result.Loader.String(),
				"version": result.LoaderVersion,
				"dir":     opts.Dir,
			}}), false)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), shared.Quote(result.Command))
			env.Logger.Log(i18n.T("cmd.server.install.eula"), true)
			return nil
		},
	}
	cmd.Flags().StringP("loader", "l", string(models.VANILLA), i18n.T("cmd.server.install.flag.loader"))
	cmd.Flags().StringP("version", "v", "latest", i18n.T("cmd.server.install.flag.version"))
	cmd.Flags().String("loader-version", "", i18n.T("cmd.server.install.flag.loader_version"))
	cmd.Flags().String("dir", "server", i18n.T("cmd.server.install.flag.dir"))
	cmd.Flags().Int("memory", 0, i18n.T("cmd.server.install.flag.memory"))
	cmd.Flags().String("java", "", i18n.T("cmd.server.install.flag.java"))
	shared.AddAccountFlags(cmd.Flags())
	return cmd
}

func defaultWire(cmd *cobra.Command) func(env *shared.Env) installDeps {
	return func(env *shared.Env) installDeps {
		runner := version.ExecRunner{}
		if env.Globals.Debug {
			runner.Stdout = cmd.ErrOrStderr()
			runner.Stderr = cmd.ErrOrStderr()
		}
		return installDeps{
			client:    env.Client,
			javaMajor: manifestJavaMajor,
			latest:    minecraft.GetLatestVersion,
			installJava: func(ctx context.Context, major int, observer downloader.Observer) (string, error) {
				runtime, err := env.InstallJava(ctx, major, models.CurrentHost(), env.Downloader(observer))
				if err != nil {
					return "", err
				}
				return runtime.ServerJavaPath, nil
			},
			install: func(ctx context.Context, request server.Request, observer downloader.Observer) (server.Result, error) {
				installer := server.NewInstaller(server.Deps{
					Fs:         env.Fs,
					Client:     env.Client,
					Downloader: env.Downloader(observer),
					Runner:     runner,
					Logger:     env.Logger,
				})
				return installer.Install(ctx, request)
			},
		}
	}
}

// runInstall provisions the java the game version asks for unless a JVM was given, then
// installs the server into opts.Dir.
func runInstall(ctx context.Context, opts installOptions, player account.Account, authlibBackend string, observer downloader.Observer, deps installDeps) (server.Result, error) {
	loader, err := models.ParseLoader(opts.Loader)
	if err != nil {
		return server.Result{}, err
	}
	gameVersion := strings.TrimSpace(opts.GameVersion)
	if gameVersion == "" || gameVersion == "latest" {
		if gameVersion, err = deps.latest(ctx, deps.client); err != nil {
			return server.Result{}, err
		}
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return server.Result{}, err
	}

	javaPath := opts.JavaPath
	if javaPath == "" {
		major, err := deps.javaMajor(ctx, deps.client, gameVersion)
		if err != nil {
			return server.Result{}, err
		}
		if javaPath, err = deps.installJava(ctx, major, observer); err != nil {
			return server.Result{}, err
		}
	}

	return deps.install(ctx, server.Request{
		Loader:         loader,
		GameVersion:    gameVersion,
		LoaderVersion:  strings.TrimSpace(opts.LoaderVersion),
		Dir:            dir,
		JavaPath:       javaPath,
		MemoryMB:       opts.MemoryMB,
		Account:        player,
		AuthlibBackend: authlibBackend,
	}, observer)
}
