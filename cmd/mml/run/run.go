package run

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/account"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/servers"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type launcher interface {
	RunCommand(options version.RunOptions) ([]string, error)
	Run(ctx context.Context, options version.RunOptions) error
}

type runOptions struct {
	Instance string
	Print    bool
	Relative bool
	Server   string
	World    string
	Width    int
	Height   int
}

type runDeps struct {
	fs          afero.Fs
	instanceDir string
	load        func(ctx context.Context, name string, deps version.Deps) (launcher, error)
}

func loadInstance(ctx context.Context, name string, deps version.Deps) (launcher, error) {
	instance, err := version.Load(ctx, name, deps)
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func Command() *cobra.Command {
	return command(shared.Options{}, loadInstance, account.NewTokenStore())
}

func command(options shared.Options, load func(context.Context, string, version.Deps) (launcher, error), store shared.TokenStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <instance>",
		Short: i18n.T("cmd.run.short"),
		Long:  i18n.T("cmd.run.long"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "run")
			extra := map[string]any{}
			defer func() { done(err, extra) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			opts := runOptions{Instance: args[0]}
			flags := cmd.Flags()
			if opts.Print, err = flags.GetBool("print"); err != nil {
				return err
			}
			if opts.Relative, err = flags.GetBool("relative"); err != nil {
				return err
			}
			if opts.Server, err = flags.GetString("server"); err != nil {
				return err
			}
			if opts.World, err = flags.GetString("world"); err != nil {
				return err
			}
			if opts.Width, err = flags.GetInt("width"); err != nil {
				return err
			}
			if opts.Height, err = flags.GetInt("height"); err != nil {
				return err
			}
			player, err := shared.ReadAccount(cmd, store)
			if err != nil {
				return err
			}
			extra["provider"] = string(player.Provider)
			extra["print"] = opts.Print

			game := version.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}
			deps := runDeps{fs: env.Fs, instanceDir: env.Layout.InstanceDir(opts.Instance), load: load}
			command, err := runGame(ctx, opts, player, env.VersionDeps(env.Downloader(nil), game), deps)
			if err != nil {
				return err
			}
			if command != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), shared.Quote(command))
			}
			return nil
		},
	}
	cmd.Flags().Bool("print", false, i18n.T("cmd.run.flag.print"))
	cmd.Flags().Bool("relative", false, i18n.T("cmd.run.flag.relative"))
	cmd.Flags().String("server", "", i18n.T("cmd.run.flag.server"))
	cmd.Flags().String("world", "", i18n.T("cmd.run.flag.world"))
	cmd.Flags().Int("width", 0, i18n.T("cmd.run.flag.width"))
	cmd.Flags().Int("height", 0, i18n.T("cmd.run.flag.height"))
	cmd.MarkFlagsMutuallyExclusive("server", "world")
	shared.AddAccountFlags(cmd.Flags())
	return cmd
}

type UnknownServerError struct {
	Name string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("no server named %q in the server list", e.Name)
}

// runGame returns the command line when printing and launches the game otherwise.
func runGame(ctx context.Context, opts runOptions, player account.Account, versionDeps version.Deps, deps runDeps) ([]string, error) {
	instance, err := deps.load(ctx, opts.Instance, versionDeps)
	if err != nil {
		return nil, err
	}

	options := version.RunOptions{
		Account:  player,
		Relative: opts.Relative,
		Width:    opts.Width,
		Height:   opts.Height,
	}
	switch {
	case opts.Server != "":
		address, err := resolveServer(ctx, deps.fs, servers.Path(deps.instanceDir), opts.Server)
		if err != nil {
			return nil, err
		}
		options.QuickPlay = &version.QuickPlay{Multiplayer: address}
	case opts.World != "":
		options.QuickPlay = &version.QuickPlay{Singleplayer: opts.World}
	}

	if opts.Print {
		return instance.RunCommand(options)
	}
	return nil, instance.Run(ctx, options)
}

var addressPattern = regexp.MustCompile(`^(localhost|[^\s:]+\.[^\s:]+|\[[0-9a-fA-F:]+\])(:\d{1,5})?$`)

// resolveServer accepts either the name of a servers.dat entry or an address. A new address is
// added to the list so the game shows it after the session.
func resolveServer(ctx context.Context, fs afero.Fs, path string, target string) (string, error) {
	entries, err := servers.Read(ctx, fs, path)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name, target) {
			return entry.Address, nil
		}
	}
	if !addressPattern.MatchString(target) {
		return "", &UnknownServerError{Name: target}
	}
	if _, err := servers.Ensure(ctx, fs, path, "", target); err != nil {
		return "", err
	}
	return target, nil
}
