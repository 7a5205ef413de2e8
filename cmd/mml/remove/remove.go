package remove

import (
	"context"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/spf13/cobra"
)

type deleter interface {
	Delete(ctx context.Context, full bool) error
}

func loadInstance(ctx context.Context, name string, deps version.Deps) (deleter, error) {
	instance, err := version.Load(ctx, name, deps)
	if instance == nil {
		return nil, err
	}
	// An unreadable manifest still leaves a directory to remove.
	if err != nil && version.KindOf(err) != version.Malformed {
		return nil, err
	}
	return instance, nil
}

func Command() *cobra.Command {
	return command(shared.Options{}, loadInstance)
}

func command(options shared.Options, load func(context.Context, string, version.Deps) (deleter, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <instance>",
		Aliases: []string{"rm"},
		Short:   i18n.T("cmd.remove.short"),
		Long:    i18n.T("cmd.remove.long"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "remove")
			full, _ := cmd.Flags().GetBool("full")
			defer func() { done(err, map[string]any{"full": full}) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			instance, err := load(ctx, args[0], env.VersionDeps(nil, nil))
			if err != nil {
				return err
			}
			if err := instance.Delete(ctx, full); err != nil {
				return err
			}
			env.Logger.Log(i18n.T("cmd.remove.done", i18n.Tvars{Data: &i18n.TData{"name": args[0]}}), false)
			return nil
		},
	}
	cmd.Flags().Bool("full", false, i18n.T("cmd.remove.flag.full"))
	return cmd
}
