package java

import (
	"context"
	"fmt"
	"strconv"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/java"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "java",
		Short: i18n.T("cmd.java.short"),
	}
	cmd.AddCommand(installCommand(shared.Options{}, models.CurrentHost()))
	return cmd
}

type InvalidMajorError struct {
	Value string
}

func (e *InvalidMajorError) Error() string {
	return fmt.Sprintf("invalid java major version: %s", e.Value)
}

func parseMajor(value string) (int, error) {
	major, err := strconv.Atoi(value)
	if err != nil || major < 8 {
		return 0, &InvalidMajorError{Value: value}
	}
	return major, nil
}

func installCommand(options shared.Options, host models.Host) *cobra.Command {
	return &cobra.Command{
		Use:     "install <major>",
		Short:   i18n.T("cmd.java.install.short"),
		Example: "  mml java install 21",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "java.install")
			extra := map[string]any{}
			defer func() { done(err, extra) }()

			major, err := parseMajor(args[0])
			if err != nil {
				return err
			}
			extra["major"] = major

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			var runtime *java.Runtime
			title := i18n.T("cmd.java.install.title", i18n.Tvars{Data: &i18n.TData{"major": major}})
			err = env.Progress(ctx, cmd, title, func(ctx context.Context, observer downloader.Observer) error {
				var installErr error
				runtime, installErr = env.InstallJava(ctx, major, host, env.Downloader(observer))
				return installErr
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), runtime.JavaPath)
			return nil
		},
	}
}
