package install

import (
	"context"
	"fmt"
	"strings"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/account"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/tui"
	"github.com/meza/minecraft-launcher/internal/version"
	"github.com/spf13/cobra"
)

type installer interface {
	Install(ctx context.Context, player account.Account) (version.InstallReport, error)
}

type installDeps struct {
	load func(ctx context.Context, name string, deps version.Deps) (installer, error)
}

// loadInstance keeps an instance whose cached manifest is unreadable; Install refetches it.
func loadInstance(ctx context.Context, name string, deps version.Deps) (installer, error) {
	instance, err := version.Load(ctx, name, deps)
	if instance == nil {
		return nil, err
	}
	return instance, err
}

func Command() *cobra.Command {
	return command(shared.Options{}, installDeps{load: loadInstance}, account.NewTokenStore())
}

func command(options shared.Options, deps installDeps, store shared.TokenStore) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <instance>",
		Short: i18n.T("cmd.install.short"),
		Long:  i18n.T("cmd.install.long"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "install")
			extra := map[string]any{}
			defer func() { done(err, extra) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			player, err := shared.ReadAccount(cmd, store)
			if err != nil {
				return err
			}

			var report version.InstallReport
			title := i18n.T("cmd.install.title", i18n.Tvars{Data: &i18n.TData{"name": args[0]}})
			err = env.Progress(ctx, cmd, title, func(ctx context.Context, observer downloader.Observer) error {
				runner := version.ExecRunner{}
				if env.Globals.Debug {
					runner.Stderr = cmd.ErrOrStderr()
				}
				report, err = runInstall(ctx, args[0], player, env.VersionDeps(env.Downloader(observer), runner), deps)
				return err
			})

			extra["new_manifest"] = report.NewManifest
			extra["downloaded_bytes"] = report.Downloads.Info.DownloadedBytes
			for _, line := range renderReport(report) {
				env.Logger.Log(line, err != nil)
			}
			return err
		},
	}
	shared.AddAccountFlags(cmd.Flags())
	return cmd
}

func runInstall(ctx context.Context, name string, player account.Account, versionDeps version.Deps, deps installDeps) (version.InstallReport, error) {
	instance, err := deps.load(ctx, name, versionDeps)
	if err != nil && version.KindOf(err) != version.Malformed {
		return version.InstallReport{}, err
	}
	if instance == nil {
		return version.InstallReport{}, err
	}
	return instance.Install(ctx, player)
}

// renderReport lists every stage, then the files the player has to fetch by hand.
func renderReport(report version.InstallReport) []string {
	lines := make([]string, 0, len(report.Stages)+2)
	for _, stage := range report.Stages {
		line := fmt.Sprintf("%-10s %s", stage.Name, stage.Status)
		if stage.Detail != "" {
			line += " (" + stage.Detail + ")"
		}
		if stage.Err != nil {
			line += ": " + stage.Err.Error()
		}
		lines = append(lines, line)
	}
	blocked := report.Downloads.Blocked()
	if len(blocked) > 0 {
		lines = append(lines, tui.WarningStyle.Render(i18n.T("cmd.install.blocked", i18n.Tvars{Count: len(blocked)})))
		for _, outcome := range blocked {
			lines = append(lines, "  "+strings.TrimPrefix(outcome.Item.URL, models.BlockedURLPrefix)+" -> "+outcome.Item.Destination)
		}
	}
	return lines
}
