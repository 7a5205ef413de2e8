package mml

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meza/minecraft-launcher/cmd/mml/download"
	"github.com/meza/minecraft-launcher/cmd/mml/install"
	"github.com/meza/minecraft-launcher/cmd/mml/instance"
	"github.com/meza/minecraft-launcher/cmd/mml/java"
	"github.com/meza/minecraft-launcher/cmd/mml/remove"
	"github.com/meza/minecraft-launcher/cmd/mml/run"
	"github.com/meza/minecraft-launcher/cmd/mml/server"
	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/cmd/mml/version"
	"github.com/meza/minecraft-launcher/internal/constants"
	"github.com/meza/minecraft-launcher/internal/environment"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func Command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           constants.CommandName,
		Short:         i18n.T("app.description"),
		Version:       environment.AppVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cobra.MousetrapHelpText = "" // allow the app to run in windows by clicking the exe

	flags := rootCmd.PersistentFlags()
	shared.AddGlobalFlags(flags)
	flags.Bool("perf", false, i18n.T("cmd.root.flag.perf"))
	flags.String("perf-out-dir", "", i18n.T("cmd.root.flag.perf_out_dir"))

	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(
		instance.Command(),
		install.Command(),
		run.Command(),
		remove.Command(),
		java.Command(),
		server.Command(),
		download.Command(),
		version.Command(),
	)

	translateDefaultHelpFacilities(rootCmd)
	fixFlagUsageAlignment(rootCmd)
	rootCmd.SetHelpTemplate(rootCmd.HelpTemplate() + "\n" + i18n.T("cmd.help.more", i18n.Tvars{
		Data: &i18n.TData{"url": environment.HelpURL()},
	}) + "\n")

	return rootCmd
}

func translateDefaultHelpFacilities(rootCmd *cobra.Command) {
	allCommands := []*cobra.Command{rootCmd}
	queue := rootCmd.Commands()
	for len(queue) > 0 {
		next := queue[0]
		queue = append(queue[1:], next.Commands()...)
		allCommands = append(allCommands, next)
	}

	for _, cmd := range allCommands {
		cmd.InitDefaultHelpFlag()
		cmd.Flags().Lookup("help").Usage = i18n.T("cmd.help.template", i18n.Tvars{
			Data: &i18n.TData{"command": cmd.Name()},
		})
	}

	rootCmd.InitDefaultHelpCmd()
	helpCmd, _, e := rootCmd.Find([]string{"help"})
	if e != nil {
		return
	}
	helpCmd.Short = i18n.T("cmd.help.usage.short")
	helpCmd.Long = i18n.T("cmd.help.usage.long", i18n.Tvars{
		Data: &i18n.TData{"appName": rootCmd.Name()},
	})
	helpCmd.Run = func(c *cobra.Command, args []string) {
		cmd, _, e := c.Root().Find(args)
		if cmd == nil || e != nil {
			c.PrintErrln(i18n.T("cmd.help.error", i18n.Tvars{
				Data: &i18n.TData{"topic": fmt.Sprintf("%#q", args)},
			}) + "\n")
			cobra.CheckErr(c.Root().Usage())
			return
		}
		cmd.InitDefaultHelpFlag()
		cmd.InitDefaultVersionFlag()
		cobra.CheckErr(cmd.Help())
	}
}

func fixFlagUsageAlignment(rootCmd *cobra.Command) {
	width, _, _ := term.GetSize(int(os.Stdout.Fd()))
	usageTemplate := rootCmd.UsageTemplate()
	usageTemplate = strings.ReplaceAll(usageTemplate, ".FlagUsages", fmt.Sprintf(".FlagUsagesWrapped %d", width))
	rootCmd.SetUsageTemplate(usageTemplate)
}

func Execute(ctx context.Context, args []string) error {
	cmd := Command()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
