package download

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/downloader"
	"github.com/meza/minecraft-launcher/internal/i18n"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/meza/minecraft-launcher/internal/tui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const defaultGroup = "files"

func Command() *cobra.Command {
	return command(shared.Options{})
}

func command(options shared.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "download <items.json>",
		Short: i18n.T("cmd.download.short"),
		Long:  i18n.T("cmd.download.long"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, done := shared.Track(cmd.Context(), "download")
			extra := map[string]any{}
			defer func() { done(err, extra) }()

			env, err := shared.Setup(ctx, cmd, options)
			if err != nil {
				return err
			}
			defer env.Close()

			items, err := readItems(env.Fs, env.Layout, args[0])
			if err != nil {
				return err
			}
			extra["items"] = len(items)

			var result downloader.Result
			title := i18n.T("cmd.download.title", i18n.Tvars{Count: len(items)})
			err = env.Progress(ctx, cmd, title, func(ctx context.Context, observer downloader.Observer) error {
				result = env.Downloader(observer).DownloadFiles(ctx, items)
				return ctx.Err()
			})
			extra["downloaded_bytes"] = result.Info.DownloadedBytes
			if err != nil {
				return err
			}

			for _, line := range summarize(result) {
				env.Logger.Log(line, !result.OK())
			}
			if !result.OK() {
				return &IncompleteError{Info: result.Info}
			}
			return nil
		},
	}
}

type InvalidItemError struct {
	Index int
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("item %d needs a url and a destination", e.Index)
}

type IncompleteError struct {
	Info downloader.Info
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d of %d downloads did not complete", e.Info.TotalItems-e.Info.CompletedItems, e.Info.TotalItems)
}

// readItems loads a JSON array of download items. Relative destinations land under the data
// root and a missing group puts the item in "files".
func readItems(fs afero.Fs, layout config.Layout, path string) ([]models.DownloadItem, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var items []models.DownloadItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for index := range items {
		item := &items[index]
		if strings.TrimSpace(item.Group) == "" {
			item.Group = defaultGroup
		}
		if !item.Valid() {
			return nil, &InvalidItemError{Index: index}
		}
		item.Destination = layout.Resolve(item.Destination)
		if item.Options != nil && item.Options.ExtractFolder != "" {
			item.Options.ExtractFolder = layout.Resolve(item.Options.ExtractFolder)
		}
	}
	return items, nil
}

func summarize(result downloader.Result) []string {
	lines := []string{tui.Stats(result.Info)}
	for _, outcome := range result.Failed() {
		lines = append(lines, fmt.Sprintf("failed  %s: %v", outcome.Item.URL, outcome.Err))
	}
	for _, outcome := range result.Blocked() {
		lines = append(lines, fmt.Sprintf("blocked %s -> %s", strings.TrimPrefix(outcome.Item.URL, models.BlockedURLPrefix), outcome.Item.Destination))
	}
	return lines
}
