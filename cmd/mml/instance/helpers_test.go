package instance

import (
	"bytes"
	"context"
	"testing"

	"github.com/meza/minecraft-launcher/cmd/mml/shared"
	"github.com/meza/minecraft-launcher/internal/config"
	"github.com/meza/minecraft-launcher/internal/models"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const dataDir = "/data"

// execute runs child under a root carrying the global flags and returns stdout.
func execute(t *testing.T, child *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "mml", SilenceUsage: true, SilenceErrors: true}
	shared.AddGlobalFlags(root.PersistentFlags())
	root.AddCommand(child)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(bytes.NewBuffer(nil))
	root.SetArgs(append([]string{child.Name(), "--data-dir", dataDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInstance(t *testing.T, fs afero.Fs, cfg models.VersionConfiguration) config.Layout {
	t.Helper()
	layout := config.NewLayout(dataDir)
	require.NoError(t, config.WriteVersionConfiguration(context.Background(), fs, layout.VersionConfigPath(cfg.Name), cfg))
	return layout
}
