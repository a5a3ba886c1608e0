// Package cli is the webapp command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/medilabo/webapp/internal/config"
)

type loader func() (*config.Config, error)

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRoot().ExecuteContext(ctx)
}

func NewRoot() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "webapp",
		Short:         "MediLabo web front-end",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	load := func() (*config.Config, error) { return config.Load(configPath) }
	root.AddCommand(
		serveCmd(load),
		configCmd(load),
		routesCmd(load),
	)
	return root
}
