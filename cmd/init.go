package cmd

import (
	"fmt"
	"os"

	"github.com/CMClay/metalsmith-concat/pkg/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInitCmd(state *cliState) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := state.configPath
			if path == "" {
				path = config.DefaultConfigName
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file %s already exists; use --force to overwrite", path)
			}
			if err := config.Save(config.SampleConfig(), path); err != nil {
				state.logger.Error("Failed to write configuration", zap.String("path", path), zap.Error(err))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")
	return cmd
}
