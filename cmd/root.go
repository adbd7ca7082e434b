package cmd

import (
	"context"
	"fmt"

	"github.com/CMClay/metalsmith-concat/pkg/logging"
	"github.com/CMClay/metalsmith-concat/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cliState is shared by the root command and its subcommands.
type cliState struct {
	logger     *zap.Logger
	configPath string
	debug      bool
}

// NewRootCmd builds the command tree. logger is used unless --debug
// replaces it with a development logger.
func NewRootCmd(logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	state := &cliState{logger: logger}

	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: "concat merges files of a static site build into bundles",
		Long: `concat reads a source directory into memory, runs the configured concat
steps over it and writes the result to a destination directory. Each step
joins the files selected by a glob pattern or an explicit list into one
output file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !state.debug {
				return nil
			}
			if err := logging.Setup(true, version.AppName, version.Get().Version); err != nil {
				return fmt.Errorf("failed to initialize debug logger: %w", err)
			}
			state.logger = logging.Logger
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&state.configPath, "config", "c", "", "Path to the config file (default ./concat.yaml)")
	rootCmd.PersistentFlags().BoolVar(&state.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newBuildCmd(state),
		newInitCmd(state),
		newSchemaCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, logger *zap.Logger) error {
	return NewRootCmd(logger).ExecuteContext(ctx)
}
