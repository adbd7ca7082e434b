package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/CMClay/metalsmith-concat/pkg/concat"
	"github.com/CMClay/metalsmith-concat/pkg/config"
	"github.com/CMClay/metalsmith-concat/pkg/filemap"
	"github.com/CMClay/metalsmith-concat/pkg/pipeline"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// buildFlags holds the flags of the build command. Pipeline flags override
// the config file only when set; the step flags define one extra concat
// step that runs after the configured ones.
type buildFlags struct {
	source       string
	destination  string
	ignore       []string
	globalIgnore string
	workers      int
	maxSizeKB    int
	skipBinary   bool
	clean        bool
	yes          bool
	tree         bool
	dryRun       bool
	watch        bool

	files    string
	file     []string
	output   string
	keep     bool
	metadata map[string]string
}

func newBuildCmd(state *cliState) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Read the source directory, run the concat steps and write the result",
		Example: `  concat build
  concat build --source src --destination build --files "css/**/*.css" --output css/all.css
  concat build --file js/vendor.js --file js/app.js --output js/bundle.js --keep --metadata title=Bundle
  concat build --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, state, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.source, "source", "s", "", "Source directory (overrides config)")
	f.StringVarP(&flags.destination, "destination", "d", "", "Destination directory (overrides config)")
	f.StringArrayVar(&flags.ignore, "ignore", nil, "Additional ignore pattern (repeatable)")
	f.StringVar(&flags.globalIgnore, "global-ignore", "", "Global ignore file applied before .concatignore")
	f.IntVarP(&flags.workers, "workers", "w", 0, "Concurrent file readers (0 = one per CPU)")
	f.IntVar(&flags.maxSizeKB, "max-size-kb", 0, "Skip source files larger than this (0 = no limit)")
	f.BoolVar(&flags.skipBinary, "skip-binary", false, "Leave binary files out of the build")
	f.BoolVar(&flags.clean, "clean", false, "Remove the destination directory before writing")
	f.BoolVarP(&flags.yes, "yes", "y", false, "Do not ask for confirmation")
	f.BoolVar(&flags.tree, "tree", false, "Print the resulting file tree")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Run the steps without writing; prints the steps and the tree")
	f.BoolVar(&flags.watch, "watch", false, "Rebuild whenever the source directory changes")

	f.StringVar(&flags.files, "files", "", "Glob pattern selecting the files of the extra step")
	f.StringArrayVar(&flags.file, "file", nil, "Explicit input of the extra step, in order (repeatable)")
	f.StringVarP(&flags.output, "output", "o", "", "Output path of the extra step")
	f.BoolVar(&flags.keep, "keep", false, "Keep the inputs of the extra step")
	f.StringToStringVar(&flags.metadata, "metadata", nil, "Metadata field of the extra step as key=value (repeatable)")

	return cmd
}

func runBuild(cmd *cobra.Command, state *cliState, flags *buildFlags) error {
	logger := state.logger
	ctx := cmd.Context()

	cfg, err := config.Load(state.configPath)
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return err
	}
	applyBuildFlags(cmd, cfg, flags)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	plugins, err := cfg.Plugins(logger)
	if err != nil {
		return err
	}
	step, err := flagStep(cmd, flags, logger)
	if err != nil {
		return err
	}
	if step != nil {
		plugins = append(plugins, step)
	}
	if len(plugins) == 0 {
		logger.Warn("No concat steps configured; files are copied unchanged")
	}

	p := pipeline.New(cfg.PipelineOptions(), logger)
	for _, plugin := range plugins {
		p.Use(plugin)
	}

	if flags.watch && flags.dryRun {
		return errors.New("--watch and --dry-run are mutually exclusive")
	}

	out := cmd.OutOrStdout()
	if flags.dryRun {
		files, err := p.Read(ctx)
		if err != nil {
			return err
		}
		if err := p.Run(ctx, files); err != nil {
			return err
		}
		printSteps(out, p.Plugins())
		_, err = fmt.Fprint(out, pipeline.Tree(cfg.Destination, files))
		return err
	}

	if cfg.Clean && !flags.yes {
		confirmed, err := confirmClean(cmd, cfg.Destination)
		if err != nil {
			return err
		}
		if !confirmed {
			logger.Info("User chose to abort the build instead of cleaning the destination")
			return nil
		}
	}

	if flags.watch {
		return p.Watch(ctx, pipeline.DefaultDebounce, func(files *filemap.FileMap, err error) {
			if err != nil {
				logger.Error("Build failed; waiting for changes", zap.Error(err))
				return
			}
			if flags.tree {
				fmt.Fprint(out, pipeline.Tree(cfg.Destination, files))
			}
		})
	}

	files, err := p.Build(ctx)
	if err != nil {
		return err
	}
	if flags.tree {
		_, err = fmt.Fprint(out, pipeline.Tree(cfg.Destination, files))
		return err
	}
	return nil
}

// applyBuildFlags overrides cfg with the pipeline flags the user set.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, flags *buildFlags) {
	f := cmd.Flags()
	if f.Changed("source") {
		cfg.Source = flags.source
	}
	if f.Changed("destination") {
		cfg.Destination = flags.destination
	}
	if f.Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, flags.ignore...)
	}
	if f.Changed("global-ignore") {
		cfg.GlobalIgnoreFile = flags.globalIgnore
	}
	if f.Changed("workers") {
		cfg.MaxWorkers = flags.workers
	}
	if f.Changed("max-size-kb") {
		cfg.MaxFileSizeKB = flags.maxSizeKB
	}
	if f.Changed("skip-binary") {
		cfg.SkipBinary = flags.skipBinary
	}
	if f.Changed("clean") {
		cfg.Clean = flags.clean
	}
}

// flagStep builds the concat step described by the step flags, or nil when
// --output is not set.
func flagStep(cmd *cobra.Command, flags *buildFlags, logger *zap.Logger) (*concat.Plugin, error) {
	f := cmd.Flags()
	if flags.output == "" {
		if f.Changed("files") || f.Changed("file") || f.Changed("keep") || f.Changed("metadata") {
			return nil, errors.New("--files, --file, --keep and --metadata require --output")
		}
		return nil, nil
	}
	if f.Changed("files") && f.Changed("file") {
		return nil, errors.New("--files and --file are mutually exclusive")
	}

	opts := concat.Options{
		Output:           flags.output,
		KeepConcatenated: flags.keep,
	}
	switch {
	case f.Changed("file"):
		opts.Files = concat.Explicit(flags.file)
	case f.Changed("files"):
		opts.Files = concat.Glob(flags.files)
	}
	if len(flags.metadata) > 0 {
		md := make(map[string]any, len(flags.metadata))
		for k, v := range flags.metadata {
			md[k] = v
		}
		opts.Metadata = md
	}
	return concat.New(opts, logger)
}

// confirmClean asks before removing the destination.
func confirmClean(cmd *cobra.Command, destination string) (bool, error) {
	ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove %s before writing?", destination))
	if err != nil && !errors.Is(err, errAborted) {
		return false, fmt.Errorf("refusing to clean %s without confirmation; pass --yes: %w", destination, err)
	}
	return ok, nil
}

// printSteps renders the configured steps as a table.
func printSteps(w io.Writer, plugins []pipeline.Plugin) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Step", "Output", "Files", "Keep"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for i, plugin := range plugins {
		row := []string{strconv.Itoa(i + 1), plugin.Name(), "-", "-"}
		if step, ok := plugin.(*concat.Plugin); ok {
			opts := step.Options()
			row[1] = opts.Output
			row[2] = opts.Files.String()
			row[3] = strconv.FormatBool(opts.KeepConcatenated)
		}
		table.Append(row)
	}
	table.Render()
}
