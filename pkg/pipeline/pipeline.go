// Package pipeline reads a source directory into a file map, runs a
// sequence of plugins over it and writes the result to a destination
// directory.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/CMClay/metalsmith-concat/pkg/filemap"
	"github.com/CMClay/metalsmith-concat/pkg/ignore"

	"go.uber.org/zap"
)

// Plugin transforms a file map in place.
type Plugin interface {
	Name() string
	Process(files *filemap.FileMap) error
}

type funcPlugin struct {
	name string
	fn   func(files *filemap.FileMap) error
}

func (p funcPlugin) Name() string {
	return p.name
}

func (p funcPlugin) Process(files *filemap.FileMap) error {
	return p.fn(files)
}

// Func adapts a function into a named Plugin.
func Func(name string, fn func(files *filemap.FileMap) error) Plugin {
	return funcPlugin{name: name, fn: fn}
}

// Options configures how files are read and written.
type Options struct {
	Source           string   // Directory read into the file map.
	Destination      string   // Directory the file map is written to.
	Clean            bool     // Remove Destination before writing.
	IgnorePatterns   []string // Extra ignore patterns applied after ignore files.
	GlobalIgnoreFile string   // Optional global ignore file.
	MaxFileSizeKB    int      // Files larger than this are skipped; 0 disables the limit.
	MaxWorkers       int      // Concurrent readers; 0 uses runtime.NumCPU().
	SkipBinary       bool     // Leave binary files out of the file map.
}

// Pipeline runs plugins over a file map.
type Pipeline struct {
	opts    Options
	plugins []Plugin
	logger  *zap.Logger
}

// New returns a Pipeline with no plugins.
func New(opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Use appends plugins to the pipeline.
func (p *Pipeline) Use(plugins ...Plugin) *Pipeline {
	p.plugins = append(p.plugins, plugins...)
	return p
}

// Plugins returns the configured plugins in run order.
func (p *Pipeline) Plugins() []Plugin {
	return append([]Plugin(nil), p.plugins...)
}

// Read loads the source directory into a new file map. Keys are
// slash-separated paths relative to Source, inserted in sorted order.
func (p *Pipeline) Read(ctx context.Context) (*filemap.FileMap, error) {
	root, err := filepath.Abs(p.opts.Source)
	if err != nil {
		p.logger.Error("Failed to resolve source directory", zap.String("source", p.opts.Source), zap.Error(err))
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	gi, err := ignore.Load(root, p.opts.GlobalIgnoreFile, p.logger)
	if err != nil {
		p.logger.Error("Failed to load ignore patterns", zap.Error(err))
		return nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}
	if len(p.opts.IgnorePatterns) > 0 {
		gi.CompileLines("options", p.opts.IgnorePatterns...)
		p.logger.Debug("Added ignore patterns from options", zap.Int("count", len(p.opts.IgnorePatterns)))
	}
	p.logger.Debug("Ignore rules ready", zap.Int("patterns", gi.Len()))

	paths, err := collectFiles(ctx, root, gi, p.opts.MaxFileSizeKB, p.logger)
	if err != nil {
		p.logger.Error("Failed to collect files", zap.Error(err))
		return nil, fmt.Errorf("failed to collect files: %w", err)
	}

	sources, err := readFilesConcurrently(ctx, root, paths, p.opts.MaxWorkers, p.logger)
	if err != nil {
		p.logger.Error("Failed to read files", zap.Error(err))
		return nil, fmt.Errorf("failed to read files: %w", err)
	}

	files := filemap.New()
	var binary []string
	for _, src := range sources {
		if p.opts.SkipBinary && (isCommonBinaryExtension(src.Path) || isBinary(src.Contents)) {
			binary = append(binary, src.Path)
			continue
		}
		files.Set(src.Path, filemap.NewFile(src.Contents))
	}
	if len(binary) > 0 {
		p.logger.Warn("Detected binary files. These files are not included in the file map.",
			zap.Int("binaryFileCount", len(binary)),
			zap.Strings("binaryFiles", binary))
	}
	if files.Len() == 0 {
		p.logger.Warn("No files to process after filtering.", zap.String("source", root))
	}

	p.logger.Debug("Read source directory", zap.String("source", root), zap.Int("files", files.Len()))
	return files, nil
}

// Run applies every plugin to files in order. The first failing plugin
// aborts the run; files keeps whatever mutations happened before.
func (p *Pipeline) Run(ctx context.Context, files *filemap.FileMap) error {
	for i, plugin := range p.plugins {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		if err := plugin.Process(files); err != nil {
			p.logger.Error("Plugin failed",
				zap.Int("step", i),
				zap.String("plugin", plugin.Name()),
				zap.Error(err))
			return fmt.Errorf("plugin %s failed: %w", plugin.Name(), err)
		}
		p.logger.Debug("Plugin finished",
			zap.Int("step", i),
			zap.String("plugin", plugin.Name()),
			zap.Int("files", files.Len()),
			zap.Duration("elapsed", time.Since(start)))
	}
	return nil
}

// Build reads the source directory, runs the plugins and writes the result.
// It returns the final file map.
func (p *Pipeline) Build(ctx context.Context) (*filemap.FileMap, error) {
	startTime := time.Now()
	p.logger.Info("Starting build",
		zap.String("source", p.opts.Source),
		zap.String("destination", p.opts.Destination),
		zap.Int("plugins", len(p.plugins)))

	files, err := p.Read(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Run(ctx, files); err != nil {
		return files, err
	}
	if err := p.Write(ctx, files); err != nil {
		return files, err
	}

	p.logger.Info("Build completed",
		zap.Int("totalFiles", files.Len()),
		zap.Duration("elapsed", time.Since(startTime)))
	return files, nil
}
