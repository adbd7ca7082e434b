// File: pkg/pipeline/watch.go
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/CMClay/metalsmith-concat/pkg/filemap"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits for changes to settle before
// rebuilding.
const DefaultDebounce = 200 * time.Millisecond

// Watch builds once and then rebuilds whenever something below Source
// changes, until ctx is done. Changes below Destination are ignored.
// onBuild receives the result of every build; a failed build does not stop
// watching.
func (p *Pipeline) Watch(ctx context.Context, debounce time.Duration, onBuild func(*filemap.FileMap, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	root, err := filepath.Abs(p.opts.Source)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	dest, err := filepath.Abs(p.opts.Destination)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchTree(watcher, root, dest); err != nil {
		p.logger.Error("Failed to watch source directory", zap.String("source", root), zap.Error(err))
		return fmt.Errorf("failed to watch source directory: %w", err)
	}
	p.logger.Info("Watching for changes", zap.String("source", root), zap.Duration("debounce", debounce))

	onBuild(p.Build(ctx))

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isWithin(dest, event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, event.Name, dest); err != nil {
						p.logger.Warn("Failed to watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			p.logger.Debug("Source changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("File watcher error", zap.Error(err))

		case <-timer.C:
			onBuild(p.Build(ctx))
		}
	}
}

// watchTree adds dir and every directory below it, except dest, to watcher.
func watchTree(watcher *fsnotify.Watcher, dir, dest string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isWithin(dest, path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
