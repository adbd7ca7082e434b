// File: pkg/pipeline/worker.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// sourceFile is one file read from the source directory.
type sourceFile struct {
	Path     string // Slash-separated path relative to the source root.
	Contents []byte
	Err      error
}

// readFilesConcurrently reads paths below root using a worker pool. Read
// failures are collected and returned together; the files that were read
// are returned sorted by path.
func readFilesConcurrently(ctx context.Context, root string, paths []string, maxWorkers int, logger *zap.Logger) ([]sourceFile, error) {
	jobs := make(chan string, len(paths))
	results := make(chan sourceFile, len(paths))
	var wg sync.WaitGroup

	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
		logger.Debug("Adjusted worker count", zap.Int("workers", maxWorkers))
	}

	logger.Debug("Initializing worker pool", zap.Int("workers", maxWorkers))
	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go worker(ctx, w, root, jobs, results, &wg, logger.With(zap.Int("workerID", w)))
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		files []sourceFile
		errs  error
	)
	for res := range results {
		if res.Err != nil {
			errs = multierr.Append(errs, res.Err)
			continue
		}
		files = append(files, res)
	}
	if err := ctx.Err(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	logger.Debug("All files read", zap.Int("files", len(files)))
	return files, nil
}

// worker reads files from jobs until the channel is closed or ctx is done.
func worker(ctx context.Context, id int, root string, jobs <-chan string, results chan<- sourceFile, wg *sync.WaitGroup, logger *zap.Logger) {
	defer wg.Done()
	logger.Debug("Worker started")

	for path := range jobs {
		if ctx.Err() != nil {
			logger.Debug("Worker cancelled")
			return
		}
		results <- readSingleFile(root, path, logger)
	}

	logger.Debug("Worker finished processing", zap.Int("workerID", id))
}

// readSingleFile reads one file below root.
func readSingleFile(root, relPath string, logger *zap.Logger) sourceFile {
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	contents, err := os.ReadFile(fullPath)
	if err != nil {
		logger.Error("Failed to read file", zap.String("filePath", fullPath), zap.Error(err))
		return sourceFile{Path: relPath, Err: fmt.Errorf("error reading file %s: %w", relPath, err)}
	}

	logger.Debug("Read file content", zap.String("filePath", relPath), zap.Int("contentSizeBytes", len(contents)))
	return sourceFile{Path: relPath, Contents: contents}
}
