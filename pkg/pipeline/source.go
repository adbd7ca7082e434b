// File: pkg/pipeline/source.go
package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/CMClay/metalsmith-concat/pkg/ignore"

	"go.uber.org/zap"
)

// collectFiles walks root and returns the slash-separated relative paths of
// the regular files to read, in lexical order.
func collectFiles(ctx context.Context, root string, gi *ignore.Matcher, maxFileSizeKB int, logger *zap.Logger) ([]string, error) {
	var paths []string
	logger.Debug("Starting file traversal and collection", zap.String("root", root), zap.Int("maxFileSizeKB", maxFileSizeKB))

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			logger.Warn("Unable to determine relative path", zap.String("path", path), zap.Error(err))
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if gi.Match(relPath, true) {
				logger.Debug("Skipping ignored directory", zap.String("directory", relPath))
				return filepath.SkipDir
			}
			return nil
		}
		if shouldSkipFile(relPath, d, gi, maxFileSizeKB, logger) {
			return nil
		}

		paths = append(paths, relPath)
		return nil
	})
	if err != nil {
		logger.Error("Error during file traversal", zap.Error(err))
		return nil, err
	}

	logger.Debug("Completed file traversal and collection", zap.Int("files", len(paths)))
	return paths, nil
}

// shouldSkipFile determines if a file should be left out based on its type,
// ignore patterns and size.
func shouldSkipFile(relPath string, d fs.DirEntry, gi *ignore.Matcher, maxFileSizeKB int, logger *zap.Logger) bool {
	if !d.Type().IsRegular() {
		logger.Debug("Skipping non-regular file", zap.String("file", relPath))
		return true
	}
	if relPath == ignore.FileName {
		return true
	}
	if ok, p := gi.MatchWithPattern(relPath, false); ok {
		logger.Debug("File matches ignore pattern", zap.String("file", relPath), zap.String("pattern", p.Line))
		return true
	}
	if maxFileSizeKB <= 0 {
		return false
	}

	info, err := d.Info()
	if err != nil {
		logger.Warn("Failed to get file info during traversal", zap.String("file", relPath), zap.Error(err))
		return true
	}
	if info.Size() > int64(maxFileSizeKB)*1024 {
		logger.Debug("File exceeds size limit",
			zap.String("file", relPath),
			zap.Int64("sizeBytes", info.Size()),
			zap.Int("maxSizeKB", maxFileSizeKB))
		return true
	}
	return false
}
