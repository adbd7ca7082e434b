// File: pkg/pipeline/destination.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CMClay/metalsmith-concat/pkg/filemap"

	"go.uber.org/zap"
)

// ErrUnsafeDestination is returned when cleaning or writing would touch
// files outside the destination directory or remove the source.
var ErrUnsafeDestination = errors.New("unsafe destination")

// Write stores every file of files below Destination, in map order.
func (p *Pipeline) Write(ctx context.Context, files *filemap.FileMap) error {
	dest, err := filepath.Abs(p.opts.Destination)
	if err != nil {
		p.logger.Error("Failed to resolve destination directory", zap.String("destination", p.opts.Destination), zap.Error(err))
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if p.opts.Clean {
		if err := p.clean(dest); err != nil {
			return err
		}
	}
	if err := ensureDirectory(dest, p.logger); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	for _, key := range files.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, _ := files.Get(key)

		target, err := destinationPath(dest, key)
		if err != nil {
			p.logger.Error("Refusing to write file", zap.String("file", key), zap.Error(err))
			return err
		}
		if err := ensureDirectory(filepath.Dir(target), p.logger); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := writeToFile(target, f.Contents, 0644, p.logger); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	p.logger.Info("Wrote files", zap.String("destination", dest), zap.Int("totalFiles", files.Len()))
	return nil
}

// clean removes dest unless it is the filesystem root or contains the source.
func (p *Pipeline) clean(dest string) error {
	source, err := filepath.Abs(p.opts.Source)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if dest == filepath.Dir(dest) || isWithin(dest, source) {
		p.logger.Error("Refusing to clean destination", zap.String("destination", dest), zap.String("source", source))
		return fmt.Errorf("%w: cleaning %s would remove %s", ErrUnsafeDestination, dest, source)
	}

	if err := os.RemoveAll(dest); err != nil {
		p.logger.Error("Failed to clean destination", zap.String("destination", dest), zap.Error(err))
		return fmt.Errorf("failed to clean destination: %w", err)
	}
	p.logger.Debug("Cleaned destination", zap.String("destination", dest))
	return nil
}

// destinationPath resolves key below dest and rejects keys escaping it.
func destinationPath(dest, key string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(key))
	if target == dest || !isWithin(dest, target) {
		return "", fmt.Errorf("%w: %q resolves outside %s", ErrUnsafeDestination, key, dest)
	}
	return target, nil
}

// isWithin reports whether path equals dir or lies below it.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// writeToFile writes data to a file and logs the operation.
func writeToFile(path string, data []byte, perm os.FileMode, logger *zap.Logger) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		logger.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Successfully wrote file", zap.String("path", path))
	return nil
}
