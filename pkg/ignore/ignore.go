// Package ignore implements gitignore-style exclusion rules used when a
// source directory is read into a file map.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// FileName is the per-source ignore file.
const FileName = ".concatignore"

// Pattern is a single parsed ignore rule.
type Pattern struct {
	Line    string // Original pattern line.
	LineNo  int    // Line number in the source (1-based).
	Source  string // File the pattern came from; empty for inline patterns.
	Negate  bool   // Pattern starts with '!' and re-includes matches.
	DirOnly bool   // Pattern ends with '/' and only matches directories.

	glob string // doublestar pattern relative to the root.
}

func (p *Pattern) matches(path string, isDir bool) bool {
	if p.DirOnly && !isDir {
		return false
	}
	ok, _ := doublestar.Match(p.glob, path)
	return ok
}

// Matcher holds an ordered list of ignore patterns. Later patterns take
// precedence over earlier ones.
type Matcher struct {
	patterns []*Pattern
	logger   *zap.Logger
}

// New returns an empty Matcher.
func New(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Load builds a Matcher from an optional global ignore file followed by
// root/.concatignore. Missing files are skipped.
func Load(root, globalPath string, logger *zap.Logger) (*Matcher, error) {
	m := New(logger)

	if globalPath != "" {
		absGlobalPath, err := filepath.Abs(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve global ignore file: %w", err)
		}
		if err := m.CompileFile(absGlobalPath); err != nil {
			return nil, err
		}
	}

	if err := m.CompileFile(filepath.Join(root, FileName)); err != nil {
		return nil, err
	}

	m.logger.Debug("Finished loading ignore files", zap.Int("totalPatterns", len(m.patterns)))
	return m, nil
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// CompileLines parses lines and appends the resulting patterns. source is
// recorded on each pattern for diagnostics.
func (m *Matcher) CompileLines(source string, lines ...string) {
	for i, line := range lines {
		p := parsePatternLine(line)
		if p == nil {
			continue
		}
		p.LineNo = i + 1
		p.Source = source
		if !doublestar.ValidatePattern(p.glob) {
			m.logger.Warn("Skipping invalid ignore pattern",
				zap.String("source", source),
				zap.Int("lineNo", p.LineNo),
				zap.String("pattern", line))
			continue
		}
		m.patterns = append(m.patterns, p)
		m.logger.Debug("Compiled ignore pattern",
			zap.String("source", source),
			zap.Int("lineNo", p.LineNo),
			zap.String("pattern", p.Line),
			zap.Bool("negate", p.Negate))
	}
}

// CompileFile reads an ignore file and appends its patterns. A missing
// file is not an error.
func (m *Matcher) CompileFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug("Ignore file does not exist and will be skipped", zap.String("filePath", path))
			return nil
		}
		m.logger.Error("Failed to read ignore file", zap.String("filePath", path), zap.Error(err))
		return fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	m.CompileLines(path, lines...)
	m.logger.Debug("Loaded ignore file", zap.String("filePath", path), zap.Int("lineCount", len(lines)))
	return nil
}

// Match reports whether path, relative to the root, is ignored.
func (m *Matcher) Match(path string, isDir bool) bool {
	matched, _ := m.MatchWithPattern(path, isDir)
	return matched
}

// MatchWithPattern reports whether path is ignored and returns the last
// pattern that decided it. A path inside an ignored directory is ignored.
func (m *Matcher) MatchWithPattern(path string, isDir bool) (bool, *Pattern) {
	path = normalizePath(path)
	if path == "" {
		return false, nil
	}

	if i := strings.LastIndex(path, "/"); i > 0 {
		if ok, p := m.MatchWithPattern(path[:i], true); ok {
			return true, p
		}
	}

	matched := false
	var matchedPattern *Pattern
	for _, p := range m.patterns {
		if p.matches(path, isDir) {
			matched = !p.Negate
			matchedPattern = p
		}
	}
	return matched, matchedPattern
}

// parsePatternLine converts one ignore line into a Pattern, or nil for
// blank lines and comments.
func parsePatternLine(line string) *Pattern {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	p := &Pattern{Line: line}
	if strings.HasPrefix(trimmed, "!") {
		p.Negate = true
		trimmed = trimmed[1:]
	}
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		p.DirOnly = true
		trimmed = strings.TrimRight(trimmed, "/")
	}
	if trimmed == "" {
		return nil
	}

	// Patterns containing a slash are anchored to the root; others match at
	// any depth.
	if strings.Contains(trimmed, "/") {
		p.glob = strings.TrimPrefix(trimmed, "/")
	} else {
		p.glob = "**/" + trimmed
	}
	return p
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	return strings.Trim(path, "/")
}
