// File: pkg/concat/options.go
package concat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// DefaultPattern selects every file when no selection is configured.
const DefaultPattern = "**/*"

// Selection chooses the input files of a concat step. It is either an
// Explicit list or a Glob pattern.
type Selection interface {
	isSelection()
	String() string
}

// Explicit selects the listed paths, concatenated in list order.
type Explicit []string

func (Explicit) isSelection() {}

func (e Explicit) String() string {
	return "[" + strings.Join(e, ", ") + "]"
}

// Glob selects every path matching the pattern, concatenated in file map
// order.
type Glob string

func (Glob) isSelection() {}

func (g Glob) String() string {
	return string(g)
}

// Options configures a concat step.
type Options struct {
	Files            Selection // Input selection; nil selects DefaultPattern.
	Output           string    // Path of the concatenated file. Required.
	KeepConcatenated bool      // Keep input files in the map instead of removing them.
	// Metadata holds fields copied onto the output file. It is expected to
	// be a map and is only checked when the step runs.
	Metadata any
}

// rawOptions mirrors the loosely typed option object as read from YAML or
// JSON. Every field is decoded untyped and coerced by DecodeOptions.
type rawOptions struct {
	Files                 any `mapstructure:"files"`
	Output                any `mapstructure:"output"`
	KeepConcatenated      any `mapstructure:"keepConcatenated"`
	KeepConcatenatedSnake any `mapstructure:"keep_concatenated"`
	Metadata              any `mapstructure:"metadata"`
}

// DecodeOptions converts a loosely typed option map into Options.
//
// files may be a string (glob) or a list (explicit paths, each element
// formatted as a string); anything else selects DefaultPattern. output is
// required; non-string values are formatted. keepConcatenated falls back
// to false when it is not a boolean. metadata is passed through as-is.
// Unknown keys are logged at debug level and otherwise ignored.
func DecodeOptions(raw map[string]any, logger *zap.Logger) (Options, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		ro rawOptions
		md mapstructure.Metadata
	)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &ro,
		Metadata: &md,
	})
	if err != nil {
		return Options{}, fmt.Errorf("failed to create option decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Options{}, &ConfigError{Option: "options", Reason: "cannot decode concat options", Err: err}
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		logger.Debug("Ignoring unknown concat options", zap.Strings("keys", md.Unused))
	}

	if ro.Output == nil {
		return Options{}, ErrMissingOutput
	}

	opts := Options{
		Files:    decodeSelection(ro.Files),
		Output:   stringify(ro.Output),
		Metadata: ro.Metadata,
	}

	keep := ro.KeepConcatenated
	if keep == nil {
		keep = ro.KeepConcatenatedSnake
	}
	if b, ok := keep.(bool); ok {
		opts.KeepConcatenated = b
	}

	return opts, nil
}

// FromMap decodes raw with DecodeOptions and builds a Plugin from it.
func FromMap(raw map[string]any, logger *zap.Logger) (*Plugin, error) {
	opts, err := DecodeOptions(raw, logger)
	if err != nil {
		return nil, err
	}
	return New(opts, logger)
}

func decodeSelection(v any) Selection {
	switch files := v.(type) {
	case string:
		return Glob(files)
	case []string:
		return Explicit(append([]string(nil), files...))
	case []any:
		paths := make(Explicit, len(files))
		for i, f := range files {
			paths[i] = stringify(f)
		}
		return paths
	default:
		return nil
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
