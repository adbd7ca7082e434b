// Package concat merges the contents of selected files of a file map into a
// single output file.
//
// A Plugin is configured once with New and then applied to a file map with
// Process. Inputs are selected either by an explicit ordered list of paths
// or by a glob pattern, concatenated without separators, optionally removed
// from the map, and the result is stored under the configured output path
// together with any configured metadata fields.
package concat

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"

	"github.com/CMClay/metalsmith-concat/pkg/filemap"
	"github.com/CMClay/metalsmith-concat/pkg/glob"

	"go.uber.org/zap"
)

var defaultPattern = glob.MustCompile(DefaultPattern)

// Plugin is a configured concat step.
type Plugin struct {
	opts    Options
	pattern *glob.Pattern // Compiled Files pattern in glob mode.
	logger  *zap.Logger
}

// New validates opts and returns a Plugin. It fails with ErrMissingOutput
// when no output path is set and with a *ConfigError when the glob pattern
// cannot be compiled. Metadata is not inspected here.
func New(opts Options, logger *zap.Logger) (*Plugin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Output == "" {
		return nil, ErrMissingOutput
	}
	if opts.Files == nil {
		opts.Files = Glob(DefaultPattern)
	}

	p := &Plugin{logger: logger}
	switch files := opts.Files.(type) {
	case Glob:
		pattern := defaultPattern
		if files != DefaultPattern {
			var err error
			if pattern, err = glob.Compile(string(files)); err != nil {
				return nil, &ConfigError{Option: "files", Reason: "bad glob pattern", Err: err}
			}
		}
		p.pattern = pattern
	case Explicit:
		opts.Files = append(Explicit(nil), files...)
	default:
		return nil, &ConfigError{Option: "files", Reason: fmt.Sprintf("unsupported selection %T", opts.Files)}
	}
	p.opts = opts

	logger.Debug("Configured concat step",
		zap.String("output", opts.Output),
		zap.Stringer("files", opts.Files),
		zap.Bool("keepConcatenated", opts.KeepConcatenated))
	return p, nil
}

// Name identifies the step in pipeline logs.
func (p *Plugin) Name() string {
	return "concat:" + p.opts.Output
}

// Options returns the effective options, with the default selection filled in.
func (p *Plugin) Options() Options {
	return p.opts
}

// Process concatenates the selected files of files into the output file.
//
// files is mutated in place. An explicitly listed path that is missing
// aborts with a *NotFoundError; inputs removed before that point stay
// removed and no output is written. Metadata is applied after the output
// file has been stored, so an invalid metadata value is reported with the
// output already present in the map.
func (p *Plugin) Process(files *filemap.FileMap) error {
	var (
		buf      bytes.Buffer
		consumed []string
	)

	switch sel := p.opts.Files.(type) {
	case Explicit:
		for _, path := range sel {
			f, ok := files.Get(path)
			if !ok {
				p.logger.Error("Listed file is missing", zap.String("file", path), zap.String("output", p.opts.Output))
				return &NotFoundError{Path: path}
			}
			p.consume(files, path, f, &buf)
			consumed = append(consumed, path)
		}
	case Glob:
		files.Range(func(path string, f *filemap.File) bool {
			if p.pattern.Match(path) {
				p.consume(files, path, f, &buf)
				consumed = append(consumed, path)
			}
			return true
		})
	}

	out := filemap.NewFile(buf.Bytes())
	files.Set(p.opts.Output, out)

	if err := p.applyMetadata(out); err != nil {
		p.logger.Error("Failed to apply metadata", zap.String("output", p.opts.Output), zap.Error(err))
		return err
	}

	p.logger.Debug("Concatenated files",
		zap.String("output", p.opts.Output),
		zap.Strings("inputs", consumed),
		zap.Int("sizeBytes", len(out.Contents)),
		zap.Strings("fields", out.FieldNames()),
		zap.Bool("kept", p.opts.KeepConcatenated))
	return nil
}

func (p *Plugin) consume(files *filemap.FileMap, path string, f *filemap.File, buf *bytes.Buffer) {
	buf.Write(f.Contents)
	if !p.opts.KeepConcatenated {
		files.Delete(path)
	}
}

// applyMetadata copies the configured metadata onto out in sorted key
// order. Unset values (nil, empty string, false, zero) are skipped.
func (p *Plugin) applyMetadata(out *filemap.File) error {
	md := p.opts.Metadata
	if md == nil {
		return nil
	}

	v := reflect.ValueOf(md)
	switch v.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if v.IsZero() {
			return nil
		}
	case reflect.Map:
		fields := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			fields[stringify(iter.Key().Interface())] = iter.Value().Interface()
		}
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out.Set(k, fields[k])
		}
		return nil
	}

	return &ConfigError{
		Option: ErrInvalidMetadata.Option,
		Reason: ErrInvalidMetadata.Reason,
		Err:    fmt.Errorf("got %T", md),
	}
}
