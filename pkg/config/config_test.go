package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CMClay/metalsmith-concat/pkg/concat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "concat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
source: site
destination: public
clean: true
ignore:
  - "*.log"
max_workers: 3
skip_binary: true
concat:
  - files: "*(first|third)/*"
    output: out.txt
  - files: [a.js, b.js]
    output: bundle.js
    keepConcatenated: true
    metadata:
      pageTitle: Bundle
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.Source)
	assert.Equal(t, "public", cfg.Destination)
	assert.True(t, cfg.Clean)
	assert.Equal(t, []string{"*.log"}, cfg.Ignore)
	assert.Equal(t, 1024, cfg.MaxFileSizeKB, "default applied")
	assert.Equal(t, 3, cfg.MaxWorkers)
	assert.True(t, cfg.SkipBinary)
	require.Len(t, cfg.Concat, 2)

	plugins, err := cfg.Plugins(nil)
	require.NoError(t, err)
	require.Len(t, plugins, 2)

	first := plugins[0].Options()
	assert.Equal(t, concat.Glob("*(first|third)/*"), first.Files)
	assert.Equal(t, "out.txt", first.Output)

	second := plugins[1].Options()
	assert.Equal(t, concat.Explicit{"a.js", "b.js"}, second.Files)
	assert.True(t, second.KeepConcatenated)
	assert.Equal(t, map[string]any{"pageTitle": "Bundle"}, second.Metadata, "metadata key case is preserved")
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig().Source, cfg.Source)
	assert.Equal(t, GetDefaultConfig().Destination, cfg.Destination)
	assert.Empty(t, cfg.Concat)
}

func TestLoad_DefaultLocation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte("source: site\n"), 0644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "site", cfg.Source)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "configuration file not found: "+path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "source: site\ndestination: public\n")
	t.Setenv("CONCAT_DESTINATION", "dist")
	t.Setenv("CONCAT_MAX_WORKERS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.Source)
	assert.Equal(t, "dist", cfg.Destination)
	assert.Equal(t, 7, cfg.MaxWorkers)
}

func TestLoad_MissingOutput(t *testing.T) {
	path := writeConfig(t, "concat:\n  - files: \"**/*.css\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, concat.ErrMissingOutput))
	assert.Contains(t, err.Error(), "concat step 0")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, "max_workers: -1\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "source: [unterminated\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "concat.yaml")
	require.NoError(t, Save(SampleConfig(), path))

	cfg, err := Load(path)
	require.NoError(t, err)

	plugins, err := cfg.Plugins(nil)
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, "css/bundle.css", plugins[0].Options().Output)
	assert.Equal(t, concat.Explicit{"js/vendor.js", "js/app.js"}, plugins[1].Options().Files)
	assert.Equal(t, []string{"*.log", ".DS_Store"}, cfg.Ignore)
}

func TestPipelineOptions(t *testing.T) {
	cfg := &Config{Source: "s", Destination: "d", Ignore: []string{"x"}, MaxWorkers: 2, SkipBinary: true}
	opts := cfg.PipelineOptions()

	assert.Equal(t, "s", opts.Source)
	assert.Equal(t, "d", opts.Destination)
	assert.Equal(t, []string{"x"}, opts.IgnorePatterns)
	assert.Equal(t, 2, opts.MaxWorkers)
	assert.True(t, opts.SkipBinary)
}
