// Package config loads the build configuration: where to read and write
// files and which concat steps to run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CMClay/metalsmith-concat/pkg/concat"
	"github.com/CMClay/metalsmith-concat/pkg/pipeline"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the config file looked up in the working directory
// when no path is given.
const DefaultConfigName = "concat.yaml"

// EnvPrefix prefixes environment variable overrides, e.g. CONCAT_DESTINATION.
const EnvPrefix = "CONCAT"

// Config is the build configuration.
type Config struct {
	// Source is the directory read into the file map.
	Source string `mapstructure:"source" validate:"required" yaml:"source" jsonschema:"description=Directory read into the file map,default=src"`

	// Destination is the directory the file map is written to.
	Destination string `mapstructure:"destination" validate:"required" yaml:"destination" jsonschema:"description=Directory the file map is written to,default=build"`

	// Clean removes Destination before writing.
	Clean bool `mapstructure:"clean" yaml:"clean"`

	// Ignore holds gitignore-style patterns applied after .concatignore.
	Ignore []string `mapstructure:"ignore" yaml:"ignore,omitempty"`

	// GlobalIgnoreFile is an optional ignore file applied before .concatignore.
	GlobalIgnoreFile string `mapstructure:"global_ignore_file" yaml:"global_ignore_file,omitempty"`

	// MaxFileSizeKB skips larger source files; 0 disables the limit.
	MaxFileSizeKB int `mapstructure:"max_file_size_kb" validate:"gte=0" yaml:"max_file_size_kb" jsonschema:"minimum=0,default=1024"`

	// MaxWorkers bounds concurrent file reads; 0 uses one per CPU.
	MaxWorkers int `mapstructure:"max_workers" validate:"gte=0" yaml:"max_workers" jsonschema:"minimum=0"`

	// SkipBinary leaves binary files out of the file map.
	SkipBinary bool `mapstructure:"skip_binary" yaml:"skip_binary"`

	// Concat holds the raw option maps of the concat steps, in run order.
	// See concat.DecodeOptions for the accepted keys.
	Concat []map[string]any `mapstructure:"-" yaml:"concat,omitempty"`
}

var validate = validator.New()

// GetDefaultConfig returns the configuration used when no file is found.
func GetDefaultConfig() *Config {
	return &Config{
		Source:        "src",
		Destination:   "build",
		MaxFileSizeKB: 1024,
	}
}

// SampleConfig returns a default configuration with example concat steps,
// as written by `concat init`.
func SampleConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Ignore = []string{"*.log", ".DS_Store"}
	cfg.Concat = []map[string]any{
		{
			"files":  "css/**/*.css",
			"output": "css/bundle.css",
		},
		{
			"files":            []any{"js/vendor.js", "js/app.js"},
			"output":           "js/bundle.js",
			"keepConcatenated": true,
			"metadata":         map[string]any{"generated": true},
		},
	}
	return cfg
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CONCAT_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath looks for concat.yaml in the working directory and
// falls back to defaults when there is none. An explicit configPath must
// exist.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v, configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// viper lower-cases nested keys, which would corrupt metadata field
	// names, so the steps are decoded from the file directly.
	if configFileFound {
		steps, err := readSteps(v.ConfigFileUsed())
		if err != nil {
			return nil, err
		}
		cfg.Concat = steps
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration, including every concat step.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	for i, step := range cfg.Concat {
		if _, err := concat.DecodeOptions(step, nil); err != nil {
			return fmt.Errorf("concat step %d: %w", i, err)
		}
	}
	return nil
}

// Save writes cfg to path in YAML format.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// PipelineOptions returns the pipeline settings of cfg.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Source:           c.Source,
		Destination:      c.Destination,
		Clean:            c.Clean,
		IgnorePatterns:   c.Ignore,
		GlobalIgnoreFile: c.GlobalIgnoreFile,
		MaxFileSizeKB:    c.MaxFileSizeKB,
		MaxWorkers:       c.MaxWorkers,
		SkipBinary:       c.SkipBinary,
	}
}

// Plugins builds one concat plugin per configured step.
func (c *Config) Plugins(logger *zap.Logger) ([]*concat.Plugin, error) {
	plugins := make([]*concat.Plugin, 0, len(c.Concat))
	for i, step := range c.Concat {
		p, err := concat.FromMap(step, logger)
		if err != nil {
			return nil, fmt.Errorf("concat step %d: %w", i, err)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// setupViper configures defaults, environment variables and the config
// file location.
func setupViper(v *viper.Viper, configPath string) {
	defaults := GetDefaultConfig()
	v.SetDefault("source", defaults.Source)
	v.SetDefault("destination", defaults.Destination)
	v.SetDefault("clean", defaults.Clean)
	v.SetDefault("ignore", []string{})
	v.SetDefault("global_ignore_file", "")
	v.SetDefault("max_file_size_kb", defaults.MaxFileSizeKB)
	v.SetDefault("max_workers", defaults.MaxWorkers)
	v.SetDefault("skip_binary", defaults.SkipBinary)

	// Example: CONCAT_MAX_WORKERS=8
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.SetConfigName(strings.TrimSuffix(DefaultConfigName, filepath.Ext(DefaultConfigName)))
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
// Only the default location may be absent.
func readConfigFile(v *viper.Viper, configPath string) (bool, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return false, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  concat init --config %s",
				configPath, configPath)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configPath == "" {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// readSteps decodes the concat section of the YAML file at path.
func readSteps(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc struct {
		Concat []map[string]any `yaml:"concat"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse concat steps: %w", err)
	}
	return doc.Concat, nil
}
