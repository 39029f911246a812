// Package config loads hookdoc settings from hookdoc.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/hookdoc/internal/export"
	"github.com/phobologic/hookdoc/internal/hashnotation"
	"github.com/phobologic/hookdoc/internal/reflector"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOON = "toon"
)

// DefaultMaxFileSize is the largest file read unless configured otherwise.
const DefaultMaxFileSize = 1_000_000 // 1 MB

// Config is the complete hookdoc configuration.
type Config struct {
	// Exclude lists doublestar patterns matched against root-relative paths.
	Exclude []string `yaml:"exclude"`
	// SkipTests drops PHPUnit tests and fixtures from discovery.
	SkipTests bool `yaml:"skip_tests"`
	// Workers bounds concurrent file processing (0 = GOMAXPROCS).
	Workers int `yaml:"workers"`
	// Format is one of json, yaml or toon.
	Format string `yaml:"format"`
	// Output is the file the export is written to (empty = stdout).
	Output string `yaml:"output"`
	// Cache is reused instead of re-exporting when newer than every source file.
	Cache string `yaml:"cache"`
	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	HashNotation HashNotationConfig `yaml:"hash_notation"`

	// DeprecationFunctions are the calls whose second argument is a version.
	DeprecationFunctions []string `yaml:"deprecation_functions"`
	// HookFunctions maps extension point functions to hook types.
	HookFunctions map[string]string `yaml:"hook_functions"`
}

// HashNotationConfig configures the hash-notation parser.
type HashNotationConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	hooks := make(map[string]string, len(reflector.DefaultHookFunctions))
	for fn, typ := range reflector.DefaultHookFunctions {
		hooks[fn] = typ
	}
	return &Config{
		Format:               FormatJSON,
		MaxFileSize:          DefaultMaxFileSize,
		HashNotation:         HashNotationConfig{MaxDepth: hashnotation.DefaultMaxDepth},
		DeprecationFunctions: append([]string(nil), export.DefaultDeprecationFunctions...),
		HookFunctions:        hooks,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var merr *multierror.Error
	switch c.Format {
	case FormatJSON, FormatYAML, FormatTOON:
	default:
		merr = multierror.Append(merr, fmt.Errorf("format %q is not one of json, yaml, toon", c.Format))
	}
	if c.Workers < 0 {
		merr = multierror.Append(merr, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MaxFileSize <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize))
	}
	if c.HashNotation.MaxDepth <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("hash_notation.max_depth must be positive, got %d", c.HashNotation.MaxDepth))
	}
	for fn, typ := range c.HookFunctions {
		if fn == "" || typ == "" {
			merr = multierror.Append(merr, fmt.Errorf("hook_functions: empty entry %q: %q", fn, typ))
		}
	}
	return merr.ErrorOrNil()
}

// LoadFromFile reads a YAML config file. Fields the file leaves out keep
// their zero value; Merge layers the result over defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Merge overlays the non-zero fields of other onto c. Hook functions are
// merged key by key, so a project can add hooks without restating defaults.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Exclude) > 0 {
		c.Exclude = append(c.Exclude, other.Exclude...)
	}
	if other.SkipTests {
		c.SkipTests = true
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.Format != "" {
		c.Format = other.Format
	}
	if other.Output != "" {
		c.Output = other.Output
	}
	if other.Cache != "" {
		c.Cache = other.Cache
	}
	if other.MaxFileSize != 0 {
		c.MaxFileSize = other.MaxFileSize
	}
	if other.HashNotation.MaxDepth != 0 {
		c.HashNotation.MaxDepth = other.HashNotation.MaxDepth
	}
	if len(other.DeprecationFunctions) > 0 {
		c.DeprecationFunctions = other.DeprecationFunctions
	}
	if len(other.HookFunctions) > 0 {
		if c.HookFunctions == nil {
			c.HookFunctions = make(map[string]string, len(other.HookFunctions))
		}
		for fn, typ := range other.HookFunctions {
			c.HookFunctions[fn] = typ
		}
	}
}
