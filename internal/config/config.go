// Package config reads the YAML configuration of the fmschema command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one generation run. Relative paths are resolved against
// the directory of the config file.
type Config struct {
	Schema    string         `yaml:"schema"`
	Format    string         `yaml:"format"`
	Component string         `yaml:"component"`
	Documents []string       `yaml:"documents"`
	Defaults  string         `yaml:"defaults"`
	Templates string         `yaml:"templates"`
	Renderer  string         `yaml:"renderer"`
	Globals   map[string]any `yaml:"globals"`
	Output    OutputConfig   `yaml:"output"`
	Scan      ScanConfig     `yaml:"scan"`
	Resolve   ResolveConfig  `yaml:"resolve"`
	Pipeline  PipelineConfig `yaml:"pipeline"`
	Log       LogConfig      `yaml:"log"`
}

// OutputConfig selects where rendered documents go.
type OutputConfig struct {
	// Dir receives one file per rendered result. Empty writes to stdout.
	Dir string `yaml:"dir"`
	// Format overrides the template-format directive.
	Format string `yaml:"format"`
}

// ScanConfig maps to schema.ScanOptions.
type ScanConfig struct {
	Strict bool     `yaml:"strict"`
	Ignore []string `yaml:"ignore"`
}

// ResolveConfig maps to schema.ResolveOptions.
type ResolveConfig struct {
	AllowHTTP    bool `yaml:"allow_http"`
	MaxDocuments int  `yaml:"max_documents"`
	MaxRefDepth  int  `yaml:"max_ref_depth"`
}

// PipelineConfig bounds pipeline concurrency. Zero means GOMAXPROCS.
type PipelineConfig struct {
	Workers     int `yaml:"workers"`
	Parallelism int `yaml:"parallelism"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Documents: []string{"*.md"},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over Defaults. Environment variables in the file are
// expanded before parsing.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve path %q: %w", path, err)
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", absPath, err)
	}
	cfg, err := Parse([]byte(os.ExpandEnv(string(raw))))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	cfg.resolvePaths(filepath.Dir(absPath))
	return cfg, nil
}

// Parse decodes raw over Defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.Pipeline.Workers < 0 {
		errs = append(errs, errors.New("pipeline.workers must not be negative"))
	}
	if c.Pipeline.Parallelism < 0 {
		errs = append(errs, errors.New("pipeline.parallelism must not be negative"))
	}
	if c.Resolve.MaxDocuments < 0 || c.Resolve.MaxRefDepth < 0 {
		errs = append(errs, errors.New("resolve limits must not be negative"))
	}
	for idx, pattern := range c.Documents {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, fmt.Errorf("documents[%d] is empty", idx))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

func (c *Config) resolvePaths(base string) {
	if c.Schema != "" && !isURL(c.Schema) {
		c.Schema = join(base, c.Schema)
	}
	c.Defaults = join(base, c.Defaults)
	c.Templates = join(base, c.Templates)
	c.Output.Dir = join(base, c.Output.Dir)
	for idx, pattern := range c.Documents {
		c.Documents[idx] = join(base, pattern)
	}
}

func join(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func isURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}
