// Package config loads wikipdf settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-wikipdf/internal/fileutil"
	"github.com/alnah/go-wikipdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096  // PATH_MAX on Linux
	MaxTemplateLength = 65536 // inline header/footer HTML
	MaxModeLength     = 10    // "live", "static"
	MaxWorkers        = 8     // mirrors the converter pool cap
)

// appDirName is the directory searched under the user config dir.
const appDirName = "go-wikipdf"

// Config holds all configuration for a conversion run.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Chrome   ChromeConfig   `yaml:"chrome"`
	Mermaid  MermaidConfig  `yaml:"mermaid"`
	Header   TemplateConfig `yaml:"header"`
	Footer   TemplateConfig `yaml:"footer"`
	Workers  int            `yaml:"workers"` // 0 = auto
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultPath string `yaml:"defaultPath"` // HTML file or directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Path string `yaml:"path"` // .pdf file, or directory (empty = next to input)
}

// ChromeConfig defines browser options.
type ChromeConfig struct {
	Path     string `yaml:"path"`     // empty = download
	CacheDir string `yaml:"cacheDir"` // empty = temp dir
}

// MermaidConfig defines diagram rendering options.
type MermaidConfig struct {
	Enabled bool   `yaml:"enabled"`
	JSPath  string `yaml:"jsPath"` // local mermaid.min.js
	Mode    string `yaml:"mode"`   // "live" (default) or "static"
}

// TemplateConfig holds a header or footer template. Template wins over Path.
type TemplateConfig struct {
	Template string `yaml:"template"`
	Path     string `yaml:"path"`
}

// TimeoutConfig holds Go duration strings ("90s", "2m"). Empty = default.
type TimeoutConfig struct {
	Launch  string `yaml:"launch"`
	Load    string `yaml:"load"`
	Diagram string `yaml:"diagram"`
}

// Validate checks field lengths and values.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	paths := []struct {
		name  string
		value string
	}{
		{"input.defaultPath", c.Input.DefaultPath},
		{"output.path", c.Output.Path},
		{"chrome.path", c.Chrome.Path},
		{"chrome.cacheDir", c.Chrome.CacheDir},
		{"mermaid.jsPath", c.Mermaid.JSPath},
		{"header.path", c.Header.Path},
		{"footer.path", c.Footer.Path},
	}
	for _, p := range paths {
		if err := validateFieldLength(p.name, p.value, MaxPathLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("header.template", c.Header.Template, MaxTemplateLength); err != nil {
		return err
	}
	if err := validateFieldLength("footer.template", c.Footer.Template, MaxTemplateLength); err != nil {
		return err
	}

	// Validate mermaid fields
	if err := validateFieldLength("mermaid.mode", c.Mermaid.Mode, MaxModeLength); err != nil {
		return err
	}
	switch strings.ToLower(c.Mermaid.Mode) {
	case "", "live", "static":
		// valid
	default:
		return fmt.Errorf("%w: mermaid.mode %q (must be live or static)", ErrInvalidValue, c.Mermaid.Mode)
	}
	if c.Mermaid.Enabled && c.Mermaid.JSPath == "" {
		return fmt.Errorf("%w: mermaid.jsPath required when mermaid is enabled", ErrInvalidValue)
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers %d (must be 0-%d)", ErrInvalidValue, c.Workers, MaxWorkers)
	}

	timeouts := []struct {
		name  string
		value string
	}{
		{"timeouts.launch", c.Timeouts.Launch},
		{"timeouts.load", c.Timeouts.Load},
		{"timeouts.diagram", c.Timeouts.Diagram},
	}
	for _, tm := range timeouts {
		if _, err := ParseTimeout(tm.value); err != nil {
			return fmt.Errorf("%s: %w", tm.name, err)
		}
	}

	return nil
}

// ParseTimeout parses a positive duration. Empty returns 0 (use default).
func ParseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a duration", ErrInvalidValue, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidValue, s)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a configuration with diagrams off and engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Mermaid: MermaidConfig{Enabled: false, Mode: "live"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the candidate files for a config name, in lookup order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, appDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// current directory, then ~/.config/go-wikipdf/, .yaml before .yml.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
