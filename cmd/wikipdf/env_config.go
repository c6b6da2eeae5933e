package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-wikipdf/internal/config"
)

// envPrefix marks environment variables read by wikipdf.
const envPrefix = "WIKIPDF_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string // WIKIPDF_CONFIG: config file name or path
	Output      string // WIKIPDF_OUTPUT: output file or directory
	ChromePath  string // WIKIPDF_CHROME_PATH: Chrome executable
	CacheDir    string // WIKIPDF_CACHE_DIR: downloaded browser cache
	MermaidJS   string // WIKIPDF_MERMAID_JS: local Mermaid.js
	DiagramMode string // WIKIPDF_DIAGRAM_MODE: live, static
	Workers     int    // WIKIPDF_WORKERS: parallel workers
}

// knownEnvVars lists valid WIKIPDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"WIKIPDF_CONFIG":       true,
	"WIKIPDF_OUTPUT":       true,
	"WIKIPDF_CHROME_PATH":  true,
	"WIKIPDF_CACHE_DIR":    true,
	"WIKIPDF_MERMAID_JS":   true,
	"WIKIPDF_DIAGRAM_MODE": true,
	"WIKIPDF_WORKERS":      true,
	"WIKIPDF_CONTAINER":    true, // doctor override
	"WIKIPDF_OFFLINE":      true, // integration tests
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("WIKIPDF_CONFIG"),
		Output:      os.Getenv("WIKIPDF_OUTPUT"),
		ChromePath:  os.Getenv("WIKIPDF_CHROME_PATH"),
		CacheDir:    os.Getenv("WIKIPDF_CACHE_DIR"),
		MermaidJS:   os.Getenv("WIKIPDF_MERMAID_JS"),
		DiagramMode: os.Getenv("WIKIPDF_DIAGRAM_MODE"),
	}

	// Invalid values are ignored; config validation reports real misuse.
	if workers := os.Getenv("WIKIPDF_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized WIKIPDF_* variables.
// Helps catch typos like WIKIPDF_CHROME instead of WIKIPDF_CHROME_PATH.
func warnUnknownEnvVars(l *log.Logger) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name := strings.SplitN(env, "=", 2)[0]
		if !knownEnvVars[name] {
			l.Warn("unknown environment variable (typo?)", "name", name)
		}
	}
}

// applyEnvConfig overlays set environment variables on the loaded config.
// Env values replace file values; flags are merged afterwards by mergeFlags,
// giving: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Output != "" {
		cfg.Output.Path = env.Output
	}
	if env.ChromePath != "" {
		cfg.Chrome.Path = env.ChromePath
	}
	if env.CacheDir != "" {
		cfg.Chrome.CacheDir = env.CacheDir
	}

	// A script path auto-enables diagram rendering.
	if env.MermaidJS != "" {
		cfg.Mermaid.JSPath = env.MermaidJS
		cfg.Mermaid.Enabled = true
	}
	if env.DiagramMode != "" {
		cfg.Mermaid.Mode = env.DiagramMode
	}

	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
}
