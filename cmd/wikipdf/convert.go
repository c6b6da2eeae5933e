package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-wikipdf"
	"github.com/alnah/go-wikipdf/internal/config"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrNoHTMLFiles = errors.New("no HTML files found")
)

// batchError reports failed conversions after they were printed one by one.
// Unwrap exposes the first failure so the exit code reflects its class.
type batchError struct {
	failed int
	first  error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d conversion(s) failed", e.failed)
}

func (e *batchError) Unwrap() error {
	return e.first
}

// runConvertCmd parses flags, loads configuration, and runs the batch.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitUsage
	}

	logger := newLogger(env.Stderr, flags.common)
	setMaxProcs(logger)
	warnUnknownEnvVars(logger)

	cfg, err := resolveConfig(flags, loadEnvConfig())
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v%s\n", err, hintFor(err, hintContext{configName: flags.common.config}))
		return exitCodeFor(err)
	}

	poolSize := wikipdf.ResolvePoolSize(cfg.Workers)
	logger.Debug("converter pool", "size", poolSize)
	pool := newConverterPool(poolSize, converterOptions(cfg, logger)...)
	defer pool.Close()

	ctx, stop := notifyContext(context.Background())
	defer stop()

	err = runConvert(ctx, positional, cfg, pool, flags.common, env)
	if err == nil {
		return ExitSuccess
	}

	var be *batchError
	if !errors.As(err, &be) {
		fmt.Fprintf(env.Stderr, "Error: %v%s\n", err, hintFor(err, hintContext{chromePath: cfg.Chrome.Path}))
	}
	return exitCodeFor(err)
}

// resolveConfig builds the effective configuration.
// Precedence: CLI flags > env vars > config file > defaults.
func resolveConfig(flags *convertFlags, envCfg *envConfig) (*config.Config, error) {
	if err := validateWorkers(flags.workers); err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()

	name := flags.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	// Flags and env can produce combinations the file alone could not.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.output != "" {
		cfg.Output.Path = flags.output
	}
	if flags.workersSet {
		cfg.Workers = flags.workers
	}

	// Chrome flags
	if flags.chrome.path != "" {
		cfg.Chrome.Path = flags.chrome.path
	}
	if flags.chrome.cacheDir != "" {
		cfg.Chrome.CacheDir = flags.chrome.cacheDir
	}

	// Mermaid flags. An explicit --mermaid=false wins over --mermaid-js.
	if flags.mermaid.jsPath != "" {
		cfg.Mermaid.JSPath = flags.mermaid.jsPath
		cfg.Mermaid.Enabled = true
	}
	if flags.mermaid.enabledSet {
		cfg.Mermaid.Enabled = flags.mermaid.enabled
	}
	if flags.mermaid.mode != "" {
		cfg.Mermaid.Mode = flags.mermaid.mode
	}

	mergeTemplate(flags.header, &cfg.Header)
	mergeTemplate(flags.footer, &cfg.Footer)

	// Timeout flags
	if flags.timeouts.launch > 0 {
		cfg.Timeouts.Launch = flags.timeouts.launch.String()
	}
	if flags.timeouts.load > 0 {
		cfg.Timeouts.Load = flags.timeouts.load.String()
	}
	if flags.timeouts.diagram > 0 {
		cfg.Timeouts.Diagram = flags.timeouts.diagram.String()
	}
}

// mergeTemplate applies template flags. A path flag replaces the whole
// configured template so a literal from the config file cannot shadow it.
func mergeTemplate(f templateFlags, tc *config.TemplateConfig) {
	if f.path != "" {
		*tc = config.TemplateConfig{Path: f.path}
	}
	if f.literal != "" {
		tc.Template = f.literal
	}
}

// converterOptions maps configuration onto library options.
// Timeouts were validated by resolveConfig.
func converterOptions(cfg *config.Config, logger *log.Logger) []wikipdf.Option {
	opts := []wikipdf.Option{
		wikipdf.WithLogger(progressLogger(logger)),
		wikipdf.WithCacheDir(cfg.Chrome.CacheDir),
	}

	if d, _ := config.ParseTimeout(cfg.Timeouts.Launch); d > 0 {
		opts = append(opts, wikipdf.WithLaunchTimeout(d))
	}
	if d, _ := config.ParseTimeout(cfg.Timeouts.Load); d > 0 {
		opts = append(opts, wikipdf.WithLoadTimeout(d))
	}
	if d, _ := config.ParseTimeout(cfg.Timeouts.Diagram); d > 0 {
		opts = append(opts, wikipdf.WithDiagramTimeout(d))
	}

	return opts
}

// runConvert discovers input files and converts them with the pool.
func runConvert(ctx context.Context, args []string, cfg *config.Config, pool Pool, common commonFlags, env *Environment) error {
	inputPath, err := resolveInputPath(args, cfg)
	if err != nil {
		return err
	}

	files, err := discoverFiles(inputPath, cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoHTMLFiles, inputPath)
	}
	if err := assignDiagramDirs(files); err != nil {
		return err
	}

	results := convertBatch(ctx, pool, files, newConversionParams(cfg))

	summary := printResultsWithWriter(results, common.quiet, common.verbose, env)
	if summary.Failed > 0 {
		return &batchError{failed: summary.Failed, first: summary.FirstErr}
	}
	return nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultPath != "" {
		return cfg.Input.DefaultPath, nil
	}
	return "", ErrNoInput
}

