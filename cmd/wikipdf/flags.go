package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// chromeFlags holds browser flags.
type chromeFlags struct {
	path     string
	cacheDir string
}

// mermaidFlags holds diagram flags.
type mermaidFlags struct {
	enabled    bool
	enabledSet bool // --mermaid given explicitly, including --mermaid=false
	jsPath     string
	mode       string
}

// templateFlags holds one header or footer template.
type templateFlags struct {
	literal string
	path    string
}

// timeoutFlags holds per-stage timeouts. Zero means not set.
type timeoutFlags struct {
	launch  time.Duration
	load    time.Duration
	diagram time.Duration
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	output     string
	workers    int
	workersSet bool
	chrome     chromeFlags
	mermaid    mermaidFlags
	header     templateFlags
	footer     templateFlags
	timeouts   timeoutFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show conversion progress and timing")
}

// addChromeFlags adds browser flags to a FlagSet.
func addChromeFlags(fs *flag.FlagSet, f *chromeFlags) {
	fs.StringVar(&f.path, "chrome-path", "", "Chrome/Chromium executable (empty = download)")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "directory for the downloaded browser")
}

// addMermaidFlags adds diagram flags to a FlagSet.
func addMermaidFlags(fs *flag.FlagSet, f *mermaidFlags) {
	fs.BoolVar(&f.enabled, "mermaid", false, "render Mermaid diagrams as images")
	fs.StringVar(&f.jsPath, "mermaid-js", "", "local Mermaid.js file (enables --mermaid)")
	fs.StringVar(&f.mode, "diagram-mode", "", "diagram mode: live, static")
}

// addTemplateFlags adds --<name>-template and --<name>-template-path.
func addTemplateFlags(fs *flag.FlagSet, f *templateFlags, name string) {
	fs.StringVar(&f.literal, name+"-template", "", "inline "+name+" HTML")
	fs.StringVar(&f.path, name+"-template-path", "", name+" HTML file")
}

// addTimeoutFlags adds per-stage timeout flags to a FlagSet.
func addTimeoutFlags(fs *flag.FlagSet, f *timeoutFlags) {
	fs.DurationVar(&f.launch, "launch-timeout", 0, "browser start timeout (default 2m)")
	fs.DurationVar(&f.load, "load-timeout", 0, "page load timeout (default 1m)")
	fs.DurationVar(&f.diagram, "diagram-timeout", 0, "diagram runtime wait (default 10s)")
}

// parseConvertFlags parses convert command flags and returns positional args.
// Usage goes to usageOut on -h or a parse error.
func parseConvertFlags(args []string, usageOut io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(usageOut)
	f := &convertFlags{}

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addChromeFlags(fs, &f.chrome)
	addMermaidFlags(fs, &f.mermaid)
	addTemplateFlags(fs, &f.header, "header")
	addTemplateFlags(fs, &f.footer, "footer")
	addTimeoutFlags(fs, &f.timeouts)

	fs.Usage = func() { printConvertUsage(usageOut) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	f.workersSet = fs.Changed("workers")
	f.mermaid.enabledSet = fs.Changed("mermaid")

	return f, fs.Args(), nil
}
