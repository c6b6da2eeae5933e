package wikipdf

import (
	"fmt"
	"strings"
	"time"
)

// Diagram mode constants.
const (
	// DiagramModeLive prints the page as rendered by the charting runtime.
	// Captured images are side artifacts.
	DiagramModeLive = "live"

	// DiagramModeStatic replaces each diagram container with its captured
	// image and prints the rewritten document.
	DiagramModeStatic = "static"
)

// DefaultOutputName is used when Request.OutputPath is empty.
const DefaultOutputName = "export.pdf"

// DiagramDirName is the directory created next to the output PDF to hold
// rasterized diagrams.
const DiagramDirName = "mermaid_diagrams"

// Template is a header or footer template given either inline or as a file.
// Literal wins when both are set.
type Template struct {
	Literal string // HTML fragment
	Path    string // file containing an HTML fragment
}

// IsZero reports whether neither a literal nor a path is configured.
func (t Template) IsZero() bool {
	return t.Literal == "" && t.Path == ""
}

// Request contains the parameters of one conversion.
type Request struct {
	InputPath     string   // HTML file to convert (required)
	OutputPath    string   // PDF destination (default: ./export.pdf)
	ChromePath    string   // Chrome executable (empty = download to temp cache)
	RenderMermaid bool     // rasterize .mermaid elements before printing
	MermaidJSPath string   // local mermaid.js (required if RenderMermaid)
	DiagramMode   string   // "live" (default) or "static"
	DiagramDir    string   // override for the diagram directory
	Header        Template // optional page header
	Footer        Template // optional page footer
}

// Validate checks that required fields are present and valid.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.InputPath) == "" {
		return ErrEmptyInputPath
	}
	if r.RenderMermaid && strings.TrimSpace(r.MermaidJSPath) == "" {
		return ErrMissingMermaidJS
	}
	if !isValidDiagramMode(r.DiagramMode) {
		return fmt.Errorf("%w: %q (must be live or static)", ErrInvalidDiagramMode, r.DiagramMode)
	}
	return nil
}

// isValidDiagramMode checks the mode (case-insensitive, empty means live).
func isValidDiagramMode(mode string) bool {
	switch strings.ToLower(mode) {
	case "", DiagramModeLive, DiagramModeStatic:
		return true
	}
	return false
}

// DiagramArtifact is one rasterized diagram.
type DiagramArtifact struct {
	Index int    // 0-based position in document order
	Path  string // absolute path of the PNG file
}

// Result describes a successful conversion.
type Result struct {
	PDFPath  string
	Diagrams []DiagramArtifact
	Duration time.Duration
}

// Logger receives human-readable progress messages.
type Logger interface {
	Log(msg string)
}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(msg string)

// Log calls f(msg).
func (f LoggerFunc) Log(msg string) { f(msg) }

// discardLogger drops every message.
type discardLogger struct{}

func (discardLogger) Log(string) {}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	launchTimeout  time.Duration
	loadTimeout    time.Duration
	diagramTimeout time.Duration
	cacheDir       string
}

// Default timeouts.
const (
	defaultLaunchTimeout  = 120 * time.Second
	defaultLoadTimeout    = 60 * time.Second
	defaultDiagramTimeout = 10 * time.Second
)

// WithLogger sets the progress logger. A nil logger discards messages.
func WithLogger(l Logger) Option {
	return func(c *Converter) {
		if l == nil {
			l = discardLogger{}
		}
		c.log = l
	}
}

// WithLaunchTimeout sets how long Chrome may take to start.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithLaunchTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("wikipdf: WithLaunchTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.launchTimeout = d
	}
}

// WithLoadTimeout sets how long the document may take to load.
// Panics if d <= 0.
func WithLoadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("wikipdf: WithLoadTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.loadTimeout = d
	}
}

// WithDiagramTimeout bounds each wait on the charting runtime.
// Panics if d <= 0.
func WithDiagramTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("wikipdf: WithDiagramTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.diagramTimeout = d
	}
}

// WithCacheDir overrides the directory used to cache a downloaded Chrome.
func WithCacheDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.cacheDir = dir
	}
}
