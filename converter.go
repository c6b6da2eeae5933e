package wikipdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-wikipdf/internal/imageinline"
)

// engineResolver returns the Chrome executable for a conversion.
type engineResolver interface {
	Resolve(ctx context.Context, explicitPath string) (string, error)
}

// Compile-time interface checks.
var _ engineResolver = (*EngineProvisioner)(nil)

// Converter turns an HTML file into a PDF through headless Chrome.
// Every call to Convert launches and tears down its own browser, so one
// Converter may be used from several goroutines.
type Converter struct {
	cfg         converterConfig
	log         Logger
	resolver    engineResolver
	openSession sessionOpener
}

// NewConverter creates a Converter with default configuration.
// Use options to customize behavior (e.g., WithLogger, WithLoadTimeout).
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		cfg: converterConfig{
			launchTimeout:  defaultLaunchTimeout,
			loadTimeout:    defaultLoadTimeout,
			diagramTimeout: defaultDiagramTimeout,
		},
		log:         discardLogger{},
		openSession: openRodSession,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Create provisioner if not injected (e.g., by tests)
	if c.resolver == nil {
		c.resolver = NewEngineProvisioner(c.cfg.cacheDir, c.log)
	}

	return c
}

// Convert runs provision, launch, load, optional diagram capture, and print,
// in that order. The browser is closed on every path before Convert returns.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.log.Log("Converting HTML to PDF")

	outputPath, err := resolveOutputPath(req.OutputPath)
	if err != nil {
		return nil, err
	}

	diagramDir := req.DiagramDir
	if diagramDir == "" {
		diagramDir = filepath.Join(filepath.Dir(outputPath), DiagramDirName)
	}
	if err := prepareDiagramDir(diagramDir); err != nil {
		return nil, fmt.Errorf("preparing diagram directory: %w", err)
	}

	// Templates are read before Chrome starts so a bad path fails fast.
	layout, err := newLayout(&req)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(req.InputPath) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadHTML, err)
	}
	htmlContent := string(content)
	c.log.Log("HTML content read from " + req.InputPath)

	htmlContent = c.inlineImages(htmlContent, filepath.Dir(req.InputPath))

	bin, err := c.resolver.Resolve(ctx, req.ChromePath)
	if err != nil {
		return nil, err
	}

	session, err := c.openSession(ctx, bin, c.cfg.launchTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			c.log.Log(fmt.Sprintf("Closing browser: %v", cerr))
		}
	}()

	page := session.Page()

	c.log.Log("Sending file to Chrome: " + req.InputPath)
	if err := page.SetContent(htmlContent, c.cfg.loadTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoadTimeout, err)
	}
	c.log.Log("HTML page loaded.")

	var diagrams []DiagramArtifact
	if req.RenderMermaid {
		diagrams, err = c.renderDiagrams(ctx, page, &req, htmlContent, diagramDir)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assembler := &pdfAssembler{log: c.log}
	pdfPath, err := assembler.emit(page, layout, outputPath)
	if err != nil {
		return nil, err
	}

	c.log.Log("PDF created at: " + pdfPath)

	return &Result{
		PDFPath:  pdfPath,
		Diagrams: diagrams,
		Duration: time.Since(start),
	}, nil
}

// renderDiagrams captures diagrams and, in static mode, reloads the page with
// the captured images in place of the diagram markup.
func (c *Converter) renderDiagrams(ctx context.Context, page documentPage, req *Request, htmlContent, diagramDir string) ([]DiagramArtifact, error) {
	expected, err := countDiagrams(htmlContent)
	if err == nil {
		c.log.Log(fmt.Sprintf("Found %d Mermaid diagram(s)", expected))
	}

	rasterizer := &diagramRasterizer{log: c.log, timeout: c.cfg.diagramTimeout}
	diagrams, err := rasterizer.rasterize(ctx, page, req.MermaidJSPath, diagramDir)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(req.DiagramMode, DiagramModeStatic) {
		return diagrams, nil
	}

	if expected != len(diagrams) {
		c.log.Log(fmt.Sprintf("Captured %d diagram(s) but the source has %d; unmatched blocks stay as markup", len(diagrams), expected))
	}

	images := make([][]byte, len(diagrams))
	for i, d := range diagrams {
		images[i], err = os.ReadFile(d.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDiagramCapture, err)
		}
	}

	staticHTML, err := substituteDiagrams(htmlContent, images)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramCapture, err)
	}

	if err := page.SetContent(staticHTML, c.cfg.loadTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoadTimeout, err)
	}
	c.log.Log("Page reloaded with static diagrams.")

	return diagrams, nil
}

// inlineImages embeds local images next to the source page. The page is
// loaded without a base URL, so relative references would otherwise break.
// A parse failure keeps the original content.
func (c *Converter) inlineImages(htmlContent, sourceDir string) string {
	out, report, err := imageinline.Inline(htmlContent, sourceDir)
	if err != nil {
		c.log.Log(fmt.Sprintf("Skipping local images: %v", err))
		return htmlContent
	}
	if report.Inlined > 0 {
		c.log.Log(fmt.Sprintf("Embedded %d local image(s)", report.Inlined))
	}
	for _, ref := range report.Skipped {
		c.log.Log("Local image not embedded: " + ref)
	}
	return out
}

// resolveOutputPath defaults an empty path to export.pdf in the working directory.
func resolveOutputPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	return filepath.Join(wd, DefaultOutputName), nil
}
