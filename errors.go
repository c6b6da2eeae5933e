package wikipdf

import "errors"

// Sentinel errors for library operations.
var (
	// Engine lifecycle errors.
	ErrEngineAcquisition = errors.New("failed to acquire browser")
	ErrEngineLaunch      = errors.New("failed to launch browser")
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPageCreate        = errors.New("failed to create browser page")
	ErrPageLoadTimeout   = errors.New("page did not finish loading")

	// Diagram errors.
	ErrDiagramRuntimeInit = errors.New("mermaid runtime failed to initialize")
	ErrDiagramCapture     = errors.New("failed to capture diagram")

	// PDF errors.
	ErrPDFRender    = errors.New("PDF generation failed")
	ErrTemplateRead = errors.New("failed to read template file")
	ErrWritePDF     = errors.New("failed to write PDF file")

	// Input errors.
	ErrReadHTML = errors.New("failed to read HTML file")

	// Request validation errors.
	ErrEmptyInputPath     = errors.New("input HTML path cannot be empty")
	ErrMissingMermaidJS   = errors.New("mermaid script path required when diagram rendering is enabled")
	ErrInvalidDiagramMode = errors.New("invalid diagram mode")
	ErrInvalidLength      = errors.New("invalid CSS length")
)
