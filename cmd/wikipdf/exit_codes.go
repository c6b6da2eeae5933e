package main

import (
	"errors"
	"os"

	"github.com/alnah/go-wikipdf"
	"github.com/alnah/go-wikipdf/internal/config"
)

// Exit codes for wikipdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, wikipdf.ErrEngineAcquisition) ||
		errors.Is(err, wikipdf.ErrEngineLaunch) ||
		errors.Is(err, wikipdf.ErrBrowserConnect) ||
		errors.Is(err, wikipdf.ErrPageCreate) ||
		errors.Is(err, wikipdf.ErrPageLoadTimeout) ||
		errors.Is(err, wikipdf.ErrDiagramRuntimeInit) ||
		errors.Is(err, wikipdf.ErrDiagramCapture) ||
		errors.Is(err, wikipdf.ErrPDFRender) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, wikipdf.ErrReadHTML) ||
		errors.Is(err, wikipdf.ErrTemplateRead) ||
		errors.Is(err, wikipdf.ErrWritePDF) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoHTMLFiles) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, wikipdf.ErrEmptyInputPath) ||
		errors.Is(err, wikipdf.ErrMissingMermaidJS) ||
		errors.Is(err, wikipdf.ErrInvalidDiagramMode) ||
		errors.Is(err, wikipdf.ErrInvalidLength) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrOutputIsFile) ||
		errors.Is(err, ErrOutputCollision) {
		return ExitUsage
	}

	return ExitGeneral
}
