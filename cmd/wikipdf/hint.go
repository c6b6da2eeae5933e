package main

import (
	"errors"

	"github.com/alnah/go-wikipdf"
	"github.com/alnah/go-wikipdf/internal/config"
	"github.com/alnah/go-wikipdf/internal/hints"
)

// hintContext carries the settings a hint may mention.
type hintContext struct {
	configName string
	chromePath string
}

// hintFor returns an actionable hint for err, or "" when none applies.
func hintFor(err error, hc hintContext) string {
	switch {
	case errors.Is(err, wikipdf.ErrEngineAcquisition):
		return hints.ForBrowserDownload()
	case errors.Is(err, wikipdf.ErrEngineLaunch),
		errors.Is(err, wikipdf.ErrBrowserConnect):
		return hints.ForBrowserLaunch(hc.chromePath)
	case errors.Is(err, wikipdf.ErrPageLoadTimeout):
		return hints.ForTimeout("load-timeout")
	case errors.Is(err, wikipdf.ErrDiagramRuntimeInit):
		return hints.ForMermaidRuntime()
	case errors.Is(err, wikipdf.ErrWritePDF):
		return hints.ForOutputDirectory()
	case errors.Is(err, config.ErrConfigNotFound):
		if hc.configName == "" {
			return hints.ForConfigNotFound(nil)
		}
		return hints.ForConfigNotFound(config.SearchPaths(hc.configName))
	}
	return ""
}
