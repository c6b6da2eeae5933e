// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-wikipdf/internal/fileutil"
)

// ChromePathEnv names the environment variable pointing at a Chrome binary.
const ChromePathEnv = "WIKIPDF_CHROME_PATH"

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// inCI reports whether a common CI provider variable is set.
func inCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForBrowserLaunch returns hints for browser launch and connection errors.
// explicitPath is the Chrome path the user configured, if any.
func ForBrowserLaunch(explicitPath string) string {
	var hints []string

	if explicitPath != "" {
		hints = append(hints, "check that "+explicitPath+" is an executable Chrome or Chromium")
	} else if os.Getenv(ChromePathEnv) == "" {
		hints = append(hints, "set --chrome-path or "+ChromePathEnv+" to use an installed Chrome")
	}

	// Downloaded Chromium builds miss shared libraries in slim images.
	if inCI() || IsInContainer() {
		hints = append(hints, "in Docker/CI, install chromium from the distribution packages")
	}

	return formatHints(hints)
}

// ForBrowserDownload returns hints for browser download errors.
func ForBrowserDownload() string {
	return format("check network access, or set --chrome-path to skip the download")
}

// ForTimeout returns a hint naming the flag that raises the expired timeout.
func ForTimeout(flag string) string {
	return format("for large pages, raise --" + flag)
}

// ForMermaidRuntime returns hints for diagram runtime errors.
func ForMermaidRuntime() string {
	return format("--mermaid-js must point at a Mermaid.js bundle such as mermaid.min.js")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-wikipdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
