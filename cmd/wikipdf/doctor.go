package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-wikipdf"
	"github.com/alnah/go-wikipdf/internal/fileutil"
)

// Doctor status values.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	Mermaid  mermaidInfo `json:"mermaid"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found    bool   `json:"found"`
	Source   string `json:"source,omitempty"` // "flag", "env", "cache"
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	CacheDir string `json:"cache_dir"`
	// SystemPath is an installed browser convert does not pick up on its own.
	SystemPath string `json:"system_path,omitempty"`
}

// mermaidInfo holds Mermaid.js check results.
type mermaidInfo struct {
	Checked bool   `json:"checked"`
	Path    string `json:"path,omitempty"`
	Size    int64  `json:"size,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable  bool `json:"temp_writable"`
	CacheWritable bool `json:"cache_writable"`
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	chromePath string
	cacheDir   string
	mermaidJS  string
	json       bool
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	f := &doctorFlags{}
	fs.StringVar(&f.chromePath, "chrome-path", "", "Chrome executable to check")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "browser cache to check")
	fs.StringVar(&f.mermaidJS, "mermaid-js", "", "Mermaid.js file to check")
	fs.BoolVar(&f.json, "json", false, "machine-readable output")
	fs.Usage = func() { printDoctorUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := runDoctor(f, loadEnvConfig())

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks. Flags win over environment.
func runDoctor(f *doctorFlags, envCfg *envConfig) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	cacheDir := firstNonEmpty(f.cacheDir, envCfg.CacheDir, wikipdf.DefaultCacheDir())
	result.Chrome.CacheDir = cacheDir

	switch {
	case f.chromePath != "":
		checkChromeAt(result, f.chromePath, "flag")
	case envCfg.ChromePath != "":
		checkChromeAt(result, envCfg.ChromePath, "env")
	default:
		checkChromeDefault(result, cacheDir)
	}

	checkMermaid(result, firstNonEmpty(f.mermaidJS, envCfg.MermaidJS))
	checkEnvironment(result)
	checkSystem(result, cacheDir)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkChromeAt verifies an explicitly configured browser.
func checkChromeAt(result *doctorResult, path, source string) {
	if !fileutil.FileExists(path) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s (from %s)", path, source))
		return
	}
	result.Chrome.Found = true
	result.Chrome.Source = source
	result.Chrome.Path = path
	checkChromeVersion(result)
}

// checkChromeDefault reports what convert will use without --chrome-path:
// the cached download. A system browser is only reported, since convert
// does not look it up.
func checkChromeDefault(result *doctorResult, cacheDir string) {
	if path, found := launcher.LookPath(); found {
		result.Chrome.SystemPath = path
	}

	b := launcher.NewBrowser()
	b.RootDir = cacheDir
	if bin := b.BinPath(); fileutil.FileExists(bin) {
		result.Chrome.Found = true
		result.Chrome.Source = "cache"
		result.Chrome.Path = bin
		checkChromeVersion(result)
		return
	}

	msg := fmt.Sprintf("Chrome not in cache; the first conversion downloads Chromium to %s", cacheDir)
	if result.Chrome.SystemPath != "" {
		msg += fmt.Sprintf(" (or pass --chrome-path %s)", result.Chrome.SystemPath)
	}
	result.Warnings = append(result.Warnings, msg)
}

// checkChromeVersion runs chrome --version.
func checkChromeVersion(result *doctorResult) {
	out, err := exec.Command(result.Chrome.Path, "--version").Output() // #nosec G204 -- user-selected browser
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

// checkMermaid verifies the Mermaid.js file when one is configured.
func checkMermaid(result *doctorResult, path string) {
	if path == "" {
		return
	}
	result.Mermaid.Checked = true
	result.Mermaid.Path = path

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Mermaid.js not readable: %v", err))
		return
	}
	result.Mermaid.Size = int64(len(data))

	if !bytes.Contains(data, []byte("mermaid")) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s does not look like a Mermaid.js bundle", path))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer()

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Downloaded Chromium needs system libraries that slim images lack.
	if result.Env.Container && result.Chrome.Source == "" {
		result.Warnings = append(result.Warnings,
			"Container detected without a Chrome install; prefer the distribution chromium package")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	// Explicit override (highest priority)
	if os.Getenv("WIKIPDF_CONTAINER") == "1" {
		return true, "WIKIPDF_CONTAINER=1"
	}
	// Docker
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory and the browser cache are writable.
func checkSystem(result *doctorResult, cacheDir string) {
	if writable(os.TempDir()) {
		result.System.TempWritable = true
	} else {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
	}

	if err := os.MkdirAll(cacheDir, 0o750); err == nil && writable(cacheDir) {
		result.System.CacheWritable = true
	} else if !result.Chrome.Found {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Browser cache not writable: %s", cacheDir))
	}
}

// writable reports whether a file can be created in dir.
func writable(dir string) bool {
	testFile := filepath.Join(dir, "wikipdf-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return false
	}
	_ = os.Remove(testFile)
	return true
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "wikipdf doctor")
	fmt.Fprintln(w)

	// Chrome section
	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s (%s)\n", r.Chrome.Path, r.Chrome.Source)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not installed")
	}
	if r.Chrome.SystemPath != "" && r.Chrome.SystemPath != r.Chrome.Path {
		fmt.Fprintf(w, "  [INFO] System browser at %s (pass --chrome-path to use it)\n", r.Chrome.SystemPath)
	}
	fmt.Fprintf(w, "  [OK] Cache: %s\n", r.Chrome.CacheDir)
	fmt.Fprintln(w)

	// Mermaid section
	if r.Mermaid.Checked {
		fmt.Fprintln(w, "Mermaid.js")
		if r.Mermaid.Size > 0 {
			fmt.Fprintf(w, "  [OK] %s (%d bytes)\n", r.Mermaid.Path, r.Mermaid.Size)
		} else {
			fmt.Fprintf(w, "  [ERROR] %s\n", r.Mermaid.Path)
		}
		fmt.Fprintln(w)
	}

	// Environment section
	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.CacheWritable {
		fmt.Fprintln(w, "  [OK] Browser cache: writable")
	} else {
		fmt.Fprintln(w, "  [WARN] Browser cache: not writable")
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
