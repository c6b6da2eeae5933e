package wikipdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
)

// cacheDirPermissions restricts the browser cache to the current user.
const cacheDirPermissions = 0o750

// browserFetcher abstracts browser download to enable testing without network.
type browserFetcher interface {
	// Get returns the executable path, downloading the browser if the
	// cached copy is missing or invalid.
	Get() (string, error)
}

// Compile-time interface check.
var _ browserFetcher = (*launcher.Browser)(nil)

// EngineProvisioner resolves the Chrome executable used for a conversion.
//
// Downloads go to a revision-addressed directory under the cache root
// (go-rod stores each revision in its own chromium-<rev> folder). go-rod
// holds a TCP lock port while validating or downloading, so simultaneous
// first runs in separate processes do not corrupt the cached binary.
type EngineProvisioner struct {
	dir        string
	log        Logger
	newFetcher func(ctx context.Context, dir string, log Logger) browserFetcher
}

// DefaultCacheDir returns the browser cache root under the platform temp directory.
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), "go-wikipdf", "browser")
}

// NewEngineProvisioner creates a provisioner caching downloads under dir.
// An empty dir uses DefaultCacheDir.
func NewEngineProvisioner(dir string, log Logger) *EngineProvisioner {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	if log == nil {
		log = discardLogger{}
	}
	return &EngineProvisioner{
		dir:        dir,
		log:        log,
		newFetcher: newRodFetcher,
	}
}

// Dir returns the cache root.
func (p *EngineProvisioner) Dir() string {
	return p.dir
}

// Resolve returns explicitPath unchecked when set. Otherwise it returns the
// cached browser, downloading it first when needed.
// Launch failures surface later, not here.
func (p *EngineProvisioner) Resolve(ctx context.Context, explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.log.Log("No Chrome path defined, downloading to user temp...")

	if err := os.MkdirAll(p.dir, cacheDirPermissions); err != nil {
		return "", fmt.Errorf("%w: creating cache directory: %v", ErrEngineAcquisition, err)
	}

	bin, err := p.newFetcher(ctx, p.dir, p.log).Get()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngineAcquisition, err)
	}

	p.log.Log("Chrome ready.")
	return bin, nil
}

// newRodFetcher configures go-rod's browser downloader for dir.
func newRodFetcher(ctx context.Context, dir string, log Logger) browserFetcher {
	b := launcher.NewBrowser()
	b.RootDir = dir
	b.Context = ctx
	b.Logger = rodLogger{log: log}
	return b
}

// rodLogger forwards go-rod download progress to a Logger.
type rodLogger struct {
	log Logger
}

// Println implements go-rod's utils.Logger.
func (r rodLogger) Println(v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintln(v...))
	if msg != "" {
		r.log.Log(msg)
	}
}
