package wikipdf

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-wikipdf/internal/process"
)

// documentPage abstracts the page operations used by the conversion stages
// to enable testing without a browser.
type documentPage interface {
	// SetContent replaces the document and waits for it to load.
	SetContent(html string, timeout time.Duration) error
	// AddScript appends an inline <script> holding js.
	AddScript(js string, timeout time.Duration) error
	// Exec evaluates a JS function for its side effects.
	Exec(js string, args ...interface{}) error
	// EvalBool evaluates a JS function returning a boolean.
	EvalBool(js string) (bool, error)
	// EachElementScreenshot captures every element matching selector as PNG,
	// in document order.
	EachElementScreenshot(selector string, fn func(index int, png []byte) error) error
	// PDF prints the page.
	PDF(opts *proto.PagePrintToPDF) (io.ReadCloser, error)
}

// engineSession owns one browser process and one page for a single conversion.
type engineSession interface {
	Page() documentPage
	// Close terminates the browser. Safe to call more than once.
	Close() error
}

// sessionOpener starts a browser from bin and opens a blank page.
type sessionOpener func(ctx context.Context, bin string, launchTimeout time.Duration) (engineSession, error)

// Compile-time interface checks.
var (
	_ documentPage  = (*rodPage)(nil)
	_ engineSession = (*rodSession)(nil)
	_ sessionOpener = openRodSession
)

// rodSession implements engineSession using go-rod.
type rodSession struct {
	launcher  *launcher.Launcher
	cancel    context.CancelFunc
	browser   *rod.Browser
	connected bool
	page      *rodPage

	closeOnce sync.Once
	closeErr  error
}

// newLauncher applies the fixed launch policy. Sandbox, GPU and /dev/shm are
// disabled so Chrome runs in containers.
func newLauncher(ctx context.Context, bin string) *launcher.Launcher {
	return launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(true).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
}

// openRodSession launches Chrome, connects to it, and opens a blank page.
// On failure everything started so far is torn down before returning.
func openRodSession(ctx context.Context, bin string, launchTimeout time.Duration) (engineSession, error) {
	launchCtx, cancel := context.WithCancel(ctx)
	s := &rodSession{
		launcher: newLauncher(launchCtx, bin),
		cancel:   cancel,
	}

	u, err := launchWithTimeout(ctx, s.launcher, cancel, launchTimeout)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.browser = rod.New().ControlURL(u).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	s.connected = true

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	s.page = &rodPage{page: page}

	return s, nil
}

// launchDrainTimeout bounds the wait for a canceled Launch to return. The
// caller kills the process group whether or not it did.
const launchDrainTimeout = 2 * time.Second

type launchResult struct {
	url string
	err error
}

// launchWithTimeout starts the browser and waits at most timeout for its
// DevTools URL. On timeout or cancellation the launch context is canceled and
// the process is killed.
func launchWithTimeout(ctx context.Context, l *launcher.Launcher, cancel context.CancelFunc, timeout time.Duration) (string, error) {
	done := make(chan launchResult, 1)
	go func() {
		u, err := l.Launch()
		done <- launchResult{url: u, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("%w: %v", ErrEngineLaunch, res.err)
		}
		return res.url, nil
	case <-timer.C:
		cancel()
		drainLaunch(done)
		return "", fmt.Errorf("%w: no response within %v", ErrEngineLaunch, timeout)
	case <-ctx.Done():
		cancel()
		drainLaunch(done)
		return "", ctx.Err()
	}
}

// drainLaunch waits briefly for a canceled Launch so its process is known
// before the session is torn down.
func drainLaunch(done <-chan launchResult) {
	t := time.NewTimer(launchDrainTimeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
	}
}

// Page returns the session's page.
func (s *rodSession) Page() documentPage {
	return s.page
}

// Close closes the browser, then kills the process tree and removes the
// temporary user data directory.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.connected {
			s.closeErr = s.browser.Close()
		}
		// PID is zero when the process never started; Cleanup would block
		// forever waiting for it to exit.
		if pid := s.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.cancel()
	})
	return s.closeErr
}

// rodPage implements documentPage on a *rod.Page.
type rodPage struct {
	page *rod.Page
}

// SetContent sets the document from an in-memory string, so relative
// resources are not resolved against any file location.
func (p *rodPage) SetContent(html string, timeout time.Duration) error {
	page := p.page.Timeout(timeout)
	if err := page.SetDocumentContent(html); err != nil {
		return err
	}
	return page.WaitLoad()
}

// AddScript injects js as an inline script. The document comes from
// SetDocumentContent, whose about:blank origin cannot load file:// URLs.
func (p *rodPage) AddScript(js string, timeout time.Duration) error {
	return p.page.Timeout(timeout).AddScriptTag("", js)
}

// Exec evaluates js and discards the result.
func (p *rodPage) Exec(js string, args ...interface{}) error {
	_, err := p.page.Eval(js, args...)
	return err
}

// EvalBool evaluates js and returns its boolean result.
func (p *rodPage) EvalBool(js string) (bool, error) {
	res, err := p.page.Eval(js)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// EachElementScreenshot captures the rendered bounds of every element
// matching selector.
func (p *rodPage) EachElementScreenshot(selector string, fn func(index int, png []byte) error) error {
	elements, err := p.page.Elements(selector)
	if err != nil {
		return err
	}

	for i, el := range elements {
		data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if err := fn(i, data); err != nil {
			return err
		}
	}
	return nil
}

// PDF prints the page and returns the PDF stream.
func (p *rodPage) PDF(opts *proto.PagePrintToPDF) (io.ReadCloser, error) {
	return p.page.PDF(opts)
}
