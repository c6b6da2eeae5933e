package wikipdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// Mock implementations for testing.

// mockPage implements documentPage without a browser.
type mockPage struct {
	mu sync.Mutex

	setContentErr error
	contents      []string

	addScriptErr error
	scripts      []string

	execErr   error
	execCalls []string

	// ready decides mermaidReadyJS; call is 1-based.
	ready    func(call int) bool
	readyN   int
	rendered bool
	evalErr  error

	shots   [][]byte
	shotErr error

	pdfData    []byte
	pdfErr     error
	pdfReadErr error
	pdfOpts    *proto.PagePrintToPDF

	calls []string
}

func (m *mockPage) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockPage) SetContent(html string, timeout time.Duration) error {
	m.record("SetContent")
	m.contents = append(m.contents, html)
	return m.setContentErr
}

func (m *mockPage) AddScript(js string, timeout time.Duration) error {
	m.record("AddScript")
	m.scripts = append(m.scripts, js)
	return m.addScriptErr
}

func (m *mockPage) Exec(js string, args ...interface{}) error {
	m.record("Exec")
	m.execCalls = append(m.execCalls, js)
	return m.execErr
}

func (m *mockPage) EvalBool(js string) (bool, error) {
	if m.evalErr != nil {
		return false, m.evalErr
	}
	switch js {
	case mermaidReadyJS:
		m.readyN++
		if m.ready == nil {
			return true, nil
		}
		return m.ready(m.readyN), nil
	case mermaidRenderedJS:
		return m.rendered, nil
	}
	return false, errors.New("unexpected script")
}

func (m *mockPage) EachElementScreenshot(selector string, fn func(int, []byte) error) error {
	m.record("Screenshot")
	if m.shotErr != nil {
		return m.shotErr
	}
	for i, s := range m.shots {
		if err := fn(i, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockPage) PDF(opts *proto.PagePrintToPDF) (io.ReadCloser, error) {
	m.record("PDF")
	m.pdfOpts = opts
	if m.pdfErr != nil {
		return nil, m.pdfErr
	}
	if m.pdfReadErr != nil {
		return io.NopCloser(&errAfterReader{data: m.pdfData, err: m.pdfReadErr}), nil
	}
	return io.NopCloser(bytes.NewReader(m.pdfData)), nil
}

// errAfterReader yields data, then err.
type errAfterReader struct {
	data []byte
	err  error
	done bool
}

func (r *errAfterReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	return copy(p, r.data), nil
}

// mockSession implements engineSession.
type mockSession struct {
	page       *mockPage
	closeErr   error
	closeCalls int
}

func (m *mockSession) Page() documentPage { return m.page }

func (m *mockSession) Close() error {
	m.closeCalls++
	return m.closeErr
}

// mockResolver implements engineResolver.
type mockResolver struct {
	path       string
	err        error
	calledWith string
	calls      int
}

func (m *mockResolver) Resolve(ctx context.Context, explicitPath string) (string, error) {
	m.calls++
	m.calledWith = explicitPath
	if m.err != nil {
		return "", m.err
	}
	if explicitPath != "" {
		return explicitPath, nil
	}
	return m.path, nil
}

// recordingLogger collects messages.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingLogger) Log(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingLogger) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// fakePNG is enough bytes to look like an image to tests.
var fakePNG = []byte("\x89PNG\r\n\x1a\nfake-image-data")
