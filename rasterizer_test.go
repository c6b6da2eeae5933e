package wikipdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestRasterizer() *diagramRasterizer {
	return &diagramRasterizer{log: discardLogger{}, timeout: 50 * time.Millisecond}
}

// writeScript writes a stand-in Mermaid.js; the mock page decides readiness.
func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mermaid.min.js")
	if err := os.WriteFile(path, []byte("window.mermaid = {};"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRasterize_WaitsForRuntime(t *testing.T) {
	t.Parallel()

	// Not ready on the first two polls, then ready.
	page := &mockPage{
		ready:    func(call int) bool { return call >= 3 },
		rendered: true,
		shots:    [][]byte{fakePNG},
	}
	r := &diagramRasterizer{log: discardLogger{}, timeout: time.Second}
	out := t.TempDir()

	got, err := r.rasterize(context.Background(), page, writeScript(t), out)
	if err != nil {
		t.Fatalf("rasterize() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rasterize() = %d artifacts, want 1", len(got))
	}
	if len(page.execCalls) != 2 || page.execCalls[0] != mermaidInitJS || page.execCalls[1] != mermaidRunJS {
		t.Errorf("exec calls = %v, want init then run", page.execCalls)
	}
}

func TestRasterize_ScriptLoadErrorDeferred(t *testing.T) {
	t.Parallel()

	// The tag reports an error but the runtime still came up (e.g. already
	// bundled in the page); capture proceeds.
	page := &mockPage{
		addScriptErr: errors.New("SyntaxError: Unexpected token"),
		rendered:     true,
		shots:        [][]byte{fakePNG, fakePNG, fakePNG},
	}
	script := filepath.Join(t.TempDir(), "mermaid.min.js")
	if err := os.WriteFile(script, []byte("window.mermaid = {"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := newTestRasterizer().rasterize(context.Background(), page, script, t.TempDir())
	if err != nil {
		t.Fatalf("rasterize() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("rasterize() = %d artifacts, want 3", len(got))
	}
}

func TestRasterize_UnreadableScript(t *testing.T) {
	t.Parallel()

	page := &mockPage{ready: func(int) bool { return false }}
	// A long poll bound: a missing file must fail before any polling.
	r := &diagramRasterizer{log: discardLogger{}, timeout: time.Minute}
	missing := filepath.Join(t.TempDir(), "mermaid.min.js")

	start := time.Now()
	_, err := r.rasterize(context.Background(), page, missing, t.TempDir())
	if !errors.Is(err, ErrDiagramRuntimeInit) {
		t.Fatalf("rasterize() error = %v, want ErrDiagramRuntimeInit", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error %q does not name the script", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("rasterize() took %v, want immediate failure", elapsed)
	}
	if len(page.scripts) != 0 || page.readyN != 0 {
		t.Errorf("scripts injected = %d, readiness polls = %d, want 0 and 0", len(page.scripts), page.readyN)
	}
}

func TestRasterize_RenderTimeoutIsNotFatal(t *testing.T) {
	t.Parallel()

	logs := &recordingLogger{}
	page := &mockPage{rendered: false, shots: [][]byte{fakePNG}}
	r := &diagramRasterizer{log: logs, timeout: 30 * time.Millisecond}

	if _, err := r.rasterize(context.Background(), page, writeScript(t), t.TempDir()); err != nil {
		t.Fatalf("rasterize() error = %v", err)
	}

	found := false
	for _, m := range logs.messages() {
		if strings.Contains(m, "still rendering") {
			found = true
		}
	}
	if !found {
		t.Error("render timeout was not logged")
	}
}

func TestRasterize_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    *mockPage
		wantErr error
	}{
		{
			name:    "runtime never defined",
			page:    &mockPage{ready: func(int) bool { return false }},
			wantErr: ErrDiagramRuntimeInit,
		},
		{
			name:    "initialize throws",
			page:    &mockPage{execErr: errors.New("mermaid.initialize is not a function")},
			wantErr: ErrDiagramRuntimeInit,
		},
		{
			name:    "evaluation fails",
			page:    &mockPage{evalErr: errors.New("target closed")},
			wantErr: ErrDiagramRuntimeInit,
		},
		{
			name:    "screenshot fails",
			page:    &mockPage{rendered: true, shotErr: errors.New("node is detached")},
			wantErr: ErrDiagramCapture,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := t.TempDir()
			_, err := newTestRasterizer().rasterize(context.Background(), tt.page, writeScript(t), out)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("rasterize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCapture(t *testing.T) {
	t.Parallel()

	t.Run("files follow document order", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "diagrams")
		page := &mockPage{shots: [][]byte{[]byte("zero"), []byte("one")}}

		got, err := newTestRasterizer().capture(page, out)
		if err != nil {
			t.Fatalf("capture() error = %v", err)
		}
		for i, want := range []string{"zero", "one"} {
			data, err := os.ReadFile(got[i].Path)
			if err != nil {
				t.Fatalf("reading %s: %v", got[i].Path, err)
			}
			if string(data) != want {
				t.Errorf("diagram %d = %q, want %q", i, data, want)
			}
			if filepath.Base(got[i].Path) != fmt.Sprintf("mermaid_%d.png", i) {
				t.Errorf("diagram %d name = %s", i, filepath.Base(got[i].Path))
			}
		}
	})

	t.Run("output dir is a file", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "taken")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatal(err)
		}

		_, err := newTestRasterizer().capture(&mockPage{shots: [][]byte{fakePNG}}, blocker)
		if !errors.Is(err, ErrDiagramCapture) {
			t.Errorf("capture() error = %v, want ErrDiagramCapture", err)
		}
	})
}

func TestWaitFor(t *testing.T) {
	t.Parallel()

	t.Run("true immediately", func(t *testing.T) {
		t.Parallel()

		ok, err := waitFor(context.Background(), &mockPage{}, mermaidReadyJS, time.Second)
		if err != nil || !ok {
			t.Errorf("waitFor() = %v, %v; want true, nil", ok, err)
		}
	})

	t.Run("times out", func(t *testing.T) {
		t.Parallel()

		page := &mockPage{ready: func(int) bool { return false }}
		start := time.Now()
		ok, err := waitFor(context.Background(), page, mermaidReadyJS, 150*time.Millisecond)
		if err != nil || ok {
			t.Errorf("waitFor() = %v, %v; want false, nil", ok, err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("waitFor() took %v", elapsed)
		}
		if page.readyN < 2 {
			t.Errorf("polled %d times, want several", page.readyN)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		page := &mockPage{ready: func(int) bool { return false }}
		_, err := waitFor(ctx, page, mermaidReadyJS, time.Minute)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("waitFor() error = %v, want context.Canceled", err)
		}
	})
}

func TestPrepareDiagramDir(t *testing.T) {
	t.Parallel()

	t.Run("creates missing dir", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b", DiagramDirName)
		if err := prepareDiagramDir(dir); err != nil {
			t.Fatalf("prepareDiagramDir() error = %v", err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("dir not created: %v", err)
		}
	})

	t.Run("removes only stale images", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		keep := []string{"mermaid_x.png", "mermaid_1.jpg", "diagram_0.png", "readme.md"}
		drop := []string{"mermaid_0.png", "mermaid_12.png"}
		for _, name := range append(keep, drop...) {
			if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
				t.Fatal(err)
			}
		}
		// A directory matching the pattern is not touched.
		if err := os.Mkdir(filepath.Join(dir, "mermaid_3.png"), 0o750); err != nil {
			t.Fatal(err)
		}

		if err := prepareDiagramDir(dir); err != nil {
			t.Fatalf("prepareDiagramDir() error = %v", err)
		}

		for _, name := range append(keep, "mermaid_3.png") {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("%s removed: %v", name, err)
			}
		}
		for _, name := range drop {
			assertNoFile(t, filepath.Join(dir, name))
		}
	})
}
