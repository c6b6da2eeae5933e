package imageinline

// Notes:
// - Tests Inline through its public API, plus relativePath directly since its
//   URL classification has many cases.
// - Error branches in parseHTML/renderHTML are not covered: the html package
//   does not fail on string input.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngBytes is a minimal payload; only the extension decides the MIME type.
var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func writeImage(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// TestInline - Local image embedding
// ---------------------------------------------------------------------------

func TestInline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := filepath.Join(dir, "wiki", "ops")
	writeImage(t, filepath.Join(page, "diagram.png"), pngBytes)
	writeImage(t, filepath.Join(dir, "wiki", ".attachments", "team photo.jpg"), pngBytes)
	writeImage(t, filepath.Join(page, "notes.txt"), []byte("secret"))

	wantPNG := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	wantJPG := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	tests := []struct {
		name        string
		html        string
		wantInlined int
		wantSkipped int
		contains    []string
	}{
		{
			name:        "sibling image",
			html:        `<p><img src="diagram.png" alt="d"></p>`,
			wantInlined: 1,
			contains:    []string{`src="` + wantPNG + `"`, `alt="d"`},
		},
		{
			name:        "parent attachments with escaped space",
			html:        `<img src="../.attachments/team%20photo.jpg">`,
			wantInlined: 1,
			contains:    []string{wantJPG},
		},
		{
			name:        "query and fragment ignored",
			html:        `<img src="./diagram.png?v=2#top">`,
			wantInlined: 1,
			contains:    []string{wantPNG},
		},
		{
			name:        "missing file skipped",
			html:        `<img src="gone.png">`,
			wantSkipped: 1,
			contains:    []string{`src="gone.png"`},
		},
		{
			name:        "non-image file refused",
			html:        `<img src="notes.txt">`,
			wantSkipped: 1,
			contains:    []string{`src="notes.txt"`},
		},
		{
			name:     "remote and data sources untouched",
			html:     `<img src="https://example.com/a.png"><img src="data:image/png;base64,AAA">`,
			contains: []string{`https://example.com/a.png`, `data:image/png;base64,AAA`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, report, err := Inline(tt.html, page)
			if err != nil {
				t.Fatalf("Inline() error = %v", err)
			}
			if report.Inlined != tt.wantInlined {
				t.Errorf("Inlined = %d, want %d", report.Inlined, tt.wantInlined)
			}
			if len(report.Skipped) != tt.wantSkipped {
				t.Errorf("Skipped = %v, want %d entries", report.Skipped, tt.wantSkipped)
			}
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("output missing %q, got:\n%s", s, got)
				}
			}
		})
	}
}

func TestInline_UnchangedWhenNothingInlined(t *testing.T) {
	t.Parallel()

	// Rendering would escape the arrow; untouched input must keep it.
	in := `<div class="mermaid">graph TD; A-->B</div><img src="missing.png">`
	got, _, err := Inline(in, t.TempDir())
	if err != nil {
		t.Fatalf("Inline() error = %v", err)
	}
	if got != in {
		t.Errorf("Inline() = %q, want input unchanged", got)
	}
}

func TestInline_EmptySourceDir(t *testing.T) {
	t.Parallel()

	in := `<img src="diagram.png">`
	got, report, err := Inline(in, "")
	if err != nil {
		t.Fatalf("Inline() error = %v", err)
	}
	if got != in || report.Inlined != 0 {
		t.Errorf("Inline() = %q, %+v; want unchanged", got, report)
	}
}

func TestInline_FullDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "logo.svg"), []byte("<svg/>"))

	in := "<!DOCTYPE html><html><head><title>T</title></head><body><img src=\"logo.svg\"></body></html>"
	got, report, err := Inline(in, dir)
	if err != nil {
		t.Fatalf("Inline() error = %v", err)
	}
	if report.Inlined != 1 {
		t.Fatalf("Inlined = %d, want 1", report.Inlined)
	}
	if !strings.Contains(got, "<title>T</title>") || !strings.Contains(got, "data:image/svg+xml;base64,") {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func TestInline_DocumentWithProlog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), pngBytes)

	const page = `<!DOCTYPE html><html lang="en"><head><title>T</title><style>p{}</style></head>` +
		`<body><p>x</p><img src="a.png"></body></html>`

	tests := []struct {
		name   string
		prefix string
	}{
		{"leading comment", "<!-- exported from wiki -->\n"},
		{"byte order mark", "\ufeff"},
		{"xml prolog", "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"},
		{"comment after whitespace", "\n  <!-- a --><!-- b -->\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, report, err := Inline(tt.prefix+page, dir)
			if err != nil {
				t.Fatalf("Inline() error = %v", err)
			}
			if report.Inlined != 1 {
				t.Fatalf("Inlined = %d, want 1", report.Inlined)
			}
			for _, want := range []string{"<!DOCTYPE html>", `<html lang="en">`, "<head>", "<body>", "data:image/png;base64,"} {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestIsDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"<!doctype html><p>x</p>", true},
		{"  <HTML><body></body></HTML>", true},
		{"<!-- c -->\n<!DOCTYPE html>", true},
		{"<?xml version=\"1.0\"?><html>", true},
		{"<p>x</p>", false},
		{"<!-- c --><p>x</p>", false},
		{"<!-- unterminated <html>", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isDocument(tt.in); got != tt.want {
			t.Errorf("isDocument(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInline_Fragment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.gif"), []byte("GIF89a"))

	got, _, err := Inline(`<p>x</p><img src="a.gif">`, dir)
	if err != nil {
		t.Fatalf("Inline() error = %v", err)
	}
	if strings.Contains(got, "<html>") || strings.Contains(got, "<body>") {
		t.Errorf("fragment gained a document wrapper:\n%s", got)
	}
}

func TestInline_TooLarge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "huge.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Sparse file: no real disk use.
	if err := f.Truncate(MaxImageSize + 1); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	_, report, err := Inline(`<img src="huge.png">`, dir)
	if err != nil {
		t.Fatalf("Inline() error = %v", err)
	}
	if report.Inlined != 0 || len(report.Skipped) != 1 {
		t.Errorf("report = %+v, want one skipped", report)
	}
}

// ---------------------------------------------------------------------------
// TestRelativePath - Reference classification
// ---------------------------------------------------------------------------

func TestRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref    string
		want   string
		wantOK bool
	}{
		{"img.png", "img.png", true},
		{"./img/a.png", "./img/a.png", true},
		{"../up.png", "../up.png", true},
		{"a%20b.png", "a b.png", true},
		{"a.png?x=1", "a.png", true},
		{"", "", false},
		{"#anchor", "", false},
		{"/abs/a.png", "", false},
		{"//cdn.example.com/a.png", "", false},
		{"http://example.com/a.png", "", false},
		{"https://example.com/a.png", "", false},
		{"file:///tmp/a.png", "", false},
		{"data:image/png;base64,AAA", "", false},
	}

	for _, tt := range tests {
		got, ok := relativePath(tt.ref)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("relativePath(%q) = %q, %v; want %q, %v", tt.ref, got, ok, tt.want, tt.wantOK)
		}
	}
}
