package wikipdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Diagram capture constants.
const (
	diagramSelector     = ".mermaid"
	diagramFileFormat   = "mermaid_%d.png"
	diagramPollInterval = 100 * time.Millisecond
	dirPermissions      = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions     = 0o644 // rw-r--r--: owner read+write, others read
)

// In-page scripts driving the Mermaid runtime.
const (
	mermaidReadyJS = `() => typeof mermaid !== 'undefined' && mermaid.init !== undefined`

	mermaidInitJS = `() => mermaid.initialize({ startOnLoad: true })`

	// startOnLoad only fires on the load event, which has already passed,
	// so rendering is triggered explicitly (run on v10+, init before).
	mermaidRunJS = `() => {
		if (typeof mermaid.run === 'function') {
			return mermaid.run({ querySelector: '.mermaid' }).then(() => true);
		}
		mermaid.init(undefined, '.mermaid');
		return true;
	}`

	mermaidRenderedJS = `() => Array.from(document.querySelectorAll('.mermaid')).every(
		(el) => el.getAttribute('data-processed') === 'true' || el.querySelector('svg') !== null
	)`
)

// staleDiagramPattern matches files written by a previous capture.
var staleDiagramPattern = regexp.MustCompile(`^mermaid_\d+\.png$`)

// diagramRasterizer renders Mermaid markup in the live page and captures
// every diagram container as a PNG.
type diagramRasterizer struct {
	log     Logger
	timeout time.Duration // bound for each readiness poll
}

// rasterize injects the charting runtime from scriptPath, waits for it, renders, and writes
// outDir/mermaid_{i}.png for each container in document order.
func (r *diagramRasterizer) rasterize(ctx context.Context, page documentPage, scriptPath, outDir string) ([]DiagramArtifact, error) {
	script, err := os.ReadFile(scriptPath) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDiagramRuntimeInit, scriptPath, err)
	}
	// Load errors are reported by the readiness check below; the page may
	// already bundle the runtime.
	if err := page.AddScript(string(script), r.timeout); err != nil {
		r.log.Log(fmt.Sprintf("Mermaid.js script did not load: %v", err))
	}

	ready, err := waitFor(ctx, page, mermaidReadyJS, r.timeout)
	if err != nil {
		return nil, err
	}

	if ready {
		if err := page.Exec(mermaidInitJS); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDiagramRuntimeInit, err)
		}
		if err := page.Exec(mermaidRunJS); err != nil {
			r.log.Log(fmt.Sprintf("Mermaid.js reported a rendering error: %v", err))
		}
		rendered, err := waitFor(ctx, page, mermaidRenderedJS, r.timeout)
		if err != nil {
			return nil, err
		}
		if !rendered {
			r.log.Log(fmt.Sprintf("Mermaid.js diagrams still rendering after %v, capturing anyway", r.timeout))
		}
	}

	ok, err := page.EvalBool(mermaidReadyJS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramRuntimeInit, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: mermaid is not defined after loading %s", ErrDiagramRuntimeInit, scriptPath)
	}

	return r.capture(page, outDir)
}

// capture writes one PNG per diagram container.
func (r *diagramRasterizer) capture(page documentPage, outDir string) ([]DiagramArtifact, error) {
	absDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving %s: %v", ErrDiagramCapture, outDir, err)
	}
	if err := os.MkdirAll(absDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrDiagramCapture, absDir, err)
	}

	r.log.Log("Capturing Mermaid diagrams as images...")

	var artifacts []DiagramArtifact
	err = page.EachElementScreenshot(diagramSelector, func(i int, png []byte) error {
		path := filepath.Join(absDir, fmt.Sprintf(diagramFileFormat, i))
		// #nosec G306 -- diagram images are meant to be readable
		if err := os.WriteFile(path, png, filePermissions); err != nil {
			return err
		}
		artifacts = append(artifacts, DiagramArtifact{Index: i, Path: path})
		r.log.Log("Captured screenshot: " + path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramCapture, err)
	}

	return artifacts, nil
}

// waitFor polls js until it returns true, the timeout elapses (false, nil),
// or ctx is done.
func waitFor(ctx context.Context, page documentPage, js string, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(diagramPollInterval)
	defer ticker.Stop()

	for {
		ok, err := page.EvalBool(js)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrDiagramRuntimeInit, err)
		}
		if ok {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// prepareDiagramDir creates dir and removes images from a previous run so
// the directory only ever reflects the latest conversion.
func prepareDiagramDir(dir string) error {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !staleDiagramPattern.MatchString(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
