// Package wikipdf converts exported wiki pages (HTML) to PDF using headless Chrome.
//
// # Quick Start
//
// Create a converter and convert a file:
//
//	conv := wikipdf.NewConverter()
//
//	result, err := conv.Convert(ctx, wikipdf.Request{
//	    InputPath:  "export.html",
//	    OutputPath: "export.pdf",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.PDFPath)
//
// # Conversion Pipeline
//
// Each call to Convert runs these stages once, in order:
//
//  1. Resolve a Chrome executable (Request.ChromePath, or a cached download)
//  2. Launch headless Chrome and open one page
//  3. Set the page content from the HTML file
//  4. Optionally render Mermaid diagrams and capture each one as a PNG
//  5. Print to PDF (A4, fixed margins, optional header/footer templates)
//
// The browser is closed on every path, including failures. A failed
// conversion never leaves a partial PDF at the output path.
//
// # Mermaid Diagrams
//
// With Request.RenderMermaid set, the local Mermaid.js at
// Request.MermaidJSPath is injected into the page. Every element with the
// "mermaid" class is captured to mermaid_diagrams/mermaid_{i}.png next to the
// output file. Images from a previous run are removed first.
//
// Request.DiagramMode selects what gets printed:
//
//   - "live" (default): the page as rendered by Mermaid.js
//   - "static": the source HTML with each diagram replaced by its PNG
//
// # Headers and Footers
//
// Header and footer templates are HTML fragments using Chrome's print
// classes (pageNumber, totalPages, date, title, url). A literal template wins
// over a template file. Without either, Chrome's default applies.
//
// # Parallel Processing
//
// Each conversion owns its own browser, so conversions may run concurrently.
// ConverterPool bounds how many run at once:
//
//	pool := wikipdf.NewConverterPool(wikipdf.ResolvePoolSize(0))
//	defer pool.Close()
//
//	conv := pool.Acquire()
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, req)
//
// # Browser Requirements
//
// When Request.ChromePath is empty, a Chromium build is downloaded once to
// a go-wikipdf directory under the system temp directory and reused.
// Chrome always runs headless with sandbox, GPU and /dev/shm disabled.
package wikipdf
