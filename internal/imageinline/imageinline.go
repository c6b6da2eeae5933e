// Package imageinline embeds local images referenced by an HTML page as data
// URIs.
//
// Pages are loaded into Chrome from a string, so the document has no base
// URL and relative image paths resolve to nothing. Exported wiki pages keep
// their attachments next to the page (often in a sibling .attachments
// directory), and inlining them is the only way they reach the PDF.
package imageinline

import (
	"encoding/base64"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxImageSize bounds a single inlined file. Larger images keep their
// original reference.
const MaxImageSize = 20 << 20

// Report describes what Inline did.
type Report struct {
	Inlined int      // images embedded as data URIs
	Skipped []string // references left untouched (missing, too large, not an image)
}

// Inline rewrites relative img[src] references to data URIs, reading files
// relative to sourceDir. Only files with an image MIME type are read.
// When nothing is inlined the input is returned unchanged, byte for byte.
// An empty sourceDir disables the rewrite.
func Inline(htmlContent, sourceDir string) (string, Report, error) {
	var report Report
	if sourceDir == "" {
		return htmlContent, report, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", report, err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", report, err
	}

	inlineNode(doc, absSourceDir, &report)

	if report.Inlined == 0 {
		return htmlContent, report, nil
	}

	out, err := renderHTML(doc, isFragment)
	if err != nil {
		return "", report, err
	}
	return out, report, nil
}

// utf8BOM is dropped before parsing; left in place it is body text and
// pushes the doctype out of the prolog.
const utf8BOM = "\ufeff"

// parseHTML parses a full document or a body fragment.
func parseHTML(content string) (*html.Node, bool, error) {
	content = strings.TrimPrefix(content, utf8BOM)

	if isDocument(content) {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// isDocument reports whether content opens with a doctype or an html
// element once leading whitespace, comments and processing instructions
// (an XML prolog, for instance) are skipped.
func isDocument(content string) bool {
	rest := content
	for {
		rest = strings.TrimLeft(rest, " \t\r\n\f")
		lower := strings.ToLower(rest)
		switch {
		case strings.HasPrefix(lower, "<!doctype"), strings.HasPrefix(lower, "<html"):
			return true
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest[4:], "-->")
			if end < 0 {
				return false
			}
			rest = rest[4+end+3:]
		case strings.HasPrefix(rest, "<?"):
			end := strings.Index(rest, ">")
			if end < 0 {
				return false
			}
			rest = rest[end+1:]
		default:
			return false
		}
	}
}

// renderHTML renders doc. Fragments render their children only, so no
// <html><body> wrapper is added.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func inlineNode(n *html.Node, sourceDir string, report *Report) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		inlineSrc(n, sourceDir, report)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inlineNode(c, sourceDir, report)
	}
}

// inlineSrc replaces a relative src with a data URI.
func inlineSrc(n *html.Node, sourceDir string, report *Report) {
	for i, attr := range n.Attr {
		if attr.Namespace != "" || attr.Key != "src" {
			continue
		}
		rel, ok := relativePath(attr.Val)
		if !ok {
			return
		}

		uri, ok := dataURI(filepath.Join(sourceDir, filepath.FromSlash(rel)))
		if !ok {
			report.Skipped = append(report.Skipped, attr.Val)
			return
		}
		n.Attr[i].Val = uri
		report.Inlined++
		return
	}
}

// dataURI reads an image file and encodes it. Non-image extensions are
// refused so a page cannot pull arbitrary files into the PDF.
func dataURI(path string) (string, bool) {
	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mediaType, "image/") {
		return "", false
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() > MaxImageSize {
		return "", false
	}

	data, err := os.ReadFile(path) // #nosec G304 -- image referenced by the user's page
	if err != nil {
		return "", false
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

// relativePath returns the decoded path of a local relative reference,
// without its query or fragment. URLs and absolute paths are not relative.
func relativePath(ref string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "/") ||
		strings.HasPrefix(ref, `\`) || filepath.IsAbs(ref) {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	return u.Path, true
}
