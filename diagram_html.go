package wikipdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// diagramClass is the class marking a diagram container.
const diagramClass = "mermaid"

// findDiagramContainers returns elements carrying the diagram class in
// document order, matching querySelectorAll(".mermaid").
func findDiagramContainers(root *html.Node) []*html.Node {
	var found []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, diagramClass) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// hasClass reports whether n's class attribute contains class.
func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// countDiagrams returns the number of diagram containers in htmlText.
func countDiagrams(htmlText string) (int, error) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return 0, err
	}
	return len(findDiagramContainers(doc)), nil
}

// substituteDiagrams replaces the content of the i-th diagram container with
// an <img> embedding images[i] as a PNG data URI. Containers without a
// matching image are left untouched.
func substituteDiagrams(htmlText string, images [][]byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	// Collect first: replacing children would hide nested containers and
	// shift indexes relative to the live page.
	containers := findDiagramContainers(doc)
	for i, n := range containers {
		if i >= len(images) {
			break
		}
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Img,
			Data:     "img",
			Attr: []html.Attribute{
				{Key: "src", Val: "data:image/png;base64," + base64.StdEncoding.EncodeToString(images[i])},
				{Key: "alt", Val: fmt.Sprintf("diagram %d", i)},
			},
		})
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.String(), nil
}
