package wikipdf

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-wikipdf/internal/fileutil"
)

// Paper format constants.
const (
	PaperA4     = "A4"
	PaperA3     = "A3"
	PaperA5     = "A5"
	PaperLetter = "LETTER"
	PaperLegal  = "LEGAL"
)

// paperSizesInches maps paper formats to width and height in inches.
var paperSizesInches = map[string]struct {
	width  float64
	height float64
}{
	PaperA3:     {width: 11.69, height: 16.54},
	PaperA4:     {width: 8.27, height: 11.69},
	PaperA5:     {width: 5.83, height: 8.27},
	PaperLetter: {width: 8.5, height: 11},
	PaperLegal:  {width: 8.5, height: 14},
}

// Fixed layout policy for exported wiki pages.
const (
	defaultPaper        = PaperA4
	defaultMarginTop    = "80px"
	defaultMarginBottom = "100px"
	defaultMarginLeft   = "100px"
	defaultMarginRight  = "100px"
)

// lengthPattern matches a CSS length such as "80px" or "1.5 in".
var lengthPattern = regexp.MustCompile(`^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z]*)\s*$`)

// Margins holds page margins as CSS lengths.
type Margins struct {
	Top    string
	Bottom string
	Left   string
	Right  string
}

// PDFLayout is the resolved print configuration for one conversion.
type PDFLayout struct {
	Paper               string
	Margins             Margins
	HeaderTemplate      string // empty = engine default
	FooterTemplate      string // empty = engine default
	DisplayHeaderFooter bool
	PrintBackground     bool
	PreferCSSPageSize   bool
}

// newLayout resolves the layout for req. Template files are read here, once.
func newLayout(req *Request) (PDFLayout, error) {
	header, err := resolveTemplate(req.Header)
	if err != nil {
		return PDFLayout{}, fmt.Errorf("header: %w", err)
	}
	footer, err := resolveTemplate(req.Footer)
	if err != nil {
		return PDFLayout{}, fmt.Errorf("footer: %w", err)
	}

	return PDFLayout{
		Paper: defaultPaper,
		Margins: Margins{
			Top:    defaultMarginTop,
			Bottom: defaultMarginBottom,
			Left:   defaultMarginLeft,
			Right:  defaultMarginRight,
		},
		HeaderTemplate:      header,
		FooterTemplate:      footer,
		DisplayHeaderFooter: true,
		PrintBackground:     true,
		PreferCSSPageSize:   false,
	}, nil
}

// resolveTemplate returns the literal when set, else the file content,
// else an empty string.
func resolveTemplate(t Template) (string, error) {
	if t.Literal != "" {
		return t.Literal, nil
	}
	if t.Path == "" {
		return "", nil
	}
	data, err := os.ReadFile(t.Path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}
	return string(data), nil
}

// printOptions converts the layout to a DevTools print request.
func (l PDFLayout) printOptions() (*proto.PagePrintToPDF, error) {
	size, ok := paperSizesInches[strings.ToUpper(l.Paper)]
	if !ok {
		return nil, fmt.Errorf("unsupported paper format: %q", l.Paper)
	}

	top, err := parseLengthInches(l.Margins.Top)
	if err != nil {
		return nil, err
	}
	bottom, err := parseLengthInches(l.Margins.Bottom)
	if err != nil {
		return nil, err
	}
	left, err := parseLengthInches(l.Margins.Left)
	if err != nil {
		return nil, err
	}
	right, err := parseLengthInches(l.Margins.Right)
	if err != nil {
		return nil, err
	}

	return &proto.PagePrintToPDF{
		PaperWidth:          floatPtr(size.width),
		PaperHeight:         floatPtr(size.height),
		MarginTop:           floatPtr(top),
		MarginBottom:        floatPtr(bottom),
		MarginLeft:          floatPtr(left),
		MarginRight:         floatPtr(right),
		PrintBackground:     l.PrintBackground,
		PreferCSSPageSize:   l.PreferCSSPageSize,
		DisplayHeaderFooter: l.DisplayHeaderFooter,
		HeaderTemplate:      l.HeaderTemplate,
		FooterTemplate:      l.FooterTemplate,
	}, nil
}

// parseLengthInches converts a CSS length to inches. A bare number is inches.
func parseLengthInches(value string) (float64, error) {
	m := lengthPattern.FindStringSubmatch(value)
	if len(m) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, value)
	}

	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, value)
	}

	switch strings.ToLower(m[2]) {
	case "", "in":
		return amount, nil
	case "cm":
		return amount / 2.54, nil
	case "mm":
		return amount / 25.4, nil
	case "pt":
		return amount / 72.0, nil
	case "px":
		return amount / 96.0, nil
	default:
		return 0, fmt.Errorf("%w: unsupported unit in %q", ErrInvalidLength, value)
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// pdfAssembler prints the page to a file.
type pdfAssembler struct {
	log Logger
}

// emit prints page with layout and writes the result to outputPath,
// replacing any existing file. Nothing is left at outputPath on failure.
func (a *pdfAssembler) emit(page documentPage, layout PDFLayout, outputPath string) (string, error) {
	opts, err := layout.printOptions()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDFRender, err)
	}

	a.log.Log("Generating PDF document...")

	stream, err := page.PDF(opts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDFRender, err)
	}
	defer func() { _ = stream.Close() }()

	if err := fileutil.WriteAtomic(outputPath, stream, filePermissions); err != nil {
		// Stream errors come from the browser, not the disk.
		if fileutil.IsReadError(err) {
			return "", fmt.Errorf("%w: reading PDF stream: %v", ErrPDFRender, err)
		}
		return "", fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	a.log.Log("PDF document is ready.")
	return outputPath, nil
}
