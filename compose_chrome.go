package bookroll

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alnah/go-bookroll/internal/fileutil"
)

// Printer prints a local HTML file to PDF on pages of width x height points.
type Printer interface {
	PrintFile(ctx context.Context, path string, width, height float64) ([]byte, error)
}

// htmlPage is one page of the document template.
type htmlPage struct {
	Number int
	Src    template.URL // PNG data URL
	X, Y   string
	Width  string
	Height string
}

// htmlDocumentData is the document template's input.
type htmlDocumentData struct {
	Title  string
	Width  string
	Height string
	Pages  []htmlPage
}

// htmlDocument lays pages out as absolutely positioned images and prints
// them through a browser.
type htmlDocument struct {
	tmpl    *template.Template
	printer Printer
	title   string
	width   float64
	height  float64
	pages   []htmlPage
}

// Compile-time interface check.
var _ Document = (*htmlDocument)(nil)

func (d *htmlDocument) PageSize() (float64, float64) {
	return d.width, d.height
}

func (d *htmlDocument) AddPage() {
	d.pages = append(d.pages, htmlPage{Number: len(d.pages) + 1})
}

func (d *htmlDocument) PlaceImage(img Snapshot, p Placement) error {
	if len(d.pages) == 0 {
		return fmt.Errorf("%w: image placed before the first page", ErrPDFGeneration)
	}
	cur := &d.pages[len(d.pages)-1]
	if cur.Src != "" {
		return fmt.Errorf("%w: page %d already holds an image", ErrPDFGeneration, cur.Number)
	}
	cur.Src = template.URL(img.DataURL()) // #nosec G203 -- data URL built from PNG bytes
	cur.X, cur.Y = formatPoints(p.X), formatPoints(p.Y)
	cur.Width, cur.Height = formatPoints(p.Width), formatPoints(p.Height)
	return nil
}

// Render executes the template into a temporary file and prints it.
func (d *htmlDocument) Render(ctx context.Context) ([]byte, error) {
	var buf strings.Builder
	err := d.tmpl.Execute(&buf, htmlDocumentData{
		Title:  d.title,
		Width:  formatPoints(d.width),
		Height: formatPoints(d.height),
		Pages:  d.pages,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: executing document template: %v", ErrPDFGeneration, err)
	}

	path, cleanup, err := fileutil.WriteTempFile(buf.String(), "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer cleanup()

	return d.printer.PrintFile(ctx, path, d.width, d.height)
}

// formatPoints renders a length for CSS, two decimals.
func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// NewChromeComposer returns a composer that renders pages through the
// document template and prints them with printer.
func NewChromeComposer(printer Printer, tmplText string, settings ComposeSettings, logger *slog.Logger) (*LayoutComposer, error) {
	if printer == nil {
		return nil, fmt.Errorf("%w: chrome composer needs a browser", ErrComposerUnavailable)
	}
	tmpl, err := template.New("document").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing document template: %v", ErrComposerUnavailable, err)
	}
	newDoc := func(width, height float64) Document {
		return &htmlDocument{
			tmpl:    tmpl,
			printer: printer,
			title:   DefaultOutputPrefix,
			width:   width,
			height:  height,
		}
	}
	return NewLayoutComposer(newDoc, settings, logger), nil
}
