package bookroll

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Paper is a page format in PDF points (1/72 inch), portrait.
type Paper struct {
	Name   string
	Width  float64
	Height float64
}

// Supported paper formats.
var (
	PaperA4     = Paper{Name: "a4", Width: 595.28, Height: 841.89}
	PaperLetter = Paper{Name: "letter", Width: 612, Height: 792}
	PaperLegal  = Paper{Name: "legal", Width: 612, Height: 1008}
)

// DefaultPaper is used when no paper is configured.
const DefaultPaper = "a4"

var papers = map[string]Paper{
	PaperA4.Name:     PaperA4,
	PaperLetter.Name: PaperLetter,
	PaperLegal.Name:  PaperLegal,
}

// PaperNames returns the supported paper names, sorted.
func PaperNames() []string {
	names := make([]string, 0, len(papers))
	for name := range papers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupPaper resolves a paper name (case-insensitive). Empty means DefaultPaper.
func LookupPaper(name string) (Paper, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultPaper
	}
	p, ok := papers[name]
	if !ok {
		return Paper{}, fmt.Errorf("%w: %q (must be one of %s)", ErrInvalidPaper, name, strings.Join(PaperNames(), ", "))
	}
	return p, nil
}

// Orientation is the page orientation of a composed document.
type Orientation int

// Orientations.
const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// OrientationFor returns Landscape iff the image is wider than tall.
func OrientationFor(imgW, imgH int) Orientation {
	if imgW > imgH {
		return Landscape
	}
	return Portrait
}

// Size returns the page dimensions for the orientation.
func (p Paper) Size(o Orientation) (width, height float64) {
	if o == Landscape {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

// Placement is an image rectangle on a page, in points from the top-left corner.
type Placement struct {
	X, Y          float64
	Width, Height float64
}

// FitImage scales an image to fill the page along its constraining axis,
// preserving the aspect ratio, and centers it along the other axis.
func FitImage(pageW, pageH float64, imgW, imgH int) Placement {
	if imgW <= 0 || imgH <= 0 || pageW <= 0 || pageH <= 0 {
		return Placement{Width: pageW, Height: pageH}
	}
	imgRatio := float64(imgW) / float64(imgH)
	pageRatio := pageW / pageH

	if imgRatio > pageRatio {
		h := pageW / imgRatio
		return Placement{X: 0, Y: (pageH - h) / 2, Width: pageW, Height: h}
	}
	w := pageH * imgRatio
	return Placement{X: (pageW - w) / 2, Y: 0, Width: w, Height: pageH}
}

// Document is a page-oriented output being laid out.
// AddPage starts a new page; PlaceImage draws on the current one.
type Document interface {
	PageSize() (width, height float64)
	AddPage()
	PlaceImage(img Snapshot, p Placement) error
	Render(ctx context.Context) ([]byte, error)
}

// DefaultOutputPrefix is the file name prefix for composed documents.
const DefaultOutputPrefix = "bookroll"

// outputTimeLayout is ISO 8601 to the second, with colons replaced by hyphens.
const outputTimeLayout = "2006-01-02T15-04-05"

// OutputName returns "<prefix>_<UTC timestamp>.pdf".
func OutputName(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultOutputPrefix
	}
	return prefix + "_" + now.UTC().Format(outputTimeLayout) + ".pdf"
}
