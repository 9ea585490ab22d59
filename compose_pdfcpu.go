package bookroll

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// placementTolerance absorbs rounding between FitImage and pdfcpu's own fit.
const placementTolerance = 0.5

// pdfcpuDocument builds the PDF in-process with pdfcpu's image import.
// pdfcpu centers and scales each image to fit its page, which is the same
// placement FitImage computes; PlaceImage rejects anything else.
type pdfcpuDocument struct {
	width  float64
	height float64
	images []Snapshot
	pages  int
}

// Compile-time interface check.
var _ Document = (*pdfcpuDocument)(nil)

func (d *pdfcpuDocument) PageSize() (float64, float64) {
	return d.width, d.height
}

func (d *pdfcpuDocument) AddPage() {
	d.pages++
}

func (d *pdfcpuDocument) PlaceImage(img Snapshot, p Placement) error {
	if d.pages == 0 {
		return fmt.Errorf("%w: image placed before the first page", ErrPDFGeneration)
	}
	if len(d.images) >= d.pages {
		return fmt.Errorf("%w: page %d already holds an image", ErrPDFGeneration, d.pages)
	}
	if !isCenteredFit(d.width, d.height, p) {
		return fmt.Errorf("%w: page %d: only centered fit placements are supported", ErrPDFGeneration, d.pages)
	}
	d.images = append(d.images, img)
	return nil
}

// isCenteredFit reports whether p spans one page axis and is centered on the other.
func isCenteredFit(pageW, pageH float64, p Placement) bool {
	near := func(a, b float64) bool { return math.Abs(a-b) <= placementTolerance }
	fullWidth := near(p.X, 0) && near(p.Width, pageW) && near(p.Y, (pageH-p.Height)/2)
	fullHeight := near(p.Y, 0) && near(p.Height, pageH) && near(p.X, (pageW-p.Width)/2)
	return fullWidth || fullHeight
}

func (d *pdfcpuDocument) Render(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.images) != d.pages {
		return nil, fmt.Errorf("%w: %d pages but %d images", ErrPDFGeneration, d.pages, len(d.images))
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: d.width, Height: d.height}
	imp.UserDim = true
	imp.Pos = types.Center
	imp.Scale = 1.0
	imp.ScaleAbs = false

	readers := make([]io.Reader, len(d.images))
	for i, img := range d.images {
		readers[i] = img.Reader()
	}

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, readers, imp, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("%w: importing images: %v", ErrPDFGeneration, err)
	}
	return buf.Bytes(), nil
}

// NewPDFCPUComposer returns a composer that builds the PDF without a browser.
func NewPDFCPUComposer(settings ComposeSettings, logger *slog.Logger) *LayoutComposer {
	newDoc := func(width, height float64) Document {
		return &pdfcpuDocument{width: width, height: height}
	}
	return NewLayoutComposer(newDoc, settings, logger)
}
