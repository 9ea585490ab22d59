package bookroll

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"
)

// Composer backends.
const (
	ComposerChrome = "chrome"
	ComposerPDFCPU = "pdfcpu"
)

// DefaultComposer is the backend used when none is configured.
const DefaultComposer = ComposerChrome

// ComposeSettings tunes page composition.
type ComposeSettings struct {
	Paper         Paper
	DecodeTimeout time.Duration // per image; 0 = DefaultDecodeTimeout
	SkipVerify    bool          // skip the page-count check on the output
}

// DefaultComposeSettings returns A4 with the default decode timeout.
func DefaultComposeSettings() ComposeSettings {
	return ComposeSettings{Paper: PaperA4, DecodeTimeout: DefaultDecodeTimeout}
}

// DocumentFactory creates an empty document whose pages measure width x height points.
type DocumentFactory func(width, height float64) Document

// LayoutComposer lays snapshots out one per page on a Document.
// The page orientation follows the first snapshot; every image is fitted
// and centered on its page.
type LayoutComposer struct {
	newDoc   DocumentFactory
	settings ComposeSettings
	logger   *slog.Logger

	decode func(Snapshot) (image.Config, error)
}

// Compile-time interface check.
var _ Composer = (*LayoutComposer)(nil)

// NewLayoutComposer creates a LayoutComposer over newDoc.
func NewLayoutComposer(newDoc DocumentFactory, settings ComposeSettings, logger *slog.Logger) *LayoutComposer {
	if settings.Paper == (Paper{}) {
		settings.Paper = PaperA4
	}
	if settings.DecodeTimeout <= 0 {
		settings.DecodeTimeout = DefaultDecodeTimeout
	}
	if logger == nil {
		logger = discardLogger()
	}
	return &LayoutComposer{
		newDoc:   newDoc,
		settings: settings,
		logger:   logger,
		decode:   Snapshot.Config,
	}
}

// Compose decodes every page, lays them out and renders the document.
func (c *LayoutComposer) Compose(ctx context.Context, pages []Snapshot) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages to compose", ErrPDFGeneration)
	}

	configs := make([]image.Config, len(pages))
	for i, p := range pages {
		cfg, err := c.decodeWithTimeout(ctx, p, i+1)
		if err != nil {
			return nil, err
		}
		configs[i] = cfg
	}

	orientation := OrientationFor(configs[0].Width, configs[0].Height)
	w, h := c.settings.Paper.Size(orientation)
	doc := c.newDoc(w, h)
	pageW, pageH := doc.PageSize()

	c.logger.Debug("composing document", "pages", len(pages), "paper", c.settings.Paper.Name, "orientation", orientation.String())

	for i, p := range pages {
		doc.AddPage()
		placement := FitImage(pageW, pageH, configs[i].Width, configs[i].Height)
		if err := doc.PlaceImage(p, placement); err != nil {
			return nil, fmt.Errorf("placing page %d: %w", i+1, err)
		}
	}

	out, err := doc.Render(ctx)
	if err != nil {
		return nil, err
	}
	if !c.settings.SkipVerify {
		if err := VerifyPageCount(out, len(pages)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// decodeWithTimeout reads the image header, giving up after DecodeTimeout.
func (c *LayoutComposer) decodeWithTimeout(ctx context.Context, snap Snapshot, page int) (image.Config, error) {
	type result struct {
		cfg image.Config
		err error
	}
	done := make(chan result, 1)
	go func() {
		cfg, err := c.decode(snap)
		done <- result{cfg, err}
	}()

	timer := time.NewTimer(c.settings.DecodeTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			return image.Config{}, fmt.Errorf("page %d: %w", page, r.err)
		}
		return r.cfg, nil
	case <-timer.C:
		return image.Config{}, fmt.Errorf("%w: page %d after %v", ErrImageDecodeTimeout, page, c.settings.DecodeTimeout)
	case <-ctx.Done():
		return image.Config{}, ctx.Err()
	}
}
