package bookroll

import "context"

// Surface is a canvas element on the viewer page.
// Surfaces are ephemeral: the viewer may destroy and recreate them between
// pages, so callers re-query on every poll instead of holding on to one.
type Surface interface {
	// Key identifies the surface by its position in the document.
	Key() string

	// Size returns the backing-store dimensions in device pixels.
	Size() (width, height int)

	// ReadPixels copies the current RGBA content into dst,
	// which must hold exactly width*height*4 bytes.
	ReadPixels(ctx context.Context, dst []byte) error

	// Snapshot encodes the current content as PNG.
	Snapshot(ctx context.Context) (Snapshot, error)
}

// ContentProber is implemented by surfaces that can run the pixel test
// where the pixels live, avoiding a full RGBA transfer per poll. It must
// agree with HasContent for the same stride.
type ContentProber interface {
	ProbeContent(ctx context.Context, stride int) (bool, error)
}

// SurfaceSource queries the live page for surfaces.
type SurfaceSource interface {
	// Query returns the canvases matching a CSS selector, in document order.
	// Elements matching the selector that are not canvases are omitted.
	Query(ctx context.Context, selector string) ([]Surface, error)
}

// Pager drives the viewer's "next page" control.
type Pager interface {
	// Advance activates the control. It returns false when the control is
	// absent or disabled, which the capture loop reads as end of document.
	Advance(ctx context.Context) (bool, error)
}

// Viewer is an open viewer page the capture loop can query and advance.
type Viewer interface {
	SurfaceSource
	Pager

	// URL returns the address of the viewer page.
	URL() string

	// Close releases the page and, if the viewer launched it, the browser.
	Close() error
}
