package bookroll

import (
	"context"
	"fmt"
	"log/slog"
)

// genericSurfaceSelector matches every canvas; the size filter applies to it.
const genericSurfaceSelector = "canvas"

// Locator finds the canvas that currently shows the page content.
//
// The viewer may keep several canvases around (prefetched neighbours,
// overlays, blank placeholders). The Locator walks them in priority order and
// returns the first one holding a visible non-white pixel.
//
// A Locator owns a scratch buffer that it reuses across calls; it is not
// safe for concurrent use.
type Locator struct {
	src      SurfaceSource
	settings LocatorSettings
	logger   *slog.Logger
	scratch  []byte
}

// NewLocator creates a Locator over src. A nil logger discards output.
func NewLocator(src SurfaceSource, settings LocatorSettings, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = discardLogger()
	}
	return &Locator{src: src, settings: settings, logger: logger}
}

// Locate returns the highest-priority surface with content, or nil when no
// surface on the page shows anything. Read failures on individual surfaces
// are skipped; Locate only fails when ctx is done.
func (l *Locator) Locate(ctx context.Context) (Surface, error) {
	candidates := l.candidates(ctx)
	for _, s := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := l.hasContent(ctx, s)
		if err != nil {
			l.logger.Debug("skipping surface", "surface", s.Key(), "error", err)
			continue
		}
		if ok {
			return s, nil
		}
	}
	return nil, ctx.Err()
}

// candidates builds the deduplicated, priority-ordered candidate list.
func (l *Locator) candidates(ctx context.Context) []Surface {
	var out []Surface
	seen := make(map[string]bool)
	add := func(s Surface) {
		if seen[s.Key()] {
			return
		}
		seen[s.Key()] = true
		out = append(out, s)
	}

	// Priority selectors contribute their first match only.
	priority := append([]string(nil), l.settings.SurfaceSelectors...)
	if l.settings.WrapperSelector != "" {
		priority = append(priority, l.settings.WrapperSelector)
	}
	for _, sel := range priority {
		found, err := l.src.Query(ctx, sel)
		if err != nil {
			l.logger.Debug("surface query failed", "selector", sel, "error", err)
			continue
		}
		if len(found) > 0 {
			add(found[0])
		}
	}

	all, err := l.src.Query(ctx, genericSurfaceSelector)
	if err != nil {
		l.logger.Debug("surface query failed", "selector", genericSurfaceSelector, "error", err)
		return out
	}
	for _, s := range all {
		w, h := s.Size()
		if w > l.settings.MinSurfaceSize && h > l.settings.MinSurfaceSize {
			add(s)
		}
	}
	return out
}

// hasContent runs the pixel test on s, in place when s supports it and
// otherwise over a copy in the scratch buffer.
func (l *Locator) hasContent(ctx context.Context, s Surface) (bool, error) {
	if p, ok := s.(ContentProber); ok {
		return p.ProbeContent(ctx, l.settings.SampleStride)
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return false, fmt.Errorf("%w: empty surface %dx%d", ErrSurfaceRead, w, h)
	}
	buf := l.buffer(w * h * 4)
	if err := s.ReadPixels(ctx, buf); err != nil {
		return false, err
	}
	return HasContent(buf, l.settings.SampleStride), nil
}

// buffer returns the scratch buffer sized to n bytes and cleared.
func (l *Locator) buffer(n int) []byte {
	if cap(l.scratch) < n {
		l.scratch = make([]byte, n)
	}
	buf := l.scratch[:n]
	clear(buf)
	return buf
}
