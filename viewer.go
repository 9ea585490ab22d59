package bookroll

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/alnah/go-bookroll/internal/assets"
)

// evaluator calls an in-page script (a JavaScript function expression) with
// JSON-encodable arguments and decodes its JSON result into out.
type evaluator interface {
	Eval(ctx context.Context, script string, out any, args ...any) error
}

// canvasInfo is what the query script reports per canvas.
type canvasInfo struct {
	Index  int `json:"index"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// scriptViewer implements Viewer on top of the embedded in-page scripts.
// Both browser drivers share it and differ only in how they evaluate.
type scriptViewer struct {
	eval    evaluator
	scripts *assets.Scripts
	pager   PagerSettings
	url     string
	close   func() error
}

// Compile-time interface checks.
var (
	_ Viewer        = (*scriptViewer)(nil)
	_ Surface       = (*scriptSurface)(nil)
	_ ContentProber = (*scriptSurface)(nil)
)

func (v *scriptViewer) Query(ctx context.Context, selector string) ([]Surface, error) {
	var infos []canvasInfo
	if err := v.eval.Eval(ctx, v.scripts.Query, &infos, selector); err != nil {
		return nil, fmt.Errorf("%w: query %q: %v", ErrSurfaceRead, selector, err)
	}
	out := make([]Surface, 0, len(infos))
	for _, info := range infos {
		if info.Index < 0 {
			continue
		}
		out = append(out, &scriptSurface{viewer: v, info: info})
	}
	return out, nil
}

func (v *scriptViewer) Advance(ctx context.Context) (bool, error) {
	var clicked bool
	if err := v.eval.Eval(ctx, v.scripts.Next, &clicked, v.pager.NextSelector, v.pager.DisabledClass); err != nil {
		return false, fmt.Errorf("activating %q: %w", v.pager.NextSelector, err)
	}
	return clicked, nil
}

func (v *scriptViewer) URL() string {
	return v.url
}

func (v *scriptViewer) Close() error {
	if v.close == nil {
		return nil
	}
	err := v.close()
	v.close = nil
	return err
}

// scriptSurface is a canvas addressed by its index among the page's canvases.
type scriptSurface struct {
	viewer *scriptViewer
	info   canvasInfo
}

func (s *scriptSurface) Key() string {
	return "canvas#" + strconv.Itoa(s.info.Index)
}

func (s *scriptSurface) Size() (int, int) {
	return s.info.Width, s.info.Height
}

func (s *scriptSurface) ProbeContent(ctx context.Context, stride int) (bool, error) {
	var ok bool
	if err := s.viewer.eval.Eval(ctx, s.viewer.scripts.Probe, &ok, s.info.Index, max(stride, 1)); err != nil {
		return false, fmt.Errorf("%w: probing %s: %v", ErrSurfaceRead, s.Key(), err)
	}
	return ok, nil
}

// ReadPixels transfers the full RGBA buffer. The Locator probes in page
// instead; this is the Surface contract for other callers.
func (s *scriptSurface) ReadPixels(ctx context.Context, dst []byte) error {
	var encoded string
	if err := s.viewer.eval.Eval(ctx, s.viewer.scripts.Pixels, &encoded, s.info.Index); err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrSurfaceRead, s.Key(), err)
	}
	if encoded == "" {
		return fmt.Errorf("%w: %s is gone", ErrSurfaceRead, s.Key())
	}
	pix, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: decoding %s pixels: %v", ErrSurfaceRead, s.Key(), err)
	}
	if len(pix) != len(dst) {
		return fmt.Errorf("%w: %s resized (%d bytes, want %d)", ErrSurfaceRead, s.Key(), len(pix), len(dst))
	}
	copy(dst, pix)
	return nil
}

func (s *scriptSurface) Snapshot(ctx context.Context) (Snapshot, error) {
	var dataURL string
	if err := s.viewer.eval.Eval(ctx, s.viewer.scripts.Snapshot, &dataURL, s.info.Index); err != nil {
		return Snapshot{}, fmt.Errorf("%w: encoding %s: %v", ErrSurfaceRead, s.Key(), err)
	}
	if dataURL == "" {
		return Snapshot{}, fmt.Errorf("%w: %s is gone", ErrSurfaceRead, s.Key())
	}
	return SnapshotFromDataURL(dataURL)
}
