package bookroll

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"
)

// Fakes shared by the package tests. None of them touch a browser.

// ---------------------------------------------------------------------------
// fakeClock
// ---------------------------------------------------------------------------

// fakeClock advances virtual time on Sleep instead of blocking.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	slept   []time.Duration
	onSleep func(n int) // called with the number of sleeps so far
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	n := len(c.slept)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (c *fakeClock) sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

// ---------------------------------------------------------------------------
// fakeSurface
// ---------------------------------------------------------------------------

// fakeSurface is an in-memory canvas.
type fakeSurface struct {
	key     string
	w, h    int
	pix     []byte
	snap    Snapshot
	readErr error
	snapErr error
	reads   int
}

// Compile-time interface check.
var _ Surface = (*fakeSurface)(nil)

func (s *fakeSurface) Key() string      { return s.key }
func (s *fakeSurface) Size() (int, int) { return s.w, s.h }

func (s *fakeSurface) ReadPixels(_ context.Context, dst []byte) error {
	s.reads++
	if s.readErr != nil {
		return s.readErr
	}
	copy(dst, s.pix)
	return nil
}

func (s *fakeSurface) Snapshot(context.Context) (Snapshot, error) {
	if s.snapErr != nil {
		return Snapshot{}, s.snapErr
	}
	return s.snap, nil
}

// solidSurface returns a w x h surface filled with one RGBA color.
func solidSurface(key string, w, h int, c color.RGBA) *fakeSurface {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return &fakeSurface{key: key, w: w, h: h, pix: pix, snap: NewSnapshot([]byte(key))}
}

// proberSurface answers the content test itself.
type proberSurface struct {
	fakeSurface
	content  bool
	probeErr error
	strides  []int
}

func (s *proberSurface) ProbeContent(_ context.Context, stride int) (bool, error) {
	s.strides = append(s.strides, stride)
	return s.content, s.probeErr
}

// ---------------------------------------------------------------------------
// fakeSource
// ---------------------------------------------------------------------------

// fakeSource answers Query from a fixed selector table.
type fakeSource struct {
	bySelector map[string][]Surface
	errs       map[string]error
	queries    []string
}

func (s *fakeSource) Query(_ context.Context, selector string) ([]Surface, error) {
	s.queries = append(s.queries, selector)
	if err := s.errs[selector]; err != nil {
		return nil, err
	}
	return s.bySelector[selector], nil
}

// ---------------------------------------------------------------------------
// fakeViewer
// ---------------------------------------------------------------------------

// fakeViewer simulates a paginated viewer. frame returns what the content
// canvas shows on the given 0-based page and 1-based poll within that page;
// a zero Snapshot means nothing is painted yet.
type fakeViewer struct {
	frame func(page, poll int) Snapshot
	next  func(page int) (bool, error) // nil advances forever

	page     int
	polls    int
	advances int
	closed   bool
	url      string
}

// Compile-time interface check.
var _ Viewer = (*fakeViewer)(nil)

func (v *fakeViewer) Query(_ context.Context, selector string) ([]Surface, error) {
	if selector != genericSurfaceSelector {
		return nil, nil
	}
	return []Surface{&viewerSurface{viewer: v}}, nil
}

func (v *fakeViewer) Advance(context.Context) (bool, error) {
	v.advances++
	if v.next != nil {
		ok, err := v.next(v.page)
		if err != nil || !ok {
			return ok, err
		}
	}
	v.page++
	v.polls = 0
	return true, nil
}

func (v *fakeViewer) URL() string { return v.url }

func (v *fakeViewer) Close() error {
	v.closed = true
	return nil
}

// viewerSurface is the fakeViewer's content canvas; each Snapshot is one poll.
type viewerSurface struct {
	viewer *fakeViewer
}

func (s *viewerSurface) Key() string      { return "canvas#0" }
func (s *viewerSurface) Size() (int, int) { return 400, 600 }

func (s *viewerSurface) ProbeContent(context.Context, int) (bool, error) {
	return true, nil
}

func (s *viewerSurface) ReadPixels(context.Context, []byte) error {
	return errors.New("not used")
}

func (s *viewerSurface) Snapshot(context.Context) (Snapshot, error) {
	v := s.viewer
	v.polls++
	snap := v.frame(v.page, v.polls)
	if snap.IsZero() {
		return Snapshot{}, ErrSurfaceRead
	}
	return snap, nil
}

// pagesUntil returns a next func that stops advancing on the given page.
func pagesUntil(last int) func(int) (bool, error) {
	return func(page int) (bool, error) {
		return page < last, nil
	}
}

// snap builds a Snapshot from a label; capture only compares bytes.
func snap(label string) Snapshot {
	return NewSnapshot([]byte(label))
}

// ---------------------------------------------------------------------------
// fakeComposer
// ---------------------------------------------------------------------------

type fakeComposer struct {
	pages  []Snapshot
	called bool
	out    []byte
	err    error
}

func (c *fakeComposer) Compose(_ context.Context, pages []Snapshot) ([]byte, error) {
	c.called = true
	c.pages = pages
	if c.err != nil {
		return nil, c.err
	}
	if c.out != nil {
		return c.out, nil
	}
	return []byte("%PDF-1.7 fake"), nil
}

// ---------------------------------------------------------------------------
// PNG helpers
// ---------------------------------------------------------------------------

// pngSnapshot encodes a w x h image of one color.
func pngSnapshot(t *testing.T, w, h int, c color.RGBA) Snapshot {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return NewSnapshot(buf.Bytes())
}

var (
	white       = color.RGBA{255, 255, 255, 255}
	red         = color.RGBA{255, 0, 0, 255}
	transparent = color.RGBA{}
)
