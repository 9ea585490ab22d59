package bookroll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alnah/go-bookroll/internal/assets"
)

// driver opens viewer pages and prints composed documents on one browser.
type driver interface {
	OpenViewer(ctx context.Context, url string) (Viewer, error)
	Printer() Printer
	Close() error
}

// Result is the outcome of a capture session.
// Pages is populated even when composition fails.
type Result struct {
	Pages    []Snapshot
	PDF      []byte    // nil when no pages were captured
	Filename string    // suggested file name for PDF
	End      EndReason // why pagination stopped
}

// Service owns one browser connection and runs at most one capture
// session at a time. Create with New, call Open, then Capture, and Close
// when done.
type Service struct {
	cfg    serviceConfig
	logger *slog.Logger
	clock  Clock
	onPage func(PageEvent)

	drv      driver
	viewer   Viewer
	composer Composer
	template string

	mu     sync.Mutex
	active bool
}

// New creates a Service. Settings are validated here; no browser is
// started until Open.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    defaultServiceConfig(),
		logger: discardLogger(),
		clock:  SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.cfg.validate(); err != nil {
		return nil, err
	}

	loader, err := assets.NewAssetResolver(s.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	scripts, err := assets.LoadScripts(loader)
	if err != nil {
		return nil, err
	}
	if s.cfg.composerName == ComposerChrome {
		s.template, err = loader.LoadTemplate(assets.TemplateDocument)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrComposerUnavailable, err)
		}
	}

	if s.drv == nil {
		switch s.cfg.driverName {
		case DriverChromedp:
			s.drv = newChromedpDriver(s.cfg.browser, scripts, s.cfg.pager, s.logger)
		default:
			s.drv = newRodDriver(s.cfg.browser, scripts, s.cfg.pager, s.logger)
		}
	}
	return s, nil
}

// Open attaches to the viewer page and makes sure the composer can run.
// With a URL the viewer is opened (or found among a remote browser's
// tabs); without one the first regular tab of a remote browser is used.
func (s *Service) Open(ctx context.Context, url string) error {
	if s.viewer == nil {
		v, err := s.drv.OpenViewer(ctx, url)
		if err != nil {
			return err
		}
		s.viewer = v
	}
	if s.composer == nil {
		c, err := s.buildComposer()
		if err != nil {
			return err
		}
		s.composer = c
	}
	return nil
}

// buildComposer creates the configured composition backend.
func (s *Service) buildComposer() (Composer, error) {
	switch s.cfg.composerName {
	case ComposerPDFCPU:
		return NewPDFCPUComposer(s.cfg.compose, s.logger), nil
	case ComposerChrome:
		return NewChromeComposer(s.drv.Printer(), s.template, s.cfg.compose, s.logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrComposerUnavailable, s.cfg.composerName)
}

// Capture runs one capture session on the open viewer.
// The result carries every captured page even when err is non-nil.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (s *Service) Capture(ctx context.Context) (result *Result, err error) {
	if !s.begin() {
		return nil, ErrSessionActive
	}
	defer s.finish()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if s.viewer == nil {
		return nil, ErrViewerNotOpen
	}

	capturer := NewCapturer(CapturerConfig{
		Locator:  NewLocator(s.viewer, s.cfg.locator, s.logger),
		Pager:    s.viewer,
		Clock:    s.clock,
		Composer: s.composer,
		Settings: s.cfg.capture,
		Logger:   s.logger,
		OnPage:   s.onPage,
	})

	sess, runErr := capturer.Run(ctx)
	result = &Result{Pages: sess.Pages, PDF: sess.Document, End: sess.End}
	if len(sess.Document) > 0 {
		result.Filename = OutputName(s.cfg.outputPrefix, s.clock.Now())
	}
	return result, runErr
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	return true
}

func (s *Service) finish() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// ViewerURL returns the address of the open viewer, or "" before Open.
func (s *Service) ViewerURL() string {
	if s.viewer == nil {
		return ""
	}
	return s.viewer.URL()
}

// Close releases the viewer tab and the browser.
func (s *Service) Close() error {
	var firstErr error
	if s.viewer != nil {
		firstErr = s.viewer.Close()
		s.viewer = nil
	}
	if s.drv != nil {
		if err := s.drv.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
