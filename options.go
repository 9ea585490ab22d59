package bookroll

import (
	"fmt"
	"log/slog"
)

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	browser      BrowserOptions
	driverName   string
	composerName string
	capture      CaptureSettings
	locator      LocatorSettings
	pager        PagerSettings
	compose      ComposeSettings
	assetPath    string
	outputPrefix string
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		driverName:   DefaultDriver,
		composerName: DefaultComposer,
		capture:      DefaultCaptureSettings(),
		locator:      DefaultLocatorSettings(),
		pager:        DefaultPagerSettings(),
		compose:      DefaultComposeSettings(),
		outputPrefix: DefaultOutputPrefix,
	}
}

func (c serviceConfig) validate() error {
	switch c.driverName {
	case DriverRod, DriverChromedp:
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidDriver, c.driverName, DriverRod, DriverChromedp)
	}
	switch c.composerName {
	case ComposerChrome, ComposerPDFCPU:
	default:
		return fmt.Errorf("%w: %q (must be %s or %s)", ErrInvalidComposer, c.composerName, ComposerChrome, ComposerPDFCPU)
	}
	if err := c.capture.Validate(); err != nil {
		return err
	}
	if err := c.locator.Validate(); err != nil {
		return err
	}
	return c.pager.Validate()
}

// WithLogger sets the structured logger. Nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithOnPage registers a hook called after each accepted page.
func WithOnPage(fn func(PageEvent)) Option {
	return func(s *Service) {
		s.onPage = fn
	}
}

// WithBrowser sets how the browser is launched or reached.
func WithBrowser(opts BrowserOptions) Option {
	return func(s *Service) {
		s.cfg.browser = opts
	}
}

// WithDriver selects the browser driver (DriverRod or DriverChromedp).
func WithDriver(name string) Option {
	return func(s *Service) {
		s.cfg.driverName = name
	}
}

// WithComposerBackend selects the composition backend (ComposerChrome or ComposerPDFCPU).
func WithComposerBackend(name string) Option {
	return func(s *Service) {
		s.cfg.composerName = name
	}
}

// WithCaptureSettings overrides the capture loop tuning.
func WithCaptureSettings(cs CaptureSettings) Option {
	return func(s *Service) {
		s.cfg.capture = cs
	}
}

// WithLocatorSettings overrides where surfaces are looked for.
func WithLocatorSettings(ls LocatorSettings) Option {
	return func(s *Service) {
		s.cfg.locator = ls
	}
}

// WithPagerSettings overrides the next-page control.
func WithPagerSettings(ps PagerSettings) Option {
	return func(s *Service) {
		s.cfg.pager = ps
	}
}

// WithComposeSettings overrides paper and decode settings.
func WithComposeSettings(cs ComposeSettings) Option {
	return func(s *Service) {
		s.cfg.compose = cs
	}
}

// WithAssetPath loads scripts and templates from dir, falling back to the
// built-in copies for anything missing there.
func WithAssetPath(dir string) Option {
	return func(s *Service) {
		s.cfg.assetPath = dir
	}
}

// WithOutputPrefix sets the prefix of Result.Filename.
func WithOutputPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.cfg.outputPrefix = prefix
		}
	}
}

// WithViewer supplies an already open viewer; Open then skips the browser.
func WithViewer(v Viewer) Option {
	return func(s *Service) {
		s.viewer = v
	}
}

// WithComposer supplies a composer, bypassing the configured backend.
func WithComposer(c Composer) Option {
	return func(s *Service) {
		s.composer = c
	}
}
