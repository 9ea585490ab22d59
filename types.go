package bookroll

import (
	"fmt"
	"strings"
	"time"
)

// Default capture tuning. These are heuristics: a page is accepted after
// DefaultStableThreshold identical polls, and a page window spans
// DefaultMaxPolls polls of DefaultPollInterval each.
const (
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultMaxPolls        = 30
	DefaultStableThreshold = 5
	DefaultSettleDelay     = 500 * time.Millisecond
	DefaultSampleStride    = 10
	DefaultMinSurfaceSize  = 100
	DefaultDecodeTimeout   = 5 * time.Second
)

// Default viewer selectors for the BookRoll reader.
const (
	DefaultWrapperSelector = ".canvas-wrapper canvas"
	DefaultNextSelector    = ".next-btn"
	DefaultDisabledClass   = "v-btn--disabled"
)

// DefaultSurfaceSelectors lists the viewer-specific canvas selectors,
// highest priority first.
var DefaultSurfaceSelectors = []string{
	"canvas.hyperlink-canvas",
	"canvas[data-v-53c53034]",
}

// Bounds for user-supplied settings.
const (
	MinPollInterval = 10 * time.Millisecond
	MaxPollInterval = 10 * time.Second
	MaxMaxPolls     = 10000
	MaxSettleDelay  = time.Minute
	MaxSampleStride = 1000
)

// CaptureSettings tunes the capture loop.
type CaptureSettings struct {
	PollInterval    time.Duration // delay between polls
	MaxPolls        int           // polls per page before timeout resolution
	StableThreshold int           // consecutive identical polls to accept a page
	SettleDelay     time.Duration // wait after activating the next control
	MaxPages        int           // 0 = unlimited
}

// DefaultCaptureSettings returns the documented defaults.
func DefaultCaptureSettings() CaptureSettings {
	return CaptureSettings{
		PollInterval:    DefaultPollInterval,
		MaxPolls:        DefaultMaxPolls,
		StableThreshold: DefaultStableThreshold,
		SettleDelay:     DefaultSettleDelay,
	}
}

// withDefaults fills the zero polling fields from DefaultCaptureSettings.
// SettleDelay and MaxPages keep an explicit zero unless every field is zero.
func (s CaptureSettings) withDefaults() CaptureSettings {
	d := DefaultCaptureSettings()
	if s == (CaptureSettings{}) {
		return d
	}
	if s.PollInterval == 0 {
		s.PollInterval = d.PollInterval
	}
	if s.MaxPolls == 0 {
		s.MaxPolls = d.MaxPolls
	}
	if s.StableThreshold == 0 {
		s.StableThreshold = d.StableThreshold
	}
	return s
}

// Validate checks that settings are in range.
func (s CaptureSettings) Validate() error {
	if s.PollInterval < MinPollInterval || s.PollInterval > MaxPollInterval {
		return fmt.Errorf("%w: poll interval %v (must be between %v and %v)",
			ErrInvalidSettings, s.PollInterval, MinPollInterval, MaxPollInterval)
	}
	if s.MaxPolls < 1 || s.MaxPolls > MaxMaxPolls {
		return fmt.Errorf("%w: max polls %d (must be between 1 and %d)", ErrInvalidSettings, s.MaxPolls, MaxMaxPolls)
	}
	if s.StableThreshold < 1 || s.StableThreshold >= s.MaxPolls {
		return fmt.Errorf("%w: stable threshold %d (must be between 1 and max polls - 1)", ErrInvalidSettings, s.StableThreshold)
	}
	if s.SettleDelay < 0 || s.SettleDelay > MaxSettleDelay {
		return fmt.Errorf("%w: settle delay %v (must be between 0 and %v)", ErrInvalidSettings, s.SettleDelay, MaxSettleDelay)
	}
	if s.MaxPages < 0 {
		return fmt.Errorf("%w: max pages %d (must not be negative)", ErrInvalidSettings, s.MaxPages)
	}
	return nil
}

// LocatorSettings tells the Locator where the viewer keeps its canvases.
type LocatorSettings struct {
	SurfaceSelectors []string // viewer-specific selectors, highest priority first
	WrapperSelector  string   // canvas inside the viewer's wrapper container
	MinSurfaceSize   int      // generic canvases must exceed this in both dimensions
	SampleStride     int      // inspect every n-th pixel
}

// DefaultLocatorSettings returns settings for the BookRoll reader.
func DefaultLocatorSettings() LocatorSettings {
	return LocatorSettings{
		SurfaceSelectors: append([]string(nil), DefaultSurfaceSelectors...),
		WrapperSelector:  DefaultWrapperSelector,
		MinSurfaceSize:   DefaultMinSurfaceSize,
		SampleStride:     DefaultSampleStride,
	}
}

// Validate checks that settings are usable.
func (s LocatorSettings) Validate() error {
	if s.MinSurfaceSize < 0 {
		return fmt.Errorf("%w: min surface size %d (must not be negative)", ErrInvalidSettings, s.MinSurfaceSize)
	}
	if s.SampleStride < 1 || s.SampleStride > MaxSampleStride {
		return fmt.Errorf("%w: sample stride %d (must be between 1 and %d)", ErrInvalidSettings, s.SampleStride, MaxSampleStride)
	}
	for _, sel := range s.SurfaceSelectors {
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("%w: empty surface selector", ErrInvalidSettings)
		}
	}
	return nil
}

// PagerSettings describes the viewer's next-page control.
type PagerSettings struct {
	NextSelector  string // control to click
	DisabledClass string // class marking the control as disabled (optional)
}

// DefaultPagerSettings returns settings for the BookRoll reader.
func DefaultPagerSettings() PagerSettings {
	return PagerSettings{
		NextSelector:  DefaultNextSelector,
		DisabledClass: DefaultDisabledClass,
	}
}

// Validate checks that a next selector is present.
func (s PagerSettings) Validate() error {
	if strings.TrimSpace(s.NextSelector) == "" {
		return fmt.Errorf("%w: next selector is required", ErrInvalidSettings)
	}
	return nil
}
