package bookroll

import (
	"context"
	"fmt"
	"log/slog"
)

// State is a capture session state.
type State int

// Capture session states.
const (
	StateAwaitingStableFrame State = iota
	StatePageAccepted
	StateAwaitingTransition
	StateTerminalSuccess
	StateTerminalFailure
)

func (s State) String() string {
	switch s {
	case StateAwaitingStableFrame:
		return "awaiting-stable-frame"
	case StatePageAccepted:
		return "page-accepted"
	case StateAwaitingTransition:
		return "awaiting-transition"
	case StateTerminalSuccess:
		return "success"
	case StateTerminalFailure:
		return "failure"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EndReason records why a session stopped paginating.
type EndReason int

// End-of-document reasons.
const (
	EndNone             EndReason = iota
	EndUnchanged                  // content never moved off the previous page
	EndNoNextControl              // next control absent or disabled
	EndNextControlError           // activating the next control failed
	EndMaxPages                   // MaxPages reached
)

func (r EndReason) String() string {
	switch r {
	case EndNone:
		return "none"
	case EndUnchanged:
		return "content unchanged after advancing"
	case EndNoNextControl:
		return "next control unavailable"
	case EndNextControlError:
		return "next control failed"
	case EndMaxPages:
		return "page limit reached"
	}
	return fmt.Sprintf("EndReason(%d)", int(r))
}

// Session is the state of one document capture.
// While polling, Page == len(Pages)+1.
type Session struct {
	Pages    []Snapshot // accepted pages, in order
	Page     int        // page currently being captured (1-based)
	State    State
	End      EndReason
	Document []byte // composed output, set on success when a Composer is configured
	Err      error  // set on StateTerminalFailure

	previous Snapshot // most recently accepted page
	lastSeen Snapshot // last snapshot seen during the current poll window
	stable   int      // consecutive polls equal to lastSeen
}

// PageEvent reports an accepted page.
type PageEvent struct {
	Page   int  // 1-based page number
	Polls  int  // polls spent in the window
	Stable bool // false when accepted on timeout without stabilizing
	Bytes  int  // encoded snapshot size
}

// Composer turns the accepted pages into one output document.
type Composer interface {
	Compose(ctx context.Context, pages []Snapshot) ([]byte, error)
}

// CapturerConfig wires a Capturer.
type CapturerConfig struct {
	Locator  *Locator
	Pager    Pager
	Clock    Clock           // nil = SystemClock
	Composer Composer        // nil = skip composition
	Settings CaptureSettings // zero fields take DefaultCaptureSettings values
	Logger   *slog.Logger
	OnPage   func(PageEvent) // optional progress hook
}

// Capturer runs the pagination state machine.
type Capturer struct {
	locator  *Locator
	pager    Pager
	clock    Clock
	composer Composer
	settings CaptureSettings
	logger   *slog.Logger
	onPage   func(PageEvent)
}

// NewCapturer creates a Capturer from cfg, filling unset fields with defaults.
func NewCapturer(cfg CapturerConfig) *Capturer {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	cfg.Settings = cfg.Settings.withDefaults()
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return &Capturer{
		locator:  cfg.Locator,
		pager:    cfg.Pager,
		clock:    cfg.Clock,
		composer: cfg.Composer,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		onPage:   cfg.OnPage,
	}
}

// pollOutcome is the result of one page window.
type pollOutcome struct {
	snap   Snapshot
	polls  int
	stable bool
	end    EndReason
}

// Run captures pages until the document ends, then composes them.
// The returned session is never nil; on failure it carries the pages
// accepted so far and the error is also stored in Session.Err.
func (c *Capturer) Run(ctx context.Context) (*Session, error) {
	sess := &Session{Page: 1, State: StateAwaitingStableFrame}
	if err := c.settings.Validate(); err != nil {
		return c.fail(sess, err)
	}

	for {
		c.logger.Info("capturing page", "page", sess.Page)

		out, err := c.awaitStableFrame(ctx, sess)
		if err != nil {
			return c.fail(sess, err)
		}
		if out.end != EndNone {
			sess.End = out.end
			break
		}

		c.accept(sess, out)

		if c.settings.MaxPages > 0 && len(sess.Pages) >= c.settings.MaxPages {
			sess.End = EndMaxPages
			break
		}

		sess.State = StateAwaitingTransition
		advanced, err := c.pager.Advance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.fail(sess, ctx.Err())
			}
			c.logger.Warn("next control failed, treating as end of document", "page", sess.Page-1, "error", err)
			sess.End = EndNextControlError
			break
		}
		if !advanced {
			sess.End = EndNoNextControl
			break
		}
		if err := c.clock.Sleep(ctx, c.settings.SettleDelay); err != nil {
			return c.fail(sess, err)
		}
		sess.State = StateAwaitingStableFrame
	}

	c.logger.Info("reached end of document", "pages", len(sess.Pages), "reason", sess.End.String())
	return c.finalize(ctx, sess)
}

// awaitStableFrame polls until the current page stabilizes, resolves the
// window on timeout, or detects the end of the document.
func (c *Capturer) awaitStableFrame(ctx context.Context, sess *Session) (pollOutcome, error) {
	sess.stable = 0
	sess.lastSeen = Snapshot{}
	seen := false

	polls := 0
	for polls < c.settings.MaxPolls {
		if err := ctx.Err(); err != nil {
			return pollOutcome{}, err
		}
		polls++

		if snap, ok := c.poll(ctx, sess.Page); ok {
			seen = true
			switch {
			case sess.previous.IsZero() || !snap.Equal(sess.previous):
				if !sess.lastSeen.IsZero() && snap.Equal(sess.lastSeen) {
					sess.stable++
					if sess.stable >= c.settings.StableThreshold {
						return pollOutcome{snap: snap, polls: polls, stable: true}, nil
					}
				} else {
					sess.stable = 0
					sess.lastSeen = snap
				}
			default:
				// The advance has not been painted yet.
				sess.stable = 0
			}
		}

		if err := c.clock.Sleep(ctx, c.settings.PollInterval); err != nil {
			return pollOutcome{}, err
		}
	}

	switch {
	case !sess.lastSeen.IsZero():
		c.logger.Warn("accepting unstable page", "page", sess.Page, "polls", polls, "reason", ErrStabilizationTimeout)
		return pollOutcome{snap: sess.lastSeen, polls: polls}, nil
	case seen && !sess.previous.IsZero():
		return pollOutcome{polls: polls, end: EndUnchanged}, nil
	default:
		return pollOutcome{}, fmt.Errorf("%w: page %d after %d polls", ErrNoSurfaceFound, sess.Page, polls)
	}
}

// poll locates the content surface and snapshots it. Errors are absorbed.
func (c *Capturer) poll(ctx context.Context, page int) (Snapshot, bool) {
	s, err := c.locator.Locate(ctx)
	if err != nil {
		c.logger.Debug("locate failed", "page", page, "error", err)
		return Snapshot{}, false
	}
	if s == nil {
		return Snapshot{}, false
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		c.logger.Debug("snapshot failed", "page", page, "surface", s.Key(), "error", err)
		return Snapshot{}, false
	}
	return snap, true
}

func (c *Capturer) accept(sess *Session, out pollOutcome) {
	sess.State = StatePageAccepted
	sess.Pages = append(sess.Pages, out.snap)
	sess.previous = out.snap
	sess.lastSeen = Snapshot{}
	sess.stable = 0

	c.logger.Info("page captured", "page", sess.Page, "polls", out.polls, "stable", out.stable, "bytes", out.snap.Len())
	if c.onPage != nil {
		c.onPage(PageEvent{Page: sess.Page, Polls: out.polls, Stable: out.stable, Bytes: out.snap.Len()})
	}
	sess.Page++
}

func (c *Capturer) finalize(ctx context.Context, sess *Session) (*Session, error) {
	if len(sess.Pages) == 0 || c.composer == nil {
		sess.State = StateTerminalSuccess
		return sess, nil
	}
	doc, err := c.composer.Compose(ctx, sess.Pages)
	if err != nil {
		return c.fail(sess, fmt.Errorf("composing %d pages: %w", len(sess.Pages), err))
	}
	sess.Document = doc
	sess.State = StateTerminalSuccess
	return sess, nil
}

func (c *Capturer) fail(sess *Session, err error) (*Session, error) {
	sess.State = StateTerminalFailure
	sess.Err = err
	c.logger.Error("capture failed", "page", sess.Page, "pages", len(sess.Pages), "error", err)
	return sess, err
}
