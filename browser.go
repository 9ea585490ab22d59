package bookroll

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/alnah/go-bookroll/internal/process"
)

// Browser drivers.
const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
)

// DefaultDriver is the driver used when none is configured.
const DefaultDriver = DriverRod

// DefaultPageTimeout bounds navigation and page loads.
const DefaultPageTimeout = 30 * time.Second

// BrowserOptions configures how the viewer browser is reached.
type BrowserOptions struct {
	// RemoteURL is the DevTools endpoint of an already running Chrome
	// (ws://, http:// or host:port). Empty launches a new browser.
	RemoteURL string

	// Bin is the Chrome binary to launch. Empty uses ROD_BROWSER_BIN or
	// lets the driver find or download one.
	Bin string

	Headful     bool   // show the browser window
	UserDataDir string // profile directory, keeps viewer logins between runs
	NoSandbox   bool   // forced on in CI and containers
	NoStealth   bool   // open tabs without anti-automation patches
	PageTimeout time.Duration
}

// pageTimeout returns the configured page timeout or the default.
func (o BrowserOptions) pageTimeout() time.Duration {
	if o.PageTimeout > 0 {
		return o.PageTimeout
	}
	return DefaultPageTimeout
}

// binary returns the browser binary to launch, if any.
func (o BrowserOptions) binary() string {
	if o.Bin != "" {
		return o.Bin
	}
	return os.Getenv("ROD_BROWSER_BIN")
}

// noSandbox reports whether the sandbox must be disabled.
func (o BrowserOptions) noSandbox() bool {
	return o.NoSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != ""
}

// rodBrowser owns a rod connection, launching Chrome lazily when no
// remote endpoint is configured.
type rodBrowser struct {
	opts   BrowserOptions
	logger *slog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// Compile-time interface check.
var _ Printer = (*rodBrowser)(nil)

func newRodBrowser(opts BrowserOptions, logger *slog.Logger) *rodBrowser {
	return &rodBrowser{opts: opts, logger: logger}
}

// ensureBrowser lazily connects to the browser.
func (r *rodBrowser) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	var u string
	if r.opts.RemoteURL != "" {
		resolved, err := launcher.ResolveURL(r.opts.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving %s: %v", ErrBrowserConnect, r.opts.RemoteURL, err)
		}
		u = resolved
		r.logger.Info("connecting to running browser", "url", u)
	} else {
		l := launcher.New().Headless(!r.opts.Headful)
		if bin := r.opts.binary(); bin != "" {
			l = l.Bin(bin)
		}
		if r.opts.noSandbox() {
			l = l.NoSandbox(true)
		}
		if r.opts.UserDataDir != "" {
			l = l.UserDataDir(r.opts.UserDataDir)
		}
		if !r.opts.NoStealth {
			l = l.Set("disable-blink-features", "AutomationControlled")
		}

		launched, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
		}
		u = launched
		r.launcher = l
		r.logger.Info("launched browser", "headful", r.opts.Headful, "pid", l.PID())
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		r.killLauncher()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.browser = b
	return b, nil
}

// launched reports whether this process started the browser.
func (r *rodBrowser) launched() bool {
	return r.opts.RemoteURL == ""
}

// Close disconnects, and stops the browser if it was launched here.
// A remote browser is left running.
func (r *rodBrowser) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		if r.launched() {
			err = r.browser.Close()
		}
		r.browser = nil
	}
	r.killLauncher()
	return err
}

// killLauncher stops a launched browser and its helpers.
func (r *rodBrowser) killLauncher() {
	if r.launcher == nil {
		return
	}
	if pid := r.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	r.launcher.Kill()
	// Cleanup deletes the profile directory; a user profile is kept.
	if r.opts.UserDataDir == "" {
		r.launcher.Cleanup()
	}
	r.launcher = nil
}

// newTab opens a blank tab, with stealth patches unless disabled.
func (r *rodBrowser) newTab(b *rod.Browser) (*rod.Page, error) {
	if r.opts.NoStealth {
		return b.Page(proto.TargetCreateTarget{URL: ""})
	}
	return stealth.Page(b)
}

// openViewer returns the tab showing the viewer and whether it was opened here.
//
// With a URL, a remote browser is first searched for a tab already showing
// it; otherwise a new tab navigates there. Without a URL, the first regular
// tab of a remote browser is used.
func (r *rodBrowser) openViewer(ctx context.Context, url string) (*rod.Page, bool, error) {
	b, err := r.ensureBrowser()
	if err != nil {
		return nil, false, err
	}

	if !r.launched() {
		page, err := r.findTab(b, url)
		if err != nil {
			return nil, false, err
		}
		if page != nil {
			r.logger.Info("attached to viewer tab", "url", tabURL(page))
			return page, false, nil
		}
	}
	if url == "" {
		return nil, false, fmt.Errorf("%w: no viewer URL given and no open tab found", ErrNoViewerPage)
	}

	page, err := r.newTab(b)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	timeout := r.opts.pageTimeout()
	if err := page.Context(ctx).Timeout(timeout).Navigate(url); err != nil {
		_ = page.Close()
		return nil, false, fmt.Errorf("%w: navigating to %s: %v", ErrPageLoad, url, err)
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, false, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	r.logger.Info("opened viewer", "url", url)
	return page, true, nil
}

// findTab returns the first regular tab whose URL contains match
// (any regular tab when match is empty), or nil.
func (r *rodBrowser) findTab(b *rod.Browser, match string) (*rod.Page, error) {
	pages, err := b.Pages()
	if err != nil {
		return nil, fmt.Errorf("%w: listing tabs: %v", ErrBrowserConnect, err)
	}
	for _, p := range pages {
		u := tabURL(p)
		if !isRegularTab(u) {
			continue
		}
		if match == "" || strings.Contains(u, match) {
			return p, nil
		}
	}
	return nil, nil
}

func tabURL(p *rod.Page) string {
	info, err := p.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// isRegularTab excludes blank, internal and extension pages.
func isRegularTab(u string) bool {
	if u == "" || u == "about:blank" {
		return false
	}
	for _, prefix := range []string{"chrome://", "chrome-extension://", "devtools://", "chrome-untrusted://"} {
		if strings.HasPrefix(u, prefix) {
			return false
		}
	}
	return true
}

// PrintFile opens a local HTML file in a new tab and prints it to PDF.
func (r *rodBrowser) PrintFile(ctx context.Context, path string, width, height float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	if err := page.Context(ctx).Timeout(r.opts.pageTimeout()).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := page.Context(ctx).PDF(printOptions(width, height))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// pointsPerInch converts PDF points to the inches PrintToPDF expects.
const pointsPerInch = 72.0

// printOptions builds borderless PrintToPDF options for the page size.
func printOptions(width, height float64) *proto.PagePrintToPDF {
	zero := 0.0
	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(width / pointsPerInch),
		PaperHeight:       floatPtr(height / pointsPerInch),
		MarginTop:         &zero,
		MarginBottom:      &zero,
		MarginLeft:        &zero,
		MarginRight:       &zero,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
