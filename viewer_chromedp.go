package bookroll

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-bookroll/internal/assets"
)

// chromedpEvaluator evaluates scripts in a chromedp tab.
type chromedpEvaluator struct {
	tab context.Context
}

// Eval runs the script in the tab context, cancelled early when ctx is.
func (e chromedpEvaluator) Eval(ctx context.Context, script string, out any, args ...any) error {
	if args == nil {
		args = []any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encoding script arguments: %w", err)
	}
	expr := "(" + strings.TrimSpace(script) + ").apply(null, " + string(encoded) + ")"

	runCtx, cancel := context.WithCancel(e.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, out)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// chromedpDriver drives the viewer with chromedp and prints with cdproto.
type chromedpDriver struct {
	opts    BrowserOptions
	scripts *assets.Scripts
	pager   PagerSettings
	logger  *slog.Logger

	mu            sync.Mutex
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// Compile-time interface checks.
var (
	_ driver  = (*chromedpDriver)(nil)
	_ Printer = (*chromedpDriver)(nil)
)

func newChromedpDriver(opts BrowserOptions, scripts *assets.Scripts, pager PagerSettings, logger *slog.Logger) *chromedpDriver {
	return &chromedpDriver{opts: opts, scripts: scripts, pager: pager, logger: logger}
}

// ensureBrowser allocates the browser on first use.
func (d *chromedpDriver) ensureBrowser() (context.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browserCtx != nil {
		return d.browserCtx, nil
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if d.opts.RemoteURL != "" {
		u, err := launcher.ResolveURL(d.opts.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving %s: %v", ErrBrowserConnect, d.opts.RemoteURL, err)
		}
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), u, chromedp.NoModifyURL)
		d.logger.Info("connecting to running browser", "url", u)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], d.execOptions()...)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			d.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	d.allocCtx = allocCtx
	d.allocCancel = allocCancel
	d.browserCtx = browserCtx
	d.browserCancel = browserCancel
	return browserCtx, nil
}

// execOptions maps BrowserOptions onto exec allocator options.
func (d *chromedpDriver) execOptions() []chromedp.ExecAllocatorOption {
	var opts []chromedp.ExecAllocatorOption
	if bin := d.opts.binary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	if d.opts.Headful {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if d.opts.noSandbox() {
		opts = append(opts, chromedp.NoSandbox)
	}
	if d.opts.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(d.opts.UserDataDir))
	}
	if !d.opts.NoStealth {
		opts = append(opts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	}
	return opts
}

func (d *chromedpDriver) OpenViewer(ctx context.Context, url string) (Viewer, error) {
	browserCtx, err := d.ensureBrowser()
	if err != nil {
		return nil, err
	}

	if d.opts.RemoteURL != "" {
		info, err := d.findTab(ctx, browserCtx, url)
		if err != nil {
			return nil, err
		}
		if info != nil {
			return d.attachViewer(ctx, info)
		}
	}
	if url == "" {
		return nil, fmt.Errorf("%w: no viewer URL given and no open tab found", ErrNoViewerPage)
	}

	// The first Run creates the tab and binds its event loop to the
	// context it is given, so it must not carry the load timeout.
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	loadCtx, loadCancel := context.WithTimeout(tabCtx, d.opts.pageTimeout())
	defer loadCancel()
	stop := context.AfterFunc(ctx, loadCancel)
	defer stop()

	if err := chromedp.Run(loadCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		tabCancel()
		return nil, fmt.Errorf("%w: navigating to %s: %v", ErrPageLoad, url, err)
	}
	d.logger.Info("opened viewer", "url", url)

	return &scriptViewer{
		eval:    chromedpEvaluator{tab: tabCtx},
		scripts: d.scripts,
		pager:   d.pager,
		url:     url,
		close: func() error {
			tabCancel()
			return nil
		},
	}, nil
}

// attachViewer drives an existing tab of a remote browser. The tab gets its
// own top-level context: chromedp closes the target of a child context when
// it is cancelled, but leaves a top-level one open.
func (d *chromedpDriver) attachViewer(ctx context.Context, info *target.Info) (Viewer, error) {
	d.mu.Lock()
	allocCtx := d.allocCtx
	d.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithTargetID(info.TargetID))
	attachCtx, attachCancel := context.WithTimeout(ctx, d.opts.pageTimeout())
	defer attachCancel()
	stop := context.AfterFunc(attachCtx, tabCancel)
	defer stop()
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("%w: attaching to %s: %v", ErrBrowserConnect, info.URL, err)
	}
	d.logger.Info("attached to viewer tab", "target", string(info.TargetID), "url", info.URL)

	return &scriptViewer{
		eval:    chromedpEvaluator{tab: tabCtx},
		scripts: d.scripts,
		pager:   d.pager,
		url:     info.URL,
		close: func() error {
			tabCancel()
			return nil
		},
	}, nil
}

// findTab returns the first regular page target whose URL contains match,
// or nil when none does.
func (d *chromedpDriver) findTab(ctx context.Context, browserCtx context.Context, match string) (*target.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tabs: %v", ErrBrowserConnect, err)
	}
	return pickTab(targets, match), nil
}

// pickTab selects the viewer tab among the browser's targets.
func pickTab(targets []*target.Info, match string) *target.Info {
	for _, t := range targets {
		if t.Type != "page" || !isRegularTab(t.URL) {
			continue
		}
		if match == "" || strings.Contains(t.URL, match) {
			return t
		}
	}
	return nil
}

// PrintFile opens the file in a new tab and prints it with Page.printToPDF.
func (d *chromedpDriver) PrintFile(ctx context.Context, path string, width, height float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browserCtx, err := d.ensureBrowser()
	if err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()
	runCtx, cancel := context.WithTimeout(tabCtx, d.opts.pageTimeout())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+path),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(width / pointsPerInch).
				WithPaperHeight(height / pointsPerInch).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

func (d *chromedpDriver) Printer() Printer {
	return d
}

// Close stops a launched browser. A remote browser is left running; only
// the connection to it is dropped.
func (d *chromedpDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browserCtx == nil {
		return nil
	}
	var err error
	if d.opts.RemoteURL == "" {
		err = chromedp.Cancel(d.browserCtx)
	}
	d.browserCancel()
	d.allocCancel()
	d.allocCtx, d.browserCtx = nil, nil
	d.browserCancel, d.allocCancel = nil, nil
	return err
}
