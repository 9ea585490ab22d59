package bookroll

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/alnah/go-bookroll/internal/assets"
)

// rodEvaluator evaluates scripts on a rod page.
type rodEvaluator struct {
	page *rod.Page
}

func (e rodEvaluator) Eval(ctx context.Context, script string, out any, args ...any) error {
	res, err := e.page.Context(ctx).Eval(script, args...)
	if err != nil {
		return err
	}
	return res.Value.Unmarshal(out)
}

// rodDriver drives the viewer with go-rod and prints with the same browser.
type rodDriver struct {
	browser *rodBrowser
	scripts *assets.Scripts
	pager   PagerSettings
}

// Compile-time interface check.
var _ driver = (*rodDriver)(nil)

func newRodDriver(opts BrowserOptions, scripts *assets.Scripts, pager PagerSettings, logger *slog.Logger) *rodDriver {
	return &rodDriver{
		browser: newRodBrowser(opts, logger),
		scripts: scripts,
		pager:   pager,
	}
}

func (d *rodDriver) OpenViewer(ctx context.Context, url string) (Viewer, error) {
	page, owned, err := d.browser.openViewer(ctx, url)
	if err != nil {
		return nil, err
	}
	v := &scriptViewer{
		eval:    rodEvaluator{page: page},
		scripts: d.scripts,
		pager:   d.pager,
		url:     tabURL(page),
	}
	if owned {
		v.close = page.Close
	}
	return v, nil
}

func (d *rodDriver) Printer() Printer {
	return d.browser
}

func (d *rodDriver) Close() error {
	return d.browser.Close()
}
