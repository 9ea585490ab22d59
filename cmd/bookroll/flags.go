package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// browserFlags holds flags for launching or reaching Chrome.
type browserFlags struct {
	driver      string
	remote      string
	bin         string
	headful     bool
	userDataDir string
	noStealth   bool
}

// tuningFlags holds capture loop tuning flags.
type tuningFlags struct {
	poll     string
	maxPolls int
	stable   int
	settle   string
	maxPages int
}

// composeFlags holds PDF composition flags.
type composeFlags struct {
	composer string
	paper    string
}

// captureFlags holds all flags for the capture command.
type captureFlags struct {
	common    commonFlags
	url       string
	output    string
	imagesDir string
	timeout   string
	wait      bool
	browser   browserFlags
	tuning    tuningFlags
	compose   composeFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-poll details")
}

// addBrowserFlags adds browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVar(&f.driver, "driver", "", "browser driver: rod, chromedp")
	fs.StringVar(&f.remote, "remote", "", "attach to a running Chrome (host:port or ws:// URL)")
	fs.StringVar(&f.bin, "browser-bin", "", "Chrome binary to launch")
	fs.BoolVar(&f.headful, "headful", false, "show the browser window")
	fs.StringVar(&f.userDataDir, "user-data-dir", "", "Chrome profile directory (keeps the viewer login)")
	fs.BoolVar(&f.noStealth, "no-stealth", false, "open tabs without anti-automation patches")
}

// addTuningFlags adds capture loop tuning flags to a FlagSet.
func addTuningFlags(fs *flag.FlagSet, f *tuningFlags) {
	fs.StringVar(&f.poll, "poll", "", "delay between polls (default 100ms)")
	fs.IntVar(&f.maxPolls, "max-polls", 0, "polls per page before giving up on stability (default 30)")
	fs.IntVar(&f.stable, "stable", 0, "identical polls needed to accept a page (default 5)")
	fs.StringVar(&f.settle, "settle", "", "wait after turning the page (default 500ms)")
	fs.IntVar(&f.maxPages, "max-pages", 0, "stop after this many pages (0 = all)")
}

// addComposeFlags adds composition flags to a FlagSet.
func addComposeFlags(fs *flag.FlagSet, f *composeFlags) {
	fs.StringVar(&f.composer, "composer", "", "PDF backend: chrome, pdfcpu")
	fs.StringVar(&f.paper, "paper", "", "paper size: a4, letter, legal")
}

// newCaptureFlagSet registers every capture flag on a new FlagSet.
// Shared by parsing and completion.
func newCaptureFlagSet(f *captureFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.SortFlags = false

	fs.StringVar(&f.url, "url", "", "viewer URL (or first positional argument)")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVar(&f.imagesDir, "images-dir", "", "also save every page as PNG here")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "bound the whole session (e.g., 10m)")
	fs.BoolVar(&f.wait, "wait", false, "wait for Enter before capturing (log in first)")

	addBrowserFlags(fs, &f.browser)
	addTuningFlags(fs, &f.tuning)
	addComposeFlags(fs, &f.compose)
	addCommonFlags(fs, &f.common)

	return fs
}

// parseCaptureFlags parses capture command flags and returns positional args.
// The FlagSet is returned so callers can tell set flags from defaults.
func parseCaptureFlags(args []string, usage io.Writer) (*captureFlags, *flag.FlagSet, error) {
	f := &captureFlags{}
	fs := newCaptureFlagSet(f)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { printCaptureUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return f, fs, nil
}
