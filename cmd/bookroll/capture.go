package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	bookroll "github.com/alnah/go-bookroll"
	"github.com/alnah/go-bookroll/internal/config"
	"github.com/alnah/go-bookroll/internal/fileutil"
	"github.com/alnah/go-bookroll/internal/hints"
	flag "github.com/spf13/pflag"
)

// Sentinel errors for CLI operations.
var (
	ErrNoURL      = errors.New("no viewer URL given (pass a URL, --url, or --remote)")
	ErrInvalidURL = errors.New("viewer URL must start with http:// or https://")
	ErrWritePDF   = errors.New("failed to write PDF file")
	ErrWritePages = errors.New("failed to write page images")
	ErrUsage      = errors.New("invalid arguments")
)

// File permission constants.
const (
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// pagesDirSuffix names the directory that receives the raw pages when the
// PDF could not be built.
const pagesDirSuffix = "_pages"

// captureRun is everything resolved from flags, env and config before the
// browser starts.
type captureRun struct {
	url       string
	remote    string
	outputDir string
	imagesDir string
	prefix    string
	timeout   time.Duration
	wait      bool
	quiet     bool
	verbose   bool
	options   []bookroll.Option
}

// runCapture executes the capture command.
func runCapture(ctx context.Context, args []string, env *Environment) error {
	flags, fs, err := parseCaptureFlags(args, env.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	warnUnknownEnvVars(env.Stderr)
	envCfg := loadEnvConfig()

	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, fs, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	run, err := resolveRun(flags, cfg, logger)
	if err != nil {
		return err
	}
	if flags.common.verbose {
		if data, err := cfg.Marshal(); err == nil {
			logger.Debug("effective config\n" + string(data))
		}
	}

	return executeCapture(ctx, run, env, logger)
}

// loadConfig loads the named config or returns the empty default.
func loadConfig(flagName, envName string) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(triedPaths(err)))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// triedPaths recovers the searched locations from a not-found error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// mergeFlags copies explicitly set flags over the config (CLI wins).
func mergeFlags(f *captureFlags, fs *flag.FlagSet, cfg *config.Config) error {
	if positional := fs.Args(); len(positional) > 0 {
		if len(positional) > 1 {
			return fmt.Errorf("%w: expected one viewer URL, got %d arguments", ErrUsage, len(positional))
		}
		if fs.Changed("url") {
			return fmt.Errorf("%w: URL given both as argument and --url", ErrUsage)
		}
		cfg.Viewer.URL = positional[0]
	}

	strs := []struct {
		name string
		dst  *string
		val  string
	}{
		{"url", &cfg.Viewer.URL, f.url},
		{"output", &cfg.Output.DefaultDir, f.output},
		{"images-dir", &cfg.Output.ImagesDir, f.imagesDir},
		{"timeout", &cfg.Capture.Timeout, f.timeout},
		{"driver", &cfg.Browser.Driver, f.browser.driver},
		{"remote", &cfg.Browser.Remote, f.browser.remote},
		{"browser-bin", &cfg.Browser.Bin, f.browser.bin},
		{"user-data-dir", &cfg.Browser.UserDataDir, f.browser.userDataDir},
		{"poll", &cfg.Capture.PollInterval, f.tuning.poll},
		{"settle", &cfg.Capture.SettleDelay, f.tuning.settle},
		{"composer", &cfg.Compose.Backend, f.compose.composer},
		{"paper", &cfg.Compose.Paper, f.compose.paper},
	}
	for _, s := range strs {
		if fs.Changed(s.name) {
			*s.dst = s.val
		}
	}

	ints := []struct {
		name string
		dst  *int
		val  int
	}{
		{"max-polls", &cfg.Capture.MaxPolls, f.tuning.maxPolls},
		{"stable", &cfg.Capture.StableThreshold, f.tuning.stable},
		{"max-pages", &cfg.Capture.MaxPages, f.tuning.maxPages},
	}
	for _, n := range ints {
		if fs.Changed(n.name) {
			*n.dst = n.val
		}
	}

	if fs.Changed("headful") {
		cfg.Browser.Headful = f.browser.headful
	}
	if fs.Changed("no-stealth") {
		cfg.Browser.NoStealth = f.browser.noStealth
	}
	return nil
}

// resolveRun turns the validated config into service options.
func resolveRun(f *captureFlags, cfg *config.Config, logger *slog.Logger) (*captureRun, error) {
	run := &captureRun{
		url:       cfg.Viewer.URL,
		remote:    cfg.Browser.Remote,
		outputDir: cfg.Output.DefaultDir,
		imagesDir: cfg.Output.ImagesDir,
		prefix:    cfg.Output.Prefix,
		wait:      f.wait,
		quiet:     f.common.quiet,
		verbose:   f.common.verbose,
	}
	if run.prefix == "" {
		run.prefix = bookroll.DefaultOutputPrefix
	}

	if run.url == "" && run.remote == "" {
		return nil, ErrNoURL
	}
	if run.url != "" && !fileutil.IsURL(run.url) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, run.url)
	}

	var err error
	if run.timeout, err = config.ParseDuration("timeout", cfg.Capture.Timeout); err != nil {
		return nil, err
	}

	browser, err := browserOptions(cfg.Browser)
	if err != nil {
		return nil, err
	}
	capture, err := captureSettings(cfg.Capture)
	if err != nil {
		return nil, err
	}
	compose, err := composeSettings(cfg.Compose)
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(cfg.Browser.Driver)
	if driver == "" {
		driver = bookroll.DefaultDriver
	}
	composer := strings.ToLower(cfg.Compose.Backend)
	if composer == "" {
		composer = bookroll.DefaultComposer
	}

	run.options = []bookroll.Option{
		bookroll.WithLogger(logger),
		bookroll.WithBrowser(browser),
		bookroll.WithDriver(driver),
		bookroll.WithComposerBackend(composer),
		bookroll.WithCaptureSettings(capture),
		bookroll.WithLocatorSettings(locatorSettings(cfg)),
		bookroll.WithPagerSettings(pagerSettings(cfg.Viewer)),
		bookroll.WithComposeSettings(compose),
		bookroll.WithAssetPath(cfg.Assets.BasePath),
		bookroll.WithOutputPrefix(run.prefix),
		bookroll.WithOnPage(func(ev bookroll.PageEvent) {
			logger.Info("page captured", "page", ev.Page, "polls", ev.Polls, "stable", ev.Stable, "bytes", ev.Bytes)
		}),
	}
	return run, nil
}

func browserOptions(b config.BrowserConfig) (bookroll.BrowserOptions, error) {
	timeout, err := config.ParseDuration("browser.pageTimeout", b.PageTimeout)
	if err != nil {
		return bookroll.BrowserOptions{}, err
	}
	return bookroll.BrowserOptions{
		RemoteURL:   b.Remote,
		Bin:         b.Bin,
		Headful:     b.Headful,
		UserDataDir: b.UserDataDir,
		NoStealth:   b.NoStealth,
		PageTimeout: timeout,
	}, nil
}

// captureSettings overlays the non-zero config values on the defaults.
func captureSettings(c config.CaptureConfig) (bookroll.CaptureSettings, error) {
	s := bookroll.DefaultCaptureSettings()
	poll, err := config.ParseDuration("capture.pollInterval", c.PollInterval)
	if err != nil {
		return s, err
	}
	settle, err := config.ParseDuration("capture.settleDelay", c.SettleDelay)
	if err != nil {
		return s, err
	}
	if poll > 0 {
		s.PollInterval = poll
	}
	if settle > 0 {
		s.SettleDelay = settle
	}
	if c.MaxPolls > 0 {
		s.MaxPolls = c.MaxPolls
	}
	if c.StableThreshold > 0 {
		s.StableThreshold = c.StableThreshold
	}
	s.MaxPages = c.MaxPages
	return s, nil
}

func locatorSettings(cfg *config.Config) bookroll.LocatorSettings {
	s := bookroll.DefaultLocatorSettings()
	if len(cfg.Viewer.SurfaceSelectors) > 0 {
		s.SurfaceSelectors = cfg.Viewer.SurfaceSelectors
	}
	if cfg.Viewer.WrapperSelector != "" {
		s.WrapperSelector = cfg.Viewer.WrapperSelector
	}
	if cfg.Capture.MinSurfaceSize > 0 {
		s.MinSurfaceSize = cfg.Capture.MinSurfaceSize
	}
	if cfg.Capture.SampleStride > 0 {
		s.SampleStride = cfg.Capture.SampleStride
	}
	return s
}

func pagerSettings(v config.ViewerConfig) bookroll.PagerSettings {
	s := bookroll.DefaultPagerSettings()
	if v.NextSelector != "" {
		s.NextSelector = v.NextSelector
	}
	if v.DisabledClass != "" {
		s.DisabledClass = v.DisabledClass
	}
	return s
}

func composeSettings(c config.ComposeConfig) (bookroll.ComposeSettings, error) {
	s := bookroll.DefaultComposeSettings()
	if c.Paper != "" {
		paper, err := bookroll.LookupPaper(c.Paper)
		if err != nil {
			return s, fmt.Errorf("%w%s", err, hints.ForInvalidChoice(bookroll.PaperNames()))
		}
		s.Paper = paper
	}
	decode, err := config.ParseDuration("compose.decodeTimeout", c.DecodeTimeout)
	if err != nil {
		return s, err
	}
	if decode > 0 {
		s.DecodeTimeout = decode
	}
	return s, nil
}

// executeCapture opens the viewer, captures, and writes the outputs.
func executeCapture(ctx context.Context, run *captureRun, env *Environment, logger *slog.Logger) error {
	if err := fileutil.EnsureDir(run.outputDir); err != nil {
		return fmt.Errorf("%w: %v%s", ErrWritePDF, err, hints.ForOutputDirectory())
	}

	if run.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, run.timeout)
		defer cancel()
	}

	sess, err := env.NewSession(run.options...)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("closing browser", "error", err)
		}
	}()

	if err := sess.Open(ctx, run.url); err != nil {
		return withHint(err, run)
	}

	if run.wait {
		if err := waitForEnter(ctx, env); err != nil {
			return err
		}
	}

	started := env.Now()
	res, captureErr := sess.Capture(ctx)
	if res == nil {
		return withHint(captureErr, run)
	}

	name := res.Filename
	if name == "" {
		name = bookroll.OutputName(run.prefix, env.Now())
	}

	pagesDir := ""
	if run.imagesDir != "" && len(res.Pages) > 0 {
		if err := writePages(run.imagesDir, res.Pages); err != nil {
			return err
		}
		pagesDir = run.imagesDir
		logger.Info("pages written", "dir", run.imagesDir, "count", len(res.Pages))
	}

	if captureErr != nil {
		if len(res.Pages) > 0 && pagesDir == "" {
			dump := filepath.Join(run.outputDir, strings.TrimSuffix(name, filepath.Ext(name))+pagesDirSuffix)
			if err := writePages(dump, res.Pages); err != nil {
				logger.Error("saving captured pages", "error", err)
			} else {
				pagesDir = dump
			}
		}
		if isComposeError(captureErr) {
			return fmt.Errorf("%w%s", captureErr, hints.ForComposeFailure(pagesDir))
		}
		if pagesDir != "" {
			logger.Warn("partial capture saved", "dir", pagesDir, "pages", len(res.Pages))
		}
		return withHint(captureErr, run)
	}

	out := filepath.Join(run.outputDir, name)
	if err := os.WriteFile(out, res.PDF, filePermissions); err != nil { // #nosec G306 -- PDF is meant to be shared
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	printSummary(env, run, res, out, env.Now().Sub(started))
	return nil
}

// printSummary reports the page count and output path on stdout.
func printSummary(env *Environment, run *captureRun, res *bookroll.Result, out string, took time.Duration) {
	if run.quiet {
		return
	}
	if run.verbose {
		fmt.Fprintf(env.Stdout, "captured %d pages (%s) in %v\n", len(res.Pages), res.End, took.Round(time.Millisecond))
	} else {
		fmt.Fprintf(env.Stdout, "captured %d pages\n", len(res.Pages))
	}
	fmt.Fprintf(env.Stdout, "PDF written: %s\n", out)
}

// writePages saves each page as a numbered PNG in dir.
func writePages(dir string, pages []bookroll.Snapshot) error {
	if err := fileutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePages, err)
	}
	for i, p := range pages {
		if err := p.WriteFile(fileutil.PageFileName(dir, i+1)); err != nil {
			return fmt.Errorf("%w: %v", ErrWritePages, err)
		}
	}
	return nil
}

// waitForEnter blocks until a line is read from stdin or ctx ends.
func waitForEnter(ctx context.Context, env *Environment) error {
	fmt.Fprintln(env.Stderr, "Open the document in the viewer, then press Enter to start capturing.")

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(env.Stdin).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading stdin: %w", err)
		}
		return nil
	}
}

// isComposeError reports whether err came from building the PDF.
func isComposeError(err error) bool {
	return errors.Is(err, bookroll.ErrPDFGeneration) ||
		errors.Is(err, bookroll.ErrComposerUnavailable) ||
		errors.Is(err, bookroll.ErrImageDecode) ||
		errors.Is(err, bookroll.ErrImageDecodeTimeout)
}

// withHint appends the hint matching err, if any.
func withHint(err error, run *captureRun) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bookroll.ErrBrowserConnect):
		return fmt.Errorf("%w%s", err, hints.ForBrowserConnect(run.remote))
	case errors.Is(err, bookroll.ErrNoSurfaceFound), errors.Is(err, bookroll.ErrNoViewerPage):
		return fmt.Errorf("%w%s", err, hints.ForNoSurface())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	}
	return err
}
