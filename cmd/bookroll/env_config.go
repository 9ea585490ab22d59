package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-bookroll/internal/config"
)

// envPrefix starts every variable the CLI reads.
const envPrefix = "BOOKROLL_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // BOOKROLL_CONFIG: config file name or path
	URL        string        // BOOKROLL_URL: viewer URL
	Remote     string        // BOOKROLL_REMOTE: DevTools endpoint
	Timeout    time.Duration // BOOKROLL_TIMEOUT: whole-session bound

	// Tier 2 - Browser
	Driver      string // BOOKROLL_DRIVER: rod, chromedp
	BrowserBin  string // BOOKROLL_BROWSER_BIN: Chrome binary
	UserDataDir string // BOOKROLL_USER_DATA_DIR: Chrome profile
	Headful     bool   // BOOKROLL_HEADFUL: show the window

	// Tier 3 - Output
	Composer  string // BOOKROLL_COMPOSER: chrome, pdfcpu
	Paper     string // BOOKROLL_PAPER: a4, letter, legal
	OutputDir string // BOOKROLL_OUTPUT_DIR: PDF directory
	ImagesDir string // BOOKROLL_IMAGES_DIR: PNG directory
	MaxPages  int    // BOOKROLL_MAX_PAGES: page limit
}

// knownEnvVars lists valid BOOKROLL_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"BOOKROLL_CONFIG":        true,
	"BOOKROLL_URL":           true,
	"BOOKROLL_REMOTE":        true,
	"BOOKROLL_TIMEOUT":       true,
	"BOOKROLL_DRIVER":        true,
	"BOOKROLL_BROWSER_BIN":   true,
	"BOOKROLL_USER_DATA_DIR": true,
	"BOOKROLL_HEADFUL":       true,
	"BOOKROLL_COMPOSER":      true,
	"BOOKROLL_PAPER":         true,
	"BOOKROLL_OUTPUT_DIR":    true,
	"BOOKROLL_IMAGES_DIR":    true,
	"BOOKROLL_MAX_PAGES":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers, durations and booleans are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("BOOKROLL_CONFIG"),
		URL:         os.Getenv("BOOKROLL_URL"),
		Remote:      os.Getenv("BOOKROLL_REMOTE"),
		Driver:      os.Getenv("BOOKROLL_DRIVER"),
		BrowserBin:  os.Getenv("BOOKROLL_BROWSER_BIN"),
		UserDataDir: os.Getenv("BOOKROLL_USER_DATA_DIR"),
		Composer:    os.Getenv("BOOKROLL_COMPOSER"),
		Paper:       os.Getenv("BOOKROLL_PAPER"),
		OutputDir:   os.Getenv("BOOKROLL_OUTPUT_DIR"),
		ImagesDir:   os.Getenv("BOOKROLL_IMAGES_DIR"),
	}

	if timeout := os.Getenv("BOOKROLL_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if pages := os.Getenv("BOOKROLL_MAX_PAGES"); pages != "" {
		if n, err := strconv.Atoi(pages); err == nil && n > 0 {
			cfg.MaxPages = n
		}
	}
	if headful := os.Getenv("BOOKROLL_HEADFUL"); headful != "" {
		if b, err := strconv.ParseBool(headful); err == nil {
			cfg.Headful = b
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized BOOKROLL_* variables.
// Helps catch typos like BOOKROLL_OUTPUTDIR instead of BOOKROLL_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies set environment variables over the config file.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied afterwards by mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setString(&cfg.Viewer.URL, env.URL)
	setString(&cfg.Browser.Remote, env.Remote)
	setString(&cfg.Browser.Driver, env.Driver)
	setString(&cfg.Browser.Bin, env.BrowserBin)
	setString(&cfg.Browser.UserDataDir, env.UserDataDir)
	setString(&cfg.Compose.Backend, env.Composer)
	setString(&cfg.Compose.Paper, env.Paper)
	setString(&cfg.Output.DefaultDir, env.OutputDir)
	setString(&cfg.Output.ImagesDir, env.ImagesDir)

	if env.Timeout > 0 {
		cfg.Capture.Timeout = env.Timeout.String()
	}
	if env.MaxPages > 0 {
		cfg.Capture.MaxPages = env.MaxPages
	}
	if env.Headful {
		cfg.Browser.Headful = true
	}
}
