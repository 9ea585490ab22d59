package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-bookroll/internal/fileutil"
	"github.com/alnah/go-bookroll/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxURLLength      = 2048 // Browser limit
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxSelectorLength = 256
	MaxClassLength    = 100
	MaxPrefixLength   = 100
	MaxDurationLength = 20 // "1m30s"
	MaxSelectors      = 16
)

// Range limits for numeric capture fields.
const (
	MaxMaxPolls        = 10000
	MaxStableThreshold = 1000
	MaxSampleStride    = 1000
	MaxMinSurfaceSize  = 100000
)

// Accepted enum values.
var (
	Drivers   = []string{"rod", "chromedp"}
	Composers = []string{"chrome", "pdfcpu"}
	Papers    = []string{"a4", "letter", "legal"}
)

// Config holds all configuration for a capture run.
// Zero values mean "use the built-in default".
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Capture CaptureConfig `yaml:"capture"`
	Compose ComposeConfig `yaml:"compose"`
	Output  OutputConfig  `yaml:"output"`
	Assets  AssetsConfig  `yaml:"assets"`
}

// BrowserConfig selects and configures the Chrome instance.
type BrowserConfig struct {
	Driver      string `yaml:"driver"`      // "rod" (default) or "chromedp"
	Remote      string `yaml:"remote"`      // DevTools endpoint of a running Chrome
	Bin         string `yaml:"bin"`         // Chrome binary to launch
	Headful     bool   `yaml:"headful"`     // show the window
	UserDataDir string `yaml:"userDataDir"` // persistent profile
	NoStealth   bool   `yaml:"noStealth"`
	PageTimeout string `yaml:"pageTimeout"` // e.g. "30s"
}

// ViewerConfig describes the viewer page.
type ViewerConfig struct {
	URL              string   `yaml:"url"`
	SurfaceSelectors []string `yaml:"surfaceSelectors"` // tried in order before the wrapper
	WrapperSelector  string   `yaml:"wrapperSelector"`
	NextSelector     string   `yaml:"nextSelector"`
	DisabledClass    string   `yaml:"disabledClass"`
}

// CaptureConfig tunes the capture loop.
type CaptureConfig struct {
	PollInterval    string `yaml:"pollInterval"`
	MaxPolls        int    `yaml:"maxPolls"`
	StableThreshold int    `yaml:"stableThreshold"`
	SettleDelay     string `yaml:"settleDelay"`
	MaxPages        int    `yaml:"maxPages"` // 0 = unlimited
	SampleStride    int    `yaml:"sampleStride"`
	MinSurfaceSize  int    `yaml:"minSurfaceSize"`
	Timeout         string `yaml:"timeout"` // whole-session bound, empty = none
}

// ComposeConfig selects the PDF backend and paper.
type ComposeConfig struct {
	Backend       string `yaml:"backend"` // "chrome" (default) or "pdfcpu"
	Paper         string `yaml:"paper"`   // "a4" (default), "letter", "legal"
	DecodeTimeout string `yaml:"decodeTimeout"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = current directory
	Prefix     string `yaml:"prefix"`     // file name prefix, default "bookroll"
	ImagesDir  string `yaml:"imagesDir"`  // also write each page as PNG
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Validate checks field lengths, enum values, durations and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateViewer(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateCompose(); err != nil {
		return err
	}

	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.prefix", c.Output.Prefix, MaxPrefixLength); err != nil {
		return err
	}
	if strings.ContainsAny(c.Output.Prefix, `/\`) {
		return fmt.Errorf("%w: output.prefix must not contain path separators", ErrInvalidValue)
	}
	if err := validateFieldLength("output.imagesDir", c.Output.ImagesDir, MaxPathLength); err != nil {
		return err
	}
	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

func (c *Config) validateBrowser() error {
	b := c.Browser
	if err := validateEnum("browser.driver", b.Driver, Drivers); err != nil {
		return err
	}
	if err := validateFieldLength("browser.remote", b.Remote, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("browser.bin", b.Bin, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("browser.userDataDir", b.UserDataDir, MaxPathLength); err != nil {
		return err
	}
	_, err := ParseDuration("browser.pageTimeout", b.PageTimeout)
	return err
}

func (c *Config) validateViewer() error {
	v := c.Viewer
	if err := validateFieldLength("viewer.url", v.URL, MaxURLLength); err != nil {
		return err
	}
	if len(v.SurfaceSelectors) > MaxSelectors {
		return fmt.Errorf("%w: viewer.surfaceSelectors has %d entries (max %d)",
			ErrInvalidValue, len(v.SurfaceSelectors), MaxSelectors)
	}
	for i, sel := range v.SurfaceSelectors {
		field := fmt.Sprintf("viewer.surfaceSelectors[%d]", i)
		if strings.TrimSpace(sel) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidValue, field)
		}
		if err := validateFieldLength(field, sel, MaxSelectorLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("viewer.wrapperSelector", v.WrapperSelector, MaxSelectorLength); err != nil {
		return err
	}
	if err := validateFieldLength("viewer.nextSelector", v.NextSelector, MaxSelectorLength); err != nil {
		return err
	}
	if err := validateFieldLength("viewer.disabledClass", v.DisabledClass, MaxClassLength); err != nil {
		return err
	}
	if strings.ContainsAny(v.DisabledClass, " \t.") {
		return fmt.Errorf("%w: viewer.disabledClass must be a single class name, got %q", ErrInvalidValue, v.DisabledClass)
	}
	return nil
}

func (c *Config) validateCapture() error {
	cp := c.Capture
	for _, d := range []struct{ field, value string }{
		{"capture.pollInterval", cp.PollInterval},
		{"capture.settleDelay", cp.SettleDelay},
		{"capture.timeout", cp.Timeout},
	} {
		if _, err := ParseDuration(d.field, d.value); err != nil {
			return err
		}
	}
	for _, r := range []struct {
		field string
		value int
		max   int
	}{
		{"capture.maxPolls", cp.MaxPolls, MaxMaxPolls},
		{"capture.stableThreshold", cp.StableThreshold, MaxStableThreshold},
		{"capture.sampleStride", cp.SampleStride, MaxSampleStride},
		{"capture.minSurfaceSize", cp.MinSurfaceSize, MaxMinSurfaceSize},
	} {
		if r.value < 0 || r.value > r.max {
			return fmt.Errorf("%w: %s must be between 0 and %d, got %d", ErrInvalidValue, r.field, r.max, r.value)
		}
	}
	if cp.MaxPages < 0 {
		return fmt.Errorf("%w: capture.maxPages must not be negative, got %d", ErrInvalidValue, cp.MaxPages)
	}
	if cp.MaxPolls > 0 && cp.StableThreshold > cp.MaxPolls {
		return fmt.Errorf("%w: capture.stableThreshold (%d) exceeds capture.maxPolls (%d)",
			ErrInvalidValue, cp.StableThreshold, cp.MaxPolls)
	}
	return nil
}

func (c *Config) validateCompose() error {
	if err := validateEnum("compose.backend", c.Compose.Backend, Composers); err != nil {
		return err
	}
	if err := validateEnum("compose.paper", c.Compose.Paper, Papers); err != nil {
		return err
	}
	_, err := ParseDuration("compose.decodeTimeout", c.Compose.DecodeTimeout)
	return err
}

// ParseDuration parses a duration field. An empty value yields zero.
// Negative durations are rejected.
func ParseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	if err := validateFieldLength(field, value, MaxDurationLength); err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a duration (e.g. \"500ms\", \"2s\")", ErrInvalidValue, field, value)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidValue, field, value)
	}
	return d, nil
}

// validateEnum accepts an empty value or one of allowed, case-insensitively.
func validateEnum(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be %s)", ErrInvalidValue, field, value, strings.Join(allowed, ", "))
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty configuration. Every zero field falls
// back to the library defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Marshal renders the configuration as YAML, for printing the effective
// settings of a run.
func (c *Config) Marshal() ([]byte, error) {
	return yamlutil.Marshal(c)
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-bookroll/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-bookroll", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
