package config

// Notes:
// - TestResolveConfigPath changes the working directory and overrides
//   XDG_CONFIG_HOME, so it does not run in parallel
// - The unreadable-file case is skipped when running as root

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookroll.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestDefaultConfig
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error: %v", err)
	}
	if cfg.Browser.Driver != "" || cfg.Compose.Backend != "" || cfg.Compose.Paper != "" {
		t.Errorf("expected empty enums so library defaults apply, got %+v", cfg)
	}
	if cfg.Capture.MaxPages != 0 {
		t.Errorf("Capture.MaxPages = %d, want 0 (unlimited)", cfg.Capture.MaxPages)
	}
}

// ---------------------------------------------------------------------------
// TestValidateFieldLength
// ---------------------------------------------------------------------------

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty value is valid", "", false},
		{"value at limit is valid", "1234567890", false},
		{"value over limit returns error", "12345678901", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, 10)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Fatalf("error = %v, want ErrFieldTooLong", err)
				}
				if !strings.Contains(err.Error(), "test.field") {
					t.Errorf("error %q should name the field", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestParseDuration
// ---------------------------------------------------------------------------

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    time.Duration
		wantErr error
	}{
		{"", 0, nil},
		{"100ms", 100 * time.Millisecond, nil},
		{"1m30s", 90 * time.Second, nil},
		{"0s", 0, nil},
		{"fast", 0, ErrInvalidValue},
		{"100", 0, ErrInvalidValue},
		{"-1s", 0, ErrInvalidValue},
		{strings.Repeat("1", MaxDurationLength+1) + "s", 0, ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDuration("capture.pollInterval", tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate - one case per rule
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	long := func(n int) string { return strings.Repeat("x", n+1) }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		field   string
	}{
		{
			name: "fully populated config passes",
			mutate: func(c *Config) {
				c.Browser = BrowserConfig{Driver: "chromedp", Remote: "127.0.0.1:9222", PageTimeout: "45s"}
				c.Viewer = ViewerConfig{
					URL:              "https://bookroll.example/viewer?contents=1",
					SurfaceSelectors: []string{"canvas.hyperlink-canvas"},
					WrapperSelector:  ".canvas-wrapper canvas",
					NextSelector:     ".next-btn",
					DisabledClass:    "v-btn--disabled",
				}
				c.Capture = CaptureConfig{
					PollInterval: "200ms", MaxPolls: 50, StableThreshold: 5,
					SettleDelay: "1s", MaxPages: 300, SampleStride: 4, MinSurfaceSize: 50, Timeout: "30m",
				}
				c.Compose = ComposeConfig{Backend: "pdfcpu", Paper: "Letter", DecodeTimeout: "10s"}
				c.Output = OutputConfig{DefaultDir: "out", Prefix: "lecture", ImagesDir: "pages"}
			},
		},
		{"unknown driver", func(c *Config) { c.Browser.Driver = "selenium" }, ErrInvalidValue, "browser.driver"},
		{"remote too long", func(c *Config) { c.Browser.Remote = long(MaxURLLength) }, ErrFieldTooLong, "browser.remote"},
		{"bad page timeout", func(c *Config) { c.Browser.PageTimeout = "soon" }, ErrInvalidValue, "browser.pageTimeout"},
		{"url too long", func(c *Config) { c.Viewer.URL = long(MaxURLLength) }, ErrFieldTooLong, "viewer.url"},
		{"blank surface selector", func(c *Config) { c.Viewer.SurfaceSelectors = []string{"canvas", " "} }, ErrInvalidValue, "viewer.surfaceSelectors[1]"},
		{"too many surface selectors", func(c *Config) { c.Viewer.SurfaceSelectors = make([]string, MaxSelectors+1) }, ErrInvalidValue, "viewer.surfaceSelectors"},
		{"next selector too long", func(c *Config) { c.Viewer.NextSelector = long(MaxSelectorLength) }, ErrFieldTooLong, "viewer.nextSelector"},
		{"disabled class with dot", func(c *Config) { c.Viewer.DisabledClass = ".v-btn--disabled" }, ErrInvalidValue, "viewer.disabledClass"},
		{"bad poll interval", func(c *Config) { c.Capture.PollInterval = "100" }, ErrInvalidValue, "capture.pollInterval"},
		{"negative settle delay", func(c *Config) { c.Capture.SettleDelay = "-5ms" }, ErrInvalidValue, "capture.settleDelay"},
		{"bad timeout", func(c *Config) { c.Capture.Timeout = "forever" }, ErrInvalidValue, "capture.timeout"},
		{"max polls over range", func(c *Config) { c.Capture.MaxPolls = MaxMaxPolls + 1 }, ErrInvalidValue, "capture.maxPolls"},
		{"negative stable threshold", func(c *Config) { c.Capture.StableThreshold = -1 }, ErrInvalidValue, "capture.stableThreshold"},
		{"stable threshold above max polls", func(c *Config) { c.Capture.MaxPolls = 3; c.Capture.StableThreshold = 4 }, ErrInvalidValue, "capture.stableThreshold"},
		{"negative max pages", func(c *Config) { c.Capture.MaxPages = -1 }, ErrInvalidValue, "capture.maxPages"},
		{"sample stride over range", func(c *Config) { c.Capture.SampleStride = MaxSampleStride + 1 }, ErrInvalidValue, "capture.sampleStride"},
		{"unknown backend", func(c *Config) { c.Compose.Backend = "wkhtmltopdf" }, ErrInvalidValue, "compose.backend"},
		{"unknown paper", func(c *Config) { c.Compose.Paper = "a5" }, ErrInvalidValue, "compose.paper"},
		{"bad decode timeout", func(c *Config) { c.Compose.DecodeTimeout = "5" }, ErrInvalidValue, "compose.decodeTimeout"},
		{"prefix with separator", func(c *Config) { c.Output.Prefix = "../lecture" }, ErrInvalidValue, "output.prefix"},
		{"prefix too long", func(c *Config) { c.Output.Prefix = long(MaxPrefixLength) }, ErrFieldTooLong, "output.prefix"},
		{"images dir too long", func(c *Config) { c.Output.ImagesDir = long(MaxPathLength) }, ErrFieldTooLong, "output.imagesDir"},
		{"asset path too long", func(c *Config) { c.Assets.BasePath = long(MaxPathLength) }, ErrFieldTooLong, "assets.basePath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should name %s", err, tt.field)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads every section", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `browser:
  driver: chromedp
  remote: "127.0.0.1:9222"
  headful: true
viewer:
  url: "https://bookroll.example/viewer?contents=42"
  surfaceSelectors:
    - canvas.hyperlink-canvas
  nextSelector: ".next-btn"
capture:
  pollInterval: 150ms
  maxPolls: 40
  maxPages: 12
compose:
  backend: pdfcpu
  paper: letter
output:
  defaultDir: ./pdf
  prefix: lecture
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Browser.Driver != "chromedp" || cfg.Browser.Remote != "127.0.0.1:9222" || !cfg.Browser.Headful {
			t.Errorf("Browser = %+v", cfg.Browser)
		}
		if cfg.Viewer.URL != "https://bookroll.example/viewer?contents=42" {
			t.Errorf("Viewer.URL = %q", cfg.Viewer.URL)
		}
		if len(cfg.Viewer.SurfaceSelectors) != 1 || cfg.Viewer.SurfaceSelectors[0] != "canvas.hyperlink-canvas" {
			t.Errorf("Viewer.SurfaceSelectors = %v", cfg.Viewer.SurfaceSelectors)
		}
		if cfg.Capture.PollInterval != "150ms" || cfg.Capture.MaxPolls != 40 || cfg.Capture.MaxPages != 12 {
			t.Errorf("Capture = %+v", cfg.Capture)
		}
		if cfg.Compose.Backend != "pdfcpu" || cfg.Compose.Paper != "letter" {
			t.Errorf("Compose = %+v", cfg.Compose)
		}
		if cfg.Output.DefaultDir != "./pdf" || cfg.Output.Prefix != "lecture" {
			t.Errorf("Output = %+v", cfg.Output)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "viewer: [unclosed"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "capture:\n  pollIntreval: 1s\n"))
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig(writeConfig(t, "compose:\n  paper: tabloid\n"))
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("unreadable file returns read error not ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		if os.Geteuid() == 0 {
			t.Skip("root can read any file")
		}
		path := writeConfig(t, "output:\n  prefix: x\n")
		if err := os.Chmod(path, 0000); err != nil {
			t.Fatalf("setup chmod: %v", err)
		}
		t.Cleanup(func() { _ = os.Chmod(path, 0600) })

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, should not be ErrConfigNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestResolveConfigPath
// ---------------------------------------------------------------------------

func TestResolveConfigPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	t.Run("not found lists every tried path", func(t *testing.T) {
		_, err := resolveConfigPath("lecture")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		for _, want := range []string{"lecture.yaml", "lecture.yml", filepath.Join("go-bookroll", "lecture.yaml")} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q should mention %s", err, want)
			}
		}
	})

	t.Run("user config directory", func(t *testing.T) {
		dir := filepath.Join(xdg, "go-bookroll")
		if err := os.MkdirAll(dir, 0750); err != nil {
			t.Fatalf("setup: %v", err)
		}
		want := filepath.Join(dir, "lecture.yml")
		if err := os.WriteFile(want, []byte("output:\n  prefix: x\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		got, err := resolveConfigPath("lecture")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("resolveConfigPath() = %q, want %q", got, want)
		}
	})

	t.Run("current directory wins", func(t *testing.T) {
		if err := os.WriteFile("lecture.yaml", []byte("output:\n  prefix: x\n"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		got, err := resolveConfigPath("lecture")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "lecture.yaml" {
			t.Errorf("resolveConfigPath() = %q, want lecture.yaml", got)
		}

		cfg, err := LoadConfig("lecture")
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if cfg.Output.Prefix != "x" {
			t.Errorf("Output.Prefix = %q, want x", cfg.Output.Prefix)
		}
	})
}

// ---------------------------------------------------------------------------
// TestConfig_Marshal
// ---------------------------------------------------------------------------

func TestConfig_Marshal(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Compose.Paper = "letter"
	cfg.Capture.MaxPages = 7

	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	path := writeConfig(t, string(data))
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() on marshaled config: %v", err)
	}
	if loaded.Compose.Paper != "letter" || loaded.Capture.MaxPages != 7 {
		t.Errorf("loaded = %+v", loaded)
	}
}
