package main

// Notes:
// - Tests use black-box approach: testing through runDoctorCmd() observable outputs
// - Tests that touch environment variables or swap the package-level lookups
//   (lookChrome, hints.IsInContainer) cannot use t.Parallel()
// - The remote probe runs against an httptest server that answers
//   /json/version like Chrome does
// - Chrome detection on the host is not asserted; the lookup is stubbed where
//   the outcome matters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/alnah/go-bookroll/internal/hints"
)

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_JSONOutput - Verifies JSON output format and structure
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	exitCode := runDoctorCmd([]string{"--json"}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput was: %s", err, stdout.String())
	}

	validStatuses := map[string]bool{"ready": true, "warnings": true, "errors": true}
	if !validStatuses[result.Status] {
		t.Errorf("Invalid status %q, expected ready/warnings/errors", result.Status)
	}
	if result.Status == "errors" && exitCode != ExitGeneral {
		t.Errorf("Expected exit code %d for errors status, got %d", ExitGeneral, exitCode)
	}
	if result.Status != "errors" && exitCode != ExitSuccess {
		t.Errorf("Expected exit code %d for non-error status, got %d", ExitSuccess, exitCode)
	}
	if result.Env.OS != runtime.GOOS {
		t.Errorf("OS = %q, want %q", result.Env.OS, runtime.GOOS)
	}
	if result.Env.Arch != runtime.GOARCH {
		t.Errorf("Arch = %q, want %q", result.Env.Arch, runtime.GOARCH)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_HumanOutput - Verifies human-readable output format
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_HumanOutput(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := &Environment{Stdout: &stdout, Stderr: &stderr}

	runDoctorCmd(nil, env)

	output := stdout.String()
	for _, want := range []string{"bookroll doctor", "Environment", "System", "Status:"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output should contain %q, got:\n%s", want, output)
		}
	}
	platform := runtime.GOOS + "/" + runtime.GOARCH
	if !strings.Contains(output, platform) {
		t.Errorf("Output should contain platform %q", platform)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_Flags - Verifies flag handling
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Flags(t *testing.T) {
	t.Parallel()

	t.Run("unknown flag is a usage error", func(t *testing.T) {
		t.Parallel()
		var stdout, stderr bytes.Buffer
		code := runDoctorCmd([]string{"--bogus"}, &Environment{Stdout: &stdout, Stderr: &stderr})
		if code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
		if !strings.Contains(stderr.String(), "Usage: bookroll doctor") {
			t.Errorf("stderr should show doctor usage, got:\n%s", stderr.String())
		}
	})

	t.Run("help prints usage", func(t *testing.T) {
		t.Parallel()
		var stdout, stderr bytes.Buffer
		code := runDoctorCmd([]string{"--help"}, &Environment{Stdout: &stdout, Stderr: &stderr})
		if code != ExitSuccess {
			t.Errorf("exit code = %d, want %d", code, ExitSuccess)
		}
		if !strings.Contains(stdout.String(), "--remote") {
			t.Errorf("usage should document --remote, got:\n%s", stdout.String())
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_Remote - Verifies the running-browser probe
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Remote(t *testing.T) {
	t.Parallel()

	t.Run("reachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/json/version" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, `{"Browser":"Chrome/120","webSocketDebuggerUrl":"ws://localhost:9222/devtools/browser/abc"}`)
		}))
		defer srv.Close()

		var stdout bytes.Buffer
		code := runDoctorCmd([]string{"--json", "--remote", srv.URL}, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})

		var result doctorResult
		if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if !result.Remote.Reachable {
			t.Fatalf("Remote.Reachable = false, errors: %v", result.Errors)
		}
		if !strings.HasSuffix(result.Remote.DebugURL, "/devtools/browser/abc") {
			t.Errorf("DebugURL = %q, want the browser websocket", result.Remote.DebugURL)
		}
		if result.Chrome.Found {
			t.Error("local Chrome should not be probed with --remote")
		}
		if result.Status == "errors" || code != ExitSuccess {
			t.Errorf("status = %q, code = %d, want success", result.Status, code)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		var stdout bytes.Buffer
		code := runDoctorCmd([]string{"--remote", addr}, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})
		if code != ExitGeneral {
			t.Errorf("exit code = %d, want %d", code, ExitGeneral)
		}
		out := stdout.String()
		if !strings.Contains(out, "Remote browser") || !strings.Contains(out, "Not reachable") {
			t.Errorf("output should report the unreachable browser, got:\n%s", out)
		}
		if !strings.Contains(out, "remote-debugging-port") {
			t.Errorf("output should explain how to start Chrome, got:\n%s", out)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_ChromeNotFound - Missing Chrome is only a warning
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_ChromeNotFound(t *testing.T) {
	// NO t.Parallel() - swaps lookChrome and modifies environment variables
	stubLookChrome(t, "", false)
	unsetEnv(t, "ROD_BROWSER_BIN", "BOOKROLL_REMOTE")

	var stdout bytes.Buffer
	code := runDoctorCmd([]string{"--json"}, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result.Chrome.Found {
		t.Error("Chrome.Found = true, want false")
	}
	if !containsSubstring(result.Warnings, "not found") {
		t.Errorf("Warnings = %v, want a not-found warning", result.Warnings)
	}
	if result.System.TempWritable && code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
}

func TestRunDoctorCmd_BrowserBinMissing(t *testing.T) {
	// NO t.Parallel() - modifies environment variables
	unsetEnv(t, "BOOKROLL_REMOTE")
	t.Setenv("ROD_BROWSER_BIN", "/nonexistent/chrome")

	var stdout bytes.Buffer
	code := runDoctorCmd([]string{"--json"}, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result.Env.BrowserBin != "/nonexistent/chrome" {
		t.Errorf("BrowserBin = %q, want %q", result.Env.BrowserBin, "/nonexistent/chrome")
	}
	if !containsSubstring(result.Errors, "/nonexistent/chrome") {
		t.Errorf("Errors = %v, want the missing binary reported", result.Errors)
	}
	if code != ExitGeneral {
		t.Errorf("exit code = %d, want %d", code, ExitGeneral)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_ContainerDetection - Verifies container environment detection
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_ContainerDetection(t *testing.T) {
	// NO t.Parallel() - modifies environment variables

	tests := []struct {
		name     string
		envVar   string
		envVal   string
		wantHint string
	}{
		{"explicit BOOKROLL_CONTAINER override", "BOOKROLL_CONTAINER", "1", "BOOKROLL_CONTAINER=1"},
		{"kubernetes environment", "KUBERNETES_SERVICE_HOST", "10.0.0.1", "KUBERNETES_SERVICE_HOST"},
		{"podman container", "container", "podman", "container=podman"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, false)
			cleanContainerEnv(t)
			t.Setenv(tt.envVar, tt.envVal)

			result := doctorJSON(t)
			if !result.Env.Container {
				t.Error("Container = false, want true")
			}
			if result.Env.ContainerHint != tt.wantHint {
				t.Errorf("ContainerHint = %q, want %q", result.Env.ContainerHint, tt.wantHint)
			}
		})
	}
}

func TestRunDoctorCmd_ContainerPriority(t *testing.T) {
	// NO t.Parallel() - modifies environment variables
	stubContainer(t, true)
	cleanContainerEnv(t)
	t.Setenv("BOOKROLL_CONTAINER", "1")
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.0.0.1")

	result := doctorJSON(t)
	if result.Env.ContainerHint != "BOOKROLL_CONTAINER=1" {
		t.Errorf("BOOKROLL_CONTAINER should have priority, got hint %q", result.Env.ContainerHint)
	}
}

func TestRunDoctorCmd_NoContainer(t *testing.T) {
	// NO t.Parallel() - modifies environment variables
	stubContainer(t, false)
	cleanContainerEnv(t)

	result := doctorJSON(t)
	if result.Env.Container {
		t.Errorf("Container = true (hint %q), want false", result.Env.ContainerHint)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_CIDetection - Verifies CI environment detection
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_CIDetection(t *testing.T) {
	// NO t.Parallel() - modifies environment variables

	tests := []struct {
		name   string
		envVar string
		envVal string
	}{
		{"CI generic", "CI", "true"},
		{"GitHub Actions", "GITHUB_ACTIONS", "true"},
		{"GitLab CI", "GITLAB_CI", "true"},
		{"Jenkins", "JENKINS_URL", "http://jenkins.local"},
		{"CircleCI", "CIRCLECI", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanCIEnv(t)
			t.Setenv("ROD_NO_SANDBOX", "1")
			t.Setenv(tt.envVar, tt.envVal)

			if result := doctorJSON(t); !result.Env.CI {
				t.Error("CI = false, want true")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_SandboxWarning - Verifies sandbox warning in container/CI
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_SandboxWarning(t *testing.T) {
	// NO t.Parallel() - modifies environment variables

	tests := []struct {
		name        string
		noSandbox   string
		remote      bool
		wantWarning bool
	}{
		{"sandbox enabled in CI", "", false, true},
		{"sandbox disabled in CI", "1", false, false},
		{"remote browser in CI", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubContainer(t, false)
			cleanContainerEnv(t)
			cleanCIEnv(t)
			unsetEnv(t, "ROD_NO_SANDBOX", "BOOKROLL_REMOTE")
			t.Setenv("CI", "true")
			if tt.noSandbox != "" {
				t.Setenv("ROD_NO_SANDBOX", tt.noSandbox)
			}

			args := []string{"--json"}
			if tt.remote {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					fmt.Fprint(w, `{"webSocketDebuggerUrl":"ws://localhost/devtools/browser/x"}`)
				}))
				defer srv.Close()
				args = append(args, "--remote", srv.URL)
			}

			var stdout bytes.Buffer
			runDoctorCmd(args, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})
			var result doctorResult
			if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}

			got := containsSubstring(result.Warnings, "ROD_NO_SANDBOX")
			if got != tt.wantWarning {
				t.Errorf("sandbox warning = %v, want %v (warnings: %v)", got, tt.wantWarning, result.Warnings)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_HumanOutput_StatusLine - Verifies final status line
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_HumanOutput_StatusLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status string
		want   string
	}{
		{"ready", "Status: Ready to capture"},
		{"warnings", "Status: Ready with warnings"},
		{"errors", "Status: Not ready (see errors above)"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			printDoctorResult(&buf, &doctorResult{
				Status:   tt.status,
				Warnings: []string{"a warning"},
				Errors:   []string{"an error"},
				Env:      envInfo{OS: "linux", Arch: "amd64", CI: true},
			})
			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("output should contain %q, got:\n%s", tt.want, out)
			}
			if !strings.Contains(out, "[WARN] a warning") || !strings.Contains(out, "[ERROR] an error") {
				t.Errorf("output should list warnings and errors, got:\n%s", out)
			}
			if !strings.Contains(out, "CI: detected") {
				t.Errorf("output should show CI detection, got:\n%s", out)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// doctorJSON runs the doctor against a stubbed Chrome lookup and decodes the report.
func doctorJSON(t *testing.T) doctorResult {
	t.Helper()
	stubLookChrome(t, "", false)
	unsetEnv(t, "BOOKROLL_REMOTE")

	var stdout bytes.Buffer
	runDoctorCmd([]string{"--json"}, &Environment{Stdout: &stdout, Stderr: &bytes.Buffer{}})

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	return result
}

// stubLookChrome replaces the Chrome lookup for the duration of the test.
func stubLookChrome(t *testing.T, path string, found bool) {
	t.Helper()
	orig := lookChrome
	lookChrome = func() (string, bool) { return path, found }
	t.Cleanup(func() { lookChrome = orig })
}

// stubContainer replaces the /.dockerenv probe for the duration of the test.
func stubContainer(t *testing.T, in bool) {
	t.Helper()
	orig := hints.IsInContainer
	hints.IsInContainer = func() bool { return in }
	t.Cleanup(func() { hints.IsInContainer = orig })
}

// unsetEnv clears variables and restores them when the test ends.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

// cleanContainerEnv removes all container detection environment variables.
func cleanContainerEnv(t *testing.T) {
	t.Helper()
	unsetEnv(t, "BOOKROLL_CONTAINER", "KUBERNETES_SERVICE_HOST", "container")
}

// cleanCIEnv removes all CI detection environment variables.
func cleanCIEnv(t *testing.T) {
	t.Helper()
	unsetEnv(t, "CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI")
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
