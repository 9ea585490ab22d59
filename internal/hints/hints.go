// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-bookroll/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ciVars are set by the common CI providers.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// InCI reports whether a CI provider variable is set.
func InCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect returns hints for browser connection errors.
// With a remote endpoint the hint is about the debugging port; otherwise
// it suggests the launcher environment variables that are not set yet.
func ForBrowserConnect(remote string) string {
	if remote != "" {
		return format("start Chrome with --remote-debugging-port=9222 and check that " + remote + " is reachable")
	}

	var hints []string
	if (InCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN or --browser-bin to use a specific Chrome")
	}
	return formatHints(hints)
}

// ForTimeout returns a hint about raising the limits for slow viewers.
func ForTimeout() string {
	return format("for long documents, raise --timeout; for slow pages, raise --max-polls or --poll")
}

// ForNoSurface returns hints for a viewer that shows no page.
func ForNoSurface() string {
	return formatHints([]string{
		"open the document in the viewer first, or use --wait to log in and press Enter when it shows",
		"use --user-data-dir to keep the viewer login between runs",
	})
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-bookroll/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-bookroll") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForComposeFailure returns hints after the PDF could not be built.
// pagesDir is where the captured pages were saved, if anywhere.
func ForComposeFailure(pagesDir string) string {
	hints := []string{"retry with --composer pdfcpu, which does not need the browser"}
	if pagesDir != "" {
		hints = append([]string{"captured pages were saved to " + pagesDir}, hints...)
	}
	return formatHints(hints)
}

// ForInvalidChoice lists the accepted values of an enumerated flag.
func ForInvalidChoice(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
