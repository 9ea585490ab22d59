package main

import (
	"context"
	"errors"
	"os"

	bookroll "github.com/alnah/go-bookroll"
	"github.com/alnah/go-bookroll/internal/config"
	"github.com/alnah/go-bookroll/internal/fileutil"
)

// Exit codes for the bookroll CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Document captured and written
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Output not writable, file not found
	ExitBrowser = 4 // Chrome could not be reached or the viewer not loaded
	ExitCapture = 5 // No surface, unreadable pixels, or PDF composition failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, bookroll.ErrInvalidSettings) ||
		errors.Is(err, bookroll.ErrInvalidPaper) ||
		errors.Is(err, bookroll.ErrInvalidDriver) ||
		errors.Is(err, bookroll.ErrInvalidComposer) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoURL) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrNotDirectory) ||
		errors.Is(err, ErrWritePDF) ||
		errors.Is(err, ErrWritePages) {
		return ExitIO
	}

	// Browser errors (exit 4)
	if errors.Is(err, bookroll.ErrBrowserConnect) ||
		errors.Is(err, bookroll.ErrPageCreate) ||
		errors.Is(err, bookroll.ErrPageLoad) ||
		errors.Is(err, bookroll.ErrNoViewerPage) {
		return ExitBrowser
	}

	// Capture and composition errors (exit 5)
	if errors.Is(err, bookroll.ErrNoSurfaceFound) ||
		errors.Is(err, bookroll.ErrSurfaceRead) ||
		errors.Is(err, bookroll.ErrStabilizationTimeout) ||
		isComposeError(err) ||
		errors.Is(err, context.DeadlineExceeded) {
		return ExitCapture
	}

	return ExitGeneral
}
