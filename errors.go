package bookroll

import "errors"

// Sentinel errors for library operations.
var (
	// Capture errors.
	ErrNoSurfaceFound       = errors.New("no content surface located")
	ErrSurfaceRead          = errors.New("failed to read surface")
	ErrStabilizationTimeout = errors.New("page did not stabilize before timeout")
	ErrSessionActive        = errors.New("a capture session is already running")
	ErrViewerNotOpen        = errors.New("viewer page is not open")

	// Composition errors.
	ErrImageDecodeTimeout  = errors.New("image decode timed out")
	ErrImageDecode         = errors.New("failed to decode page image")
	ErrComposerUnavailable = errors.New("composition backend unavailable")
	ErrPDFGeneration       = errors.New("PDF generation failed")

	// Browser errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrNoViewerPage   = errors.New("no viewer page to capture")

	// Settings validation errors.
	ErrInvalidSettings = errors.New("invalid capture settings")
	ErrInvalidPaper    = errors.New("invalid paper size")
	ErrInvalidDriver   = errors.New("invalid browser driver")
	ErrInvalidComposer = errors.New("invalid composer")
)
