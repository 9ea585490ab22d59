// Package bookroll captures the pages of a canvas-rendered document viewer
// and composes them into a single PDF.
//
// # Quick Start
//
// Create a service, open the viewer, capture, and close when done:
//
//	svc, err := bookroll.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	if err := svc.Open(ctx, "https://bookroll.example/viewer?contents=123"); err != nil {
//	    log.Fatal(err)
//	}
//	result, err := svc.Capture(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.Filename, result.PDF, 0644)
//
// When composition fails the captured pages are still in result.Pages, so
// nothing has to be recaptured.
//
// # Capture Loop
//
// Each page goes through the same steps:
//
//  1. Poll the page every 100 ms, locating the canvas that shows content
//  2. Accept the page once 5 consecutive polls encode to identical PNGs
//  3. Activate the viewer's next control and wait 500 ms
//
// A page that never stabilizes within 30 polls is accepted as last seen.
// The document ends when the next control is missing or disabled, or when
// the content after advancing never moves off the previous page.
//
// # Browsers
//
// The viewer runs in Chrome, driven by go-rod (default) or chromedp. Either
// launch a browser, optionally with a persistent profile so a login
// survives between runs, or attach to one already running with
// --remote-debugging-port:
//
//	svc, err := bookroll.New(
//	    bookroll.WithBrowser(bookroll.BrowserOptions{RemoteURL: "127.0.0.1:9222"}),
//	    bookroll.WithDriver(bookroll.DriverChromedp),
//	)
//
// # Composition
//
// Pages are laid out one per sheet, scaled to fit and centered. The sheet
// orientation follows the first page. Two backends are available: chrome
// prints an HTML layout through the same browser, pdfcpu builds the PDF
// in-process.
//
// # Testing
//
// The capture loop only depends on the Viewer and Clock interfaces. Tests
// substitute fakes for both and drive whole sessions without a browser.
package bookroll
