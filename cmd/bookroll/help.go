package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookroll <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  capture     Capture every page of a BookRoll document into a PDF")
	fmt.Fprintln(w, "  doctor      Check Chrome and the environment")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'bookroll help <command>' for details on a specific command.")
}

// printCaptureUsage prints usage for the capture command.
func printCaptureUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookroll capture [url] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Open a BookRoll viewer, read each page off the canvas, turn the page")
	fmt.Fprintln(w, "until the document ends, and write the pages as one PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  url    Viewer URL (optional with --remote: the open viewer tab is used)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "      --url <url>           Viewer URL")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: current)")
	fmt.Fprintln(w, "      --images-dir <dir>    Also save every page as PNG")
	fmt.Fprintln(w, "  -t, --timeout <d>         Bound the whole session (e.g., 10m)")
	fmt.Fprintln(w, "      --wait                Wait for Enter before capturing (log in first)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --driver <s>          Driver: rod, chromedp")
	fmt.Fprintln(w, "      --remote <addr>       Attach to Chrome started with --remote-debugging-port")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome binary to launch")
	fmt.Fprintln(w, "      --headful             Show the browser window")
	fmt.Fprintln(w, "      --user-data-dir <dir> Chrome profile (keeps the viewer login)")
	fmt.Fprintln(w, "      --no-stealth          Open tabs without anti-automation patches")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tuning:")
	fmt.Fprintln(w, "      --poll <d>            Delay between polls (default 100ms)")
	fmt.Fprintln(w, "      --max-polls <n>       Polls per page before giving up (default 30)")
	fmt.Fprintln(w, "      --stable <n>          Identical polls to accept a page (default 5)")
	fmt.Fprintln(w, "      --settle <d>          Wait after turning the page (default 500ms)")
	fmt.Fprintln(w, "      --max-pages <n>       Stop after n pages (0 = all)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "      --composer <s>        Backend: chrome, pdfcpu")
	fmt.Fprintln(w, "      --paper <s>           Paper size: a4, letter, legal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-poll details")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  BOOKROLL_URL, BOOKROLL_REMOTE, BOOKROLL_CONFIG, BOOKROLL_OUTPUT_DIR, ...")
	fmt.Fprintln(w, "  override the config file; flags override both.")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookroll doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome can be found or reached and the system is ready.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print the report as JSON")
	fmt.Fprintln(w, "      --remote <addr>       Check a running Chrome instead of a local install")
}

// runHelp prints help for a specific command.
// It reports false when the command is unknown.
func runHelp(args []string, env *Environment) bool {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return true
	}

	switch args[0] {
	case "capture":
		printCaptureUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: bookroll version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: bookroll help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return false
	}
	return true
}
