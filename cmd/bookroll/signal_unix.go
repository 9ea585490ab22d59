//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals end a capture early. SIGHUP covers a closed terminal
// during a long session.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
