//go:build windows

package main

import "os"

// shutdownSignals end a capture early.
// syscall.SIGTERM is not delivered on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
