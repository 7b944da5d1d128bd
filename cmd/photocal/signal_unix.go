//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop the server gracefully. SIGTERM is what container
// runtimes send before SIGKILL.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
