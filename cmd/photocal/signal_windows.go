//go:build windows

package main

import "os"

// shutdownSignals stop the server gracefully. Windows has no SIGTERM.
var shutdownSignals = []os.Signal{os.Interrupt}
