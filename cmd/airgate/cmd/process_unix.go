//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// gracefulSignals returns SIGINT and SIGTERM, the signals "airgate stop"
// and Ctrl+C deliver.
func gracefulSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// processIsAlive probes pid with signal 0.
func processIsAlive(proc *os.Process) bool {
	return proc.Signal(syscall.Signal(0)) == nil
}

// sendGracefulStop lets the server drain in-flight requests.
func sendGracefulStop(proc *os.Process) error {
	return proc.Signal(syscall.SIGTERM)
}
