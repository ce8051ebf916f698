//go:build unix

package cmd

import (
	"os"

	"golang.org/x/sys/unix"
)

// shutdownSignals cancel a running traversal.
var shutdownSignals = []os.Signal{unix.SIGINT, unix.SIGTERM}
