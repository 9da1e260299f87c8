package common

import (
	"os"
	"os/signal"
	"syscall"
)

// NewInterruptChannel returns a channel that receives SIGINT and SIGTERM,
// plus a cleanup function to stop signal delivery.
func NewInterruptChannel() (<-chan os.Signal, func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cleanup := func() {
		signal.Stop(sigChan)
	}

	return sigChan, cleanup
}
