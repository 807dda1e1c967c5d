package util

import (
	"io"
	"log/slog"
)

// CloseFunc closes c and logs the failure; used in defers where the
// close error cannot change the outcome of the caller.
func CloseFunc(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		slog.Warn("close failed", "what", what, "err", err)
	}
}
