// Package testutil holds small helpers shared by package tests.
package testutil

import (
	"io"
	"log/slog"
)

// Logger returns a logger that discards everything, keeping test output to
// the assertions that matter.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
