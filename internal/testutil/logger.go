// Package testutil holds helpers shared by package tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger logs at debug level into the test's own output, so planner
// decisions show up next to the failing assertion.
func NewTestLogger(tb testing.TB) *slog.Logger {
	tb.Helper()
	handler := slog.NewTextHandler(tbWriter{tb: tb}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler).With("test", tb.Name())
}

// tbWriter forwards each handler write to tb.Log.
type tbWriter struct {
	tb testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}
