package logging

import (
	"log"
	"testing"
)

// Func is a logging callback used throughout the engine, pool and CLI
// layers. Implementations must be safe for concurrent use.
type Func func(level Level, format string, args ...any)

// DefaultFunc logs through the standard library logger.
func DefaultFunc(level Level, format string, args ...any) {
	log.Printf(level.String()+": "+format, args...)
}

// Discard drops every log message.
func Discard(level Level, format string, args ...any) {}

// Test returns a Func that routes messages through t.Logf, for use in
// package tests that want engine/pool diagnostics attached to the test
// output.
func Test(t *testing.T) Func {
	return func(level Level, format string, args ...any) {
		t.Helper()
		t.Logf(level.String()+": "+format, args...)
	}
}
