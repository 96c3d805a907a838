package timer

import (
	"testing"
	"time"
)

// SetClock replaces the package clock for the duration of the test.
// Tests using it must not run in parallel.
func SetClock(t testing.TB, fn func() time.Time) {
	t.Helper()

	old := now
	now = fn

	t.Cleanup(func() { now = old })
}

// SetExit replaces process exit for the duration of the test.
// Tests using it must not run in parallel.
func SetExit(t testing.TB, fn func(code int)) {
	t.Helper()

	old := exit
	exit = fn

	t.Cleanup(func() { exit = old })
}
