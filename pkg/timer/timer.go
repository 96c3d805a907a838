// Package timer measures how long a scope takes and delivers the elapsed
// duration to a [Sink] exactly once.
//
// The usual form is a deferred stop, which fires on every exit path,
// including early returns and panics:
//
//	defer timer.Start("loading icons", timer.LogSink(logger)).Stop()
//
// [Time] wraps a function instead:
//
//	err := timer.Time("rebuild", timer.BufferSink(samples), rebuild)
//
// Sinks decide where the sample goes: a log line ([LogSink]), a ring buffer
// owned by a single goroutine ([BufferSink]), a lock-guarded ring buffer
// shared between goroutines ([SharedSink]), or a Prometheus observer
// ([HistogramSink]).
package timer

import (
	"sync"
	"time"
)

// Sink receives one elapsed duration per [Timer].
type Sink interface {
	Record(label string, elapsed time.Duration)
}

// SinkFunc adapts a function to a [Sink].
type SinkFunc func(label string, elapsed time.Duration)

// Record calls f(label, elapsed).
func (f SinkFunc) Record(label string, elapsed time.Duration) {
	f(label, elapsed)
}

// Timer is a running measurement. Create it with [Start] and finish it with
// [Timer.Stop].
type Timer struct {
	label string
	start time.Time
	sink  Sink

	once    sync.Once
	elapsed time.Duration
}

// Start starts the clock. Nothing is delivered to sink until [Timer.Stop].
// A nil sink discards the sample, as [Multi] does.
func Start(label string, sink Sink) *Timer {
	return &Timer{
		label: label,
		start: now(),
		sink:  sink,
	}
}

// Stop delivers the elapsed time to the sink and returns it.
//
// Only the first call records. Later calls return the same duration without
// touching the sink.
func (t *Timer) Stop() time.Duration {
	t.once.Do(func() {
		t.elapsed = now().Sub(t.start)

		if t.sink != nil {
			t.sink.Record(t.label, t.elapsed)
		}
	})

	return t.elapsed
}

// Label returns the label given to [Start].
func (t *Timer) Label() string {
	return t.label
}

// Time runs fn inside a timer scope and returns fn's error. The sample is
// recorded before Time returns or panics.
func Time(label string, sink Sink, fn func() error) error {
	defer Start(label, sink).Stop()

	return fn()
}

// now is replaced in tests.
var now = time.Now
