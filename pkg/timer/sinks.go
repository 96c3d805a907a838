package timer

import (
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calvinalkan/assetcache/pkg/ring"
)

// LogSink logs each sample at info level with the label as message.
// A nil logger uses [slog.Default].
func LogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(label string, elapsed time.Duration) {
		l := logger
		if l == nil {
			l = slog.Default()
		}

		l.Info(label, slog.Duration("time_taken", elapsed))
	})
}

// BufferSink appends each sample to buf.
//
// buf is not locked. While any timer using this sink is running, nothing else
// may read or write buf. Use [SharedSink] when samples come from several
// goroutines.
func BufferSink(buf *ring.Buffer[time.Duration]) Sink {
	return SinkFunc(func(_ string, elapsed time.Duration) {
		buf.Add(elapsed)
	})
}

// SharedSink appends each sample to a lock-guarded buffer. The lock is held
// only for the append.
//
// A poisoned buffer is fatal: the error is logged and the process exits with
// status 1. A nil logger uses [slog.Default].
func SharedSink(shared *ring.Shared[time.Duration], logger *slog.Logger) Sink {
	return SinkFunc(func(label string, elapsed time.Duration) {
		buf, err := shared.Lock()
		if err != nil {
			l := logger
			if l == nil {
				l = slog.Default()
			}

			l.Error("locking timing buffer for timer", slog.String("timer", label), slog.Any("error", err))
			exit(1)

			return
		}

		buf.Add(elapsed)
		shared.Unlock()
	})
}

// HistogramSink observes each sample in seconds.
func HistogramSink(observer prometheus.Observer) Sink {
	return SinkFunc(func(_ string, elapsed time.Duration) {
		observer.Observe(elapsed.Seconds())
	})
}

// Multi delivers each sample to every sink in order. nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(label string, elapsed time.Duration) {
		for _, s := range sinks {
			if s != nil {
				s.Record(label, elapsed)
			}
		}
	})
}

// exit is replaced in tests.
var exit = os.Exit
