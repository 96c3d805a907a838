package timer_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/assetcache/pkg/ring"
	"github.com/calvinalkan/assetcache/pkg/timer"
)

var errEarly = errors.New("early exit")

// stepClock returns a clock advancing by step on every call.
func stepClock(step time.Duration) func() time.Time {
	var mu sync.Mutex

	current := time.Unix(0, 0)

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		current = current.Add(step)

		return current
	}
}

type recordingSink struct {
	mu      sync.Mutex
	labels  []string
	elapsed []time.Duration
}

func (r *recordingSink) Record(label string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.labels = append(r.labels, label)
	r.elapsed = append(r.elapsed, elapsed)
}

func Test_Timer_Records_Elapsed_When_Stopped(t *testing.T) {
	timer.SetClock(t, stepClock(10*time.Millisecond))

	sink := &recordingSink{}

	tm := timer.Start("work", sink)
	got := tm.Stop()

	assert.Equal(t, 10*time.Millisecond, got)
	assert.Equal(t, []string{"work"}, sink.labels)
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, sink.elapsed)
	assert.Equal(t, "work", tm.Label())
}

func Test_Timer_Records_Once_When_Stopped_Repeatedly(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}

	tm := timer.Start("work", sink)
	first := tm.Stop()
	second := tm.Stop()
	third := tm.Stop()

	assert.Len(t, sink.elapsed, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func Test_Timer_Records_Once_When_Stopped_Concurrently(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	tm := timer.Start("work", sink)

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() { tm.Stop() })
	}

	wg.Wait()

	assert.Len(t, sink.elapsed, 1)
}

func Test_Timer_Records_Nothing_When_Not_Stopped(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	_ = timer.Start("work", sink)

	assert.Empty(t, sink.elapsed)
}

func Test_Timer_Discards_Sample_When_Sink_Nil(t *testing.T) {
	timer.SetClock(t, stepClock(5*time.Millisecond))

	var got time.Duration

	require.NotPanics(t, func() {
		tm := timer.Start("no sink", nil)
		defer func() { got = tm.Stop() }()
	})

	assert.Equal(t, 5*time.Millisecond, got)
	require.NoError(t, timer.Time("no sink", nil, func() error { return nil }))
}

func Test_Timer_Records_Once_When_Scope_Returns_Early_With_Error(t *testing.T) {
	t.Parallel()

	buf, err := ring.New[time.Duration](4)
	require.NoError(t, err)

	work := func(fail bool) error {
		defer timer.Start("work", timer.BufferSink(buf)).Stop()

		if fail {
			return errEarly
		}

		return nil
	}

	require.ErrorIs(t, work(true), errEarly)
	assert.Equal(t, 1, buf.Len())

	require.NoError(t, work(false))
	assert.Equal(t, 2, buf.Len())
}

func Test_Timer_Records_Once_When_Scope_Panics(t *testing.T) {
	t.Parallel()

	buf, err := ring.New[time.Duration](4)
	require.NoError(t, err)

	assert.Panics(t, func() {
		defer timer.Start("work", timer.BufferSink(buf)).Stop()

		panic("boom")
	})

	assert.Equal(t, 1, buf.Len())
}

func Test_Time_Returns_Fn_Error_After_Recording(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}

	err := timer.Time("work", sink, func() error {
		assert.Empty(t, sink.elapsed, "sample must not be recorded before fn returns")

		return errEarly
	})

	require.ErrorIs(t, err, errEarly)
	assert.Len(t, sink.elapsed, 1)
}

func Test_LogSink_Logs_Label_And_Duration(t *testing.T) {
	timer.SetClock(t, stepClock(1500*time.Microsecond))

	var out bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&out, nil))

	timer.Start("getting icon.png", timer.LogSink(logger)).Stop()

	line := out.String()
	assert.Contains(t, line, `msg="getting icon.png"`)
	assert.Contains(t, line, "time_taken=1.5ms")
	assert.Equal(t, 1, strings.Count(line, "\n"))
}

func Test_SharedSink_Appends_When_Many_Goroutines_Record(t *testing.T) {
	t.Parallel()

	const (
		goroutines = 8
		perWorker  = 200
		capacity   = 50
	)

	shared, err := ring.NewShared[time.Duration](capacity)
	require.NoError(t, err)

	sink := timer.SharedSink(shared, nil)

	var fired atomic.Int64

	var wg sync.WaitGroup

	for range goroutines {
		wg.Go(func() {
			for range perWorker {
				func() {
					defer timer.Start("tick", sink).Stop()

					fired.Add(1)
				}()
			}
		})
	}

	wg.Wait()

	n, err := shared.Len()
	require.NoError(t, err)
	assert.Equal(t, capacity, n)
	assert.Equal(t, int64(goroutines*perWorker), fired.Load())
}

func Test_SharedSink_Exits_When_Buffer_Poisoned(t *testing.T) {
	var codes []int

	timer.SetExit(t, func(code int) { codes = append(codes, code) })

	shared, err := ring.NewShared[time.Duration](2)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = shared.With(func(_ *ring.Buffer[time.Duration]) { panic("half-written") })
	})

	var out bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&out, nil))

	timer.Start("tick", timer.SharedSink(shared, logger)).Stop()

	assert.Equal(t, []int{1}, codes)
	assert.Contains(t, out.String(), "level=ERROR")
	assert.Contains(t, out.String(), "locking timing buffer for timer")
	assert.Contains(t, out.String(), ring.ErrPoisoned.Error())
}

func Test_HistogramSink_Observes_Seconds(t *testing.T) {
	timer.SetClock(t, stepClock(250*time.Millisecond))

	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_seconds",
		Help:    "Test timings.",
		Buckets: []float64{0.1, 0.5, 1},
	})

	timer.Start("work", timer.HistogramSink(hist)).Stop()
	timer.Start("work", timer.HistogramSink(hist)).Stop()

	assert.Equal(t, 1, testutil.CollectAndCount(hist))

	expected := `
# HELP test_seconds Test timings.
# TYPE test_seconds histogram
test_seconds_bucket{le="0.1"} 0
test_seconds_bucket{le="0.5"} 2
test_seconds_bucket{le="1"} 2
test_seconds_bucket{le="+Inf"} 2
test_seconds_sum 0.5
test_seconds_count 2
`
	require.NoError(t, testutil.CollectAndCompare(hist, strings.NewReader(expected)))
}

func Test_Multi_Delivers_To_Every_Sink_When_Some_Are_Nil(t *testing.T) {
	t.Parallel()

	first := &recordingSink{}
	second := &recordingSink{}

	timer.Start("work", timer.Multi(first, nil, second)).Stop()

	assert.Len(t, first.elapsed, 1)
	assert.Len(t, second.elapsed, 1)
	assert.Equal(t, first.elapsed, second.elapsed)
}
