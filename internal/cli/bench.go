package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/assetcache/pkg/asset"
	"github.com/calvinalkan/assetcache/pkg/lazycache"
	"github.com/calvinalkan/assetcache/pkg/ring"
	"github.com/calvinalkan/assetcache/pkg/timer"
)

// BenchCmd returns the bench command.
func BenchCmd(a *app) *Command {
	flags := flag.NewFlagSet("bench", flag.ContinueOnError)
	rounds := flags.IntP("rounds", "n", 100, "Rounds per job")
	jobs := flags.IntP("jobs", "j", 4, "Concurrent jobs")
	statsOut := flags.String("stats-out", "", "Write a JSON stats snapshot to `file`")
	mmap := flags.Bool("mmap", false, "Map assets read-only instead of reading them into memory")

	return &Command{
		Flags: flags,
		Usage: "bench [-n N] [-j J] [--stats-out FILE] <key>...",
		Short: "Hammer a shared cache from concurrent jobs",
		Long: `Start J jobs. Each job runs N rounds, and a round calls get-or-load for
every key on one cache shared by all jobs. Round times go into a
shared sample buffer and are summarized at the end.

An interrupt stops all jobs after their current round.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execBench(ctx, a, o, benchOptions{
				keys:     args,
				rounds:   *rounds,
				jobs:     *jobs,
				statsOut: *statsOut,
				mmap:     *mmap,
			})
		},
	}
}

type benchOptions struct {
	keys     []string
	rounds   int
	jobs     int
	statsOut string
	mmap     bool
}

// benchStats is the --stats-out snapshot.
type benchStats struct {
	AssetDir        string             `json:"asset_dir"`
	Keys            []string           `json:"keys"`
	Jobs            int                `json:"jobs"`
	RoundsPerJob    int                `json:"rounds_per_job"`
	CompletedRounds int64              `json:"completed_rounds"`
	FailedLoads     int64              `json:"failed_loads"`
	Interrupted     bool               `json:"interrupted"`
	Entries         int                `json:"entries"`
	RoundTime       timer.Summary      `json:"round_time"`
	Metrics         map[string]float64 `json:"metrics"`
}

// lockedCache serializes access to a cache shared between jobs.
type lockedCache struct {
	mu    sync.Mutex
	cache *lazycache.Cache[*asset.Asset]
}

func (l *lockedCache) getOrLoad(key string) (*asset.Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.cache.GetOrLoad(key)
}

func execBench(ctx context.Context, a *app, o *IO, opts benchOptions) error {
	if len(opts.keys) == 0 {
		return errKeysRequired
	}

	if opts.rounds <= 0 {
		return fmt.Errorf("%w: %d", errRoundsRange, opts.rounds)
	}

	if opts.jobs <= 0 {
		return fmt.Errorf("%w: %d", errJobsRange, opts.jobs)
	}

	if err := a.ready(); err != nil {
		return err
	}

	samples, err := ring.NewShared[time.Duration](a.cfg.Capacity())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()

	cache, err := a.newCache(opts.mmap, lazycache.WithMetrics(reg, "bench"))
	if err != nil {
		return err
	}

	defer a.closeAssets(cache)

	locked := &lockedCache{cache: cache}
	sink := timer.SharedSink(samples, a.logger)

	var completed, failed atomic.Int64

	var wg sync.WaitGroup

	for job := range opts.jobs {
		wg.Go(func() {
			for round := range opts.rounds {
				if ctx.Err() != nil {
					return
				}

				t := timer.Start(fmt.Sprintf("job %d round %d", job, round), sink)

				for _, key := range opts.keys {
					if _, err := locked.getOrLoad(key); err != nil {
						failed.Add(1)
						a.logger.Debug("bench load failed", "job", job, "key", key, "error", err)
					}
				}

				t.Stop()
				completed.Add(1)
			}
		})
	}

	wg.Wait()

	roundTimes, err := samples.Samples()
	if err != nil {
		return err
	}

	metrics, err := gatherValues(reg)
	if err != nil {
		return err
	}

	stats := benchStats{
		AssetDir:        cache.BaseDir(),
		Keys:            opts.keys,
		Jobs:            opts.jobs,
		RoundsPerJob:    opts.rounds,
		CompletedRounds: completed.Load(),
		FailedLoads:     failed.Load(),
		Interrupted:     ctx.Err() != nil,
		Entries:         cache.Len(),
		RoundTime:       timer.Summarize(roundTimes),
		Metrics:         metrics,
	}

	o.Printf("rounds=%d/%d entries=%d failed_loads=%d\n",
		stats.CompletedRounds, int64(opts.jobs*opts.rounds), stats.Entries, stats.FailedLoads)
	printSummary(o, "round time (last "+fmt.Sprint(len(roundTimes))+")", stats.RoundTime)

	if stats.FailedLoads > 0 {
		o.Warn(fmt.Sprintf("%d loads failed", stats.FailedLoads), "check that every key exists below "+cache.BaseDir())
	}

	if stats.Interrupted {
		o.Warn("interrupted", fmt.Sprintf("stopped after %d rounds", stats.CompletedRounds))
	}

	if opts.statsOut != "" {
		return a.writeStats(opts.statsOut, stats)
	}

	return nil
}

func (a *app) writeStats(path string, stats benchStats) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.EffectiveCwd, path)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}

	err = a.fs.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("creating stats directory: %w", err)
	}

	err = a.fs.WriteFileAtomic(path, append(data, '\n'))
	if err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}

	a.logger.Debug("wrote stats", "path", path)

	return nil
}

// gatherValues flattens counters and gauges by metric name.
func gatherValues(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	values := make(map[string]float64, len(families))

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()+"_count"] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	return values, nil
}
