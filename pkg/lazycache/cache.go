package lazycache

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/calvinalkan/assetcache/pkg/timer"
)

// Loader produces the value for key, resolved against baseDir.
//
// Whether Load succeeds for a given (baseDir, key) pair should depend only on
// the state of the underlying resource. Errors are treated as retryable.
type Loader[V any] interface {
	Load(baseDir, key string) (V, error)
}

// LoaderFunc adapts a function to a [Loader].
type LoaderFunc[V any] func(baseDir, key string) (V, error)

// Load calls f(baseDir, key).
func (f LoaderFunc[V]) Load(baseDir, key string) (V, error) {
	return f(baseDir, key)
}

// Cache lazily loads and keeps values by key. See the package documentation
// for the concurrency contract.
type Cache[V any] struct {
	baseDir string
	loader  Loader[V]
	entries map[string]V

	logger   *slog.Logger
	metrics  *cacheMetrics // nil unless WithMetrics was given
	loadSink timer.Sink

	// store writes a loaded value. Tests swap it to break bookkeeping.
	store func(key string, v V)
}

// New creates an empty cache rooted at baseDir.
//
// Returns [ErrConfigMissing] if baseDir is empty. Panics if loader is nil.
// Returns an error if metrics registration fails.
func New[V any](baseDir string, loader Loader[V], opts ...Option) (*Cache[V], error) {
	if loader == nil {
		panic("lazycache: loader is nil")
	}

	if baseDir == "" {
		return nil, ErrConfigMissing
	}

	o := applyOptions(opts...)

	c := &Cache[V]{
		baseDir: baseDir,
		loader:  loader,
		entries: make(map[string]V),
		logger:  o.logger,
	}

	c.store = func(key string, v V) {
		c.entries[key] = v
	}

	if o.metricsReg != nil {
		m, err := newCacheMetrics(o.metricsReg, o.metricsComponent)
		if err != nil {
			return nil, err
		}

		c.metrics = m
	}

	c.loadSink = timer.LogSink(c.logger)
	if c.metrics != nil {
		c.loadSink = timer.Multi(c.loadSink, timer.HistogramSink(c.metrics.loadSeconds))
	}

	return c, nil
}

// BaseDir returns the directory keys are resolved against.
func (c *Cache[V]) BaseDir() string {
	return c.baseDir
}

// Insert makes sure key is loaded.
//
// If key is already present, Insert returns nil without calling the loader.
// Otherwise the loader runs; on success the value is stored, on failure the
// error (wrapping [ErrLoad]) is returned and the cache is left unchanged.
func (c *Cache[V]) Insert(key string) error {
	if _, ok := c.entries[key]; ok {
		c.metrics.recordHit()

		return nil
	}

	c.logger.Debug("inserting", slog.String("key", key))

	v, err := c.load(key)

	c.metrics.recordLoad(err != nil)

	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrLoad, key, err)
	}

	c.store(key, v)
	c.metrics.updateEntries(len(c.entries))

	return nil
}

func (c *Cache[V]) load(key string) (V, error) {
	defer timer.Start("getting "+key, c.loadSink).Stop()

	return c.loader.Load(c.baseDir, key)
}

// GetOrLoad returns the value for key, loading it first if needed.
//
// Load failures wrap [ErrLoad]. If the load succeeded but the value cannot be
// found afterwards, GetOrLoad returns [ErrInconsistent].
func (c *Cache[V]) GetOrLoad(key string) (V, error) {
	var zero V

	if err := c.Insert(key); err != nil {
		return zero, err
	}

	v, ok := c.entries[key]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrInconsistent, key)
	}

	return v, nil
}

// Get returns the value for key if it is already loaded. It never calls
// the loader.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.entries[key]

	return v, ok
}

// Len returns the number of loaded entries.
func (c *Cache[V]) Len() int {
	return len(c.entries)
}

// Keys returns the loaded keys in sorted order.
func (c *Cache[V]) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
