package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/calvinalkan/assetcache/internal/config"
	"github.com/calvinalkan/assetcache/pkg/asset"
	"github.com/calvinalkan/assetcache/pkg/fs"
	"github.com/calvinalkan/assetcache/pkg/lazycache"
	"github.com/calvinalkan/assetcache/pkg/locate"
	"github.com/calvinalkan/assetcache/pkg/timer"
)

// app holds what commands share. Config is loaded on first use so that
// "--help" works even with a broken config file.
type app struct {
	in     io.Reader
	errOut io.Writer
	fs     fs.FS
	input  config.LoadInput

	cfg    config.Config
	logger *slog.Logger
	loaded bool
}

func (a *app) ready() error {
	if a.loaded {
		return nil
	}

	cfg, err := config.Load(a.input)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	a.loaded = true

	return nil
}

// assetDir resolves the configured asset directory. Absolute paths are used
// as-is, anything else is searched for around the working directory.
func (a *app) assetDir() (string, error) {
	dir := a.cfg.AssetDir

	if filepath.IsAbs(dir) {
		info, err := a.fs.Stat(dir)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: %s is not a directory", lazycache.ErrConfigMissing, dir)
		}

		return dir, nil
	}

	found, err := locate.Folder(a.fs, a.cfg.EffectiveCwd, dir, a.cfg.Parents(), a.cfg.Kids())
	if err != nil {
		return "", fmt.Errorf("%w: %w", lazycache.ErrConfigMissing, err)
	}

	a.logger.Debug("found asset directory", "path", found)

	return found, nil
}

func (a *app) newCache(mmap bool, opts ...lazycache.Option) (*lazycache.Cache[*asset.Asset], error) {
	dir, err := a.assetDir()
	if err != nil {
		return nil, err
	}

	loader := asset.NewLoader(a.fs, asset.Options{Mmap: mmap || a.cfg.UseMmap()})
	opts = append([]lazycache.Option{lazycache.WithLogger(a.logger)}, opts...)

	return lazycache.New[*asset.Asset](dir, loader, opts...)
}

// closeAssets releases every cached asset. The cache never closes its values.
func (a *app) closeAssets(cache *lazycache.Cache[*asset.Asset]) {
	for _, key := range cache.Keys() {
		v, ok := cache.Get(key)
		if !ok {
			continue
		}

		if err := v.Close(); err != nil {
			a.logger.Warn("closing asset", "key", key, "error", err)
		}
	}
}

func printSummary(o *IO, name string, s timer.Summary) {
	o.Printf("# %s: n=%d total=%s mean=%s min=%s p50=%s p95=%s max=%s\n",
		name, s.Count, round(s.Total), round(s.Mean), round(s.Min), round(s.P50), round(s.P95), round(s.Max))
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Microsecond)
}
