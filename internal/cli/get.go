package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/assetcache/pkg/asset"
	"github.com/calvinalkan/assetcache/pkg/ring"
	"github.com/calvinalkan/assetcache/pkg/timer"
)

// GetCmd returns the get command.
func GetCmd(a *app) *Command {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	mmap := flags.Bool("mmap", false, "Map assets read-only instead of reading them into memory")

	return &Command{
		Flags: flags,
		Usage: "get [--mmap] <key>...",
		Short: "Load assets and print their sizes",
		Long: `Load each key from the asset directory and print "<key>\t<bytes>".

Repeated keys are served from the cache. Keys that fail to load are reported
as warnings and make the command exit 1. A timing summary follows the list.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execGet(ctx, a, o, args, *mmap)
		},
	}
}

func execGet(ctx context.Context, a *app, o *IO, keys []string, mmap bool) error {
	if len(keys) == 0 {
		return errKeysRequired
	}

	if err := a.ready(); err != nil {
		return err
	}

	samples, err := ring.New[time.Duration](a.cfg.Capacity())
	if err != nil {
		return err
	}

	cache, err := a.newCache(mmap)
	if err != nil {
		return err
	}

	defer a.closeAssets(cache)

	sink := timer.BufferSink(samples)

	for _, key := range keys {
		if ctx.Err() != nil {
			o.Warn("interrupted", "remaining keys were skipped")

			break
		}

		var loaded *asset.Asset

		err := timer.Time("get "+key, sink, func() error {
			var loadErr error

			loaded, loadErr = cache.GetOrLoad(key)

			return loadErr
		})
		if err != nil {
			o.Warn("cannot load "+key, err.Error())

			continue
		}

		o.Printf("%s\t%d\n", key, loaded.Size())
	}

	printSummary(o, "get", timer.Summarize(samples.Samples()))

	return nil
}
