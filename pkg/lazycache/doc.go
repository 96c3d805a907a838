// Package lazycache provides a keyed cache that loads values on first use.
//
// A [Cache] maps relative keys such as "icons/save.png" to values produced by
// a [Loader] rooted at a base directory. Successful loads are kept for the
// lifetime of the cache. Failed loads are never remembered: the next access
// to the same key calls the loader again, so a resource that appears on disk
// later is picked up without restarting.
//
//	cache, err := lazycache.New(assetDir, asset.NewLoader(fsys, asset.Options{}))
//	if err != nil {
//	    return err
//	}
//
//	icon, err := cache.GetOrLoad("icon.png")
//
// # Concurrency
//
// Cache is NOT safe for concurrent use and does no locking of its own.
// Callers sharing a cache between goroutines must hold their own mutex
// around every call, loads included. The cache has no single-flight
// deduplication of in-progress loads.
//
// # Errors
//
//   - [ErrLoad]: the loader failed. The cache is unchanged; retrying is fine.
//   - [ErrInconsistent]: a load reported success but the value is missing
//     from storage. This is a bug in the cache, not in the loader.
//   - [ErrConfigMissing]: no base directory was supplied to [New].
//
// # Resource ownership
//
// The cache hands out the values it stores but never releases them. If V
// holds external resources, the owner of the cache releases them, for
// example by ranging over [Cache.Keys] before dropping the cache.
package lazycache
