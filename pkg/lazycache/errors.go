package lazycache

import "errors"

// Sentinel errors returned by lazycache operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, lazycache.ErrLoad) {
//	    // resource missing or unreadable; safe to retry later
//	}
var (
	// ErrLoad indicates the loader could not produce a value for a key.
	// The returned error also wraps the loader's own error.
	//
	// Recovery: fix the resource and call again. Nothing was cached.
	ErrLoad = errors.New("lazycache: load failed")

	// ErrInconsistent indicates a key was reported as stored but could not
	// be found immediately afterwards.
	//
	// This is a bug in the cache's bookkeeping. It never wraps [ErrLoad].
	ErrInconsistent = errors.New("lazycache: asset missing in internal storage")

	// ErrConfigMissing indicates no base directory was available to
	// construct a cache.
	//
	// Recovery: configure or create the asset directory.
	ErrConfigMissing = errors.New("lazycache: base directory missing")
)
