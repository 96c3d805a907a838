package lazycache_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/assetcache/pkg/lazycache"
)

var errNotOnDisk = errors.New("not on disk")

// countingLoader records every call and answers from a fixed table.
type countingLoader struct {
	calls   []string
	bases   []string
	present map[string]string
}

func (l *countingLoader) Load(baseDir, key string) (string, error) {
	l.calls = append(l.calls, key)
	l.bases = append(l.bases, baseDir)

	v, ok := l.present[key]
	if !ok {
		return "", errNotOnDisk
	}

	return v, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCache(t *testing.T, loader lazycache.Loader[string], opts ...lazycache.Option) *lazycache.Cache[string] {
	t.Helper()

	opts = append([]lazycache.Option{lazycache.WithLogger(quietLogger())}, opts...)

	cache, err := lazycache.New("/assets", loader, opts...)
	require.NoError(t, err)

	return cache
}

func Test_New_Returns_ErrConfigMissing_When_BaseDir_Empty(t *testing.T) {
	t.Parallel()

	cache, err := lazycache.New[string]("", &countingLoader{})
	require.ErrorIs(t, err, lazycache.ErrConfigMissing)
	assert.Nil(t, cache)
}

func Test_New_Panics_When_Loader_Nil(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		_, _ = lazycache.New[string]("/assets", nil)
	})
}

func Test_GetOrLoad_Retries_Loader_When_Previous_Load_Failed(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{}
	cache := newCache(t, loader)

	_, err := cache.GetOrLoad("missing.png")
	require.ErrorIs(t, err, lazycache.ErrLoad)
	require.ErrorIs(t, err, errNotOnDisk)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.GetOrLoad("missing.png")
	require.ErrorIs(t, err, lazycache.ErrLoad)
	assert.Equal(t, 0, cache.Len())

	assert.Equal(t, []string{"missing.png", "missing.png"}, loader.calls)
}

func Test_GetOrLoad_Loads_Once_When_Called_Twice(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{present: map[string]string{"icon.png": "ICON"}}
	cache := newCache(t, loader)

	first, err := cache.GetOrLoad("icon.png")
	require.NoError(t, err)

	second, err := cache.GetOrLoad("icon.png")
	require.NoError(t, err)

	assert.Equal(t, "ICON", first)
	assert.Equal(t, "ICON", second)
	assert.Equal(t, []string{"icon.png"}, loader.calls)
	assert.Equal(t, []string{"/assets"}, loader.bases)
}

func Test_GetOrLoad_Succeeds_When_Resource_Appears_After_Failure(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{present: map[string]string{}}
	cache := newCache(t, loader)

	_, err := cache.GetOrLoad("late.png")
	require.ErrorIs(t, err, lazycache.ErrLoad)

	loader.present["late.png"] = "LATE"

	v, err := cache.GetOrLoad("late.png")
	require.NoError(t, err)
	assert.Equal(t, "LATE", v)
	assert.Len(t, loader.calls, 2)
}

func Test_Insert_Skips_Loader_When_Key_Present(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{present: map[string]string{"a.png": "A"}}
	cache := newCache(t, loader)

	require.NoError(t, cache.Insert("a.png"))

	for range 5 {
		require.NoError(t, cache.Insert("a.png"))
	}

	assert.Len(t, loader.calls, 1)
	assert.Equal(t, 1, cache.Len())
}

func Test_Insert_Leaves_Cache_Unchanged_When_Load_Fails(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{present: map[string]string{"a.png": "A"}}
	cache := newCache(t, loader)

	require.NoError(t, cache.Insert("a.png"))

	err := cache.Insert("b.png")
	require.ErrorIs(t, err, lazycache.ErrLoad)
	assert.Contains(t, err.Error(), `"b.png"`)

	if diff := cmp.Diff([]string{"a.png"}, cache.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	_, ok := cache.Get("b.png")
	assert.False(t, ok)
}

func Test_GetOrLoad_Returns_ErrInconsistent_When_Store_Loses_Value(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{present: map[string]string{"icon.png": "ICON"}}
	cache := newCache(t, loader)

	lazycache.DropStores(cache)

	_, err := cache.GetOrLoad("icon.png")
	require.ErrorIs(t, err, lazycache.ErrInconsistent)
	assert.NotErrorIs(t, err, lazycache.ErrLoad)
}

func Test_Get_Does_Not_Load_When_Key_Missing(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{present: map[string]string{"icon.png": "ICON"}}
	cache := newCache(t, loader)

	_, ok := cache.Get("icon.png")
	assert.False(t, ok)
	assert.Empty(t, loader.calls)

	_, err := cache.GetOrLoad("icon.png")
	require.NoError(t, err)

	v, ok := cache.Get("icon.png")
	assert.True(t, ok)
	assert.Equal(t, "ICON", v)
}

func Test_Keys_Returns_Sorted_Loaded_Keys(t *testing.T) {
	t.Parallel()

	loader := &countingLoader{present: map[string]string{"c": "3", "a": "1", "b": "2"}}
	cache := newCache(t, loader)

	for _, k := range []string{"c", "missing", "a", "b"} {
		_ = cache.Insert(k)
	}

	assert.Equal(t, []string{"a", "b", "c"}, cache.Keys())
	assert.Equal(t, "/assets", cache.BaseDir())
}

func Test_LoaderFunc_Is_Called_With_BaseDir_And_Key(t *testing.T) {
	t.Parallel()

	var gotBase, gotKey string

	loader := lazycache.LoaderFunc[int](func(baseDir, key string) (int, error) {
		gotBase, gotKey = baseDir, key

		return len(key), nil
	})

	cache, err := lazycache.New[int]("/srv/assets", loader, lazycache.WithLogger(quietLogger()))
	require.NoError(t, err)

	v, err := cache.GetOrLoad("abc")
	require.NoError(t, err)

	assert.Equal(t, 3, v)
	assert.Equal(t, "/srv/assets", gotBase)
	assert.Equal(t, "abc", gotKey)
}

func Test_Cache_Logs_Insert_And_Load_Timing(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	loader := &countingLoader{present: map[string]string{"icon.png": "ICON"}}

	cache, err := lazycache.New[string]("/assets", loader, lazycache.WithLogger(logger))
	require.NoError(t, err)

	_, err = cache.GetOrLoad("icon.png")
	require.NoError(t, err)

	logged := out.String()
	assert.Contains(t, logged, "msg=inserting key=icon.png")
	assert.Contains(t, logged, `msg="getting icon.png" time_taken=`)

	out.Reset()

	_, err = cache.GetOrLoad("icon.png")
	require.NoError(t, err)
	assert.Empty(t, out.String(), "cached lookups must not log")
}
