package infrastructure

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediadl/internal/domain"
)

const testCacheDir = "/cache"

func newTestCache(t *testing.T, fs afero.Fs, maxAge time.Duration, maxSize int64) *ContentCache {
	cache, err := NewContentCache(fs, testCacheDir, maxAge, maxSize, nil)
	require.NoError(t, err)
	return cache
}

func writeFile(t *testing.T, fs afero.Fs, path string, size int) {
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, make([]byte, size), 0644))
}

func TestCacheKey(t *testing.T) {
	// md5("https://a/1:video")
	key := CacheKey("https://a/1", domain.KindVideo)
	assert.Len(t, key, 32)
	assert.Equal(t, key, CacheKey("https://a/1", domain.KindVideo))
	assert.NotEqual(t, key, CacheKey("https://a/1", domain.KindAudio))
}

func TestContentCache_InitCreatesIndex(t *testing.T) {
	fs := afero.NewMemMapFs()
	newTestCache(t, fs, time.Hour, 1024)

	exists, err := afero.Exists(fs, filepath.Join(testCacheDir, metadataFileName))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestContentCache_StoreAndLookup(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)
	writeFile(t, fs, "/downloads/clip.mp4", 100)

	_, ok := cache.Lookup("https://a/1", domain.KindVideo)
	assert.False(t, ok)

	assert.True(t, cache.Store("https://a/1", domain.KindVideo, "/downloads/clip.mp4"))

	path, ok := cache.Lookup("https://a/1", domain.KindVideo)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(testCacheDir, CacheKey("https://a/1", domain.KindVideo)), path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Len(t, data, 100)

	// a different media kind is a different entry
	_, ok = cache.Lookup("https://a/1", domain.KindAudio)
	assert.False(t, ok)
}

func TestContentCache_StoreMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)

	assert.False(t, cache.Store("https://a/1", domain.KindVideo, "/nope.mp4"))
	assert.Empty(t, cache.Entries())
}

func TestContentCache_FailedStoreKeepsPreviousCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)
	writeFile(t, fs, "/downloads/clip.mp4", 100)
	require.True(t, cache.Store("https://a/1", domain.KindVideo, "/downloads/clip.mp4"))

	require.NoError(t, fs.MkdirAll("/downloads/not-a-file", 0755))
	assert.False(t, cache.Store("https://a/1", domain.KindVideo, "/downloads/not-a-file"))
	assert.False(t, cache.Store("https://a/1", domain.KindVideo, "/nope.mp4"))

	path, ok := cache.Lookup("https://a/1", domain.KindVideo)
	require.True(t, ok)
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Len(t, data, 100)

	exists, _ := afero.Exists(fs, path+partSuffix)
	assert.False(t, exists)
}

func TestContentCache_LookupTouchesLastAccessed(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)
	writeFile(t, fs, "/downloads/a.mp4", 10)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return start }
	require.True(t, cache.Store("https://a/1", domain.KindVideo, "/downloads/a.mp4"))

	later := start.Add(30 * time.Minute)
	cache.now = func() time.Time { return later }
	_, ok := cache.Lookup("https://a/1", domain.KindVideo)
	require.True(t, ok)

	entry := cache.Entries()[CacheKey("https://a/1", domain.KindVideo)]
	assert.True(t, entry.LastAccessed.Equal(later))
	assert.True(t, entry.CachedAt.Equal(start))
}

func TestContentCache_EvictByAge(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)
	writeFile(t, fs, "/downloads/old.mp4", 10)
	writeFile(t, fs, "/downloads/new.mp4", 10)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return start }
	require.True(t, cache.Store("https://a/old", domain.KindVideo, "/downloads/old.mp4"))

	cache.now = func() time.Time { return start.Add(90 * time.Minute) }
	require.True(t, cache.Store("https://a/new", domain.KindVideo, "/downloads/new.mp4"))

	assert.Equal(t, 1, cache.Evict())

	_, ok := cache.Lookup("https://a/old", domain.KindVideo)
	assert.False(t, ok)
	_, ok = cache.Lookup("https://a/new", domain.KindVideo)
	assert.True(t, ok)
}

func TestContentCache_EvictBySize(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 250)
	for _, name := range []string{"a", "b", "c"} {
		writeFile(t, fs, "/downloads/"+name+".mp4", 100)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		at := start.Add(time.Duration(i) * time.Minute)
		cache.now = func() time.Time { return at }
		require.True(t, cache.Store("https://x/"+name, domain.KindVideo, "/downloads/"+name+".mp4"))
	}

	cache.now = func() time.Time { return start.Add(5 * time.Minute) }
	assert.Equal(t, 1, cache.Evict())

	// the least recently accessed entry goes first
	entries := cache.Entries()
	assert.NotContains(t, entries, CacheKey("https://x/a", domain.KindVideo))
	assert.Contains(t, entries, CacheKey("https://x/b", domain.KindVideo))
	assert.Contains(t, entries, CacheKey("https://x/c", domain.KindVideo))

	stats := cache.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(200), stats.Bytes)
	assert.Equal(t, int64(250), stats.MaxSize)
}

func TestContentCache_EvictDropsMissingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)
	writeFile(t, fs, "/downloads/a.mp4", 10)
	require.True(t, cache.Store("https://a/1", domain.KindVideo, "/downloads/a.mp4"))

	require.NoError(t, fs.Remove(filepath.Join(testCacheDir, CacheKey("https://a/1", domain.KindVideo))))

	assert.Equal(t, 1, cache.Evict())
	assert.Empty(t, cache.Entries())
}

func TestContentCache_CorruptIndexReadsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(testCacheDir, metadataFileName), []byte("{not json"), 0644))

	_, ok := cache.Lookup("https://a/1", domain.KindVideo)
	assert.False(t, ok)
	assert.Empty(t, cache.Entries())
}

func TestContentCache_Clear(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := newTestCache(t, fs, time.Hour, 1024)
	writeFile(t, fs, "/downloads/a.mp4", 10)
	require.True(t, cache.Store("https://a/1", domain.KindVideo, "/downloads/a.mp4"))

	assert.True(t, cache.Clear())

	_, ok := cache.Lookup("https://a/1", domain.KindVideo)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().Entries)

	exists, _ := afero.Exists(fs, filepath.Join(testCacheDir, metadataFileName))
	assert.True(t, exists)
}
