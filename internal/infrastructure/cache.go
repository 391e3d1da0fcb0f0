package infrastructure

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/internal/domain"
)

const metadataFileName = "metadata.json"

// CacheEntry is one record of the cache index
type CacheEntry struct {
	URL          string           `json:"url"`
	Kind         domain.MediaKind `json:"media_type"`
	OriginalPath string           `json:"original_path"`
	CachedAt     time.Time        `json:"cached_date"`
	LastAccessed time.Time        `json:"last_accessed"`
}

// CacheStats summarizes the resident cache
type CacheStats struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
	MaxSize int64 `json:"max_size"`
}

// ContentCache stores downloaded artifacts keyed by (url, media kind).
// Every operation holds mu for its whole read-modify-write of the index.
type ContentCache struct {
	fs      afero.Fs
	dir     string
	maxAge  time.Duration
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
}

// NewContentCache creates the cache directory and index if needed and evicts stale entries
func NewContentCache(fs afero.Fs, dir string, maxAge time.Duration, maxSize int64, logger *zap.Logger) (*ContentCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ContentCache{
		fs:      fs,
		dir:     dir,
		maxAge:  maxAge,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
	}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if exists, _ := afero.Exists(fs, c.metadataPath()); !exists {
		if err := c.saveIndex(map[string]*CacheEntry{}); err != nil {
			return nil, fmt.Errorf("failed to initialize cache index: %w", err)
		}
	}

	c.Evict()
	return c, nil
}

// CacheKey returns the key of a (url, media kind) pair
func CacheKey(url string, kind domain.MediaKind) string {
	sum := md5.Sum([]byte(url + ":" + string(kind)))
	return hex.EncodeToString(sum[:])
}

// Dir returns the cache directory
func (c *ContentCache) Dir() string {
	return c.dir
}

// Lookup returns the cached file path and touches its last-accessed time
func (c *ContentCache) Lookup(url string, kind domain.MediaKind) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := CacheKey(url, kind)
	index := c.loadIndex()
	entry, ok := index[key]
	if !ok {
		return "", false
	}

	path := filepath.Join(c.dir, key)
	if exists, _ := afero.Exists(c.fs, path); !exists {
		return "", false
	}

	entry.LastAccessed = c.now()
	if err := c.saveIndex(index); err != nil {
		c.logger.Warn("Failed to update cache index", zap.String("key", key), zap.Error(err))
	}
	return path, true
}

const partSuffix = ".part"

// Store copies sourcePath into the cache. I/O failures return false and leave the
// index and any earlier copy for the same key unchanged.
func (c *ContentCache) Store(url string, kind domain.MediaKind, sourcePath string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := CacheKey(url, kind)
	cachedPath := filepath.Join(c.dir, key)
	partPath := cachedPath + partSuffix

	// a previous copy for the key stays resident until the new one is complete
	err := copyFileFs(c.fs, sourcePath, partPath)
	if err == nil {
		err = c.fs.Rename(partPath, cachedPath)
	}
	if err != nil {
		c.logger.Warn("Failed to cache file",
			zap.String("url", url),
			zap.String("source", sourcePath),
			zap.Error(err))
		c.fs.Remove(partPath)
		return false
	}

	index := c.loadIndex()
	now := c.now()
	index[key] = &CacheEntry{
		URL:          url,
		Kind:         kind,
		OriginalPath: sourcePath,
		CachedAt:     now,
		LastAccessed: now,
	}
	if err := c.saveIndex(index); err != nil {
		c.logger.Warn("Failed to save cache index", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Evict prunes missing and expired entries, then drops the least recently accessed
// entries until the resident size fits the ceiling. It returns the number of removed entries.
func (c *ContentCache) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := c.loadIndex()
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return index[keys[i]].LastAccessed.Before(index[keys[j]].LastAccessed)
	})

	now := c.now()
	removed := 0
	remove := func(key string) {
		if err := c.fs.Remove(filepath.Join(c.dir, key)); err != nil {
			c.logger.Debug("Failed to remove cached file", zap.String("key", key), zap.Error(err))
		}
		delete(index, key)
		removed++
	}

	var total int64
	sizes := make(map[string]int64, len(keys))
	kept := keys[:0]
	for _, key := range keys {
		info, err := c.fs.Stat(filepath.Join(c.dir, key))
		if err != nil {
			delete(index, key)
			removed++
			continue
		}
		if now.Sub(index[key].LastAccessed) > c.maxAge {
			remove(key)
			continue
		}
		sizes[key] = info.Size()
		total += info.Size()
		kept = append(kept, key)
	}

	for _, key := range kept {
		if total <= c.maxSize {
			break
		}
		total -= sizes[key]
		remove(key)
	}

	if err := c.saveIndex(index); err != nil {
		c.logger.Warn("Failed to save cache index", zap.Error(err))
	}
	if removed > 0 {
		c.logger.Info("Cache evicted entries", zap.Int("removed", removed), zap.Int64("resident_bytes", total))
	}
	return removed
}

// Clear wipes the cache directory and reinitializes an empty index
func (c *ContentCache) Clear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fs.RemoveAll(c.dir); err != nil {
		c.logger.Warn("Failed to clear cache", zap.Error(err))
		return false
	}
	if err := c.fs.MkdirAll(c.dir, 0755); err != nil {
		c.logger.Warn("Failed to recreate cache directory", zap.Error(err))
		return false
	}
	if err := c.saveIndex(map[string]*CacheEntry{}); err != nil {
		c.logger.Warn("Failed to reset cache index", zap.Error(err))
		return false
	}
	return true
}

// Stats returns the number of indexed entries and their resident size
func (c *ContentCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{MaxSize: c.maxSize}
	for key := range c.loadIndex() {
		if info, err := c.fs.Stat(filepath.Join(c.dir, key)); err == nil {
			stats.Entries++
			stats.Bytes += info.Size()
		}
	}
	return stats
}

// Entries returns a copy of the index
func (c *ContentCache) Entries() map[string]CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]CacheEntry)
	for k, v := range c.loadIndex() {
		out[k] = *v
	}
	return out
}

func (c *ContentCache) metadataPath() string {
	return filepath.Join(c.dir, metadataFileName)
}

// loadIndex reads the index; a missing or corrupt file reads as empty
func (c *ContentCache) loadIndex() map[string]*CacheEntry {
	index := make(map[string]*CacheEntry)
	data, err := afero.ReadFile(c.fs, c.metadataPath())
	if err != nil {
		return index
	}
	if err := json.Unmarshal(data, &index); err != nil {
		c.logger.Warn("Cache index is corrupt, starting empty", zap.Error(err))
		return make(map[string]*CacheEntry)
	}
	for k, v := range index {
		if v == nil {
			delete(index, k)
		}
	}
	return index
}

func (c *ContentCache) saveIndex(index map[string]*CacheEntry) error {
	data, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return afero.WriteFile(c.fs, c.metadataPath(), data, 0644)
}

// copyFileFs copies src to dst on the given filesystem, preserving the modification time
func copyFileFs(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return fs.Chtimes(dst, info.ModTime(), info.ModTime())
}
