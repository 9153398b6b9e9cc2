// Package cache keeps fetched lyrics on disk so a song plays offline the
// second time and remembers its sync offset.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	cacheVersion   = 2
	defaultTTL     = 30 * 24 * time.Hour
	cacheDirName   = "lyrhaze"
	lyricsDirName  = "lyrics"
	entryExtension = ".bin"
)

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheExpired = errors.New("cache expired")
	ErrCacheCorrupt = errors.New("cache corrupt")
)

// Entry is one cached lyric set. Lyrics holds the raw LRC text; parsing is
// cheap and the raw form survives parser changes.
type Entry struct {
	Version      uint8
	Artist       string
	Title        string
	Album        string
	DurationMs   int64
	Source       string
	Instrumental bool
	Lyrics       string
	PlainLyrics  string
	SyncOffset   float64
	CreatedAt    int64
	ExpiresAt    int64
}

func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt <= now.Unix()
}

type DiskCache struct {
	basePath string
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	memCache map[string]*Entry
}

type Option func(*DiskCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *DiskCache) {
		c.ttl = ttl
	}
}

func WithNow(now func() time.Time) Option {
	return func(c *DiskCache) {
		c.now = now
	}
}

var (
	globalCache     *DiskCache
	globalCacheOnce sync.Once
)

// GetGlobalCache returns the process wide cache. When the cache directory
// cannot be created it degrades to a memory only cache.
func GetGlobalCache() *DiskCache {
	globalCacheOnce.Do(func() {
		c, err := NewDiskCache()
		if err != nil {
			c = NewMemoryCache()
		}
		globalCache = c
	})
	return globalCache
}

// NewDiskCache opens the cache under $XDG_CACHE_HOME (or ~/.cache).
func NewDiskCache(opts ...Option) (*DiskCache, error) {
	dir, err := Directory()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(dir, lyricsDirName), opts...)
}

// Open uses path as the entry directory, creating it if needed.
func Open(path string, opts ...Option) (*DiskCache, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	c := newCache(path, opts)
	return c, nil
}

func NewMemoryCache(opts ...Option) *DiskCache {
	return newCache("", opts)
}

func newCache(path string, opts []Option) *DiskCache {
	c := &DiskCache{
		basePath: path,
		ttl:      defaultTTL,
		now:      time.Now,
		memCache: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func Directory() (string, error) {
	// xdg cache home takes priority
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, cacheDirName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".cache", cacheDirName), nil
}

func (c *DiskCache) Path() string {
	return c.basePath
}

func generateKey(artist, title string) string {
	normalized := strings.ToLower(strings.TrimSpace(artist)) + "|" + strings.ToLower(strings.TrimSpace(title))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:12])
}

func (c *DiskCache) filePath(key string) string {
	return filepath.Join(c.basePath, key+entryExtension)
}

func (c *DiskCache) Get(artist, title string) (*Entry, error) {
	if artist == "" || title == "" {
		return nil, ErrCacheMiss
	}

	key := generateKey(artist, title)
	now := c.now()

	c.mu.RLock()
	entry, exists := c.memCache[key]
	c.mu.RUnlock()

	if exists {
		if !entry.Expired(now) {
			return entry, nil
		}
		c.mu.Lock()
		delete(c.memCache, key)
		c.mu.Unlock()
	}

	if c.basePath == "" {
		if exists {
			return nil, ErrCacheExpired
		}
		return nil, ErrCacheMiss
	}

	path := c.filePath(key)
	entry, err := readEntry(path)
	if err != nil {
		return nil, err
	}

	if entry.Expired(now) {
		_ = os.Remove(path)
		return nil, ErrCacheExpired
	}

	c.mu.Lock()
	c.memCache[key] = entry
	c.mu.Unlock()

	return entry, nil
}

// Set stamps entry with the cache version and expiry and stores it.
func (c *DiskCache) Set(artist, title string, entry *Entry) error {
	if artist == "" || title == "" || entry == nil {
		return errors.New("invalid cache entry")
	}

	key := generateKey(artist, title)

	now := c.now()
	entry.Version = cacheVersion
	if entry.Artist == "" {
		entry.Artist = artist
	}
	if entry.Title == "" {
		entry.Title = title
	}
	entry.CreatedAt = now.Unix()
	entry.ExpiresAt = now.Add(c.ttl).Unix()

	c.mu.Lock()
	c.memCache[key] = entry
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}

	return writeEntry(c.filePath(key), entry)
}

// SetSyncOffset updates the offset of an existing entry. A missing entry is
// not an error: there is nothing to remember the offset for.
func (c *DiskCache) SetSyncOffset(artist, title string, offset float64) error {
	entry, err := c.Get(artist, title)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheExpired) {
			return nil
		}
		return err
	}

	updated := *entry
	updated.SyncOffset = offset
	return c.Set(artist, title, &updated)
}

func readEntry(path string) (*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	defer file.Close()

	var entry Entry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, ErrCacheCorrupt
	}

	// version mismatch means stale format
	if entry.Version != cacheVersion {
		_ = os.Remove(path)
		return nil, ErrCacheCorrupt
	}

	return &entry, nil
}

// writeEntry goes through a temp file and a rename so readers never see a
// partial entry.
func writeEntry(path string, entry *Entry) error {
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(entry); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

func (c *DiskCache) entryFiles() ([]string, error) {
	if c.basePath == "" {
		return nil, nil
	}

	dirEntries, err := os.ReadDir(c.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, d := range dirEntries {
		if !d.IsDir() && strings.HasSuffix(d.Name(), entryExtension) {
			files = append(files, filepath.Join(c.basePath, d.Name()))
		}
	}
	return files, nil
}

func (c *DiskCache) Clear() error {
	c.mu.Lock()
	c.memCache = make(map[string]*Entry)
	c.mu.Unlock()

	files, err := c.entryFiles()
	if err != nil {
		return err
	}
	for _, path := range files {
		_ = os.Remove(path)
	}
	return nil
}

// Prune removes expired and unreadable entries and reports how many went.
func (c *DiskCache) Prune() (int, error) {
	now := c.now()
	pruned := 0

	c.mu.Lock()
	for key, entry := range c.memCache {
		if entry.Expired(now) {
			delete(c.memCache, key)
			if c.basePath == "" {
				pruned++
			}
		}
	}
	c.mu.Unlock()

	files, err := c.entryFiles()
	if err != nil {
		return pruned, err
	}

	for _, path := range files {
		entry, err := readEntry(path)
		if err != nil || entry.Expired(now) {
			_ = os.Remove(path)
			pruned++
		}
	}

	return pruned, nil
}

func (c *DiskCache) Stats() (count int, sizeBytes int64, err error) {
	if c.basePath == "" {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return len(c.memCache), 0, nil
	}

	files, err := c.entryFiles()
	if err != nil {
		return 0, 0, err
	}

	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		count++
		sizeBytes += info.Size()
	}

	return count, sizeBytes, nil
}

// ListAll returns every readable entry, newest first.
func (c *DiskCache) ListAll() ([]*Entry, error) {
	var result []*Entry

	if c.basePath == "" {
		c.mu.RLock()
		for _, entry := range c.memCache {
			result = append(result, entry)
		}
		c.mu.RUnlock()
	} else {
		files, err := c.entryFiles()
		if err != nil {
			return nil, err
		}
		for _, path := range files {
			entry, err := readEntry(path)
			if err != nil {
				continue
			}
			result = append(result, entry)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].Artist+result[i].Title < result[j].Artist+result[j].Title
	})
	return result, nil
}

func (c *DiskCache) Delete(artist, title string) error {
	if artist == "" || title == "" {
		return errors.New("invalid artist or title")
	}

	key := generateKey(artist, title)

	c.mu.Lock()
	delete(c.memCache, key)
	c.mu.Unlock()

	if c.basePath == "" {
		return nil
	}

	err := os.Remove(c.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
