package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheDir is where pages are cached unless a PageCache says otherwise.
var DefaultCacheDir = filepath.Join("output", "cache")

// DefaultCacheTTL bounds how long a cached page is served.
const DefaultCacheTTL = 24 * time.Hour

// PageCache stores fetched landing pages on disk, one JSON entry per URL.
type PageCache struct {
	Dir string
	TTL time.Duration

	now func() time.Time
}

type cacheEntry struct {
	URL       string    `json:"url"`
	Mode      Mode      `json:"mode"`
	FetchedAt time.Time `json:"fetched_at"`
	HTML      string    `json:"html"`
}

// NewPageCache returns a cache rooted at dir (DefaultCacheDir when empty).
func NewPageCache(dir string) *PageCache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &PageCache{Dir: dir, TTL: DefaultCacheTTL, now: time.Now}
}

// Path is the entry file for pageURL.
func (c *PageCache) Path(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:16])+".json")
}

// Load returns the cached fetch of pageURL. Entries older than TTL, entries
// recorded for another URL and unreadable files are misses.
func (c *PageCache) Load(pageURL string) (Result, bool) {
	data, err := os.ReadFile(c.Path(pageURL))
	if err != nil {
		return Result{}, false
	}
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil || e.URL != pageURL {
		return Result{}, false
	}
	if c.TTL > 0 && c.clock().Sub(e.FetchedAt) > c.TTL {
		return Result{}, false
	}
	return Result{HTML: e.HTML, FinalMode: e.Mode, SourceInfo: "cache:" + string(e.Mode)}, true
}

// Store records res as the current copy of pageURL.
func (c *PageCache) Store(pageURL string, res Result) error {
	data, err := json.Marshal(cacheEntry{
		URL:       pageURL,
		Mode:      res.FinalMode,
		FetchedAt: c.clock().UTC(),
		HTML:      res.HTML,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	tmp := c.Path(pageURL) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.Path(pageURL))
}

func (c *PageCache) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
