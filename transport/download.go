package transport

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/imgload/assets"
	"github.com/gogpu/imgload/internal/cache"
)

// StripParameters removes the query string and fragment from rawURL.
func StripParameters(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// CacheKey returns the download cache file name for rawURL. With cut set,
// query and fragment are ignored, so URLs differing only in parameters share
// an entry. The name is a hex SHA-256 prefix of the URL plus the extension of
// its path, ".png" when the path has no image extension.
func CacheKey(rawURL string, cut bool) string {
	if cut {
		rawURL = StripParameters(rawURL)
	}
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:16]) + urlExt(rawURL)
}

func urlExt(rawURL string) string {
	p := StripParameters(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".tga", ".hdr":
		return ext
	default:
		return ".png"
	}
}

// DefaultFetchTimeout bounds a shared fetch once it no longer follows the
// context of the caller that started it.
const DefaultFetchTimeout = 2 * time.Minute

// Download is a cached download result.
type Download struct {
	// Key is the cache key of the download.
	Key string

	// Path is the local file the download is cached in.
	Path string

	// Data is the downloaded content.
	Data []byte

	// Cached is true when Data came from the cache without a fetch.
	Cached bool
}

// DownloadCache keeps downloaded files under a directory, named by CacheKey.
// Entries persist across processes; an in-memory index avoids repeated
// filesystem lookups. Concurrent requests for the same key share one fetch.
//
// A shared fetch is detached from the callers' contexts. Each caller stops
// waiting when its own context is done, and the fetch is cancelled once no
// caller is waiting for it.
type DownloadCache struct {
	fs           assets.FS
	dir          string
	tr           Transport
	index        *cache.Sharded[string, string]
	group        singleflight.Group
	fetchTimeout time.Duration

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the shared context of an in-flight fetch and the number of
// callers waiting for it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewDownloadCache creates a cache storing files in dir through fsys and
// fetching misses with tr.
func NewDownloadCache(fsys assets.FS, dir string, tr Transport) *DownloadCache {
	return &DownloadCache{
		fs:           fsys,
		dir:          dir,
		tr:           tr,
		index:        cache.NewSharded[string, string](0, cache.StringHasher),
		fetchTimeout: DefaultFetchTimeout,
		flights:      make(map[string]*flight),
	}
}

// Dir returns the cache directory.
func (c *DownloadCache) Dir() string { return c.dir }

// Path returns the local file for a cache key.
func (c *DownloadCache) Path(key string) string {
	return filepath.Join(c.dir, key)
}

// Lookup returns the local file cached for key, if any.
func (c *DownloadCache) Lookup(key string) (string, bool) {
	if p, ok := c.index.Get(key); ok {
		return p, true
	}
	p := c.Path(key)
	if !c.fs.Exists(p) {
		return "", false
	}
	c.index.Set(key, p)
	return p, true
}

// Remove drops the entry for key from the index and the directory. Callers
// use it when cached content turns out not to be a valid image, so the next
// Get fetches again.
func (c *DownloadCache) Remove(key string) error {
	c.index.Delete(key)
	if err := c.fs.Remove(c.Path(key)); err != nil {
		return err
	}
	slogger().Debug("transport: cache entry removed", "key", key)
	return nil
}

// Get returns the content of rawURL, from the cache when present and
// otherwise fetched and written to the cache. A failed cache write is logged
// and does not fail the download.
func (c *DownloadCache) Get(ctx context.Context, rawURL string, cut bool) (Download, error) {
	key := CacheKey(rawURL, cut)

	if p, ok := c.Lookup(key); ok {
		data, err := c.fs.ReadFile(p)
		if err == nil {
			slogger().Debug("transport: cache hit", "url", rawURL, "path", p)
			return Download{Key: key, Path: p, Data: data, Cached: true}, nil
		}
		slogger().Warn("transport: unreadable cache entry", "path", p, "err", err)
		c.index.Delete(key)
	}

	if err := ctx.Err(); err != nil {
		return Download{}, err
	}

	f := c.join(ctx, key)
	defer c.leave(key, f)

	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(f.ctx, rawURL, key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Download{}, res.Err
		}
		return res.Val.(Download), nil
	case <-ctx.Done():
		return Download{}, ctx.Err()
	}
}

// join registers the caller as a waiter on the fetch for key, creating the
// shared fetch context when none is in flight.
func (c *DownloadCache) join(ctx context.Context, key string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.flights[key]
	if f == nil {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[key] = f
	}
	f.waiters++
	return f
}

// leave unregisters a waiter. The last one cancels the fetch and forgets
// it, so later callers start a fresh one.
func (c *DownloadCache) leave(key string, f *flight) {
	c.mu.Lock()
	f.waiters--
	last := f.waiters == 0
	if last {
		if c.flights[key] == f {
			delete(c.flights, key)
		}
		c.group.Forget(key)
	}
	c.mu.Unlock()
	if last {
		f.cancel()
	}
}

func (c *DownloadCache) fetch(ctx context.Context, rawURL, key string) (Download, error) {
	data, err := c.tr.Fetch(ctx, rawURL)
	if err != nil {
		return Download{}, err
	}
	p := c.Path(key)
	if err := c.fs.WriteFile(p, data); err != nil {
		slogger().Warn("transport: cache write failed", "path", p, "err", err)
	} else {
		c.index.Set(key, p)
	}
	slogger().Info("transport: downloaded", "url", rawURL, "bytes", len(data), "path", p)
	return Download{Key: key, Path: p, Data: data}, nil
}
