// Package cache provides a file-content cache shared by concurrent compiles.
package cache

import (
	"errors"
	"path/filepath"
	"sync"

	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/log"
	"bennypowers.dev/scssc/internal/resolver"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is the initial capacity when no size is given
const DefaultSize = 1024

type entry struct {
	data     []byte
	notFound bool
}

// FileCache is a read-through cache in front of a resolver.Loader. Each
// path is read from the wrapped loader at most once, even when many
// compiles ask for it at the same time. Entries are never evicted: when
// the cache is full its capacity doubles, so every compile of a batch sees
// the same contents. Purge starts a new batch.
type FileCache struct {
	next  resolver.Loader
	group singleflight.Group

	mu    sync.Mutex
	size  int
	files *lru.Cache[string, entry]
}

// New wraps next with a cache whose capacity starts at size files
func New(next resolver.Loader, size int) (*FileCache, error) {
	if next == nil {
		next = resolver.OSLoader{}
	}
	if size <= 0 {
		size = DefaultSize
	}
	files, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &FileCache{next: next, size: size, files: files}, nil
}

// ReadFile implements resolver.Loader
func (c *FileCache) ReadFile(path string) ([]byte, error) {
	key := filepath.Clean(path)
	if e, ok := c.files.Get(key); ok {
		return e.result(path)
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		if e, ok := c.files.Get(key); ok {
			return e, nil
		}
		data, err := c.next.ReadFile(key)
		if err != nil {
			if errors.Is(err, diagnostics.ErrNotFound) {
				e := entry{notFound: true}
				c.store(key, e)
				return e, nil
			}
			return nil, err
		}
		e := entry{data: data}
		c.store(key, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("Shared read of %s", key)
	}
	return v.(entry).result(path)
}

// store adds an entry, growing the cache first when adding would evict
func (c *FileCache) store(key string, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files.Len() >= c.size && !c.files.Contains(key) {
		c.size *= 2
		c.files.Resize(c.size)
		log.Debug("Grew file cache to %d entries", c.size)
	}
	c.files.Add(key, e)
}

func (e entry) result(path string) ([]byte, error) {
	if e.notFound {
		return nil, diagnostics.NewNotFoundError(path)
	}
	return e.data, nil
}

// Len returns the number of cached paths, including known-missing ones
func (c *FileCache) Len() int {
	return c.files.Len()
}

// Cap returns the current capacity
func (c *FileCache) Cap() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Purge drops every entry. The capacity is kept.
func (c *FileCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files.Purge()
}
