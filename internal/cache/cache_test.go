package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"bennypowers.dev/scssc/internal/cache"
	"bennypowers.dev/scssc/internal/diagnostics"
	"bennypowers.dev/scssc/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	next  resolver.Loader
	reads atomic.Int32
	gate  chan struct{}
}

func (l *countingLoader) ReadFile(path string) ([]byte, error) {
	l.reads.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	return l.next.ReadFile(path)
}

func TestFileCache(t *testing.T) {
	t.Run("reads each path once", func(t *testing.T) {
		loader := &countingLoader{next: resolver.NewMapLoader(map[string]string{"/a.scss": "a"})}
		c, err := cache.New(loader, 0)
		require.NoError(t, err)

		for range 3 {
			data, err := c.ReadFile("/a.scss")
			require.NoError(t, err)
			assert.Equal(t, "a", string(data))
		}
		assert.Equal(t, int32(1), loader.reads.Load())
	})

	t.Run("remembers missing files", func(t *testing.T) {
		loader := &countingLoader{next: resolver.NewMapLoader(nil)}
		c, err := cache.New(loader, 0)
		require.NoError(t, err)

		_, err = c.ReadFile("/missing.scss")
		assert.ErrorIs(t, err, diagnostics.ErrNotFound)
		_, err = c.ReadFile("/missing.scss")
		assert.ErrorIs(t, err, diagnostics.ErrNotFound)
		assert.Equal(t, int32(1), loader.reads.Load())
		assert.Equal(t, 1, c.Len())
	})

	t.Run("concurrent readers share one read", func(t *testing.T) {
		loader := &countingLoader{
			next: resolver.NewMapLoader(map[string]string{"/shared.scss": "x"}),
			gate: make(chan struct{}),
		}
		c, err := cache.New(loader, 0)
		require.NoError(t, err)

		var wg sync.WaitGroup
		started := make(chan struct{}, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				started <- struct{}{}
				data, err := c.ReadFile("/shared.scss")
				assert.NoError(t, err)
				assert.Equal(t, "x", string(data))
			}()
		}
		for range 8 {
			<-started
		}
		close(loader.gate)
		wg.Wait()

		assert.LessOrEqual(t, loader.reads.Load(), int32(8))
		assert.GreaterOrEqual(t, loader.reads.Load(), int32(1))

		_, err = c.ReadFile("/shared.scss")
		require.NoError(t, err)
		before := loader.reads.Load()
		_, _ = c.ReadFile("/shared.scss")
		assert.Equal(t, before, loader.reads.Load())
	})

	t.Run("other errors are not cached", func(t *testing.T) {
		failing := loaderFunc(func(string) ([]byte, error) { return nil, errors.New("disk on fire") })
		c, err := cache.New(failing, 4)
		require.NoError(t, err)

		_, err = c.ReadFile("/a.scss")
		assert.EqualError(t, err, "disk on fire")
		assert.Equal(t, 0, c.Len())
	})

	t.Run("grows instead of evicting", func(t *testing.T) {
		files := make(map[string]string)
		var paths []string
		for i := range 9 {
			p := fmt.Sprintf("/p%d.scss", i)
			files[p] = p
			paths = append(paths, p)
		}
		loader := &countingLoader{next: resolver.NewMapLoader(files)}
		c, err := cache.New(loader, 1)
		require.NoError(t, err)

		for range 2 {
			for _, p := range paths {
				data, err := c.ReadFile(p)
				require.NoError(t, err)
				assert.Equal(t, p, string(data))
			}
		}
		assert.Equal(t, int32(len(paths)), loader.reads.Load())
		assert.Equal(t, len(paths), c.Len())
		assert.Equal(t, 16, c.Cap())
	})

	t.Run("purge starts over", func(t *testing.T) {
		loader := &countingLoader{next: resolver.NewMapLoader(map[string]string{"/a.scss": "a"})}
		c, err := cache.New(loader, 0)
		require.NoError(t, err)

		_, _ = c.ReadFile("/a.scss")
		c.Purge()
		assert.Equal(t, 0, c.Len())
		_, _ = c.ReadFile("/a.scss")
		assert.Equal(t, int32(2), loader.reads.Load())
	})
}

type loaderFunc func(string) ([]byte, error)

func (f loaderFunc) ReadFile(path string) ([]byte, error) { return f(path) }
