package search

import (
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/glob"
)

const maxPrefetches = 8

// siblingCache memoizes directory listings for one folder search. Concurrent
// lookups of the same directory share a single ReadDir call. A failed
// listing is cached as empty.
type siblingCache struct {
	fileUtils  FileUtils
	group      singleflight.Group
	prefetches errgroup.Group

	mu        sync.Mutex
	listings  map[string]map[string]struct{}
	requested map[string]bool
}

func newSiblingCache(fileUtils FileUtils) *siblingCache {
	c := &siblingCache{
		fileUtils: fileUtils,
		listings:  make(map[string]map[string]struct{}),
		requested: make(map[string]bool),
	}
	c.prefetches.SetLimit(maxPrefetches)
	return c
}

func (c *siblingCache) listing(dir string) map[string]struct{} {
	c.mu.Lock()
	names, ok := c.listings[dir]
	c.mu.Unlock()
	if ok {
		return names
	}

	v, _, _ := c.group.Do(dir, func() (interface{}, error) {
		c.mu.Lock()
		if names, ok := c.listings[dir]; ok {
			c.mu.Unlock()
			return names, nil
		}
		c.mu.Unlock()

		set := make(map[string]struct{})
		list, err := c.fileUtils.ReadDir(dir)
		if err != nil {
			debug.LogSearch("sibling listing failed for %s: %v", dir, err)
		}
		for _, name := range list {
			set[name] = struct{}{}
		}

		c.mu.Lock()
		c.listings[dir] = set
		c.mu.Unlock()
		return set, nil
	})
	return v.(map[string]struct{})
}

// prefetch lists dir in the background so the ordered resolver rarely
// waits on ReadDir. It is skipped when enough prefetches are in flight; the
// resolver then lists the directory itself.
func (c *siblingCache) prefetch(dir string) {
	c.mu.Lock()
	_, known := c.listings[dir]
	if known || c.requested[dir] {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if c.prefetches.TryGo(func() error {
		c.listing(dir)
		return nil
	}) {
		c.mu.Lock()
		c.requested[dir] = true
		c.mu.Unlock()
	}
}

// wait blocks until every background listing has finished
func (c *siblingCache) wait() {
	_ = c.prefetches.Wait()
}

// hasSibling returns a lazy sibling check for files in dir. Nothing is
// listed until the check is first called.
func (c *siblingCache) hasSibling(dir string) glob.SiblingFunc {
	return func(name string) bool {
		_, ok := c.listing(dir)[name]
		return ok
	}
}
