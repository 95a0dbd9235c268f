// Package cache holds one published index Pair per key and deduplicates
// concurrent builds for the same key.
//
// Reads of a published Pair are lock-free. A key that was never built makes
// its callers wait for the single in-flight build; a key that is being
// rebuilt keeps serving its previous Pair until the rebuild publishes.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/t-k-/ctags-companion/internal/index"
)

// Loader builds the Pair for key. force is true when the caller requested a
// rebuild and any persisted copy must be ignored.
type Loader func(ctx context.Context, key string, force bool) (*index.Pair, error)

// Cache maps keys to published Pairs.
type Cache struct {
	load    Loader
	group   singleflight.Group
	entries sync.Map // key → *entry
}

type entry struct {
	pair atomic.Pointer[index.Pair]

	// seq numbers build starts and rebuild requests on one timeline, so a
	// rebuild can tell whether a build began after it was requested.
	seq atomic.Uint64

	mu        sync.Mutex // guards publish
	published uint64     // seq of the build that produced pair
}

// result is what a singleflight execution hands to every waiter.
type result struct {
	pair   *index.Pair
	start  uint64 // 0 when no build ran (pair was already published)
	forced bool
}

// New creates an empty Cache backed by load.
func New(load Loader) *Cache {
	return &Cache{load: load}
}

func (c *Cache) entry(key string) *entry {
	if e, ok := c.entries.Load(key); ok {
		return e.(*entry)
	}
	e, _ := c.entries.LoadOrStore(key, &entry{})
	return e.(*entry)
}

// Peek returns the published Pair for key without building.
func (c *Cache) Peek(key string) *index.Pair {
	e, ok := c.entries.Load(key)
	if !ok {
		return nil
	}
	return e.(*entry).pair.Load()
}

// Get returns the published Pair for key, building it first if the key has
// never been built. Concurrent callers share one build.
func (c *Cache) Get(ctx context.Context, key string) (*index.Pair, error) {
	if p := c.Peek(key); p != nil {
		return p, nil
	}
	e := c.entry(key)
	res, err := c.do(ctx, key, e, false)
	if err != nil {
		return nil, err
	}
	return res.pair, nil
}

// Rebuild builds key again and publishes the result, replacing the previous
// Pair wholesale. The returned Pair comes from a build that started after
// Rebuild was called. If the build fails the previous Pair stays published.
func (c *Cache) Rebuild(ctx context.Context, key string) (*index.Pair, error) {
	e := c.entry(key)
	want := e.seq.Add(1)
	for {
		res, err := c.do(ctx, key, e, true)
		if err != nil {
			return nil, err
		}
		if res.forced && res.start > want {
			return res.pair, nil
		}
		// Joined a build that started before this request or that was
		// allowed to reuse persisted data; go again.
	}
}

// do runs or joins the single in-flight execution for key.
func (c *Cache) do(ctx context.Context, key string, e *entry, force bool) (result, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		if !force {
			if p := e.pair.Load(); p != nil {
				return result{pair: p}, nil
			}
		}
		return c.build(context.WithoutCancel(ctx), key, e, force)
	})

	select {
	case <-ctx.Done():
		return result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return result{}, r.Err
		}
		return r.Val.(result), nil
	}
}

func (c *Cache) build(ctx context.Context, key string, e *entry, force bool) (result, error) {
	start := e.seq.Add(1)
	p, err := c.load(ctx, key, force)
	if err != nil {
		return result{}, err
	}
	if p == nil {
		return result{}, fmt.Errorf("cache: loader returned no index for %s", key)
	}
	e.publish(p, start)
	return result{pair: p, start: start, forced: force}, nil
}

// publish swaps in p unless a newer build has already been published.
func (e *entry) publish(p *index.Pair, start uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if start < e.published {
		return
	}
	e.published = start
	e.pair.Store(p)
}

// Forget drops key. A build already in flight for key completes for its
// waiters but publishes into the dropped entry; the next Get builds again.
func (c *Cache) Forget(key string) {
	c.entries.Delete(key)
	c.group.Forget(key)
}

// Keys returns the sorted keys that have a published Pair.
func (c *Cache) Keys() []string {
	var keys []string
	c.entries.Range(func(k, v any) bool {
		if v.(*entry).pair.Load() != nil {
			keys = append(keys, k.(string))
		}
		return true
	})
	sort.Strings(keys)
	return keys
}
