// Package cache is an in-memory response cache partitioned by tenant.
//
// Every key is scoped with the tenant found in the context, so one tenant never
// reads another's entries. Concurrent misses on the same key share one fetch.
package cache

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/faithpod/portal/core/tenant"
)

const (
	centralScope = "~central"
	scopeSep     = "|"
)

type entry struct {
	value    interface{}
	storedAt time.Time
	ttl      time.Duration
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	gens    map[string]uint64 // per scope, bumped on every invalidation of the scope
	epoch   uint64            // bumped by ClearAll
	group   singleflight.Group

	defaultTTL  time.Duration
	stopCleanup chan struct{}
	closeOnce   sync.Once
	now         func() time.Time
}

// New returns a Cache whose expired entries are evicted every cleanupInterval.
// A zero cleanupInterval disables the janitor.
func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		entries:     make(map[string]entry),
		gens:        make(map[string]uint64),
		defaultTTL:  defaultTTL,
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}
	return c
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func scope(ctx context.Context) string {
	if id := tenant.IDFromContext(ctx); id != "" {
		return id
	}
	return centralScope
}

func scopedKey(ctx context.Context, key string) string {
	return scope(ctx) + scopeSep + key
}

func (c *Cache) fresh(e entry, ttl time.Duration) bool {
	return c.now().Sub(e.storedAt) < ttl
}

// Get returns the value cached under key when younger than ttl; otherwise it calls fetch,
// caches its result and returns it. Failed fetches are not cached.
// Callers that give up (ctx done) return early; the shared fetch keeps running for the rest.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	sc := scope(ctx)
	sk := sc + scopeSep + key

	c.mu.RLock()
	e, ok := c.entries[sk]
	gen, epoch := c.gens[sc], c.epoch
	c.mu.RUnlock()
	if ok && c.fresh(e, ttl) {
		return e.value, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(sk+"#"+strconv.FormatUint(epoch, 10)+"."+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[sc] == gen && c.epoch == epoch { // do not resurrect what was invalidated mid-flight
			c.entries[sk] = entry{value: v, storedAt: c.now(), ttl: ttl}
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetch is the typed version of Cache.Get.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, ttl, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Has reports whether key holds a value younger than ttl.
func (c *Cache) Has(ctx context.Context, key string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[scopedKey(ctx, key)]
	return ok && c.fresh(e, ttl)
}

// Clear drops key from the tenant of ctx.
func (c *Cache) Clear(ctx context.Context, keys ...string) {
	sc := scope(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, sc+scopeSep+key)
	}
	c.gens[sc]++
}

// ClearPattern drops every key of the tenant of ctx matching one of the patterns.
func (c *Cache) ClearPattern(ctx context.Context, patterns ...*regexp.Regexp) {
	sc := scope(ctx)
	prefix := sc + scopeSep
	c.deleteFunc(sc, func(sk string) bool {
		if !strings.HasPrefix(sk, prefix) {
			return false
		}
		key := sk[len(prefix):]
		for _, p := range patterns {
			if p.MatchString(key) {
				return true
			}
		}
		return false
	})
}

// ClearTenant drops every key of tenant id.
func (c *Cache) ClearTenant(id string) {
	if id == "" {
		id = centralScope
	}
	prefix := id + scopeSep
	c.deleteFunc(id, func(sk string) bool { return strings.HasPrefix(sk, prefix) })
}

func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.epoch++
}

// deleteFunc drops the entries of scope sc matched by match.
func (c *Cache) deleteFunc(sc string, match func(sk string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sk := range c.entries {
		if match(sk) {
			delete(c.entries, sk)
		}
	}
	c.gens[sc]++
}

// Len returns the number of entries held, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
}

func (c *Cache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sk, e := range c.entries {
		if !c.fresh(e, e.ttl) {
			delete(c.entries, sk)
		}
	}
}
