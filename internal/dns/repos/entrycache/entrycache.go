package entrycache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

// entryCache wraps a dnsadmin.Directory with an LRU cache of Get results keyed by DN key.
// Every write evicts its key and advances gen before and after it reaches the backend. A Get
// only fills the cache when gen did not move during its backend read, so a read that overlapped
// any write is returned to its caller but never cached.
// Searches always go to the backend.
type entryCache struct {
	next dnsadmin.Directory
	lru  *lru.Cache[string, domain.Entry]

	mu  sync.Mutex
	gen uint64
}

// New returns next wrapped in a cache of the given size. A size of 0 or less disables caching
// and returns next unchanged.
func New(next dnsadmin.Directory, size int) (dnsadmin.Directory, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[string, domain.Entry](size)
	if err != nil {
		return nil, err
	}
	return &entryCache{next: next, lru: cache}, nil
}

func (c *entryCache) Add(ctx context.Context, e domain.Entry) error {
	key := e.DN.Key()
	c.invalidate(key)
	defer c.invalidate(key)
	return c.next.Add(ctx, e)
}

// Get serves from the cache when possible. Callers receive their own copy.
func (c *entryCache) Get(ctx context.Context, dn domain.DN) (domain.Entry, error) {
	key := dn.Key()
	if e, found := c.lru.Get(key); found {
		return e.Clone(), nil
	}
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	e, err := c.next.Get(ctx, dn)
	if err != nil {
		return domain.Entry{}, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.lru.Add(key, e.Clone())
	}
	c.mu.Unlock()
	return e, nil
}

func (c *entryCache) Modify(ctx context.Context, dn domain.DN, mods []domain.Modification) error {
	key := dn.Key()
	c.invalidate(key)
	defer c.invalidate(key)
	return c.next.Modify(ctx, dn, mods)
}

func (c *entryCache) Delete(ctx context.Context, dn domain.DN) error {
	key := dn.Key()
	c.invalidate(key)
	defer c.invalidate(key)
	return c.next.Delete(ctx, dn)
}

// invalidate evicts key and cancels every fill whose backend read started before this call.
func (c *entryCache) invalidate(key string) {
	c.mu.Lock()
	c.gen++
	c.lru.Remove(key)
	c.mu.Unlock()
}

func (c *entryCache) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	return c.next.Search(ctx, req)
}

// Len returns the number of cached entries.
func (c *entryCache) Len() int {
	return c.lru.Len()
}

var _ dnsadmin.Directory = (*entryCache)(nil)
