package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

// Directory is an in-memory implementation of dnsadmin.Directory.
// Entries are keyed by DN.Key and copied on the way in and out, so callers never share state
// with the store. It is safe for concurrent use.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]domain.Entry
	//      DN key → entry
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{entries: make(map[string]domain.Entry)}
}

// Add stores a copy of e.
func (d *Directory) Add(_ context.Context, e domain.Entry) error {
	key := e.DN.Key()
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.entries[key]; exists {
		return fmt.Errorf("%w: %s", domain.ErrEntryExists, e.DN)
	}
	d.entries[key] = e.Clone()
	return nil
}

// Get returns a copy of the entry at dn.
func (d *Directory) Get(_ context.Context, dn domain.DN) (domain.Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entries[dn.Key()]
	if !ok {
		return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrNoSuchEntry, dn)
	}
	return e.Clone(), nil
}

// Modify applies mods to the entry at dn under the write lock.
func (d *Directory) Modify(_ context.Context, dn domain.DN, mods []domain.Modification) error {
	key := dn.Key()
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoSuchEntry, dn)
	}
	next := e.Clone()
	if err := next.Apply(mods); err != nil {
		return err
	}
	d.entries[key] = next
	return nil
}

// Delete removes the leaf entry at dn.
func (d *Directory) Delete(_ context.Context, dn domain.DN) error {
	key := dn.Key()
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entries[key]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoSuchEntry, dn)
	}
	prefix := key + ","
	for k := range d.entries {
		if strings.HasPrefix(k, prefix) {
			return fmt.Errorf("%w: %s", domain.ErrNotLeaf, dn)
		}
	}
	delete(d.entries, key)
	return nil
}

// Search returns copies of the matching entries in key order.
func (d *Directory) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SearchResult{}, err
	}
	base := req.Base.Key()

	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		if k == base || strings.HasPrefix(k, base+",") || base == "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var res domain.SearchResult
	for _, k := range keys {
		e := d.entries[k]
		if !req.InScope(e.DN) || !req.Matches(e) {
			continue
		}
		if req.SizeLimit > 0 && len(res.Entries) == req.SizeLimit {
			res.Truncated = true
			break
		}
		res.Entries = append(res.Entries, e.Clone())
	}
	return res, nil
}

// Len returns the number of stored entries.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Ensure Directory implements dnsadmin.Directory at compile time
var _ dnsadmin.Directory = (*Directory)(nil)
