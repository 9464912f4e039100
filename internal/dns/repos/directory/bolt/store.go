package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-dnsadm/internal/dns/domain"
	"github.com/haukened/rr-dnsadm/internal/dns/services/dnsadmin"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")

	metaVersion = []byte("version")
	metaUpdated = []byte("updated")
)

// Stats reports the size and write generation of the store.
type Stats struct {
	Entries     uint64
	Version     uint64
	UpdatedUnix int64
}

// Store implements dnsadmin.Directory using bbolt. Entries are JSON documents keyed by
// DN.Key, so a subtree is a contiguous key range and every write is one bbolt transaction.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Add stores e under its DN key.
func (s *Store) Add(ctx context.Context, e domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(e.DN.Key())
	return s.update(func(b *bbolt.Bucket) error {
		if b.Get(key) != nil {
			return fmt.Errorf("%w: %s", domain.ErrEntryExists, e.DN)
		}
		return putEntry(b, key, e)
	})
}

// Get loads the entry at dn.
func (s *Store) Get(ctx context.Context, dn domain.DN) (domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Entry{}, err
	}
	var e domain.Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketEntries).Get([]byte(dn.Key()))
		if v == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoSuchEntry, dn)
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

// Modify loads, changes and stores the entry inside one transaction.
func (s *Store) Modify(ctx context.Context, dn domain.DN, mods []domain.Modification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(dn.Key())
	return s.update(func(b *bbolt.Bucket) error {
		v := b.Get(key)
		if v == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoSuchEntry, dn)
		}
		var e domain.Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("decode %s: %w", dn, err)
		}
		if err := e.Apply(mods); err != nil {
			return err
		}
		return putEntry(b, key, e)
	})
}

// Delete removes the leaf entry at dn.
func (s *Store) Delete(ctx context.Context, dn domain.DN) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(dn.Key())
	return s.update(func(b *bbolt.Bucket) error {
		if b.Get(key) == nil {
			return fmt.Errorf("%w: %s", domain.ErrNoSuchEntry, dn)
		}
		prefix := append(append([]byte(nil), key...), ',')
		if k, _ := b.Cursor().Seek(prefix); k != nil && bytes.HasPrefix(k, prefix) {
			return fmt.Errorf("%w: %s", domain.ErrNotLeaf, dn)
		}
		return b.Delete(key)
	})
}

// Search walks the base entry and, for wider scopes, the key range below it.
func (s *Store) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SearchResult{}, err
	}
	var res domain.SearchResult
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		// visit returns false once the size limit is hit
		visit := func(v []byte) (bool, error) {
			var e domain.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return false, err
			}
			if !req.InScope(e.DN) || !req.Matches(e) {
				return true, nil
			}
			if req.SizeLimit > 0 && len(res.Entries) == req.SizeLimit {
				res.Truncated = true
				return false, nil
			}
			res.Entries = append(res.Entries, e)
			return true, nil
		}

		base := []byte(req.Base.Key())
		if len(base) == 0 {
			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				if more, err := visit(v); err != nil || !more {
					return err
				}
			}
			return nil
		}
		if v := b.Get(base); v != nil {
			if more, err := visit(v); err != nil || !more {
				return err
			}
		}
		if req.Scope == domain.ScopeBase {
			return nil
		}
		prefix := append(append([]byte(nil), base...), ',')
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if more, err := visit(v); err != nil || !more {
				return err
			}
		}
		return nil
	})
	return res, err
}

// Stats reports the entry count and write generation.
func (s *Store) Stats() Stats {
	st := Stats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketEntries); b != nil {
			st.Entries = uint64(b.Stats().KeyN)
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(metaVersion); len(v) == 8 {
				st.Version = binary.BigEndian.Uint64(v)
			}
			if v := b.Get(metaUpdated); len(v) == 8 {
				st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return st
}

// update runs fn against the entries bucket and bumps the write generation in the same
// transaction.
func (s *Store) update(fn func(b *bbolt.Bucket) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := fn(tx.Bucket(bucketEntries)); err != nil {
			return err
		}
		meta := tx.Bucket(bucketMeta)
		var version uint64
		if v := meta.Get(metaVersion); len(v) == 8 {
			version = binary.BigEndian.Uint64(v)
		}
		vbuf := make([]byte, 8)
		ubuf := make([]byte, 8)
		binary.BigEndian.PutUint64(vbuf, version+1)
		binary.BigEndian.PutUint64(ubuf, uint64(s.now().Unix()))
		if err := meta.Put(metaVersion, vbuf); err != nil {
			return err
		}
		return meta.Put(metaUpdated, ubuf)
	})
}

func putEntry(b *bbolt.Bucket, key []byte, e domain.Entry) error {
	v, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.Put(key, v)
}

// Ensure Store implements dnsadmin.Directory at compile time
var _ dnsadmin.Directory = (*Store)(nil)
