package backend

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/symmetree-labs/infinitree/object"
)

var accessBucketName = []byte("object_access_v1")

// Cache write-through layers a local Directory in front of an upstream
// Backend, evicting the least-recently-used local object once the
// directory holds more than limitObjects whole Capacity-sized objects.
// Grounded on the teacher's bolt-backed local log (bits/db.go) plus the
// LocalStore pattern in bits/repository.go, generalized from a flat
// existence index into an eviction-ordered one: object-to-access-time
// persists in a go.etcd.io/bbolt database so a fresh Cache construction
// resumes the same eviction order a prior process left off with, rather
// than an arbitrary directory listing order.
type Cache struct {
	upstream Backend
	local    *Directory
	db       *bolt.DB

	mu    sync.Mutex
	order *lru.Cache[object.ID, struct{}]
	warm  map[object.ID]struct{}
	limit int
}

// CacheConfig configures a new Cache.
type CacheConfig struct {
	Upstream Backend
	LocalDir string
	DBPath   string
	// LimitBytes bounds the local cache's disk footprint; it is rounded
	// down to a whole number of object.Capacity-sized objects (minimum
	// one object).
	LimitBytes int64
}

// NewCache opens (or resumes) a Cache backend.
func NewCache(cfg CacheConfig) (*Cache, error) {
	local, err := NewDirectory(cfg.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to open cache directory: %w", err)
	}

	db, err := bolt.Open(cfg.DBPath, 0o666, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to open cache db at %q: %w", cfg.DBPath, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accessBucketName)
		return err
	}); err != nil {
		return nil, fmt.Errorf("backend: failed to initialize cache db: %w", err)
	}

	limit := int(cfg.LimitBytes / object.Capacity)
	if limit < 1 {
		limit = 1
	}

	c := &Cache{
		upstream: cfg.Upstream,
		local:    local,
		db:       db,
		warm:     make(map[object.ID]struct{}),
		limit:    limit,
	}

	coldToWarm, err := orderedByAccessTime(db)
	if err != nil {
		return nil, err
	}

	order, err := lru.NewWithEvict[object.ID, struct{}](limit, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("backend: failed to construct cache lru: %w", err)
	}
	c.order = order
	for _, id := range coldToWarm {
		c.order.Add(id, struct{}{})
	}

	return c, nil
}

// onEvict is invoked by the LRU whenever an entry leaves it (Add, Resize
// or Remove), always while c.mu is held by the caller, or from NewCache
// before c is shared. A warm id leaving the LRU only becomes exempt from
// eviction, so its local copy is kept.
func (c *Cache) onEvict(id object.ID, _ struct{}) {
	if _, warm := c.warm[id]; warm {
		return
	}
	c.local.Delete(id)
	c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(accessBucketName).Delete(id[:])
	})
}

func orderedByAccessTime(db *bolt.DB) ([]object.ID, error) {
	type entry struct {
		id object.ID
		at int64
	}
	var entries []entry
	err := db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(accessBucketName).ForEach(func(k, v []byte) error {
			if len(k) != object.Size || len(v) != 8 {
				return nil
			}
			var id object.ID
			copy(id[:], k)
			entries = append(entries, entry{id: id, at: int64(binary.BigEndian.Uint64(v))})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("backend: failed to read cache access times: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].at < entries[j].at })
	out := make([]object.ID, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out, nil
}

func (c *Cache) touch(id object.ID, now int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(now))
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(accessBucketName).Put(id[:], buf[:])
	})
}

// admit writes buf into the local directory, records its access time,
// and adds it to the eviction-ordered LRU (unless warm, in which case it
// is exempt from eviction altogether), evicting older entries as needed.
func (c *Cache) admit(id object.ID, buf []byte, now int64) error {
	if err := c.local.WriteRaw(id, buf); err != nil {
		return err
	}
	if err := c.touch(id, now); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, warm := c.warm[id]; warm {
		c.order.Remove(id)
		return nil
	}
	c.order.Add(id, struct{}{})
	return nil
}

func (c *Cache) isLocal(id object.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, warm := c.warm[id]; warm {
		return true
	}
	return c.order.Contains(id)
}

// WriteObject writes through to upstream synchronously, then admits the
// object into the local cache.
func (c *Cache) WriteObject(o *object.WriteObject) error {
	if err := c.upstream.WriteObject(o); err != nil {
		return err
	}
	return c.admit(o.ID(), o.Bytes(), time.Now().UnixNano())
}

// ReadObject serves from the local directory when the id is cached or
// warm; on a miss (or a corrupt local copy) it falls back upstream and
// re-admits the result.
func (c *Cache) ReadObject(id object.ID) (*object.ReadObject, error) {
	if c.isLocal(id) {
		ro, err := c.local.ReadFresh(id)
		if err == nil {
			c.mu.Lock()
			if _, warm := c.warm[id]; !warm {
				c.order.Get(id) // bump recency
			}
			c.mu.Unlock()
			c.touch(id, time.Now().UnixNano())
			return ro, nil
		}
		// local copy missing or unreadable: fall through to upstream.
	}

	ro, err := c.upstream.ReadObject(id)
	if err != nil {
		return nil, err
	}
	if err := c.admit(id, ro.Bytes(), time.Now().UnixNano()); err != nil {
		return ro, nil // serve the fetched object even if admission failed
	}
	return ro, nil
}

// ReadFresh always goes upstream, bypassing the local cache entirely;
// used for the root object on open, where staleness would be fatal.
func (c *Cache) ReadFresh(id object.ID) (*object.ReadObject, error) {
	return c.upstream.ReadFresh(id)
}

// KeepWarm atomically replaces the warm set, refusing a set that would
// exceed the cache's object limit, and removes every warm id from the
// LRU's eviction pool (they remain on disk, just no longer evictable).
// The LRU itself is resized down to limit-len(ids), so warm objects
// occupy their share of the cache's budget instead of leaving the
// evictable pool at its original full capacity -- otherwise a
// subsequent WriteObject/ReadObject could admit up to limit more
// objects on top of the warm set, violating the cache's overall size
// bound.
func (c *Cache) KeepWarm(ids []object.ID) error {
	if len(ids) > c.limit {
		return fmt.Errorf("backend: warm set of %d objects exceeds cache limit of %d", len(ids), c.limit)
	}

	next := make(map[object.ID]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}

	c.mu.Lock()
	c.warm = next
	for id := range next {
		c.order.Remove(id)
	}
	c.order.Resize(c.limit - len(next))
	c.mu.Unlock()
	return nil
}

// Preload asynchronously fetches and admits ids through a bounded
// goroutine pool, sized to GOMAXPROCS like the S3 backend's write bound.
func (c *Cache) Preload(ids []object.ID) {
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for _, id := range ids {
		id := id
		if c.isLocal(id) {
			continue
		}
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			_, _ = c.ReadObject(id)
		}()
	}
}

// Delete removes id from both the local cache and upstream storage.
func (c *Cache) Delete(id object.ID) error {
	c.mu.Lock()
	delete(c.warm, id)
	c.order.Remove(id)
	c.mu.Unlock()

	c.local.Delete(id)
	c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(accessBucketName).Delete(id[:])
	})
	return c.upstream.Delete(id)
}

// Sync awaits the upstream backend's outstanding writes.
func (c *Cache) Sync() error {
	return c.upstream.Sync()
}

// Close releases the cache's bbolt database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
