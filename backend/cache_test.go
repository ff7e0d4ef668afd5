package backend

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/symmetree-labs/infinitree/object"
)

func newTestCache(t *testing.T, limitObjects int) (*Cache, *InMemory) {
	t.Helper()
	upstream := NewInMemory()
	c, err := NewCache(CacheConfig{
		Upstream:   upstream,
		LocalDir:   filepath.Join(t.TempDir(), "cache"),
		DBPath:     filepath.Join(t.TempDir(), "cache.db"),
		LimitBytes: int64(limitObjects) * object.Capacity,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, upstream
}

func TestCacheWriteThroughAndLocalHit(t *testing.T) {
	c, upstream := newTestCache(t, 4)

	o := newTestObject(t, 0x55)
	require.NoError(t, c.WriteObject(o))
	require.Equal(t, 1, upstream.Len())

	// delete the object straight from upstream to prove a follow-up read
	// is served from the local cache, not upstream.
	require.NoError(t, upstream.Delete(o.ID()))

	ro, err := c.ReadObject(o.ID())
	require.NoError(t, err)
	require.Equal(t, o.Bytes(), ro.Bytes())
}

func TestCacheMissFallsBackUpstreamAndAdmits(t *testing.T) {
	c, upstream := newTestCache(t, 4)

	o := newTestObject(t, 0x66)
	require.NoError(t, upstream.WriteObject(o))

	ro, err := c.ReadObject(o.ID())
	require.NoError(t, err)
	require.Equal(t, o.Bytes(), ro.Bytes())

	require.True(t, c.isLocal(o.ID()))
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(t, 2)

	first := newTestObject(t, 0x01)
	second := newTestObject(t, 0x02)
	third := newTestObject(t, 0x03)

	require.NoError(t, c.WriteObject(first))
	require.NoError(t, c.WriteObject(second))

	// touch first so it is more recently used than second.
	_, err := c.ReadObject(first.ID())
	require.NoError(t, err)

	require.NoError(t, c.WriteObject(third))

	require.True(t, c.isLocal(first.ID()))
	require.True(t, c.isLocal(third.ID()))
	require.False(t, c.isLocal(second.ID()))
}

func TestCacheKeepWarmExemptsFromEviction(t *testing.T) {
	c, _ := newTestCache(t, 2)

	warm := newTestObject(t, 0xaa)
	require.NoError(t, c.WriteObject(warm))
	require.NoError(t, c.KeepWarm([]object.ID{warm.ID()}))

	second := newTestObject(t, 0xbb)
	third := newTestObject(t, 0xcc)
	require.NoError(t, c.WriteObject(second))
	require.NoError(t, c.WriteObject(third))

	require.True(t, c.isLocal(warm.ID()), "warm object must survive eviction pressure")
}

func TestCacheKeepWarmRejectsOversizedSet(t *testing.T) {
	c, _ := newTestCache(t, 1)

	a := newTestObject(t, 0x01)
	b := newTestObject(t, 0x02)
	err := c.KeepWarm([]object.ID{a.ID(), b.ID()})
	require.Error(t, err)
}

func TestCacheResumesAccessOrderAcrossReopen(t *testing.T) {
	upstream := NewInMemory()
	localDir := filepath.Join(t.TempDir(), "cache")
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	c1, err := NewCache(CacheConfig{Upstream: upstream, LocalDir: localDir, DBPath: dbPath, LimitBytes: 2 * object.Capacity})
	require.NoError(t, err)

	first := newTestObject(t, 0x01)
	second := newTestObject(t, 0x02)
	require.NoError(t, c1.WriteObject(first))
	require.NoError(t, c1.WriteObject(second))
	require.NoError(t, c1.Close())

	c2, err := NewCache(CacheConfig{Upstream: upstream, LocalDir: localDir, DBPath: dbPath, LimitBytes: 2 * object.Capacity})
	require.NoError(t, err)
	t.Cleanup(func() { c2.Close() })

	third := newTestObject(t, 0x03)
	require.NoError(t, c2.WriteObject(third))

	require.True(t, c2.isLocal(second.ID()))
	require.True(t, c2.isLocal(third.ID()))
	require.False(t, c2.isLocal(first.ID()), "oldest entry from the prior process should evict first")
}
