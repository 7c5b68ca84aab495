package bufferpool

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto/v2"
)

/*
Decoded row cache.
Heap files resolve row bytes straight out of their arena, decoding into
[]types.Value is the only repeated cost, so that is what gets cached.
Entries must be evicted whenever the row slot is rewritten or freed,
because slot ids are reused through the free list.
*/

func NewRowCache(cfg Config) (*RowCache, error) {
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultCacheRows
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []types.Value]{
		NumCounters: maxRows * 10,
		MaxCost:     maxRows,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create row cache")
	}
	return &RowCache{cache: cache}, nil
}

func Key(fileID uint32, id types.RowID) uint64 {
	return uint64(fileID)<<32 | uint64(id)
}

func (c *RowCache) Get(fileID uint32, id types.RowID) ([]types.Value, bool) {
	return c.cache.Get(Key(fileID, id))
}

// Put caches vals. The cache may drop the entry under pressure.
func (c *RowCache) Put(fileID uint32, id types.RowID, vals []types.Value) {
	c.cache.Set(Key(fileID, id), vals, 1)
}

func (c *RowCache) Evict(fileID uint32, id types.RowID) {
	c.cache.Del(Key(fileID, id))
}

// Wait blocks until pending Puts are applied.
func (c *RowCache) Wait() { c.cache.Wait() }

func (c *RowCache) Clear() { c.cache.Clear() }

func (c *RowCache) Close() { c.cache.Close() }

func (c *RowCache) Stats() RowCacheStats {
	m := c.cache.Metrics
	return RowCacheStats{Hits: m.Hits(), Misses: m.Misses(), Ratio: m.Ratio()}
}
