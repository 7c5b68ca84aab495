package bufferpool

import (
	"ArenaDB/types"

	"github.com/dgraph-io/ristretto/v2"
)

// ############################################# ROW CACHE ###############################################

const DefaultCacheRows = 1 << 16

type Config struct {
	MaxRows int64 // cost budget, every cached row costs 1
}

// RowCache holds decoded rows keyed by (table file id, row id). Rows live in
// their arenas already; the cache only saves the decode.
type RowCache struct {
	cache *ristretto.Cache[uint64, []types.Value]
}

type RowCacheStats struct {
	Hits   uint64
	Misses uint64
	Ratio  float64
}
