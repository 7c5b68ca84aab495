package storageengine

import (
	"sync"

	heapfile "ArenaDB/storage_engine/access/heapfile_manager"
	indexfile "ArenaDB/storage_engine/access/indexfile_manager"
	"ArenaDB/storage_engine/bufferpool"
	"ArenaDB/storage_engine/catalog"
	checkpoint "ArenaDB/storage_engine/checkpoint_manager"
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"go.uber.org/zap"
)

type Config struct {
	Dir             string // database root, empty runs fully in memory
	InitialCapacity uint32 // initial row slots per table
	MaxRows         uint32 // per-table row limit, zero for unlimited
	CacheRows       int64  // decoded row cache budget, zero for the default
	Logger          *zap.Logger
}

type StorageEngine struct {
	RowCache       *bufferpool.RowCache
	CatalogManager *catalog.CatalogManager
	IndexManager   *indexfile.IndexFileManager
	HeapManager    *heapfile.HeapFileManager
	TxnManager     *txn.TxnManager

	// nil for an in-memory engine
	CheckpointManager *checkpoint.CheckpointManager

	DbRoot string
	logger *zap.Logger

	tablesMu sync.RWMutex
	tables   map[string]*tableHandle
}

// tableHandle serializes writers of one table. Readers share the lock and
// copy rows out before releasing it, since an insert may remap the arenas.
type tableHandle struct {
	mu   sync.RWMutex
	heap *heapfile.HeapFile

	// committed rows a live transaction has deleted, owner txn id by row
	pendingDel map[types.RowID]uint64
}

// Query is an index lookup. Where, when set, is checked against every
// visible candidate before the limit applies.
type Query struct {
	Table  string
	Index  string
	Op     types.Op
	Values []types.Value
	Where  func(vals []types.Value) bool
	Limit  int
}

type TableStats struct {
	Table    string
	FileID   uint32
	Rows     uint32
	Capacity uint32
	Bytes    int64
	Indexes  []IndexStats
}

type IndexStats struct {
	Name     string
	Columns  []string
	Unique   bool
	Rows     uint32
	Nodes    uint32
	Height   int
	Queries  uint64
	Capacity uint32
	Bytes    int64
}
