package indexfile

import (
	"sync"

	"ArenaDB/storage_engine/access/indexfile_manager/rbtree"

	"go.uber.org/zap"
)

type Config struct {
	BaseDir         string // e.g. /data/mydb/indexes, empty keeps indexes in memory
	InitialCapacity uint32
	MaxRows         uint32 // index arenas never grow past this many slots
	Logger          *zap.Logger
}

type IndexFileManager struct {
	cfg     Config
	indexes map[string]map[string]*rbtree.Tree // tableName → index name → tree
	logger  *zap.Logger
	mu      sync.RWMutex
}
