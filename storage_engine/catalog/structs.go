package catalog

import (
	"sync"

	"ArenaDB/types"

	"go.uber.org/zap"
)

type CatalogManager struct {
	dbRoot        string // empty root keeps the catalog in memory
	TableToFileId map[string]uint32
	nextFileID    uint32
	tableSchemas  map[string]types.TableSchema
	logger        *zap.Logger
	mu            sync.RWMutex
}
