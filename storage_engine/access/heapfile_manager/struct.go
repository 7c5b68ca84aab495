package heapfile

import (
	"sync"

	"ArenaDB/storage_engine/bufferpool"
	diskmanager "ArenaDB/storage_engine/disk_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var ErrSchema = errors.New("row does not match schema")

// Row slot layout:
//
//	0..3  free list link (owned by the arena)
//	4     control byte (types.RowCtrl)
//	5..7  reserved
//	8..   fields in schema order
const (
	rowHeaderSize = 8
	ctrlOffset    = 4

	DefaultCharSize = 32
)

type fieldLayout struct {
	kind types.ValueKind
	off  int
	size int // CHAR payload capacity
}

// HeapFile stores the fixed-width rows of one table in an arena. It is not
// synchronized; the engine holds the table lock around every call.
type HeapFile struct {
	fileID    uint32
	tableName string
	schema    types.TableSchema
	layout    []fieldLayout
	rowSize   int
	stg       *diskmanager.Manager
	cache     *bufferpool.RowCache
	filePath  string
	logger    *zap.Logger
}

type Config struct {
	BaseDir         string // empty keeps every table in memory
	InitialCapacity uint32
	MaxRows         uint32 // zero for unlimited
	Cache           *bufferpool.RowCache
	Logger          *zap.Logger
}

// HeapFileManager manages all heap files
type HeapFileManager struct {
	cfg        Config
	files      map[uint32]*HeapFile
	tableIndex map[string]uint32 // tableName → catalog fileID
	logger     *zap.Logger
	mu         sync.RWMutex
}
