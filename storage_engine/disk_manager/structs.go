package diskmanager

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	ErrOutOfMemory = errors.New("arena out of memory")
	ErrNotFound    = errors.New("arena not found")
	ErrCorrupt     = errors.New("arena header corrupt")
	ErrNoAlloc     = errors.New("arena ids are assigned externally")
)

const (
	HeaderSize      = types.ArenaHeaderSize
	DefaultCapacity = 8
	Revision        = 1
)

// Flags
const (
	// FlagNoAlloc marks an arena whose slot ids mirror another arena (an index
	// mirrors its table), so Alloc and Free are refused.
	FlagNoAlloc uint8 = 1 << 0
)

// ############################################# HEADER ####################################################

// Header is the persisted arena header, stored little endian in the first
// HeaderSize bytes of the mapping.
//
//	0  magic        4  revision     8  block size   12 ctrl offset
//	16 block offset 20 block type   21 flags
//	24 free head    28 free tail    32 allocated    36 max id
//	40 capacity     44 limit        48..63 reserved
type Header struct {
	Magic       uint32
	Revision    uint32
	BlockSize   uint32
	CtrlOffset  uint32
	BlockOffset uint32
	BlockType   types.BlockType
	Flags       uint8
	FreeHead    uint32
	FreeTail    uint32
	Allocated   uint32
	MaxID       uint32
	Capacity    uint32
	Limit       uint32
}

const (
	offMagic       = 0
	offRevision    = 4
	offBlockSize   = 8
	offCtrlOffset  = 12
	offBlockOffset = 16
	offBlockType   = 20
	offFlags       = 21
	offFreeHead    = 24
	offFreeTail    = 28
	offAllocated   = 32
	offMaxID       = 36
	offCapacity    = 40
	offLimit       = 44
)

// ############################################# BACKEND ###################################################

// Backend owns the bytes behind an arena. Map and Remap return a slice
// covering exactly size bytes; Remap invalidates the previous slice only on
// success.
type Backend interface {
	Size() (int64, error)
	Map(size int64) ([]byte, error)
	Remap(old []byte, size int64) ([]byte, error)
	Sync(data []byte, async bool) error
	Close(data []byte) error
	Drop() error
}

// ############################################# MANAGER ###################################################

type Config struct {
	Path            string // empty path keeps the arena in memory
	Magic           uint32
	BlockType       types.BlockType
	BlockSize       uint32
	CtrlOffset      uint32 // zero when slots carry no control byte
	MetaSize        uint32 // owner bytes between the header and slot 0
	Flags           uint8
	InitialCapacity uint32
	Limit           uint32 // maximum capacity, zero for unlimited
	Backend         Backend
	Logger          *zap.Logger
}

// Manager is the storage manager for one arena: a header, an owner metadata
// area and a run of fixed-size slots where slot 0 is reserved.
type Manager struct {
	path      string
	backend   Backend
	data      []byte
	blockSize int
	blockOff  int
	ctrlOff   int
	logger    *zap.Logger
}
