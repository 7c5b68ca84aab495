package diskmanager

import (
	"math"

	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
Storage manager for a single arena.

Layout of the mapping:
	[ header (64B) | owner meta | slot 0 | slot 1 | ... | slot capacity ]

Slot ids are 1-based, slot 0 always exists and is never handed out. Growth
doubles the capacity and remaps the backend, so every []byte returned by
Resolve or Meta is only valid until the next Grow/Reserve/Alloc.
Table arenas hand out ids through Alloc (free list first, then MaxID+1).
Index arenas are created with FlagNoAlloc and only Reserve the id their
table already picked.
*/

func newBackend(cfg Config, create bool) (Backend, error) {
	if cfg.Backend != nil {
		return cfg.Backend, nil
	}
	if cfg.Path == "" {
		return NewMemBackend(), nil
	}
	return openFileBackend(cfg.Path, create)
}

func (cfg Config) validate() error {
	if cfg.BlockSize == 0 {
		return errors.Newf("arena %s: block size must be positive", cfg.Path)
	}
	if cfg.Flags&FlagNoAlloc == 0 && cfg.BlockSize < 8 {
		return errors.Newf("arena %s: allocating arenas need at least 8 bytes per slot", cfg.Path)
	}
	if cfg.CtrlOffset != 0 && cfg.CtrlOffset >= cfg.BlockSize {
		return errors.Newf("arena %s: control offset %d outside slot", cfg.Path, cfg.CtrlOffset)
	}
	return nil
}

// Create makes a fresh arena, discarding anything already stored at the path.
func Create(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	backend, err := newBackend(cfg, true)
	if err != nil {
		return nil, err
	}

	capacity := cfg.InitialCapacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if cfg.Limit != 0 && capacity > cfg.Limit {
		capacity = cfg.Limit
	}

	m := &Manager{
		path:      cfg.Path,
		backend:   backend,
		blockSize: int(cfg.BlockSize),
		blockOff:  HeaderSize + int(cfg.MetaSize) + int(cfg.BlockSize),
		ctrlOff:   int(cfg.CtrlOffset),
		logger:    loggerOrNop(cfg.Logger),
	}

	data, err := backend.Map(m.mapSize(capacity))
	if err != nil {
		_ = backend.Close(nil)
		return nil, errors.Wrapf(errors.Mark(err, ErrOutOfMemory), "failed to map arena %s", cfg.Path)
	}
	clear(data)
	m.data = data

	m.writeHeader(Header{
		Magic:       cfg.Magic,
		Revision:    Revision,
		BlockSize:   cfg.BlockSize,
		CtrlOffset:  cfg.CtrlOffset,
		BlockOffset: uint32(m.blockOff),
		BlockType:   cfg.BlockType,
		Flags:       cfg.Flags,
		Capacity:    capacity,
		Limit:       cfg.Limit,
	})

	m.logger.Debug("arena created",
		zap.String("path", cfg.Path),
		zap.Stringer("type", cfg.BlockType),
		zap.Uint32("capacity", capacity))
	return m, nil
}

// Open attaches to an existing arena and keeps its contents.
func Open(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	backend, err := newBackend(cfg, false)
	if err != nil {
		return nil, err
	}

	size, err := backend.Size()
	if err != nil {
		_ = backend.Close(nil)
		return nil, errors.Wrapf(err, "failed to stat arena %s", cfg.Path)
	}
	if size == 0 {
		_ = backend.Close(nil)
		return nil, errors.Wrapf(ErrNotFound, "arena %s", cfg.Path)
	}
	if size < HeaderSize {
		_ = backend.Close(nil)
		return nil, errors.Wrapf(ErrCorrupt, "arena %s: %d bytes is shorter than the header", cfg.Path, size)
	}

	data, err := backend.Map(size)
	if err != nil {
		_ = backend.Close(nil)
		return nil, errors.Wrapf(err, "failed to map arena %s", cfg.Path)
	}

	m := &Manager{path: cfg.Path, backend: backend, data: data, logger: loggerOrNop(cfg.Logger)}
	h := m.Header()
	m.blockSize = int(h.BlockSize)
	m.blockOff = int(h.BlockOffset)
	m.ctrlOff = int(h.CtrlOffset)

	if err := m.checkHeader(cfg, h, size); err != nil {
		_ = backend.Close(data)
		return nil, err
	}

	m.logger.Debug("arena opened",
		zap.String("path", cfg.Path),
		zap.Uint32("capacity", h.Capacity),
		zap.Uint32("max_id", h.MaxID))
	return m, nil
}

func (m *Manager) checkHeader(cfg Config, h Header, size int64) error {
	switch {
	case cfg.Magic != 0 && h.Magic != cfg.Magic:
		return errors.Wrapf(ErrCorrupt, "arena %s: magic %#x, want %#x", cfg.Path, h.Magic, cfg.Magic)
	case h.BlockSize != cfg.BlockSize:
		return errors.Wrapf(ErrCorrupt, "arena %s: block size %d, want %d", cfg.Path, h.BlockSize, cfg.BlockSize)
	case h.BlockOffset < HeaderSize+h.BlockSize:
		return errors.Wrapf(ErrCorrupt, "arena %s: block offset %d", cfg.Path, h.BlockOffset)
	case h.BlockOffset != uint32(HeaderSize)+cfg.MetaSize+cfg.BlockSize:
		return errors.Wrapf(ErrCorrupt, "arena %s: meta area size mismatch", cfg.Path)
	case m.mapSize(h.Capacity) > size:
		return errors.Wrapf(ErrCorrupt, "arena %s: capacity %d needs %d bytes, have %d",
			cfg.Path, h.Capacity, m.mapSize(h.Capacity), size)
	case h.MaxID > h.Capacity:
		return errors.Wrapf(ErrCorrupt, "arena %s: max id %d beyond capacity %d", cfg.Path, h.MaxID, h.Capacity)
	}
	return nil
}

// Resolve returns the slot for id. Id 0 is the reserved slot. An id beyond
// capacity is a dangling reference and panics.
func (m *Manager) Resolve(id types.RowID) []byte {
	if id > m.Capacity() {
		panic(errors.AssertionFailedf("arena %s: id %d beyond capacity %d", m.path, id, m.Capacity()))
	}
	off := m.blockOff + (int(id)-1)*m.blockSize
	return m.data[off : off+m.blockSize : off+m.blockSize]
}

// Meta is the owner area between the header and slot 0.
func (m *Manager) Meta() []byte {
	end := m.blockOff - m.blockSize
	return m.data[HeaderSize:end:end]
}

// Grow remaps the arena to hold newCap slots. It never shrinks. On failure
// the arena is unchanged.
func (m *Manager) Grow(newCap uint32) error {
	oldCap := m.Capacity()
	if newCap <= oldCap {
		return nil
	}
	if limit := m.Limit(); limit != 0 && newCap > limit {
		return errors.Wrapf(ErrOutOfMemory, "arena %s: capacity %d exceeds limit %d", m.path, newCap, limit)
	}

	data, err := m.backend.Remap(m.data, m.mapSize(newCap))
	if err != nil {
		return errors.Wrapf(errors.Mark(err, ErrOutOfMemory), "failed to grow arena %s to %d", m.path, newCap)
	}
	m.data = data
	m.put32(offCapacity, newCap)

	m.logger.Debug("arena grown",
		zap.String("path", m.path),
		zap.Uint32("from", oldCap),
		zap.Uint32("to", newCap))
	return nil
}

// Reserve makes sure id is addressable, doubling capacity as many times as
// needed. The limit, or the id space when there is none, caps the last
// doubling.
func (m *Manager) Reserve(id types.RowID) error {
	capacity := m.Capacity()
	if id <= capacity {
		return nil
	}
	ceiling := uint64(math.MaxUint32)
	if limit := m.Limit(); limit != 0 {
		if id > limit {
			return errors.Wrapf(ErrOutOfMemory, "arena %s: id %d exceeds limit %d", m.path, id, limit)
		}
		ceiling = uint64(limit)
	}
	next := uint64(max(capacity, 1))
	for next < uint64(id) {
		next *= 2
	}
	return m.Grow(uint32(min(next, ceiling)))
}

func (m *Manager) Sync(async bool) error {
	if err := m.backend.Sync(m.data, async); err != nil {
		return errors.Wrapf(err, "failed to sync arena %s", m.path)
	}
	return nil
}

func (m *Manager) Close() error {
	if m.data == nil {
		return nil
	}
	err := m.backend.Close(m.data)
	m.data = nil
	if err != nil {
		return errors.Wrapf(err, "failed to close arena %s", m.path)
	}
	return nil
}

// Drop closes the arena and removes its backing storage.
func (m *Manager) Drop() error {
	err := m.Close()
	if dropErr := m.backend.Drop(); dropErr != nil {
		err = errors.CombineErrors(err, errors.Wrapf(dropErr, "failed to remove arena %s", m.path))
	}
	return err
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
