package diskmanager

import (
	"encoding/binary"

	"ArenaDB/types"
)

func (m *Manager) u32(off int) uint32 { return binary.LittleEndian.Uint32(m.data[off:]) }

func (m *Manager) put32(off int, v uint32) { binary.LittleEndian.PutUint32(m.data[off:], v) }

func (m *Manager) Header() Header {
	return Header{
		Magic:       m.u32(offMagic),
		Revision:    m.u32(offRevision),
		BlockSize:   m.u32(offBlockSize),
		CtrlOffset:  m.u32(offCtrlOffset),
		BlockOffset: m.u32(offBlockOffset),
		BlockType:   types.BlockType(m.data[offBlockType]),
		Flags:       m.data[offFlags],
		FreeHead:    m.u32(offFreeHead),
		FreeTail:    m.u32(offFreeTail),
		Allocated:   m.u32(offAllocated),
		MaxID:       m.u32(offMaxID),
		Capacity:    m.u32(offCapacity),
		Limit:       m.u32(offLimit),
	}
}

func (m *Manager) writeHeader(h Header) {
	m.put32(offMagic, h.Magic)
	m.put32(offRevision, h.Revision)
	m.put32(offBlockSize, h.BlockSize)
	m.put32(offCtrlOffset, h.CtrlOffset)
	m.put32(offBlockOffset, h.BlockOffset)
	m.data[offBlockType] = byte(h.BlockType)
	m.data[offFlags] = h.Flags
	m.put32(offFreeHead, h.FreeHead)
	m.put32(offFreeTail, h.FreeTail)
	m.put32(offAllocated, h.Allocated)
	m.put32(offMaxID, h.MaxID)
	m.put32(offCapacity, h.Capacity)
	m.put32(offLimit, h.Limit)
}

func (m *Manager) Capacity() uint32  { return m.u32(offCapacity) }
func (m *Manager) MaxID() uint32     { return m.u32(offMaxID) }
func (m *Manager) Allocated() uint32 { return m.u32(offAllocated) }
func (m *Manager) Limit() uint32     { return m.u32(offLimit) }
func (m *Manager) BlockSize() int    { return m.blockSize }
func (m *Manager) Path() string      { return m.path }

// Size is the number of mapped bytes.
func (m *Manager) Size() int64 { return int64(len(m.data)) }

func (m *Manager) mapSize(capacity uint32) int64 {
	return int64(m.blockOff) + int64(capacity)*int64(m.blockSize)
}
