package diskmanager

import (
	"encoding/binary"
	"math"

	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

// Alloc hands out a slot id, reusing the free list before extending MaxID.
// The returned slot is zeroed and, when the arena has a control byte, marked
// DIRTY.
func (m *Manager) Alloc() (types.RowID, error) {
	if m.data[offFlags]&FlagNoAlloc != 0 {
		return 0, errors.Wrapf(ErrNoAlloc, "arena %s", m.path)
	}

	if head := m.u32(offFreeHead); head != 0 {
		slot := m.Resolve(head)
		next := binary.LittleEndian.Uint32(slot)
		m.put32(offFreeHead, next)
		if next == 0 {
			m.put32(offFreeTail, 0)
		}
		clear(slot)
		m.put32(offAllocated, m.Allocated()+1)
		m.SetCtrl(head, types.RowDirty)
		return head, nil
	}

	if m.MaxID() == math.MaxUint32 {
		return 0, errors.Wrapf(ErrOutOfMemory, "arena %s: id space exhausted", m.path)
	}
	id := m.MaxID() + 1
	if err := m.Reserve(id); err != nil {
		return 0, err
	}
	m.put32(offMaxID, id)
	m.put32(offAllocated, m.Allocated()+1)
	m.SetCtrl(id, types.RowDirty)
	return id, nil
}

// Free zeroes the slot and appends it to the free list tail.
func (m *Manager) Free(id types.RowID) error {
	if m.data[offFlags]&FlagNoAlloc != 0 {
		return errors.Wrapf(ErrNoAlloc, "arena %s", m.path)
	}
	if id == 0 || id > m.MaxID() {
		return errors.Newf("arena %s: free of unallocated id %d", m.path, id)
	}
	if m.ctrlOff != 0 && m.Ctrl(id) == types.RowFree {
		return errors.Newf("arena %s: double free of id %d", m.path, id)
	}

	clear(m.Resolve(id))
	if tail := m.u32(offFreeTail); tail != 0 {
		binary.LittleEndian.PutUint32(m.Resolve(tail), id)
	} else {
		m.put32(offFreeHead, id)
	}
	m.put32(offFreeTail, id)
	m.put32(offAllocated, m.Allocated()-1)
	return nil
}

// Ctrl reads the slot's control byte. Arenas without one report every slot
// as committed.
func (m *Manager) Ctrl(id types.RowID) types.RowCtrl {
	if m.ctrlOff == 0 {
		return types.RowCommit
	}
	return types.RowCtrl(m.Resolve(id)[m.ctrlOff])
}

func (m *Manager) SetCtrl(id types.RowID, c types.RowCtrl) {
	if m.ctrlOff == 0 {
		return
	}
	m.Resolve(id)[m.ctrlOff] = byte(c)
}
