package heapfile

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

/*
Row operations on a single heap file.
None of these lock: the engine holds the table lock and a row slice stays
valid only until the next InsertRow, which may grow the arena.
*/

// InsertRow allocates a slot, encodes vals into it and leaves it DIRTY.
func (hf *HeapFile) InsertRow(vals []types.Value) (types.RowID, error) {
	id, err := hf.stg.Alloc()
	if err != nil {
		return 0, errors.Wrapf(err, "table %s: insert", hf.tableName)
	}
	if err := hf.encode(hf.stg.Resolve(id), vals); err != nil {
		_ = hf.stg.Free(id)
		return 0, err
	}
	hf.cache.Evict(hf.fileID, id)
	return id, nil
}

// UpdateRow rewrites the fields of id in place. vals are validated in full
// before the slot is touched.
func (hf *HeapFile) UpdateRow(id types.RowID, vals []types.Value) error {
	if !hf.Live(id) {
		return errors.Newf("table %s: row %d does not exist", hf.tableName, id)
	}
	slot := hf.stg.Resolve(id)
	scratch := make([]byte, len(slot))
	if err := hf.encode(scratch, vals); err != nil {
		return err
	}
	copy(slot[rowHeaderSize:], scratch[rowHeaderSize:])
	hf.cache.Evict(hf.fileID, id)
	return nil
}

// Row returns the raw slot bytes of id.
func (hf *HeapFile) Row(id types.RowID) []byte {
	return hf.stg.Resolve(id)
}

// Values decodes row id, going through the row cache.
func (hf *HeapFile) Values(id types.RowID) ([]types.Value, error) {
	if !hf.Live(id) {
		return nil, errors.Newf("table %s: row %d does not exist", hf.tableName, id)
	}
	if vals, ok := hf.cache.Get(hf.fileID, id); ok {
		return append([]types.Value(nil), vals...), nil
	}
	vals := hf.Decode(hf.stg.Resolve(id))
	hf.cache.Put(hf.fileID, id, vals)
	return append([]types.Value(nil), vals...), nil
}

// Live reports whether id is an allocated row.
func (hf *HeapFile) Live(id types.RowID) bool {
	return id != 0 && id <= hf.stg.MaxID() && hf.stg.Ctrl(id) != types.RowFree
}

func (hf *HeapFile) Ctrl(id types.RowID) types.RowCtrl { return hf.stg.Ctrl(id) }

func (hf *HeapFile) SetCtrl(id types.RowID, c types.RowCtrl) { hf.stg.SetCtrl(id, c) }

// DeleteRow frees the slot of id and drops its cached decode.
func (hf *HeapFile) DeleteRow(id types.RowID) error {
	hf.cache.Evict(hf.fileID, id)
	if err := hf.stg.Free(id); err != nil {
		return errors.Wrapf(err, "table %s: delete", hf.tableName)
	}
	return nil
}

// Scan visits every allocated row in id order until fn returns false.
func (hf *HeapFile) Scan(fn func(id types.RowID, row []byte) bool) {
	maxID := hf.stg.MaxID()
	for id := types.RowID(1); id <= maxID; id++ {
		if hf.stg.Ctrl(id) == types.RowFree {
			continue
		}
		if !fn(id, hf.stg.Resolve(id)) {
			return
		}
	}
}

func (hf *HeapFile) RowCount() uint32          { return hf.stg.Allocated() }
func (hf *HeapFile) MaxID() uint32             { return hf.stg.MaxID() }
func (hf *HeapFile) Capacity() uint32          { return hf.stg.Capacity() }
func (hf *HeapFile) Size() int64               { return hf.stg.Size() }
func (hf *HeapFile) FileID() uint32            { return hf.fileID }
func (hf *HeapFile) TableName() string         { return hf.tableName }
func (hf *HeapFile) Schema() types.TableSchema { return hf.schema }
func (hf *HeapFile) Path() string              { return hf.filePath }

func (hf *HeapFile) Sync() error { return hf.stg.Sync(false) }
