package storageengine

import (
	heapfile "ArenaDB/storage_engine/access/heapfile_manager"
	"ArenaDB/storage_engine/access/indexfile_manager/rbtree"
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
This file contains the insert row operations

	StorageEngine.Insert(txn, "students", vals)
	     ├── HeapFile.InsertRow(vals)            → id, slot DIRTY
	     ├── ctrl = TRANS
	     ├── IndexManager.AddRow(id, conflicts)  → every index, all or nothing
	     │       └── unique index hit → DUPLICATE KEY, row freed
	     └── txn.RecordInsert(table, id)

The row stays invisible to other transactions until Commit flips it to
COMMIT.
*/

// Insert stores a new row on behalf of t and returns its id.
func (se *StorageEngine) Insert(t *txn.Transaction, tableName string, values []types.Value) (types.RowID, error) {
	if !t.Active() {
		return 0, txn.ErrTxnClosed
	}
	th, err := se.table(tableName)
	if err != nil {
		return 0, err
	}
	th.mu.Lock()
	defer th.mu.Unlock()

	return se.insertLocked(t, th, values)
}

func (se *StorageEngine) insertLocked(t *txn.Transaction, th *tableHandle, values []types.Value) (types.RowID, error) {
	hf := th.heap
	tableName := hf.TableName()

	id, err := hf.InsertRow(values)
	if err != nil {
		return 0, err
	}
	hf.SetCtrl(id, types.RowTrans)

	if err := se.IndexManager.AddRow(tableName, id, hf.Row(id), conflicts(t, hf)); err != nil {
		if ferr := hf.DeleteRow(id); ferr != nil {
			err = errors.CombineErrors(err, ferr)
		}
		return 0, err
	}
	t.RecordInsert(tableName, id)

	se.logger.Debug("row inserted",
		zap.Uint64("txn", t.ID),
		zap.String("table", tableName),
		zap.Uint32("row", id))
	return id, nil
}

// conflicts is the occupancy test for unique indexes on behalf of t: every
// row t can see, plus rows still pending in other transactions. Two open
// transactions therefore cannot both claim the same unique key.
func conflicts(t *txn.Transaction, hf *heapfile.HeapFile) rbtree.VisibleFunc {
	tableName := hf.TableName()
	return func(_ []byte, id types.RowID) bool {
		ctrl := hf.Ctrl(id)
		if ctrl == types.RowTrans {
			return true
		}
		return txn.Visible(t, tableName, ctrl, id)
	}
}
