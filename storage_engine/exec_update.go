package storageengine

import (
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
This file contains the delete and update row operations

A row the transaction inserted itself is private, so deleting it frees it
at once and updating it rewrites it in place.
A committed row is shared: delete only records the intent, Commit unlinks
and frees it. Update of a committed row is delete + insert of a new version.
Only one live transaction may hold a delete on a committed row.
*/

// Delete removes row id on behalf of t.
func (se *StorageEngine) Delete(t *txn.Transaction, tableName string, id types.RowID) error {
	if !t.Active() {
		return txn.ErrTxnClosed
	}
	th, err := se.table(tableName)
	if err != nil {
		return err
	}
	th.mu.Lock()
	defer th.mu.Unlock()

	return se.deleteLocked(t, th, id)
}

func (se *StorageEngine) deleteLocked(t *txn.Transaction, th *tableHandle, id types.RowID) error {
	hf := th.heap
	tableName := hf.TableName()
	if !hf.Live(id) {
		return errors.Wrapf(ErrRowNotFound, "table %s row %d", tableName, id)
	}

	switch ctrl := hf.Ctrl(id); {
	case ctrl == types.RowTrans && t.Inserted(tableName, id):
		if err := se.IndexManager.RemoveRow(tableName, id); err != nil {
			return err
		}
		if err := hf.DeleteRow(id); err != nil {
			return err
		}
		t.ForgetInsert(tableName, id)

	case ctrl == types.RowCommit && !t.Deleted(tableName, id):
		if owner, held := th.pendingDel[id]; held && owner != t.ID {
			return errors.Wrapf(ErrWriteConflict, "table %s row %d held by txn %d", tableName, id, owner)
		}
		th.pendingDel[id] = t.ID
		t.RecordDelete(tableName, id)

	default:
		return errors.Wrapf(ErrRowNotFound, "table %s row %d", tableName, id)
	}

	se.logger.Debug("row deleted",
		zap.Uint64("txn", t.ID),
		zap.String("table", tableName),
		zap.Uint32("row", id))
	return nil
}

// Update replaces the values of row id and returns the id of the new
// version, which differs from id when the row was committed.
func (se *StorageEngine) Update(t *txn.Transaction, tableName string, id types.RowID, values []types.Value) (types.RowID, error) {
	if !t.Active() {
		return 0, txn.ErrTxnClosed
	}
	th, err := se.table(tableName)
	if err != nil {
		return 0, err
	}
	th.mu.Lock()
	defer th.mu.Unlock()

	hf := th.heap
	if !hf.Live(id) {
		return 0, errors.Wrapf(ErrRowNotFound, "table %s row %d", tableName, id)
	}

	switch ctrl := hf.Ctrl(id); {
	case ctrl == types.RowTrans && t.Inserted(tableName, id):
		return id, se.rewriteLocked(t, th, id, values)

	case ctrl == types.RowCommit && !t.Deleted(tableName, id):
		if err := se.deleteLocked(t, th, id); err != nil {
			return 0, err
		}
		newID, err := se.insertLocked(t, th, values)
		if err != nil {
			delete(th.pendingDel, id)
			t.ForgetDelete(tableName, id)
			return 0, err
		}
		return newID, nil
	}
	return 0, errors.Wrapf(ErrRowNotFound, "table %s row %d", tableName, id)
}

// rewriteLocked updates a row private to t in place, re-indexing it. On
// failure the old values and index entries are restored.
func (se *StorageEngine) rewriteLocked(t *txn.Transaction, th *tableHandle, id types.RowID, values []types.Value) error {
	hf := th.heap
	tableName := hf.TableName()
	old := hf.Decode(hf.Row(id))
	vis := conflicts(t, hf)

	if err := se.IndexManager.RemoveRow(tableName, id); err != nil {
		return err
	}
	err := hf.UpdateRow(id, values)
	if err == nil {
		if err = se.IndexManager.AddRow(tableName, id, hf.Row(id), vis); err == nil {
			return nil
		}
	}

	if rerr := hf.UpdateRow(id, old); rerr != nil {
		return errors.CombineErrors(err, rerr)
	}
	if rerr := se.IndexManager.AddRow(tableName, id, hf.Row(id), vis); rerr != nil {
		se.logger.Error("failed to restore index entries after update",
			zap.String("table", tableName),
			zap.Uint32("row", id),
			zap.Error(rerr))
		return errors.CombineErrors(err, rerr)
	}
	return err
}
