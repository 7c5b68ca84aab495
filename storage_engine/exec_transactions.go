package storageengine

import (
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
Transaction state management.

	COMMIT    inserted rows  TRANS → COMMIT
	          deleted rows   unlinked from every index, slot freed
	ROLLBACK  inserted rows  unlinked from every index, slot freed
	          deleted rows   delete intent dropped, row stays COMMIT

Tables are processed in name order, each under its write lock. Writes to a
table dropped in the meantime are skipped.
*/

// Begin starts a new transaction.
func (se *StorageEngine) Begin() *txn.Transaction {
	return se.TxnManager.Begin()
}

func (se *StorageEngine) Commit(t *txn.Transaction) error {
	if !t.Active() {
		return txn.ErrTxnClosed
	}

	var err error
	for _, tableName := range t.Tables() {
		th, terr := se.table(tableName)
		if terr != nil {
			continue
		}
		th.mu.Lock()
		hf := th.heap
		for _, id := range t.InsertedRows(tableName) {
			hf.SetCtrl(id, types.RowCommit)
		}
		for _, id := range t.DeletedRows(tableName) {
			delete(th.pendingDel, id)
			if rerr := se.IndexManager.RemoveRow(tableName, id); rerr != nil {
				err = errors.CombineErrors(err, rerr)
				continue
			}
			err = errors.CombineErrors(err, hf.DeleteRow(id))
		}
		th.mu.Unlock()
	}

	writes := t.WriteCount()
	if cerr := se.TxnManager.Commit(t.ID); cerr != nil {
		err = errors.CombineErrors(err, cerr)
	}
	if err != nil {
		se.logger.Error("commit finished with errors", zap.Uint64("txn", t.ID), zap.Error(err))
		return errors.Wrapf(err, "commit txn %d", t.ID)
	}
	se.logger.Debug("txn committed", zap.Uint64("txn", t.ID), zap.Uint64("writes", writes))
	return nil
}

func (se *StorageEngine) Rollback(t *txn.Transaction) error {
	if !t.Active() {
		return txn.ErrTxnClosed
	}

	var err error
	for _, tableName := range t.Tables() {
		th, terr := se.table(tableName)
		if terr != nil {
			continue
		}
		th.mu.Lock()
		hf := th.heap
		for _, id := range t.InsertedRows(tableName) {
			if rerr := se.IndexManager.RemoveRow(tableName, id); rerr != nil {
				err = errors.CombineErrors(err, rerr)
				continue
			}
			err = errors.CombineErrors(err, hf.DeleteRow(id))
		}
		for _, id := range t.DeletedRows(tableName) {
			if th.pendingDel[id] == t.ID {
				delete(th.pendingDel, id)
			}
		}
		th.mu.Unlock()
	}

	writes := t.WriteCount()
	if aerr := se.TxnManager.Abort(t.ID); aerr != nil {
		err = errors.CombineErrors(err, aerr)
	}
	if err != nil {
		se.logger.Error("rollback finished with errors", zap.Uint64("txn", t.ID), zap.Error(err))
		return errors.Wrapf(err, "rollback txn %d", t.ID)
	}
	se.logger.Debug("txn rolled back", zap.Uint64("txn", t.ID), zap.Uint64("writes", writes))
	return nil
}
