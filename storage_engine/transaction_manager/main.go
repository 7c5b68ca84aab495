package txn

import (
	"sort"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
Transaction manager hands out transaction ids and tracks which are active.
The row-level work of COMMIT / ROLLBACK (flipping control bytes, unlinking
rows from indexes) is done by the storage engine, which then calls Commit or
Abort here to close the transaction.
*/

var ErrTxnClosed = errors.New("transaction is not active")

func NewTxnManager(logger *zap.Logger) *TxnManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TxnManager{
		nextID:     1,
		activeTxns: make(map[uint64]*Transaction),
		logger:     logger,
	}
}

// Begin starts a new transaction and registers it as active.
func (tm *TxnManager) Begin() *Transaction {
	txnID := atomic.AddUint64(&tm.nextID, 1) - 1

	txn := &Transaction{
		ID:      txnID,
		State:   TxnActive,
		newRows: make(map[string]*roaring.Bitmap),
		delRows: make(map[string]*roaring.Bitmap),
	}

	tm.mu.Lock()
	tm.activeTxns[txnID] = txn
	tm.mu.Unlock()

	tm.logger.Debug("txn begin", zap.Uint64("txn", txnID))
	return txn
}

// Commit marks a transaction as committed and removes it from the active set.
func (tm *TxnManager) Commit(txnID uint64) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	txn, exists := tm.activeTxns[txnID]
	if !exists {
		// Already committed/aborted or never existed, idempotent.
		return nil
	}
	if txn.State == TxnAborted {
		return errors.Newf("transaction %d was already aborted", txnID)
	}

	txn.State = TxnCommitted
	delete(tm.activeTxns, txnID)
	tm.logger.Debug("txn commit", zap.Uint64("txn", txnID))
	return nil
}

// Abort marks a transaction as aborted and removes it from the active set.
func (tm *TxnManager) Abort(txnID uint64) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	txn, exists := tm.activeTxns[txnID]
	if !exists {
		return nil
	}
	if txn.State == TxnCommitted {
		return errors.Newf("transaction %d was already committed", txnID)
	}

	txn.State = TxnAborted
	delete(tm.activeTxns, txnID)
	tm.logger.Debug("txn abort", zap.Uint64("txn", txnID))
	return nil
}

// GetTransaction returns the transaction with the given ID, or nil if not found.
func (tm *TxnManager) GetTransaction(txnID uint64) *Transaction {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.activeTxns[txnID]
}

// IsActive returns true if the given txnID is currently active.
func (tm *TxnManager) IsActive(txnID uint64) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	_, exists := tm.activeTxns[txnID]
	return exists
}

// ActiveTransactions returns the ids of all running transactions in order.
func (tm *TxnManager) ActiveTransactions() []uint64 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	ids := make([]uint64, 0, len(tm.activeTxns))
	for id := range tm.activeTxns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
