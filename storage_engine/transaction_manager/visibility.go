package txn

import "ArenaDB/types"

// Visible applies the row visibility rule for txn, which may be nil for a
// reader outside any transaction:
//
//	FREE, DIRTY  never visible
//	COMMIT       visible unless txn deleted it
//	TRANS        visible only to the transaction that inserted it
func Visible(txn *Transaction, table string, ctrl types.RowCtrl, id types.RowID) bool {
	switch ctrl {
	case types.RowCommit:
		return txn == nil || !txn.Deleted(table, id)
	case types.RowTrans:
		return txn != nil && txn.Inserted(table, id)
	}
	return false
}

// VisibleFunc binds the rule to one table, reading control bytes through
// ctrlOf. The result plugs into index queries and unique checks.
func (txn *Transaction) VisibleFunc(table string, ctrlOf func(types.RowID) types.RowCtrl) func(row []byte, id types.RowID) bool {
	return func(_ []byte, id types.RowID) bool {
		return Visible(txn, table, ctrlOf(id), id)
	}
}
