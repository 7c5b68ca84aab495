package txn

import (
	"sort"

	"ArenaDB/types"

	"github.com/RoaringBitmap/roaring/v2"
)

/*
Until the transaction completes it is not known whether its writes will be
committed or rolled back, so every inserted and deleted row id is recorded
per table. Commit publishes inserts and reclaims deletes, rollback does the
opposite.
*/

func (txn *Transaction) Active() bool { return txn != nil && txn.State == TxnActive }

func rowSet(sets map[string]*roaring.Bitmap, table string) *roaring.Bitmap {
	bm, ok := sets[table]
	if !ok {
		bm = roaring.New()
		sets[table] = bm
	}
	return bm
}

// RecordInsert remembers a row this transaction inserted.
func (txn *Transaction) RecordInsert(table string, id types.RowID) {
	rowSet(txn.newRows, table).Add(id)
}

// ForgetInsert drops an inserted row that the same transaction deleted again.
func (txn *Transaction) ForgetInsert(table string, id types.RowID) {
	if bm, ok := txn.newRows[table]; ok {
		bm.Remove(id)
	}
}

// RecordDelete remembers a committed row this transaction deleted.
func (txn *Transaction) RecordDelete(table string, id types.RowID) {
	rowSet(txn.delRows, table).Add(id)
}

// ForgetDelete withdraws a delete, used when the replacement row of an
// update could not be written.
func (txn *Transaction) ForgetDelete(table string, id types.RowID) {
	if bm, ok := txn.delRows[table]; ok {
		bm.Remove(id)
	}
}

func (txn *Transaction) Inserted(table string, id types.RowID) bool {
	bm, ok := txn.newRows[table]
	return ok && bm.Contains(id)
}

func (txn *Transaction) Deleted(table string, id types.RowID) bool {
	bm, ok := txn.delRows[table]
	return ok && bm.Contains(id)
}

// InsertedRows returns the ids inserted into table, ascending.
func (txn *Transaction) InsertedRows(table string) []types.RowID {
	if bm, ok := txn.newRows[table]; ok {
		return bm.ToArray()
	}
	return nil
}

func (txn *Transaction) DeletedRows(table string) []types.RowID {
	if bm, ok := txn.delRows[table]; ok {
		return bm.ToArray()
	}
	return nil
}

// Tables lists every table this transaction wrote to, sorted.
func (txn *Transaction) Tables() []string {
	seen := make(map[string]struct{}, len(txn.newRows)+len(txn.delRows))
	for t := range txn.newRows {
		seen[t] = struct{}{}
	}
	for t := range txn.delRows {
		seen[t] = struct{}{}
	}
	tables := make([]string, 0, len(seen))
	for t := range seen {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// WriteCount is the number of row writes the transaction holds.
func (txn *Transaction) WriteCount() uint64 {
	var n uint64
	for _, bm := range txn.newRows {
		n += bm.GetCardinality()
	}
	for _, bm := range txn.delRows {
		n += bm.GetCardinality()
	}
	return n
}
