package storageengine

import (
	"ArenaDB/storage_engine/access/indexfile_manager/rbtree"
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cockroachdb/errors"
)

/*
Select answers a Query through an index and returns the matching rows in
index order. Scan visits every row of the table in id order.

	StorageEngine.Select(txn, Query{Table: "students", Index: "by_age", Op: GE, Values: [20]})
	     ├── getIndex("students", "by_age")
	     ├── Tree.Query(filter, visibility(txn), RowSet{Limit})
	     │       └── Where() on each visible candidate (residual)
	     └── HeapFile.Values(id) for each hit → copied out under the table lock

t may be nil, reading only committed rows.
*/

func (se *StorageEngine) Select(t *txn.Transaction, q Query) ([]types.Row, error) {
	var rows []types.Row
	err := se.query(t, q, func(th *tableHandle, tree *rbtree.Tree, f rbtree.Filter, vis rbtree.Visibility) error {
		set := rbtree.NewRowSet(q.Limit)
		if err := tree.Query(f, vis, set); err != nil {
			return err
		}
		rows = make([]types.Row, 0, len(set.IDs))
		for _, id := range set.IDs {
			vals, err := th.heap.Values(id)
			if err != nil {
				return err
			}
			rows = append(rows, types.Row{ID: id, Values: vals})
		}
		return nil
	})
	return rows, err
}

// SelectIDs runs q and returns the matching row ids as a bitmap, for
// intersecting or counting without decoding rows. Limit is ignored.
func (se *StorageEngine) SelectIDs(t *txn.Transaction, q Query) (*roaring.Bitmap, error) {
	set := rbtree.NewBitmapSet()
	err := se.query(t, q, func(_ *tableHandle, tree *rbtree.Tree, f rbtree.Filter, vis rbtree.Visibility) error {
		return tree.Query(f, vis, set)
	})
	if err != nil {
		return nil, err
	}
	return set.Bitmap, nil
}

// Count returns how many rows match q.
func (se *StorageEngine) Count(t *txn.Transaction, q Query) (uint64, error) {
	var n uint64
	err := se.query(t, q, func(_ *tableHandle, tree *rbtree.Tree, f rbtree.Filter, vis rbtree.Visibility) error {
		return tree.Query(f, vis, rbtree.CollectFunc(func(types.RowID, []byte) bool {
			n++
			return q.Limit == 0 || n < uint64(q.Limit)
		}))
	})
	return n, err
}

func (se *StorageEngine) query(t *txn.Transaction, q Query,
	run func(th *tableHandle, tree *rbtree.Tree, f rbtree.Filter, vis rbtree.Visibility) error) error {
	if t != nil && !t.Active() {
		return txn.ErrTxnClosed
	}
	if q.Limit < 0 {
		return errors.Newf("negative limit %d", q.Limit)
	}
	th, err := se.table(q.Table)
	if err != nil {
		return err
	}
	tree, _, err := se.getIndex(q.Table, q.Index)
	if err != nil {
		return err
	}

	th.mu.RLock()
	defer th.mu.RUnlock()

	hf := th.heap
	f := rbtree.Filter{Op: q.Op, Values: q.Values}
	if q.Where != nil {
		f.Residual = func(row []byte) bool { return q.Where(hf.Decode(row)) }
	}
	vis := rbtree.VisibleFunc(t.VisibleFunc(q.Table, hf.Ctrl))
	return run(th, tree, f, vis)
}

// Scan returns every row of the table visible to t that passes where, in id
// order. where may be nil.
func (se *StorageEngine) Scan(t *txn.Transaction, tableName string, where func(vals []types.Value) bool) ([]types.Row, error) {
	if t != nil && !t.Active() {
		return nil, txn.ErrTxnClosed
	}
	th, err := se.table(tableName)
	if err != nil {
		return nil, err
	}
	th.mu.RLock()
	defer th.mu.RUnlock()

	hf := th.heap
	var rows []types.Row
	hf.Scan(func(id types.RowID, row []byte) bool {
		if !txn.Visible(t, tableName, hf.Ctrl(id), id) {
			return true
		}
		vals := hf.Decode(row)
		if where == nil || where(vals) {
			rows = append(rows, types.Row{ID: id, Values: vals})
		}
		return true
	})
	return rows, nil
}

// Get returns row id if t can see it.
func (se *StorageEngine) Get(t *txn.Transaction, tableName string, id types.RowID) (types.Row, error) {
	th, err := se.table(tableName)
	if err != nil {
		return types.Row{}, err
	}
	th.mu.RLock()
	defer th.mu.RUnlock()

	hf := th.heap
	if !hf.Live(id) || !txn.Visible(t, tableName, hf.Ctrl(id), id) {
		return types.Row{}, errors.Wrapf(ErrRowNotFound, "table %s row %d", tableName, id)
	}
	vals, err := hf.Values(id)
	if err != nil {
		return types.Row{}, err
	}
	return types.Row{ID: id, Values: vals}, nil
}
