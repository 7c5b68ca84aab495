package rbtree

import (
	"encoding/binary"
	"testing"

	"ArenaDB/types"
)

// intRows stores rows as consecutive little endian int64 fields.
type intRows struct {
	rows map[types.RowID][]byte
}

func newIntRows() *intRows {
	return &intRows{rows: make(map[types.RowID][]byte)}
}

func (r *intRows) Row(id types.RowID) []byte { return r.rows[id] }

func (r *intRows) set(id types.RowID, vals ...int64) []byte {
	row := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(row[i*8:], uint64(v))
	}
	r.rows[id] = row
	return row
}

func field(row []byte, f int) int64 {
	return int64(binary.LittleEndian.Uint64(row[f*8:]))
}

func sign(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type intComparator struct{}

func (intComparator) Compare(a, b []byte, fields []int) int {
	for _, f := range fields {
		if c := sign(field(a, f), field(b, f)); c != 0 {
			return c
		}
	}
	return 0
}

func (intComparator) CompareKey(row []byte, fields []int, vals []types.Value) int {
	for i, v := range vals {
		if c := sign(field(row, fields[i]), v.I); c != 0 {
			return c
		}
	}
	return 0
}

func (c intComparator) EqualKey(row []byte, fields []int, vals []types.Value) bool {
	return c.CompareKey(row, fields, vals) == 0
}

func newTestTree(t *testing.T, unique bool, fields ...int) (*Tree, *intRows) {
	t.Helper()
	rows := newIntRows()
	tree, err := Create(Options{
		Name:       "test_idx",
		Fields:     fields,
		Unique:     unique,
		Rows:       rows,
		Comparator: intComparator{},
	})
	if err != nil {
		t.Fatalf("Failed to create tree: %v", err)
	}
	t.Cleanup(func() { tree.Close() })
	return tree, rows
}

func mustAdd(t *testing.T, tree *Tree, rows *intRows, id types.RowID, vals ...int64) {
	t.Helper()
	if err := tree.Add(id, rows.set(id, vals...), nil); err != nil {
		t.Fatalf("Failed to add row %d %v: %v", id, vals, err)
	}
}

func mustCheck(t *testing.T, tree *Tree) {
	t.Helper()
	if err := tree.Check(); err != nil {
		t.Fatalf("invariant check failed: %v", err)
	}
}

func query(t *testing.T, tree *Tree, op types.Op, vals ...int64) []types.RowID {
	t.Helper()
	f := Filter{Op: op}
	for _, v := range vals {
		f.Values = append(f.Values, types.IntValue(v))
	}
	out := NewRowSet(0)
	if err := tree.Query(f, nil, out); err != nil {
		t.Fatalf("Failed to query %v %v: %v", op, vals, err)
	}
	return out.IDs
}

func inorder(tree *Tree) []types.RowID {
	var ids []types.RowID
	tree.Ascend(func(id types.RowID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

func sameIDs(a, b []types.RowID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
