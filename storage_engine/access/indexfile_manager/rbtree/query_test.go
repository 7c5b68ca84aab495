package rbtree

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

// linearMatch applies the filter semantics to a single row.
func linearMatch(row []byte, fields []int, op types.Op, vals []int64) bool {
	m := len(vals)
	for i := 0; i < m-1; i++ {
		if field(row, fields[i]) != vals[i] {
			return false
		}
	}
	c := sign(field(row, fields[m-1]), vals[m-1])
	return op.Satisfies(c)
}

func TestQueryMatchesLinearScan(t *testing.T) {
	fields := []int{0, 1}
	tree, rows := newTestTree(t, false, fields...)
	r := rand.New(rand.NewSource(99))

	for id := types.RowID(1); id <= 400; id++ {
		mustAdd(t, tree, rows, id, r.Int63n(12), r.Int63n(8))
	}
	// punch holes so chains and promotions are exercised
	for id := types.RowID(3); id <= 400; id += 7 {
		if err := tree.Remove(id); err != nil {
			t.Fatalf("Failed to remove %d: %v", id, err)
		}
		delete(rows.rows, id)
	}
	mustCheck(t, tree)

	ops := []types.Op{types.OpEQ, types.OpGE, types.OpGT, types.OpLT, types.OpLE}
	for _, op := range ops {
		for trial := 0; trial < 30; trial++ {
			vals := []int64{r.Int63n(14) - 1}
			if trial%2 == 1 {
				vals = append(vals, r.Int63n(10)-1)
			}

			got := query(t, tree, op, vals...)

			var want []types.RowID
			for id, row := range rows.rows {
				if linearMatch(row, fields, op, vals) {
					want = append(want, id)
				}
			}
			if !sameIDs(sortedIDs(got), sortedIDs(want)) {
				t.Fatalf("%v %v: got %d rows %v, want %d rows %v", op, vals, len(got), sortedIDs(got), len(want), sortedIDs(want))
			}
			for i := 1; i < len(got); i++ {
				if (intComparator{}).Compare(rows.Row(got[i-1]), rows.Row(got[i]), fields) > 0 {
					t.Fatalf("%v %v: rows %d and %d out of key order", op, vals, got[i-1], got[i])
				}
			}
		}
	}
}

func TestQueryStrictPrefixBounds(t *testing.T) {
	tree, rows := newTestTree(t, true, 0, 1)
	id := types.RowID(1)
	for a := int64(1); a <= 3; a++ {
		for b := int64(1); b <= 3; b++ {
			mustAdd(t, tree, rows, id, a, b)
			id++
		}
	}

	keys := func(ids []types.RowID) [][2]int64 {
		var out [][2]int64
		for _, id := range ids {
			out = append(out, [2]int64{field(rows.Row(id), 0), field(rows.Row(id), 1)})
		}
		return out
	}
	cases := []struct {
		op   types.Op
		vals []int64
		want [][2]int64
	}{
		{types.OpEQ, []int64{2}, [][2]int64{{2, 1}, {2, 2}, {2, 3}}},
		{types.OpGE, []int64{2, 2}, [][2]int64{{2, 2}, {2, 3}}},
		{types.OpGT, []int64{2, 2}, [][2]int64{{2, 3}}},
		{types.OpLT, []int64{2, 2}, [][2]int64{{2, 1}}},
		{types.OpLE, []int64{2, 2}, [][2]int64{{2, 1}, {2, 2}}},
		{types.OpGT, []int64{2}, [][2]int64{{3, 1}, {3, 2}, {3, 3}}},
		{types.OpLT, []int64{2}, [][2]int64{{1, 1}, {1, 2}, {1, 3}}},
		{types.OpLE, []int64{1}, [][2]int64{{1, 1}, {1, 2}, {1, 3}}},
		{types.OpGE, []int64{2, 9}, nil},
		{types.OpLT, []int64{4, 0}, nil},
		{types.OpEQ, []int64{3, 3}, [][2]int64{{3, 3}}},
	}
	for _, tc := range cases {
		got := keys(query(t, tree, tc.op, tc.vals...))
		if len(got) != len(tc.want) {
			t.Errorf("%v %v = %v, want %v", tc.op, tc.vals, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%v %v = %v, want %v", tc.op, tc.vals, got, tc.want)
				break
			}
		}
	}
}

func TestQueryCollectorStopsWhenFull(t *testing.T) {
	tree, rows := newTestTree(t, false, 0)
	for id := types.RowID(1); id <= 20; id++ {
		mustAdd(t, tree, rows, id, int64(id/4))
	}

	out := NewRowSet(3)
	if err := tree.Query(Filter{Op: types.OpGE, Values: []types.Value{types.IntValue(2)}}, nil, out); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(out.IDs) != 3 || !out.Full() {
		t.Fatalf("limited query returned %v", out.IDs)
	}
	for _, id := range out.IDs {
		if field(rows.Row(id), 0) != 2 {
			t.Errorf("row %d is not among the smallest keys >= 2", id)
		}
	}
}

func TestQueryVisibilityAndResidual(t *testing.T) {
	tree, rows := newTestTree(t, false, 0)
	for id := types.RowID(1); id <= 12; id++ {
		mustAdd(t, tree, rows, id, int64(id%3), int64(id))
	}

	calls := 0
	evenOnly := VisibleFunc(func(_ []byte, id types.RowID) bool {
		calls++
		return id%2 == 0
	})
	f := Filter{
		Op:       types.OpEQ,
		Values:   []types.Value{types.IntValue(0)},
		Residual: func(row []byte) bool { return field(row, 1) > 3 },
	}
	out := NewBitmapSet()
	if err := tree.Query(f, evenOnly, out); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	// key 0 rows: 3 6 9 12, visible: 6 12, residual keeps both
	if got := out.Bitmap.ToArray(); len(got) != 2 || got[0] != 6 || got[1] != 12 {
		t.Errorf("visible rows = %v, want [6 12]", got)
	}
	if calls != 4 {
		t.Errorf("visibility consulted %d times, want once per candidate (4)", calls)
	}
}

func TestQueryRejectsBadFilter(t *testing.T) {
	tree, _ := newTestTree(t, false, 0)
	one := []types.Value{types.IntValue(1)}
	bad := []Filter{
		{Op: types.OpEQ},
		{Op: types.OpEQ, Values: append(one, types.IntValue(2))},
		{Op: types.Op(42), Values: one},
	}
	for _, f := range bad {
		if err := tree.Query(f, nil, NewRowSet(0)); !errors.Is(err, ErrBadFilter) {
			t.Errorf("filter %+v: got %v, want ErrBadFilter", f, err)
		}
	}
}

func TestQueryCounter(t *testing.T) {
	tree, rows := newTestTree(t, false, 0)
	mustAdd(t, tree, rows, 1, 1)
	for i := 0; i < 5; i++ {
		query(t, tree, types.OpEQ, 1)
	}
	if tree.QueryCount() != 5 {
		t.Errorf("query count = %d, want 5", tree.QueryCount())
	}
}

func TestDumpShowsChains(t *testing.T) {
	tree, rows := newTestTree(t, false, 0)
	mustAdd(t, tree, rows, 1, 5)
	mustAdd(t, tree, rows, 2, 5)
	mustAdd(t, tree, rows, 3, 8)

	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Failed to dump: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"rows 3, nodes 2", "Level 0:", "siblings=[2]"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
