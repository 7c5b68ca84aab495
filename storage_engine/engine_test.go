package storageengine

import (
	"context"
	"testing"

	"ArenaDB/storage_engine/access/indexfile_manager/rbtree"
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

func studentSchema() types.TableSchema {
	return types.TableSchema{
		TableName: "students",
		Columns: []types.ColumnDef{
			{Name: "id", Type: "INT"},
			{Name: "name", Type: "CHAR", Size: 16},
			{Name: "age", Type: "INT"},
			{Name: "gpa", Type: "FLOAT"},
		},
		Indexes: []types.IndexDef{
			{Name: "pk", Columns: []string{"id"}, Unique: true},
			{Name: "by_age", Columns: []string{"age", "name"}},
		},
	}
}

func student(id int64, name string, age int64, gpa float64) []types.Value {
	return []types.Value{types.IntValue(id), types.CharValue(name), types.IntValue(age), types.FloatValue(gpa)}
}

func openEngine(t *testing.T, dir string) *StorageEngine {
	t.Helper()
	se, err := Open(Config{Dir: dir, InitialCapacity: 4})
	if err != nil {
		t.Fatalf("Failed to open storage engine: %v", err)
	}
	return se
}

func newEngine(t *testing.T) *StorageEngine {
	t.Helper()
	se := openEngine(t, "")
	t.Cleanup(func() { se.Close() })
	if err := se.CreateTable(studentSchema()); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return se
}

func mustInsert(t *testing.T, se *StorageEngine, tx *txn.Transaction, vals []types.Value) types.RowID {
	t.Helper()
	id, err := se.Insert(tx, "students", vals)
	if err != nil {
		t.Fatalf("Failed to insert %v: %v", vals, err)
	}
	return id
}

func mustCommit(t *testing.T, se *StorageEngine, tx *txn.Transaction) {
	t.Helper()
	if err := se.Commit(tx); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
}

func byID(t *testing.T, se *StorageEngine, tx *txn.Transaction, id int64) []types.Row {
	t.Helper()
	rows, err := se.Select(tx, Query{Table: "students", Index: "pk", Op: types.OpEQ, Values: []types.Value{types.IntValue(id)}})
	if err != nil {
		t.Fatalf("Failed to select id=%d: %v", id, err)
	}
	return rows
}

func names(rows []types.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Values[1].S
	}
	return out
}

func sameStrings(a, b []string) bool {
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

func TestInsertVisibility(t *testing.T) {
	se := newEngine(t)

	writer := se.Begin()
	mustInsert(t, se, writer, student(1, "alice", 20, 3.5))

	if got := byID(t, se, writer, 1); len(got) != 1 || got[0].Values[1].S != "alice" {
		t.Fatalf("writer does not see its own insert: %v", got)
	}
	reader := se.Begin()
	if got := byID(t, se, reader, 1); len(got) != 0 {
		t.Fatalf("pending insert visible to another txn: %v", got)
	}
	if got := byID(t, se, nil, 1); len(got) != 0 {
		t.Fatalf("pending insert visible outside a txn: %v", got)
	}

	mustCommit(t, se, writer)
	if got := byID(t, se, reader, 1); len(got) != 1 {
		t.Fatalf("committed row not visible: %v", got)
	}
	if _, err := se.Insert(writer, "students", student(2, "bob", 21, 3.0)); !errors.Is(err, txn.ErrTxnClosed) {
		t.Errorf("insert on committed txn: got %v, want ErrTxnClosed", err)
	}
}

func TestUniqueConflicts(t *testing.T) {
	se := newEngine(t)

	tx := se.Begin()
	mustInsert(t, se, tx, student(1, "alice", 20, 3.5))
	mustCommit(t, se, tx)

	tx = se.Begin()
	if _, err := se.Insert(tx, "students", student(1, "again", 30, 1.0)); !errors.Is(err, rbtree.ErrDuplicateKey) {
		t.Fatalf("duplicate of committed key: got %v, want ErrDuplicateKey", err)
	}
	st, _ := se.Stats("students")
	if st.Rows != 1 {
		t.Errorf("rejected row left in storage: %d rows", st.Rows)
	}
	for _, ix := range st.Indexes {
		if ix.Rows != 1 {
			t.Errorf("index %s holds %d rows after rejected insert, want 1", ix.Name, ix.Rows)
		}
	}

	// two open transactions cannot claim the same key
	other := se.Begin()
	mustInsert(t, se, tx, student(2, "bob", 21, 3.0))
	if _, err := se.Insert(other, "students", student(2, "bobby", 22, 2.0)); !errors.Is(err, rbtree.ErrDuplicateKey) {
		t.Fatalf("key pending in another txn: got %v, want ErrDuplicateKey", err)
	}

	// a key freed by a delete in the same txn can be reused
	rows := byID(t, se, tx, 1)
	if err := se.Delete(tx, "students", rows[0].ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	mustInsert(t, se, tx, student(1, "alice2", 20, 3.9))
	mustCommit(t, se, tx)

	if got := names(byID(t, se, nil, 1)); !sameStrings(got, []string{"alice2"}) {
		t.Errorf("after replace: got %v", got)
	}
}

func TestDeleteAndWriteConflict(t *testing.T) {
	se := newEngine(t)

	tx := se.Begin()
	id := mustInsert(t, se, tx, student(1, "alice", 20, 3.5))
	mustCommit(t, se, tx)

	deleter := se.Begin()
	if err := se.Delete(deleter, "students", id); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if got := byID(t, se, deleter, 1); len(got) != 0 {
		t.Errorf("deleter still sees the row")
	}
	if got := byID(t, se, nil, 1); len(got) != 1 {
		t.Errorf("uncommitted delete hid the row from others")
	}
	if err := se.Delete(deleter, "students", id); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("second delete: got %v, want ErrRowNotFound", err)
	}

	other := se.Begin()
	if err := se.Delete(other, "students", id); !errors.Is(err, ErrWriteConflict) {
		t.Fatalf("concurrent delete: got %v, want ErrWriteConflict", err)
	}

	mustCommit(t, se, deleter)
	if got := byID(t, se, other, 1); len(got) != 0 {
		t.Errorf("committed delete still visible")
	}
	st, _ := se.Stats("students")
	if st.Rows != 0 {
		t.Errorf("deleted row not freed: %d rows", st.Rows)
	}
	if err := se.Delete(other, "students", id); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("delete of freed row: got %v, want ErrRowNotFound", err)
	}
}

func TestRollback(t *testing.T) {
	se := newEngine(t)

	tx := se.Begin()
	keep := mustInsert(t, se, tx, student(1, "alice", 20, 3.5))
	mustCommit(t, se, tx)

	tx = se.Begin()
	mustInsert(t, se, tx, student(2, "bob", 21, 3.0))
	mustInsert(t, se, tx, student(3, "carol", 22, 2.5))
	if err := se.Delete(tx, "students", keep); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := se.Rollback(tx); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}

	rows, err := se.Scan(nil, "students", nil)
	if err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if got := names(rows); !sameStrings(got, []string{"alice"}) {
		t.Errorf("after rollback: got %v, want [alice]", got)
	}
	st, _ := se.Stats("students")
	for _, ix := range st.Indexes {
		if ix.Rows != 1 {
			t.Errorf("index %s holds %d rows after rollback, want 1", ix.Name, ix.Rows)
		}
	}

	// the delete intent was released
	other := se.Begin()
	if err := se.Delete(other, "students", keep); err != nil {
		t.Errorf("delete after rollback: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	se := newEngine(t)

	tx := se.Begin()
	old := mustInsert(t, se, tx, student(1, "alice", 20, 3.5))
	mustCommit(t, se, tx)

	tx = se.Begin()
	newID, err := se.Update(tx, "students", old, student(1, "alice", 21, 3.6))
	if err != nil {
		t.Fatalf("Failed to update committed row: %v", err)
	}
	if newID == old {
		t.Fatalf("update of committed row reused id %d", old)
	}
	// private row is rewritten in place
	again, err := se.Update(tx, "students", newID, student(1, "alice", 22, 3.7))
	if err != nil || again != newID {
		t.Fatalf("in-place update: id %d err %v, want id %d", again, err, newID)
	}
	if got := byID(t, se, nil, 1); len(got) != 1 || got[0].Values[2].I != 20 {
		t.Errorf("others should see the old version: %v", got)
	}
	mustCommit(t, se, tx)

	rows, err := se.Select(nil, Query{Table: "students", Index: "by_age", Op: types.OpEQ, Values: []types.Value{types.IntValue(22)}})
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != newID || rows[0].Values[3].F != 3.7 {
		t.Errorf("updated row: got %v", rows)
	}
	if rows, _ := se.Select(nil, Query{Table: "students", Index: "by_age", Op: types.OpEQ, Values: []types.Value{types.IntValue(20)}}); len(rows) != 0 {
		t.Errorf("old version still indexed: %v", rows)
	}

	// a failed update leaves the row alone
	tx = se.Begin()
	mustInsert(t, se, tx, student(2, "bob", 30, 2.0))
	mustCommit(t, se, tx)
	tx = se.Begin()
	if _, err := se.Update(tx, "students", newID, student(2, "dup", 22, 1.0)); !errors.Is(err, rbtree.ErrDuplicateKey) {
		t.Fatalf("update onto taken key: got %v, want ErrDuplicateKey", err)
	}
	if got := byID(t, se, tx, 1); len(got) != 1 {
		t.Errorf("failed update hid the row: %v", got)
	}
	mustCommit(t, se, tx)
}

func TestSelectOperators(t *testing.T) {
	se := newEngine(t)

	tx := se.Begin()
	for i, name := range []string{"amy", "ben", "cat", "dan", "eve", "fay"} {
		mustInsert(t, se, tx, student(int64(i+1), name, int64(20+i/2), float64(i)))
	}
	mustCommit(t, se, tx)

	cases := []struct {
		op   types.Op
		vals []types.Value
		want []string
	}{
		{types.OpEQ, []types.Value{types.IntValue(21)}, []string{"cat", "dan"}},
		{types.OpEQ, []types.Value{types.IntValue(21), types.CharValue("dan")}, []string{"dan"}},
		{types.OpGE, []types.Value{types.IntValue(21)}, []string{"cat", "dan", "eve", "fay"}},
		{types.OpGT, []types.Value{types.IntValue(21)}, []string{"eve", "fay"}},
		{types.OpLT, []types.Value{types.IntValue(21)}, []string{"amy", "ben"}},
		{types.OpLE, []types.Value{types.IntValue(21)}, []string{"amy", "ben", "cat", "dan"}},
		{types.OpGT, []types.Value{types.IntValue(20), types.CharValue("amy")}, []string{"ben"}},
	}
	for _, tc := range cases {
		rows, err := se.Select(nil, Query{Table: "students", Index: "by_age", Op: tc.op, Values: tc.vals})
		if err != nil {
			t.Fatalf("Failed to select %v %v: %v", tc.op, tc.vals, err)
		}
		if got := names(rows); !sameStrings(got, tc.want) {
			t.Errorf("%v %v: got %v, want %v", tc.op, tc.vals, got, tc.want)
		}
	}

	q := Query{
		Table:  "students",
		Index:  "by_age",
		Op:     types.OpGE,
		Values: []types.Value{types.IntValue(20)},
		Where:  func(v []types.Value) bool { return v[3].F >= 2 },
		Limit:  2,
	}
	rows, err := se.Select(nil, q)
	if err != nil {
		t.Fatalf("Failed to select with residual: %v", err)
	}
	if got := names(rows); !sameStrings(got, []string{"cat", "dan"}) {
		t.Errorf("residual+limit: got %v", got)
	}
	n, err := se.Count(nil, q)
	if err != nil || n != 2 {
		t.Errorf("count: got %d %v, want 2", n, err)
	}
	q.Limit = 0
	ids, err := se.SelectIDs(nil, q)
	if err != nil || ids.GetCardinality() != 4 {
		t.Errorf("select ids: got %v %v, want 4 ids", ids, err)
	}

	if _, err := se.Select(nil, Query{Table: "students", Index: "nope", Op: types.OpEQ, Values: []types.Value{types.IntValue(1)}}); err == nil {
		t.Errorf("select on unknown index succeeded")
	}
	if _, err := se.Select(nil, Query{Table: "students", Index: "pk", Op: types.OpEQ}); !errors.Is(err, rbtree.ErrBadFilter) {
		t.Errorf("select without values: got %v, want ErrBadFilter", err)
	}
}

func TestCreateAndDropIndex(t *testing.T) {
	se := newEngine(t)

	tx := se.Begin()
	mustInsert(t, se, tx, student(1, "alice", 20, 3.5))
	mustInsert(t, se, tx, student(2, "bob", 21, 3.5))
	mustCommit(t, se, tx)

	if err := se.CreateIndex("students", types.IndexDef{Name: "by_gpa", Columns: []string{"gpa"}, Unique: true}); !errors.Is(err, rbtree.ErrDuplicateKey) {
		t.Fatalf("unique index over duplicates: got %v, want ErrDuplicateKey", err)
	}
	if err := se.CreateIndex("students", types.IndexDef{Name: "by_gpa", Columns: []string{"gpa"}}); err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	rows, err := se.Select(nil, Query{Table: "students", Index: "by_gpa", Op: types.OpEQ, Values: []types.Value{types.FloatValue(3.5)}})
	if err != nil || len(rows) != 2 {
		t.Fatalf("query on new index: got %v %v", rows, err)
	}

	tx = se.Begin()
	mustInsert(t, se, tx, student(3, "carol", 22, 3.5))
	mustCommit(t, se, tx)
	if n, _ := se.Count(nil, Query{Table: "students", Index: "by_gpa", Op: types.OpEQ, Values: []types.Value{types.FloatValue(3.5)}}); n != 3 {
		t.Errorf("new index not maintained: %d rows", n)
	}

	if err := se.DropIndex("students", "BY_GPA"); err != nil {
		t.Fatalf("Failed to drop index: %v", err)
	}
	if _, err := se.Select(nil, Query{Table: "students", Index: "by_gpa", Op: types.OpEQ, Values: []types.Value{types.FloatValue(3.5)}}); err == nil {
		t.Errorf("dropped index still answers")
	}

	if err := se.DropTable("students"); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if _, err := se.Scan(nil, "students", nil); err == nil {
		t.Errorf("scan of dropped table succeeded")
	}
}

func TestReopenAndReclaim(t *testing.T) {
	dir := t.TempDir()
	se := openEngine(t, dir)
	if err := se.CreateTable(studentSchema()); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	tx := se.Begin()
	for i := int64(1); i <= 20; i++ {
		mustInsert(t, se, tx, student(i, "s", 18+i%5, 2.0))
	}
	mustCommit(t, se, tx)

	pending := se.Begin()
	mustInsert(t, se, pending, student(100, "ghost", 18, 1.0))
	if err := se.Sync(context.Background()); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}
	// crash: files closed without resolving the pending transaction
	if err := se.closeFiles(); err != nil {
		t.Fatalf("Failed to close files: %v", err)
	}

	se = openEngine(t, dir)
	defer se.Close()

	st, err := se.Stats("students")
	if err != nil {
		t.Fatalf("Failed to stat table: %v", err)
	}
	if st.Rows != 20 {
		t.Errorf("rows after reopen: got %d, want 20", st.Rows)
	}
	for _, ix := range st.Indexes {
		if ix.Rows != 20 {
			t.Errorf("index %s rows after reopen: got %d, want 20", ix.Name, ix.Rows)
		}
	}
	if got := byID(t, se, nil, 100); len(got) != 0 {
		t.Errorf("uncommitted row survived restart: %v", got)
	}
	n, err := se.Count(nil, Query{Table: "students", Index: "by_age", Op: types.OpEQ, Values: []types.Value{types.IntValue(18)}})
	if err != nil || n != 4 {
		t.Errorf("by_age=18 after reopen: got %d %v, want 4", n, err)
	}

	tx = se.Begin()
	if _, err := se.Insert(tx, "students", student(100, "ghost", 18, 1.0)); err != nil {
		t.Errorf("reclaimed key not reusable: %v", err)
	}
	mustCommit(t, se, tx)
}

func TestCleanCloseCheckpoint(t *testing.T) {
	dir := t.TempDir()
	se := openEngine(t, dir)
	if err := se.CreateTable(studentSchema()); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	tx := se.Begin()
	mustInsert(t, se, tx, student(1, "alice", 20, 3.5))
	mustCommit(t, se, tx)

	cp, err := se.CheckpointManager.LoadCheckpoint()
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if cp.Clean {
		t.Errorf("open database marked clean")
	}

	// a transaction still open at Close is rolled back
	pending := se.Begin()
	mustInsert(t, se, pending, student(2, "bob", 21, 3.0))
	cm := se.CheckpointManager
	if err := se.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	cp, err = cm.LoadCheckpoint()
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if !cp.Clean || cp.Rows["students"] != 1 {
		t.Errorf("checkpoint after close: %+v, want clean with 1 student", cp)
	}

	se = openEngine(t, dir)
	defer se.Close()
	rows, err := se.Scan(nil, "students", nil)
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows after clean reopen: %v %v", rows, err)
	}
}
