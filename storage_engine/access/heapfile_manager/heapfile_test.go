package heapfile

import (
	"math"
	"testing"

	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

func studentSchema() types.TableSchema {
	return types.TableSchema{
		TableName: "students",
		Columns: []types.ColumnDef{
			{Name: "id", Type: "INT"},
			{Name: "name", Type: "CHAR", Size: 8},
			{Name: "gpa", Type: "FLOAT"},
		},
	}
}

func student(id int64, name string, gpa float64) []types.Value {
	return []types.Value{types.IntValue(id), types.CharValue(name), types.FloatValue(gpa)}
}

func newTestHeap(t *testing.T, dir string) (*HeapFileManager, *HeapFile) {
	t.Helper()
	hfm, err := NewHeapFileManager(Config{BaseDir: dir})
	if err != nil {
		t.Fatalf("Failed to create heap file manager: %v", err)
	}
	hf, err := hfm.CreateHeapfile(studentSchema(), 1)
	if err != nil {
		t.Fatalf("Failed to create heap file: %v", err)
	}
	t.Cleanup(func() { hfm.CloseAll() })
	return hfm, hf
}

func TestInsertAndDecode(t *testing.T) {
	_, hf := newTestHeap(t, "")

	id, err := hf.InsertRow(student(7, "ada", 3.9))
	if err != nil {
		t.Fatalf("Failed to insert row: %v", err)
	}
	if hf.Ctrl(id) != types.RowDirty {
		t.Errorf("new row ctrl = %v, want DIRTY", hf.Ctrl(id))
	}

	for i := 0; i < 2; i++ { // second read is served from the cache
		vals, err := hf.Values(id)
		if err != nil {
			t.Fatalf("Failed to read row: %v", err)
		}
		if vals[0].I != 7 || vals[1].S != "ada" || vals[2].F != 3.9 {
			t.Fatalf("decoded row = %v", vals)
		}
		hf.cache.Wait()
	}
}

func TestInsertRejectsBadRows(t *testing.T) {
	_, hf := newTestHeap(t, "")

	bad := [][]types.Value{
		{types.IntValue(1)},
		student(1, "much-too-long", 1),
		{types.CharValue("x"), types.CharValue("y"), types.FloatValue(1)},
	}
	for _, vals := range bad {
		if _, err := hf.InsertRow(vals); !errors.Is(err, ErrSchema) {
			t.Errorf("insert %v: got %v, want ErrSchema", vals, err)
		}
	}
	if hf.RowCount() != 0 {
		t.Errorf("rejected rows left %d slots allocated", hf.RowCount())
	}

	// INT is widened into FLOAT columns
	if _, err := hf.InsertRow([]types.Value{types.IntValue(1), types.CharValue("a"), types.IntValue(3)}); err != nil {
		t.Errorf("int into float column: %v", err)
	}
}

func TestComparator(t *testing.T) {
	_, hf := newTestHeap(t, "")
	a, _ := hf.InsertRow(student(1, "bob", 2.5))
	b, _ := hf.InsertRow(student(1, "amy", 3.5))

	ra, rb := hf.Row(a), hf.Row(b)
	if c := hf.Compare(ra, rb, []int{0}); c != 0 {
		t.Errorf("compare on id = %d, want 0", c)
	}
	if c := hf.Compare(ra, rb, []int{0, 1}); c <= 0 {
		t.Errorf("compare on (id, name) = %d, want > 0", c)
	}
	if c := hf.Compare(ra, rb, []int{2}); c >= 0 {
		t.Errorf("compare on gpa = %d, want < 0", c)
	}
	if c := hf.CompareKey(ra, []int{1, 0}, []types.Value{types.CharValue("bob")}); c != 0 {
		t.Errorf("compare key prefix = %d, want 0", c)
	}
	if !hf.EqualKey(rb, []int{0, 1}, []types.Value{types.IntValue(1), types.CharValue("amy")}) {
		t.Errorf("equal key on full field list failed")
	}
	if c := hf.CompareKey(rb, []int{2}, []types.Value{types.IntValue(4)}); c >= 0 {
		t.Errorf("float field vs int bound = %d, want < 0", c)
	}
}

func TestComparatorOrdersNaN(t *testing.T) {
	_, hf := newTestHeap(t, "")
	nan, _ := hf.InsertRow(student(1, "nan", math.NaN()))
	nan2, _ := hf.InsertRow(student(2, "nan2", math.NaN()))
	one, _ := hf.InsertRow(student(3, "one", 1))

	gpa := []int{2}
	if c := hf.Compare(hf.Row(nan), hf.Row(one), gpa); c >= 0 {
		t.Errorf("NaN vs 1 = %d, want < 0", c)
	}
	if c := hf.Compare(hf.Row(one), hf.Row(nan), gpa); c <= 0 {
		t.Errorf("1 vs NaN = %d, want > 0", c)
	}
	if c := hf.Compare(hf.Row(nan), hf.Row(nan2), gpa); c != 0 {
		t.Errorf("NaN vs NaN = %d, want 0", c)
	}
	if hf.EqualKey(hf.Row(one), gpa, []types.Value{types.FloatValue(math.NaN())}) {
		t.Errorf("1 reported equal to a NaN key")
	}
}

func TestDeleteAndScan(t *testing.T) {
	_, hf := newTestHeap(t, "")
	for i := int64(1); i <= 5; i++ {
		if _, err := hf.InsertRow(student(i, "s", float64(i))); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}
	if _, err := hf.Values(2); err != nil {
		t.Fatalf("Failed to read row 2: %v", err)
	}
	hf.cache.Wait()

	if err := hf.DeleteRow(2); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := hf.Values(2); err == nil {
		t.Errorf("deleted row still readable")
	}

	var seen []types.RowID
	hf.Scan(func(id types.RowID, _ []byte) bool {
		seen = append(seen, id)
		return true
	})
	if len(seen) != 4 || seen[1] != 3 {
		t.Errorf("scan = %v, want [1 3 4 5]", seen)
	}

	id, err := hf.InsertRow(student(9, "new", 1))
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if id != 2 {
		t.Errorf("freed slot not reused: got %d", id)
	}
	vals, err := hf.Values(2)
	if err != nil || vals[0].I != 9 {
		t.Errorf("reused slot returned stale row %v (%v)", vals, err)
	}
}

func TestHeapFileReopen(t *testing.T) {
	dir := t.TempDir()
	hfm, hf := newTestHeap(t, dir)
	id, err := hf.InsertRow(student(3, "eve", 2.0))
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	hf.SetCtrl(id, types.RowCommit)
	if err := hfm.CloseAll(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	hfm2, err := NewHeapFileManager(Config{BaseDir: dir})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer hfm2.CloseAll()
	hf2, err := hfm2.LoadHeapFile(studentSchema(), 1)
	if err != nil {
		t.Fatalf("Failed to load heap file: %v", err)
	}
	if hf2.Ctrl(id) != types.RowCommit {
		t.Errorf("ctrl after reopen = %v", hf2.Ctrl(id))
	}
	vals, err := hf2.Values(id)
	if err != nil || vals[1].S != "eve" {
		t.Errorf("row after reopen = %v (%v)", vals, err)
	}
	if _, err := hfm2.CreateHeapfile(studentSchema(), 1); err == nil {
		t.Errorf("create over an open heap file succeeded")
	}
}
