package rbtree

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	diskmanager "ArenaDB/storage_engine/disk_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

func fileOptions(path string, rows *intRows) Options {
	return Options{
		Name:       "students_age",
		Path:       path,
		Fields:     []int{0},
		Rows:       rows,
		Comparator: intComparator{},
	}
}

func TestIndexSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students_age.idx")
	rows := newIntRows()

	tree, err := Create(fileOptions(path, rows))
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	for id := types.RowID(1); id <= 100; id++ {
		mustAdd(t, tree, rows, id, int64(id%17))
	}
	before := query(t, tree, types.OpGE, 10)
	if err := tree.Sync(); err != nil {
		t.Fatalf("Failed to sync: %v", err)
	}
	if err := tree.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	tree, err = Open(fileOptions(path, rows))
	if err != nil {
		t.Fatalf("Failed to reopen index: %v", err)
	}
	defer tree.Close()

	mustCheck(t, tree)
	if tree.RowCount() != 100 || tree.NodeCount() != 17 {
		t.Errorf("counts after reopen = %d rows, %d nodes", tree.RowCount(), tree.NodeCount())
	}
	if tree.QueryCount() != 1 {
		t.Errorf("query count after reopen = %d, want 1", tree.QueryCount())
	}
	if after := query(t, tree, types.OpGE, 10); !sameIDs(before, after) {
		t.Errorf("GE 10 differs after reopen")
	}

	if err := tree.Remove(5); err != nil {
		t.Fatalf("Failed to remove after reopen: %v", err)
	}
	mustCheck(t, tree)
}

func TestOpenMissingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.idx")
	_, err := Open(fileOptions(path, newIntRows()))
	if !errors.Is(err, diskmanager.ErrNotFound) {
		t.Fatalf("open missing index: got %v, want ErrNotFound", err)
	}
}

func TestCreateDiscardsExistingIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students_age.idx")
	rows := newIntRows()

	tree, err := Create(fileOptions(path, rows))
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	mustAdd(t, tree, rows, 1, 1)
	tree.Close()

	tree, err = Create(fileOptions(path, rows))
	if err != nil {
		t.Fatalf("Failed to recreate index: %v", err)
	}
	defer tree.Close()
	if tree.RowCount() != 0 || tree.Root() != NIL {
		t.Errorf("recreated index kept rows")
	}
}

func TestDropRemovesIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students_age.idx")
	rows := newIntRows()
	tree, err := Create(fileOptions(path, rows))
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	mustAdd(t, tree, rows, 1, 1)
	if err := tree.Drop(); err != nil {
		t.Fatalf("Failed to drop: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("index file still present after drop: %v", err)
	}
}

func TestInspectIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students_age.idx")
	rows := newIntRows()
	tree, err := Create(fileOptions(path, rows))
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	for id := types.RowID(1); id <= 10; id++ {
		mustAdd(t, tree, rows, id, int64(id%4))
	}
	tree.Close()

	var buf bytes.Buffer
	if err := InspectIndexFileTo(&buf, path); err != nil {
		t.Fatalf("Failed to inspect: %v", err)
	}
	if !strings.Contains(buf.String(), "rows 10, nodes 4") {
		t.Errorf("unexpected dump:\n%s", buf.String())
	}

	insp, err := OpenForInspect(path, nil)
	if err != nil {
		t.Fatalf("Failed to open for inspect: %v", err)
	}
	defer insp.Close()
	if err := insp.Check(); err != nil {
		t.Errorf("structural check failed: %v", err)
	}
}
