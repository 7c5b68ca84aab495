package heapfile

import "ArenaDB/types"

// The heap file is the row comparator for every index on its table: rows
// are compared field by field in the order of the index field list.

func (hf *HeapFile) Compare(a, b []byte, fields []int) int {
	for _, f := range fields {
		if c := hf.field(a, f).Compare(hf.field(b, f)); c != 0 {
			return c
		}
	}
	return 0
}

// CompareKey compares the first len(vals) index fields of row against vals
// and returns the sign of row relative to vals.
func (hf *HeapFile) CompareKey(row []byte, fields []int, vals []types.Value) int {
	for i, v := range vals {
		if c := hf.field(row, fields[i]).Compare(v); c != 0 {
			return c
		}
	}
	return 0
}

func (hf *HeapFile) EqualKey(row []byte, fields []int, vals []types.Value) bool {
	return hf.CompareKey(row, fields, vals) == 0
}
