package rbtree

import (
	"ArenaDB/types"

	"github.com/RoaringBitmap/roaring/v2"
)

// RowSet collects row ids up to Limit. A zero Limit never fills.
type RowSet struct {
	Limit int
	IDs   []types.RowID
}

func NewRowSet(limit int) *RowSet {
	return &RowSet{Limit: limit}
}

func (s *RowSet) Add(id types.RowID, _ []byte) bool {
	s.IDs = append(s.IDs, id)
	return s.Limit == 0 || len(s.IDs) < s.Limit
}

func (s *RowSet) Full() bool { return s.Limit != 0 && len(s.IDs) >= s.Limit }

func (s *RowSet) Reset() { s.IDs = s.IDs[:0] }

// BitmapSet collects matching ids into a roaring bitmap, for callers that
// intersect results of several index queries.
type BitmapSet struct {
	Bitmap *roaring.Bitmap
}

func NewBitmapSet() *BitmapSet {
	return &BitmapSet{Bitmap: roaring.New()}
}

func (s *BitmapSet) Add(id types.RowID, _ []byte) bool {
	s.Bitmap.Add(id)
	return true
}

// CollectFunc adapts a function to Collector.
type CollectFunc func(id types.RowID, row []byte) bool

func (f CollectFunc) Add(id types.RowID, row []byte) bool { return f(id, row) }
