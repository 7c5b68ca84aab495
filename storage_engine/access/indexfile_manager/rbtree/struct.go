// Structure of the arena red-black tree
/*
Tree (one arena per index, node slot N belongs to table row N)
 ├── Primary node (left, right, parent, color, chain head)
 │      ├── left/right subtrees of primaries
 │      └── Sibling chain: head ⇄ next ⇄ next ... (rows with an equal key)
 └── NIL = slot 0, always black, never occupied

- primaries are ordered by the index field list
- a sibling reuses left/right as prev/next, only the chain head records
  its primary in the parent slot
- newest sibling becomes the chain head
- row_count = primaries + siblings, node_count = primaries
*/
package rbtree

import (
	"sync/atomic"

	diskmanager "ArenaDB/storage_engine/disk_manager"
	"ArenaDB/types"

	"go.uber.org/zap"
)

const NIL types.RowID = 0

// Packed node slot, little endian.
const (
	NodeSize = 24

	offLink0 = 0  // left (primary) / prev (sibling)
	offLink1 = 4  // right (primary) / next (sibling)
	offUp    = 8  // parent (primary) / primary of the chain head (sibling)
	offChain = 12 // sibling chain head (primary)
	offRole  = 16
	offColor = 17
)

type Role uint8

const (
	RoleAbsent Role = iota
	RolePrimary
	RoleSibling
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSibling:
		return "sibling"
	}
	return "absent"
}

type Color uint8

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// Tree header stored in the arena meta area.
const (
	MetaSize = 32

	metaQueries   = 0 // u64
	metaRowCount  = 8
	metaNodeCount = 12
	metaRoot      = 16
)

// RowSource hands out the current bytes of a table row.
type RowSource interface {
	Row(id types.RowID) []byte
}

// Comparator orders rows on an index field list. CompareKey compares the
// first len(vals) fields of row against vals and returns the sign of
// row relative to vals.
type Comparator interface {
	Compare(a, b []byte, fields []int) int
	CompareKey(row []byte, fields []int, vals []types.Value) int
	EqualKey(row []byte, fields []int, vals []types.Value) bool
}

// Visibility decides whether a row is visible to the calling transaction.
type Visibility interface {
	IsVisible(row []byte, id types.RowID) bool
}

// VisibleFunc adapts a function to Visibility.
type VisibleFunc func(row []byte, id types.RowID) bool

func (f VisibleFunc) IsVisible(row []byte, id types.RowID) bool { return f(row, id) }

// AllVisible treats every indexed row as visible.
var AllVisible Visibility = VisibleFunc(func([]byte, types.RowID) bool { return true })

type Options struct {
	Name            string
	Path            string // empty keeps the index in memory
	Fields          []int
	Unique          bool
	InitialCapacity uint32
	MaxCapacity     uint32 // zero for unlimited growth
	Rows            RowSource
	Comparator      Comparator
	Backend         diskmanager.Backend
	Logger          *zap.Logger
}

// Tree is a red-black index over the rows of one table. It is not safe for
// concurrent use; the owning table serializes writers against readers.
type Tree struct {
	name    string
	fields  []int
	unique  bool
	stg     *diskmanager.Manager
	rows    RowSource
	cmp     Comparator
	queries atomic.Uint64
	logger  *zap.Logger
}
