package rbtree

import (
	"encoding/binary"

	"ArenaDB/types"
)

// node is a view over one packed slot. Views go stale when the arena grows.
type node []byte

func (n node) get(off int) types.RowID    { return binary.LittleEndian.Uint32(n[off:]) }
func (n node) set(off int, v types.RowID) { binary.LittleEndian.PutUint32(n[off:], v) }
func (n node) left() types.RowID          { return n.get(offLink0) }
func (n node) right() types.RowID         { return n.get(offLink1) }
func (n node) parent() types.RowID        { return n.get(offUp) }
func (n node) chain() types.RowID         { return n.get(offChain) }
func (n node) prev() types.RowID          { return n.get(offLink0) }
func (n node) next() types.RowID          { return n.get(offLink1) }
func (n node) primary() types.RowID       { return n.get(offUp) }
func (n node) setLeft(v types.RowID)      { n.set(offLink0, v) }
func (n node) setRight(v types.RowID)     { n.set(offLink1, v) }
func (n node) setParent(v types.RowID)    { n.set(offUp, v) }
func (n node) setChain(v types.RowID)     { n.set(offChain, v) }
func (n node) setPrev(v types.RowID)      { n.set(offLink0, v) }
func (n node) setNext(v types.RowID)      { n.set(offLink1, v) }
func (n node) setPrimary(v types.RowID)   { n.set(offUp, v) }
func (n node) role() Role                 { return Role(n[offRole]) }
func (n node) setRole(r Role)             { n[offRole] = byte(r) }
func (n node) color() Color               { return Color(n[offColor]) }
func (n node) setColor(c Color)           { n[offColor] = byte(c) }
func (n node) isRed() bool                { return n.color() == Red }
func (n node) reset()                     { clear(n) }

// node resolves id through the storage manager. Every link dereference in
// the package goes through here.
func (t *Tree) node(id types.RowID) node {
	return node(t.stg.Resolve(id))
}

func (t *Tree) meta() []byte { return t.stg.Meta() }

func (t *Tree) root() types.RowID {
	return binary.LittleEndian.Uint32(t.meta()[metaRoot:])
}

func (t *Tree) setRoot(id types.RowID) {
	binary.LittleEndian.PutUint32(t.meta()[metaRoot:], id)
}

func (t *Tree) addCounts(rows, nodes int32) {
	m := t.meta()
	binary.LittleEndian.PutUint32(m[metaRowCount:], uint32(int32(binary.LittleEndian.Uint32(m[metaRowCount:]))+rows))
	binary.LittleEndian.PutUint32(m[metaNodeCount:], uint32(int32(binary.LittleEndian.Uint32(m[metaNodeCount:]))+nodes))
}

// RowCount is the number of indexed rows, siblings included.
func (t *Tree) RowCount() uint32 { return binary.LittleEndian.Uint32(t.meta()[metaRowCount:]) }

// NodeCount is the number of primary tree nodes.
func (t *Tree) NodeCount() uint32 { return binary.LittleEndian.Uint32(t.meta()[metaNodeCount:]) }

func (t *Tree) Root() types.RowID { return t.root() }

// QueryCount is the number of queries served since creation.
func (t *Tree) QueryCount() uint64 { return t.queries.Load() }

func (t *Tree) Name() string     { return t.name }
func (t *Tree) Fields() []int    { return t.fields }
func (t *Tree) Unique() bool     { return t.unique }
func (t *Tree) Capacity() uint32 { return t.stg.Capacity() }

// Contains reports whether id is currently indexed, as a primary or a sibling.
func (t *Tree) Contains(id types.RowID) bool {
	if id == NIL || id > t.stg.Capacity() {
		return false
	}
	return t.node(id).role() != RoleAbsent
}

// clearNil undoes the parent write delete fixup may leave on slot 0.
func (t *Tree) clearNil() { t.node(NIL).reset() }
