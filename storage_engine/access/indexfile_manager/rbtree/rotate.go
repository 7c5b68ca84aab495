package rbtree

import "ArenaDB/types"

func (t *Tree) rotateLeft(x types.RowID) {
	nx := t.node(x)
	y := nx.right()
	ny := t.node(y)

	nx.setRight(ny.left())
	if l := ny.left(); l != NIL {
		t.node(l).setParent(x)
	}
	p := nx.parent()
	ny.setParent(p)
	switch {
	case p == NIL:
		t.setRoot(y)
	case t.node(p).left() == x:
		t.node(p).setLeft(y)
	default:
		t.node(p).setRight(y)
	}
	ny.setLeft(x)
	nx.setParent(y)
}

func (t *Tree) rotateRight(x types.RowID) {
	nx := t.node(x)
	y := nx.left()
	ny := t.node(y)

	nx.setLeft(ny.right())
	if r := ny.right(); r != NIL {
		t.node(r).setParent(x)
	}
	p := nx.parent()
	ny.setParent(p)
	switch {
	case p == NIL:
		t.setRoot(y)
	case t.node(p).right() == x:
		t.node(p).setRight(y)
	default:
		t.node(p).setLeft(y)
	}
	ny.setRight(x)
	nx.setParent(y)
}
