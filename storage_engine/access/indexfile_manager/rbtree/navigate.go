package rbtree

import "ArenaDB/types"

func (t *Tree) minimum(x types.RowID) types.RowID {
	for {
		l := t.node(x).left()
		if l == NIL {
			return x
		}
		x = l
	}
}

func (t *Tree) maximum(x types.RowID) types.RowID {
	for {
		r := t.node(x).right()
		if r == NIL {
			return x
		}
		x = r
	}
}

func (t *Tree) successor(x types.RowID) types.RowID {
	if r := t.node(x).right(); r != NIL {
		return t.minimum(r)
	}
	y := t.node(x).parent()
	for y != NIL && x == t.node(y).right() {
		x = y
		y = t.node(y).parent()
	}
	return y
}

func (t *Tree) predecessor(x types.RowID) types.RowID {
	if l := t.node(x).left(); l != NIL {
		return t.maximum(l)
	}
	y := t.node(x).parent()
	for y != NIL && x == t.node(y).left() {
		x = y
		y = t.node(y).parent()
	}
	return y
}

// Ascend visits every indexed row in key order, each primary followed by its
// sibling chain, until fn returns false.
func (t *Tree) Ascend(fn func(id types.RowID) bool) {
	root := t.root()
	if root == NIL {
		return
	}
	for x := t.minimum(root); x != NIL; x = t.successor(x) {
		if !fn(x) {
			return
		}
		for s := t.node(x).chain(); s != NIL; s = t.node(s).next() {
			if !fn(s) {
				return
			}
		}
	}
}
