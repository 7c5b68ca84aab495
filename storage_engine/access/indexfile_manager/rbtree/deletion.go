package rbtree

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

// Remove takes row id out of the index. Rows that are not indexed are
// ignored. The slot is fully cleared afterwards.
func (t *Tree) Remove(id types.RowID) error {
	if id == NIL || id > t.stg.Capacity() {
		return nil
	}
	z := t.node(id)

	switch z.role() {
	case RoleAbsent:
		return nil
	case RoleSibling:
		if err := t.unlinkSibling(id); err != nil {
			return err
		}
		t.addCounts(-1, 0)
	case RolePrimary:
		if head := z.chain(); head != NIL {
			t.promoteSibling(id, head)
			t.addCounts(-1, 0)
		} else {
			t.deleteNode(id)
			t.addCounts(-1, -1)
		}
	default:
		return errors.Wrapf(ErrCorruptLink, "index %s: row %d has unknown role %d", t.name, id, z.role())
	}

	z.reset()
	return nil
}

func (t *Tree) unlinkSibling(id types.RowID) error {
	z := t.node(id)
	prev, next := z.prev(), z.next()

	if prev == NIL {
		p := z.primary()
		np := t.node(p)
		if np.role() != RolePrimary || np.chain() != id {
			return errors.Wrapf(ErrCorruptLink, "index %s: chain head %d not owned by row %d", t.name, id, p)
		}
		np.setChain(next)
		if next != NIL {
			nn := t.node(next)
			nn.setPrev(NIL)
			nn.setPrimary(p)
		}
		return nil
	}

	np := t.node(prev)
	if np.role() != RoleSibling || np.next() != id {
		return errors.Wrapf(ErrCorruptLink, "index %s: sibling %d not linked from %d", t.name, id, prev)
	}
	np.setNext(next)
	if next != NIL {
		t.node(next).setPrev(prev)
	}
	return nil
}

// promoteSibling moves chain head s into primary z's tree position. The
// shape and colors of the tree do not change.
func (t *Tree) promoteSibling(z, s types.RowID) {
	nz, ns := t.node(z), t.node(s)
	next := ns.next()

	ns.setRole(RolePrimary)
	ns.setColor(nz.color())
	ns.setChain(next)
	if next != NIL {
		nn := t.node(next)
		nn.setPrev(NIL)
		nn.setPrimary(s)
	}

	l, r, p := nz.left(), nz.right(), nz.parent()
	ns.setLeft(l)
	ns.setRight(r)
	ns.setParent(p)
	if l != NIL {
		t.node(l).setParent(s)
	}
	if r != NIL {
		t.node(r).setParent(s)
	}
	switch {
	case p == NIL:
		t.setRoot(s)
	case t.node(p).left() == z:
		t.node(p).setLeft(s)
	default:
		t.node(p).setRight(s)
	}
}

// transplant replaces subtree u with v. v may be NIL, in which case slot 0
// records the parent for deleteFixup.
func (t *Tree) transplant(u, v types.RowID) {
	up := t.node(u).parent()
	switch {
	case up == NIL:
		t.setRoot(v)
	case t.node(up).left() == u:
		t.node(up).setLeft(v)
	default:
		t.node(up).setRight(v)
	}
	t.node(v).setParent(up)
}

func (t *Tree) deleteNode(z types.RowID) {
	nz := t.node(z)
	yColor := nz.color()
	var x types.RowID

	switch {
	case nz.left() == NIL:
		x = nz.right()
		t.transplant(z, x)
	case nz.right() == NIL:
		x = nz.left()
		t.transplant(z, x)
	default:
		y := t.minimum(nz.right())
		ny := t.node(y)
		yColor = ny.color()
		x = ny.right()
		if ny.parent() == z {
			t.node(x).setParent(y)
		} else {
			t.transplant(y, x)
			ny.setRight(nz.right())
			t.node(ny.right()).setParent(y)
		}
		t.transplant(z, y)
		ny.setLeft(nz.left())
		t.node(ny.left()).setParent(y)
		ny.setColor(nz.color())
	}

	if yColor == Black {
		t.deleteFixup(x)
	}
	t.clearNil()
}

func (t *Tree) deleteFixup(x types.RowID) {
	for x != t.root() && !t.node(x).isRed() {
		p := t.node(x).parent()
		np := t.node(p)

		if x == np.left() {
			w := np.right()
			nw := t.node(w)
			if nw.isRed() {
				nw.setColor(Black)
				np.setColor(Red)
				t.rotateLeft(p)
				w = np.right()
				nw = t.node(w)
			}
			if !t.node(nw.left()).isRed() && !t.node(nw.right()).isRed() {
				nw.setColor(Red)
				x = p
				continue
			}
			if !t.node(nw.right()).isRed() {
				t.node(nw.left()).setColor(Black)
				nw.setColor(Red)
				t.rotateRight(w)
				w = np.right()
				nw = t.node(w)
			}
			nw.setColor(np.color())
			np.setColor(Black)
			t.node(nw.right()).setColor(Black)
			t.rotateLeft(p)
			x = t.root()
		} else {
			w := np.left()
			nw := t.node(w)
			if nw.isRed() {
				nw.setColor(Black)
				np.setColor(Red)
				t.rotateRight(p)
				w = np.left()
				nw = t.node(w)
			}
			if !t.node(nw.right()).isRed() && !t.node(nw.left()).isRed() {
				nw.setColor(Red)
				x = p
				continue
			}
			if !t.node(nw.left()).isRed() {
				t.node(nw.right()).setColor(Black)
				nw.setColor(Red)
				t.rotateLeft(w)
				w = np.left()
				nw = t.node(w)
			}
			nw.setColor(np.color())
			np.setColor(Black)
			t.node(nw.left()).setColor(Black)
			t.rotateRight(p)
			x = t.root()
		}
	}
	t.node(x).setColor(Black)
}
