package rbtree

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Add indexes row id whose current bytes are row. The arena grows first, so
// an out of memory error leaves the tree as it was. On a unique index an
// equal key whose occupant is visible through vis fails with
// ErrDuplicateKey; otherwise equal keys join the occupant's sibling chain.
// A nil vis treats every row as visible.
func (t *Tree) Add(id types.RowID, row []byte, vis Visibility) error {
	if id == NIL {
		return errors.Wrapf(ErrCorruptLink, "index %s: row id 0 cannot be indexed", t.name)
	}
	if err := t.stg.Reserve(id); err != nil {
		return errors.Wrapf(err, "index %s: add row %d", t.name, id)
	}
	z := t.node(id)
	if z.role() != RoleAbsent {
		return errors.Wrapf(ErrCorruptLink, "index %s: row %d is already indexed", t.name, id)
	}

	y, x := NIL, t.root()
	cmp := 0
	for x != NIL {
		y = x
		cmp = t.cmp.Compare(row, t.rows.Row(x), t.fields)
		if cmp == 0 {
			return t.addSibling(x, id, vis)
		}
		if cmp < 0 {
			x = t.node(x).left()
		} else {
			x = t.node(x).right()
		}
	}

	z.setParent(y)
	z.setLeft(NIL)
	z.setRight(NIL)
	z.setChain(NIL)
	z.setRole(RolePrimary)
	z.setColor(Red)
	switch {
	case y == NIL:
		t.setRoot(id)
	case cmp < 0:
		t.node(y).setLeft(id)
	default:
		t.node(y).setRight(id)
	}
	t.insertFixup(id)
	t.addCounts(1, 1)
	return nil
}

// addSibling pushes id onto the front of p's chain.
func (t *Tree) addSibling(p, id types.RowID, vis Visibility) error {
	z := t.node(id)
	if t.unique {
		if occ := t.visibleOccupant(p, vis); occ != NIL {
			z.reset()
			t.logger.Debug("duplicate key rejected",
				zap.String("index", t.name),
				zap.Uint32("row", id),
				zap.Uint32("occupant", occ))
			return errors.Wrapf(ErrDuplicateKey, "index %s: row %d conflicts with row %d", t.name, id, occ)
		}
	}

	np := t.node(p)
	head := np.chain()
	z.setRole(RoleSibling)
	z.setColor(Black)
	z.setPrev(NIL)
	z.setNext(head)
	z.setPrimary(p)
	if head != NIL {
		nh := t.node(head)
		nh.setPrev(id)
		nh.setPrimary(NIL)
	}
	np.setChain(id)
	t.addCounts(1, 0)
	return nil
}

// visibleOccupant returns the first row with p's key that vis can see.
func (t *Tree) visibleOccupant(p types.RowID, vis Visibility) types.RowID {
	if vis == nil {
		return p
	}
	if vis.IsVisible(t.rows.Row(p), p) {
		return p
	}
	for s := t.node(p).chain(); s != NIL; s = t.node(s).next() {
		if vis.IsVisible(t.rows.Row(s), s) {
			return s
		}
	}
	return NIL
}

func (t *Tree) insertFixup(z types.RowID) {
	for {
		p := t.node(z).parent()
		np := t.node(p)
		if !np.isRed() {
			break
		}
		g := np.parent()
		ng := t.node(g)

		if p == ng.left() {
			u := t.node(ng.right())
			if u.isRed() {
				np.setColor(Black)
				u.setColor(Black)
				ng.setColor(Red)
				z = g
				continue
			}
			if z == np.right() {
				z = p
				t.rotateLeft(z)
				p = t.node(z).parent()
				np = t.node(p)
			}
			np.setColor(Black)
			ng.setColor(Red)
			t.rotateRight(g)
		} else {
			u := t.node(ng.left())
			if u.isRed() {
				np.setColor(Black)
				u.setColor(Black)
				ng.setColor(Red)
				z = g
				continue
			}
			if z == np.left() {
				z = p
				t.rotateRight(z)
				p = t.node(z).parent()
				np = t.node(p)
			}
			np.setColor(Black)
			ng.setColor(Red)
			t.rotateLeft(g)
		}
	}
	t.node(t.root()).setColor(Black)
}
