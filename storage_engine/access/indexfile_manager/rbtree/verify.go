package rbtree

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

// Check walks the whole index and verifies the red-black rules, parent
// links, sibling chains and header counters. Key order is only checked when
// the tree has a comparator.
func (t *Tree) Check() error {
	if nilNode := t.node(NIL); nilNode.role() != RoleAbsent || nilNode.isRed() {
		return errors.Wrapf(ErrCorruptLink, "index %s: slot 0 is occupied", t.name)
	}

	root := t.root()
	if root != NIL {
		nr := t.node(root)
		if nr.parent() != NIL {
			return errors.Wrapf(ErrCorruptLink, "index %s: root %d has parent %d", t.name, root, nr.parent())
		}
		if nr.isRed() {
			return errors.Newf("index %s: root %d is red", t.name, root)
		}
	}

	c := checker{t: t, limit: t.stg.Capacity()}
	if _, err := c.walk(root, NIL); err != nil {
		return err
	}
	if c.nodes != t.NodeCount() {
		return errors.Newf("index %s: node_count %d, found %d primaries", t.name, t.NodeCount(), c.nodes)
	}
	if c.rows != t.RowCount() {
		return errors.Newf("index %s: row_count %d, found %d rows", t.name, t.RowCount(), c.rows)
	}
	return nil
}

type checker struct {
	t     *Tree
	limit uint32
	prev  types.RowID
	nodes uint32
	rows  uint32
}

// walk checks the subtree at x in order and returns its black height.
func (c *checker) walk(x, parent types.RowID) (int, error) {
	t := c.t
	if x == NIL {
		return 1, nil
	}
	if x > c.limit {
		return 0, errors.Wrapf(ErrCorruptLink, "index %s: link to %d beyond capacity %d", t.name, x, c.limit)
	}
	n := t.node(x)
	if n.role() != RolePrimary {
		return 0, errors.Wrapf(ErrCorruptLink, "index %s: tree link to %s slot %d", t.name, n.role(), x)
	}
	if n.parent() != parent {
		return 0, errors.Wrapf(ErrCorruptLink, "index %s: row %d parent %d, want %d", t.name, x, n.parent(), parent)
	}
	if c.nodes >= c.limit {
		return 0, errors.Wrapf(ErrCorruptLink, "index %s: cycle through row %d", t.name, x)
	}
	if n.isRed() && (t.node(n.left()).isRed() || t.node(n.right()).isRed()) {
		return 0, errors.Newf("index %s: red row %d has a red child", t.name, x)
	}

	lh, err := c.walk(n.left(), x)
	if err != nil {
		return 0, err
	}

	if c.prev != NIL && t.cmp != nil && t.rows != nil {
		if t.cmp.Compare(t.rows.Row(c.prev), t.rows.Row(x), t.fields) >= 0 {
			return 0, errors.Newf("index %s: rows %d and %d out of order", t.name, c.prev, x)
		}
	}
	c.prev = x
	c.nodes++
	c.rows++
	if err := c.chain(x); err != nil {
		return 0, err
	}

	rh, err := c.walk(n.right(), x)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, errors.Newf("index %s: black height %d/%d below row %d", t.name, lh, rh, x)
	}
	if !n.isRed() {
		lh++
	}
	return lh, nil
}

func (c *checker) chain(p types.RowID) error {
	t := c.t
	prev := NIL
	steps := uint32(0)
	for s := t.node(p).chain(); s != NIL; s = t.node(s).next() {
		if s > c.limit {
			return errors.Wrapf(ErrCorruptLink, "index %s: chain of %d links to %d beyond capacity", t.name, p, s)
		}
		ns := t.node(s)
		if ns.role() != RoleSibling || ns.prev() != prev {
			return errors.Wrapf(ErrCorruptLink, "index %s: broken chain link %d after %d", t.name, s, prev)
		}
		if prev == NIL && ns.primary() != p {
			return errors.Wrapf(ErrCorruptLink, "index %s: chain head %d names primary %d, want %d", t.name, s, ns.primary(), p)
		}
		if prev != NIL && ns.primary() != NIL {
			return errors.Wrapf(ErrCorruptLink, "index %s: sibling %d carries a primary ref", t.name, s)
		}
		if t.cmp != nil && t.rows != nil && t.cmp.Compare(t.rows.Row(s), t.rows.Row(p), t.fields) != 0 {
			return errors.Newf("index %s: sibling %d key differs from row %d", t.name, s, p)
		}
		if steps++; steps > c.limit {
			return errors.Wrapf(ErrCorruptLink, "index %s: cycle in chain of %d", t.name, p)
		}
		c.rows++
		prev = s
	}
	return nil
}

// Height is the longest root to leaf path over primaries.
func (t *Tree) Height() int {
	var h func(x types.RowID) int
	h = func(x types.RowID) int {
		if x == NIL {
			return 0
		}
		n := t.node(x)
		return 1 + max(h(n.left()), h(n.right()))
	}
	return h(t.root())
}
