package rbtree

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

// Filter selects rows by comparing the leading index fields against Values.
//
// EQ matches rows equal on the first len(Values) fields. The range operators
// require the first len(Values)-1 fields to be equal and apply the operator
// to the last one. Residual, when set, is evaluated on every visible
// candidate before it reaches the collector.
type Filter struct {
	Op       types.Op
	Values   []types.Value
	Residual func(row []byte) bool
}

// Collector receives matching rows in key order. Add returns false once no
// more rows are wanted.
type Collector interface {
	Add(id types.RowID, row []byte) bool
}

// Query streams the rows matching f and visible through vis into out.
// No match is not an error.
func (t *Tree) Query(f Filter, vis Visibility, out Collector) error {
	m := len(f.Values)
	if m == 0 || m > len(t.fields) {
		return errors.Wrapf(ErrBadFilter, "index %s: %d values for %d fields", t.name, m, len(t.fields))
	}
	if !f.Op.Valid() {
		return errors.Wrapf(ErrBadFilter, "index %s: operator %v", t.name, f.Op)
	}
	if vis == nil {
		vis = AllVisible
	}
	t.queries.Add(1)

	if t.root() == NIL {
		return nil
	}

	x := t.anchor(f)
	single := f.Op == types.OpEQ && m == len(t.fields)
	for x != NIL {
		row := t.rows.Row(x)
		if !t.inRange(f, row) {
			break
		}
		if !t.emit(x, row, f, vis, out) {
			return nil
		}
		for s := t.node(x).chain(); s != NIL; s = t.node(s).next() {
			if !t.emit(s, t.rows.Row(s), f, vis, out) {
				return nil
			}
		}
		if single {
			break
		}
		x = t.successor(x)
	}
	return nil
}

func (t *Tree) emit(id types.RowID, row []byte, f Filter, vis Visibility, out Collector) bool {
	if !vis.IsVisible(row, id) {
		return true
	}
	if f.Residual != nil && !f.Residual(row) {
		return true
	}
	return out.Add(id, row)
}

// anchor finds the first primary the forward scan may start from.
func (t *Tree) anchor(f Filter) types.RowID {
	m := len(f.Values)
	switch f.Op {
	case types.OpEQ:
		hit, _, _ := t.find(f.Values)
		if hit == NIL {
			return NIL
		}
		if m < len(t.fields) {
			return t.leftmost(hit, f.Values)
		}
		return hit
	case types.OpGE:
		return t.lowerBound(f.Values)
	case types.OpGT:
		hit, last, cmp := t.find(f.Values)
		if hit == NIL {
			if cmp > 0 {
				return last
			}
			return t.successor(last)
		}
		x := hit
		for x != NIL && t.cmp.EqualKey(t.rows.Row(x), t.fields, f.Values) {
			x = t.successor(x)
		}
		return x
	default: // LT, LE
		return t.lowerBound(f.Values[:m-1])
	}
}

// inRange reports whether the scan should continue at row.
func (t *Tree) inRange(f Filter, row []byte) bool {
	m := len(f.Values)
	switch f.Op {
	case types.OpEQ:
		return t.cmp.EqualKey(row, t.fields, f.Values)
	case types.OpGE, types.OpGT:
		return m == 1 || t.cmp.EqualKey(row, t.fields, f.Values[:m-1])
	default:
		if m > 1 && !t.cmp.EqualKey(row, t.fields, f.Values[:m-1]) {
			return false
		}
		return f.Op.Satisfies(t.cmp.CompareKey(row, t.fields, f.Values))
	}
}

// find descends on the leading len(vals) fields. On a miss it returns the
// last visited node and the sign of that node relative to vals.
func (t *Tree) find(vals []types.Value) (hit, last types.RowID, cmp int) {
	x := t.root()
	for x != NIL {
		last = x
		cmp = t.cmp.CompareKey(t.rows.Row(x), t.fields, vals)
		if cmp == 0 {
			return x, x, 0
		}
		if cmp > 0 {
			x = t.node(x).left()
		} else {
			x = t.node(x).right()
		}
	}
	return NIL, last, cmp
}

// lowerBound is the first primary whose leading fields are >= vals. An empty
// vals selects the minimum.
func (t *Tree) lowerBound(vals []types.Value) types.RowID {
	if len(vals) == 0 {
		return t.minimum(t.root())
	}
	hit, last, cmp := t.find(vals)
	if hit != NIL {
		return t.leftmost(hit, vals)
	}
	if cmp > 0 {
		return last
	}
	return t.successor(last)
}

// leftmost walks predecessors while they still equal vals.
func (t *Tree) leftmost(x types.RowID, vals []types.Value) types.RowID {
	for {
		p := t.predecessor(x)
		if p == NIL || !t.cmp.EqualKey(t.rows.Row(p), t.fields, vals) {
			return x
		}
		x = p
	}
}
