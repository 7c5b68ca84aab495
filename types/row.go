package types

import (
	"fmt"
	"math"
	"strings"
)

// RowID addresses a slot in a table's row arena and the matching node slot in
// every index of that table. Zero is never a valid row.
type RowID = uint32

const NilRow RowID = 0

type ValueKind uint8

const (
	KindInt ValueKind = iota + 1
	KindFloat
	KindChar
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindChar:
		return "CHAR"
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

// Value is a single typed field value, used both for decoded rows and for
// query bounds.
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	S    string
}

func IntValue(v int64) Value     { return Value{Kind: KindInt, I: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, F: v} }
func CharValue(v string) Value   { return Value{Kind: KindChar, S: v} }

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindChar:
		return fmt.Sprintf("%q", v.S)
	}
	return "<nil>"
}

// Compare orders two values of the same kind. INT and FLOAT compare
// numerically across kinds, exactly, without widening the INT. NaN sorts
// below every other number and is equal only to NaN.
func (v Value) Compare(o Value) int {
	switch {
	case v.Kind == KindChar && o.Kind == KindChar:
		return strings.Compare(v.S, o.S)
	case v.Kind == KindInt && o.Kind == KindInt:
		return cmpOrdered(v.I, o.I)
	case v.Kind == KindInt && o.Kind == KindFloat:
		return cmpIntFloat(v.I, o.F)
	case v.Kind == KindFloat && o.Kind == KindInt:
		return -cmpIntFloat(o.I, v.F)
	default:
		return cmpFloat(v.F, o.F)
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	return cmpOrdered(a, b)
}

// cmpIntFloat compares i against f without rounding i through float64.
func cmpIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f < math.MinInt64:
		return 1
	case f >= -math.MinInt64: // 2^63, not representable as int64
		return -1
	}
	t := math.Trunc(f)
	if c := cmpOrdered(i, int64(t)); c != 0 {
		return c
	}
	// i equals the integer part, the fraction decides
	return cmpOrdered(t, f)
}

// Row is a decoded row together with the id it lives at.
type Row struct {
	ID     RowID
	Values []Value
}

func (r Row) Clone() Row {
	vals := make([]Value, len(r.Values))
	copy(vals, r.Values)
	return Row{ID: r.ID, Values: vals}
}

// RowCtrl is the per-row control state kept in the row's control byte.
type RowCtrl uint8

const (
	RowFree   RowCtrl = iota // slot on the free list
	RowDirty                 // allocated, not yet published
	RowCommit                // committed, visible to everyone
	RowTrans                 // inserted by a running transaction
)

func (c RowCtrl) String() string {
	switch c {
	case RowFree:
		return "FREE"
	case RowDirty:
		return "DIRTY"
	case RowCommit:
		return "COMMIT"
	case RowTrans:
		return "TRANS"
	}
	return fmt.Sprintf("CTRL(%d)", uint8(c))
}
