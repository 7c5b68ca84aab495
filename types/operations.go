package types

import (
	"fmt"
	"strings"
)

// Op is a comparison operator accepted by index queries.
type Op byte

const (
	OpEQ Op = iota + 1
	OpGE
	OpGT
	OpLT
	OpLE
)

func (o Op) String() string {
	switch o {
	case OpEQ:
		return "="
	case OpGE:
		return ">="
	case OpGT:
		return ">"
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	}
	return fmt.Sprintf("OP(%d)", byte(o))
}

func (o Op) Valid() bool { return o >= OpEQ && o <= OpLE }

func ParseOp(s string) (Op, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "=", "==", "EQ":
		return OpEQ, nil
	case ">=", "GE":
		return OpGE, nil
	case ">", "GT":
		return OpGT, nil
	case "<", "LT":
		return OpLT, nil
	case "<=", "LE":
		return OpLE, nil
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// Satisfies reports whether a comparison result (row relative to bound)
// passes the operator.
func (o Op) Satisfies(cmp int) bool {
	switch o {
	case OpEQ:
		return cmp == 0
	case OpGE:
		return cmp >= 0
	case OpGT:
		return cmp > 0
	case OpLT:
		return cmp < 0
	case OpLE:
		return cmp <= 0
	}
	return false
}
