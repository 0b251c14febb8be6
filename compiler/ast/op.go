package ast

type Operator int

const (
	OpProc Operator = iota

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpNot
	OpNeg
	OpIndex

	OpPrint
	OpExit

	opEnd
)

var opNames = [...]string{
	OpProc:  "proc",
	OpAdd:   "+",
	OpSub:   "-",
	OpMul:   "*",
	OpDiv:   "/",
	OpMod:   "%",
	OpAnd:   "&",
	OpOr:    "|",
	OpEq:    "==",
	OpNe:    "!=",
	OpLt:    "<",
	OpLe:    "<=",
	OpGt:    ">",
	OpGe:    ">=",
	OpNot:   "!",
	OpNeg:   "-",
	OpIndex: "[]",
	OpPrint: "print",
	OpExit:  "exit",
}

func (op Operator) String() string {
	if op < 0 || op >= opEnd {
		return "op?"
	}

	return opNames[op]
}

// ParseOperator maps surface operator spelling to the operator.
// arity disambiguates unary minus.
func ParseOperator(s string, arity int) (Operator, bool) {
	if s == "-" && arity == 1 {
		return OpNeg, true
	}

	for op := OpAdd; op <= OpIndex; op++ {
		if op == OpNeg || opNames[op] != s {
			continue
		}

		return op, true
	}

	return 0, false
}

// Intrinsic reports whether name is a built-in procedure.
func Intrinsic(name string) (Operator, bool) {
	switch name {
	case "print":
		return OpPrint, true
	case "exit":
		return OpExit, true
	}

	return 0, false
}

func (op Operator) IsArith() bool {
	return op >= OpAdd && op <= OpOr
}

func (op Operator) IsRelation() bool {
	return op >= OpEq && op <= OpGe
}

func (op Operator) IsOperator() bool {
	return op >= OpAdd && op <= OpIndex
}
