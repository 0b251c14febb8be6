package ir

import (
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/slowc/compiler/tp"
)

type (
	// Value names where a result lives.
	Value interface {
		TlogAppend(b []byte) []byte
		value()
	}

	Ident string
	Const int64

	// Addr is the address of a data buffer.
	Addr string

	// MemPos is the element Offset of the array Base points to.
	// Offset counts elements, not bytes.
	MemPos struct {
		Base   Ident
		Offset Value
	}

	Instr interface {
		instr()
	}

	// Assign copies Src to Dest. Dest is an Ident or a MemPos.
	Assign struct {
		Dest Value
		Src  Value
		Type tp.Type
	}

	Not struct {
		Dest Ident
		Src  Value
		Type tp.Type
	}

	// BinOp computes Dest = Src1 Op Src2. Dest is always the Ident
	// previously assigned from Src1. Cmp has no Dest and only sets flags.
	BinOp struct {
		Dest Ident
		Src1 Value
		Op   Op
		Src2 Value
		Type tp.Type
	}

	// Set writes the outcome of the preceding Cmp to a Bool.
	Set struct {
		Dest Ident
		Rel  Rel
	}

	Label string

	Goto struct {
		Label Label
	}

	CondGoto struct {
		Src1  Value
		Src2  Value
		Rel   Rel
		Label Label
		Type  tp.Type
	}

	// Param passes the next argument of the following Call.
	Param struct {
		Src  Value
		Type tp.Type
	}

	Call struct {
		Dest  Ident // empty for Void
		Label string
		Type  tp.Type
	}

	Return struct {
		Src  Value // nil for Void
		Type tp.Type
	}

	Op  int
	Rel int

	Func struct {
		Name  string
		Label string

		Params []Ident
		Ret    tp.Type

		Code []Instr

		Types map[Ident]tp.Type
	}

	// Data is a static buffer of Elem sized items, each a Const or an Addr.
	Data struct {
		Label string
		Elem  tp.Type
		Items []Value
	}

	Program struct {
		Funcs []*Func
		Data  []*Data
	}
)

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	And
	Or
	Cmp
)

const (
	Eq Rel = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

const Start = "_start"

var (
	opNames  = [...]string{Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "%", And: "&", Or: "|", Cmp: "cmp"}
	relNames = [...]string{Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">="}
)

func (Ident) value()  {}
func (Const) value()  {}
func (Addr) value()   {}
func (MemPos) value() {}

func (Assign) instr()   {}
func (Not) instr()      {}
func (BinOp) instr()    {}
func (Set) instr()      {}
func (Label) instr()    {}
func (Goto) instr()     {}
func (CondGoto) instr() {}
func (Param) instr()    {}
func (Call) instr()     {}
func (Return) instr()   {}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "op?"
	}

	return opNames[op]
}

func (r Rel) String() string {
	if r < 0 || int(r) >= len(relNames) {
		return "rel?"
	}

	return relNames[r]
}

// Negate returns the relation that holds exactly when r does not.
func (r Rel) Negate() Rel {
	switch r {
	case Eq:
		return Ne
	case Ne:
		return Eq
	case Lt:
		return Ge
	case Le:
		return Gt
	case Gt:
		return Le
	default:
		return Lt
	}
}

func NewFunc(name, label string) *Func {
	return &Func{
		Name:  name,
		Label: label,
		Types: make(map[Ident]tp.Type),
	}
}

func (f *Func) Emit(x ...Instr) {
	f.Code = append(f.Code, x...)
}

// Declare records the type of a name. Names are single-typed per function.
func (f *Func) Declare(name Ident, t tp.Type) {
	f.Types[name] = t
}

func (p *Program) Func(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

func (x Ident) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, string(x))
}

func (x Const) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendInt(b, int(x))
}

func (x Addr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	return e.AppendFormat(b, "&%s", string(x))
}

func (x MemPos) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKey(b, "base")
	b = e.AppendString(b, string(x.Base))
	b = e.AppendKey(b, "off")
	b = x.Offset.TlogAppend(b)

	return b
}
