package ast

import (
	"github.com/slowlang/slowc/compiler/tp"
)

type (
	Pos struct {
		Line int
		Col  int
	}

	Node interface {
		Position() Pos
	}

	Expr interface {
		Node

		Type() tp.Type
		SetType(tp.Type)
	}

	Stmt interface {
		Node
	}

	Base struct {
		Pos `tlog:",embed"`

		Typ tp.Type
	}

	Ident struct {
		Base `tlog:",embed"`

		Name string
	}

	Literal struct {
		Base `tlog:",embed"`

		Text string
	}

	// Call covers operators, intrinsics and user procedures alike.
	// Name is only meaningful for OpProc.
	Call struct {
		Base `tlog:",embed"`

		Op   Operator
		Name string
		Args []Expr
	}

	ArrayLit struct {
		Base `tlog:",embed"`

		Elems []Expr
	}

	TypeName struct {
		Pos

		Name string
	}

	Param struct {
		Pos

		Name string
		Type *TypeName

		Typ tp.Type
	}

	Proc struct {
		Pos

		Name   string
		Params []Param
		Ret    *TypeName
		Body   []Stmt

		Result tp.Type
	}

	CallStmt struct {
		*Call
	}

	Return struct {
		Pos

		Value Expr
	}

	Declare struct {
		Pos

		Name string
		Hint *TypeName
		Init Expr

		Typ tp.Type
	}

	Assign struct {
		Pos

		Dest Expr
		Src  Expr
	}

	If struct {
		Pos

		Cond Expr
		Body []Stmt
	}

	IfElse struct {
		Pos

		Cond Expr
		Then []Stmt
		Else []Stmt
	}

	Loop struct {
		Pos

		Body []Stmt
	}

	While struct {
		Pos

		Cond Expr
		Body []Stmt
	}

	Continue struct {
		Pos
	}

	Break struct {
		Pos
	}
)

func (p Pos) Position() Pos { return p }

// Less orders positions by line, then column.
func (p Pos) Less(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}

	return p.Col < q.Col
}

func (b *Base) Type() tp.Type { return b.Typ }

func (b *Base) SetType(t tp.Type) { b.Typ = t }

// CallName is the name a call is resolved and reported by.
func (x *Call) CallName() string {
	if x.Op == OpProc {
		return x.Name
	}

	return x.Op.String()
}

func NewIdent(pos Pos, name string) *Ident {
	return &Ident{Base: Base{Pos: pos}, Name: name}
}

func NewLiteral(pos Pos, text string) *Literal {
	return &Literal{Base: Base{Pos: pos}, Text: text}
}

func NewCall(pos Pos, op Operator, args ...Expr) *Call {
	return &Call{Base: Base{Pos: pos}, Op: op, Args: args}
}

func NewProcCall(pos Pos, name string, args ...Expr) *Call {
	return &Call{Base: Base{Pos: pos}, Op: OpProc, Name: name, Args: args}
}

func NewArray(pos Pos, elems ...Expr) *ArrayLit {
	return &ArrayLit{Base: Base{Pos: pos}, Elems: elems}
}
