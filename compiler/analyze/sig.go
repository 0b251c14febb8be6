package analyze

import (
	"strings"

	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/tp"
)

type (
	// Sigs maps (callable, argument types) to the result type.
	// Void results are stored as tp.Void.
	Sigs struct {
		m map[sigKey]tp.Type
	}

	sigKey struct {
		Op   ast.Operator
		Name string
		Args string
	}
)

var (
	tInt  tp.Type = tp.Int{}
	tBool tp.Type = tp.Bool{}
	tChar tp.Type = tp.Char{}
	tVoid tp.Type = tp.Void{}
	tStr  tp.Type = tp.Array{X: tp.Char{}}
)

func NewSigs() *Sigs {
	s := &Sigs{
		m: make(map[sigKey]tp.Type),
	}

	for _, op := range []ast.Operator{ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod} {
		s.Add(op, "", []tp.Type{tInt, tInt}, tInt)
	}

	for _, op := range []ast.Operator{ast.OpAnd, ast.OpOr} {
		s.Add(op, "", []tp.Type{tInt, tInt}, tInt)
		s.Add(op, "", []tp.Type{tBool, tBool}, tBool)
	}

	for _, op := range []ast.Operator{ast.OpEq, ast.OpNe} {
		for _, t := range []tp.Type{tInt, tBool, tChar} {
			s.Add(op, "", []tp.Type{t, t}, tBool)
		}
	}

	for _, op := range []ast.Operator{ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe} {
		for _, t := range []tp.Type{tInt, tChar} {
			s.Add(op, "", []tp.Type{t, t}, tBool)
		}
	}

	s.Add(ast.OpNot, "", []tp.Type{tBool}, tBool)
	s.Add(ast.OpNeg, "", []tp.Type{tInt}, tInt)

	for _, x := range []tp.Type{tInt, tBool, tChar} {
		s.Add(ast.OpIndex, "", []tp.Type{tp.Array{X: x}, tInt}, x)

		arr := tp.Array{X: x}
		s.Add(ast.OpIndex, "", []tp.Type{tp.Array{X: arr}, tInt}, arr)
	}

	s.Add(ast.OpPrint, "print", []tp.Type{tStr, tInt}, tVoid)
	s.Add(ast.OpExit, "exit", []tp.Type{tInt}, tVoid)

	return s
}

// Add registers a signature. It reports false if the exact
// (name, argument types) pair is already taken.
func (s *Sigs) Add(op ast.Operator, name string, args []tp.Type, res tp.Type) bool {
	k := key(op, name, args)

	if _, ok := s.m[k]; ok {
		return false
	}

	if res == nil {
		res = tVoid
	}

	s.m[k] = res

	return true
}

func (s *Sigs) Lookup(op ast.Operator, name string, args []tp.Type) (tp.Type, bool) {
	res, ok := s.m[key(op, name, args)]

	return res, ok
}

func (s *Sigs) Len() int { return len(s.m) }

func key(op ast.Operator, name string, args []tp.Type) sigKey {
	if op.IsOperator() {
		name = ""
	}

	var b strings.Builder

	for i, a := range args {
		if i != 0 {
			b.WriteByte(',')
		}

		b.WriteString(tp.Name(a))
	}

	return sigKey{Op: op, Name: name, Args: b.String()}
}
