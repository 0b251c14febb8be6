package analyze

import (
	"fmt"
	"strings"

	"nikand.dev/go/heap"

	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/tp"
)

type (
	Kind int

	// Diagnostic is one user-facing problem found by the analyzer.
	Diagnostic struct {
		Pos ast.Pos
		Err KindError

		seq int
	}

	// Diagnostics is the whole batch, sorted by position.
	Diagnostics []Diagnostic

	KindError interface {
		error
		Kind() Kind
	}

	UndeclaredVariableError struct {
		Name string
	}

	AlreadyDeclaredError struct {
		Name string
		Args []tp.Type
	}

	MismatchedTypesError struct {
		Expected tp.Type
		Found    tp.Type
	}

	OperationNotImplementedError struct {
		Op    ast.Operator
		Left  tp.Type
		Right tp.Type
	}

	InvalidArrayError struct {
		Reason string
	}

	InvalidIdentifierError struct {
		What string
	}

	UndefinedTypeError struct {
		Name string
		Var  string
	}

	UndefinedProcedureError struct {
		Name string
		Args []tp.Type
	}

	MisplacedStatementError struct {
		Stmt string
		Want string
	}

	diagSet struct {
		heap.Heap[Diagnostic]

		seq int
	}
)

const (
	_ Kind = iota
	UndeclaredVariable
	AlreadyDeclared
	MismatchedTypes
	OperationNotImplemented
	InvalidArray
	InvalidIdentifier
	UndefinedType
	UndefinedProcedure
	MisplacedStatement
)

func (k Kind) String() string {
	switch k {
	case UndeclaredVariable:
		return "UndeclaredVariable"
	case AlreadyDeclared:
		return "AlreadyDeclared"
	case MismatchedTypes:
		return "MismatchedTypes"
	case OperationNotImplemented:
		return "OperationNotImplemented"
	case InvalidArray:
		return "InvalidArray"
	case InvalidIdentifier:
		return "InvalidIdentifier"
	case UndefinedType:
		return "UndefinedType"
	case UndefinedProcedure:
		return "UndefinedProcedure"
	case MisplacedStatement:
		return "MisplacedStatement"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (UndeclaredVariableError) Kind() Kind      { return UndeclaredVariable }
func (AlreadyDeclaredError) Kind() Kind         { return AlreadyDeclared }
func (MismatchedTypesError) Kind() Kind         { return MismatchedTypes }
func (OperationNotImplementedError) Kind() Kind { return OperationNotImplemented }
func (InvalidArrayError) Kind() Kind            { return InvalidArray }
func (InvalidIdentifierError) Kind() Kind       { return InvalidIdentifier }
func (UndefinedTypeError) Kind() Kind           { return UndefinedType }
func (UndefinedProcedureError) Kind() Kind      { return UndefinedProcedure }
func (MisplacedStatementError) Kind() Kind      { return MisplacedStatement }

func (e UndeclaredVariableError) Error() string {
	return fmt.Sprintf("undeclared variable: %s", e.Name)
}

func (e AlreadyDeclaredError) Error() string {
	if e.Args == nil {
		return fmt.Sprintf("already declared: %s", e.Name)
	}

	return fmt.Sprintf("already declared: %s(%s)", e.Name, typeList(e.Args))
}

func (e MismatchedTypesError) Error() string {
	return fmt.Sprintf("mismatched types: expected %s, found %s", tp.Name(e.Expected), tp.Name(e.Found))
}

func (e OperationNotImplementedError) Error() string {
	if e.Right == nil {
		return fmt.Sprintf("operation not implemented: %v %s", e.Op, tp.Name(e.Left))
	}

	return fmt.Sprintf("operation not implemented: %s %v %s", tp.Name(e.Left), e.Op, tp.Name(e.Right))
}

func (e InvalidArrayError) Error() string {
	return "invalid array: " + e.Reason
}

func (e InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.What
}

func (e UndefinedTypeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("undefined type: %s needs a type hint or an initializer", e.Var)
	}

	return fmt.Sprintf("undefined type: %s", e.Name)
}

func (e UndefinedProcedureError) Error() string {
	return fmt.Sprintf("undefined procedure: %s(%s)", e.Name, typeList(e.Args))
}

func (e MisplacedStatementError) Error() string {
	return fmt.Sprintf("%s outside of %s", e.Stmt, e.Want)
}

func (d Diagnostic) Kind() Kind { return d.Err.Kind() }

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %v", d.Pos.Line, d.Pos.Col, d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

func (ds Diagnostics) Error() string {
	var b strings.Builder

	for i, d := range ds {
		if i != 0 {
			b.WriteByte('\n')
		}

		b.WriteString(d.Error())
	}

	return b.String()
}

// Kinds lists diagnostic kinds in report order.
func (ds Diagnostics) Kinds() []Kind {
	r := make([]Kind, len(ds))

	for i, d := range ds {
		r[i] = d.Kind()
	}

	return r
}

func newDiagSet() *diagSet {
	return &diagSet{
		Heap: heap.Heap[Diagnostic]{Less: diagLess},
	}
}

func (s *diagSet) add(pos ast.Pos, err KindError) {
	s.seq++

	s.Push(Diagnostic{Pos: pos, Err: err, seq: s.seq})
}

// sorted drains the set in (line, column) order.
func (s *diagSet) sorted() Diagnostics {
	if s.Len() == 0 {
		return nil
	}

	r := make(Diagnostics, 0, s.Len())

	for s.Len() != 0 {
		r = append(r, s.Pop())
	}

	return r
}

func diagLess(d []Diagnostic, i, j int) bool {
	if d[i].Pos != d[j].Pos {
		return d[i].Pos.Less(d[j].Pos)
	}

	return d[i].seq < d[j].seq
}

func typeList(l []tp.Type) string {
	var b strings.Builder

	for i, t := range l {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(tp.Name(t))
	}

	return b.String()
}
