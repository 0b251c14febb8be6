package front

import (
	"fmt"

	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/ir"
	"github.com/slowlang/slowc/compiler/tp"
)

var arith = map[ast.Operator]ir.Op{
	ast.OpAdd: ir.Add,
	ast.OpSub: ir.Sub,
	ast.OpMul: ir.Mul,
	ast.OpDiv: ir.Div,
	ast.OpMod: ir.Mod,
	ast.OpAnd: ir.And,
	ast.OpOr:  ir.Or,
}

var relation = map[ast.Operator]ir.Rel{
	ast.OpEq: ir.Eq,
	ast.OpNe: ir.Ne,
	ast.OpLt: ir.Lt,
	ast.OpLe: ir.Le,
	ast.OpGt: ir.Gt,
	ast.OpGe: ir.Ge,
}

func (g *Generator) expr(f *funContext, e ast.Expr) ir.Value {
	switch e := e.(type) {
	case *ast.Ident:
		return g.lookup(f, e.Name)
	case *ast.Literal:
		v, _ := g.static(e)

		return g.tempFrom(f, v, e.Type())
	case *ast.ArrayLit:
		return g.array(f, e)
	case *ast.Call:
		return g.call(f, e)
	default:
		ir.Panicf("unsupported expression: %T", e)
	}

	return nil
}

func (g *Generator) tempFrom(f *funContext, v ir.Value, t tp.Type) ir.Ident {
	id := g.newTemp(f, t)
	f.Emit(ir.Assign{Dest: id, Src: v, Type: t})

	return id
}

func (g *Generator) call(f *funContext, e *ast.Call) ir.Value {
	t := e.Type()

	if op, ok := arith[e.Op]; ok {
		l := g.expr(f, e.Args[0])
		r := g.expr(f, e.Args[1])

		id := g.tempFrom(f, l, t)
		f.Emit(ir.BinOp{Dest: id, Src1: id, Op: op, Src2: r, Type: t})

		return id
	}

	if rel, ok := relation[e.Op]; ok {
		l := g.expr(f, e.Args[0])
		r := g.expr(f, e.Args[1])

		f.Emit(ir.BinOp{Src1: l, Op: ir.Cmp, Src2: r, Type: e.Args[0].Type()})

		id := g.newTemp(f, t)
		f.Emit(ir.Set{Dest: id, Rel: rel})

		return id
	}

	switch e.Op {
	case ast.OpNot:
		v := g.expr(f, e.Args[0])

		id := g.newTemp(f, t)
		f.Emit(ir.Not{Dest: id, Src: v, Type: t})

		return id
	case ast.OpNeg:
		v := g.expr(f, e.Args[0])

		id := g.tempFrom(f, ir.Const(0), t)
		f.Emit(ir.BinOp{Dest: id, Src1: id, Op: ir.Sub, Src2: v, Type: t})

		return id
	case ast.OpIndex:
		m := g.memPos(f, e)

		return g.tempFrom(f, m, t)
	case ast.OpPrint, ast.OpExit, ast.OpProc:
		return g.procCall(f, e)
	}

	ir.Panicf("%d:%d: no lowering for %v", e.Pos.Line, e.Pos.Col, e.Op)

	return nil
}

func (g *Generator) memPos(f *funContext, e *ast.Call) ir.MemPos {
	base, ok := g.expr(f, e.Args[0]).(ir.Ident)
	if !ok {
		ir.Panicf("%d:%d: indexing a non variable", e.Pos.Line, e.Pos.Col)
	}

	return ir.MemPos{Base: base, Offset: g.expr(f, e.Args[1])}
}

// procCall lowers all the arguments first so that Params form
// one contiguous run right before the Call.
func (g *Generator) procCall(f *funContext, e *ast.Call) ir.Value {
	vals := make([]ir.Value, len(e.Args))
	args := make([]tp.Type, len(e.Args))

	for i, a := range e.Args {
		vals[i] = g.expr(f, a)
		args[i] = a.Type()
	}

	for i, v := range vals {
		f.Emit(ir.Param{Src: v, Type: args[i]})
	}

	label := e.CallName()
	if e.Op == ast.OpProc {
		label = ProcLabel(e.Name, args)
	}

	t := e.Type()
	c := ir.Call{Label: label, Type: t}

	if t != nil && !tp.IsVoid(t) {
		c.Dest = g.newTemp(f, t)
	}

	f.Emit(c)

	if c.Dest == "" {
		return nil
	}

	return c.Dest
}

// array places the literal in a static buffer.
// Elements not known at compile time are stored at run time.
func (g *Generator) array(f *funContext, e *ast.ArrayLit) ir.Value {
	if v, ok := g.static(e); ok {
		return g.tempFrom(f, v, e.Type())
	}

	elem, _ := tp.Elem(e.Type())
	items := make([]ir.Value, len(e.Elems))
	var late []int

	for i, el := range e.Elems {
		v, ok := g.static(el)
		if !ok {
			v = ir.Const(0)
			late = append(late, i)
		}

		items[i] = v
	}

	id := g.tempFrom(f, g.newData(elem, items), e.Type())

	for _, i := range late {
		v := g.expr(f, e.Elems[i])

		f.Emit(ir.Assign{Dest: ir.MemPos{Base: id, Offset: ir.Const(i)}, Src: v, Type: elem})
	}

	return id
}

// static returns the compile time value of e: a Const for scalar
// literals and an Addr for strings and fully static arrays.
func (g *Generator) static(e ast.Expr) (ir.Value, bool) {
	if !isStatic(e) {
		return nil, false
	}

	switch e := e.(type) {
	case *ast.Literal:
		_, v, s, err := ast.ParseLiteral(e.Text)
		if err != nil {
			ir.Panicf("%d:%d: %v", e.Pos.Line, e.Pos.Col, err)
		}

		if _, ok := tp.Elem(e.Type()); !ok {
			return ir.Const(v), true
		}

		items := make([]ir.Value, len(s))
		for i, c := range s {
			items[i] = ir.Const(c)
		}

		return g.newData(tp.Char{}, items), true
	case *ast.ArrayLit:
		elem, _ := tp.Elem(e.Type())
		items := make([]ir.Value, len(e.Elems))

		for i, el := range e.Elems {
			items[i], _ = g.static(el)
		}

		return g.newData(elem, items), true
	}

	return nil, false
}

func isStatic(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Literal:
		return true
	case *ast.ArrayLit:
		for _, el := range e.Elems {
			if !isStatic(el) {
				return false
			}
		}

		return true
	}

	return false
}

func (g *Generator) newData(elem tp.Type, items []ir.Value) ir.Addr {
	g.data++

	d := &ir.Data{
		Label: fmt.Sprintf("data_%d", g.data),
		Elem:  elem,
		Items: items,
	}

	g.prog.Data = append(g.prog.Data, d)

	return ir.Addr(d.Label)
}
