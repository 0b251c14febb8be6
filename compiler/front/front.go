package front

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"tlog.app/go/tlog"

	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/ir"
	"github.com/slowlang/slowc/compiler/scope"
	"github.com/slowlang/slowc/compiler/tp"
)

type (
	// Generator lowers an analyzed tree to IR.
	// Counters are shared by all the functions of one Program.
	Generator struct {
		prog *ir.Program

		tmp   int
		label int
		data  int

		tr tlog.Span
	}

	funContext struct {
		*ir.Func

		vars  *scope.Table[ir.Ident]
		loops []loopLabels
	}

	loopLabels struct {
		start ir.Label
		end   ir.Label
	}
)

var tempName = regexp.MustCompile(`^t[0-9]+$`)

func New() *Generator {
	return &Generator{}
}

// Generate lowers prog, which must have passed analysis without diagnostics.
func Generate(ctx context.Context, prog []ast.Stmt) (*ir.Program, error) {
	return New().Generate(ctx, prog)
}

func (g *Generator) Generate(ctx context.Context, prog []ast.Stmt) (p *ir.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "front: generate", "stmts", len(prog))
	defer tr.Finish("err", &err)

	g.tr = tr
	g.prog = &ir.Program{}

	f := g.newFunc(ir.Start, ir.Start)

	g.stmts(f, prog)

	f.Emit(
		ir.Param{Src: ir.Const(0), Type: tp.Int{}},
		ir.Call{Label: "exit", Type: tp.Void{}},
	)

	// _start goes first
	g.prog.Funcs = append([]*ir.Func{f.Func}, g.prog.Funcs...)

	if tr.If("dump_ir") {
		for _, f := range g.prog.Funcs {
			tr.Printw("ir func", "name", f.Name, "label", f.Label, "code", len(f.Code), "names", len(f.Types))
		}

		tr.Printf("ir listing\n%s", g.prog)
	}

	return g.prog, nil
}

// ProcLabel is the assembly label of a user procedure overload.
// The name is length-prefixed so overloads can't collide with other names.
func ProcLabel(name string, args []tp.Type) string {
	l := "proc_" + strconv.Itoa(len(name)) + name

	for _, a := range args {
		l += "_" + tp.Mangle(a)
	}

	return l
}

func (g *Generator) newFunc(name, label string) *funContext {
	return &funContext{
		Func: ir.NewFunc(name, label),
		vars: scope.New[ir.Ident](),
	}
}

func (g *Generator) newTemp(f *funContext, t tp.Type) ir.Ident {
	g.tmp++
	id := ir.Ident(fmt.Sprintf("t%d", g.tmp))

	f.Declare(id, t)

	return id
}

func (g *Generator) newLabelNum() int {
	g.label++

	return g.label
}

// bind gives a source variable a function unique IR name.
func (g *Generator) bind(f *funContext, name string, t tp.Type) ir.Ident {
	id := ir.Ident(name)

	for k := 1; tempName.MatchString(string(id)) || f.Types[id] != nil; k++ {
		id = ir.Ident(fmt.Sprintf("%s#%d", name, k))
	}

	f.Declare(id, t)
	f.vars.Declare(name, id)

	return id
}

func (g *Generator) lookup(f *funContext, name string) ir.Ident {
	id, ok := f.vars.Lookup(name)
	if !ok {
		ir.Panicf("unbound variable %q in %s", name, f.Name)
	}

	return id
}

func (g *Generator) block(f *funContext, l []ast.Stmt) ir.Value {
	f.vars.Push()
	defer f.vars.Pop()

	return g.stmts(f, l)
}

// stmts returns the value of the last statement, if it has any.
func (g *Generator) stmts(f *funContext, l []ast.Stmt) (v ir.Value) {
	for _, s := range l {
		v = g.stmt(f, s)
	}

	return v
}

func (g *Generator) stmt(f *funContext, s ast.Stmt) ir.Value {
	switch s := s.(type) {
	case *ast.Declare:
		var v ir.Value = ir.Const(0)

		if s.Init != nil {
			v = g.expr(f, s.Init)
		}

		id := g.bind(f, s.Name, s.Typ)
		f.Emit(ir.Assign{Dest: id, Src: v, Type: s.Typ})
	case *ast.Assign:
		g.assign(f, s)
	case ast.CallStmt:
		return g.expr(f, s.Call)
	case *ast.If:
		n := g.newLabelNum()
		end := ir.Label(fmt.Sprintf("end_if_%d", n))

		g.jumpUnless(f, s.Cond, end)

		g.block(f, s.Body)

		f.Emit(end)
	case *ast.IfElse:
		n := g.newLabelNum()
		els := ir.Label(fmt.Sprintf("else_%d", n))
		end := ir.Label(fmt.Sprintf("end_if_%d", n))

		g.jumpUnless(f, s.Cond, els)

		g.block(f, s.Then)

		f.Emit(ir.Goto{Label: end}, els)

		g.block(f, s.Else)

		f.Emit(end)
	case *ast.Loop:
		g.loop(f, s.Body)
	case *ast.While:
		g.loop(f, WhileBody(s))
	case *ast.Break:
		f.Emit(ir.Goto{Label: f.innermost(s.Pos).end})
	case *ast.Continue:
		f.Emit(ir.Goto{Label: f.innermost(s.Pos).start})
	case *ast.Return:
		var v ir.Value

		if s.Value != nil {
			v = g.expr(f, s.Value)
		}

		f.Emit(ir.Return{Src: v, Type: f.Ret})
	case *ast.Proc:
		g.proc(s)
	default:
		ir.Panicf("unsupported statement: %T", s)
	}

	return nil
}

// jumpUnless jumps to label if cond is false.
// A relation is compared directly with the negated condition.
func (g *Generator) jumpUnless(f *funContext, cond ast.Expr, label ir.Label) {
	if e, ok := cond.(*ast.Call); ok {
		if rel, ok := relation[e.Op]; ok {
			l := g.expr(f, e.Args[0])
			r := g.expr(f, e.Args[1])

			f.Emit(ir.CondGoto{Src1: l, Src2: r, Rel: rel.Negate(), Label: label, Type: e.Args[0].Type()})

			return
		}
	}

	c := g.expr(f, cond)
	f.Emit(ir.CondGoto{Src1: c, Src2: ir.Const(0), Rel: ir.Eq, Label: label, Type: tp.Bool{}})
}

// WhileBody rewrites while cond { body } as the body of
// loop { if !cond { break }; body }.
func WhileBody(s *ast.While) []ast.Stmt {
	not := ast.NewCall(s.Cond.Position(), ast.OpNot, s.Cond)
	not.SetType(tp.Bool{})

	body := make([]ast.Stmt, 0, len(s.Body)+1)
	body = append(body, &ast.If{Pos: s.Pos, Cond: not, Body: []ast.Stmt{&ast.Break{Pos: s.Pos}}})
	body = append(body, s.Body...)

	return body
}

func (g *Generator) loop(f *funContext, body []ast.Stmt) {
	n := g.newLabelNum()
	l := loopLabels{
		start: ir.Label(fmt.Sprintf("loop_%d", n)),
		end:   ir.Label(fmt.Sprintf("loop_end_%d", n)),
	}

	f.Emit(l.start)

	f.loops = append(f.loops, l)
	g.block(f, body)
	f.loops = f.loops[:len(f.loops)-1]

	f.Emit(ir.Goto{Label: l.start}, l.end)
}

func (f *funContext) innermost(pos ast.Pos) loopLabels {
	if len(f.loops) == 0 {
		ir.Panicf("%d:%d: break or continue outside of loop", pos.Line, pos.Col)
	}

	return f.loops[len(f.loops)-1]
}

func (g *Generator) assign(f *funContext, s *ast.Assign) {
	v := g.expr(f, s.Src)

	switch d := s.Dest.(type) {
	case *ast.Ident:
		f.Emit(ir.Assign{Dest: g.lookup(f, d.Name), Src: v, Type: d.Type()})
	case *ast.Call:
		if d.Op != ast.OpIndex {
			ir.Panicf("%d:%d: assignment to %v", d.Pos.Line, d.Pos.Col, d.Op)
		}

		m := g.memPos(f, d)
		f.Emit(ir.Assign{Dest: m, Src: v, Type: d.Type()})
	default:
		ir.Panicf("assignment to %T", d)
	}
}

func (g *Generator) proc(s *ast.Proc) {
	args := make([]tp.Type, len(s.Params))
	for i, p := range s.Params {
		args[i] = p.Typ
	}

	f := g.newFunc(s.Name, ProcLabel(s.Name, args))
	f.Ret = s.Result

	for _, p := range s.Params {
		f.Params = append(f.Params, g.bind(f, p.Name, p.Typ))
	}

	g.stmts(f, s.Body)

	g.tr.V("front_proc").Printw("procedure", "name", s.Name, "label", f.Label, "params", len(f.Params), "code", len(f.Code))

	g.prog.Funcs = append(g.prog.Funcs, f.Func)
}
