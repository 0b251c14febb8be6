package analyze

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/scope"
	"github.com/slowlang/slowc/compiler/tp"
)

type (
	Analyzer struct {
		Sigs *Sigs

		vars  *scope.Table[tp.Type]
		errs  *diagSet
		proc  *procContext
		loops int

		tr tlog.Span
	}

	procContext struct {
		name string
		ret  tp.Type // nil until declared or inferred

		returned bool
	}
)

func New() *Analyzer {
	return &Analyzer{
		Sigs: NewSigs(),
		vars: scope.New[tp.Type](),
		errs: newDiagSet(),
	}
}

// Analyze types every expression of the program in place.
// It returns Diagnostics if anything is wrong.
func Analyze(ctx context.Context, prog []ast.Stmt) error {
	return New().Analyze(ctx, prog)
}

func (a *Analyzer) Analyze(ctx context.Context, prog []ast.Stmt) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "analyze", "stmts", len(prog))
	defer tr.Finish("err", &err)

	a.tr = tr

	a.stmts(prog)

	ds := a.errs.sorted()

	tr.Printw("analyzed", "diagnostics", len(ds), "signatures", a.Sigs.Len(), "globals", a.vars.Len())

	if len(ds) != 0 {
		return ds
	}

	return nil
}

func (a *Analyzer) block(l []ast.Stmt) {
	a.vars.Push()
	defer a.vars.Pop()

	a.stmts(l)
}

func (a *Analyzer) stmts(l []ast.Stmt) {
	for _, s := range l {
		a.stmt(s)
	}
}

func (a *Analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Declare:
		a.declare(s)
	case *ast.Assign:
		a.assign(s)
	case ast.CallStmt:
		a.expr(s.Call)
	case *ast.If:
		a.cond(s.Cond)
		a.block(s.Body)
	case *ast.IfElse:
		a.cond(s.Cond)
		a.block(s.Then)
		a.block(s.Else)
	case *ast.Loop:
		a.loops++
		a.block(s.Body)
		a.loops--
	case *ast.While:
		a.cond(s.Cond)

		a.loops++
		a.block(s.Body)
		a.loops--
	case *ast.Break:
		if a.loops == 0 {
			a.errs.add(s.Pos, MisplacedStatementError{Stmt: "break", Want: "loop"})
		}
	case *ast.Continue:
		if a.loops == 0 {
			a.errs.add(s.Pos, MisplacedStatementError{Stmt: "continue", Want: "loop"})
		}
	case *ast.Return:
		a.ret(s)
	case *ast.Proc:
		a.procedure(s)
	default:
		panic(s)
	}
}

func (a *Analyzer) declare(s *ast.Declare) {
	var t tp.Type

	if s.Init != nil {
		t = a.expr(s.Init)
	}

	switch {
	case s.Hint != nil:
		h, ok := a.typeName(s.Hint)
		if !ok {
			break
		}

		if s.Init != nil && t != nil && t != h {
			a.errs.add(s.Init.Position(), MismatchedTypesError{Expected: h, Found: t})
		}

		t = h
	case s.Init == nil:
		a.errs.add(s.Pos, UndefinedTypeError{Var: s.Name})
	}

	if s.Name == "" {
		a.errs.add(s.Pos, InvalidIdentifierError{What: "declaration without a name"})
		return
	}

	if tp.IsVoid(t) {
		a.errs.add(s.Init.Position(), InvalidIdentifierError{What: s.Name + " initialized with a Void value"})
		t = nil
	}

	s.Typ = t
	a.vars.Declare(s.Name, t)

	a.tr.V("analyze_decl").Printw("declare", "name", s.Name, "type", tp.Name(t), "depth", a.vars.Depth(), "bindings", a.vars.Len())
}

func (a *Analyzer) assign(s *ast.Assign) {
	src := a.expr(s.Src)

	switch d := s.Dest.(type) {
	case *ast.Ident:
		t, ok := a.vars.Lookup(d.Name)
		if !ok {
			a.errs.add(d.Pos, UndeclaredVariableError{Name: d.Name})
			return
		}

		d.SetType(t)

		if t != nil && src != nil && t != src {
			a.errs.add(s.Src.Position(), MismatchedTypesError{Expected: t, Found: src})
		}
	case *ast.Call:
		if d.Op != ast.OpIndex {
			a.errs.add(d.Pos, InvalidIdentifierError{What: "cannot assign to " + d.CallName() + " result"})
			return
		}

		// element type is not checked against src
		a.expr(d)
	default:
		a.errs.add(s.Dest.Position(), InvalidIdentifierError{What: "invalid assignment target"})
	}
}

func (a *Analyzer) cond(e ast.Expr) {
	t := a.expr(e)

	if t != nil && t != tBool {
		a.errs.add(e.Position(), MismatchedTypesError{Expected: tBool, Found: t})
	}
}

func (a *Analyzer) ret(s *ast.Return) {
	var t tp.Type = tVoid
	pos := s.Pos

	if s.Value != nil {
		t = a.expr(s.Value)
		pos = s.Value.Position()
	}

	if a.proc == nil {
		a.errs.add(s.Pos, MisplacedStatementError{Stmt: "return", Want: "procedure"})
		return
	}

	a.proc.returned = true

	if t == nil {
		return
	}

	if a.proc.ret == nil {
		a.proc.ret = t
		return
	}

	if t != a.proc.ret {
		a.errs.add(pos, MismatchedTypesError{Expected: a.proc.ret, Found: t})
	}
}

func (a *Analyzer) procedure(s *ast.Proc) {
	if s.Name == "" {
		a.errs.add(s.Pos, InvalidIdentifierError{What: "procedure without a name"})
	}

	savedVars, savedProc, savedLoops := a.vars, a.proc, a.loops
	defer func() {
		a.vars, a.proc, a.loops = savedVars, savedProc, savedLoops
	}()

	a.vars = scope.New[tp.Type]()
	a.proc = &procContext{name: s.Name}
	a.loops = 0

	args := make([]tp.Type, len(s.Params))
	complete := true

	for i := range s.Params {
		p := &s.Params[i]

		var t tp.Type

		if p.Type == nil {
			a.errs.add(p.Pos, UndefinedTypeError{Var: p.Name})
		} else if h, ok := a.typeName(p.Type); ok {
			t = h
		}

		if a.vars.Local(p.Name) {
			a.errs.add(p.Pos, AlreadyDeclaredError{Name: p.Name})
		}

		if t == nil {
			complete = false
		}

		p.Typ = t
		args[i] = t

		a.vars.Declare(p.Name, t)
	}

	if s.Ret != nil {
		h, ok := a.typeName(s.Ret)
		if ok {
			a.proc.ret = h
		} else {
			complete = false
		}
	}

	a.stmts(s.Body)

	if s.Ret != nil && a.proc.ret != nil && !tp.IsVoid(a.proc.ret) && !a.proc.returned {
		a.errs.add(s.Pos, MismatchedTypesError{Expected: a.proc.ret, Found: tVoid})
	}

	res := a.proc.ret
	if res == nil {
		res = tVoid
	}

	s.Result = res

	a.tr.V("analyze_proc").Printw("procedure", "name", s.Name, "args", typeList(args), "result", res.String(), "complete", complete)

	if !complete || s.Name == "" {
		return
	}

	if op, ok := ast.Intrinsic(s.Name); ok {
		if _, ok := a.Sigs.Lookup(op, s.Name, args); ok {
			a.errs.add(s.Pos, AlreadyDeclaredError{Name: s.Name, Args: args})
			return
		}
	}

	if !a.Sigs.Add(ast.OpProc, s.Name, args, res) {
		a.errs.add(s.Pos, AlreadyDeclaredError{Name: s.Name, Args: args})
	}
}

func (a *Analyzer) typeName(n *ast.TypeName) (tp.Type, bool) {
	t, err := tp.Parse(n.Name)
	if err != nil {
		a.errs.add(n.Pos, UndefinedTypeError{Name: n.Name})
		return nil, false
	}

	return t, true
}

func (a *Analyzer) expr(e ast.Expr) (t tp.Type) {
	switch e := e.(type) {
	case *ast.Ident:
		var ok bool

		t, ok = a.vars.Lookup(e.Name)
		if !ok {
			a.errs.add(e.Pos, UndeclaredVariableError{Name: e.Name})
		}
	case *ast.Literal:
		var err error

		t, _, _, err = ast.ParseLiteral(e.Text)
		if err != nil {
			a.errs.add(e.Pos, InvalidIdentifierError{What: err.Error()})
		}
	case *ast.ArrayLit:
		t = a.array(e)
	case *ast.Call:
		t = a.call(e)
	default:
		panic(e)
	}

	e.SetType(t)

	return t
}

func (a *Analyzer) array(e *ast.ArrayLit) tp.Type {
	if len(e.Elems) == 0 {
		a.errs.add(e.Pos, InvalidArrayError{Reason: "empty array literal"})
		return nil
	}

	var x tp.Type
	valid := true

	for _, el := range e.Elems {
		t := a.expr(el)

		switch {
		case t == nil:
			valid = false
		case tp.IsVoid(t):
			a.errs.add(el.Position(), InvalidArrayError{Reason: "void element"})
			valid = false
		case x == nil:
			x = t
		case t != x:
			a.errs.add(el.Position(), MismatchedTypesError{Expected: x, Found: t})
			valid = false
		}
	}

	if !valid || x == nil {
		return nil
	}

	return tp.Array{X: x}
}

func (a *Analyzer) call(e *ast.Call) tp.Type {
	args := make([]tp.Type, len(e.Args))
	typed := true

	for i, arg := range e.Args {
		args[i] = a.expr(arg)

		if args[i] == nil {
			typed = false
		}
	}

	if !typed {
		return nil
	}

	if e.Op == ast.OpProc {
		if op, ok := ast.Intrinsic(e.Name); ok {
			if res, ok := a.Sigs.Lookup(op, e.Name, args); ok {
				e.Op = op
				return res
			}
		}
	}

	res, ok := a.Sigs.Lookup(e.Op, e.Name, args)
	if ok {
		return res
	}

	switch {
	case e.Op.IsOperator():
		err := OperationNotImplementedError{Op: e.Op, Left: args[0]}
		if len(args) > 1 {
			err.Right = args[1]
		}

		a.errs.add(e.Pos, err)
	default:
		a.errs.add(e.Pos, UndefinedProcedureError{Name: e.CallName(), Args: args})
	}

	return nil
}
