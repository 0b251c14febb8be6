package parse

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowc/compiler/ast"
)

type (
	State struct {
		b     []byte
		lines []int // line start offsets
	}
)

func ParseFile(ctx context.Context, name string) ([]ast.Stmt, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, text)
}

func Parse(ctx context.Context, text []byte) (prog []ast.Stmt, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "size", len(text))
	defer tr.Finish("err", &err)

	s := New(text)

	prog, i, err := s.stmts(ctx, 0, nil)
	if err != nil {
		return nil, err
	}

	if s.skipSpaces(i) != len(s.b) {
		tk, tst, _ := s.next(ctx, i)
		return nil, s.unexpected(tk, tst, "statement")
	}

	tr.Printw("parsed", "stmts", len(prog), "lines", len(s.lines))

	return prog, nil
}

func New(text []byte) *State {
	s := &State{
		b:     text,
		lines: []int{0},
	}

	for i, c := range text {
		if c == '\n' {
			s.lines = append(s.lines, i+1)
		}
	}

	return s
}

// stmts parses statements until end Token (nil for end of file).
// The end token itself is not consumed.
func (s *State) stmts(ctx context.Context, st int, end Token) (l []ast.Stmt, i int, err error) {
	i = st

	for {
		i = s.skipNewlines(ctx, i)

		tk, _, _ := s.next(ctx, i)
		if tk == end {
			return l, i, nil
		}

		if tk == nil {
			return l, i, s.unexpected(tk, i, "'}'")
		}

		var x ast.Stmt

		x, i, err = s.stmt(ctx, i)
		if err != nil {
			return nil, i, err
		}

		l = append(l, x)

		tk, tst, e := s.next(ctx, i)

		switch tk {
		case Char('\n'), Char(';'):
			i = e
		case end:
		default:
			return nil, tst, s.unexpected(tk, tst, "newline or ';'")
		}
	}
}

func (s *State) block(ctx context.Context, st int) (l []ast.Stmt, i int, err error) {
	i, err = s.expect(ctx, st, Char('{'))
	if err != nil {
		return nil, i, err
	}

	l, i, err = s.stmts(ctx, i, Char('}'))
	if err != nil {
		return nil, i, err
	}

	i, err = s.expect(ctx, i, Char('}'))
	if err != nil {
		return nil, i, err
	}

	return l, i, nil
}

func (s *State) expect(ctx context.Context, st int, want Token) (i int, err error) {
	tk, tst, i := s.next(ctx, st)
	if tk != want {
		return tst, s.unexpected(tk, tst, tokenString(want))
	}

	return i, nil
}

func (s *State) stmt(ctx context.Context, st int) (x ast.Stmt, i int, err error) {
	tk, tst, i := s.next(ctx, st)
	pos := s.pos(tst)

	switch tk {
	case Keyword("var"):
		return s.declare(ctx, pos, i)
	case Keyword("proc"):
		return s.proc(ctx, pos, i)
	case Keyword("if"):
		return s.ifStmt(ctx, pos, i)
	case Keyword("loop"):
		body, i, err := s.block(ctx, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "loop")
		}

		return &ast.Loop{Pos: pos, Body: body}, i, nil
	case Keyword("while"):
		cond, i, err := s.expr(ctx, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "while condition")
		}

		body, i, err := s.block(ctx, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "while")
		}

		return &ast.While{Pos: pos, Cond: cond, Body: body}, i, nil
	case Keyword("break"):
		return &ast.Break{Pos: pos}, i, nil
	case Keyword("continue"):
		return &ast.Continue{Pos: pos}, i, nil
	case Keyword("return"):
		r := &ast.Return{Pos: pos}

		next, _, _ := s.next(ctx, i)
		if next == nil || next == Char('\n') || next == Char(';') || next == Char('}') {
			return r, i, nil
		}

		r.Value, i, err = s.expr(ctx, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "return value")
		}

		return r, i, nil
	}

	lhs, i, err := s.expr(ctx, st)
	if err != nil {
		return nil, i, err
	}

	tk, tst, e := s.next(ctx, i)
	if tk != Char('=') {
		c, ok := lhs.(*ast.Call)
		if !ok || c.Op != ast.OpProc {
			return nil, tst, s.unexpected(tk, tst, "'=' or call")
		}

		return ast.CallStmt{Call: c}, i, nil
	}

	rhs, i, err := s.expr(ctx, e)
	if err != nil {
		return nil, i, errors.Wrap(err, "assignment")
	}

	tlog.SpanFromContext(ctx).V("parse_stmt").Printw("assignment", "pos", pos, "lhs", lhs, "rhs", rhs)

	return &ast.Assign{Pos: pos, Dest: lhs, Src: rhs}, i, nil
}

func (s *State) declare(ctx context.Context, pos ast.Pos, st int) (x ast.Stmt, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	name, ok := tk.(Ident)
	if !ok {
		return nil, tst, s.unexpected(tk, tst, "variable name")
	}

	d := &ast.Declare{Pos: pos, Name: string(name)}

	tk, _, e := s.next(ctx, i)
	if tk == Char(':') {
		d.Hint, i, err = s.typeName(ctx, e)
		if err != nil {
			return nil, i, errors.Wrap(err, "var %s", name)
		}

		tk, _, e = s.next(ctx, i)
	}

	if tk == Char('=') {
		d.Init, i, err = s.expr(ctx, e)
		if err != nil {
			return nil, i, errors.Wrap(err, "var %s", name)
		}
	}

	return d, i, nil
}

func (s *State) typeName(ctx context.Context, st int) (t *ast.TypeName, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	switch tk := tk.(type) {
	case Ident:
		return &ast.TypeName{Pos: s.pos(tst), Name: string(tk)}, i, nil
	case Char:
		if tk != '[' {
			break
		}

		x, i, err := s.typeName(ctx, i)
		if err != nil {
			return nil, i, err
		}

		i, err = s.expect(ctx, i, Char(']'))
		if err != nil {
			return nil, i, err
		}

		return &ast.TypeName{Pos: s.pos(tst), Name: "[" + x.Name + "]"}, i, nil
	}

	return nil, tst, s.unexpected(tk, tst, "type")
}

func (s *State) proc(ctx context.Context, pos ast.Pos, st int) (x ast.Stmt, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	name, ok := tk.(Ident)
	if !ok {
		return nil, tst, s.unexpected(tk, tst, "procedure name")
	}

	p := &ast.Proc{Pos: pos, Name: string(name)}

	i, err = s.expect(ctx, i, Char('('))
	if err != nil {
		return nil, i, errors.Wrap(err, "proc %s", name)
	}

	for {
		i = s.skipNewlines(ctx, i)

		tk, tst, e := s.next(ctx, i)
		if tk == Char(')') {
			i = e
			break
		}

		if len(p.Params) != 0 {
			if tk != Char(',') {
				return nil, tst, s.unexpected(tk, tst, "',' or ')'")
			}

			i = s.skipNewlines(ctx, e)
			tk, tst, e = s.next(ctx, i)
		}

		pname, ok := tk.(Ident)
		if !ok {
			return nil, tst, s.unexpected(tk, tst, "parameter name")
		}

		par := ast.Param{Pos: s.pos(tst), Name: string(pname)}
		i = e

		if tk, _, e := s.next(ctx, i); tk == Char(':') {
			par.Type, i, err = s.typeName(ctx, e)
			if err != nil {
				return nil, i, errors.Wrap(err, "proc %s: param %s", name, pname)
			}
		}

		p.Params = append(p.Params, par)
	}

	if tk, _, e := s.next(ctx, i); tk == Punct("->") {
		p.Ret, i, err = s.typeName(ctx, e)
		if err != nil {
			return nil, i, errors.Wrap(err, "proc %s: result", name)
		}
	}

	p.Body, i, err = s.block(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "proc %s", name)
	}

	return p, i, nil
}

func (s *State) ifStmt(ctx context.Context, pos ast.Pos, st int) (x ast.Stmt, i int, err error) {
	cond, i, err := s.expr(ctx, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "if condition")
	}

	then, i, err := s.block(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "if")
	}

	tk, tst, e := s.next(ctx, i)
	if tk != Keyword("else") {
		return &ast.If{Pos: pos, Cond: cond, Body: then}, i, nil
	}

	var els []ast.Stmt

	if tk, tst2, e2 := s.next(ctx, e); tk == Keyword("if") {
		var nested ast.Stmt

		nested, i, err = s.ifStmt(ctx, s.pos(tst2), e2)
		els = []ast.Stmt{nested}
	} else {
		els, i, err = s.block(ctx, e)
	}

	if err != nil {
		return nil, i, errors.Wrap(err, "else at %v", s.pos(tst))
	}

	return &ast.IfElse{Pos: pos, Cond: cond, Then: then, Else: els}, i, nil
}
