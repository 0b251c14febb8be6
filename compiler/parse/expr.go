package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/slowc/compiler/ast"
)

// binary operator levels, loosest first
var levels = [][]ast.Operator{
	{ast.OpOr},
	{ast.OpAnd},
	{ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe},
	{ast.OpAdd, ast.OpSub},
	{ast.OpMul, ast.OpDiv, ast.OpMod},
}

func (s *State) expr(ctx context.Context, st int) (ast.Expr, int, error) {
	return s.binary(ctx, st, 0)
}

func (s *State) binary(ctx context.Context, st, lvl int) (x ast.Expr, i int, err error) {
	if lvl == len(levels) {
		return s.unary(ctx, st)
	}

	x, i, err = s.binary(ctx, st, lvl+1)
	if err != nil {
		return nil, i, err
	}

	for {
		tk, tst, e := s.next(ctx, i)

		op, ok := binaryOp(tk, levels[lvl])
		if !ok {
			return x, i, nil
		}

		var y ast.Expr

		y, i, err = s.binary(ctx, e, lvl+1)
		if err != nil {
			return nil, i, errors.Wrap(err, "operand of %v", op)
		}

		x = ast.NewCall(s.pos(tst), op, x, y)
	}
}

func binaryOp(tk Token, ops []ast.Operator) (ast.Operator, bool) {
	var text string

	switch tk := tk.(type) {
	case Char:
		text = string(tk)
	case Punct:
		text = string(tk)
	default:
		return 0, false
	}

	op, ok := ast.ParseOperator(text, 2)
	if !ok {
		return 0, false
	}

	for _, o := range ops {
		if o == op {
			return op, true
		}
	}

	return 0, false
}

func (s *State) unary(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	tk, tst, i := s.next(ctx, st)

	if c, ok := tk.(Char); ok && (c == '!' || c == '-') {
		op, _ := ast.ParseOperator(string(c), 1)

		x, i, err = s.unary(ctx, i)
		if err != nil {
			return nil, i, err
		}

		return ast.NewCall(s.pos(tst), op, x), i, nil
	}

	return s.postfix(ctx, st)
}

func (s *State) postfix(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	x, i, err = s.primary(ctx, st)
	if err != nil {
		return nil, i, err
	}

	for {
		tk, tst, e := s.next(ctx, i)
		if tk != Char('[') {
			return x, i, nil
		}

		var idx ast.Expr

		idx, i, err = s.expr(ctx, s.skipNewlines(ctx, e))
		if err != nil {
			return nil, i, errors.Wrap(err, "index")
		}

		i, err = s.expect(ctx, s.skipNewlines(ctx, i), Char(']'))
		if err != nil {
			return nil, i, err
		}

		x = ast.NewCall(s.pos(tst), ast.OpIndex, x, idx)
	}
}

func (s *State) primary(ctx context.Context, st int) (x ast.Expr, i int, err error) {
	tk, tst, i := s.next(ctx, st)
	pos := s.pos(tst)

	switch tk := tk.(type) {
	case Number:
		return ast.NewLiteral(pos, string(tk)), i, nil
	case Quoted:
		return ast.NewLiteral(pos, string(tk)), i, nil
	case Ident:
		if tk == "true" || tk == "false" {
			return ast.NewLiteral(pos, string(tk)), i, nil
		}

		next, _, e := s.next(ctx, i)
		if next != Char('(') {
			return ast.NewIdent(pos, string(tk)), i, nil
		}

		args, i, err := s.list(ctx, e, Char(')'))
		if err != nil {
			return nil, i, errors.Wrap(err, "call %s", tk)
		}

		return ast.NewProcCall(pos, string(tk), args...), i, nil
	case Char:
		switch tk {
		case '(':
			x, i, err = s.expr(ctx, s.skipNewlines(ctx, i))
			if err != nil {
				return nil, i, err
			}

			i, err = s.expect(ctx, s.skipNewlines(ctx, i), Char(')'))
			if err != nil {
				return nil, i, err
			}

			return x, i, nil
		case '[':
			elems, i, err := s.list(ctx, i, Char(']'))
			if err != nil {
				return nil, i, errors.Wrap(err, "array")
			}

			return ast.NewArray(pos, elems...), i, nil
		}
	}

	return nil, tst, s.unexpected(tk, tst, "expression")
}

// list parses comma separated expressions up to and including end.
func (s *State) list(ctx context.Context, st int, end Token) (l []ast.Expr, i int, err error) {
	i = s.skipNewlines(ctx, st)

	if tk, _, e := s.next(ctx, i); tk == end {
		return nil, e, nil
	}

	for {
		var x ast.Expr

		x, i, err = s.expr(ctx, i)
		if err != nil {
			return nil, i, err
		}

		l = append(l, x)

		i = s.skipNewlines(ctx, i)

		tk, tst, e := s.next(ctx, i)

		switch tk {
		case end:
			return l, e, nil
		case Char(','):
			i = s.skipNewlines(ctx, e)
		default:
			return nil, tst, s.unexpected(tk, tst, "',' or "+tokenString(end))
		}
	}
}
