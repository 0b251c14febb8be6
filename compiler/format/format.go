package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/tp"
)

// Format renders a tree back to source form. Binary operations are
// fully parenthesized and declarations show the resolved type if any.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	switch x := x.(type) {
	case []ast.Stmt:
		return formatBlock(ctx, b, x, 0)
	case ast.Expr:
		return formatExpr(ctx, b, x)
	case ast.Stmt:
		return formatBlock(ctx, b, []ast.Stmt{x}, 0)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatBlock(ctx context.Context, b []byte, l []ast.Stmt, d int) (_ []byte, err error) {
	for _, s := range l {
		b, err = formatStmt(ctx, b, s, d)
		if err != nil {
			return nil, errors.Wrap(err, "%d:%d", s.Position().Line, s.Position().Col)
		}
	}

	return b, nil
}

func formatStmt(ctx context.Context, b []byte, s ast.Stmt, d int) (_ []byte, err error) {
	switch s := s.(type) {
	case *ast.Declare:
		b = app(b, d, "var %s", s.Name)

		switch {
		case s.Typ != nil:
			b = app(b, 0, ": %s", tp.Name(s.Typ))
		case s.Hint != nil:
			b = app(b, 0, ": %s", s.Hint.Name)
		}

		if s.Init != nil {
			b = append(b, " = "...)

			b, err = formatExpr(ctx, b, s.Init)
			if err != nil {
				return nil, errors.Wrap(err, "init")
			}
		}
	case *ast.Assign:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s.Dest)
		if err != nil {
			return nil, errors.Wrap(err, "dest")
		}

		b = append(b, " = "...)

		b, err = formatExpr(ctx, b, s.Src)
		if err != nil {
			return nil, errors.Wrap(err, "src")
		}
	case ast.CallStmt:
		b = app(b, d, "")

		b, err = formatExpr(ctx, b, s.Call)
		if err != nil {
			return nil, err
		}
	case *ast.Return:
		b = app(b, d, "return")

		if s.Value != nil {
			b = append(b, ' ')

			b, err = formatExpr(ctx, b, s.Value)
			if err != nil {
				return nil, errors.Wrap(err, "value")
			}
		}
	case *ast.Break:
		b = app(b, d, "break")
	case *ast.Continue:
		b = app(b, d, "continue")
	case *ast.Loop:
		b = app(b, d, "loop")

		b, err = formatBody(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "loop")
		}
	case *ast.While:
		b, err = formatCond(ctx, b, "while", s.Cond, d)
		if err != nil {
			return nil, err
		}

		b, err = formatBody(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "while")
		}
	case *ast.If:
		b, err = formatCond(ctx, b, "if", s.Cond, d)
		if err != nil {
			return nil, err
		}

		b, err = formatBody(ctx, b, s.Body, d)
		if err != nil {
			return nil, errors.Wrap(err, "then")
		}
	case *ast.IfElse:
		b, err = formatCond(ctx, b, "if", s.Cond, d)
		if err != nil {
			return nil, err
		}

		b, err = formatBody(ctx, b, s.Then, d)
		if err != nil {
			return nil, errors.Wrap(err, "then")
		}

		b = append(b, " else"...)

		b, err = formatBody(ctx, b, s.Else, d)
		if err != nil {
			return nil, errors.Wrap(err, "else")
		}
	case *ast.Proc:
		b, err = formatProc(ctx, b, s, d)
		if err != nil {
			return nil, errors.Wrap(err, "proc %s", s.Name)
		}
	default:
		return nil, errors.New("unsupported stmt: %T", s)
	}

	return append(b, '\n'), nil
}

func formatProc(ctx context.Context, b []byte, s *ast.Proc, d int) (_ []byte, err error) {
	b = app(b, d, "proc %s(", s.Name)

	for i, p := range s.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = append(b, p.Name...)

		switch {
		case p.Typ != nil:
			b = app(b, 0, ": %s", tp.Name(p.Typ))
		case p.Type != nil:
			b = app(b, 0, ": %s", p.Type.Name)
		}
	}

	b = append(b, ')')

	switch {
	case s.Result != nil && !tp.IsVoid(s.Result):
		b = app(b, 0, " -> %s", tp.Name(s.Result))
	case s.Result == nil && s.Ret != nil:
		b = app(b, 0, " -> %s", s.Ret.Name)
	}

	return formatBody(ctx, b, s.Body, d)
}

func formatCond(ctx context.Context, b []byte, kw string, cond ast.Expr, d int) (_ []byte, err error) {
	b = app(b, d, "%s ", kw)

	b, err = formatExpr(ctx, b, cond)
	if err != nil {
		return nil, errors.Wrap(err, "%s condition", kw)
	}

	return b, nil
}

func formatBody(ctx context.Context, b []byte, l []ast.Stmt, d int) (_ []byte, err error) {
	if len(l) == 0 {
		return append(b, " {}"...), nil
	}

	b = append(b, " {\n"...)

	b, err = formatBlock(ctx, b, l, d+1)
	if err != nil {
		return nil, err
	}

	return app(b, d, "}"), nil
}

func formatExpr(ctx context.Context, b []byte, x ast.Expr) (_ []byte, err error) {
	switch x := x.(type) {
	case *ast.Ident:
		b = append(b, x.Name...)
	case *ast.Literal:
		b = append(b, x.Text...)
	case *ast.ArrayLit:
		b, err = formatList(ctx, append(b, '['), x.Elems)
		if err != nil {
			return nil, errors.Wrap(err, "array")
		}

		b = append(b, ']')
	case *ast.Call:
		switch {
		case x.Op == ast.OpIndex:
			b, err = formatExpr(ctx, b, x.Args[0])
			if err != nil {
				return nil, err
			}

			b, err = formatExpr(ctx, append(b, '['), x.Args[1])
			if err != nil {
				return nil, errors.Wrap(err, "index")
			}

			b = append(b, ']')
		case x.Op.IsOperator() && len(x.Args) == 1:
			b, err = formatExpr(ctx, append(b, x.Op.String()...), x.Args[0])
			if err != nil {
				return nil, errors.Wrap(err, "%v", x.Op)
			}
		case x.Op.IsOperator() && len(x.Args) == 2:
			b, err = formatExpr(ctx, append(b, '('), x.Args[0])
			if err != nil {
				return nil, errors.Wrap(err, "%v", x.Op)
			}

			b = app(b, 0, " %s ", x.Op.String())

			b, err = formatExpr(ctx, b, x.Args[1])
			if err != nil {
				return nil, errors.Wrap(err, "%v", x.Op)
			}

			b = append(b, ')')
		default:
			b = app(b, 0, "%s(", x.CallName())

			b, err = formatList(ctx, b, x.Args)
			if err != nil {
				return nil, errors.Wrap(err, "call %s", x.CallName())
			}

			b = append(b, ')')
		}
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func formatList(ctx context.Context, b []byte, l []ast.Expr) (_ []byte, err error) {
	for i, x := range l {
		if i != 0 {
			b = append(b, ", "...)
		}

		b, err = formatExpr(ctx, b, x)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	for i := 0; i < d; i++ {
		b = append(b, '\t')
	}

	return hfmt.Appendf(b, f, args...)
}
