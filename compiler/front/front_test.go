package front

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/slowc/compiler/analyze"
	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/ir"
	"github.com/slowlang/slowc/compiler/tp"
)

func at(line, col int) ast.Pos { return ast.Pos{Line: line, Col: col} }

func id(name string) *ast.Ident { return ast.NewIdent(at(1, 1), name) }

func lit(text string) *ast.Literal { return ast.NewLiteral(at(1, 1), text) }

func decl(name string, init ast.Expr) *ast.Declare {
	return &ast.Declare{Pos: at(1, 1), Name: name, Init: init}
}

func gen(t *testing.T, prog ...ast.Stmt) *ir.Program {
	t.Helper()

	ctx := context.Background()

	err := analyze.Analyze(ctx, prog)
	require.NoError(t, err)

	p, err := Generate(ctx, prog)
	require.NoError(t, err)

	t.Logf("ir:\n%s", p)

	return p
}

var exit0 = []ir.Instr{
	ir.Param{Src: ir.Const(0), Type: tp.Int{}},
	ir.Call{Label: "exit", Type: tp.Void{}},
}

func TestTwoAddress(t *testing.T) {
	p := gen(t,
		decl("a", lit("1")),
		decl("b", lit("2")),
		decl("c", ast.NewCall(at(1, 1), ast.OpAdd, id("a"), id("b"))),
	)

	require.Len(t, p.Funcs, 1)

	f := p.Funcs[0]
	assert.Equal(t, ir.Start, f.Name)

	i64 := tp.Int{}

	exp := []ir.Instr{
		ir.Assign{Dest: ir.Ident("t1"), Src: ir.Const(1), Type: i64},
		ir.Assign{Dest: ir.Ident("a"), Src: ir.Ident("t1"), Type: i64},
		ir.Assign{Dest: ir.Ident("t2"), Src: ir.Const(2), Type: i64},
		ir.Assign{Dest: ir.Ident("b"), Src: ir.Ident("t2"), Type: i64},
		ir.Assign{Dest: ir.Ident("t3"), Src: ir.Ident("a"), Type: i64},
		ir.BinOp{Dest: "t3", Src1: ir.Ident("t3"), Op: ir.Add, Src2: ir.Ident("b"), Type: i64},
		ir.Assign{Dest: ir.Ident("c"), Src: ir.Ident("t3"), Type: i64},
	}

	assert.Equal(t, append(exp, exit0...), f.Code)
	assert.Equal(t, i64, f.Types["t3"])
}

func TestWhileIsLoop(t *testing.T) {
	cond := func() ast.Expr {
		return ast.NewCall(at(2, 7), ast.OpLt, id("i"), lit("3"))
	}

	inc := func() ast.Stmt {
		return &ast.Assign{Pos: at(3, 2), Dest: id("i"), Src: ast.NewCall(at(3, 6), ast.OpAdd, id("i"), lit("1"))}
	}

	w := gen(t,
		decl("i", lit("0")),
		&ast.While{Pos: at(2, 1), Cond: cond(), Body: []ast.Stmt{inc()}},
	)

	l := gen(t,
		decl("i", lit("0")),
		&ast.Loop{Pos: at(2, 1), Body: []ast.Stmt{
			&ast.If{Pos: at(2, 1), Cond: ast.NewCall(at(2, 7), ast.OpNot, cond()), Body: []ast.Stmt{
				&ast.Break{Pos: at(2, 1)},
			}},
			inc(),
		}},
	)

	assert.Equal(t, l, w)
	assert.Equal(t, l.String(), w.String())
}

func TestNestedLoopTargets(t *testing.T) {
	p := gen(t,
		&ast.Loop{Pos: at(1, 1), Body: []ast.Stmt{
			&ast.Loop{Pos: at(2, 1), Body: []ast.Stmt{
				&ast.Break{Pos: at(3, 1)},
			}},
			&ast.Continue{Pos: at(4, 1)},
			&ast.Break{Pos: at(5, 1)},
		}},
	)

	exp := []ir.Instr{
		ir.Label("loop_1"),
		ir.Label("loop_2"),
		ir.Goto{Label: "loop_end_2"},
		ir.Goto{Label: "loop_2"},
		ir.Label("loop_end_2"),
		ir.Goto{Label: "loop_1"},
		ir.Goto{Label: "loop_end_1"},
		ir.Goto{Label: "loop_1"},
		ir.Label("loop_end_1"),
	}

	assert.Equal(t, append(exp, exit0...), p.Funcs[0].Code)
}

func TestIfElse(t *testing.T) {
	p := gen(t,
		decl("c", ast.NewCall(at(1, 1), ast.OpLt, lit("2"), lit("1"))),
		&ast.IfElse{Pos: at(2, 1), Cond: id("c"),
			Then: []ast.Stmt{ast.CallStmt{Call: ast.NewProcCall(at(2, 1), "exit", lit("1"))}},
			Else: []ast.Stmt{ast.CallStmt{Call: ast.NewProcCall(at(2, 1), "exit", lit("0"))}},
		},
	)

	exp := `func _start (_start)
	t1 = 2
	t2 = 1
	cmp t1, t2
	t3 = set <
	c = t3
	if c == 0 goto else_1
	t4 = 1
	param t4
	call exit
	goto end_if_1
else_1:
	t5 = 0
	param t5
	call exit
end_if_1:
	param 0
	call exit
`

	assert.Equal(t, exp, p.String())
}

func TestProcedure(t *testing.T) {
	param := func(name string) ast.Param {
		return ast.Param{Pos: at(1, 1), Name: name, Type: &ast.TypeName{Pos: at(1, 1), Name: "Int"}}
	}

	p := gen(t,
		&ast.Proc{Pos: at(1, 1), Name: "add", Params: []ast.Param{param("x"), param("y")}, Body: []ast.Stmt{
			&ast.Return{Pos: at(2, 1), Value: ast.NewCall(at(2, 8), ast.OpAdd, id("x"), id("y"))},
		}},
		ast.CallStmt{Call: ast.NewProcCall(at(4, 1), "exit", ast.NewProcCall(at(4, 6), "add", lit("4"), lit("5")))},
	)

	require.Len(t, p.Funcs, 2)
	assert.Equal(t, ir.Start, p.Funcs[0].Name)

	add := p.Funcs[1]
	assert.Equal(t, "proc_3add_int_int", add.Label)
	assert.Equal(t, []ir.Ident{"x", "y"}, add.Params)
	assert.Equal(t, tp.Int{}, add.Ret)

	exp := `func _start (_start)
	t2 = 4
	t3 = 5
	param t2
	param t3
	t4 = call proc_3add_int_int
	param t4
	call exit
	param 0
	call exit

func add (proc_3add_int_int) params x:Int y:Int -> Int
	t1 = x
	t1 = t1 + y
	return t1
`

	assert.Equal(t, exp, p.String())
}

func TestShadowedNames(t *testing.T) {
	p := gen(t,
		decl("x", lit("1")),
		&ast.If{Pos: at(2, 1), Cond: lit("true"), Body: []ast.Stmt{
			decl("x", lit("'c'")),
			decl("y", id("x")),
		}},
		decl("z", id("x")),
		decl("t1", lit("5")),
	)

	f := p.Funcs[0]

	assert.Equal(t, tp.Int{}, f.Types["x"])
	assert.Equal(t, tp.Char{}, f.Types["x#1"])
	assert.Equal(t, tp.Char{}, f.Types["y"])
	assert.Equal(t, tp.Int{}, f.Types["t1#1"])

	assert.Contains(t, f.Code, ir.Instr(ir.Assign{Dest: ir.Ident("y"), Src: ir.Ident("x#1"), Type: tp.Char{}}))
	assert.Contains(t, f.Code, ir.Instr(ir.Assign{Dest: ir.Ident("z"), Src: ir.Ident("x"), Type: tp.Int{}}))
}

func TestArrayData(t *testing.T) {
	p := gen(t,
		decl("s", lit(`"hi"`)),
		decl("x", lit("7")),
		decl("a", ast.NewArray(at(3, 1), lit("1"), id("x"))),
		decl("e", ast.NewCall(at(4, 1), ast.OpIndex, id("a"), lit("1"))),
	)

	require.Len(t, p.Data, 2)
	assert.Equal(t, &ir.Data{Label: "data_1", Elem: tp.Char{}, Items: []ir.Value{ir.Const('h'), ir.Const('i')}}, p.Data[0])
	assert.Equal(t, &ir.Data{Label: "data_2", Elem: tp.Int{}, Items: []ir.Value{ir.Const(1), ir.Const(0)}}, p.Data[1])

	exp := `data_1 [Char] = 104 105
data_2 [Int] = 1 0

func _start (_start)
	t1 = &data_1
	s = t1
	t2 = 7
	x = t2
	t3 = &data_2
	t3[1] = x
	a = t3
	t4 = 1
	t5 = a[t4]
	e = t5
	param 0
	call exit
`

	assert.Equal(t, exp, p.String())
}

func TestInternalError(t *testing.T) {
	defer func() {
		p := recover()

		e, ok := p.(ir.InternalError)
		require.True(t, ok, "%v", p)
		assert.Contains(t, e.Error(), "outside of loop")
	}()

	_, _ = Generate(context.Background(), []ast.Stmt{&ast.Break{Pos: at(1, 1)}})

	t.Errorf("expected panic")
}

func TestProcLabelOverloads(t *testing.T) {
	intParam := ast.Param{Pos: at(1, 8), Name: "x", Type: &ast.TypeName{Pos: at(1, 11), Name: "Int"}}
	ret := func(v string) []ast.Stmt {
		return []ast.Stmt{&ast.Return{Pos: at(2, 1), Value: lit(v)}}
	}

	f := ast.NewProcCall(at(5, 6), "f", lit("1"))
	fInt := ast.NewProcCall(at(5, 11), "f_int")

	p := gen(t,
		&ast.Proc{Pos: at(1, 1), Name: "f", Params: []ast.Param{intParam}, Body: ret("1")},
		&ast.Proc{Pos: at(3, 1), Name: "f_int", Body: ret("2")},
		ast.CallStmt{Call: ast.NewProcCall(at(5, 1), "exit", ast.NewCall(at(5, 6), ast.OpAdd, f, fInt))},
	)

	require.Len(t, p.Funcs, 3)
	assert.Equal(t, "proc_1f_int", p.Funcs[1].Label)
	assert.Equal(t, "proc_5f_int", p.Funcs[2].Label)

	var calls []string

	for _, x := range p.Funcs[0].Code {
		if c, ok := x.(ir.Call); ok {
			calls = append(calls, c.Label)
		}
	}

	assert.Equal(t, []string{"proc_1f_int", "proc_5f_int", "exit", "exit"}, calls)
}

func TestRelationCondition(t *testing.T) {
	p := gen(t,
		decl("x", lit("1")),
		&ast.If{Pos: at(2, 1), Cond: ast.NewCall(at(2, 4), ast.OpLt, id("x"), lit("3")), Body: []ast.Stmt{
			ast.CallStmt{Call: ast.NewProcCall(at(2, 10), "exit", lit("1"))},
		}},
	)

	exp := `func _start (_start)
	t1 = 1
	x = t1
	t2 = 3
	if x >= t2 goto end_if_1
	t3 = 1
	param t3
	call exit
end_if_1:
	param 0
	call exit
`

	assert.Equal(t, exp, p.String())
}
