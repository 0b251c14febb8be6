package back

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/slowc/compiler/asm"
	"github.com/slowlang/slowc/compiler/asm/amd64"
	"github.com/slowlang/slowc/compiler/ir"
	"github.com/slowlang/slowc/compiler/tp"
)

var (
	tInt  = tp.Int{}
	tBool = tp.Bool{}
	tChar = tp.Char{}
)

func start(code ...ir.Instr) *ir.Func {
	f := ir.NewFunc(ir.Start, ir.Start)
	f.Emit(code...)

	return f
}

func declare(f *ir.Func, t tp.Type, names ...ir.Ident) {
	for _, n := range names {
		f.Declare(n, t)
	}
}

func gen(t *testing.T, p *ir.Program) string {
	t.Helper()

	b, err := Generate(context.Background(), p)
	require.NoError(t, err)

	t.Logf("asm:\n%s", b)

	return string(b)
}

func TestSmoke(t *testing.T) {
	f := start(
		ir.Assign{Dest: ir.Ident("t1"), Src: ir.Const(2), Type: tInt},
		ir.Assign{Dest: ir.Ident("a"), Src: ir.Ident("t1"), Type: tInt},
		ir.Assign{Dest: ir.Ident("t2"), Src: ir.Const(3), Type: tInt},
		ir.Assign{Dest: ir.Ident("b"), Src: ir.Ident("t2"), Type: tInt},
		ir.Assign{Dest: ir.Ident("t3"), Src: ir.Ident("a"), Type: tInt},
		ir.BinOp{Dest: "t3", Src1: ir.Ident("t3"), Op: ir.Add, Src2: ir.Ident("b"), Type: tInt},
		ir.Param{Src: ir.Ident("t3"), Type: tInt},
		ir.Call{Label: "exit", Type: tp.Void{}},
	)

	declare(f, tInt, "t1", "a", "t2", "b", "t3")

	exp := `section .data

section .text
global _start

_start:
	mov	rbp, rsp
	mov	rbx, 2
	mov	r10, rbx
	mov	r11, 3
	mov	r12, r11
	mov	r13, r10
	add	r13, r12
	mov	rdi, r13
	call	exit
` + trampolines

	assert.Equal(t, exp, gen(t, &ir.Program{Funcs: []*ir.Func{f}}))
}

func TestAllocationOrder(t *testing.T) {
	f := &funContext{
		Func: ir.NewFunc(ir.Start, ir.Start),
		ops:  make(map[ir.Ident]asm.Operand),
	}

	for i := 1; i <= 9; i++ {
		f.Declare(ir.Ident(fmt.Sprintf("v%d", i)), tInt)
	}

	f.Declare("c", tChar)

	for i, r := range amd64.Pool {
		op := f.dest(ir.Ident(fmt.Sprintf("v%d", i+1)))
		assert.Equal(t, asm.Reg{R: r, Size: 8}, op)
	}

	// names are bound once
	assert.Equal(t, asm.Reg{R: amd64.RBX, Size: 8}, f.dest("v1"))

	assert.Equal(t, asm.Mem{Base: amd64.RBP, Disp: -8, Size: 8}, f.dest("v8"))
	assert.Equal(t, asm.Mem{Base: amd64.RBP, Disp: -9, Size: 1}, f.dest("c"))
	assert.Equal(t, asm.Mem{Base: amd64.RBP, Disp: -24, Size: 8}, f.dest("v9"))

	assert.Equal(t, 7, f.used.Size())
	assert.Equal(t, 24, f.frame)
}

func TestSpillAndMemToMem(t *testing.T) {
	f := start()

	for i := 1; i <= 9; i++ {
		n := ir.Ident(fmt.Sprintf("v%d", i))

		f.Declare(n, tInt)
		f.Emit(ir.Assign{Dest: n, Src: ir.Const(i), Type: tInt})
	}

	f.Emit(
		ir.Assign{Dest: ir.Ident("v9"), Src: ir.Ident("v8"), Type: tInt},
		ir.BinOp{Dest: "v9", Src1: ir.Ident("v9"), Op: ir.Sub, Src2: ir.Ident("v8"), Type: tInt},
	)

	s := gen(t, &ir.Program{Funcs: []*ir.Func{f}})

	assert.Contains(t, s, "\tsub\trsp, 16\n")
	assert.Contains(t, s, "\tmov\tr15, 7\n")
	assert.Contains(t, s, "\tmov\tqword [rbp-8], 8\n")
	assert.Contains(t, s, "\tmov\tqword [rbp-16], 9\n")

	assert.Contains(t, s, `	push	rax
	mov	rax, qword [rbp-8]
	mov	qword [rbp-16], rax
	pop	rax
	push	rax
	mov	rax, qword [rbp-8]
	sub	qword [rbp-16], rax
	pop	rax
`)
}

func TestWidths(t *testing.T) {
	f := start(
		ir.Assign{Dest: ir.Ident("b"), Src: ir.Const(1), Type: tBool},
		ir.Not{Dest: "nb", Src: ir.Ident("b"), Type: tBool},
		ir.Assign{Dest: ir.Ident("c"), Src: ir.Const('x'), Type: tChar},
		ir.Assign{Dest: ir.Ident("d"), Src: ir.Const('y'), Type: tChar},
		ir.BinOp{Src1: ir.Ident("c"), Op: ir.Cmp, Src2: ir.Ident("d"), Type: tChar},
		ir.Set{Dest: "lt", Rel: ir.Lt},
		ir.CondGoto{Src1: ir.Ident("lt"), Src2: ir.Const(0), Rel: ir.Eq, Label: "end_if_1", Type: tBool},
		ir.Label("end_if_1"),
	)

	declare(f, tBool, "b", "nb", "lt")
	declare(f, tChar, "c", "d")

	s := gen(t, &ir.Program{Funcs: []*ir.Func{f}})

	assert.Contains(t, s, `	mov	bl, 1
	mov	r10b, bl
	xor	r10b, 1
	mov	r11b, 120
	mov	r12b, 121
	cmp	r11b, r12b
	setl	r13b
	cmp	r13b, 0
	je	end_if_1
end_if_1:
`)
}

func TestDivMod(t *testing.T) {
	f := start(
		ir.Assign{Dest: ir.Ident("q"), Src: ir.Const(7), Type: tInt},
		ir.Assign{Dest: ir.Ident("r"), Src: ir.Const(7), Type: tInt},
		ir.BinOp{Dest: "q", Src1: ir.Ident("q"), Op: ir.Div, Src2: ir.Const(2), Type: tInt},
		ir.BinOp{Dest: "r", Src1: ir.Ident("r"), Op: ir.Mod, Src2: ir.Ident("q"), Type: tInt},
		ir.BinOp{Dest: "r", Src1: ir.Ident("r"), Op: ir.Mul, Src2: ir.Ident("q"), Type: tInt},
	)

	declare(f, tInt, "q", "r")

	s := gen(t, &ir.Program{Funcs: []*ir.Func{f}})

	assert.Contains(t, s, `	mov	rcx, 2
	mov	rax, rbx
	cqo
	idiv	rcx
	mov	rbx, rax
	mov	rax, r10
	cqo
	idiv	rbx
	mov	r10, rdx
	mov	rax, r10
	imul	rbx
	mov	r10, rax
`)
}

func TestWideImmediate(t *testing.T) {
	f := start(
		ir.Assign{Dest: ir.Ident("a"), Src: ir.Const(1 << 40), Type: tInt},
		ir.BinOp{Dest: "a", Src1: ir.Ident("a"), Op: ir.Add, Src2: ir.Const(1 << 40), Type: tInt},
	)

	declare(f, tInt, "a")

	s := gen(t, &ir.Program{Funcs: []*ir.Func{f}})

	assert.Contains(t, s, `	mov	rbx, 1099511627776
	push	rax
	mov	rax, 1099511627776
	add	rbx, rax
	pop	rax
`)
}

func TestArrays(t *testing.T) {
	arr := tp.Array{X: tInt}

	f := start(
		ir.Assign{Dest: ir.Ident("a"), Src: ir.Addr("data_1"), Type: arr},
		ir.Assign{Dest: ir.Ident("i"), Src: ir.Const(1), Type: tInt},
		ir.Assign{Dest: ir.Ident("e"), Src: ir.MemPos{Base: "a", Offset: ir.Ident("i")}, Type: tInt},
		ir.Assign{Dest: ir.MemPos{Base: "a", Offset: ir.Const(2)}, Src: ir.Ident("e"), Type: tInt},
	)

	declare(f, arr, "a")
	declare(f, tInt, "i", "e")

	p := &ir.Program{
		Funcs: []*ir.Func{f},
		Data: []*ir.Data{
			{Label: "data_1", Elem: tInt, Items: []ir.Value{ir.Const(1), ir.Const(2), ir.Const(3)}},
			{Label: "data_2", Elem: tChar, Items: []ir.Value{ir.Const('o'), ir.Const('k')}},
			{Label: "data_3", Elem: arr, Items: []ir.Value{ir.Addr("data_1")}},
		},
	}

	s := gen(t, p)

	assert.True(t, strings.HasPrefix(s, `section .data
data_1: dq 1, 2, 3
data_2: db 111, 107
data_3: dq data_1
`), "%s", s)

	assert.Contains(t, s, `	mov	rbx, data_1
	mov	r10, 1
	mov	rsi, rbx
	mov	rdi, r10
	mov	r11, qword [rsi+rdi*8]
	mov	rsi, rbx
	mov	qword [rsi+16], r11
`)
}

func TestProcedureCall(t *testing.T) {
	const n = 8

	callee := ir.NewFunc("sum", "proc_sum")
	callee.Ret = tInt

	main := start()

	for i := 0; i < n; i++ {
		p := ir.Ident(fmt.Sprintf("p%d", i))
		callee.Params = append(callee.Params, p)
		callee.Declare(p, tInt)

		main.Emit(ir.Param{Src: ir.Const(i + 1), Type: tInt})
	}

	main.Emit(
		ir.Call{Dest: "r", Label: "proc_sum", Type: tInt},
		ir.Param{Src: ir.Ident("r"), Type: tInt},
		ir.Call{Label: "exit", Type: tp.Void{}},
	)
	main.Declare("r", tInt)

	callee.Emit(
		ir.Assign{Dest: ir.Ident("t1"), Src: ir.Ident("p0"), Type: tInt},
		ir.BinOp{Dest: "t1", Src1: ir.Ident("t1"), Op: ir.Add, Src2: ir.Ident("p7"), Type: tInt},
		ir.Return{Src: ir.Ident("t1"), Type: tInt},
	)
	callee.Declare("t1", tInt)

	s := gen(t, &ir.Program{Funcs: []*ir.Func{main, callee}})

	assert.Contains(t, s, `	mov	rdi, 1
	mov	rsi, 2
	mov	rdx, 3
	mov	rcx, 4
	mov	r8, 5
	mov	r9, 6
	push	7
	push	8
	call	proc_sum
	mov	rbx, rax
	mov	rdi, rbx
	call	exit
`)

	assert.Contains(t, s, `proc_sum:
	push	rbp
	mov	rbp, rsp
	push	rbx
	push	r10
	push	r11
	push	r12
	push	r13
	push	r14
	push	r15
	mov	rbx, rdi
	mov	r10, rsi
	mov	r11, rdx
	mov	r12, rcx
	mov	r13, r8
	mov	r14, r9
	mov	r15, rbx
	add	r15, qword [rbp+16]
	mov	rax, r15
	jmp	ret_proc_sum
ret_proc_sum:
	pop	r15
	pop	r14
	pop	r13
	pop	r12
	pop	r11
	pop	r10
	pop	rbx
	mov	rsp, rbp
	pop	rbp
	ret	16
`)
}

func TestParamWidths(t *testing.T) {
	main := start(
		ir.Assign{Dest: ir.Ident("s"), Src: ir.Addr("data_1"), Type: tp.Array{X: tChar}},
		ir.Param{Src: ir.Ident("s"), Type: tp.Array{X: tChar}},
		ir.Param{Src: ir.Const(2), Type: tInt},
		ir.Call{Label: "print", Type: tp.Void{}},
		ir.Assign{Dest: ir.Ident("c"), Src: ir.Const('z'), Type: tChar},
		ir.Param{Src: ir.Ident("c"), Type: tChar},
		ir.Call{Label: "proc_f_char", Type: tp.Void{}},
	)

	main.Declare("s", tp.Array{X: tChar})
	main.Declare("c", tChar)

	f := ir.NewFunc("f", "proc_f_char")
	f.Params = []ir.Ident{"x"}
	f.Ret = tp.Void{}
	f.Declare("x", tChar)

	s := gen(t, &ir.Program{Funcs: []*ir.Func{main, f}})

	assert.Contains(t, s, `	mov	rbx, data_1
	mov	rdi, rbx
	mov	rsi, 2
	call	print
	mov	r10b, 122
	mov	dil, r10b
	call	proc_f_char
`)

	assert.Contains(t, s, `proc_f_char:
	push	rbp
	mov	rbp, rsp
	push	rbx
	mov	bl, dil
ret_proc_f_char:
	pop	rbx
	mov	rsp, rbp
	pop	rbp
	ret
`)
}

func TestInternalError(t *testing.T) {
	f := start(ir.Assign{Dest: ir.Ident("a"), Src: ir.Ident("nope"), Type: tInt})
	f.Declare("a", tInt)

	assert.Panics(t, func() {
		_, _ = Generate(context.Background(), &ir.Program{Funcs: []*ir.Func{f}})
	})
}

func TestRelationJump(t *testing.T) {
	f := start(
		ir.Assign{Dest: ir.Ident("x"), Src: ir.Const(1), Type: tInt},
		ir.Assign{Dest: ir.Ident("t1"), Src: ir.Const(3), Type: tInt},
		ir.CondGoto{Src1: ir.Ident("x"), Src2: ir.Ident("t1"), Rel: ir.Lt.Negate(), Label: "end_if_1", Type: tInt},
		ir.Label("end_if_1"),
	)

	declare(f, tInt, "x", "t1")

	s := gen(t, &ir.Program{Funcs: []*ir.Func{f}})

	assert.Contains(t, s, `	mov	rbx, 1
	mov	r10, 3
	cmp	rbx, r10
	jge	end_if_1
end_if_1:
`)
}
