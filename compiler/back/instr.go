package back

import (
	"github.com/slowlang/slowc/compiler/asm"
	"github.com/slowlang/slowc/compiler/asm/amd64"
	"github.com/slowlang/slowc/compiler/ir"
)

var (
	rax = asm.Reg{R: amd64.RAX, Size: 8}
	rcx = asm.Reg{R: amd64.RCX, Size: 8}
	rdx = asm.Reg{R: amd64.RDX, Size: 8}
	rsi = asm.Reg{R: amd64.RSI, Size: 8}
	rdi = asm.Reg{R: amd64.RDI, Size: 8}
)

var binops = map[ir.Op]string{
	ir.Add: "add",
	ir.Sub: "sub",
	ir.And: "and",
	ir.Or:  "or",
	ir.Cmp: "cmp",
}

func (f *funContext) instr(x ir.Instr) {
	switch x := x.(type) {
	case ir.Label:
		f.line(string(x) + ":")
	case ir.Goto:
		f.ins("jmp", asm.Label(x.Label))
	case ir.CondGoto:
		size := x.Type.Size()

		f.op2("cmp", f.load(x.Src1, size), f.value(x.Src2, size))
		f.ins("j"+amd64.CondCode(x.Rel), asm.Label(x.Label))
	case ir.Assign:
		size := x.Type.Size()

		var d asm.Operand

		switch dst := x.Dest.(type) {
		case ir.Ident:
			d = f.dest(dst)
		case ir.MemPos:
			d = f.memPos(dst, size)
		default:
			ir.Panicf("assign to %T", dst)
		}

		f.op2("mov", d, f.value(x.Src, size))
	case ir.Not:
		size := x.Type.Size()
		d := f.dest(x.Dest)

		f.op2("mov", d, f.value(x.Src, size))
		f.ins("xor", d, asm.Imm(1))
	case ir.BinOp:
		f.binop(x)
	case ir.Set:
		f.ins("set"+amd64.CondCode(x.Rel), f.dest(x.Dest))
	case ir.Param:
		f.param(x)
	case ir.Call:
		f.ins("call", asm.Label(x.Label))

		if x.Dest != "" {
			d := f.dest(x.Dest)

			f.op2("mov", d, asm.Sized(rax, f.size(x.Dest)))
		}
	case ir.Return:
		if x.Src != nil {
			size := x.Type.Size()

			f.op2("mov", asm.Sized(rax, size), f.value(x.Src, size))
		}

		f.ins("jmp", asm.Label(f.ret))
	default:
		ir.Panicf("unsupported instruction: %T", x)
	}
}

func (f *funContext) binop(x ir.BinOp) {
	size := x.Type.Size()
	src := f.value(x.Src2, size)

	if x.Op == ir.Cmp {
		f.op2("cmp", f.load(x.Src1, size), src)
		return
	}

	if s, ok := x.Src1.(ir.Ident); !ok || s != x.Dest {
		ir.Panicf("binop %v: destination %q is not the first operand %v", x.Op, x.Dest, x.Src1)
	}

	d := f.home(x.Dest)

	if mn, ok := binops[x.Op]; ok {
		f.op2(mn, d, src)
		return
	}

	switch x.Op {
	case ir.Mul, ir.Div, ir.Mod:
	default:
		ir.Panicf("unsupported binop: %v", x.Op)
	}

	// one operand forms take the accumulator implicitly
	if _, ok := src.(asm.Imm); ok || size != 8 {
		f.op2("mov", asm.Sized(rcx, size), src)
		src = rcx
	}

	a := asm.Sized(rax, size)

	f.op2("mov", a, d)

	switch x.Op {
	case ir.Mul:
		f.ins("imul", src)
	case ir.Div, ir.Mod:
		f.ins("cqo")
		f.ins("idiv", src)
	}

	res := a
	if x.Op == ir.Mod {
		res = asm.Sized(rdx, size)
	}

	f.op2("mov", d, res)
}

func (f *funContext) param(x ir.Param) {
	n := f.params
	f.params++

	size := x.Type.Size()
	src := f.value(x.Src, size)

	if n < len(amd64.Args) {
		f.op2("mov", asm.Reg{R: amd64.Args[n], Size: size}, src)
		return
	}

	_, imm := src.(asm.Imm)

	switch {
	case asm.IsWide(src):
		f.op2("mov", rax, src)
		f.ins("push", rax)
	case size == 8 || imm:
		f.ins("push", asm.Sized(src, 8))
	default:
		f.ins("movzx", asm.Sized(rax, 4), src)
		f.ins("push", rax)
	}
}

// value returns an operand for reading v at the given size.
func (f *funContext) value(v ir.Value, size int) asm.Operand {
	switch v := v.(type) {
	case ir.Ident:
		return asm.Sized(f.home(v), size)
	case ir.Const:
		return asm.Imm(v)
	case ir.Addr:
		return asm.Label(v)
	case ir.MemPos:
		return f.memPos(v, size)
	}

	ir.Panicf("unsupported value: %T", v)

	return nil
}

// load is value, but the result is never an immediate.
func (f *funContext) load(v ir.Value, size int) asm.Operand {
	op := f.value(v, size)

	switch op.(type) {
	case asm.Imm, asm.Label:
		f.op2("mov", asm.Sized(rax, size), op)
		return asm.Sized(rax, size)
	}

	return op
}

// memPos addresses an array element through rsi and rdi.
func (f *funContext) memPos(m ir.MemPos, size int) asm.Mem {
	f.op2("mov", rsi, f.home(m.Base))

	op := asm.Mem{Base: amd64.RSI, Size: size}

	switch off := m.Offset.(type) {
	case ir.Const:
		op.Disp = int(off) * size
	case ir.Ident:
		f.op2("mov", rdi, asm.Sized(f.home(off), 8))

		op.Index = amd64.RDI
		op.Scale = size
	default:
		ir.Panicf("unsupported offset: %T", off)
	}

	return op
}

// op2 emits a two operand instruction and fixes up
// the forms x86-64 can not encode.
func (f *funContext) op2(mn string, dst, src asm.Operand) {
	switch {
	case mn == "mov" && asm.IsReg(dst):
		if asm.String(dst) == asm.String(src) {
			return
		}

		f.ins(mn, dst, src)
	case asm.IsMem(dst) && (asm.IsMem(src) || asm.IsWide(src)),
		asm.IsReg(dst) && asm.IsWide(src):
		size := opSize(dst)
		a := asm.Sized(rax, size)

		f.ins("push", rax)
		f.ins("mov", asm.Sized(rax, movSize(src, size)), src)
		f.ins(mn, dst, a)
		f.ins("pop", rax)
	default:
		f.ins(mn, dst, src)
	}
}

// movSize is the register size needed to load src for a size wide operation.
// Symbol addresses are always loaded as a whole.
func movSize(src asm.Operand, size int) int {
	if _, ok := src.(asm.Label); ok {
		return 8
	}

	return size
}

func opSize(o asm.Operand) int {
	switch o := o.(type) {
	case asm.Reg:
		return o.Size
	case asm.Mem:
		return o.Size
	}

	return 8
}

func (f *funContext) ins(mn string, ops ...asm.Operand) {
	f.b = append(f.b, '\t')
	f.b = append(f.b, mn...)

	for i, op := range ops {
		if i == 0 {
			f.b = append(f.b, '\t')
		} else {
			f.b = append(f.b, ", "...)
		}

		f.b = op.Append(f.b)
	}

	f.b = append(f.b, '\n')
}

func (f *funContext) line(s string) {
	f.b = append(f.b, s...)
	f.b = append(f.b, '\n')
}
