package back

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowc/compiler/asm"
	"github.com/slowlang/slowc/compiler/asm/amd64"
	"github.com/slowlang/slowc/compiler/ir"
	"github.com/slowlang/slowc/compiler/set"
	"github.com/slowlang/slowc/compiler/tp"
)

type (
	// Generator emits NASM x86-64 assembly for an IR Program.
	Generator struct{}

	funContext struct {
		*ir.Func

		ops  map[ir.Ident]asm.Operand
		pool int // next free Pool register
		used set.Bits[amd64.Reg]

		frame  int // bytes of stack slots
		params int // Params seen in the current run

		ret string // epilogue label

		b []byte

		tr tlog.Span
	}
)

const trampolines = `
exit:
	mov	rax, 60
	syscall

print:
	push	r11
	mov	rdx, rsi
	mov	rsi, rdi
	mov	rdi, 1
	mov	rax, 1
	syscall
	pop	r11
	ret
`

func New() *Generator { return &Generator{} }

func Generate(ctx context.Context, p *ir.Program) ([]byte, error) {
	return New().Generate(ctx, nil, p)
}

// Generate appends the assembly module to b.
func (g *Generator) Generate(ctx context.Context, b []byte, p *ir.Program) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: generate", "funcs", len(p.Funcs), "data", len(p.Data))
	defer tr.Finish("err", &err)

	b = append(b, "section .data\n"...)

	for _, d := range p.Data {
		b = appendData(b, d)
	}

	b = append(b, "\nsection .text\nglobal _start\n"...)

	for _, f := range p.Funcs {
		b = append(b, '\n')

		b, err = g.genFunc(ctx, b, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	b = append(b, trampolines...)

	return b, nil
}

func appendData(b []byte, d *ir.Data) []byte {
	b = hfmt.Appendf(b, "%s:", d.Label)

	size := d.Elem.Size()

	for i, v := range d.Items {
		if i == 0 {
			b = hfmt.Appendf(b, " %s ", amd64.DataDirective(size))
		} else {
			b = append(b, ", "...)
		}

		switch v := v.(type) {
		case ir.Const:
			b = asm.Imm(v).Append(b)
		case ir.Addr:
			b = append(b, v...)
		default:
			ir.Panicf("data %s: bad item %T", d.Label, v)
		}
	}

	return append(b, '\n')
}

func (g *Generator) genFunc(ctx context.Context, b []byte, fn *ir.Func) (_ []byte, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "back: func", "name", fn.Name, "label", fn.Label)
	defer tr.Finish("err", &err)

	f := &funContext{
		Func: fn,
		ops:  make(map[ir.Ident]asm.Operand),
		ret:  "ret_" + fn.Label,
		tr:   tr,
	}

	start := fn.Label == ir.Start

	f.bindParams()

	for i, x := range fn.Code {
		if _, ok := x.(ir.Param); !ok {
			f.params = 0
		}

		if tr.If("dump_instr") {
			tr.Printw("instr", "i", i, "instr", string(ir.AppendInstr(nil, x)))
		}

		f.instr(x)
	}

	frame := (f.frame + 15) &^ 15
	saved := f.used.Keys()

	tr.Printw("frame", "slots", f.frame, "frame", frame, "regs", f.used.Size(), "names", len(f.ops))

	b = hfmt.Appendf(b, "%s:\n", fn.Label)

	if start {
		b = append(b, "\tmov\trbp, rsp\n"...)
	} else {
		b = append(b, "\tpush\trbp\n\tmov\trbp, rsp\n"...)
	}

	if frame != 0 {
		b = hfmt.Appendf(b, "\tsub\trsp, %d\n", frame)
	}

	if !start {
		for _, r := range saved {
			b = hfmt.Appendf(b, "\tpush\t%s\n", r.String())
		}
	}

	b = append(b, f.b...)

	if start {
		return b, nil
	}

	b = hfmt.Appendf(b, "%s:\n", f.ret)

	for i := len(saved) - 1; i >= 0; i-- {
		b = hfmt.Appendf(b, "\tpop\t%s\n", saved[i].String())
	}

	b = append(b, "\tmov\trsp, rbp\n\tpop\trbp\n"...)

	if n := f.stackParams(); n != 0 {
		b = hfmt.Appendf(b, "\tret\t%d\n", 8*n)
	} else {
		b = append(b, "\tret\n"...)
	}

	return b, nil
}

func (f *funContext) stackParams() int {
	if n := len(f.Params) - len(amd64.Args); n > 0 {
		return n
	}

	return 0
}

// bindParams moves register arguments to their own homes
// and binds stack arguments in place.
func (f *funContext) bindParams() {
	n := f.stackParams()

	for i, p := range f.Params {
		size := f.size(p)

		if i < len(amd64.Args) {
			d := f.dest(p)
			f.ins("mov", d, asm.Reg{R: amd64.Args[i], Size: size})

			continue
		}

		k := i - len(amd64.Args)
		op := asm.Mem{Base: amd64.RBP, Disp: 16 + 8*(n-1-k), Size: size}

		f.ops[p] = op
		f.tr.V("alloc").Printw("stack param", "name", p, "op", op)
	}
}

func (f *funContext) size(name ir.Ident) int {
	t, ok := f.Types[name]
	if !ok || t == nil {
		ir.Panicf("%s: no type for %q", f.Name, name)
	}

	if tp.IsVoid(t) {
		ir.Panicf("%s: void value %q", f.Name, name)
	}

	return t.Size()
}

// dest returns the home of name, allocating it on first write.
func (f *funContext) dest(name ir.Ident) asm.Operand {
	if op, ok := f.ops[name]; ok {
		return op
	}

	size := f.size(name)

	var op asm.Operand

	if f.pool < len(amd64.Pool) {
		r := amd64.Pool[f.pool]
		f.pool++
		f.used.Set(r)

		op = asm.Reg{R: r, Size: size}
	} else {
		f.frame = (f.frame + size + size - 1) / size * size

		op = asm.Mem{Base: amd64.RBP, Disp: -f.frame, Size: size}
	}

	f.ops[name] = op
	f.tr.V("alloc").Printw("bind", "name", name, "op", op, "size", size)

	return op
}

// home returns the operand of an already written name.
func (f *funContext) home(name ir.Ident) asm.Operand {
	op, ok := f.ops[name]
	if !ok {
		ir.Panicf("%s: %q read before written", f.Name, name)
	}

	return op
}
