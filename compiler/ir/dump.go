package ir

import (
	"strconv"

	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/slowc/compiler/tp"
)

func AppendValue(b []byte, v Value) []byte {
	switch v := v.(type) {
	case nil:
		return append(b, "_"...)
	case Ident:
		return append(b, v...)
	case Const:
		return strconv.AppendInt(b, int64(v), 10)
	case Addr:
		return append(append(b, '&'), v...)
	case MemPos:
		b = append(b, v.Base...)
		b = append(b, '[')
		b = AppendValue(b, v.Offset)
		return append(b, ']')
	default:
		return hfmt.Appendf(b, "%v", v)
	}
}

func AppendInstr(b []byte, x Instr) []byte {
	switch x := x.(type) {
	case Label:
		return hfmt.Appendf(b, "%s:", string(x))
	case Assign:
		b = AppendValue(b, x.Dest)
		b = append(b, " = "...)
		b = AppendValue(b, x.Src)
	case Not:
		b = hfmt.Appendf(b, "%s = !", string(x.Dest))
		b = AppendValue(b, x.Src)
	case BinOp:
		if x.Op == Cmp {
			b = append(b, "cmp "...)
			b = AppendValue(b, x.Src1)
			b = append(b, ", "...)
			b = AppendValue(b, x.Src2)

			break
		}

		b = hfmt.Appendf(b, "%s = ", string(x.Dest))
		b = AppendValue(b, x.Src1)
		b = hfmt.Appendf(b, " %v ", x.Op)
		b = AppendValue(b, x.Src2)
	case Set:
		return hfmt.Appendf(b, "%s = set %v", string(x.Dest), x.Rel)
	case Goto:
		return hfmt.Appendf(b, "goto %s", string(x.Label))
	case CondGoto:
		b = append(b, "if "...)
		b = AppendValue(b, x.Src1)
		b = hfmt.Appendf(b, " %v ", x.Rel)
		b = AppendValue(b, x.Src2)
		b = hfmt.Appendf(b, " goto %s", string(x.Label))

		return b
	case Param:
		b = append(b, "param "...)
		b = AppendValue(b, x.Src)

		return b
	case Call:
		if x.Dest != "" {
			return hfmt.Appendf(b, "%s = call %s", string(x.Dest), x.Label)
		}

		return hfmt.Appendf(b, "call %s", x.Label)
	case Return:
		b = append(b, "return"...)

		if x.Src != nil {
			b = append(b, ' ')
			b = AppendValue(b, x.Src)
		}

		return b
	default:
		return hfmt.Appendf(b, "%#v", x)
	}

	return b
}

func (f *Func) AppendTo(b []byte) []byte {
	b = hfmt.Appendf(b, "func %s (%s)", f.Name, f.Label)

	for i, p := range f.Params {
		if i == 0 {
			b = append(b, " params"...)
		}

		b = hfmt.Appendf(b, " %s:%v", string(p), tp.Name(f.Types[p]))
	}

	if f.Ret != nil && !tp.IsVoid(f.Ret) {
		b = hfmt.Appendf(b, " -> %v", f.Ret)
	}

	b = append(b, '\n')

	for _, x := range f.Code {
		if _, ok := x.(Label); !ok {
			b = append(b, '\t')
		}

		b = AppendInstr(b, x)
		b = append(b, '\n')
	}

	return b
}

func (f *Func) String() string { return string(f.AppendTo(nil)) }

func (d *Data) AppendTo(b []byte) []byte {
	b = hfmt.Appendf(b, "%s [%v]", d.Label, d.Elem)

	for i, v := range d.Items {
		if i == 0 {
			b = append(b, " ="...)
		}

		b = append(b, ' ')
		b = AppendValue(b, v)
	}

	return append(b, '\n')
}

func (p *Program) AppendTo(b []byte) []byte {
	for _, d := range p.Data {
		b = d.AppendTo(b)
	}

	for i, f := range p.Funcs {
		if i != 0 || len(p.Data) != 0 {
			b = append(b, '\n')
		}

		b = f.AppendTo(b)
	}

	return b
}

func (p *Program) String() string { return string(p.AppendTo(nil)) }
