package asm

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/slowc/compiler/asm/amd64"
)

type (
	// Operand is where a value lives, already sized.
	Operand interface {
		Append(b []byte) []byte
		TlogAppend(b []byte) []byte
	}

	Reg struct {
		R    amd64.Reg
		Size int
	}

	// Mem is [Base + Index*Scale + Disp]. Index is used if Scale != 0.
	Mem struct {
		Base  amd64.Reg
		Index amd64.Reg
		Scale int
		Disp  int
		Size  int
	}

	Imm int64

	// Label is the address of a symbol.
	Label string
)

func (o Reg) Append(b []byte) []byte {
	return append(b, o.R.Name(o.Size)...)
}

func (o Mem) Append(b []byte) []byte {
	b = append(b, amd64.SizeDirective(o.Size)...)
	b = append(b, " ["...)
	b = append(b, o.Base.Name(8)...)

	if o.Scale != 0 {
		b = append(b, '+')
		b = append(b, o.Index.Name(8)...)

		if o.Scale != 1 {
			b = append(b, '*')
			b = strconv.AppendInt(b, int64(o.Scale), 10)
		}
	}

	if o.Disp > 0 {
		b = append(b, '+')
	}

	if o.Disp != 0 {
		b = strconv.AppendInt(b, int64(o.Disp), 10)
	}

	return append(b, ']')
}

func (o Imm) Append(b []byte) []byte {
	return strconv.AppendInt(b, int64(o), 10)
}

func (o Label) Append(b []byte) []byte {
	return append(b, o...)
}

func (o Reg) TlogAppend(b []byte) []byte  { return appendString(b, o) }
func (o Mem) TlogAppend(b []byte) []byte  { return appendString(b, o) }
func (o Imm) TlogAppend(b []byte) []byte  { return appendString(b, o) }
func (o Label) TlogAppend(b []byte) []byte { return appendString(b, o) }

func appendString(b []byte, o Operand) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, String(o))
}

func String(o Operand) string {
	return string(o.Append(nil))
}

// Sized returns o resized. Immediates and labels have no size.
func Sized(o Operand, size int) Operand {
	switch o := o.(type) {
	case Reg:
		o.Size = size
		return o
	case Mem:
		o.Size = size
		return o
	}

	return o
}

func IsMem(o Operand) bool {
	_, ok := o.(Mem)
	return ok
}

func IsReg(o Operand) bool {
	_, ok := o.(Reg)
	return ok
}

// IsWide reports whether o is an immediate not encodable
// as a sign extended 32 bit value, or a symbol address.
func IsWide(o Operand) bool {
	switch o := o.(type) {
	case Imm:
		return int64(o) != int64(int32(o))
	case Label:
		return true
	}

	return false
}
