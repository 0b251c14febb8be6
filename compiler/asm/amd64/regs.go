package amd64

import (
	"github.com/slowlang/slowc/compiler/ir"
)

type Reg int

const (
	RAX Reg = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15

	NumRegs
)

// names by register and operand size: 8, 4, 2, 1 bytes.
var names = [NumRegs][4]string{
	RAX: {"rax", "eax", "ax", "al"},
	RBX: {"rbx", "ebx", "bx", "bl"},
	RCX: {"rcx", "ecx", "cx", "cl"},
	RDX: {"rdx", "edx", "dx", "dl"},
	RSI: {"rsi", "esi", "si", "sil"},
	RDI: {"rdi", "edi", "di", "dil"},
	RBP: {"rbp", "ebp", "bp", "bpl"},
	RSP: {"rsp", "esp", "sp", "spl"},
	R8:  {"r8", "r8d", "r8w", "r8b"},
	R9:  {"r9", "r9d", "r9w", "r9b"},
	R10: {"r10", "r10d", "r10w", "r10b"},
	R11: {"r11", "r11d", "r11w", "r11b"},
	R12: {"r12", "r12d", "r12w", "r12b"},
	R13: {"r13", "r13d", "r13w", "r13b"},
	R14: {"r14", "r14d", "r14w", "r14b"},
	R15: {"r15", "r15d", "r15w", "r15b"},
}

var (
	// Pool is the work register pool in allocation order.
	// All of them are preserved across calls.
	Pool = []Reg{RBX, R10, R11, R12, R13, R14, R15}

	// Args are the integer argument registers.
	Args = []Reg{RDI, RSI, RDX, RCX, R8, R9}
)

// Name is the register alias for an operand of size bytes.
func (r Reg) Name(size int) string {
	if r < 0 || r >= NumRegs {
		return "reg?"
	}

	switch size {
	case 8:
		return names[r][0]
	case 4:
		return names[r][1]
	case 2:
		return names[r][2]
	case 1:
		return names[r][3]
	}

	ir.Panicf("bad operand size %d for %s", size, names[r][0])

	return ""
}

func (r Reg) String() string { return r.Name(8) }

// SizeDirective prefixes memory operands of the given size.
func SizeDirective(size int) string {
	switch size {
	case 1:
		return "byte"
	case 2:
		return "word"
	case 4:
		return "dword"
	case 8:
		return "qword"
	}

	ir.Panicf("bad operand size %d", size)

	return ""
}

// DataDirective declares data items of the given size.
func DataDirective(size int) string {
	switch size {
	case 1:
		return "db"
	case 2:
		return "dw"
	case 4:
		return "dd"
	case 8:
		return "dq"
	}

	ir.Panicf("bad data size %d", size)

	return ""
}

// CondCode is the setcc/jcc suffix for a signed relation.
func CondCode(r ir.Rel) string {
	switch r {
	case ir.Eq:
		return "e"
	case ir.Ne:
		return "ne"
	case ir.Lt:
		return "l"
	case ir.Le:
		return "le"
	case ir.Gt:
		return "g"
	case ir.Ge:
		return "ge"
	}

	ir.Panicf("unknown relation %d", int(r))

	return ""
}
