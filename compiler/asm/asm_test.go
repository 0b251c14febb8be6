package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slowlang/slowc/compiler/asm/amd64"
)

func TestOperands(t *testing.T) {
	for _, tc := range []struct {
		Op  Operand
		Exp string
	}{
		{Reg{R: amd64.RBX, Size: 8}, "rbx"},
		{Reg{R: amd64.R10, Size: 1}, "r10b"},
		{Mem{Base: amd64.RBP, Disp: -16, Size: 8}, "qword [rbp-16]"},
		{Mem{Base: amd64.RBP, Disp: 24, Size: 1}, "byte [rbp+24]"},
		{Mem{Base: amd64.RSI, Index: amd64.RDI, Scale: 8, Size: 8}, "qword [rsi+rdi*8]"},
		{Mem{Base: amd64.RSI, Index: amd64.RDI, Scale: 1, Size: 1}, "byte [rsi+rdi]"},
		{Mem{Base: amd64.RSI, Disp: 3, Size: 1}, "byte [rsi+3]"},
		{Imm(-5), "-5"},
		{Label("data_1"), "data_1"},
	} {
		assert.Equal(t, tc.Exp, String(tc.Op))
	}
}

func TestSized(t *testing.T) {
	assert.Equal(t, "ebx", String(Sized(Reg{R: amd64.RBX, Size: 8}, 4)))
	assert.Equal(t, "word [rbp-2]", String(Sized(Mem{Base: amd64.RBP, Disp: -2, Size: 8}, 2)))
	assert.Equal(t, Imm(1), Sized(Imm(1), 1))
}

func TestIsWide(t *testing.T) {
	assert.False(t, IsWide(Imm(1<<31-1)))
	assert.False(t, IsWide(Imm(-1<<31)))
	assert.True(t, IsWide(Imm(1<<31)))
	assert.True(t, IsWide(Label("x")))
	assert.False(t, IsWide(Reg{R: amd64.RAX, Size: 8}))

	assert.True(t, IsMem(Mem{}))
	assert.True(t, IsReg(Reg{}))
}
