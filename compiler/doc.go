/*
Package compiler wires the stages together.

	Program Text ->
		parse ->
	Abstract Syntax Tree (ast) ->
		analyze ->
	Typed AST ->
		front ->
	Intermediate Representation (ir) ->
		back ->
	Assembly Text (nasm, x86-64) ->
		build (nasm + ld) ->
	Binary Executable
*/
package compiler
