package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowc/compiler/analyze"
	"github.com/slowlang/slowc/compiler/ast"
	"github.com/slowlang/slowc/compiler/back"
	"github.com/slowlang/slowc/compiler/front"
	"github.com/slowlang/slowc/compiler/ir"
	"github.com/slowlang/slowc/compiler/parse"
)

type Result struct {
	Prog []ast.Stmt
	IR   *ir.Program
	Asm  []byte
}

func CompileFile(ctx context.Context, name string) (res *Result, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

// Compile runs the whole pipeline down to assembly text.
// Analysis diagnostics are returned as analyze.Diagnostics wrapped with the stage name.
func Compile(ctx context.Context, name string, text []byte) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	res = &Result{}

	res.Prog, err = parse.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	err = analyze.Analyze(ctx, res.Prog)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	res.IR, err = front.Generate(ctx, res.Prog)
	if err != nil {
		return nil, errors.Wrap(err, "generate ir")
	}

	res.Asm, err = back.Generate(ctx, res.IR)
	if err != nil {
		return nil, errors.Wrap(err, "generate asm")
	}

	return res, nil
}
